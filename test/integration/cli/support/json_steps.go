package support

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

func parseJSON(raw string) (any, error) {
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("not valid JSON: %w\nJSON: %s", err, raw)
	}
	return data, nil
}

// lookupJSON walks a dotted path. Numeric segments index arrays, so
// "tables.0.1" is the second row of the first table. The empty path is the
// root value.
func lookupJSON(data any, path string) (any, error) {
	current := data
	if path == "" {
		return current, nil
	}
	for i, part := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[part]
			if !ok {
				return nil, fmt.Errorf("field '%s' not found in JSON", strings.Join(strings.Split(path, ".")[:i+1], "."))
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("index '%s' out of range in '%s' (length %d)", part, path, len(v))
			}
			current = v[idx]
		default:
			return nil, fmt.Errorf("cannot navigate into non-container at '%s'", part)
		}
	}
	return current, nil
}

// jsonEquals compares the value at path against expected, which is itself
// JSON. A bare word that is not valid JSON is compared as a string.
func jsonEquals(raw, path, expected string) error {
	data, err := parseJSON(raw)
	if err != nil {
		return err
	}
	actual, err := lookupJSON(data, path)
	if err != nil {
		return err
	}

	var want any
	if err := json.Unmarshal([]byte(expected), &want); err != nil {
		want = expected
	}
	if !reflect.DeepEqual(actual, want) {
		got, _ := json.Marshal(actual)
		return fmt.Errorf("JSON field '%s' is %s, expected %s", path, got, expected)
	}
	return nil
}

func jsonContains(raw, path string) error {
	data, err := parseJSON(raw)
	if err != nil {
		return err
	}
	_, err = lookupJSON(data, path)
	return err
}

func jsonLength(raw, path string, n int) error {
	data, err := parseJSON(raw)
	if err != nil {
		return err
	}
	v, err := lookupJSON(data, path)
	if err != nil {
		return err
	}
	switch c := v.(type) {
	case []any:
		if len(c) == n {
			return nil
		}
		return fmt.Errorf("'%s' has %d elements, expected %d", path, len(c), n)
	case map[string]any:
		if len(c) == n {
			return nil
		}
		return fmt.Errorf("'%s' has %d keys, expected %d", path, len(c), n)
	default:
		return fmt.Errorf("'%s' is neither an array nor an object", path)
	}
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	out, err := testCtx.lastCommandOutput()
	if err != nil {
		return err
	}
	_, err = parseJSON(out)
	return err
}

func (testCtx *TestContext) theJSONShouldContain(path string) error {
	return jsonContains(testCtx.LastOutput, path)
}

func (testCtx *TestContext) theJSONFieldShouldBe(path, expected string) error {
	return jsonEquals(testCtx.LastOutput, path, expected)
}

func (testCtx *TestContext) theJSONFieldShouldEqual(path string, expected *godog.DocString) error {
	return jsonEquals(testCtx.LastOutput, path, expected.Content)
}

func (testCtx *TestContext) theJSONFieldShouldHaveElements(path string, n int) error {
	return jsonLength(testCtx.LastOutput, path, n)
}

func (testCtx *TestContext) theResponseJSONFieldShouldBe(path, expected string) error {
	return jsonEquals(testCtx.LastHTTPResponse, path, expected)
}

func (testCtx *TestContext) theResponseJSONFieldShouldEqual(path string, expected *godog.DocString) error {
	return jsonEquals(testCtx.LastHTTPResponse, path, expected.Content)
}

func (testCtx *TestContext) theResponseJSONFieldShouldHaveElements(path string, n int) error {
	return jsonLength(testCtx.LastHTTPResponse, path, n)
}

// RegisterJSONSteps registers assertions on JSON command output and HTTP
// responses.
func (testCtx *TestContext) RegisterJSONSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON should contain "([^"]*)"$`, testCtx.theJSONShouldContain)
	sc.Step(`^the JSON field "([^"]*)" should be (.+)$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the JSON field "([^"]*)" should equal:$`, testCtx.theJSONFieldShouldEqual)
	sc.Step(`^the JSON field "([^"]*)" should have (\d+) (?:elements?|keys?)$`, testCtx.theJSONFieldShouldHaveElements)
	sc.Step(`^the response JSON field "([^"]*)" should be (.+)$`, testCtx.theResponseJSONFieldShouldBe)
	sc.Step(`^the response JSON field "([^"]*)" should equal:$`, testCtx.theResponseJSONFieldShouldEqual)
	sc.Step(`^the response JSON field "([^"]*)" should have (\d+) (?:elements?|keys?)$`, testCtx.theResponseJSONFieldShouldHaveElements)
}
