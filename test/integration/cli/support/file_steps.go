package support

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/notepeel/internal/testutil"
)

func (testCtx *TestContext) writeFile(name string, data []byte) error {
	path := testCtx.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (testCtx *TestContext) aFileWithContent(name string, content *godog.DocString) error {
	return testCtx.writeFile(name, []byte(content.Content+"\n"))
}

// aVisionResponseWithLines writes an OCR JSON response with one paragraph per
// line of the doc string.
func (testCtx *TestContext) aVisionResponseWithLines(name string, content *godog.DocString) error {
	return testCtx.writeFile(name, testutil.VisionResponse(strings.Split(content.Content, "\n")...))
}

func (testCtx *TestContext) aPNGImage(name string) error {
	return testCtx.writeFile(name, testutil.PNG(4, 4))
}

func (testCtx *TestContext) anEmptyDirectory(name string) error {
	return os.MkdirAll(testCtx.Path(name), 0o750)
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	if !testutil.FileExists(testCtx.Path(name)) {
		return fmt.Errorf("file does not exist: %s", testCtx.Path(name))
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(name, expected string) error {
	content, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", name, err)
	}
	if !strings.Contains(string(content), expected) {
		return fmt.Errorf("file %s does not contain '%s'\nActual content: %s", name, expected, content)
	}
	return nil
}

// RegisterFileSteps registers steps that create inputs and inspect outputs.
func (testCtx *TestContext) RegisterFileSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a file "([^"]*)" with content:$`, testCtx.aFileWithContent)
	sc.Step(`^an OCR response "([^"]*)" with lines:$`, testCtx.aVisionResponseWithLines)
	sc.Step(`^a PNG image "([^"]*)"$`, testCtx.aPNGImage)
	sc.Step(`^an empty directory "([^"]*)"$`, testCtx.anEmptyDirectory)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
}
