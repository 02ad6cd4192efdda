package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/notepeel/internal/config"
	"github.com/MeKo-Tech/notepeel/internal/profile"
	"github.com/MeKo-Tech/notepeel/internal/server"
)

// startServer serves the analysis API on a local test listener, replacing a
// server started earlier in the scenario.
func (testCtx *TestContext) startServer(cfg config.ServerConfig, profileName string) error {
	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}
	p, err := profile.Lookup(profileName)
	if err != nil {
		return err
	}
	testCtx.HTTPServer = httptest.NewServer(server.NewServer(cfg, p))
	return nil
}

func (testCtx *TestContext) theAnalysisServerIsRunning() error {
	return testCtx.startServer(config.DefaultConfig().Server, profile.Default)
}

func (testCtx *TestContext) theAnalysisServerIsRunningWithProfile(name string) error {
	return testCtx.startServer(config.DefaultConfig().Server, name)
}

func (testCtx *TestContext) theAnalysisServerIsRunningWithRateLimit(perMinute int) error {
	cfg := config.DefaultConfig().Server
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerMinute = perMinute
	return testCtx.startServer(cfg, profile.Default)
}

func (testCtx *TestContext) do(req *http.Request) error {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(body)
	testCtx.LastHTTPHeaders = resp.Header
	return nil
}

func (testCtx *TestContext) url(path string) (string, error) {
	if testCtx.HTTPServer == nil {
		return "", errors.New("server is not running")
	}
	return testCtx.HTTPServer.URL + path, nil
}

func (testCtx *TestContext) iGET(path string) error {
	u, err := testCtx.url(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return testCtx.do(req)
}

func (testCtx *TestContext) iPOSTJSON(path string, body *godog.DocString) error {
	u, err := testCtx.url(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, u, strings.NewReader(body.Content))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return testCtx.do(req)
}

func (testCtx *TestContext) iPOSTJSONTimes(times int, path string, body *godog.DocString) error {
	for range times {
		if err := testCtx.iPOSTJSON(path, body); err != nil {
			return err
		}
	}
	return nil
}

// iUpload posts name as the "file" field of a multipart form.
func (testCtx *TestContext) iUpload(name, path string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	u, err := testCtx.url(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, u, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testCtx.do(req)
}

// iAnalyzeOverWebSocket sends one request on /ws/analyze and keeps the final
// message, skipping "processing" updates.
func (testCtx *TestContext) iAnalyzeOverWebSocket(request *godog.DocString) error {
	u, err := testCtx.url("/ws/analyze")
	if err != nil {
		return err
	}
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(u, "http"), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(request.Content)); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		var msg server.WebSocketAnalyzeResponse
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("invalid message %s: %w", data, err)
		}
		if msg.Status != "processing" {
			testCtx.LastHTTPResponse = string(data)
			return nil
		}
	}
}

func (testCtx *TestContext) theResponseStatusShouldBe(expected int) error {
	if testCtx.LastHTTPStatusCode != expected {
		return fmt.Errorf("expected status %d, got %d\nBody: %s", expected, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain '%s'\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, expected string) error {
	if got := testCtx.LastHTTPHeaders.Get(name); got != expected {
		return fmt.Errorf("header %s is %q, expected %q", name, got, expected)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldContain(name, expected string) error {
	if got := testCtx.LastHTTPHeaders.Get(name); !strings.Contains(got, expected) {
		return fmt.Errorf("header %s is %q, expected it to contain %q", name, got, expected)
	}
	return nil
}

// RegisterServerSteps registers steps that drive the HTTP and WebSocket API
// through an in-process test server.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the analysis server is running$`, testCtx.theAnalysisServerIsRunning)
	sc.Step(`^the analysis server is running with profile "([^"]*)"$`, testCtx.theAnalysisServerIsRunningWithProfile)
	sc.Step(`^the analysis server is running with a limit of (\d+) requests? per minute$`,
		testCtx.theAnalysisServerIsRunningWithRateLimit)
	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^I POST to "([^"]*)" with JSON:$`, testCtx.iPOSTJSON)
	sc.Step(`^I POST (\d+) times to "([^"]*)" with JSON:$`, testCtx.iPOSTJSONTimes)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)"$`, testCtx.iUpload)
	sc.Step(`^I analyze over the WebSocket with:$`, testCtx.iAnalyzeOverWebSocket)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response header "([^"]*)" should contain "([^"]*)"$`, testCtx.theResponseHeaderShouldContain)
}
