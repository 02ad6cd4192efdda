package support

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TestContext holds the state for integration tests. Each scenario gets its
// own context, working directory and environment.
type TestContext struct {
	// Command execution state
	LastCommand  string
	LastOutput   string
	LastStderr   string
	LastError    error
	LastExitCode int
	LastDuration time.Duration

	// Test environment
	TempDir     string
	originalDir string
	savedEnv    map[string]*string
	baseEnv     map[string]bool

	// Server state
	HTTPServer         *httptest.Server
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    http.Header
}

// NewTestContext creates a scenario context rooted in a fresh temporary
// directory.
func NewTestContext() (*TestContext, error) {
	originalDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "notepeel-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		TempDir:     tempDir,
		originalDir: originalDir,
		savedEnv:    make(map[string]*string),
	}, nil
}

// Enter makes the temporary directory the working directory and points HOME
// there too, so no user configuration leaks into a scenario.
func (testCtx *TestContext) Enter() error {
	testCtx.baseEnv = make(map[string]bool)
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		testCtx.baseEnv[name] = true
	}

	for _, name := range []string{"HOME", "XDG_CONFIG_HOME"} {
		if err := testCtx.SetEnv(name, testCtx.TempDir); err != nil {
			return err
		}
	}
	if err := os.Chdir(testCtx.TempDir); err != nil {
		return fmt.Errorf("failed to enter temp directory: %w", err)
	}
	return nil
}

// SetEnv sets an environment variable for the rest of the scenario. The
// previous value is restored by Cleanup.
func (testCtx *TestContext) SetEnv(name, value string) error {
	if _, saved := testCtx.savedEnv[name]; !saved {
		if old, ok := os.LookupEnv(name); ok {
			testCtx.savedEnv[name] = &old
		} else {
			testCtx.savedEnv[name] = nil
		}
	}
	return os.Setenv(name, value)
}

// Path resolves a scenario-relative file name.
func (testCtx *TestContext) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}

// Cleanup stops the server, restores the environment and working directory
// and removes the temporary directory.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}

	// A .env file loaded by a command sets variables behind our back.
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if _, saved := testCtx.savedEnv[name]; !saved && testCtx.baseEnv != nil && !testCtx.baseEnv[name] {
			testCtx.savedEnv[name] = nil
		}
	}
	for name, old := range testCtx.savedEnv {
		var err error
		if old == nil {
			err = os.Unsetenv(name)
		} else {
			err = os.Setenv(name, *old)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to restore %s: %w", name, err))
		}
	}

	if err := os.Chdir(testCtx.originalDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to restore working directory: %w", err))
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %w", errors.Join(errs...))
	}
	return nil
}
