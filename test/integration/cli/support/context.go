package support

import (
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand  string
	LastOutput   string
	LastError    error
	LastExitCode int
	LastDuration time.Duration

	// Test environment
	TempDir      string
	previousEnv  map[string]*string
	HTTPServer   *httptest.Server
	SessionConn  *websocket.Conn
	LastFrame    map[string]interface{}
	LastPayload  []byte
	LastSeq      int64

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   []byte
	LastHTTPHeaders    map[string]string
}

// NewTestContext creates a new test context with its own temp directory.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "quadwarp-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &TestContext{
		TempDir:         tempDir,
		previousEnv:     map[string]*string{},
		LastHTTPHeaders: map[string]string{},
	}, nil
}

// Cleanup stops servers, restores the environment and removes temp files.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	if testCtx.SessionConn != nil {
		_ = testCtx.SessionConn.Close()
		testCtx.SessionConn = nil
	}
	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}

	for name, prev := range testCtx.previousEnv {
		var err error
		if prev == nil {
			err = os.Unsetenv(name)
		} else {
			err = os.Setenv(name, *prev)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to restore %s: %w", name, err))
		}
	}

	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// SetEnv sets an environment variable for the rest of the scenario.
func (testCtx *TestContext) SetEnv(name, value string) error {
	if _, seen := testCtx.previousEnv[name]; !seen {
		if prev, ok := os.LookupEnv(name); ok {
			testCtx.previousEnv[name] = &prev
		} else {
			testCtx.previousEnv[name] = nil
		}
	}
	return os.Setenv(name, value)
}

// Path resolves a scenario path against the temp directory.
func (testCtx *TestContext) Path(name string) string {
	name = testCtx.substituteCommandVariables(name)
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}

// substituteCommandVariables replaces {tmp} with the scenario temp directory.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	return strings.ReplaceAll(command, "{tmp}", testCtx.TempDir)
}
