// Package support holds shared state and step definitions for the CLI
// feature tests.
package support

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TestContext carries state between the steps of one scenario.
type TestContext struct {
	LastArgs   []string
	LastOutput string
	LastError  error

	TempDir string

	createdFiles []string
}

// NewTestContext creates a fresh context with its own temp directory.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "cardlens-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &TestContext{TempDir: tempDir}, nil
}

// Cleanup removes everything the scenario created.
func (testCtx *TestContext) Cleanup() error {
	var errs []error
	for _, file := range testCtx.createdFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// TrackFile registers a file for cleanup after the scenario.
func (testCtx *TestContext) TrackFile(path string) {
	testCtx.createdFiles = append(testCtx.createdFiles, path)
}

// TempFile returns a unique path inside the scenario temp directory.
func (testCtx *TestContext) TempFile(suffix string) string {
	return filepath.Join(testCtx.TempDir, fmt.Sprintf("test-%d%s", time.Now().UnixNano(), suffix))
}
