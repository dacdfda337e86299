// Package integration provides end-to-end tests for the poilink engine and CLI.
package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	// poilinkBin is the path to the built poilink binary.
	poilinkBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the project root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// TestEnv provides an isolated test environment with its own config and data
// directory.
type TestEnv struct {
	t         *testing.T
	TempDir   string
	ConfigDir string
	DataDir   string
}

// NewTestEnv creates a new isolated test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build poilink: %v", buildErr)
	}
	if poilinkBin == "" {
		t.Fatal("poilink binary not built (poilinkBin is empty)")
	}

	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	configDir := filepath.Join(tempDir, "config")

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	configContent := "backend: sqlite\ndata_dir: " + dataDir + "\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return &TestEnv{
		t:         t,
		TempDir:   tempDir,
		ConfigDir: configDir,
		DataDir:   dataDir,
	}
}

// CmdResult holds the result of a poilink command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunPoilink executes the poilink CLI with the given arguments.
func (e *TestEnv) RunPoilink(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{"--config-dir", e.ConfigDir, "--data-dir", e.DataDir}, args...)
	cmd := exec.Command(poilinkBin, allArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			e.t.Fatalf("failed to run poilink: %v", err)
		}
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRunPoilink executes the poilink CLI and fails the test on non-zero exit.
func (e *TestEnv) MustRunPoilink(args ...string) CmdResult {
	e.t.Helper()
	result := e.RunPoilink(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("poilink %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}

// LinkResult mirrors the JSON output of `poilink link --json`.
type LinkResult struct {
	Success           bool     `json:"success"`
	Created           int      `json:"created"`
	Failed            int      `json:"failed"`
	DuplicatesSkipped int      `json:"duplicates_skipped"`
	TotalProcessed    int      `json:"total_processed"`
	CanUndo           bool     `json:"can_undo"`
	OperationID       string   `json:"operation_id"`
	CreatedLinkIDs    []string `json:"created_link_ids"`
	Errors            []string `json:"errors"`
}

// UndoOutput mirrors the JSON output of `poilink undo --json`.
type UndoOutput struct {
	Success     bool     `json:"success"`
	UndoneCount int      `json:"undone_count"`
	FailedIDs   []string `json:"failed_ids"`
}

// HistoryEntry mirrors one element of `poilink history list --json`.
type HistoryEntry struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Status  string `json:"status"`
	CanUndo bool   `json:"can_undo"`
	Details struct {
		LinksCreated int      `json:"links_created"`
		LinkIDs      []string `json:"link_ids"`
	} `json:"details"`
}
