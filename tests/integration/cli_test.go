// CLI integration tests for poilink.
package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestMain builds the poilink binary once before running tests.
func TestMain(m *testing.M) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		buildErr = err
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "poilink-test-*")
	if err != nil {
		buildErr = err
		os.Exit(1)
	}
	poilinkBin = filepath.Join(tmpDir, "poilink")

	cmd := exec.Command("go", "build", "-o", poilinkBin, "./cmd/poilink")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		buildErr = &BuildError{Err: err, Output: string(output)}
		os.Exit(1)
	}

	code := m.Run()

	os.RemoveAll(tmpDir)
	os.Exit(code)
}

func TestCLI_Init(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRunPoilink("init")
	if result.Stdout == "" {
		t.Error("expected init output message")
	}

	if _, err := os.Stat(env.DataDir); os.IsNotExist(err) {
		t.Error("data directory not created")
	}
	if _, err := os.Stat(filepath.Join(env.DataDir, "poilink.db")); os.IsNotExist(err) {
		t.Error("poilink.db not created")
	}
}

func TestCLI_PlanReportsStats(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunPoilink("init")

	result := env.MustRunPoilink("plan", "--pois", "p1,p2", "--items", "i1,i2", "--schematics", "s1")
	if !strings.Contains(result.Stdout, "2 POIs") {
		t.Errorf("plan output missing POI count: %q", result.Stdout)
	}
	if !strings.Contains(result.Stdout, "= 6 links") {
		t.Errorf("plan output missing candidate count: %q", result.Stdout)
	}
}

func TestCLI_PlanRejectsEmptySelection(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunPoilink("init")

	result := env.RunPoilink("plan", "--items", "i1")
	if result.ExitCode == 0 {
		t.Error("plan with no POIs should exit non-zero")
	}
}

func TestCLI_LinkUndoRoundTrip(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunPoilink("init")

	created := env.MustRunPoilink("--json", "link",
		"--pois", "p1,p2", "--items", "i1", "--schematics", "s1",
		"--created-by", "tester")
	result := ParseJSON[LinkResult](t, created.Stdout)
	if !result.Success || result.Created != 4 {
		t.Fatalf("link result = %+v, want 4 created", result)
	}
	if result.OperationID == "" {
		t.Fatal("no operation ID returned")
	}

	listed := env.MustRunPoilink("--json", "links", "list")
	links := ParseJSON[[]map[string]any](t, listed.Stdout)
	if len(links) != 4 {
		t.Fatalf("links list returned %d entries, want 4", len(links))
	}

	// An identical re-run creates nothing.
	rerun := env.MustRunPoilink("--json", "link",
		"--pois", "p1,p2", "--items", "i1", "--schematics", "s1",
		"--created-by", "tester")
	second := ParseJSON[LinkResult](t, rerun.Stdout)
	if second.Created != 0 || second.DuplicatesSkipped != 4 {
		t.Fatalf("rerun = %+v, want all duplicates", second)
	}

	undone := env.MustRunPoilink("--json", "undo", result.OperationID)
	undo := ParseJSON[UndoOutput](t, undone.Stdout)
	if !undo.Success || undo.UndoneCount != 4 {
		t.Fatalf("undo = %+v, want 4 undone", undo)
	}

	emptied := env.MustRunPoilink("--json", "links", "list")
	after := ParseJSON[[]map[string]any](t, emptied.Stdout)
	if len(after) != 0 {
		t.Errorf("links remain after undo: %v", after)
	}

	// Undoing again is a user error.
	again := env.RunPoilink("--json", "undo", result.OperationID)
	if again.ExitCode == 0 {
		t.Error("second undo should exit non-zero")
	}
}

func TestCLI_LinkQuerySelection(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunPoilink("init")

	created := env.MustRunPoilink("--json", "link",
		"--query", "poi_ids=p1&item_ids=i1,i2",
		"--created-by", "tester")
	result := ParseJSON[LinkResult](t, created.Stdout)
	if result.Created != 2 {
		t.Fatalf("query selection created %d links, want 2", result.Created)
	}
}

func TestCLI_LinkRequiresActor(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunPoilink("init")

	result := env.RunPoilink("link", "--pois", "p1", "--items", "i1")
	if result.ExitCode == 0 {
		t.Error("link without --created-by should exit non-zero")
	}
}

func TestCLI_DryRunCreatesNothing(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunPoilink("init")

	env.MustRunPoilink("link", "--pois", "p1", "--items", "i1",
		"--created-by", "tester", "--dry-run")

	listed := env.MustRunPoilink("--json", "links", "list")
	links := ParseJSON[[]map[string]any](t, listed.Stdout)
	if len(links) != 0 {
		t.Errorf("dry run persisted %d links", len(links))
	}
}

func TestCLI_HistoryListAndClear(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunPoilink("init")

	env.MustRunPoilink("link", "--pois", "p1", "--items", "i1", "--created-by", "tester")
	env.MustRunPoilink("link", "--pois", "p2", "--items", "i2", "--created-by", "tester")

	listed := env.MustRunPoilink("--json", "history", "list")
	history := ParseJSON[[]HistoryEntry](t, listed.Stdout)
	if len(history) != 2 {
		t.Fatalf("history has %d entries, want 2", len(history))
	}
	if history[0].Type != "create" || !history[0].CanUndo {
		t.Errorf("newest entry = %+v", history[0])
	}

	env.MustRunPoilink("history", "clear")
	cleared := env.MustRunPoilink("--json", "history", "list")
	if got := ParseJSON[[]HistoryEntry](t, cleared.Stdout); len(got) != 0 {
		t.Errorf("history has %d entries after clear", len(got))
	}
}

func TestCLI_PerfReportsLastOperation(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunPoilink("init")

	created := env.MustRunPoilink("--json", "link",
		"--pois", "p1", "--items", "i1,i2,i3", "--created-by", "tester")
	result := ParseJSON[LinkResult](t, created.Stdout)

	perf := env.MustRunPoilink("perf")
	if !strings.Contains(perf.Stdout, result.OperationID) {
		t.Errorf("perf output does not mention operation %s: %q", result.OperationID, perf.Stdout)
	}
}

func TestCLI_LinksDeleteReportsMissing(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRunPoilink("init")

	created := env.MustRunPoilink("--json", "link",
		"--pois", "p1", "--items", "i1", "--created-by", "tester")
	result := ParseJSON[LinkResult](t, created.Stdout)
	if len(result.CreatedLinkIDs) != 1 {
		t.Fatalf("created %d links, want 1", len(result.CreatedLinkIDs))
	}

	del := env.RunPoilink("--json", "links", "delete", result.CreatedLinkIDs[0], "no-such-id")
	if del.ExitCode == 0 {
		t.Error("delete with a missing ID should exit non-zero")
	}
	if !strings.Contains(del.Stdout, "no-such-id") {
		t.Errorf("delete output does not report the missing ID: %q", del.Stdout)
	}
}

func TestCLI_Version(t *testing.T) {
	env := NewTestEnv(t)
	result := env.MustRunPoilink("version")
	if !strings.Contains(result.Stdout, "poilink") {
		t.Errorf("version output = %q", result.Stdout)
	}
}
