package store

import (
	"testing"
)

func TestRunLifecycle(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	id, err := s.StartRun("run-abc", "LIC-1", "active_packages")
	if err != nil {
		t.Fatalf("StartRun() error: %v", err)
	}

	run, err := s.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}
	if run.Status != StatusRunning {
		t.Errorf("status = %q, want %q", run.Status, StatusRunning)
	}
	if run.RunID != "run-abc" || run.LicenseNumber != "LIC-1" || run.Report != "active_packages" {
		t.Errorf("unexpected run: %+v", run)
	}

	if err := s.FinishRun(id, StatusDone, 1234, "output/LIC-1_active_packages.csv", ""); err != nil {
		t.Fatalf("FinishRun() error: %v", err)
	}

	run, err = s.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}
	if run.Status != StatusDone {
		t.Errorf("status = %q, want %q", run.Status, StatusDone)
	}
	if !run.RecordCount.Valid || run.RecordCount.Int64 != 1234 {
		t.Errorf("record count = %+v, want 1234", run.RecordCount)
	}
	if !run.OutputPath.Valid || run.OutputPath.String == "" {
		t.Errorf("output path = %+v, want set", run.OutputPath)
	}
}

func TestListRunsFiltersByStatus(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	okID, err := s.StartRun("run-ok", "LIC-1", "lab_results")
	if err != nil {
		t.Fatalf("StartRun() error: %v", err)
	}
	failedID, err := s.StartRun("run-bad", "LIC-1", "lab_results")
	if err != nil {
		t.Fatalf("StartRun() error: %v", err)
	}

	if err := s.FinishRun(okID, StatusDone, 10, "output/ok.csv", ""); err != nil {
		t.Fatalf("FinishRun() error: %v", err)
	}
	if err := s.FinishRun(failedID, StatusFailed, 0, "", "retry attempts exhausted"); err != nil {
		t.Fatalf("FinishRun() error: %v", err)
	}

	all, err := s.ListRuns("")
	if err != nil {
		t.Fatalf("ListRuns() error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d runs, want 2", len(all))
	}

	failed, err := s.ListRuns(StatusFailed)
	if err != nil {
		t.Fatalf("ListRuns(failed) error: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("got %d failed runs, want 1", len(failed))
	}
	if !failed[0].Error.Valid || failed[0].Error.String == "" {
		t.Errorf("failed run missing error message: %+v", failed[0])
	}
}

func TestStartRunDuplicateRunID(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	if _, err := s.StartRun("run-dup", "LIC-1", "items"); err != nil {
		t.Fatalf("StartRun() error: %v", err)
	}
	if _, err := s.StartRun("run-dup", "LIC-1", "items"); err == nil {
		t.Error("expected unique constraint violation for duplicate run id")
	}
}
