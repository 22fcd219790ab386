package status

import (
	"path/filepath"
	"testing"
	"time"
)

func TestQuery_UnreachableSocketReportsNotRunning(t *testing.T) {
	dir := t.TempDir()
	report := Query(filepath.Join(dir, "nonexistent.sock"))
	if report.CoordinatorRunning {
		t.Error("expected CoordinatorRunning false for unreachable socket")
	}
	if len(report.Watchers) != 0 {
		t.Errorf("expected no watchers, got %v", report.Watchers)
	}
}

func TestPrintReport_DoesNotPanic(t *testing.T) {
	printReport(Report{CoordinatorRunning: false})

	printReport(Report{
		CoordinatorRunning: true,
		Watchers: []WatcherStatus{
			{Name: "validation", Running: true, TickCount: 42, LastTickAt: time.Now()},
			{Name: "reload", Running: false, TickCount: 0},
		},
	})
}

func TestRun_UnreachableSocketDoesNotError(t *testing.T) {
	dir := t.TempDir()
	if err := Run(dir, false); err != nil {
		t.Fatalf("Run returned error for unreachable coordinator: %v", err)
	}
	if err := Run(dir, true); err != nil {
		t.Fatalf("Run(jsonOutput=true) returned error for unreachable coordinator: %v", err)
	}
}
