// Package status renders and queries coordinator liveness: the Control
// Socket's "status" command reports each watcher's running/stopped state
// and last-tick/last-trigger timestamps, in place of process- or
// tmux-level introspection.
package status

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vitruvius-tools/ums-hooks/internal/uds"
)

// Report is the payload returned by the Control Socket's "status" command.
type Report struct {
	CoordinatorRunning bool            `json:"coordinator_running"`
	Watchers           []WatcherStatus `json:"watchers,omitempty"`
}

// WatcherStatus mirrors watch.Base's externally-visible lifecycle state for
// a single watcher.
type WatcherStatus struct {
	Name          string    `json:"name"`
	Running       bool      `json:"running"`
	TickCount     int64     `json:"tick_count"`
	LastTickAt    time.Time `json:"last_tick_at,omitempty"`
	LastTriggerAt time.Time `json:"last_trigger_at,omitempty"`
}

// Run queries the Control Socket at umsDir/control.sock and prints the
// result. It never fails on a stopped coordinator: the absence of a
// reachable socket is itself a valid, reportable status.
func Run(umsDir string, jsonOutput bool) error {
	sockPath := filepath.Join(umsDir, uds.DefaultSocketName)
	report := Query(sockPath)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(report)
	return nil
}

// Query sends a "status" command to the Control Socket and returns the
// decoded report. If the coordinator is not reachable, it returns a report
// with CoordinatorRunning false rather than an error: "not running" is the
// expected steady state between commits.
func Query(sockPath string) Report {
	client := uds.NewClient(sockPath)
	client.SetTimeout(2 * time.Second)

	resp, err := client.SendCommand(uds.CommandStatus, nil)
	if err != nil || !resp.Success {
		return Report{CoordinatorRunning: false}
	}

	var report Report
	if err := json.Unmarshal(resp.Data, &report); err != nil {
		return Report{CoordinatorRunning: false}
	}
	report.CoordinatorRunning = true
	return report
}

func printReport(r Report) {
	if !r.CoordinatorRunning {
		fmt.Println("Coordinator: not running")
		return
	}

	fmt.Println("Coordinator: running")

	if len(r.Watchers) == 0 {
		fmt.Println("\nWatchers: none")
		return
	}

	fmt.Println("\nWatchers:")
	fmt.Printf("  %-14s  %-8s  %8s  %-24s  %-24s\n", "NAME", "STATE", "TICKS", "LAST_TICK", "LAST_TRIGGER")
	for _, w := range r.Watchers {
		state := "stopped"
		if w.Running {
			state = "running"
		}
		lastTick := "-"
		if !w.LastTickAt.IsZero() {
			lastTick = w.LastTickAt.Format(time.RFC3339)
		}
		lastTrigger := "-"
		if !w.LastTriggerAt.IsZero() {
			lastTrigger = w.LastTriggerAt.Format(time.RFC3339)
		}
		fmt.Printf("  %-14s  %-8s  %8d  %-24s  %-24s\n", w.Name, state, w.TickCount, lastTick, lastTrigger)
	}
}
