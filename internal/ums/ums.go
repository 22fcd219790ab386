// Package ums defines the coordination layer's contract with the model
// store it fronts, plus a self-contained in-memory implementation good
// enough to exercise the full watcher pipeline in tests and demos. It is
// explicitly not a production model store: it holds resources in a map
// and never claims to implement change propagation or consistency
// preservation across a real persistence layer.
package ums

import (
	"github.com/vitruvius-tools/ums-hooks/internal/outcome"
)

// Store is the contract watchers depend on. A Store implementation must
// treat every call as safe to invoke while holding the coordination
// layer's single coarse-grained lock — Store methods are never called
// concurrently with each other by this package.
type Store interface {
	// Reload re-reads model state from the working tree. Any View handle
	// obtained before Reload is stale afterward; this package never
	// enforces that at runtime, it is a contract on the caller.
	Reload() error

	// Validate runs validation over all currently loaded resources.
	Validate() (outcome.Outcome, error)

	// Dispose releases any resources held by the store.
	Dispose() error

	// OpenView returns a short-lived read handle over the current state.
	OpenView() (View, error)
}

// View is a short-lived read handle over model state at a point in time.
// It must never be retained across a Reload.
type View interface {
	// Resources lists the paths of model resources visible in this view.
	Resources() []string
}

// FileChange describes one file-level difference surfaced by a
// DiffProducer, feeding the Changelog Writer's "FILE CHANGES" section.
type FileChange struct {
	Path   string
	Change ChangeKind
}

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// DiffProducer summarizes the difference between two views. When no
// DiffProducer is wired, callers fall back to the literal sentinel
// "No file changes detected." rather than treating the absence as an
// error.
type DiffProducer interface {
	Summarize(before, after View) ([]FileChange, error)
}
