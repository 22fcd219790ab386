package ums

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vitruvius-tools/ums-hooks/internal/outcome"
)

// ValidateFunc lets a MemStore caller plug in custom validation logic
// (e.g. "every resource must declare a root System") without requiring a
// real persistence layer. The default, if none is set, always succeeds.
type ValidateFunc func(resources map[string]string) outcome.Outcome

// MemStore is an in-memory Store good enough to exercise the watcher
// pipeline end to end: resources are just name → content strings, and
// Reload re-reads them from a caller-supplied loader function rather than
// touching a working tree directly, so tests can simulate a branch switch
// without shelling out to git.
type MemStore struct {
	mu        sync.RWMutex
	resources map[string]string
	loader    func() (map[string]string, error)
	validate  ValidateFunc
	disposed  bool
}

// NewMemStore constructs a MemStore whose resource set comes from loader.
// loader is invoked once immediately and again on every Reload.
func NewMemStore(loader func() (map[string]string, error), validate ValidateFunc) (*MemStore, error) {
	if validate == nil {
		validate = func(map[string]string) outcome.Outcome { return outcome.Success() }
	}
	s := &MemStore{loader: loader, validate: validate}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MemStore) Reload() error {
	resources, err := s.loader()
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return fmt.Errorf("reload: store disposed")
	}
	s.resources = resources
	return nil
}

func (s *MemStore) Validate() (outcome.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.disposed {
		return outcome.Outcome{}, fmt.Errorf("validate: store disposed")
	}
	snapshot := make(map[string]string, len(s.resources))
	for k, v := range s.resources {
		snapshot[k] = v
	}
	return s.validate(snapshot), nil
}

func (s *MemStore) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.resources = nil
	return nil
}

func (s *MemStore) OpenView() (View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.disposed {
		return nil, fmt.Errorf("open view: store disposed")
	}
	names := make([]string, 0, len(s.resources))
	for k := range s.resources {
		names = append(names, k)
	}
	sort.Strings(names)
	return &memView{resources: names}, nil
}

type memView struct {
	resources []string
}

func (v *memView) Resources() []string { return v.resources }

// MemDiffProducer compares the resource path sets of two views. It only
// depends on the View interface's Resources method, so it works against
// any Store implementation's views, not just MemStore's.
type MemDiffProducer struct{}

func (MemDiffProducer) Summarize(before, after View) ([]FileChange, error) {
	beforeSet := toSet(before.Resources())
	afterSet := toSet(after.Resources())

	var changes []FileChange
	for name := range afterSet {
		if !beforeSet[name] {
			changes = append(changes, FileChange{Path: name, Change: ChangeAdded})
		}
	}
	for name := range beforeSet {
		if !afterSet[name] {
			changes = append(changes, FileChange{Path: name, Change: ChangeRemoved})
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Path == changes[j].Path {
			return changes[i].Change < changes[j].Change
		}
		return changes[i].Path < changes[j].Path
	})
	return changes, nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// FormatFileChanges renders a []FileChange the way the Changelog Writer
// embeds it under the "FILE CHANGES" heading, or the literal sentinel
// when changes is empty.
func FormatFileChanges(changes []FileChange) string {
	if len(changes) == 0 {
		return "No file changes detected."
	}
	var b strings.Builder
	for i, c := range changes {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "  %s: %s", c.Change, c.Path)
	}
	return b.String()
}
