// Package watch implements the shared Stopped→Running→Stopped polling
// lifecycle used by all four trigger watchers. Correctness rests entirely
// on the ticker; an fsnotify channel is layered on top purely to shorten
// typical latency, and its absence or failure never weakens the guarantee
// that every trigger is eventually observed within one poll interval.
package watch

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vitruvius-tools/ums-hooks/internal/lock"
	"github.com/vitruvius-tools/ums-hooks/internal/logging"
	"github.com/vitruvius-tools/ums-hooks/internal/trigger"
)

// TickFunc performs one unit of work: check the watcher's trigger path,
// and if present, accept and handle it. accepted reports whether a
// trigger was present this tick, used only for status reporting. err is
// returned only for conditions the watcher's own handler didn't already
// convert into a logged, contained outcome — Base logs the error and
// keeps the loop alive either way.
type TickFunc func() (accepted bool, err error)

// Base is the shared polling loop. It is safe for concurrent Start/Stop
// calls; both are idempotent.
type Base struct {
	name         trigger.Kind
	pollInterval time.Duration
	watchDir     string
	tick         TickFunc
	logger       *logging.Logger
	tickLock     *lock.MutexMap

	mu            sync.Mutex
	running       bool
	cancel        context.CancelFunc
	loopDone      chan struct{}
	lastTickAt    time.Time
	lastTriggerAt time.Time
	tickCount     int64
}

// New constructs a Base for the trigger kind name identifies. watchDir
// may be empty, in which case the watcher falls back to pure
// ticker-driven polling; a non-empty watchDir is watched via fsnotify as
// a best-effort latency shortcut. tickLock is keyed by name and shared
// across every watcher the caller constructs, so that a manual
// TriggerNow (from the Control Socket's "scan" command) can never run
// concurrently with this same watcher's own poll-driven tick, while a
// scan of one watcher never blocks another's.
func New(name trigger.Kind, pollInterval time.Duration, watchDir string, tick TickFunc, logger *logging.Logger, tickLock *lock.MutexMap) *Base {
	return &Base{
		name:         name,
		pollInterval: pollInterval,
		watchDir:     watchDir,
		tick:         tick,
		logger:       logger,
		tickLock:     tickLock,
	}
}

// Start transitions Stopped→Running. A second call while already running
// is a no-op.
func (b *Base) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.loopDone = make(chan struct{})
	b.running = true

	go b.loop(ctx, b.loopDone)
	b.logger.Info("%s watcher started (poll=%s)", b.name, b.pollInterval)
}

// Stop transitions Running→Stopped, joining the background loop within a
// bounded timeout (2x the poll interval). Idempotent: stopping an
// already-stopped watcher is a no-op.
func (b *Base) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	cancel := b.cancel
	done := b.loopDone
	b.running = false
	b.mu.Unlock()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * b.pollInterval):
		b.logger.Warn("%s watcher did not stop within timeout", b.name)
	}
	b.logger.Info("%s watcher stopped", b.name)
}

// Running reports whether the watcher is currently between Start and
// Stop.
func (b *Base) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// LastTickAt returns the time of the most recently completed tick, the
// zero value if none has run yet.
func (b *Base) LastTickAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastTickAt
}

// LastTriggerAt returns the time of the most recently accepted trigger,
// the zero value if none has been accepted yet.
func (b *Base) LastTriggerAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastTriggerAt
}

// TickCount returns the number of completed ticks, for diagnostics only.
func (b *Base) TickCount() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tickCount
}

// TriggerNow runs one tick synchronously, outside the poll cadence. Used
// by the Control Socket's "scan" command for manual, diagnostic-only
// invocation; never required by the hook scripts themselves.
func (b *Base) TriggerNow() {
	b.safeTick()
}

func (b *Base) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	var events chan fsnotify.Event
	var fsErrors chan error
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		b.logger.Warn("%s watcher: fsnotify unavailable, falling back to pure polling: %v", b.name, err)
	} else {
		defer func() { _ = fsWatcher.Close() }()
		if b.watchDir != "" {
			if err := fsWatcher.Add(b.watchDir); err != nil {
				b.logger.Warn("%s watcher: cannot watch %s, falling back to pure polling: %v", b.name, b.watchDir, err)
			} else {
				events = fsWatcher.Events
				fsErrors = fsWatcher.Errors
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.safeTick()
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				b.safeTick()
			}
		case err, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
				continue
			}
			b.logger.Warn("%s watcher: fsnotify error: %v", b.name, err)
		}
	}
}

// safeTick invokes the tick function, recovering from a panic so a single
// bad trigger or handler bug can never take the watcher down. Serialized
// per watcher name via tickLock, so the poll loop and a manual
// TriggerNow can never execute the same watcher's handler concurrently.
func (b *Base) safeTick() {
	b.tickLock.Lock(b.name)
	defer b.tickLock.Unlock(b.name)

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("%s watcher: tick panicked: %v", b.name, r)
		}
	}()

	accepted, err := b.tick()
	if err != nil {
		b.logger.Error("%s watcher: tick error: %v", b.name, err)
	}

	now := time.Now()
	b.mu.Lock()
	b.lastTickAt = now
	b.tickCount++
	if accepted {
		b.lastTriggerAt = now
	}
	b.mu.Unlock()
}
