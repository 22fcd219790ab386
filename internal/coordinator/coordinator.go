// Package coordinator wires the four trigger watchers, the coarse UMS
// lock, and the Control Socket into a single process-level supervisor
// (C11): the thing a developer actually runs as `umshooks run`.
package coordinator

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/vitruvius-tools/ums-hooks/internal/lock"
	"github.com/vitruvius-tools/ums-hooks/internal/logging"
	"github.com/vitruvius-tools/ums-hooks/internal/model"
	"github.com/vitruvius-tools/ums-hooks/internal/status"
	"github.com/vitruvius-tools/ums-hooks/internal/trigger"
	"github.com/vitruvius-tools/ums-hooks/internal/uds"
	"github.com/vitruvius-tools/ums-hooks/internal/ums"
	"github.com/vitruvius-tools/ums-hooks/internal/watch"
	"github.com/vitruvius-tools/ums-hooks/internal/watchers"
)

// watcher is the subset of each watchers.X type the Coordinator depends
// on, satisfied by *watchers.Validation, *watchers.Reload, *watchers.Merge,
// and *watchers.PostCommit.
type watcher interface {
	Start()
	Stop()
	Base() *watch.Base
}

// Coordinator owns process lifecycle: the single-instance file lock, all
// four watchers, and the Control Socket.
type Coordinator struct {
	repoDir string
	paths   trigger.Paths
	config  model.Config
	logger  *logging.Logger
	logFile io.Closer

	fileLock *lock.FileLock
	umsLock  *sync.Mutex
	store    ums.Store

	watchers []namedWatcher
	server   *uds.Server

	shutdown  sync.Once
	done      chan struct{}
	forceExit atomic.Bool
}

type namedWatcher struct {
	name trigger.Kind
	w    watcher
}

// New constructs a Coordinator for repoDir's .ums directory. store is the
// UMS implementation the four watchers call through; callers typically
// pass a *ums.MemStore for tests/demos.
func New(repoDir string, store ums.Store) (*Coordinator, error) {
	absDir, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, fmt.Errorf("resolve repo dir: %w", err)
	}

	paths := trigger.NewPaths(absDir)
	cfg, err := loadConfig(paths)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logPath := filepath.Join(paths.LogsDir(), "coordinator.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open coordinator log: %w", err)
	}

	logger := logging.New(logFile, "coordinator", logging.ParseLevel(cfg.Logging.Level))
	umsLock := &sync.Mutex{}
	tickLock := lock.NewMutexMap()
	diff := ums.MemDiffProducer{}
	pollInterval := cfg.Watcher.PollInterval()

	c := &Coordinator{
		repoDir:  absDir,
		paths:    paths,
		config:   cfg,
		logger:   logger,
		logFile:  logFile,
		fileLock: lock.NewFileLock(paths.CoordinatorLockPath()),
		umsLock:  umsLock,
		store:    store,
		server:   uds.NewServer(paths.ControlSocketPath()),
		done:     make(chan struct{}),
	}

	c.watchers = []namedWatcher{
		{trigger.KindValidation, watchers.NewValidation(paths, pollInterval, store, umsLock, diff, logger, tickLock)},
		{trigger.KindReload, watchers.NewReload(paths, pollInterval, store, umsLock, logger, tickLock)},
		{trigger.KindPostCommit, watchers.NewPostCommit(paths, pollInterval, absDir, store, umsLock, diff, logger, tickLock)},
		{trigger.KindMerge, watchers.NewMerge(paths, pollInterval, store, umsLock, logger, tickLock)},
	}

	return c, nil
}

func loadConfig(paths trigger.Paths) (model.Config, error) {
	cfg := model.DefaultConfig()
	data, err := os.ReadFile(paths.ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", paths.ConfigPath(), err)
	}
	if err := yamlv3.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", paths.ConfigPath(), err)
	}
	return cfg, nil
}

// Run acquires the coordinator lock, starts every watcher and the
// Control Socket, then blocks until SIGINT, SIGTERM, or an explicit
// Shutdown call. Returns ErrCoordinatorAlreadyRunning if another
// coordinator process already holds the lock.
func (c *Coordinator) Run() error {
	if err := c.fileLock.TryLock(); err != nil {
		return fmt.Errorf("%w: %v", ErrCoordinatorAlreadyRunning, err)
	}
	c.logger.Info("coordinator starting pid=%d repo=%s", os.Getpid(), c.repoDir)

	c.registerHandlers()

	if err := c.server.Start(); err != nil {
		c.fileLock.Unlock()
		return fmt.Errorf("start control socket: %w", err)
	}
	c.logger.Info("control socket listening on %s", c.paths.ControlSocketPath())

	c.startAll()
	c.logger.Info("coordinator ready, %d watchers running", len(c.watchers))

	c.waitSignals()
	return nil
}

func (c *Coordinator) startAll() {
	var g errgroup.Group
	for _, nw := range c.watchers {
		nw := nw
		g.Go(func() error {
			nw.w.Start()
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Coordinator) stopAll() {
	var g errgroup.Group
	for _, nw := range c.watchers {
		nw := nw
		g.Go(func() error {
			nw.w.Stop()
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Coordinator) registerHandlers() {
	c.server.Handle(uds.CommandPing, func(req *uds.Request) *uds.Response {
		return uds.SuccessResponse(map[string]string{"status": "ok"})
	})

	c.server.Handle(uds.CommandStatus, func(req *uds.Request) *uds.Response {
		report := status.Report{CoordinatorRunning: true}
		for _, nw := range c.watchers {
			b := nw.w.Base()
			report.Watchers = append(report.Watchers, status.WatcherStatus{
				Name:          string(nw.name),
				Running:       b.Running(),
				TickCount:     b.TickCount(),
				LastTickAt:    b.LastTickAt(),
				LastTriggerAt: b.LastTriggerAt(),
			})
		}
		return uds.SuccessResponse(report)
	})

	c.server.Handle(uds.CommandScan, func(req *uds.Request) *uds.Response {
		c.logger.Info("manual scan requested via control socket")
		for _, nw := range c.watchers {
			nw.w.Base().TriggerNow()
		}
		return uds.SuccessResponse(map[string]string{"status": "scanned"})
	})
}

// waitSignals blocks until SIGINT or SIGTERM, then runs a graceful
// shutdown; it returns without further action once an explicit Shutdown
// call has completed. A second signal forces immediate exit.
func (c *Coordinator) waitSignals() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	var sig os.Signal
	select {
	case sig = <-sigCh:
	case <-c.done:
		return
	}
	c.logger.Info("received signal=%s, initiating graceful shutdown", sig)

	go func() {
		<-sigCh
		c.logger.Warn("received second signal, forcing exit")
		c.forceExit.Store(true)
		os.Exit(1)
	}()

	c.Shutdown()
}

// Shutdown performs graceful shutdown, idempotent via sync.Once: stops
// the Control Socket, stops all four watchers (bounded by each watcher's
// own poll-interval-derived timeout), disposes the store, and releases
// the coordinator lock.
func (c *Coordinator) Shutdown() {
	c.shutdown.Do(func() {
		c.logger.Info("shutdown started")

		if err := c.server.Stop(); err != nil {
			c.logger.Warn("stop control socket: %v", err)
		}

		c.stopAll()

		if err := c.store.Dispose(); err != nil {
			c.logger.Warn("dispose store: %v", err)
		}

		if err := c.fileLock.Unlock(); err != nil {
			c.logger.Warn("release coordinator lock: %v", err)
		}
		if c.logFile != nil {
			_ = c.logFile.Close()
		}
		c.logger.Info("coordinator stopped")
		close(c.done)
	})
}

// ShutdownTimeout returns the coordinator's configured drain timeout,
// used only by callers that want to bound Shutdown externally (e.g. a
// test harness); Shutdown itself relies on each watcher's own
// poll-interval-derived bound.
func (c *Coordinator) ShutdownTimeout() time.Duration {
	return c.config.Daemon.ShutdownTimeout()
}
