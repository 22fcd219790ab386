// Package model defines the data structures shared across the hook/watcher
// coordination layer: configuration, request identifiers, and trigger
// records. Validation outcomes live in package outcome and the permanent
// audit records in package changelog.
package model

import "time"

// Config is the coordination layer's on-disk configuration, loaded from
// .ums/config.yaml at coordinator startup.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Watcher WatcherConfig `yaml:"watcher"`
	Hook    HookConfig    `yaml:"hook"`
	Daemon  DaemonConfig  `yaml:"daemon"`
	Logging LoggingConfig `yaml:"logging"`
}

type ProjectConfig struct {
	Name string `yaml:"name"`
	Root string `yaml:"root"`
}

// WatcherConfig controls the four watchers' polling discipline.
type WatcherConfig struct {
	PollIntervalMs int `yaml:"poll_interval_ms"`
}

func (w WatcherConfig) PollInterval() time.Duration {
	if w.PollIntervalMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(w.PollIntervalMs) * time.Millisecond
}

// HookConfig controls the blocking pre-commit hook's timeout policy.
type HookConfig struct {
	TimeoutSec int  `yaml:"timeout_sec"`
	FailOpen   bool `yaml:"fail_open"`
}

func (h HookConfig) Timeout() time.Duration {
	if h.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(h.TimeoutSec) * time.Second
}

type DaemonConfig struct {
	ShutdownTimeoutSec int `yaml:"shutdown_timeout_sec"`
}

func (d DaemonConfig) ShutdownTimeout() time.Duration {
	if d.ShutdownTimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(d.ShutdownTimeoutSec) * time.Second
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when .ums/config.yaml is
// absent or a field is left at its zero value.
func DefaultConfig() Config {
	return Config{
		Watcher: WatcherConfig{PollIntervalMs: 500},
		Hook:    HookConfig{TimeoutSec: 10, FailOpen: false},
		Daemon:  DaemonConfig{ShutdownTimeoutSec: 5},
		Logging: LoggingConfig{Level: "info"},
	}
}
