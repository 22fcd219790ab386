// Package lock provides two independent locking primitives used by the
// Coordinator: a flock-backed FileLock enforcing a single running
// coordinator per repo, and a MutexMap handing out one mutex per trigger
// kind, used to serialize a given watcher's ticks against itself without
// making unrelated watchers wait on each other.
package lock

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/vitruvius-tools/ums-hooks/internal/trigger"
)

// MutexMap lazily allocates one *sync.Mutex per trigger.Kind and hands it
// back on every call, so Lock/Unlock pairs for the same kind serialize
// while different kinds never block each other. watch.Base keys it by
// the kind of trigger it watches, so the Control Socket's "scan" command
// (Base.TriggerNow) can force a kind's handler to run without ever
// overlapping that same kind's own poll-driven tick.
type MutexMap struct {
	mu      sync.Mutex
	mutexes map[trigger.Kind]*sync.Mutex
}

// NewMutexMap returns an empty MutexMap.
func NewMutexMap() *MutexMap {
	return &MutexMap{
		mutexes: make(map[trigger.Kind]*sync.Mutex),
	}
}

// Lock blocks until the mutex for kind is free, allocating it on first use.
func (m *MutexMap) Lock(kind trigger.Kind) {
	m.getMutex(kind).Lock()
}

// Unlock releases the mutex for kind.
func (m *MutexMap) Unlock(kind trigger.Kind) {
	m.getMutex(kind).Unlock()
}

func (m *MutexMap) getMutex(kind trigger.Kind) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mu, ok := m.mutexes[kind]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	m.mutexes[kind] = mu
	return mu
}

// FileLock is an flock-backed exclusive lock on a single file, used by
// the Coordinator to guarantee at most one coordinator process runs
// against a given repo at a time. The lock file's contents are the
// holding process's PID, so a rejected TryLock can report who holds it.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock returns a FileLock over path. The file is created on the
// first TryLock call, not here.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// TryLock acquires the exclusive flock, failing immediately (rather than
// blocking) if another process already holds it. The failure includes the
// PID the holder wrote on its own successful TryLock, if the lock file
// still carries one.
func (fl *FileLock) TryLock() error {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		holder := readHolderPID(f)
		f.Close()
		if holder != "" {
			return fmt.Errorf("acquire lock: coordinator already running as pid %s: %w", holder, err)
		}
		return fmt.Errorf("acquire lock (another coordinator may be running): %w", err)
	}

	// Write PID to lock file
	if err := f.Truncate(0); err != nil {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		return fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		return fmt.Errorf("seek lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		return fmt.Errorf("write PID to lock file: %w", err)
	}
	if err := f.Sync(); err != nil {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		return fmt.Errorf("sync lock file: %w", err)
	}

	fl.file = f
	return nil
}

// readHolderPID reads whatever PID a previous TryLock wrote into f,
// seeking f back to its start first; TryLock closes f right afterwards. It
// never returns an error: a failed read just means the holder can't be
// named in the error message.
func readHolderPID(f *os.File) string {
	if _, err := f.Seek(0, 0); err != nil {
		return ""
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Unlock releases the flock and removes the lock file. Safe to call more
// than once.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}

	if err := syscall.Flock(int(fl.file.Fd()), syscall.LOCK_UN); err != nil {
		fl.file.Close()
		return fmt.Errorf("release lock: %w", err)
	}

	if err := fl.file.Close(); err != nil {
		return fmt.Errorf("close lock file: %w", err)
	}

	os.Remove(fl.path)
	fl.file = nil
	return nil
}
