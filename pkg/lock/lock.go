// Package lock provides per-object advisory locks.
//
// Locks are OS file locks (flock) taken on a sentinel file
// <dir>/<object_name>.lock. Readers take a shared lock, writers an
// exclusive one; acquisition is always non-blocking and contention is
// reported immediately as ErrBusy rather than queued. The locks are
// advisory: external processes can bypass them, and the sentinel files are
// never garbage-collected.
package lock

import (
	"errors"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/ericlee/eoss/internal/logger"
)

// ErrBusy is returned when a lock cannot be acquired without blocking.
var ErrBusy = errors.New("object is locked by another request")

// Manager hands out sentinel-file locks keyed by object name.
type Manager struct {
	dir string
	log *logger.Logger
}

// Handle is an acquired lock. Release it exactly once.
type Handle struct {
	fl  *flock.Flock
	log *logger.Logger
}

// NewManager creates a manager placing sentinel files under dir.
func NewManager(dir string, log *logger.Logger) *Manager {
	return &Manager{dir: dir, log: log}
}

// AcquireShared takes a non-blocking shared lock on the object's sentinel.
// Multiple shared holders may coexist; an exclusive holder causes ErrBusy.
func (m *Manager) AcquireShared(objectName string) (*Handle, error) {
	return m.acquire(objectName, false)
}

// AcquireExclusive takes a non-blocking exclusive lock on the object's
// sentinel. Any other holder, shared or exclusive, causes ErrBusy.
func (m *Manager) AcquireExclusive(objectName string) (*Handle, error) {
	return m.acquire(objectName, true)
}

func (m *Manager) acquire(objectName string, exclusive bool) (*Handle, error) {
	path := m.sentinelPath(objectName)
	fl := flock.New(path)

	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = fl.TryLock()
	} else {
		ok, err = fl.TryRLock()
	}
	if err != nil {
		m.log.Error("failed to acquire object lock",
			"object", objectName, "sentinel", path, "exclusive", exclusive, "error", err)
		return nil, err
	}
	if !ok {
		m.log.Info("object lock bailed",
			"object", objectName, "exclusive", exclusive)
		return nil, ErrBusy
	}

	m.log.Debug("object lock acquired",
		"object", objectName, "exclusive", exclusive)
	return &Handle{fl: fl, log: m.log}, nil
}

func (m *Manager) sentinelPath(objectName string) string {
	return filepath.Join(m.dir, objectName+".lock")
}

// Release drops the lock and closes the sentinel file descriptor. The
// sentinel file itself stays on disk.
func (h *Handle) Release() {
	if h == nil || h.fl == nil {
		return
	}
	if err := h.fl.Unlock(); err != nil {
		h.log.Warn("failed to release object lock",
			"sentinel", h.fl.Path(), "error", err)
		return
	}
	h.log.Debug("object lock released", "sentinel", h.fl.Path())
	h.fl = nil
}
