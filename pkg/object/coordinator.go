// Package object implements the upload lifecycle coordinator.
//
// A Coordinator operates on a single object within a single metadata
// session. It is the sole writer of the object's metadata row, staging file
// and final file; callers serialise access through the lock manager
// (exclusive for PUT and DELETE, shared for GET) before invoking it.
//
// The PUT path walks an explicit state machine:
//
//	insert/reset row (state=1) -> write staging file + fsync -> state=2
//	-> rename staging to final -> size + timestamp -> state=0
//
// Every step past the row initialization is guarded: on failure the
// coordinator rolls back to "object never existed" and reports whether the
// rollback itself fully succeeded.
package object

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ericlee/eoss/internal/logger"
	"github.com/ericlee/eoss/pkg/mds"
	"github.com/ericlee/eoss/pkg/objectname"
)

// ErrInternal marks unexpected I/O or logic failures inside the
// coordinator, surfaced by the HTTP layer as 523.
var ErrInternal = errors.New("internal coordinator failure")

// RollbackResult reports how a rollback went.
type RollbackResult int

const (
	// RollbackOK means every rollback sub-step succeeded; the system is
	// indistinguishable from "object never existed".
	RollbackOK RollbackResult = iota

	// RollbackPartial means at least one sub-step failed and remnants may
	// remain on disk or in the catalog.
	RollbackPartial
)

// RollbackError terminates a failed PUT. Cause is the step failure that
// triggered the rollback; Result tells whether cleanup completed.
type RollbackError struct {
	Result RollbackResult
	Cause  error
}

func (e *RollbackError) Error() string {
	if e.Result == RollbackOK {
		return fmt.Sprintf("upload rolled back: %v", e.Cause)
	}
	return fmt.Sprintf("upload rollback incomplete: %v", e.Cause)
}

func (e *RollbackError) Unwrap() error {
	return e.Cause
}

// Coordinator couples one object's metadata row, staging file and final
// file. Not safe for concurrent use; construct one per request.
type Coordinator struct {
	filename   string
	version    string
	name       string
	storageDir string

	mds *mds.Client
	log *logger.Logger
}

// NewCoordinator creates a coordinator for (filename, version). The version
// may be empty. The metadata session is owned by the caller; the
// coordinator never opens or closes it.
func NewCoordinator(salt, storageDir, filename, version string, client *mds.Client, log *logger.Logger) *Coordinator {
	return &Coordinator{
		filename:   filename,
		version:    version,
		name:       objectname.Encode(salt, filename, version),
		storageDir: storageDir,
		mds:        client,
		log:        log,
	}
}

// ObjectName returns the canonical identifier of the object.
func (c *Coordinator) ObjectName() string {
	return c.name
}

// FinalPath returns the on-disk path of the closed object file.
func (c *Coordinator) FinalPath() string {
	return filepath.Join(c.storageDir, c.name)
}

// StagingPath returns the on-disk path of the in-progress upload file.
func (c *Coordinator) StagingPath() string {
	return c.FinalPath() + ".temp"
}

// CheckExists probes the object's state from the metadata row and the
// final file's presence in storage.
func (c *Coordinator) CheckExists() (State, error) {
	states, err := c.mds.QueryInts(
		fmt.Sprintf("SELECT state FROM %s WHERE id = ?", c.mds.Table()), c.name)
	if err != nil {
		c.log.Error("failed to acquire object state", "object", c.name, "error", err)
		return StateAbsent, err
	}
	if len(states) == 0 {
		return StateAbsent, nil
	}

	switch states[0] {
	case lifecycleClosed:
		if _, err := os.Stat(c.FinalPath()); err == nil {
			return StatePresent, nil
		}
		return StateLost, nil
	case lifecycleInit:
		return StateInit, nil
	case lifecycleStaged:
		return StateStaged, nil
	default:
		c.log.Error("object row carries unknown state",
			"object", c.name, "state", states[0])
		return StateAbsent, fmt.Errorf("%w: unknown state %d for object %s",
			ErrInternal, states[0], c.name)
	}
}

// Put uploads body as the object's content. override must be true when the
// object is currently present; the row is then reset in place instead of
// inserted, which is how re-uploads are handled.
//
// A failure while initializing the row is returned as-is (no rollback to
// run yet); any later failure triggers Rollback and is returned as a
// *RollbackError.
func (c *Coordinator) Put(body []byte, override bool) error {
	if err := c.initRow(override); err != nil {
		return err
	}

	if err := c.upload(body); err != nil {
		result := c.Rollback()
		return &RollbackError{Result: result, Cause: err}
	}
	return nil
}

// initRow is transition (A): create the row, or reset it for a re-upload,
// in lifecycle state 1 with size and timestamp cleared.
func (c *Coordinator) initRow(override bool) error {
	var err error
	if override {
		err = c.mds.Exec(
			fmt.Sprintf("UPDATE %s SET size = ?, timestamp = ?, state = ? WHERE id = ?", c.mds.Table()),
			nil, nil, lifecycleInit, c.name)
	} else {
		err = c.mds.Exec(
			fmt.Sprintf("INSERT INTO %s VALUES (?, ?, ?, ?, ?, ?)", c.mds.Table()),
			c.name, c.filename, c.nullableVersion(), nil, nil, lifecycleInit)
	}
	if err != nil {
		c.log.Error("failed to set initial object data", "object", c.name, "error", err)
		return err
	}

	if err := c.mds.Commit(); err != nil {
		c.log.Error("failed to commit initial object data", "object", c.name, "error", err)
		return err
	}

	c.log.Info("object initialized in metadata store", "object", c.name, "override", override)
	return nil
}

// upload runs transitions (B) through (E). The staging bytes are synced to
// disk before the row moves to state 2, and the rename is a same-filesystem
// rename, so a crash between the two commits leaves a staged row that the
// startup sweep collects.
func (c *Coordinator) upload(body []byte) error {
	if err := c.writeStaging(body); err != nil {
		c.log.Error("failed to write staging file", "object", c.name, "error", err)
		return err
	}
	c.log.Info("object data saved in staging file", "object", c.name, "bytes", len(body))

	if err := c.setLifecycle(lifecycleStaged); err != nil {
		return err
	}

	if err := os.Rename(c.StagingPath(), c.FinalPath()); err != nil {
		c.log.Error("failed to rename staging file to final file", "object", c.name, "error", err)
		return fmt.Errorf("%w: rename: %v", ErrInternal, err)
	}
	c.log.Info("staging file renamed to final file", "object", c.name)

	fi, err := os.Stat(c.FinalPath())
	if err != nil {
		c.log.Error("failed to stat final file", "object", c.name, "error", err)
		return fmt.Errorf("%w: stat: %v", ErrInternal, err)
	}
	if err := c.setSize(fi.Size()); err != nil {
		return err
	}
	if err := c.setTimestamp(time.Now().Unix()); err != nil {
		return err
	}

	if err := c.setLifecycle(lifecycleClosed); err != nil {
		return err
	}
	c.log.Info("object saved and metadata closed", "object", c.name, "size", fi.Size())
	return nil
}

// writeStaging is transition (B): the staging file must be durable before
// the row may advance to state 2.
func (c *Coordinator) writeStaging(body []byte) error {
	f, err := os.OpenFile(c.StagingPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open staging: %v", ErrInternal, err)
	}

	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: write staging: %v", ErrInternal, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: sync staging: %v", ErrInternal, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close staging: %v", ErrInternal, err)
	}
	return nil
}

func (c *Coordinator) setLifecycle(state int) error {
	c.log.Info("setting object state", "object", c.name, "state", state)

	if err := c.mds.Exec(
		fmt.Sprintf("UPDATE %s SET state = ? WHERE id = ?", c.mds.Table()),
		state, c.name); err != nil {
		c.log.Error("failed to set object state", "object", c.name, "state", state, "error", err)
		return err
	}
	if err := c.mds.Commit(); err != nil {
		c.log.Error("failed to commit object state", "object", c.name, "state", state, "error", err)
		return err
	}
	return nil
}

func (c *Coordinator) setSize(size int64) error {
	if err := c.mds.Exec(
		fmt.Sprintf("UPDATE %s SET size = ? WHERE id = ?", c.mds.Table()),
		size, c.name); err != nil {
		return err
	}
	return c.mds.Commit()
}

func (c *Coordinator) setTimestamp(ts int64) error {
	if err := c.mds.Exec(
		fmt.Sprintf("UPDATE %s SET timestamp = ? WHERE id = ?", c.mds.Table()),
		ts, c.name); err != nil {
		return err
	}
	return c.mds.Commit()
}

// Delete removes a present object: unlink the final file, delete the row,
// commit. No rollback is attempted; the operation is destructive and a
// failure leaves drift for the next sweep to interpret.
func (c *Coordinator) Delete() error {
	if err := os.Remove(c.FinalPath()); err != nil {
		c.log.Error("failed to delete object file", "object", c.name, "error", err)
		return fmt.Errorf("%w: unlink: %v", ErrInternal, err)
	}

	if err := c.mds.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", c.mds.Table()), c.name); err != nil {
		c.log.Error("failed to delete object record", "object", c.name, "error", err)
		return err
	}
	if err := c.mds.Commit(); err != nil {
		c.log.Error("failed to commit object deletion", "object", c.name, "error", err)
		return err
	}

	c.log.Info("object deleted", "object", c.name)
	return nil
}

// Rollback erases every trace of a failed upload: the final file, the
// staging file and the metadata row. Sub-step failures are tallied rather
// than propagated; Rollback never fails its caller.
func (c *Coordinator) Rollback() RollbackResult {
	failures := 0

	for _, path := range []string{c.FinalPath(), c.StagingPath()} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.Remove(path); err != nil {
			failures++
			c.log.Warn("rollback failed to delete file", "path", path, "error", err)
		}
	}

	if err := c.mds.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", c.mds.Table()), c.name); err != nil {
		failures++
		c.log.Warn("rollback failed to delete object record", "object", c.name, "error", err)
	}
	if err := c.mds.Commit(); err != nil {
		failures++
		c.log.Warn("rollback failed to commit record deletion", "object", c.name, "error", err)
	}

	if failures == 0 {
		c.log.Info("rollback done", "object", c.name)
		return RollbackOK
	}
	c.log.Warn("rollback incomplete", "object", c.name, "failures", failures)
	return RollbackPartial
}

func (c *Coordinator) nullableVersion() any {
	if c.version == "" {
		return nil
	}
	return c.version
}
