// Package sweep reconciles partial uploads left behind by a crash.
//
// The sweep runs once before the HTTP server accepts connections: every
// metadata row whose lifecycle state is not closed is a remnant of an
// interrupted PUT, so its on-disk files (final and staging) are erased and
// the row deleted. Closed rows without a file ("lost" objects) are left
// alone; an operator tool handles those. Lock sentinel files are never
// touched.
package sweep

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ericlee/eoss/internal/logger"
	"github.com/ericlee/eoss/pkg/mds"
)

// Sweeper removes non-closed catalog rows and their storage remnants.
type Sweeper struct {
	storageDir string
	mdsCfg     mds.Config
	log        *logger.Logger
}

// New creates a sweeper over the given storage directory and metadata
// store.
func New(storageDir string, mdsCfg mds.Config, log *logger.Logger) *Sweeper {
	return &Sweeper{storageDir: storageDir, mdsCfg: mdsCfg, log: log}
}

// Run executes one sweep pass in its own metadata session. It returns the
// number of rows collected.
func (s *Sweeper) Run() (int, error) {
	client := mds.NewClient(s.mdsCfg, s.log)
	if err := client.Open(); err != nil {
		return 0, err
	}
	defer client.Close()

	ids, err := client.QueryStrings(
		fmt.Sprintf("SELECT id FROM %s WHERE state != 0", client.Table()))
	if err != nil {
		return 0, err
	}

	if len(ids) == 0 {
		s.log.Info("no non-closed records to sweep")
		return 0, nil
	}
	s.log.Info("sweeping non-closed records", "count", len(ids))

	for _, id := range ids {
		s.cleanStorage(id)
	}

	if err := client.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE state != 0", client.Table())); err != nil {
		return 0, err
	}
	if err := client.Commit(); err != nil {
		return 0, err
	}

	s.log.Info("sweep done", "collected", len(ids))
	return len(ids), nil
}

// cleanStorage unlinks the object's final and staging files. Missing files
// are not errors; unlink failures are logged and the row is still deleted,
// matching the destructive nature of the sweep.
func (s *Sweeper) cleanStorage(id string) {
	final := filepath.Join(s.storageDir, id)
	for _, path := range []string{final, final + ".temp"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.Remove(path); err != nil {
			s.log.Warn("failed to remove storage remnant", "path", path, "error", err)
			continue
		}
		s.log.Info("removed storage remnant", "path", path)
	}
}
