package mds

import (
	"fmt"

	"github.com/ericlee/eoss/internal/logger"
)

// Bootstrap creates the metadata table if it does not already exist. It is
// run by the bootstrap command (and by tests), never by the serving path.
func Bootstrap(cfg Config, log *logger.Logger) error {
	client := NewClient(cfg, log)
	if err := client.Open(); err != nil {
		return err
	}
	defer client.Close()

	stmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id STRING, filename STRING, version STRING, size INTEGER, timestamp INTEGER, state INTEGER)",
		cfg.Table)
	if err := client.Exec(stmt); err != nil {
		return err
	}
	return client.Commit()
}
