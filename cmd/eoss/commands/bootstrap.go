package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ericlee/eoss/pkg/mds"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Prepare the runtime environment",
	Long: `Create the storage, lock and logging directories and the metadata
catalog table. Safe to run repeatedly; existing directories and tables
are left untouched.`,
	RunE: runBootstrap,
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dirs := []string{
		cfg.StoragePath,
		cfg.ObjectLockPath,
		cfg.LoggingPath,
		filepath.Dir(cfg.MetadataDBPath),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	logs, closeLogs := buildLoggers(cfg)
	defer closeLogs()

	if err := mds.Bootstrap(mdsConfig(cfg), logs.Server); err != nil {
		return err
	}

	fmt.Printf("environment ready: table %q in %s\n", cfg.MetadataDBTable, cfg.MetadataDBPath)
	return nil
}
