package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericlee/eoss/pkg/sweep"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove partial uploads left by an unclean shutdown",
	Long: `Scan the metadata catalog for objects stuck mid-upload and remove
their rows together with any staging or final files on disk.

The start command runs the same sweep automatically before serving;
this command exists for running it against a stopped instance.`,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logs, closeLogs := buildLoggers(cfg)
	defer closeLogs()

	collected, err := sweep.New(cfg.StoragePath, mdsConfig(cfg), logs.Server).Run()
	if err != nil {
		return err
	}

	fmt.Printf("swept %d partial upload(s)\n", collected)
	return nil
}
