package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ericlee/eoss/pkg/api"
	"github.com/ericlee/eoss/pkg/metrics"
	"github.com/ericlee/eoss/pkg/sweep"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the EOSS server",
	Long: `Start the EOSS object storage server.

Before the listener accepts connections, a crash-recovery sweep removes
every partial upload left behind by an unclean shutdown. The server then
serves the object API until interrupted.

Examples:
  # Start with built-in defaults
  eoss start

  # Start with a config file
  eoss start --config /etc/eoss/eoss.yaml

  # Override single settings through the environment
  EOSS_SAFEMODE=true eoss start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logs, closeLogs := buildLoggers(cfg)
	defer closeLogs()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	// reconcile partial uploads before serving
	sweeper := sweep.New(cfg.StoragePath, mdsConfig(cfg), logs.Server)
	collected, err := sweeper.Run()
	if err != nil {
		logs.Server.Error("crash-recovery sweep failed", "error", err)
		return err
	}
	if m != nil {
		m.SweptObjects.Add(float64(collected))
	}

	router := api.NewRouter(*cfg, logs, m)
	server := api.NewServer(cfg.ListenAddress, router, logs.Server)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logs.Server.Info("starting eoss",
		"version", Version,
		"storage_path", cfg.StoragePath,
		"metadata_db", cfg.MetadataDBPath,
		"safemode", cfg.Safemode,
	)
	return server.Start(ctx)
}
