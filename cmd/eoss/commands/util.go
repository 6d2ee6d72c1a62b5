package commands

import (
	"github.com/ericlee/eoss/internal/logger"
	"github.com/ericlee/eoss/pkg/api"
	"github.com/ericlee/eoss/pkg/config"
	"github.com/ericlee/eoss/pkg/mds"
)

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

func mdsConfig(cfg *config.Config) mds.Config {
	return mds.Config{
		Path:  cfg.MetadataDBPath,
		Table: cfg.MetadataDBTable,
	}
}

// buildLoggers opens the four service log files. The returned closer
// flushes and releases them.
func buildLoggers(cfg *config.Config) (api.Loggers, func()) {
	logCfg := logger.Config{
		Dir:         cfg.LoggingPath,
		Level:       cfg.LogLevel,
		MaxBytes:    cfg.LogMaxBytes,
		BackupCount: cfg.LogBackupCount,
	}

	logs := api.Loggers{
		Server: logger.New("eoss", logCfg),
		Access: logger.NewAccess(logCfg),
		MDS:    logger.New("mds_client", logCfg),
		Object: logger.New("object_client", logCfg),
	}

	closer := func() {
		_ = logs.Server.Close()
		_ = logs.Access.Close()
		_ = logs.MDS.Close()
		_ = logs.Object.Close()
	}
	return logs, closer
}
