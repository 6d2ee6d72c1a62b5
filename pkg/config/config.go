// Package config loads the EOSS configuration.
//
// Configuration is a process-wide read-only snapshot loaded once at startup
// and passed by value into the constructors that need it; nothing reads it
// through a hidden global.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (EOSS_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the EOSS service configuration.
//
// The key names match the YAML keys of the deployed config file, which are
// uppercase by convention (e.g. VERSION_SALT, STORAGE_PATH).
type Config struct {
	// VersionSalt is the deployment-wide salt mixed into versioned object
	// names. Changing it after objects are stored orphans every versioned
	// object, so treat it as immutable per deployment.
	VersionSalt string `mapstructure:"VERSION_SALT" validate:"required" yaml:"VERSION_SALT"`

	// StoragePath is the directory holding final and staging blob files.
	StoragePath string `mapstructure:"STORAGE_PATH" validate:"required" yaml:"STORAGE_PATH"`

	// MetadataDBPath is the SQLite database file backing the metadata store.
	MetadataDBPath string `mapstructure:"METADATA_DB_PATH" validate:"required" yaml:"METADATA_DB_PATH"`

	// MetadataDBTable is the metadata table name. It is configuration, never
	// network input, and is the only identifier interpolated into SQL.
	MetadataDBTable string `mapstructure:"METADATA_DB_TABLE" validate:"required,alphanum" yaml:"METADATA_DB_TABLE"`

	// LoggingPath is the directory for eoss.log, access.log, mds_client.log
	// and object_client.log.
	LoggingPath string `mapstructure:"LOGGING_PATH" validate:"required" yaml:"LOGGING_PATH"`

	// ObjectLockPath is the directory for per-object lock sentinel files.
	ObjectLockPath string `mapstructure:"OBJECT_LOCK_PATH" validate:"required" yaml:"OBJECT_LOCK_PATH"`

	// LogBackupCount is the number of rotated log files to keep.
	LogBackupCount int `mapstructure:"LOG_BACKUP_COUNT" validate:"min=0" yaml:"LOG_BACKUP_COUNT"`

	// LogMaxBytes is the size threshold that triggers log rotation.
	LogMaxBytes int64 `mapstructure:"LOG_MAX_BYTES" validate:"min=1" yaml:"LOG_MAX_BYTES"`

	// LogLevel is the minimum level written to the service logs.
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"LOG_LEVEL"`

	// Safemode rejects every PUT and DELETE with status 525 when true.
	// Reads, HEAD and stats keep working.
	Safemode bool `mapstructure:"SAFEMODE" yaml:"SAFEMODE"`

	// ListenAddress is the HTTP listen address of the service.
	ListenAddress string `mapstructure:"LISTEN_ADDRESS" validate:"required" yaml:"LISTEN_ADDRESS"`

	// MetricsEnabled exposes Prometheus metrics on GET /metrics when true.
	MetricsEnabled bool `mapstructure:"METRICS_ENABLED" yaml:"METRICS_ENABLED"`
}

// Load loads configuration from file, environment and defaults.
//
// An empty configPath loads defaults plus environment overrides; a missing
// explicit file is an error only when the path was given.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		VersionSalt:     "snoopy",
		StoragePath:     "/tmp",
		MetadataDBPath:  "/tmp/mds.sql",
		MetadataDBTable: "metadata",
		LoggingPath:     "/tmp",
		ObjectLockPath:  "/tmp",
		LogBackupCount:  10,
		LogMaxBytes:     1073741824,
		LogLevel:        "INFO",
		Safemode:        false,
		ListenAddress:   "0.0.0.0:5000",
		MetricsEnabled:  true,
	}
}

// Validate checks the configuration against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("field %s failed %q validation", e.Field(), e.Tag())
		}
		return err
	}
	return nil
}

// Save writes the configuration to path in YAML format.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures defaults, environment overrides and the config file.
func setupViper(v *viper.Viper, configPath string) {
	def := Default()
	v.SetDefault("VERSION_SALT", def.VersionSalt)
	v.SetDefault("STORAGE_PATH", def.StoragePath)
	v.SetDefault("METADATA_DB_PATH", def.MetadataDBPath)
	v.SetDefault("METADATA_DB_TABLE", def.MetadataDBTable)
	v.SetDefault("LOGGING_PATH", def.LoggingPath)
	v.SetDefault("OBJECT_LOCK_PATH", def.ObjectLockPath)
	v.SetDefault("LOG_BACKUP_COUNT", def.LogBackupCount)
	v.SetDefault("LOG_MAX_BYTES", def.LogMaxBytes)
	v.SetDefault("LOG_LEVEL", def.LogLevel)
	v.SetDefault("SAFEMODE", def.Safemode)
	v.SetDefault("LISTEN_ADDRESS", def.ListenAddress)
	v.SetDefault("METRICS_ENABLED", def.MetricsEnabled)

	// Environment overrides: EOSS_SAFEMODE=true, EOSS_STORAGE_PATH=... etc.
	v.SetEnvPrefix("EOSS")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	}
}

func readConfigFile(v *viper.Viper, configPath string) error {
	if configPath == "" {
		return nil
	}
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("configuration file not found: %s", configPath)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// decodeHooks returns the custom decode hooks applied during unmarshal.
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
	)
}

// byteSizeDecodeHook converts human-readable sizes like "1GB" or "512MB" to
// a byte count, so LOG_MAX_BYTES can be written either way.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to.Kind() != reflect.Int64 || from.Kind() != reflect.String {
			return data, nil
		}
		return parseByteSize(data.(string))
	}
}

func parseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(upper, "GB"):
		multiplier, upper = 1<<30, strings.TrimSuffix(upper, "GB")
	case strings.HasSuffix(upper, "MB"):
		multiplier, upper = 1<<20, strings.TrimSuffix(upper, "MB")
	case strings.HasSuffix(upper, "KB"):
		multiplier, upper = 1<<10, strings.TrimSuffix(upper, "KB")
	case strings.HasSuffix(upper, "B"):
		upper = strings.TrimSuffix(upper, "B")
	}

	n, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return n * multiplier, nil
}
