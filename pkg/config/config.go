package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is the prefix of environment variable overrides, e.g.
	// SOLVERSTATS_GLOBAL_LOG_LEVEL overrides global.log_level.
	EnvPrefix = "SOLVERSTATS"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultResultsDir is the default directory holding solver results.
	DefaultResultsDir = "./results"

	// DefaultExportDir is the default directory for exported tables.
	DefaultExportDir = "./export"

	// DefaultDatabaseDriver is the default export database driver.
	DefaultDatabaseDriver = DriverSQLite

	// DefaultSQLitePath is the default SQLite database file.
	DefaultSQLitePath = "solverstats.db"

	// DefaultListen is the default API listen address.
	DefaultListen = ":8080"

	// DefaultShutdownTimeout bounds the graceful API shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultRequestsPerMinute is the default per-IP API rate limit.
	DefaultRequestsPerMinute = 120

	// DefaultS3Region is used when no region is configured.
	DefaultS3Region = "us-east-1"

	// DefaultS3Prefix is the default key prefix of uploaded exports.
	DefaultS3Prefix = "solverstats"

	// DefaultS3Concurrency is the default number of parallel uploads.
	DefaultS3Concurrency = 4
)

// Config is the root configuration for solverstats.
type Config struct {
	Global  GlobalConfig  `yaml:"global" mapstructure:"global"`
	Results ResultsConfig `yaml:"results" mapstructure:"results"`
	Export  ExportConfig  `yaml:"export" mapstructure:"export"`
	API     APIConfig     `yaml:"api" mapstructure:"api"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// ResultsConfig locates the solver results to load.
type ResultsConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Enrich bool   `yaml:"enrich" mapstructure:"enrich"`
}

// defaults are registered with viper so that every key can be overridden
// from the environment, even when no file sets it.
var defaults = map[string]any{
	"global.log_level": DefaultLogLevel,

	"results.dir":    DefaultResultsDir,
	"results.enrich": true,

	"export.dir":                        DefaultExportDir,
	"export.owner":                      "",
	"export.database.driver":            DefaultDatabaseDriver,
	"export.database.sqlite.path":       DefaultSQLitePath,
	"export.database.postgres.host":     "localhost",
	"export.database.postgres.port":     5432,
	"export.database.postgres.user":     "",
	"export.database.postgres.password": "",
	"export.database.postgres.database": "solverstats",
	"export.database.postgres.ssl_mode": "disable",
	"export.s3.enabled":                 false,
	"export.s3.endpoint_url":            "",
	"export.s3.region":                  DefaultS3Region,
	"export.s3.bucket":                  "",
	"export.s3.access_key_id":           "",
	"export.s3.secret_access_key":       "",
	"export.s3.force_path_style":        false,
	"export.s3.prefix":                  DefaultS3Prefix,
	"export.s3.storage_class":           "",
	"export.s3.acl":                     "",
	"export.s3.concurrency":             DefaultS3Concurrency,

	"api.listen":                         DefaultListen,
	"api.cors_origins":                   []string{},
	"api.shutdown_timeout":               DefaultShutdownTimeout.String(),
	"api.rate_limit.enabled":             false,
	"api.rate_limit.requests_per_minute": DefaultRequestsPerMinute,
}

// Load reads and merges the configuration files at paths, in order, over
// the defaults, then applies environment overrides. With no paths only
// defaults and the environment are used.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("creating config decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Global.LogLevel); err != nil {
		return fmt.Errorf("global.log_level: %w", err)
	}

	if c.Results.Dir == "" {
		return errors.New("results.dir is required")
	}

	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}

	return data, nil
}
