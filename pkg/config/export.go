package config

import (
	"errors"
	"fmt"
)

// Supported export database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ExportConfig contains the settings of the export command.
type ExportConfig struct {
	Dir      string         `yaml:"dir" mapstructure:"dir"`
	Owner    string         `yaml:"owner,omitempty" mapstructure:"owner"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	S3       S3UploadConfig `yaml:"s3" mapstructure:"s3"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver   string               `yaml:"driver" mapstructure:"driver"`
	SQLite   SQLiteDatabaseConfig `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Postgres PostgresConfig       `yaml:"postgres,omitempty" mapstructure:"postgres"`
}

// SQLiteDatabaseConfig contains SQLite-specific settings.
type SQLiteDatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"ssl_mode,omitempty" mapstructure:"ssl_mode"`
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// S3UploadConfig contains the S3-compatible storage export artifacts are
// uploaded to.
type S3UploadConfig struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
	Prefix          string `yaml:"prefix,omitempty" mapstructure:"prefix"`
	StorageClass    string `yaml:"storage_class,omitempty" mapstructure:"storage_class"`
	ACL             string `yaml:"acl,omitempty" mapstructure:"acl"`
	Concurrency     int    `yaml:"concurrency,omitempty" mapstructure:"concurrency"`
}

// Validate checks the export configuration for errors.
func (c *ExportConfig) Validate() error {
	if c.Dir == "" {
		return errors.New("dir is required")
	}

	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := c.S3.Validate(); err != nil {
		return fmt.Errorf("s3: %w", err)
	}

	return nil
}

// Validate checks the database configuration for errors.
func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return errors.New("sqlite.path is required")
		}
	case DriverPostgres:
		if c.Postgres.Host == "" {
			return errors.New("postgres.host is required")
		}

		if c.Postgres.Database == "" {
			return errors.New("postgres.database is required")
		}
	default:
		return fmt.Errorf("unsupported driver %q (want %s or %s)", c.Driver, DriverSQLite, DriverPostgres)
	}

	return nil
}

// Validate checks the S3 configuration for errors. A disabled S3 section is
// always valid.
func (c *S3UploadConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Bucket == "" {
		return errors.New("bucket is required when enabled")
	}

	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}

	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return errors.New("access_key_id and secret_access_key must be set together")
	}

	return nil
}
