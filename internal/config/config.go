// Package config handles configuration for retaildw. Values come from a
// config file (YAML) and CLI flag overrides; flags take precedence over file
// values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for a pipeline run.
type Config struct {
	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Source describes the raw transactions file.
	Source SourceConfig `mapstructure:"source"`

	// Clean configures the cleaning stage.
	Clean CleanConfig `mapstructure:"clean"`

	// Warehouse selects and configures the storage backend.
	Warehouse WarehouseConfig `mapstructure:"warehouse"`

	// Export configures the per-table CSV export for the dashboard tool.
	Export ExportConfig `mapstructure:"export"`
}

// SourceConfig describes the raw input file.
type SourceConfig struct {
	// Path is the local filesystem path to the transactions CSV.
	Path string `mapstructure:"path"`

	// Delimiter is the CSV field delimiter; the first rune is used.
	Delimiter string `mapstructure:"delimiter"`

	// Encoding is the input byte encoding: "utf-8" or "iso-8859-1".
	// The public Online Retail II exports need "iso-8859-1".
	Encoding string `mapstructure:"encoding"`
}

// CleanConfig configures the cleaning stage.
type CleanConfig struct {
	// DedupPolicy is "exact" (whole-row identity, default) or
	// "invoice-line" (invoice + stock code + quantity + timestamp).
	DedupPolicy string `mapstructure:"dedup_policy"`

	// DateLayouts overrides the invoice_date parse layouts, tried in order.
	DateLayouts []string `mapstructure:"date_layouts"`
}

// WarehouseConfig selects the warehouse backend.
type WarehouseConfig struct {
	// Kind is one of: sqlite, postgres, mysql, mssql.
	Kind string `mapstructure:"kind"`

	// DSN is the backend connection string; for sqlite a file path works.
	DSN string `mapstructure:"dsn"`

	// BatchSize bounds rows per insert flush.
	BatchSize int `mapstructure:"batch_size"`
}

// ExportConfig configures the CSV export.
type ExportConfig struct {
	// Enabled turns the export on.
	Enabled bool `mapstructure:"enabled"`

	// Dir is the output directory; one CSV per warehouse table.
	Dir string `mapstructure:"dir"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Source: SourceConfig{
			Delimiter: ",",
			Encoding:  "iso-8859-1",
		},
		Clean: CleanConfig{
			DedupPolicy: "exact",
		},
		Warehouse: WarehouseConfig{
			Kind:      "sqlite",
			DSN:       "online_retail.db",
			BatchSize: 500,
		},
		Export: ExportConfig{
			Enabled: false,
			Dir:     "exports",
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
//  1. Path specified by configFile parameter
//  2. ./retaildw.yaml
//  3. ~/.config/retaildw/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("retaildw")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "retaildw"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// A missing config file is fine; defaults plus flags carry the run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}
