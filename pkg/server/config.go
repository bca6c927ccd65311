// Package server exposes the deck engine over HTTP for the chat sidecar.
package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/openlabollioules/ACRA/pkg/deck/alerts"
)

// Config defines server configuration.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `yaml:"listen_addr"`
	// DataDir is the root directory for per-session deck files.
	DataDir string `yaml:"data_dir"`
	// DBPath is the SQLite registry path.
	DBPath string `yaml:"db_path"`
	// Colors overrides the tier palette (green/orange/red -> RRGGBB).
	Colors map[string]string `yaml:"colors"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr: ":8080",
		DataDir:    "acra_data",
		DBPath:     "acra.db",
		LogLevel:   "info",
	}
}

// Load reads configuration from an optional YAML file and environment
// variables. File values override defaults; env overrides both.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv("ACRA_CONFIG_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	if addr := os.Getenv("ACRA_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if dir := os.Getenv("ACRA_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if db := os.Getenv("ACRA_DB_PATH"); db != "" {
		cfg.DBPath = db
	}
	if lvl := os.Getenv("ACRA_LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}
	return cfg, nil
}

// Palette builds the tier palette from the config, defaults filled in.
func (c Config) Palette() alerts.Palette {
	p := alerts.DefaultPalette()
	for tag, hex := range c.Colors {
		if hex != "" {
			p[tag] = hex
		}
	}
	return p
}
