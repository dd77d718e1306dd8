// Package config loads curator settings from an optional YAML file with
// environment overrides, and sets up the process logger.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up relative to the working directory when no
// explicit path is given.
const DefaultConfigFile = "curator.yaml"

// Config holds all configuration values.
type Config struct {
	// Store
	DatabasePath string `yaml:"database_path"`

	// File lifecycle
	QuarantineRoot      string  `yaml:"quarantine_root"`
	JournalDir          string  `yaml:"journal_dir"`
	QuarantineThreshold float64 `yaml:"quarantine_threshold"`

	// Pipeline
	BatchSize int `yaml:"batch_size"`
	Workers   int `yaml:"workers"`

	// Quarantine layout roots recognized by the relative-path heuristic.
	// Empty keeps the built-in set.
	CollectionSegments []string `yaml:"collection_segments"`

	// Logging
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DatabasePath:        "curator.db",
		QuarantineRoot:      "quarantine",
		JournalDir:          "journals",
		QuarantineThreshold: 70,
		BatchSize:           50,
		Workers:             4,
		LogFile:             "curator.log",
		LogLevel:            "INFO",
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (missing file is fine when the path is the default), then CURATOR_*
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file, defaults apply.
	default:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.DatabasePath, "CURATOR_DB_PATH")
	setString(&cfg.QuarantineRoot, "CURATOR_QUARANTINE_ROOT")
	setString(&cfg.JournalDir, "CURATOR_JOURNAL_DIR")
	setString(&cfg.LogFile, "CURATOR_LOG_FILE")
	setString(&cfg.LogLevel, "CURATOR_LOG_LEVEL")
	setInt(&cfg.BatchSize, "CURATOR_BATCH_SIZE")
	setInt(&cfg.Workers, "CURATOR_WORKERS")
	setFloat(&cfg.QuarantineThreshold, "CURATOR_QUARANTINE_THRESHOLD")
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

// Level parses the configured log level, defaulting to info.
func (c Config) Level() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
