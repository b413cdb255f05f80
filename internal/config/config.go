// Package config provides configuration management for the DemoStudio Agent.
// Configuration is loaded from environment variables with sensible defaults,
// optionally overridden by a YAML file pointed at by DEMOSTUDIO_CONFIG_FILE.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort     = 8996
	DefaultLogLevel = "info"
	DefaultDataDir  = ".demostudio"

	// Environment variable names
	EnvPort       = "DEMOSTUDIO_PORT"
	EnvLogLevel   = "DEMOSTUDIO_LOG_LEVEL"
	EnvDataDir    = "DEMOSTUDIO_DATA_DIR"
	EnvHeadless   = "DEMOSTUDIO_HEADLESS"
	EnvFFprobe    = "DEMOSTUDIO_FFPROBE"
	EnvConfigFile = "DEMOSTUDIO_CONFIG_FILE"

	// Database filename
	DBFilename = "demostudio.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ExportDir() string
	Headless() bool
	FFprobePath() string
}

// fileOverrides is the shape of the optional YAML overrides file.
type fileOverrides struct {
	Port     *int    `yaml:"port"`
	LogLevel *string `yaml:"log_level"`
	DataDir  *string `yaml:"data_dir"`
	Headless *bool   `yaml:"headless"`
	FFprobe  *string `yaml:"ffprobe"`
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port        int
	logLevel    string
	dataDir     string
	headless    bool
	ffprobePath string
}

// New creates a new EnvConfig with defaults, YAML file overrides, and
// environment variable overrides (environment wins).
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:        DefaultPort,
		logLevel:    DefaultLogLevel,
		dataDir:     defaultDataDir(),
		ffprobePath: "ffprobe",
	}

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	if fp := os.Getenv(EnvFFprobe); fp != "" {
		cfg.ffprobePath = fp
	}

	return cfg, nil
}

func (c *EnvConfig) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var f fileOverrides
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if f.Port != nil {
		if *f.Port < 1 || *f.Port > 65535 {
			return fmt.Errorf("invalid port in config file: %d", *f.Port)
		}
		c.port = *f.Port
	}
	if f.LogLevel != nil {
		c.logLevel = *f.LogLevel
	}
	if f.DataDir != nil {
		c.dataDir = *f.DataDir
	}
	if f.Headless != nil {
		c.headless = *f.Headless
	}
	if f.FFprobe != nil {
		c.ffprobePath = *f.FFprobe
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ExportDir returns the default export directory path
func (c *EnvConfig) ExportDir() string {
	return filepath.Join(c.dataDir, "exports")
}

// Headless reports whether the tray UI is disabled
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// FFprobePath returns the ffprobe executable to use for asset probing
func (c *EnvConfig) FFprobePath() string {
	return c.ffprobePath
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
