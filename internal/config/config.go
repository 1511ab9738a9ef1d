// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	DataPath       string
	RosterPath     string
	CachePath      string
	ClusterPath    string
	OutputDir      string
	SacctBin       string
	SreportBin     string
	BackendTimeout time.Duration
}

// Default values
const (
	defaultBackendTimeout = 10 * time.Minute
	defaultSacctBin       = "sacct"
	defaultSreportBin     = "sreport"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	dataPath := getEnvString("REPORT_DATA_PATH", getDefaultDataPath())

	cfg := &Config{
		DataPath:       dataPath,
		RosterPath:     getEnvString("ROSTER_PATH", filepath.Join(dataPath, "roster.json")),
		CachePath:      getEnvString("CACHE_DB_PATH", filepath.Join(dataPath, "usage.db")),
		ClusterPath:    getEnvString("CLUSTER_CONFIG", filepath.Join(dataPath, "cluster.yaml")),
		OutputDir:      getEnvString("REPORT_OUTPUT_DIR", getDefaultDataPath()),
		SacctBin:       getEnvString("SACCT_BIN", defaultSacctBin),
		SreportBin:     getEnvString("SREPORT_BIN", defaultSreportBin),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", defaultBackendTimeout),
	}

	if err := ensureDir(filepath.Dir(cfg.RosterPath)); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.CachePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "hpc-usage-report", ".env"))
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// getDefaultDataPath returns the working directory.
func getDefaultDataPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "10m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
