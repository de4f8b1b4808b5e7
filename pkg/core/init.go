package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// FolderName is the per-project state directory.
const FolderName = ".postboy"

// Config represents the user's Postboy configuration
type Config struct {
	StoreURL string        `json:"store_url"`
	APIKey   string        `json:"api_key"`
	ProxyURL string        `json:"proxy_url"`
	Routing  RoutingConfig `json:"routing"`
	Server   ServerConfig  `json:"server"`
	Log      LogConfig     `json:"log"`
}

// RoutingConfig lists the origins that are called without the proxy.
type RoutingConfig struct {
	DirectOrigins []string `json:"direct_origins"`
}

// ServerConfig configures `postboy serve`.
type ServerConfig struct {
	Addr      string          `json:"addr"`
	APIKey    string          `json:"api_key"`
	DataDir   string          `json:"data_dir"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// RateLimitConfig bounds outbound proxy executions.
type RateLimitConfig struct {
	RPS   float64 `json:"rps"`
	Burst int     `json:"burst"`
}

// LogConfig sets the zerolog level.
type LogConfig struct {
	Level string `json:"level"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() Config {
	return Config{
		StoreURL: "http://localhost:8080",
		APIKey:   "",
		ProxyURL: "http://localhost:8080/proxy/execute",
		Routing:  RoutingConfig{DirectOrigins: []string{}},
		Server: ServerConfig{
			Addr:      ":8080",
			DataDir:   filepath.Join(FolderName, "collections"),
			RateLimit: RateLimitConfig{RPS: 10, Burst: 20},
		},
		Log: LogConfig{Level: "info"},
	}
}

// InitializeFolder creates the .postboy directory under baseDir and writes
// default files if they don't exist.
func InitializeFolder(baseDir string) error {
	root := filepath.Join(baseDir, FolderName)

	if _, err := os.Stat(root); os.IsNotExist(err) {
		log.Info().Str("path", root).Msg("initializing postboy folder")

		if err := os.MkdirAll(root, 0755); err != nil {
			return fmt.Errorf("failed to create %s folder: %w", FolderName, err)
		}

		if err := createDefaultConfig(root); err != nil {
			return err
		}

		if err := createDefaultEnvironment(root); err != nil {
			return err
		}
	}

	// Ensure subdirectories exist (for upgrades from older layouts)
	for _, dir := range []string{"environments", "collections"} {
		if err := ensureDir(filepath.Join(root, dir)); err != nil {
			return err
		}
	}

	return nil
}

// ensureDir creates a directory if it doesn't exist
func ensureDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
	}
	return nil
}

// createDefaultEnvironment creates a default dev environment file
func createDefaultEnvironment(root string) error {
	envContent := `# Development environment
# Add your variables here, e.g.:
# BASE_URL: http://localhost:3000
# API_TOKEN: your-dev-token
`
	if err := ensureDir(filepath.Join(root, "environments")); err != nil {
		return err
	}
	envPath := filepath.Join(root, "environments", "dev.yaml")
	if err := os.WriteFile(envPath, []byte(envContent), 0644); err != nil {
		return fmt.Errorf("failed to write dev environment: %w", err)
	}
	return nil
}

// createDefaultConfig creates a default configuration file
func createDefaultConfig(root string) error {
	data, err := json.MarshalIndent(DefaultConfig(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(root, "config.json")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
