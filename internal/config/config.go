package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the project configuration file searched for by LoadConfig
const FileName = "verify.json"

// Defaults
const (
	DefaultServerPort = 3001
	DefaultDevPort    = 5173
	DefaultBaseURL    = "http://localhost:5173"
	DefaultDevTarget  = "http://localhost:3001"
)

// ErrNotFound is returned when no configuration file exists in the search path
var ErrNotFound = errors.New("no " + FileName + " found")

// Config represents the verify.json configuration file
type Config struct {
	Server ServerConfig `json:"server"`
	Client ClientConfig `json:"client"`
	Dev    DevConfig    `json:"dev"`
}

// ServerConfig contains API server configuration
type ServerConfig struct {
	Port int `json:"port"`

	// AllowedOrigins overrides the server's built-in CORS origins when non-empty
	AllowedOrigins []string `json:"allowed_origins"`
}

// ClientConfig contains client dispatcher configuration
type ClientConfig struct {
	// UseMock is a pointer so an explicit false in the file survives defaulting
	UseMock *bool  `json:"use_mock"`
	BaseURL string `json:"base_url"`
}

// DevConfig contains development server configuration
type DevConfig struct {
	Port     int    `json:"port"`
	Target   string `json:"target"`
	Fixtures string `json:"fixtures"`
}

// MockEnabled reports whether the client should resolve requests locally
func (c ClientConfig) MockEnabled() bool {
	return c.UseMock == nil || *c.UseMock
}

// BasePath returns /mock when mocking and /api otherwise
func (c ClientConfig) BasePath() string {
	if c.MockEnabled() {
		return "/mock"
	}
	return "/api"
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads verify.json from the current directory or a parent
// directory. When none exists the defaults are returned with an empty root.
func LoadConfig() (*Config, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, root, err := loadConfigFromDir(dir)
	if errors.Is(err, ErrNotFound) {
		return Default(), "", nil
	}
	return cfg, root, err
}

// LoadConfigFromPath loads the configuration from a specific path
func LoadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Client.BaseURL == "" {
		c.Client.BaseURL = DefaultBaseURL
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultDevPort
	}
	if c.Dev.Target == "" {
		c.Dev.Target = DefaultDevTarget
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return fmt.Errorf("dev.port %d out of range", c.Dev.Port)
	}
	return nil
}

// loadConfigFromDir searches for verify.json in the given directory and its parents
func loadConfigFromDir(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			config, err := LoadConfigFromPath(configPath)
			if err != nil {
				return nil, "", err
			}
			return config, dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return nil, "", fmt.Errorf("%w in %s or any parent directory", ErrNotFound, startDir)
}
