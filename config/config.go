// Package config provides configuration loading for the easyrules server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/liamcoop/easyrules/internal/logger"
	"github.com/liamcoop/easyrules/rules"
)

// Config represents the complete server configuration
type Config struct {
	Server   ServerConfig       `yaml:"server"`
	Log      LogConfig          `yaml:"log"`
	Defaults rules.Defaults     `yaml:"defaults"`
	Facts    map[string]any     `yaml:"facts"`
	Rules    []rules.Definition `yaml:"rules"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	// Port to listen on (overridden by PORT)
	Port int `yaml:"port"`
	// ReadTimeout bounds reading a request
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// WriteTimeout bounds writing a response
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// IdleTimeout bounds keep-alive connections
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	// RequestTimeout is applied to every handler
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of TRACE, DEBUG, INFO, WARN, ERROR, FATAL (overridden by LOG_LEVEL)
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "INFO",
		},
		Defaults: rules.StandardDefaults(),
		Facts:    map[string]any{},
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if config.Facts == nil {
		config.Facts = map[string]any{}
	}

	return config, nil
}

// Load reads path (defaults only when path is empty), applies environment
// overrides and validates the result
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		var err error
		config, err = LoadFromFile(path)
		if err != nil {
			return nil, err
		}
	}

	if err := config.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv overrides settings from PORT and LOG_LEVEL
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if port := getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Server.Port = p
	}

	if level := getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}

	return nil
}

// Validate checks that the configuration is valid. Rule definitions are only
// checked for names here; conditions are compiled when rules are built.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Defaults.Name == "" {
		return fmt.Errorf("defaults.name is required")
	}

	seen := make(map[string]bool, len(c.Rules))
	for i, def := range c.Rules {
		name := def.Name
		if name == "" {
			name = c.Defaults.Name
		}
		if seen[name] {
			return fmt.Errorf("rules[%d]: duplicate rule name %q", i, name)
		}
		seen[name] = true
	}

	return nil
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}
