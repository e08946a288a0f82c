package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string          `yaml:"environment" default:"development"`
	Server      ServerConfig    `yaml:"server"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Log         LogConfig       `yaml:"log"`
	Service     ServiceConfig   `yaml:"service"`
	Query       QueryConfig     `yaml:"query"`
	WebSocket   WebSocketConfig `yaml:"websocket"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"90s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	DisableCORS     bool          `yaml:"disable_cors"`
	// Per-client token bucket for endpoints that call the remote service.
	// A negative burst disables throttling.
	DispatchBurst float64 `yaml:"dispatch_burst" default:"5"`
	DispatchRate  float64 `yaml:"dispatch_rate" default:"1"`
}

type MetricsConfig struct {
	Disabled      bool          `yaml:"disabled"`
	Path          string        `yaml:"path" default:"/metrics"`
	SlowThreshold time.Duration `yaml:"slow_threshold" default:"2s"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
	Output string `yaml:"output" default:"stdout"`
	// Aggregated warn/error entries are pushed to console subscribers at this interval.
	CollectInterval time.Duration `yaml:"collect_interval" default:"15s"`
}

// ServiceConfig points at the remote market-data and prediction service.
type ServiceConfig struct {
	BaseURL string        `yaml:"base_url" default:"https://nifty-predictor-server.onrender.com"`
	Timeout time.Duration `yaml:"timeout" default:"60s"`
}

// QueryConfig holds the initial series query parameters of a session.
type QueryConfig struct {
	Symbol string `yaml:"symbol" default:"nifty"`
	Days   int    `yaml:"days" default:"30"`
	From   string `yaml:"from" default:"end"`
}

type WebSocketConfig struct {
	WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
	Buffer       int           `yaml:"buffer" default:"16"`
}

// Default returns a configuration populated only from struct defaults.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(b)
}

// Parse decodes YAML, fills unset keys with defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file is not an error: defaults plus environment are enough to run.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		c, err = Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		c = Default()
	}

	if v := os.Getenv("MARKET_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("MARKET_SERVICE_URL"); v != "" {
		c.Service.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("SERVER_PORT: %w", err)
		}
		c.Server.Port = port
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Service.BaseURL == "" {
		return fmt.Errorf("service.base_url is required")
	}
	u, err := url.Parse(c.Service.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("service.base_url must be an absolute URL, got '%s'", c.Service.BaseURL)
	}
	if c.Service.Timeout < 0 {
		return fmt.Errorf("service.timeout cannot be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.DispatchBurst > 0 && c.Server.DispatchRate <= 0 {
		return fmt.Errorf("server.dispatch_rate must be positive when throttling is enabled")
	}
	if c.Query.Symbol != "nifty" && c.Query.Symbol != "vix" {
		return fmt.Errorf("query.symbol must be 'nifty' or 'vix', got '%s'", c.Query.Symbol)
	}
	if c.Query.Days <= 0 {
		return fmt.Errorf("query.days must be positive, got %d", c.Query.Days)
	}
	if c.Query.From != "start" && c.Query.From != "end" {
		return fmt.Errorf("query.from must be 'start' or 'end', got '%s'", c.Query.From)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'console' or 'json', got '%s'", c.Log.Format)
	}
	return nil
}
