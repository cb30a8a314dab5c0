// internal/config/config.go
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultConfigPath = "config.yaml"
	DefaultMessage    = "Hello World!"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Greeting   GreetingConfig   `yaml:"greeting"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	RateLimit  RateLimitConfig  `yaml:"rateLimit"`
	Log        LogConfig        `yaml:"log"`
	Trace      TraceConfig      `yaml:"trace"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	HTTPClient HTTPClientConfig `yaml:"httpClient"`
	Count      CountConfig      `yaml:"count"`

	// Populated from Count.SourcesFile by LoadSources.
	Sources []string `yaml:"-"`
}

type ServerConfig struct {
	Addr               string        `yaml:"addr"`
	ReadTimeout        time.Duration `yaml:"readTimeout"`
	WriteTimeout       time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdownTimeout"`
	CORSAllowedOrigins []string      `yaml:"corsAllowedOrigins"`
}

type GreetingConfig struct {
	Message string `yaml:"message"`
}

type PipelineConfig struct {
	Workers   int      `yaml:"workers"`
	QueueSize int      `yaml:"queueSize"`
	Reporters []string `yaml:"reporters"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

type TraceConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	Sampler      string  `yaml:"sampler"`
	Ratio        float64 `yaml:"ratio"`
	ServiceName  string  `yaml:"serviceName"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type HTTPClientConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"maxRetries"`
	UserAgent  string        `yaml:"userAgent"`
}

type CountConfig struct {
	SourcesFile string `yaml:"sourcesFile"`
	Concurrency int    `yaml:"concurrency"`
}

// Load reads and parses the configuration at path. A missing file at the
// default path is not an error: the defaults are used instead.
func Load(path string) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("error decoding config: %w", err)
		}
	case os.IsNotExist(err) && path == DefaultConfigPath:
	default:
		return nil, fmt.Errorf("error opening config file: %w", err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadSources reads the source URLs for the count command.
func (c *Config) LoadSources() error {
	if c.Count.SourcesFile == "" {
		return fmt.Errorf("count.sourcesFile is required")
	}
	sources, err := loadSourcesFromFile(c.Count.SourcesFile)
	if err != nil {
		return fmt.Errorf("error loading sources from file: %w", err)
	}
	c.Sources = sources
	return nil
}

// loadSourcesFromFile reads one source per line, skipping blanks and # comments
func loadSourcesFromFile(filepath string) ([]string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("error opening sources file: %w", err)
	}
	defer file.Close()

	var sources []string
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading sources file: %w", err)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources found in file %s", filepath)
	}

	return sources, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 5 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		cfg.Server.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Greeting.Message == "" {
		cfg.Greeting.Message = DefaultMessage
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = 4
	}
	if cfg.Pipeline.QueueSize == 0 {
		cfg.Pipeline.QueueSize = 1024
	}
	if len(cfg.Pipeline.Reporters) == 0 {
		cfg.Pipeline.Reporters = []string{"console"}
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 100
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 200
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Trace.Sampler == "" {
		cfg.Trace.Sampler = "always"
	}
	if cfg.Trace.ServiceName == "" {
		cfg.Trace.ServiceName = "greeting-service"
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":2112"
	}
	if cfg.HTTPClient.Timeout == 0 {
		cfg.HTTPClient.Timeout = 30 * time.Second
	}
	if cfg.HTTPClient.MaxRetries == 0 {
		cfg.HTTPClient.MaxRetries = 3
	}
	if cfg.HTTPClient.UserAgent == "" {
		cfg.HTTPClient.UserAgent = "greeting-service/1.0"
	}
	if cfg.Count.Concurrency == 0 {
		cfg.Count.Concurrency = 4
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be positive")
	}
	if c.Pipeline.QueueSize <= 0 {
		return fmt.Errorf("pipeline.queueSize must be positive")
	}
	for _, r := range c.Pipeline.Reporters {
		switch r {
		case "console", "log", "metrics":
		default:
			return fmt.Errorf("unknown reporter %q", r)
		}
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rateLimit.requestsPerSecond must be positive")
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rateLimit.burst must be positive")
	}
	switch c.Trace.Sampler {
	case "always", "never":
	case "ratio":
		if c.Trace.Ratio < 0 || c.Trace.Ratio > 1 {
			return fmt.Errorf("trace.ratio must be within [0, 1]")
		}
	default:
		return fmt.Errorf("unknown trace sampler %q", c.Trace.Sampler)
	}
	if c.Count.Concurrency <= 0 {
		return fmt.Errorf("count.concurrency must be positive")
	}
	return nil
}
