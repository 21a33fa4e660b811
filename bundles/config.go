package bundles

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all bundlecache configuration.
type Config struct {
	DBPath    string          `yaml:"db_path"`
	Staleness StalenessConfig `yaml:"staleness"`
	Scrape    ScrapeConfig    `yaml:"scrape"`
	Drain     DrainConfig     `yaml:"drain"`
}

// StalenessConfig tunes the requeue policy.
type StalenessConfig struct {
	// MaxAge is the age past which any record is requeued. Default: 144h (6 days).
	MaxAge time.Duration `yaml:"max_age"`
	// IncompleteMaxAge is the shorter age for records that scraped
	// successfully but yielded no title. Default: 24h.
	IncompleteMaxAge time.Duration `yaml:"incomplete_max_age"`
}

// ScrapeConfig tunes the external page fetcher.
type ScrapeConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Country   string        `yaml:"country"`
	Language  string        `yaml:"language"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxBytes  int64         `yaml:"max_bytes"`
	UserAgent string        `yaml:"user_agent"`
}

// DrainConfig tunes the background queue drainer.
type DrainConfig struct {
	// Interval is how often the drain loop polls. Default: 5 minutes.
	Interval time.Duration `yaml:"interval"`
	// BatchSize caps the ids claimed per pass. Default: 20.
	BatchSize int `yaml:"batch_size"`
	// Delay is the pause between refreshes within a pass. Default: 2s.
	Delay time.Duration `yaml:"delay"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "bundles.db"
	}
	if c.Staleness.MaxAge <= 0 {
		c.Staleness.MaxAge = 6 * 24 * time.Hour
	}
	if c.Staleness.IncompleteMaxAge <= 0 {
		c.Staleness.IncompleteMaxAge = 24 * time.Hour
	}
	if c.Drain.Interval <= 0 {
		c.Drain.Interval = 5 * time.Minute
	}
	if c.Drain.BatchSize <= 0 {
		c.Drain.BatchSize = 20
	}
	if c.Drain.Delay <= 0 {
		c.Drain.Delay = 2 * time.Second
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
