package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Market struct {
		BaseURL    string        `yaml:"base_url" envconfig:"MARKET_BASE_URL"`
		Timeout    time.Duration `yaml:"timeout" envconfig:"MARKET_TIMEOUT"`
		MaxCandles int           `yaml:"max_candles" envconfig:"MARKET_MAX_CANDLES"`
	} `yaml:"market"`
	Catalog struct {
		Driver      string `yaml:"driver" envconfig:"CATALOG_DRIVER"`
		DSN         string `yaml:"dsn" envconfig:"CATALOG_DSN"`
		SyncCron    string `yaml:"sync_cron" envconfig:"CATALOG_SYNC_CRON"`
		SyncOnStart bool   `yaml:"sync_on_start" envconfig:"CATALOG_SYNC_ON_START"`
	} `yaml:"catalog"`
	Movers struct {
		Workers      int `yaml:"workers" envconfig:"MOVERS_WORKERS"`
		DefaultLimit int `yaml:"default_limit" envconfig:"MOVERS_DEFAULT_LIMIT"`
		MaxProducts  int `yaml:"max_products" envconfig:"MOVERS_MAX_PRODUCTS"`
	} `yaml:"movers"`
	Indicators struct {
		TTL           time.Duration `yaml:"ttl" envconfig:"INDICATORS_TTL"`
		DefaultPeriod int           `yaml:"default_period" envconfig:"INDICATORS_DEFAULT_PERIOD"`
		MinSamples    int           `yaml:"min_samples" envconfig:"INDICATORS_MIN_SAMPLES"`
	} `yaml:"indicators"`
	Cache struct {
		RedisAddr     string `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
		RedisPassword string `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
		RedisDB       int    `yaml:"redis_db" envconfig:"REDIS_DB"`
		Prefix        string `yaml:"prefix" envconfig:"CACHE_PREFIX"`
	} `yaml:"cache"`
	Server struct {
		Addr string `yaml:"addr" envconfig:"SERVER_ADDR"`
		Mode string `yaml:"mode" envconfig:"SERVER_MODE"`
	} `yaml:"server"`
	Proxy string `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// Load reads .env (if present), then the YAML file, then applies environment
// variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] load .env: %v", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Unset variables leave the YAML values untouched.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Market.BaseURL == "" {
		c.Market.BaseURL = "https://api.exchange.coinbase.com"
	}
	if c.Market.Timeout == 0 {
		c.Market.Timeout = 5 * time.Second
	}
	if c.Market.MaxCandles == 0 {
		c.Market.MaxCandles = 300
	}
	if c.Catalog.Driver == "" {
		c.Catalog.Driver = "sqlite"
	}
	if c.Catalog.DSN == "" && c.Catalog.Driver == "sqlite" {
		c.Catalog.DSN = "data/catalog.db"
	}
	if c.Catalog.SyncCron == "" {
		c.Catalog.SyncCron = "0 0 */6 * * *"
	}
	if c.Movers.Workers == 0 {
		c.Movers.Workers = 8
	}
	if c.Movers.DefaultLimit == 0 {
		c.Movers.DefaultLimit = 10
	}
	if c.Movers.MaxProducts == 0 {
		c.Movers.MaxProducts = 80
	}
	if c.Indicators.TTL == 0 {
		c.Indicators.TTL = 10 * time.Second
	}
	if c.Indicators.DefaultPeriod == 0 {
		c.Indicators.DefaultPeriod = 14
	}
	if c.Indicators.MinSamples == 0 {
		c.Indicators.MinSamples = 100
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "movers:"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":5001"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.Market.Timeout < 0 {
		return fmt.Errorf("market.timeout must not be negative")
	}
	if c.Market.MaxCandles < 1 {
		return fmt.Errorf("market.max_candles must be positive")
	}
	switch c.Catalog.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("catalog.driver must be sqlite or postgres, got %q", c.Catalog.Driver)
	}
	if c.Catalog.DSN == "" {
		return fmt.Errorf("catalog.dsn is required")
	}
	if c.Movers.Workers < 1 {
		return fmt.Errorf("movers.workers must be positive")
	}
	if c.Movers.DefaultLimit < 1 || c.Movers.MaxProducts < 1 {
		return fmt.Errorf("movers.default_limit and movers.max_products must be positive")
	}
	if c.Indicators.TTL < 0 {
		return fmt.Errorf("indicators.ttl must not be negative")
	}
	if c.Indicators.DefaultPeriod < 2 {
		return fmt.Errorf("indicators.default_period must be greater than 1")
	}
	switch c.Server.Mode {
	case "release", "debug", "test":
	default:
		return fmt.Errorf("server.mode must be release, debug or test, got %q", c.Server.Mode)
	}
	return nil
}
