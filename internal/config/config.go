// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type XenditConfig struct {
	SecretKey     string `yaml:"secret_key"`
	BaseURL       string `yaml:"base_url"` // override for sandbox/tests
	CallbackURL   string `yaml:"callback_url"`
	CallbackToken string `yaml:"callback_token"` // expected x-callback-token header value
}

type PaymentConfig struct {
	Xendit        XenditConfig  `yaml:"xendit"`
	MinAmount     int64         `yaml:"min_amount"`      // IDR floor for a QR request
	SessionWindow time.Duration `yaml:"session_window"`  // validity window from creation
	CallTimeout   time.Duration `yaml:"call_timeout"`    // outbound provider call budget
	CreateLimit   int           `yaml:"create_limit"`    // create requests per client per window
	CreateWindow  time.Duration `yaml:"create_window"`   // rate-limit window
}

type WorkerConfig struct {
	ExpiryInterval    time.Duration `yaml:"expiry_interval"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	ReconcileAfter    time.Duration `yaml:"reconcile_after"` // pending age before a provider pull
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Payment  PaymentConfig  `yaml:"payment"`
	Worker   WorkerConfig   `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Payment.Xendit.SecretKey == "" {
		return nil, errors.New("payment.xendit.secret_key is required")
	}
	if cfg.Payment.Xendit.CallbackURL == "" {
		return nil, errors.New("payment.xendit.callback_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// ApplyDefaults fills policy values left unset in the YAML file.
func (c *Config) ApplyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Payment.MinAmount <= 0 {
		c.Payment.MinAmount = 10000 // IDR
	}
	if c.Payment.SessionWindow <= 0 {
		c.Payment.SessionWindow = 15 * time.Minute
	}
	if c.Payment.CallTimeout <= 0 {
		c.Payment.CallTimeout = 5 * time.Second
	}
	if c.Payment.CreateLimit <= 0 {
		c.Payment.CreateLimit = 10
	}
	if c.Payment.CreateWindow <= 0 {
		c.Payment.CreateWindow = time.Minute
	}
	if c.Worker.ExpiryInterval <= 0 {
		c.Worker.ExpiryInterval = time.Minute
	}
	if c.Worker.ReconcileInterval <= 0 {
		c.Worker.ReconcileInterval = 2 * time.Minute
	}
	if c.Worker.ReconcileAfter <= 0 {
		c.Worker.ReconcileAfter = 5 * time.Minute
	}
}
