// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr            string        `yaml:"addr" env:"CRM_SERVER_ADDR"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"CRM_SHUTDOWN_TIMEOUT"`
		AllowedOrigins  []string      `yaml:"allowed_origins" env:"CRM_ALLOWED_ORIGINS" envSeparator:","`
	} `yaml:"server"`

	Database struct {
		URL     string `yaml:"url" env:"CRM_DATABASE_URL"`
		Migrate bool   `yaml:"migrate" env:"CRM_DATABASE_MIGRATE"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr" env:"CRM_REDIS_ADDR"`
		Password string `yaml:"password" env:"CRM_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"CRM_REDIS_DB"`
	} `yaml:"redis"`

	RabbitMQ struct {
		URL string `yaml:"url" env:"CRM_RABBITMQ_URL"`
	} `yaml:"rabbitmq"`

	Auth struct {
		JWTSecret string        `yaml:"jwt_secret" env:"CRM_JWT_SECRET"`
		TokenTTL  time.Duration `yaml:"token_ttl" env:"CRM_TOKEN_TTL"`
	} `yaml:"auth"`

	Log struct {
		Level       string `yaml:"level" env:"CRM_LOG_LEVEL"`
		Environment string `yaml:"environment" env:"CRM_ENV"`
	} `yaml:"log"`

	// Tenant defaults applied at company signup.
	Tenants struct {
		MaxUsers      int `yaml:"max_users" env:"CRM_TENANT_MAX_USERS"`
		MaxProperties int `yaml:"max_properties" env:"CRM_TENANT_MAX_PROPERTIES"`
	} `yaml:"tenants"`

	QueueDepthInterval time.Duration `yaml:"queue_depth_interval" env:"CRM_QUEUE_DEPTH_INTERVAL"`
}

// Default returns the configuration used when no file or variable overrides it.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Database.Migrate = true
	cfg.Redis.Addr = "localhost:6379"
	cfg.Auth.TokenTTL = 24 * time.Hour
	cfg.Log.Level = "info"
	cfg.Log.Environment = "development"
	cfg.Tenants.MaxUsers = 5
	cfg.Tenants.MaxProperties = 100
	cfg.QueueDepthInterval = 10 * time.Second
	return cfg
}

// LoadConfig reads path (optional), then .env (optional), then overlays
// CRM_* environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.RabbitMQ.URL == "" {
		return errors.New("rabbitmq.url is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("auth.jwt_secret must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	return nil
}
