package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/leadsyncpro/billing/internal/shared/config"
)

type Config struct {
	Server      sharedConfig.ServerConfig      `mapstructure:"server"`
	Database    sharedConfig.DatabaseConfig    `mapstructure:"database"`
	Logger      sharedConfig.LoggerConfig      `mapstructure:"logger"`
	Redis       sharedConfig.RedisConfig       `mapstructure:"redis"`
	Billing     sharedConfig.BillingConfig     `mapstructure:"billing"`
	Gateway     sharedConfig.GatewayConfig     `mapstructure:"gateway"`
	Idempotency sharedConfig.IdempotencyConfig `mapstructure:"idempotency"`
	Worker      sharedConfig.WorkerConfig      `mapstructure:"worker"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables.
// A missing config file is tolerated; defaults and BILLING_* variables apply.
func Load(env string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")

	// BILLING_GATEWAY_WEBHOOK_SECRET overrides gateway.webhook_secret
	v.SetEnvPrefix("BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// Validate rejects settings the billing engine cannot run with.
func (c *Config) Validate() error {
	switch strings.ToUpper(c.Billing.Rounding) {
	case "HALF_UP", "HALF_EVEN", "DOWN":
	default:
		return fmt.Errorf("invalid billing.rounding %q", c.Billing.Rounding)
	}
	if len(c.Billing.Currency) != 3 {
		return fmt.Errorf("invalid billing.currency %q", c.Billing.Currency)
	}
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("worker.concurrency must be at least 1")
	}
	for i, d := range c.Worker.RetryScheduleDays {
		if d <= 0 || (i > 0 && d <= c.Worker.RetryScheduleDays[i-1]) {
			return fmt.Errorf("worker.retry_schedule_days must be positive and increasing")
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.webhook_rate_limit", 600)

	// Database defaults
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "billing_dev")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Billing defaults
	v.SetDefault("billing.currency", "TRY")
	v.SetDefault("billing.timezone", "Europe/Istanbul")
	v.SetDefault("billing.rounding", "HALF_UP")

	// Gateway defaults
	v.SetDefault("gateway.base_url", "https://sandbox-api.iyzipay.com")
	v.SetDefault("gateway.api_key", "")
	v.SetDefault("gateway.secret_key", "")
	v.SetDefault("gateway.webhook_secret", "")
	v.SetDefault("gateway.timeout", "10s")

	v.SetDefault("idempotency.ttl", "5m")

	// Worker defaults
	v.SetDefault("worker.cron", "0 3 * * *")
	v.SetDefault("worker.concurrency", 1)
	v.SetDefault("worker.lock_ttl", "10m")
	v.SetDefault("worker.retry_schedule_days", []int{1, 3, 5})
}
