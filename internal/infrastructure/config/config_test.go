package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "HALF_UP", cfg.Billing.Rounding)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Idempotency.TTL)
	assert.Equal(t, "0 3 * * *", cfg.Worker.Cron)
	assert.Equal(t, []int{1, 3, 5}, cfg.Worker.RetryScheduleDays)
	assert.Same(t, cfg, Get())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	yaml := []byte("server:\n  port: 9090\nworker:\n  concurrency: 4\ngateway:\n  timeout: 3s\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "config.yaml"), yaml, 0o600))
	t.Chdir(dir)
	t.Setenv("BILLING_GATEWAY_WEBHOOK_SECRET", "whsec")

	cfg, err := Load("release")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "whsec", cfg.Gateway.WebhookSecret)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.Billing.Rounding = "HALF_EVEN"
		c.Billing.Currency = "TRY"
		c.Worker.Concurrency = 1
		c.Worker.RetryScheduleDays = []int{1, 3, 5}
		return c
	}
	require.NoError(t, valid().Validate())

	tests := map[string]func(*Config){
		"rounding":    func(c *Config) { c.Billing.Rounding = "CEILING" },
		"currency":    func(c *Config) { c.Billing.Currency = "LIRA" },
		"concurrency": func(c *Config) { c.Worker.Concurrency = 0 },
		"schedule":    func(c *Config) { c.Worker.RetryScheduleDays = []int{3, 1} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
