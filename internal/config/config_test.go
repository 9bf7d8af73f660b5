package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validDevConfig() *Config {
	return &Config{
		Port:      "5000",
		Env:       "development",
		AppSecret: "dev-app-secret-change-in-production",
		AdminKey:  "dev-admin-key-change-in-production",
		UploadDir: "uploads",
	}
}

func TestValidate_Development(t *testing.T) {
	cfg := validDevConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MissingRequired(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Port = "" }},
		{"missing app secret", func(c *Config) { c.AppSecret = "" }},
		{"missing admin key", func(c *Config) { c.AdminKey = "" }},
		{"missing upload dir", func(c *Config) { c.UploadDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDevConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_ProductionRejectsDefaults(t *testing.T) {
	cfg := validDevConfig()
	cfg.Env = "production"
	assert.Error(t, cfg.Validate(), "default APP_SECRET must be rejected in production")

	cfg.AppSecret = "a-sufficiently-long-production-secret-value"
	assert.Error(t, cfg.Validate(), "default ADMIN_KEY must be rejected in production")

	cfg.AdminKey = "real-admin-key"
	cfg.DBPassword = "strong-password"
	assert.NoError(t, cfg.Validate())
}
