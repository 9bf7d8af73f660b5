// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	// AppSecret is the base secret for password-reset tokens; the per-user
	// signing key is AppSecret + the user's current password hash.
	AppSecret string `mapstructure:"APP_SECRET"`
	// AdminKey gates admin registration and role upgrades.
	AdminKey  string `mapstructure:"ADMIN_KEY"`
	UploadDir string `mapstructure:"UPLOAD_DIR"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASS"`
	MailFrom     string `mapstructure:"MAIL_FROM"`
	// ContactEmail receives contact-form submissions.
	ContactEmail string `mapstructure:"CONTACT_EMAIL"`
	// ResetURLBase is the client URL prefix reset tokens are appended to.
	ResetURLBase string `mapstructure:"RESET_URL_BASE"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The config file is optional; env vars and defaults may be enough.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			log.Printf("No profile-specific config.%s.yml found, using base config and environment", env)
		}
	}

	// Development defaults
	viper.SetDefault("PORT", "5000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "kfarm")
	viper.SetDefault("DB_PASSWORD", "kfarm")
	viper.SetDefault("DB_NAME", "kfarm")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("APP_SECRET", "dev-app-secret-change-in-production")
	viper.SetDefault("ADMIN_KEY", "dev-admin-key-change-in-production")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", "587")
	viper.SetDefault("SMTP_USER", "")
	viper.SetDefault("SMTP_PASS", "")
	viper.SetDefault("MAIL_FROM", "no-reply@kfarm.local")
	viper.SetDefault("CONTACT_EMAIL", "support@kfarm.local")
	viper.SetDefault("RESET_URL_BASE", "http://localhost:5173/resetpassword")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.AppSecret == "" {
		return errors.New("APP_SECRET is required")
	}
	if c.AdminKey == "" {
		return errors.New("ADMIN_KEY is required")
	}
	if c.UploadDir == "" {
		return errors.New("UPLOAD_DIR is required")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	// Strict checks for production
	if isProduction {
		if c.AppSecret == "dev-app-secret-change-in-production" {
			return errors.New("APP_SECRET must be changed from the default value in production")
		}
		if len(c.AppSecret) < 32 {
			return errors.New("APP_SECRET must be at least 32 characters in production")
		}
		if c.AdminKey == "dev-admin-key-change-in-production" {
			return errors.New("ADMIN_KEY must be changed from the default value in production")
		}
		if c.DBPassword == "kfarm" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
		if c.SMTPHost == "" {
			log.Println("WARNING: SMTP_HOST is empty in production. Password reset and contact mail will fail.")
		}
	} else {
		if len(c.AppSecret) < 32 {
			log.Println("WARNING: APP_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
		}
	}

	return nil
}
