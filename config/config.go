package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// Database
	DatabaseURL string `yaml:"database_url"`

	// Server
	ServerPort string `yaml:"server_port"`

	// Artifact storage
	StorageBucket   string `yaml:"storage_bucket"`
	StorageRegion   string `yaml:"storage_region"`
	StorageEndpoint string `yaml:"storage_endpoint"`
	StoragePrefix   string `yaml:"storage_prefix"`

	// Email
	ResendAPIKey string `yaml:"resend_api_key"`
	EmailFrom    string `yaml:"email_from"`
	AdminEmail   string `yaml:"admin_email"`
	ReplyTo      string `yaml:"reply_to"`
}

// Load loads configuration from environment variables, with an optional
// YAML file (CONFIG_FILE) applied first so env vars win.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   "postgres://localhost/motion_curator?sslmode=disable",
		ServerPort:    "8080",
		StorageRegion: "us-east-1",
		StoragePrefix: "curator",
		EmailFrom:     "Motion Curator <hello@motioncurator.dev>",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	overlayEnv(&cfg.DatabaseURL, "DATABASE_URL")
	overlayEnv(&cfg.ServerPort, "SERVER_PORT")
	overlayEnv(&cfg.StorageBucket, "STORAGE_BUCKET")
	overlayEnv(&cfg.StorageRegion, "STORAGE_REGION")
	overlayEnv(&cfg.StorageEndpoint, "STORAGE_ENDPOINT")
	overlayEnv(&cfg.StoragePrefix, "STORAGE_PREFIX")
	overlayEnv(&cfg.ResendAPIKey, "RESEND_API_KEY")
	overlayEnv(&cfg.EmailFrom, "EMAIL_FROM")
	overlayEnv(&cfg.AdminEmail, "ADMIN_EMAIL")
	overlayEnv(&cfg.ReplyTo, "REPLY_TO")

	return cfg, nil
}

func overlayEnv(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}
