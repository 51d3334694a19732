package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Reconcile ReconcileConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// StorageConfig holds object storage configuration for uploaded files.
// An empty Endpoint uses the default AWS resolver; AccessKey/SecretKey are
// only needed for S3-compatible stores outside AWS.
type StorageConfig struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PathStyle bool
}

// RedisConfig holds the snapshot cache configuration. An empty URL disables it.
type RedisConfig struct {
	URL         string
	SnapshotKey string
	SnapshotTTL time.Duration
}

// ReconcileConfig tunes reconciliation passes.
// Interval 0 disables periodic passes.
type ReconcileConfig struct {
	Workers  int
	Timeout  time.Duration
	Interval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "host.docker.internal")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "dossier")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_PATH_STYLE", false)
	v.SetDefault("REDIS_SNAPSHOT_KEY", "dossier:snapshot")
	v.SetDefault("REDIS_SNAPSHOT_TTL", "24h")
	v.SetDefault("RECONCILE_WORKERS", 4)
	v.SetDefault("RECONCILE_TIMEOUT", "30s")
	v.SetDefault("RECONCILE_INTERVAL", "0s")

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Storage: StorageConfig{
			Region:    v.GetString("STORAGE_REGION"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			PathStyle: v.GetBool("STORAGE_PATH_STYLE"),
		},
		Redis: RedisConfig{
			URL:         v.GetString("REDIS_URL"),
			SnapshotKey: v.GetString("REDIS_SNAPSHOT_KEY"),
			SnapshotTTL: v.GetDuration("REDIS_SNAPSHOT_TTL"),
		},
		Reconcile: ReconcileConfig{
			Workers:  v.GetInt("RECONCILE_WORKERS"),
			Timeout:  v.GetDuration("RECONCILE_TIMEOUT"),
			Interval: v.GetDuration("RECONCILE_INTERVAL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.Storage.Region == "" {
		return fmt.Errorf("STORAGE_REGION is required")
	}
	if (c.Storage.AccessKey == "") != (c.Storage.SecretKey == "") {
		return fmt.Errorf("STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY must be set together")
	}

	if c.Redis.URL != "" {
		if c.Redis.SnapshotKey == "" {
			return fmt.Errorf("REDIS_SNAPSHOT_KEY is required when REDIS_URL is set")
		}
		if c.Redis.SnapshotTTL < 0 {
			return fmt.Errorf("REDIS_SNAPSHOT_TTL must be non-negative")
		}
	}

	if c.Reconcile.Workers < 1 {
		return fmt.Errorf("RECONCILE_WORKERS must be at least 1")
	}
	if c.Reconcile.Timeout <= 0 {
		return fmt.Errorf("RECONCILE_TIMEOUT must be positive")
	}
	if c.Reconcile.Interval < 0 {
		return fmt.Errorf("RECONCILE_INTERVAL must be non-negative")
	}

	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
