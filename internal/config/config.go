// Package config loads the expopush configuration from YAML, .env and the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	expo "dezeto/expo-push-dispatch"
)

type RetryConfig struct {
	// MaxRetries is nil when not configured.
	MaxRetries      *int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	Host              string
	ApiURL            string
	AccessToken       string
	Gzip              bool
	Concurrency       int
	ChunkLimit        int
	ReceiptChunkLimit int
	RequestsPerSecond float64
	Retry             RetryConfig
	Redis             RedisConfig
	LogLevel          string
	LogFormat         string
}

// Load reads the YAML file, the optional .env file and the environment, in
// that order of increasing precedence.
func Load(path, envFile string, logger *slog.Logger) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	y, err := ReadYamlFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := NewConfigFromYaml(y, logger)
	if err != nil {
		return nil, err
	}
	return UpdateConfigWithEnvOverrides(cfg, logger)
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	if val := os.Getenv("EXPO_ACCESS_TOKEN"); val != "" {
		logger.Debug("Overriding config value", "key", "EXPO_ACCESS_TOKEN", "source", "env")
		cfg.AccessToken = val
	}
	if val := os.Getenv("EXPO_HOST"); val != "" {
		logger.Debug("Overriding config value", "key", "EXPO_HOST", "source", "env")
		cfg.Host = val
	}
	if val := os.Getenv("EXPO_CONCURRENCY"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("EXPO_CONCURRENCY must be a positive integer, got %q", val)
		}
		logger.Debug("Overriding config value", "key", "EXPO_CONCURRENCY", "source", "env")
		cfg.Concurrency = n
	}
	if val := os.Getenv("EXPO_GZIP"); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return nil, fmt.Errorf("EXPO_GZIP must be a boolean, got %q", val)
		}
		cfg.Gzip = enabled
	}

	// Redis Overrides
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Redis.Addr = val
		cfg.Redis.Enabled = true
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = db
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		enabled, _ := strconv.ParseBool(val)
		cfg.Redis.Enabled = enabled
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		cfg.LogFormat = val
	}

	// Final Validation
	if cfg.Concurrency < 0 || cfg.ChunkLimit < 0 || cfg.ReceiptChunkLimit < 0 {
		return nil, fmt.Errorf("concurrency and chunk limits must not be negative")
	}
	if cfg.ChunkLimit > expo.ChunkLimit {
		return nil, fmt.Errorf("chunk_limit %d exceeds the service maximum of %d", cfg.ChunkLimit, expo.ChunkLimit)
	}
	if cfg.Redis.Enabled && cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis.addr is required when redis is enabled (set via YAML or REDIS_ADDR env var)")
	}
	if cfg.Redis.Key == "" {
		cfg.Redis.Key = "expo:pending-receipts"
	}
	if cfg.Redis.TTL == 0 {
		// Receipts are kept by the service for a day.
		cfg.Redis.TTL = 24 * time.Hour
	}

	logger.Debug("Configuration finalized and validated successfully")
	return cfg, nil
}

// ClientOptions translates the configuration into client options.
func (c *Config) ClientOptions(logger *slog.Logger) []expo.Option {
	opts := []expo.Option{
		expo.WithHost(c.Host),
		expo.WithApiURL(c.ApiURL),
		expo.WithAccessToken(c.AccessToken),
		expo.WithGzipEnabled(c.Gzip),
		expo.WithConcurrency(c.Concurrency),
		expo.WithChunkLimit(c.ChunkLimit),
		expo.WithReceiptChunkLimit(c.ReceiptChunkLimit),
		expo.WithRequestsPerSecond(c.RequestsPerSecond),
		expo.WithLogger(logger),
	}
	if c.Retry != (RetryConfig{}) {
		retry := expo.DefaultRetryConfig()
		if c.Retry.MaxRetries != nil {
			retry.MaxRetries = *c.Retry.MaxRetries
		}
		if c.Retry.InitialInterval > 0 {
			retry.InitialInterval = c.Retry.InitialInterval
		}
		if c.Retry.MaxInterval > 0 {
			retry.MaxInterval = c.Retry.MaxInterval
		}
		if c.Retry.Multiplier > 0 {
			retry.Multiplier = c.Retry.Multiplier
		}
		opts = append(opts, expo.WithRetryConfig(retry))
	}
	return opts
}
