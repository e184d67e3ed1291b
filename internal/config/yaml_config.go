package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type YamlRetryConfig struct {
	MaxRetries      *int    `yaml:"max_retries"`
	InitialInterval string  `yaml:"initial_interval"`
	MaxInterval     string  `yaml:"max_interval"`
	Multiplier      float64 `yaml:"multiplier"`
}

type YamlRedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
	Key      string `yaml:"key"`
	TTL      string `yaml:"ttl"`
}

type YamlLogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	Host              string          `yaml:"host"`
	ApiURL            string          `yaml:"api_url"`
	AccessToken       string          `yaml:"access_token"`
	Gzip              bool            `yaml:"gzip"`
	Concurrency       int             `yaml:"concurrency"`
	ChunkLimit        int             `yaml:"chunk_limit"`
	ReceiptChunkLimit int             `yaml:"receipt_chunk_limit"`
	RequestsPerSecond float64         `yaml:"requests_per_second"`
	Retry             YamlRetryConfig `yaml:"retry"`
	Redis             YamlRedisConfig `yaml:"redis"`
	Log               YamlLogConfig   `yaml:"log"`
}

// ReadYamlFile parses path. A missing file yields an empty YamlConfig.
func ReadYamlFile(path string) (*YamlConfig, error) {
	var y YamlConfig
	if path == "" {
		return &y, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &y, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &y, nil
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
func NewConfigFromYaml(y *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	cfg := &Config{
		Host:              y.Host,
		ApiURL:            y.ApiURL,
		AccessToken:       y.AccessToken,
		Gzip:              y.Gzip,
		Concurrency:       y.Concurrency,
		ChunkLimit:        y.ChunkLimit,
		ReceiptChunkLimit: y.ReceiptChunkLimit,
		RequestsPerSecond: y.RequestsPerSecond,
		Retry: RetryConfig{
			MaxRetries: y.Retry.MaxRetries,
			Multiplier: y.Retry.Multiplier,
		},
		Redis: RedisConfig{
			Enabled:  y.Redis.Enabled,
			Addr:     y.Redis.Addr,
			Password: y.Redis.Password,
			DB:       y.Redis.DB,
			Key:      y.Redis.Key,
		},
		LogLevel:  y.Log.Level,
		LogFormat: y.Log.Format,
	}

	var err error
	if cfg.Retry.InitialInterval, err = parseDuration("retry.initial_interval", y.Retry.InitialInterval); err != nil {
		return nil, err
	}
	if cfg.Retry.MaxInterval, err = parseDuration("retry.max_interval", y.Retry.MaxInterval); err != nil {
		return nil, err
	}
	if cfg.Redis.TTL, err = parseDuration("redis.ttl", y.Redis.TTL); err != nil {
		return nil, err
	}

	logger.Debug("YAML config mapping complete",
		"host", cfg.Host,
		"concurrency", cfg.Concurrency,
		"redis_enabled", cfg.Redis.Enabled,
	)
	return cfg, nil
}

func parseDuration(key, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
