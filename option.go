package expo

import (
	"io"
	"log/slog"
	"net/http"
)

type Config struct {
	Host              string
	ApiURL            string
	AccessToken       string
	UserAgent         string
	HttpClient        *http.Client
	EnableGzip        bool
	RetryConfig       *RetryConfig
	Concurrency       int
	ChunkLimit        int
	ReceiptChunkLimit int
	RequestsPerSecond float64
	Logger            *slog.Logger
}

type Option func(*Config)

func WithHost(host string) Option {
	return func(c *Config) {
		c.Host = host
	}
}

func WithApiURL(apiURL string) Option {
	return func(c *Config) {
		c.ApiURL = apiURL
	}
}

func WithAccessToken(accessToken string) Option {
	return func(c *Config) {
		c.AccessToken = accessToken
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Config) {
		c.UserAgent = userAgent
	}
}

func WithGzipEnabled(enabled bool) Option {
	return func(c *Config) {
		c.EnableGzip = enabled
	}
}

func WithRetryConfig(retryConfig *RetryConfig) Option {
	return func(c *Config) {
		c.RetryConfig = retryConfig
	}
}

// WithHttpClient replaces the pooled client built from the concurrency limit.
func WithHttpClient(httpClient *http.Client) Option {
	return func(c *Config) {
		c.HttpClient = httpClient
	}
}

// WithConcurrency sets the number of push requests in flight (default 6).
func WithConcurrency(n int) Option {
	return func(c *Config) {
		c.Concurrency = n
	}
}

// WithChunkLimit sets the max recipients per push request (default and
// maximum 100).
func WithChunkLimit(n int) Option {
	return func(c *Config) {
		c.ChunkLimit = n
	}
}

// WithReceiptChunkLimit sets the max ids per receipt lookup (default and
// maximum 300).
func WithReceiptChunkLimit(n int) Option {
	return func(c *Config) {
		c.ReceiptChunkLimit = n
	}
}

// WithRequestsPerSecond paces push requests. Zero disables pacing.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Config) {
		c.RequestsPerSecond = rps
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

func withDefaults(c *Config) {
	if c.Host == "" {
		c.Host = "https://exp.host"
	}
	if c.ApiURL == "" {
		c.ApiURL = "/--/api/v2"
	}
	if c.UserAgent == "" {
		c.UserAgent = "expo-push-dispatch/" + Version
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.ChunkLimit <= 0 || c.ChunkLimit > ChunkLimit {
		c.ChunkLimit = ChunkLimit
	}
	if c.ReceiptChunkLimit <= 0 || c.ReceiptChunkLimit > ReceiptChunkLimit {
		c.ReceiptChunkLimit = ReceiptChunkLimit
	}
	if c.HttpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxConnsPerHost = c.Concurrency
		transport.MaxIdleConnsPerHost = c.Concurrency
		c.HttpClient = &http.Client{Transport: transport}
	}
	if c.RetryConfig == nil {
		c.RetryConfig = DefaultRetryConfig()
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}
