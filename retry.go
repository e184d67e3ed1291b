package expo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryConfig provides sensible defaults for retry logic
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:      3,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	}
}

// IsRetryableError checks if an HTTP response indicates a retryable error
func IsRetryableError(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

func (c *RetryConfig) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.MaxInterval = c.MaxInterval
	b.Multiplier = c.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(c.MaxRetries, 0))), ctx)
}

// withRetry executes fn with exponential backoff. Socket errors and retryable
// status codes are retried; any other response is returned as is.
func (c *Client) withRetry(ctx context.Context, fn func() (*http.Response, error)) (*http.Response, error) {
	retryConfig := c.cnf.RetryConfig
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
	}

	attempt := 0
	op := func() (*http.Response, error) {
		attempt++
		resp, err := fn()
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		if IsRetryableError(resp.StatusCode) {
			resp.Body.Close()
			return nil, &ServerError{
				Message:    fmt.Sprintf("retryable error (%d %s)", resp.StatusCode, http.StatusText(resp.StatusCode)),
				StatusCode: resp.StatusCode,
			}
		}
		return resp, nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Debug("Retrying push service request", "attempt", attempt, "wait", wait, "err", err)
	}
	return backoff.RetryNotifyWithData(op, retryConfig.backOff(ctx), notify)
}
