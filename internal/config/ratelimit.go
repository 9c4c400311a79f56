package config

import "time"

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// RequestsPerSecond is the number of requests allowed per second
	RequestsPerSecond float64
	// MaxRetries is the maximum number of attempts before giving up
	MaxRetries int
	// BaseDelay is the initial delay duration for backoff
	BaseDelay time.Duration
	// MaxDelay is the maximum delay duration for backoff
	MaxDelay time.Duration
}

var (
	// DefaultRateLimitConfig provides default values for rate limiting
	DefaultRateLimitConfig = RateLimitConfig{
		RequestsPerSecond: 5.0,
		MaxRetries:        10,
		BaseDelay:         time.Second,
		MaxDelay:          time.Second * 120,
	}

	// CloudWatchRateLimitConfig is used for GetMetricData, which is called five times per instance
	CloudWatchRateLimitConfig = RateLimitConfig{
		RequestsPerSecond: 20.0,
		MaxRetries:        10,
		BaseDelay:         500 * time.Millisecond,
		MaxDelay:          time.Minute,
	}

	// CatalogRateLimitConfig is used for bulk price list downloads
	CatalogRateLimitConfig = RateLimitConfig{
		RequestsPerSecond: 1.0,
		MaxRetries:        3,
		BaseDelay:         2 * time.Second,
		MaxDelay:          30 * time.Second,
	}
)
