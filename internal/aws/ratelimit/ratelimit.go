package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"gp3sift/internal/config"
	"gp3sift/internal/logging"
)

const jitterPercent = 0.1

var (
	// Global instance of the service limiter registry
	globalRegistry = &ServiceLimiterRegistry{
		limiters: make(map[string]*ServiceLimiter),
	}
)

// ServiceLimiterRegistry manages a global registry of service limiters
type ServiceLimiterRegistry struct {
	mu       sync.RWMutex
	limiters map[string]*ServiceLimiter
}

// GetServiceLimiter returns a service limiter for the given service name, creating it if it doesn't exist.
// The configuration is only applied when the limiter is created.
func GetServiceLimiter(serviceName string, configs ...config.RateLimitConfig) *ServiceLimiter {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if limiter, exists := globalRegistry.limiters[serviceName]; exists {
		return limiter
	}

	limiter := NewServiceLimiter(configs...)
	globalRegistry.limiters[serviceName] = limiter
	return limiter
}

// ServiceLimiter spaces calls to a service and retries throttled or transient failures
type ServiceLimiter struct {
	mu            sync.Mutex
	lastCallTimes map[string]time.Time
	config        config.RateLimitConfig
}

// NewServiceLimiter creates a new ServiceLimiter with optional configuration
func NewServiceLimiter(configs ...config.RateLimitConfig) *ServiceLimiter {
	cfg := config.DefaultRateLimitConfig
	if len(configs) > 0 {
		cfg = configs[0]
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = config.DefaultRateLimitConfig.RequestsPerSecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}

	return &ServiceLimiter{
		lastCallTimes: make(map[string]time.Time),
		config:        cfg,
	}
}

// interval returns the minimum interval between requests
func (l *ServiceLimiter) interval() time.Duration {
	return time.Duration(float64(time.Second) / l.config.RequestsPerSecond)
}

// addJitter adds random jitter to the delay
func addJitter(delay time.Duration) time.Duration {
	jitter := float64(delay) * jitterPercent
	return delay + time.Duration(jitter*(rand.Float64()*2-1))
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks an error as transient so Execute retries it
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// shouldRetry determines if an error is retryable
func shouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var re *retryableError
	if errors.As(err, &re) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "throttling") ||
		strings.Contains(errStr, "rate exceeded") ||
		strings.Contains(errStr, "limit exceeded") ||
		strings.Contains(errStr, "too many requests")
}

// Execute executes a function with rate limiting and exponential backoff
func (l *ServiceLimiter) Execute(ctx context.Context, apiName string, operation func() error) error {
	l.mu.Lock()
	lastCall, exists := l.lastCallTimes[apiName]
	minWait := l.interval()

	now := time.Now()
	if exists && now.Sub(lastCall) < minWait {
		sleepTime := minWait - now.Sub(lastCall)
		now = now.Add(sleepTime)
		l.lastCallTimes[apiName] = now
		l.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleepTime):
		}
	} else {
		l.lastCallTimes[apiName] = now
		l.mu.Unlock()
	}

	var err error
	delay := l.config.BaseDelay

	for attempt := 0; attempt < l.config.MaxRetries; attempt++ {
		err = operation()
		if !shouldRetry(err) {
			return err
		}

		logging.Debug("Rate limited, retrying operation", map[string]interface{}{
			"api":      apiName,
			"attempt":  attempt + 1,
			"maxRetry": l.config.MaxRetries,
			"delay":    delay.String(),
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(addJitter(delay)):
		}

		delay *= 2
		if delay > l.config.MaxDelay {
			delay = l.config.MaxDelay
		}
	}

	return fmt.Errorf("max retries exceeded for %s: %w", apiName, err)
}
