package config

import (
	"runtime"
	"time"
)

// GlobalConfig holds the global configuration for the application
type GlobalConfig struct {
	// Profile is the AWS shared config profile used for the base session
	Profile string

	// MaxWorkers defines the maximum number of account/region batches processed concurrently
	MaxWorkers int

	// LogFormat is the format for logging
	LogFormat string

	// LogLevel is the minimum level that is logged
	LogLevel string

	// TaskTimeout bounds a single account/region batch
	TaskTimeout time.Duration

	// HTTPTimeout bounds a single AWS API request
	HTTPTimeout time.Duration

	// CatalogBaseURL is the bulk price list endpoint
	CatalogBaseURL string

	// CatalogTimeout bounds the download of one regional price list
	CatalogTimeout time.Duration

	// CatalogCacheFile stores parsed price lists between runs
	CatalogCacheFile string

	// CatalogCacheTTL is how long a cached price list is reused; zero disables expiry
	CatalogCacheTTL time.Duration
}

const (
	// DefaultCatalogBaseURL serves the public RDS bulk price lists
	DefaultCatalogBaseURL = "https://pricing.us-east-1.amazonaws.com/offers/v1.0/aws/AmazonRDS/current"
)

// Config is the global configuration instance
var Config = Default()

// Default returns the configuration used when no file, env var, or flag overrides a value
func Default() *GlobalConfig {
	return &GlobalConfig{
		Profile:          "default",
		MaxWorkers:       runtime.NumCPU() * 4, // I/O bound
		LogFormat:        "text",
		LogLevel:         "INFO",
		TaskTimeout:      15 * time.Minute,
		HTTPTimeout:      25 * time.Second,
		CatalogBaseURL:   DefaultCatalogBaseURL,
		CatalogTimeout:   5 * time.Minute,
		CatalogCacheFile: "cache/rds_catalogs.json",
		CatalogCacheTTL:  24 * time.Hour,
	}
}
