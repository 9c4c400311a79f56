package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gp3sift/internal/logging"
)

// EnvPrefix is prepended to every environment variable override
const EnvPrefix = "GP3SIFT"

// flagNames maps config keys to the flag that can set them
var flagNames = map[string]string{
	"aws.profile":            "profile",
	"aws.http_timeout":       "http-timeout",
	"app.max_workers":        "max-workers",
	"app.log_format":         "log-format",
	"app.log_level":          "log-level",
	"app.task_timeout":       "task-timeout",
	"pricing.base_url":       "catalog-url",
	"pricing.timeout":        "catalog-timeout",
	"pricing.cache_file":     "catalog-cache",
	"pricing.cache_ttl":      "catalog-cache-ttl",
	"estimate.days_back":     "days-back",
	"estimate.start_time":    "start-time",
	"estimate.end_time":      "end-time",
	"estimate.region":        "region",
	"estimate.input_list":    "input-list",
	"estimate.discount":      "discount",
	"estimate.output":        "output",
	"estimate.output_dir":    "output-dir",
	"estimate.output_file":   "output-file",
	"estimate.bucket":        "bucket",
	"estimate.bucket_region": "bucket-region",
}

// FlagName returns the flag bound to a config key
func FlagName(key string) string {
	if name, ok := flagNames[key]; ok {
		return name
	}
	return strings.ReplaceAll(key, ".", "-")
}

// BindFlags binds each config key to the flag of cmd named by FlagName.
// Local flags are looked up before persistent ones.
func BindFlags(cmd *cobra.Command, keys ...string) error {
	for _, key := range keys {
		name := FlagName(key)
		f := cmd.Flags().Lookup(name)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(name)
		}
		if f == nil {
			return fmt.Errorf("no flag %s for config key %s", name, key)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// parameterSource tracks where each parameter value came from
type parameterSource struct {
	Key    string
	Value  interface{}
	Source string
}

// getParameterSource determines where a parameter value came from (config file, env var, flag, or default)
func getParameterSource(key string, cmd *cobra.Command) parameterSource {
	value := viper.Get(key)
	envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	flagName := FlagName(key)

	if cmd != nil {
		if f := cmd.Flags().Lookup(flagName); f != nil && f.Changed {
			return parameterSource{key, value, "command line flag"}
		}

		// Walk up the command chain checking persistent flags
		for current := cmd; current != nil; current = current.Parent() {
			if f := current.PersistentFlags().Lookup(flagName); f != nil && f.Changed {
				return parameterSource{key, value, "command line flag"}
			}
		}
	}

	if _, exists := os.LookupEnv(envKey); exists {
		return parameterSource{key, value, "environment variable"}
	}

	if viper.GetViper().InConfig(key) {
		return parameterSource{key, value, "config file"}
	}

	return parameterSource{key, value, "default value"}
}

// LogConfigurationSources logs the source of each configuration parameter at DEBUG level
func LogConfigurationSources(cmd *cobra.Command) {
	logging.Debug("Configuration parameter sources:", nil)

	keys := make([]string, 0, len(flagNames))
	for key := range flagNames {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		source := getParameterSource(key, cmd)
		logging.Debug(fmt.Sprintf("  %s = %v (from %s)", source.Key, source.Value, source.Source), nil)
	}
}

// SetDefaults registers the default value of every configuration key
func SetDefaults() {
	d := Default()
	viper.SetDefault("aws.profile", d.Profile)
	viper.SetDefault("aws.http_timeout", d.HTTPTimeout)
	viper.SetDefault("app.max_workers", d.MaxWorkers)
	viper.SetDefault("app.log_format", d.LogFormat)
	viper.SetDefault("app.log_level", d.LogLevel)
	viper.SetDefault("app.task_timeout", d.TaskTimeout)
	viper.SetDefault("pricing.base_url", d.CatalogBaseURL)
	viper.SetDefault("pricing.timeout", d.CatalogTimeout)
	viper.SetDefault("pricing.cache_file", d.CatalogCacheFile)
	viper.SetDefault("pricing.cache_ttl", d.CatalogCacheTTL)
	viper.SetDefault("estimate.days_back", 7)
	viper.SetDefault("estimate.region", "us-east-1")
	viper.SetDefault("estimate.output", "filesystem")
	viper.SetDefault("estimate.output_dir", "data")
}

// InitConfig initializes the Viper configuration
func InitConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if dir, err := DefaultConfigDir(); err == nil {
		viper.AddConfigPath(dir)
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	// Try to read config file but don't error if not found
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		logging.Debug("No config file found, using defaults and environment variables", nil)
	} else {
		logging.Debug("Loaded config file", map[string]interface{}{
			"path": viper.ConfigFileUsed(),
		})
	}

	return nil
}

// SetConfigFile sets a custom config file path and reloads the configuration
func SetConfigFile(configFile string) error {
	viper.SetConfigFile(configFile)

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// Load copies the resolved viper values into Config
func Load() *GlobalConfig {
	Config = &GlobalConfig{
		Profile:          viper.GetString("aws.profile"),
		HTTPTimeout:      viper.GetDuration("aws.http_timeout"),
		MaxWorkers:       viper.GetInt("app.max_workers"),
		LogFormat:        viper.GetString("app.log_format"),
		LogLevel:         viper.GetString("app.log_level"),
		TaskTimeout:      viper.GetDuration("app.task_timeout"),
		CatalogBaseURL:   viper.GetString("pricing.base_url"),
		CatalogTimeout:   viper.GetDuration("pricing.timeout"),
		CatalogCacheFile: viper.GetString("pricing.cache_file"),
		CatalogCacheTTL:  viper.GetDuration("pricing.cache_ttl"),
	}
	if Config.MaxWorkers <= 0 {
		Config.MaxWorkers = 1
	}
	return Config
}

// DefaultConfigDir returns the per-user configuration directory
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".gp3sift"), nil
}

// DefaultConfigContent is written by the init command
const DefaultConfigContent = `# gp3sift Configuration File

# AWS Configuration
aws:
  profile: default  # AWS profile used for the base session (supports SSO profiles)
  http_timeout: 25s  # Timeout for a single AWS API request

# Application Configuration
app:
  max_workers: 8  # Account/region batches processed concurrently
  log_format: text  # Log output format (text or json)
  log_level: INFO  # Set logging level (DEBUG, INFO, WARN, ERROR)
  task_timeout: 15m  # Upper bound for one account/region batch

# Price list Configuration
pricing:
  base_url: https://pricing.us-east-1.amazonaws.com/offers/v1.0/aws/AmazonRDS/current
  timeout: 5m  # Download timeout for one regional price list
  cache_file: cache/rds_catalogs.json  # Parsed price lists are reused between runs
  cache_ttl: 24h  # Refetch cached price lists older than this (0 disables expiry)

# Estimate Command Configuration
estimate:
  days_back: 7  # CloudWatch lookback when no explicit start/end is given
  region: us-east-1  # Region used when the input list row has none
  # input_list: input/account_role.csv  # account,region,role_arn
  # discount: 0.19  # Fractional discount off public pricing
  output: filesystem  # Output type (filesystem or s3)
  output_dir: data  # Directory for <account>_<region>_rds_output.csv files
  # output_file: fleet.csv  # Write every batch into one file instead
  # bucket: ""  # S3 bucket name (required when output=s3)
  # bucket_region: ""  # S3 bucket region (required when output=s3)
`

// WriteDefaultConfig writes DefaultConfigContent to path. An existing file
// is only replaced when force is set.
func WriteDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("file %s already exists. Use --force to overwrite", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(DefaultConfigContent), 0644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	return nil
}
