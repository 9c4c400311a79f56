package cmd

import (
	"github.com/spf13/cobra"

	"gp3sift/cmd/estimate"
	initCmd "gp3sift/cmd/init"
	"gp3sift/cmd/list"
	"gp3sift/cmd/version"
	"gp3sift/internal/config"
	"gp3sift/internal/logging"
)

// globalKeys are the config keys set by the root command's persistent flags
var globalKeys = []string{
	"aws.profile",
	"aws.http_timeout",
	"app.max_workers",
	"app.log_format",
	"app.log_level",
}

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "gp3sift",
		Short: "gp3sift - RDS io1 to gp3 storage cost estimator",
		Long: `gp3sift is a command-line tool that estimates what RDS instances on io1
storage would cost on gp3.

It reads instance storage configuration and CloudWatch utilization across
accounts and regions, prices both configurations from the public RDS price
list, and reports the fleet-wide monthly savings.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Set config file if specified
			if configFile != "" {
				if err := config.SetConfigFile(configFile); err != nil {
					return err
				}
			}

			if err := config.BindFlags(cmd.Root(), globalKeys...); err != nil {
				return err
			}
			cfg := config.Load()

			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			format, err := logging.ParseFormat(cfg.LogFormat)
			if err != nil {
				return err
			}

			// Configure logger
			logging.Configure(logging.LogConfig{
				Level:  level,
				Format: format,
			})

			config.LogConfigurationSources(cmd)
			return nil
		},
	}

	d := config.Default()

	// Add global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringP("profile", "p", d.Profile, "AWS profile to use (supports SSO profiles)")
	rootCmd.PersistentFlags().Duration("http-timeout", d.HTTPTimeout, "Timeout for a single AWS API request")
	rootCmd.PersistentFlags().Int("max-workers", d.MaxWorkers, "Maximum number of account/region batches processed concurrently")
	rootCmd.PersistentFlags().String("log-format", d.LogFormat, "Log output format (text or json)")
	rootCmd.PersistentFlags().String("log-level", d.LogLevel, "Set logging level (DEBUG, INFO, WARN, ERROR)")

	// Add commands
	rootCmd.AddCommand(estimate.NewEstimateCmd())
	rootCmd.AddCommand(list.NewListCmd())
	rootCmd.AddCommand(initCmd.NewInitCmd())
	rootCmd.AddCommand(version.NewVersionCmd())

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	// Initialize config
	if err := config.InitConfig(); err != nil {
		return err
	}

	return NewRootCmd().Execute()
}
