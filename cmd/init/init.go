package init

import (
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var (
		force  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default gp3sift config file",
		Long: `Create a default config.yaml with the recommended settings.

The file is written to ~/.gp3sift/config.yaml unless --output names another
location. An existing file is only replaced with --force.`,
		Example: `  # Write ~/.gp3sift/config.yaml
  gp3sift init

  # Write ./config.yaml, replacing any existing file
  gp3sift init --output config.yaml --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, output, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: ~/.gp3sift/config.yaml)")

	return cmd
}
