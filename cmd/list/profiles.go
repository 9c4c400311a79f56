package list

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gp3sift/internal/aws"
)

// NewProfilesCmd creates and returns the profiles command
func NewProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List available AWS profiles",
		Long: `List all available AWS credential profiles from the system.
These profiles are read from the AWS credentials and config files.`,
		Example: `  # List all available AWS profiles
  gp3sift list profiles`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfiles(cmd)
		},
	}

	return cmd
}

func runProfiles(cmd *cobra.Command) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	profiles, err := aws.ListProfiles()
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		if profiles == nil {
			profiles = []aws.Profile{}
		}
		return writeJSON(out, profiles)
	}

	for _, profile := range profiles {
		var details []string
		if profile.Region != "" {
			details = append(details, profile.Region)
		}
		if profile.SSO {
			details = append(details, "sso")
		}

		if len(details) == 0 {
			fmt.Fprintln(out, profile.Name)
			continue
		}
		fmt.Fprintf(out, "%s (%s)\n", profile.Name, strings.Join(details, ", "))
	}

	return nil
}
