package list

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List AWS accounts and profiles",
		Long: `List the AWS configuration gp3sift can work with.
Currently supports listing:
  - AWS accounts in an organization or current account
  - Available AWS credential profiles`,
	}

	cmd.PersistentFlags().String("format", "text", "Output format (text or json)")

	// Add subcommands
	cmd.AddCommand(NewAccountsCmd())
	cmd.AddCommand(NewProfilesCmd())

	return cmd
}

// outputFormat returns the validated --format value
func outputFormat(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil || format == "" {
		return "text", nil
	}
	switch format {
	case "text", "json":
		return format, nil
	default:
		return "", fmt.Errorf("invalid output format: %s", format)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
