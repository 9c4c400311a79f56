package init

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"gp3sift/internal/config"
)

// configPath returns the absolute path init writes to
func configPath(output string) (string, error) {
	if output == "" {
		dir, err := config.DefaultConfigDir()
		if err != nil {
			return "", err
		}
		output = filepath.Join(dir, "config.yaml")
	}

	absPath, err := filepath.Abs(output)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	return absPath, nil
}

func runInit(cmd *cobra.Command, output string, force bool) error {
	absPath, err := configPath(output)
	if err != nil {
		return err
	}

	if err := config.WriteDefaultConfig(absPath, force); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", absPath)
	return nil
}
