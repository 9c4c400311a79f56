package list

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"gp3sift/internal/aws"
	"gp3sift/internal/config"
)

// NewAccountsCmd creates and returns the accounts command
func NewAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List available AWS accounts",
		Long: `List the AWS accounts an estimate can cover.
Without a role ARN the organization is listed with the current credentials;
when that is not permitted only the current account is shown.`,
		Example: `  # List accounts with the current credentials
  gp3sift list accounts

  # List all accounts in the organization through a management account role
  gp3sift list accounts --role-arn arn:aws:iam::123456789012:role/OrganizationAccessRole`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccounts(cmd)
		},
	}

	cmd.Flags().String("role-arn", "", "Role to assume for listing organization accounts")
	return cmd
}

func runAccounts(cmd *cobra.Command) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	roleARN, _ := cmd.Flags().GetString("role-arn")
	sess, err := aws.NewSession(config.Config.Profile, "us-east-1")
	if err != nil {
		return err
	}

	accounts, err := aws.ListAccounts(ctx, sess, roleARN)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		if accounts == nil {
			accounts = []aws.Account{}
		}
		return writeJSON(out, accounts)
	}

	if len(accounts) == 0 {
		fmt.Fprintln(out, "No accounts found")
		return nil
	}

	fmt.Fprintln(out, "Available accounts:")
	for _, account := range accounts {
		fmt.Fprintf(out, "  %s - %s\n", account.ID, account.Name)
	}

	return nil
}
