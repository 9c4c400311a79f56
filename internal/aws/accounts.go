package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/organizations"
	"github.com/aws/aws-sdk-go/service/organizations/organizationsiface"

	"gp3sift/internal/logging"
)

const (
	// Organizations API requires a specific region
	organizationsRegion = "us-east-1"
)

// Account represents an AWS account
type Account struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status,omitempty" yaml:"status,omitempty"`
}

// newOrganizationsClient is replaced in tests
var newOrganizationsClient = func(sess *session.Session) organizationsiface.OrganizationsAPI {
	return organizations.New(sess, aws.NewConfig().WithRegion(organizationsRegion))
}

// ListAccounts lists the organization's accounts, assuming roleARN first when
// set. Outside an organization, or without permission, only the current
// account is returned.
func ListAccounts(ctx context.Context, sess *session.Session, roleARN string) ([]Account, error) {
	logging.Debug("Listing AWS accounts", map[string]interface{}{
		"role_arn": roleARN,
	})

	orgSess, err := AssumeRoleARN(ctx, sess, roleARN)
	if err != nil {
		return nil, err
	}

	accounts, err := ListAccountsWithClient(ctx, newOrganizationsClient(orgSess))
	if err != nil {
		logging.Warn("Could not list organization accounts, falling back to current account", map[string]interface{}{
			"error": err.Error(),
		})
		return ListCurrentAccount(ctx, orgSess)
	}
	return accounts, nil
}

// ListAccountsWithClient lists every account of the organization
func ListAccountsWithClient(ctx context.Context, svc organizationsiface.OrganizationsAPI) ([]Account, error) {
	var accounts []Account
	err := svc.ListAccountsPagesWithContext(ctx, &organizations.ListAccountsInput{},
		func(page *organizations.ListAccountsOutput, lastPage bool) bool {
			for _, account := range page.Accounts {
				accounts = append(accounts, Account{
					ID:     aws.StringValue(account.Id),
					Name:   aws.StringValue(account.Name),
					Status: aws.StringValue(account.Status),
				})
			}
			return !lastPage
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list organization accounts: %w", err)
	}

	logging.Info("Successfully listed organization accounts", map[string]interface{}{
		"account_count": len(accounts),
	})
	return accounts, nil
}

// ListCurrentAccount returns the account of the session, named through the
// Organizations API when permitted
func ListCurrentAccount(ctx context.Context, sess *session.Session) ([]Account, error) {
	accountID, err := CurrentAccountID(ctx, sess)
	if err != nil {
		return nil, err
	}

	name, err := accountName(ctx, newOrganizationsClient(sess), accountID)
	if err != nil {
		logging.Warn("Could not get account name from Organizations API, using account ID as name", map[string]interface{}{
			"account_id": accountID,
			"error":      err.Error(),
		})
		name = accountID
	}

	return []Account{{ID: accountID, Name: name}}, nil
}

func accountName(ctx context.Context, svc organizationsiface.OrganizationsAPI, accountID string) (string, error) {
	out, err := svc.DescribeAccountWithContext(ctx, &organizations.DescribeAccountInput{
		AccountId: aws.String(accountID),
	})
	if err != nil {
		return "", err
	}
	if out.Account == nil || out.Account.Name == nil {
		return "", fmt.Errorf("account name not available")
	}
	return aws.StringValue(out.Account.Name), nil
}
