package aws

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials/stscreds"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"

	"gp3sift/internal/config"
	"gp3sift/internal/logging"
	"gp3sift/internal/pricing/models"
)

// RoleSessionName identifies gp3sift in CloudTrail when assuming roles
const RoleSessionName = "gp3sift-rds-info-gathering"

// Identity is the caller identity of a session
type Identity struct {
	AccountID string
	ARN       string
}

// newSTSClient is replaced in tests
var newSTSClient = func(sess *session.Session) stsiface.STSAPI {
	return sts.New(sess)
}

// NewSession creates a new AWS session with the specified profile and region
func NewSession(profile string, region string) (*session.Session, error) {
	cfg := aws.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}

	opts := session.Options{
		Config:            *cfg,
		Profile:           profile,
		SharedConfigState: session.SharedConfigEnable,
	}

	sess, err := session.NewSessionWithOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create session for profile %s: %w", models.ErrUpstreamUnavailable, profile, err)
	}
	return sess, nil
}

// GetSessionInRegion creates a new session in the specified region using credentials from an existing session
func GetSessionInRegion(sess *session.Session, region string) (*session.Session, error) {
	if region == "" {
		return sess, nil
	}

	httpClient := &http.Client{
		Timeout: config.Config.HTTPTimeout,
	}

	newSess, err := session.NewSession(sess.Config.Copy().WithRegion(region).WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create session in %s: %w", region, err)
	}
	return newSess, nil
}

// CallerIdentity returns the account and ARN the client is authenticated as
func CallerIdentity(ctx context.Context, svc stsiface.STSAPI) (Identity, error) {
	out, err := svc.GetCallerIdentityWithContext(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, fmt.Errorf("failed to get caller identity: %w", err)
	}
	if out.Account == nil {
		return Identity{}, fmt.Errorf("caller identity has no account ID")
	}
	return Identity{AccountID: aws.StringValue(out.Account), ARN: aws.StringValue(out.Arn)}, nil
}

// CurrentAccountID returns the account ID of a session
func CurrentAccountID(ctx context.Context, sess *session.Session) (string, error) {
	identity, err := CallerIdentity(ctx, newSTSClient(sess))
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err)
	}
	return identity.AccountID, nil
}

// AssumeRoleARN creates a session for roleARN using the credentials of sess.
// The assumption is verified with GetCallerIdentity so that a bad role fails
// here rather than on the first RDS call.
func AssumeRoleARN(ctx context.Context, sess *session.Session, roleARN string) (*session.Session, error) {
	if roleARN == "" {
		return sess, nil
	}

	logging.Debug("Attempting cross-account role assumption", map[string]interface{}{
		"role_arn": roleARN,
	})

	creds := stscreds.NewCredentials(sess, roleARN, func(p *stscreds.AssumeRoleProvider) {
		p.RoleSessionName = RoleSessionName
	})
	assumed, err := session.NewSession(sess.Config.Copy().WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to assume role %s: %w", models.ErrUpstreamUnavailable, roleARN, err)
	}

	identity, err := CallerIdentity(ctx, newSTSClient(assumed))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to verify role %s: %w", models.ErrUpstreamUnavailable, roleARN, err)
	}
	logging.Debug("Assumed cross-account role", map[string]interface{}{
		"role_arn":   identity.ARN,
		"account_id": identity.AccountID,
	})

	return assumed, nil
}
