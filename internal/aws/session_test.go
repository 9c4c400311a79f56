package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gp3sift/internal/pricing/models"
)

func TestCallerIdentity(t *testing.T) {
	tests := []struct {
		name     string
		output   *sts.GetCallerIdentityOutput
		err      error
		expected Identity
		wantErr  bool
	}{
		{
			name:     "success",
			output:   &sts.GetCallerIdentityOutput{Account: aws.String("123456789012"), Arn: aws.String("arn:aws:sts::123456789012:assumed-role/r/gp3sift")},
			expected: Identity{AccountID: "123456789012", ARN: "arn:aws:sts::123456789012:assumed-role/r/gp3sift"},
		},
		{name: "api error", err: errors.New("ExpiredToken"), wantErr: true},
		{name: "no account", output: &sts.GetCallerIdentityOutput{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockSTSAPI{}
			svc.On("GetCallerIdentityWithContext", mock.Anything, mock.Anything).Return(tt.output, tt.err).Once()

			identity, err := CallerIdentity(context.Background(), svc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, identity)
		})
	}
}

func testSession(t *testing.T) *session.Session {
	t.Helper()
	sess, err := session.NewSession(aws.NewConfig().
		WithRegion("us-east-1").
		WithCredentials(credentials.NewStaticCredentials("AKID", "SECRET", "")))
	require.NoError(t, err)
	return sess
}

func stubSTS(t *testing.T, svc stsiface.STSAPI) {
	t.Helper()
	original := newSTSClient
	newSTSClient = func(*session.Session) stsiface.STSAPI { return svc }
	t.Cleanup(func() { newSTSClient = original })
}

func TestCurrentAccountID(t *testing.T) {
	svc := &mockSTSAPI{}
	svc.On("GetCallerIdentityWithContext", mock.Anything, mock.Anything).
		Return(&sts.GetCallerIdentityOutput{Account: aws.String("123456789012")}, nil).Once()
	stubSTS(t, svc)

	id, err := CurrentAccountID(context.Background(), testSession(t))
	require.NoError(t, err)
	assert.Equal(t, "123456789012", id)
}

func TestAssumeRoleARN(t *testing.T) {
	t.Run("empty role returns the base session", func(t *testing.T) {
		sess := testSession(t)
		got, err := AssumeRoleARN(context.Background(), sess, "")
		require.NoError(t, err)
		assert.Same(t, sess, got)
	})

	t.Run("verification failure", func(t *testing.T) {
		svc := &mockSTSAPI{}
		svc.On("GetCallerIdentityWithContext", mock.Anything, mock.Anything).
			Return(nil, errors.New("AccessDenied: not authorized to perform sts:AssumeRole")).Once()
		stubSTS(t, svc)

		_, err := AssumeRoleARN(context.Background(), testSession(t), "arn:aws:iam::123456789012:role/rds-read")
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
		assert.Contains(t, err.Error(), "rds-read")
	})

	t.Run("verified", func(t *testing.T) {
		svc := &mockSTSAPI{}
		svc.On("GetCallerIdentityWithContext", mock.Anything, mock.Anything).
			Return(&sts.GetCallerIdentityOutput{Account: aws.String("123456789012"), Arn: aws.String("arn")}, nil).Once()
		stubSTS(t, svc)

		got, err := AssumeRoleARN(context.Background(), testSession(t), "arn:aws:iam::123456789012:role/rds-read")
		require.NoError(t, err)
		assert.NotNil(t, got.Config.Credentials)
	})
}

func TestGetSessionInRegion(t *testing.T) {
	sess := testSession(t)

	same, err := GetSessionInRegion(sess, "")
	require.NoError(t, err)
	assert.Same(t, sess, same)

	regional, err := GetSessionInRegion(sess, "eu-west-1")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", aws.StringValue(regional.Config.Region))
	assert.Equal(t, "us-east-1", aws.StringValue(sess.Config.Region))
}
