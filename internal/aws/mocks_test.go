package aws

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/aws/aws-sdk-go/service/organizations"
	"github.com/aws/aws-sdk-go/service/organizations/organizationsiface"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
	"github.com/stretchr/testify/mock"
)

type mockRDSAPI struct {
	mock.Mock
	rdsiface.RDSAPI
}

func (m *mockRDSAPI) DescribeDBInstancesWithContext(ctx aws.Context, input *rds.DescribeDBInstancesInput, opts ...request.Option) (*rds.DescribeDBInstancesOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*rds.DescribeDBInstancesOutput)
	return out, args.Error(1)
}

// DescribeDBInstancesPagesWithContext walks the Marker chain of
// DescribeDBInstancesWithContext the way the SDK pager does
func (m *mockRDSAPI) DescribeDBInstancesPagesWithContext(ctx aws.Context, input *rds.DescribeDBInstancesInput, fn func(*rds.DescribeDBInstancesOutput, bool) bool, opts ...request.Option) error {
	in := *input
	for {
		page, err := m.DescribeDBInstancesWithContext(ctx, &in)
		if err != nil {
			return err
		}
		lastPage := aws.StringValue(page.Marker) == ""
		if !fn(page, lastPage) || lastPage {
			return nil
		}
		in.Marker = page.Marker
	}
}

type mockCloudWatchAPI struct {
	mock.Mock
	cloudwatchiface.CloudWatchAPI
}

func (m *mockCloudWatchAPI) GetMetricDataWithContext(ctx aws.Context, input *cloudwatch.GetMetricDataInput, opts ...request.Option) (*cloudwatch.GetMetricDataOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*cloudwatch.GetMetricDataOutput)
	return out, args.Error(1)
}

type mockSTSAPI struct {
	mock.Mock
	stsiface.STSAPI
}

func (m *mockSTSAPI) GetCallerIdentityWithContext(ctx aws.Context, input *sts.GetCallerIdentityInput, opts ...request.Option) (*sts.GetCallerIdentityOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*sts.GetCallerIdentityOutput)
	return out, args.Error(1)
}

type mockOrganizationsAPI struct {
	mock.Mock
	organizationsiface.OrganizationsAPI
}

func (m *mockOrganizationsAPI) ListAccountsPagesWithContext(ctx aws.Context, input *organizations.ListAccountsInput, fn func(*organizations.ListAccountsOutput, bool) bool, opts ...request.Option) error {
	args := m.Called(ctx, input)
	if pages, ok := args.Get(0).([]*organizations.ListAccountsOutput); ok {
		for i, page := range pages {
			if !fn(page, i == len(pages)-1) {
				break
			}
		}
	}
	return args.Error(1)
}

func (m *mockOrganizationsAPI) DescribeAccountWithContext(ctx aws.Context, input *organizations.DescribeAccountInput, opts ...request.Option) (*organizations.DescribeAccountOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*organizations.DescribeAccountOutput)
	return out, args.Error(1)
}

type mockEC2API struct {
	mock.Mock
	ec2iface.EC2API
}

func (m *mockEC2API) DescribeRegionsWithContext(ctx aws.Context, input *ec2.DescribeRegionsInput, opts ...request.Option) (*ec2.DescribeRegionsOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*ec2.DescribeRegionsOutput)
	return out, args.Error(1)
}
