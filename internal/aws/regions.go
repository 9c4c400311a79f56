package aws

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
)

// ErrUnknownRegion is returned when a target region is not enabled for the account
var ErrUnknownRegion = errors.New("region not available")

// GetAvailableRegions returns the regions that are enabled for the account
func GetAvailableRegions(ctx context.Context, svc ec2iface.EC2API) ([]string, error) {
	result, err := svc.DescribeRegionsWithContext(ctx, &ec2.DescribeRegionsInput{
		AllRegions: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe regions: %w", err)
	}

	regions := make([]string, 0, len(result.Regions))
	for _, region := range result.Regions {
		regions = append(regions, aws.StringValue(region.RegionName))
	}
	sort.Strings(regions)
	return regions, nil
}

// ValidateRegions checks that every target region is enabled for the account
func ValidateRegions(ctx context.Context, svc ec2iface.EC2API, targets []Target) error {
	available, err := GetAvailableRegions(ctx, svc)
	if err != nil {
		return err
	}

	enabled := make(map[string]bool, len(available))
	for _, region := range available {
		enabled[region] = true
	}

	var unknown []string
	seen := make(map[string]bool)
	for _, t := range targets {
		if !enabled[t.Region] && !seen[t.Region] {
			seen[t.Region] = true
			unknown = append(unknown, t.Region)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: %s. Available regions: %s", ErrUnknownRegion,
			strings.Join(unknown, ", "), strings.Join(available, ", "))
	}
	return nil
}
