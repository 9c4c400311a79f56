package utils

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/google/uuid"

	"gp3sift/internal/pricing/models"
)

// MetricConfig represents configuration for retrieving CloudWatch metrics
type MetricConfig struct {
	Namespace     string
	ResourceID    string
	DimensionName string
	MetricName    string
	Statistic     string
	StartTime     time.Time
	EndTime       time.Time
	Period        int64
}

// queryID returns a GetMetricData query id. Ids must start with a lowercase letter.
func queryID() string {
	return "q" + uuid.NewString()[:8]
}

// BuildMetricDataInput creates a single-query GetMetricData request that
// returns the newest datapoint first
func BuildMetricDataInput(config MetricConfig) *cloudwatch.GetMetricDataInput {
	return &cloudwatch.GetMetricDataInput{
		MetricDataQueries: []*cloudwatch.MetricDataQuery{
			{
				Id: aws.String(queryID()),
				MetricStat: &cloudwatch.MetricStat{
					Metric: &cloudwatch.Metric{
						Namespace:  aws.String(config.Namespace),
						MetricName: aws.String(config.MetricName),
						Dimensions: []*cloudwatch.Dimension{
							{
								Name:  aws.String(config.DimensionName),
								Value: aws.String(config.ResourceID),
							},
						},
					},
					Period: aws.Int64(config.Period),
					Stat:   aws.String(config.Statistic),
				},
				ReturnData: aws.Bool(true),
			},
		},
		StartTime: aws.Time(config.StartTime),
		EndTime:   aws.Time(config.EndTime),
		ScanBy:    aws.String(cloudwatch.ScanByTimestampDescending),
	}
}

// GetLatestMetricValue returns the newest datapoint of a metric rounded to a
// whole number. A query that yields no datapoint returns ErrMetricUnavailable.
func GetLatestMetricValue(ctx context.Context, cwClient cloudwatchiface.CloudWatchAPI, config MetricConfig) (float64, error) {
	output, err := cwClient.GetMetricDataWithContext(ctx, BuildMetricDataInput(config))
	if err != nil {
		return 0, fmt.Errorf("failed to get metric data for %s: %w", config.MetricName, err)
	}

	for _, result := range output.MetricDataResults {
		if len(result.Values) > 0 && result.Values[0] != nil {
			return math.Round(*result.Values[0]), nil
		}
	}

	return 0, fmt.Errorf("%w: %s has no datapoints for %s", models.ErrMetricUnavailable, config.MetricName, config.ResourceID)
}
