package aws

import (
	"context"
	"math"

	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"

	"gp3sift/internal/aws/ratelimit"
	"gp3sift/internal/aws/utils"
	"gp3sift/internal/config"
	"gp3sift/internal/logging"
	"gp3sift/internal/metrics"
	"gp3sift/internal/pricing/models"
)

const (
	rdsNamespace    = "AWS/RDS"
	rdsDimension    = "DBInstanceIdentifier"
	percentile98    = "p98.00"
	bytesPerGiB     = 1024 * 1024 * 1024
	storageDecimals = 100
)

// StorageMetric is one utilization metric reported per instance
type StorageMetric struct {
	Name      string
	Statistic string
	set       func(u *models.Usage, m models.Measurement)
}

// StorageMetrics are queried for every instance, in output column order
var StorageMetrics = []StorageMetric{
	{Name: "FreeStorageSpace", Statistic: "Minimum", set: func(u *models.Usage, m models.Measurement) {
		if m.Available {
			m.Value = math.Round(m.Value/bytesPerGiB*storageDecimals) / storageDecimals
		}
		u.FreeStorageGB = m
	}},
	{Name: "WriteIOPS", Statistic: percentile98, set: func(u *models.Usage, m models.Measurement) { u.WriteIOPS = m }},
	{Name: "ReadIOPS", Statistic: percentile98, set: func(u *models.Usage, m models.Measurement) { u.ReadIOPS = m }},
	{Name: "WriteThroughput", Statistic: percentile98, set: func(u *models.Usage, m models.Measurement) { u.WriteThroughput = m }},
	{Name: "ReadThroughput", Statistic: percentile98, set: func(u *models.Usage, m models.Measurement) { u.ReadThroughput = m }},
}

// MetricsFetcher reads instance utilization from CloudWatch over a fixed window
type MetricsFetcher struct {
	client  cloudwatchiface.CloudWatchAPI
	window  metrics.Window
	limiter *ratelimit.ServiceLimiter
}

// NewMetricsFetcher creates a fetcher for one account and region
func NewMetricsFetcher(client cloudwatchiface.CloudWatchAPI, window metrics.Window) *MetricsFetcher {
	return &MetricsFetcher{
		client:  client,
		window:  window,
		limiter: ratelimit.GetServiceLimiter("cloudwatch", config.CloudWatchRateLimitConfig),
	}
}

// Query returns the newest value of one metric. Missing data and API
// failures are reported as an unavailable measurement, never as zero.
func (f *MetricsFetcher) Query(ctx context.Context, instanceID string, metric StorageMetric) models.Measurement {
	cfg := utils.MetricConfig{
		Namespace:     rdsNamespace,
		ResourceID:    instanceID,
		DimensionName: rdsDimension,
		MetricName:    metric.Name,
		Statistic:     metric.Statistic,
		StartTime:     f.window.Start,
		EndTime:       f.window.End,
		Period:        f.window.Period,
	}

	var value float64
	err := f.limiter.Execute(ctx, "GetMetricData", func() error {
		var err error
		value, err = utils.GetLatestMetricValue(ctx, f.client, cfg)
		return err
	})
	if err != nil {
		logging.Debug("Metric unavailable", map[string]interface{}{
			"instance": instanceID,
			"metric":   metric.Name,
			"error":    err.Error(),
		})
		return models.Measurement{}
	}
	return models.Measured(value)
}

// Usage queries every storage metric of an instance
func (f *MetricsFetcher) Usage(ctx context.Context, instanceID string) models.Usage {
	var usage models.Usage
	for _, metric := range StorageMetrics {
		metric.set(&usage, f.Query(ctx, instanceID, metric))
	}
	return usage
}
