package estimate

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"gp3sift/internal/metrics"
	"gp3sift/internal/output"
)

type estimateOptions struct {
	daysBack     int
	startTime    string
	endTime      string
	region       string
	inputList    string
	discount     string
	output       string // filesystem or s3
	outputDir    string
	outputFile   string
	bucket       string
	bucketRegion string
}

// estimatePlan holds the validated inputs of a run
type estimatePlan struct {
	window   metrics.Window
	discount *decimal.Decimal
	output   output.Type
}

// optionsFromConfig reads the estimate options after flags, env vars, and
// the config file have been merged by viper
func optionsFromConfig() estimateOptions {
	return estimateOptions{
		daysBack:     viper.GetInt("estimate.days_back"),
		startTime:    viper.GetString("estimate.start_time"),
		endTime:      viper.GetString("estimate.end_time"),
		region:       viper.GetString("estimate.region"),
		inputList:    viper.GetString("estimate.input_list"),
		discount:     viper.GetString("estimate.discount"),
		output:       viper.GetString("estimate.output"),
		outputDir:    viper.GetString("estimate.output_dir"),
		outputFile:   viper.GetString("estimate.output_file"),
		bucket:       viper.GetString("estimate.bucket"),
		bucketRegion: viper.GetString("estimate.bucket_region"),
	}
}

var one = decimal.NewFromInt(1)

// parseDiscount returns nil for an empty value
func parseDiscount(value string) (*decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid discount %q: %w", value, err)
	}
	if d.IsNegative() || d.GreaterThanOrEqual(one) {
		return nil, fmt.Errorf("invalid discount %s: must be in [0, 1)", value)
	}
	return &d, nil
}

// plan validates the options and resolves the metric window against now
func (o estimateOptions) plan(now time.Time) (*estimatePlan, error) {
	outputType, err := output.ParseType(o.output)
	if err != nil {
		return nil, err
	}
	if outputType == output.S3 {
		if o.bucket == "" {
			return nil, fmt.Errorf("--bucket is required when --output=s3")
		}
		if o.bucketRegion == "" {
			return nil, fmt.Errorf("--bucket-region is required when --output=s3")
		}
	}

	if o.region == "" {
		return nil, fmt.Errorf("--region must not be empty")
	}

	discount, err := parseDiscount(o.discount)
	if err != nil {
		return nil, err
	}

	req := metrics.WindowRequest{DaysBack: o.daysBack}
	if o.startTime != "" {
		if req.Start, err = metrics.ParseTime(o.startTime); err != nil {
			return nil, fmt.Errorf("invalid --start-time: %w", err)
		}
	}
	if o.endTime != "" {
		if req.End, err = metrics.ParseTime(o.endTime); err != nil {
			return nil, fmt.Errorf("invalid --end-time: %w", err)
		}
	}

	window, err := metrics.Resolve(req, now)
	if err != nil {
		return nil, err
	}

	return &estimatePlan{
		window:   window,
		discount: discount,
		output:   outputType,
	}, nil
}
