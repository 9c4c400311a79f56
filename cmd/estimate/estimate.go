package estimate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	awsinternal "gp3sift/internal/aws"
	"gp3sift/internal/config"
	"gp3sift/internal/logging"
	"gp3sift/internal/metrics"
	"gp3sift/internal/output"
	"gp3sift/internal/pricing"
	"gp3sift/internal/pricing/catalog"
)

// configKeys are the config keys set by the estimate command's flags
var configKeys = []string{
	"estimate.days_back",
	"estimate.start_time",
	"estimate.end_time",
	"estimate.region",
	"estimate.input_list",
	"estimate.discount",
	"estimate.output",
	"estimate.output_dir",
	"estimate.output_file",
	"estimate.bucket",
	"estimate.bucket_region",
	"app.task_timeout",
	"pricing.base_url",
	"pricing.timeout",
	"pricing.cache_file",
	"pricing.cache_ttl",
}

// NewEstimateCmd creates the estimate command
func NewEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the cost of moving io1 RDS storage to gp3",
		Long: `Estimate the monthly storage cost of RDS instances on io1 and the cost of the
equivalent gp3 configuration.

Instances are read from every account and region in the input list. Without an
input list, the current account is estimated in --region. Each account/region
pair is written to <output-dir>/<account>_<region>_rds_output.csv unless
--output-file collects everything into one file.

Examples:
  # Current account, last 7 days of CloudWatch data
  gp3sift estimate --region us-west-2

  # Accounts from an input list with a negotiated discount
  gp3sift estimate -i input/account_role.csv --discount 0.19

  # Explicit utilization window, single output file
  gp3sift estimate -s "2026-03-01 00:00:00" -e "2026-03-08 00:00:00" -o fleet.csv

  # Upload results to S3
  gp3sift estimate -i accounts.yaml --output s3 --bucket my-bucket --bucket-region us-west-2`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return config.BindFlags(cmd, configKeys...)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd, optionsFromConfig())
		},
	}

	d := config.Default()
	cmd.Flags().IntP("days-back", "d", 7, "Days of CloudWatch data to evaluate when no start/end time is given")
	cmd.Flags().StringP("start-time", "s", "", "Window start, UTC \""+metrics.TimeLayout+"\" (requires --end-time)")
	cmd.Flags().StringP("end-time", "e", "", "Window end, UTC \""+metrics.TimeLayout+"\" (requires --start-time)")
	cmd.Flags().StringP("region", "r", "us-east-1", "Region used when the input list row has none")
	cmd.Flags().StringP("input-list", "i", "", "CSV or YAML list of account, region, role_arn (default: current account)")
	cmd.Flags().String("discount", "", "Fractional discount off public pricing, in [0, 1)")
	cmd.Flags().String("output", "filesystem", "Output type (filesystem, s3)")
	cmd.Flags().String("output-dir", "data", "Directory for per account/region result files")
	cmd.Flags().StringP("output-file", "o", "", "Write all results to this single file")
	cmd.Flags().String("bucket", "", "S3 bucket name (required when --output=s3)")
	cmd.Flags().String("bucket-region", "", "S3 bucket region (required when --output=s3)")
	cmd.Flags().Duration("task-timeout", d.TaskTimeout, "Upper bound for one account/region batch")
	cmd.Flags().String("catalog-url", d.CatalogBaseURL, "Base URL of the RDS bulk price lists")
	cmd.Flags().Duration("catalog-timeout", d.CatalogTimeout, "Download timeout for one regional price list")
	cmd.Flags().String("catalog-cache", d.CatalogCacheFile, "File that caches parsed price lists")
	cmd.Flags().Duration("catalog-cache-ttl", d.CatalogCacheTTL, "Refetch cached price lists older than this (0 disables expiry)")

	return cmd
}

// resolveTargets loads the input list, or falls back to the caller's own
// account in the default region
func resolveTargets(ctx context.Context, sess *session.Session, opts estimateOptions) ([]awsinternal.Target, error) {
	if opts.inputList != "" {
		targets, err := awsinternal.LoadTargets(opts.inputList, opts.region)
		if err != nil {
			return nil, err
		}
		if len(targets) == 0 {
			return nil, fmt.Errorf("input list %s has no accounts", opts.inputList)
		}
		return targets, nil
	}

	accountID, err := awsinternal.CurrentAccountID(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("failed to determine current account: %w", err)
	}
	return []awsinternal.Target{{Account: accountID, Region: opts.region}}, nil
}

func newWriter(sess *session.Session, opts estimateOptions, plan *estimatePlan) (*output.Writer, error) {
	cfg := output.Config{
		Type:       plan.output,
		OutputDir:  opts.outputDir,
		OutputFile: opts.outputFile,
		S3Bucket:   opts.bucket,
		S3Region:   opts.bucketRegion,
	}
	if plan.output == output.S3 {
		s3Session, err := awsinternal.GetSessionInRegion(sess, opts.bucketRegion)
		if err != nil {
			return nil, err
		}
		cfg.Session = s3Session
	}
	return output.NewWriter(cfg)
}

func runEstimate(cmd *cobra.Command, opts estimateOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	plan, err := opts.plan(time.Now())
	if err != nil {
		return err
	}

	cfg := config.Load()

	baseSession, err := awsinternal.NewSession(cfg.Profile, opts.region)
	if err != nil {
		return err
	}

	targets, err := resolveTargets(ctx, baseSession, opts)
	if err != nil {
		return err
	}

	if err := awsinternal.ValidateRegions(ctx, ec2.New(baseSession), targets); err != nil {
		if errors.Is(err, awsinternal.ErrUnknownRegion) {
			return err
		}
		logging.Warn("Could not verify target regions", map[string]interface{}{
			"error": err.Error(),
		})
	}

	cache, err := catalog.NewCache(cfg.CatalogCacheFile, cfg.CatalogCacheTTL)
	if err != nil {
		return err
	}

	writer, err := newWriter(baseSession, opts, plan)
	if err != nil {
		return err
	}

	runner := &batchRunner{
		base:      baseSession,
		window:    plan.window,
		prices:    catalog.NewStore(catalog.NewFetcher(cfg.CatalogBaseURL, cfg.CatalogTimeout), cache),
		estimator: pricing.NewCostEstimator(plan.discount),
		sink:      writer,
		clients:   targetClients,
	}

	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.String()
	}
	logging.EstimateStart(uuid.New().String(), names, plan.window.String())

	summary, failed, err := runner.runAll(ctx, targets, cfg.MaxWorkers, cfg.TaskTimeout)
	if err != nil {
		return err
	}

	if err := writer.Close(ctx); err != nil {
		logging.Error("Failed to upload output file", err, map[string]interface{}{
			"output_file": opts.outputFile,
			"bucket":      opts.bucket,
		})
	}

	logging.EstimateComplete(len(targets), failed, summary.Included, summary.Excluded)
	printSummary(cmd.OutOrStdout(), summary, len(targets), failed)
	return nil
}

// printSummary writes the fleet totals
func printSummary(w io.Writer, s pricing.FleetSummary, batches, failed int) {
	bold := color.New(color.Bold)
	bold.Fprintln(w, "\nio1 to gp3 storage estimate")

	fmt.Fprintf(w, "  Batches:              %d (%d skipped)\n", batches, failed)
	fmt.Fprintf(w, "  Instances included:   %d (%d excluded)\n", s.Included, s.Excluded)
	fmt.Fprintf(w, "  Current monthly cost: $%s\n", s.CurrentTotal.StringFixed(2))
	fmt.Fprintf(w, "  gp3 monthly cost:     $%s\n", s.ProjectedTotal.StringFixed(2))

	change := color.GreenString("%s %s", s.Percent(), s.Direction())
	switch {
	case s.PercentChange == nil:
		change = color.YellowString("%s", s.Percent())
	case s.Savings.IsNegative():
		change = color.RedString("%s %s", s.Percent(), s.Direction())
	}
	fmt.Fprintf(w, "  Monthly savings:      $%s (%s)\n", s.Savings.StringFixed(2), change)

	if failed > 0 {
		fmt.Fprintln(w, color.YellowString("  %d batch(es) were skipped, see the log for details", failed))
	}
}
