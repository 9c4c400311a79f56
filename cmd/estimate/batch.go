package estimate

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/shopspring/decimal"

	awsinternal "gp3sift/internal/aws"
	"gp3sift/internal/aws/utils"
	"gp3sift/internal/logging"
	"gp3sift/internal/metrics"
	"gp3sift/internal/pricing"
	"gp3sift/internal/pricing/catalog"
	"gp3sift/internal/pricing/models"
	"gp3sift/internal/worker"
)

// priceLoader returns the catalog of a region
type priceLoader interface {
	Load(ctx context.Context, region string) (*catalog.PriceCatalog, error)
}

// resultSink stores the records of one batch
type resultSink interface {
	Write(ctx context.Context, accountID, region string, records []models.InstanceRecord) (string, error)
}

// clientFactory returns the RDS and CloudWatch clients for a target
type clientFactory func(ctx context.Context, base *session.Session, target awsinternal.Target) (*utils.ServiceClients, error)

// targetClients assumes the target's role, if any, and creates regional clients
func targetClients(ctx context.Context, base *session.Session, target awsinternal.Target) (*utils.ServiceClients, error) {
	sess, err := awsinternal.AssumeRoleARN(ctx, base, target.RoleARN)
	if err != nil {
		return nil, err
	}

	regionSession, err := awsinternal.GetSessionInRegion(sess, target.Region)
	if err != nil {
		return nil, err
	}
	return utils.CreateServiceClients(regionSession), nil
}

// batchRunner processes account/region batches
type batchRunner struct {
	base      *session.Session
	window    metrics.Window
	prices    priceLoader
	estimator *pricing.CostEstimator
	sink      resultSink
	clients   clientFactory
}

// run estimates one account/region. Any upstream failure skips the whole
// batch and nothing is written for it.
func (b *batchRunner) run(ctx context.Context, target awsinternal.Target) (pricing.FleetSummary, error) {
	logging.BatchStart(target.Account, target.Region)

	clients, err := b.clients(ctx, b.base, target)
	if err != nil {
		logging.BatchError(target.Account, target.Region, "assume_role", err)
		return pricing.FleetSummary{}, err
	}

	configs, err := awsinternal.ListInstances(ctx, clients.RDS, target.Account, target.Region)
	if err != nil {
		logging.BatchError(target.Account, target.Region, "list_instances", err)
		return pricing.FleetSummary{}, err
	}
	if len(configs) == 0 {
		logging.Info("No RDS instances found", map[string]interface{}{
			"account_id": target.Account,
			"region":     target.Region,
		})
		return pricing.FleetSummary{}, nil
	}

	fetcher := awsinternal.NewMetricsFetcher(clients.CloudWatch, b.window)
	records := make([]models.InstanceRecord, len(configs))
	for i, cfg := range configs {
		records[i] = models.InstanceRecord{
			Config: cfg,
			Usage:  fetcher.Usage(ctx, cfg.Identifier),
		}
	}
	if err := ctx.Err(); err != nil {
		logging.BatchError(target.Account, target.Region, "fetch_metrics", err)
		return pricing.FleetSummary{}, err
	}

	prices, err := b.prices.Load(ctx, target.Region)
	if err != nil {
		logging.BatchError(target.Account, target.Region, "load_catalog", err)
		return pricing.FleetSummary{}, err
	}

	records = b.estimator.EstimateAll(records, prices)

	path, err := b.sink.Write(ctx, target.Account, target.Region, records)
	if err != nil {
		logging.BatchError(target.Account, target.Region, "write_output", err)
		return pricing.FleetSummary{}, err
	}

	summary := pricing.Summarize(records)
	logging.BatchComplete(target.Account, target.Region, len(records))
	logging.Debug("Batch results written", map[string]interface{}{
		"account_id": target.Account,
		"region":     target.Region,
		"path":       path,
		"included":   summary.Included,
		"excluded":   summary.Excluded,
	})

	return summary, nil
}

// runAll processes every target on a worker pool and merges the summaries
// of the batches that succeeded
func (b *batchRunner) runAll(ctx context.Context, targets []awsinternal.Target, maxWorkers int, taskTimeout time.Duration) (pricing.FleetSummary, int, error) {
	total := pricing.FleetSummary{CurrentTotal: decimal.Zero, ProjectedTotal: decimal.Zero, Savings: decimal.Zero}

	pool, err := worker.NewPool(maxWorkers, taskTimeout)
	if err != nil {
		return total, 0, err
	}

	summaries := make([]pricing.FleetSummary, len(targets))
	tasks := make([]worker.Task, len(targets))
	for i, target := range targets {
		tasks[i] = func(ctx context.Context) error {
			summary, err := b.run(ctx, target)
			summaries[i] = summary
			return err
		}
	}

	errs := pool.ExecuteTasks(ctx, tasks)

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			continue
		}
		total = total.Merge(summaries[i])
	}

	m := pool.GetMetrics()
	logging.Debug("Worker pool metrics", map[string]interface{}{
		"completed":      m.CompletedTasks,
		"failed":         m.FailedTasks,
		"timed_out":      m.TimedOutTasks,
		"peak_workers":   m.PeakWorkers,
		"avg_batch_ms":   m.AverageExecutionMs,
		"total_batch_ms": m.TotalExecutionMs,
	})

	return total, failed, nil
}
