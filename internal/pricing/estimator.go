package pricing

import (
	"github.com/shopspring/decimal"

	"gp3sift/internal/logging"
	"gp3sift/internal/pricing/calculators"
	"gp3sift/internal/pricing/models"
)

// CostEstimator attaches projected gp3 provisioning and current/projected
// storage costs to instance records
type CostEstimator struct {
	io1      *calculators.IO1Calculator
	gp3      *calculators.GP3Calculator
	discount *decimal.Decimal
}

// NewCostEstimator creates an estimator. discount is a fraction in [0, 1)
// taken off public prices; nil means list prices, unrounded.
func NewCostEstimator(discount *decimal.Decimal) *CostEstimator {
	return &CostEstimator{
		io1:      &calculators.IO1Calculator{},
		gp3:      &calculators.GP3Calculator{},
		discount: discount,
	}
}

// Discount returns the configured discount, or nil
func (ce *CostEstimator) Discount() *decimal.Decimal {
	return ce.discount
}

// Estimate fills in the projected configuration and costs of a record.
// Price lookup failures are logged and leave the affected cost not applicable.
func (ce *CostEstimator) Estimate(record models.InstanceRecord, prices calculators.PriceSource) models.InstanceRecord {
	cfg := record.Config

	if cfg.IsIO1() {
		record.Projected = calculators.Provision(calculators.InputFor(cfg))
	} else {
		record.Projected = models.ProjectedConfig{Reason: models.ReasonNotIO1}
	}

	current, err := ce.io1.CalculateCost(cfg, prices, ce.discount)
	if err != nil {
		logFailure("current", cfg, err)
	}
	projected, err := ce.gp3.CalculateCost(cfg, record.Projected, prices, ce.discount)
	if err != nil {
		logFailure("projected", cfg, err)
	}

	record.Costs = models.CostResult{Current: current, Projected: projected}

	logging.Debug("Estimated storage cost", map[string]interface{}{
		"instance":  cfg.Identifier,
		"engine":    cfg.Engine,
		"size_gb":   cfg.StorageGB,
		"gp3_iops":  record.Projected.IOPS,
		"gp3_tput":  record.Projected.Throughput,
		"current":   costString(current),
		"projected": costString(projected),
	})

	return record
}

// EstimateAll estimates every record of a batch against the same catalog
func (ce *CostEstimator) EstimateAll(records []models.InstanceRecord, prices calculators.PriceSource) []models.InstanceRecord {
	out := make([]models.InstanceRecord, 0, len(records))
	for _, record := range records {
		out = append(out, ce.Estimate(record, prices))
	}
	return out
}

func logFailure(which string, cfg models.InstanceConfig, err error) {
	logging.Warn("Cost calculation failed", map[string]interface{}{
		"cost":       which,
		"account_id": cfg.AccountID,
		"region":     cfg.Region,
		"instance":   cfg.Identifier,
		"error":      err.Error(),
	})
}

func costString(c models.Cost) string {
	if !c.Determined() {
		return string(c.Reason)
	}
	return c.Value.String()
}
