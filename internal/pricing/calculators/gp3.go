package calculators

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"gp3sift/internal/pricing/catalog"
	"gp3sift/internal/pricing/models"
)

// GP3Calculator prices the gp3 equivalent of an io1 instance
type GP3Calculator struct {
	BaseCalculator
}

func int64String(v *int64) string {
	if v == nil {
		return "unknown"
	}
	return strconv.FormatInt(*v, 10)
}

// excess returns the part of value above the bundled baseline
func excess(value, baseline int64) decimal.Decimal {
	if value <= baseline {
		return decimal.Zero
	}
	return decimal.NewFromInt(value - baseline)
}

// CalculateCost returns the monthly gp3 cost of the provisioned equivalent.
// The baseline IOPS and throughput are included in the storage price, so
// only the excess is billed.
func (gc *GP3Calculator) CalculateCost(cfg models.InstanceConfig, projected models.ProjectedConfig, prices PriceSource, discount *decimal.Decimal) (models.Cost, error) {
	dep, reason := gc.deployment(cfg)
	if reason != models.ReasonNone {
		return models.NotApplicable(reason), nil
	}
	if !projected.Determined() {
		if projected.Reason == models.ReasonUndeterminedProvisioning {
			return models.NotApplicable(projected.Reason), fmt.Errorf("%w: engine %s, %d GB, %s IOPS",
				models.ErrUndeterminedProvisioning, cfg.Engine, cfg.StorageGB, int64String(cfg.IOPS))
		}
		return models.NotApplicable(projected.Reason), nil
	}

	gbPrice, err := prices.Price(catalog.StorageGB, dep, catalog.GP3)
	if err != nil {
		return models.NotApplicable(models.ReasonPriceNotFound), fmt.Errorf("gp3 storage price: %w", err)
	}
	iopsPrice, err := prices.Price(catalog.ProvisionedIOPS, dep, catalog.GP3)
	if err != nil {
		return models.NotApplicable(models.ReasonPriceNotFound), fmt.Errorf("gp3 IOPS price: %w", err)
	}
	throughputPrice, err := prices.Price(catalog.ProvisionedThroughput, dep, catalog.GP3)
	if err != nil {
		return models.NotApplicable(models.ReasonPriceNotFound), fmt.Errorf("gp3 throughput price: %w", err)
	}

	raw := decimal.NewFromInt(cfg.StorageGB).Mul(gbPrice).
		Add(excess(projected.IOPS, BaselineIOPS).Mul(iopsPrice)).
		Add(excess(projected.Throughput, BaselineThroughput).Mul(throughputPrice))

	return models.Amount(gc.ApplyDiscount(raw, discount)), nil
}
