package calculators

import (
	"fmt"

	"github.com/shopspring/decimal"

	"gp3sift/internal/pricing/catalog"
	"gp3sift/internal/pricing/models"
)

// IO1Calculator prices an instance's current io1 storage
type IO1Calculator struct {
	BaseCalculator
}

// CalculateCost returns the monthly cost of the instance's io1 storage:
// size × GB price + IOPS × IOPS price. The returned error describes a
// failed price lookup and is set only together with a not-applicable cost.
func (ic *IO1Calculator) CalculateCost(cfg models.InstanceConfig, prices PriceSource, discount *decimal.Decimal) (models.Cost, error) {
	dep, reason := ic.deployment(cfg)
	if reason != models.ReasonNone {
		return models.NotApplicable(reason), nil
	}

	gbPrice, err := prices.Price(catalog.StorageGB, dep, catalog.IO1)
	if err != nil {
		return models.NotApplicable(models.ReasonPriceNotFound), fmt.Errorf("io1 storage price: %w", err)
	}
	iopsPrice, err := prices.Price(catalog.ProvisionedIOPS, dep, catalog.IO1)
	if err != nil {
		return models.NotApplicable(models.ReasonPriceNotFound), fmt.Errorf("io1 IOPS price: %w", err)
	}

	raw := decimal.NewFromInt(cfg.StorageGB).Mul(gbPrice).
		Add(decimal.NewFromInt(*cfg.IOPS).Mul(iopsPrice))

	return models.Amount(ic.ApplyDiscount(raw, discount)), nil
}
