package calculators

import (
	"github.com/shopspring/decimal"

	"gp3sift/internal/pricing/catalog"
	"gp3sift/internal/pricing/models"
)

// PriceSource resolves the unit price of a billing dimension
type PriceSource interface {
	Price(dim catalog.Dimension, dep catalog.Deployment, fam catalog.VolumeFamily) (decimal.Decimal, error)
}

// BaseCalculator provides common functionality for the storage cost calculators
type BaseCalculator struct{}

// ApplyDiscount returns raw unchanged when discount is nil. Otherwise the
// discounted amount is rounded up to the cent so an estimate never
// understates the bill.
func (bc *BaseCalculator) ApplyDiscount(raw decimal.Decimal, discount *decimal.Decimal) decimal.Decimal {
	if discount == nil {
		return raw
	}
	return raw.Mul(decimal.NewFromInt(1).Sub(*discount)).RoundCeil(2)
}

// deployment checks the preconditions shared by both cost formulas
func (bc *BaseCalculator) deployment(cfg models.InstanceConfig) (catalog.Deployment, models.Reason) {
	if !cfg.IsIO1() {
		return catalog.SingleAZ, models.ReasonNotIO1
	}
	if cfg.MultiAZ == nil {
		return catalog.SingleAZ, models.ReasonUnknownMultiAZ
	}
	if cfg.IOPS == nil {
		return catalog.SingleAZ, models.ReasonMissingIOPS
	}
	return catalog.DeploymentFor(*cfg.MultiAZ), models.ReasonNone
}
