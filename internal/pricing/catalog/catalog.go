package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"gp3sift/internal/pricing/models"
)

// Row is one billing dimension of the RDS price list
type Row struct {
	UsageType    string          `json:"usage_type"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	Unit         string          `json:"unit,omitempty"`
	TermType     string          `json:"term_type,omitempty"`
}

// PriceCatalog is the RDS price list of a single region. It is never
// modified after load and is shared by every instance in the region.
type PriceCatalog struct {
	Region string `json:"region"`
	Rows   []Row  `json:"rows"`
}

// New creates a catalog from already parsed rows
func New(region string, rows []Row) *PriceCatalog {
	return &PriceCatalog{Region: region, Rows: rows}
}

// Lookup returns the unit price of the row whose usage type contains substr.
// When several rows match, a row ending with substr is preferred over the
// first match so that ":PIOPS" does not resolve to a ":PIOPS-Storage" row.
func (c *PriceCatalog) Lookup(substr string) (decimal.Decimal, error) {
	first := -1
	for i, row := range c.Rows {
		if !strings.Contains(row.UsageType, substr) {
			continue
		}
		if strings.HasSuffix(row.UsageType, substr) {
			return row.PricePerUnit, nil
		}
		if first < 0 {
			first = i
		}
	}
	if first < 0 {
		return decimal.Zero, fmt.Errorf("%w: no usage type matching %q in %s catalog", models.ErrPriceNotFound, substr, c.Region)
	}
	return c.Rows[first].PricePerUnit, nil
}

// Price resolves a typed billing dimension to its unit price
func (c *PriceCatalog) Price(dim Dimension, dep Deployment, fam VolumeFamily) (decimal.Decimal, error) {
	label, err := Label(dim, dep, fam)
	if err != nil {
		return decimal.Zero, err
	}
	return c.Lookup(label)
}

// Len returns the number of rows in the catalog
func (c *PriceCatalog) Len() int {
	return len(c.Rows)
}
