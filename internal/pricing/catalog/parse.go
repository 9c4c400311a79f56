package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"gp3sift/internal/logging"
)

// MetadataLines is the number of lines preceding the header row in the
// bulk price list CSV (format version, disclaimer, publication date, version, offer code)
const MetadataLines = 5

const (
	colUsageType    = "usageType"
	colPricePerUnit = "PricePerUnit"
	colUnit         = "Unit"
	colTermType     = "TermType"

	termOnDemand = "OnDemand"
)

// normalizeColumn removes all whitespace from a header cell
func normalizeColumn(name string) string {
	return strings.Join(strings.Fields(name), "")
}

// Parse reads a regional bulk price list CSV. Only on-demand rows that a
// modeled label can select are retained.
func Parse(region string, r io.Reader) (*PriceCatalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	for i := 0; i < MetadataLines; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("failed to skip price list metadata line %d: %w", i+1, err)
		}
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read price list header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[normalizeColumn(name)] = i
	}

	usageIdx, ok := columns[colUsageType]
	if !ok {
		return nil, fmt.Errorf("price list header has no %s column", colUsageType)
	}
	priceIdx, ok := columns[colPricePerUnit]
	if !ok {
		return nil, fmt.Errorf("price list header has no %s column", colPricePerUnit)
	}
	unitIdx, hasUnit := columns[colUnit]
	termIdx, hasTerm := columns[colTermType]

	var rows []Row
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read price list row: %w", err)
		}
		if usageIdx >= len(record) || priceIdx >= len(record) {
			skipped++
			continue
		}

		usageType := record[usageIdx]
		if !relevant(usageType) {
			continue
		}
		if hasTerm && termIdx < len(record) && record[termIdx] != termOnDemand {
			continue
		}

		price, err := decimal.NewFromString(strings.TrimSpace(record[priceIdx]))
		if err != nil {
			skipped++
			continue
		}

		row := Row{
			UsageType:    usageType,
			PricePerUnit: price,
		}
		if hasUnit && unitIdx < len(record) {
			row.Unit = record[unitIdx]
		}
		if hasTerm && termIdx < len(record) {
			row.TermType = record[termIdx]
		}
		rows = append(rows, row)
	}

	if skipped > 0 {
		logging.Debug("Skipped malformed price list rows", map[string]interface{}{
			"region":  region,
			"skipped": skipped,
		})
	}

	return New(region, rows), nil
}
