package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"gp3sift/internal/pricing/models"
)

// Missing is written for every value that could not be determined
const Missing = "NaN"

// Header is the column layout of every result file
var Header = []string{
	"instance",
	"region",
	"instance_type",
	"db",
	"engine",
	"multi_az",
	"storage_type",
	"storage_size",
	"storage_throughput",
	"storage_iops",
	"cw_storage_free",
	"cw_storage_write_iops",
	"cw_storage_read_iops",
	"cw_storage_write_throughput",
	"cw_storage_read_throughput",
	"gp3_iops",
	"gp3_throughput",
	"current_monthly_storage_cost",
	"gp3_monthly_storage_cost",
	"note",
}

// Row renders a record in Header order
func Row(r models.InstanceRecord) []string {
	cfg := r.Config

	db := Missing
	if cfg.DBName != nil {
		db = *cfg.DBName
	}

	multiAZ := Missing
	if cfg.MultiAZ != nil {
		multiAZ = strconv.FormatBool(*cfg.MultiAZ)
	}

	gp3IOPS, gp3Throughput := Missing, Missing
	if cfg.IsIO1() && r.Projected.Determined() {
		gp3IOPS = strconv.FormatInt(r.Projected.IOPS, 10)
		gp3Throughput = strconv.FormatInt(r.Projected.Throughput, 10)
	}

	return []string{
		cfg.Identifier,
		cfg.Region,
		cfg.InstanceClass,
		db,
		cfg.Engine,
		multiAZ,
		cfg.VolumeType,
		strconv.FormatInt(cfg.StorageGB, 10),
		formatOptional(cfg.Throughput),
		formatOptional(cfg.IOPS),
		formatMeasurement(r.Usage.FreeStorageGB),
		formatMeasurement(r.Usage.WriteIOPS),
		formatMeasurement(r.Usage.ReadIOPS),
		formatMeasurement(r.Usage.WriteThroughput),
		formatMeasurement(r.Usage.ReadThroughput),
		gp3IOPS,
		gp3Throughput,
		formatCost(r.Costs.Current),
		formatCost(r.Costs.Projected),
		formatNotes(notes(r)),
	}
}

func formatOptional(v *int64) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatInt(*v, 10)
}

func formatMeasurement(m models.Measurement) string {
	if !m.Available {
		return Missing
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

func formatCost(c models.Cost) string {
	if !c.Determined() {
		return Missing
	}
	return c.Value.StringFixed(2)
}

// notes extends the record's cost reasons with a marker for missing metrics
func notes(r models.InstanceRecord) []models.Reason {
	reasons := r.Notes()
	u := r.Usage
	for _, m := range []models.Measurement{u.FreeStorageGB, u.WriteIOPS, u.ReadIOPS, u.WriteThroughput, u.ReadThroughput} {
		if !m.Available {
			return append(reasons, models.ReasonMetricUnavailable)
		}
	}
	return reasons
}

func formatNotes(notes []models.Reason) string {
	parts := make([]string, len(notes))
	for i, n := range notes {
		parts[i] = string(n)
	}
	return strings.Join(parts, ";")
}

// Encode renders records as CSV. The header is included when withHeader is set.
func Encode(records []models.InstanceRecord, withHeader bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if withHeader {
		if err := w.Write(Header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, r := range records {
		if err := w.Write(Row(r)); err != nil {
			return nil, fmt.Errorf("failed to write row for %s: %w", r.Config.Identifier, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
