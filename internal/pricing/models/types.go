package models

import (
	"github.com/shopspring/decimal"
)

const (
	// VolumeTypeIO1 is the provisioned-IOPS storage type being migrated away from
	VolumeTypeIO1 = "io1"
	// VolumeTypeGP3 is the general purpose storage type the migration targets
	VolumeTypeGP3 = "gp3"
)

// Reason names why a derived value is absent
type Reason string

const (
	ReasonNone                     Reason = ""
	ReasonNotIO1                   Reason = "volume-not-io1"
	ReasonUnknownMultiAZ           Reason = "multi-az-unknown"
	ReasonMissingIOPS              Reason = "iops-missing"
	ReasonPriceNotFound            Reason = "price-not-found"
	ReasonUndeterminedProvisioning Reason = "gp3-undetermined"
	ReasonMetricUnavailable        Reason = "metric-unavailable"
)

// InstanceConfig holds the storage configuration of a single RDS instance
type InstanceConfig struct {
	AccountID     string
	Identifier    string
	Region        string
	InstanceClass string
	DBName        *string
	Engine        string
	MultiAZ       *bool // nil when the API did not report it
	VolumeType    string
	StorageGB     int64
	Throughput    *int64 // MB/s
	IOPS          *int64
}

// IsIO1 reports whether the instance uses the storage type the estimate applies to
func (c InstanceConfig) IsIO1() bool {
	return c.VolumeType == VolumeTypeIO1
}

// ProjectedConfig is the gp3 equivalent of an io1 configuration
type ProjectedConfig struct {
	IOPS       int64
	Throughput int64
	Reason     Reason
}

// Determined reports whether both IOPS and throughput are known
func (p ProjectedConfig) Determined() bool {
	return p.Reason == ReasonNone
}

// Undetermined returns a ProjectedConfig with no usable values
func Undetermined() ProjectedConfig {
	return ProjectedConfig{Reason: ReasonUndeterminedProvisioning}
}

// Cost is a monthly dollar amount or the reason it could not be computed.
// The zero value is a determined cost of $0.
type Cost struct {
	Value  decimal.Decimal
	Reason Reason
}

// Amount returns a determined cost
func Amount(v decimal.Decimal) Cost {
	return Cost{Value: v}
}

// NotApplicable returns a cost that is absent for the given reason
func NotApplicable(reason Reason) Cost {
	return Cost{Reason: reason}
}

// Determined reports whether the cost carries a value
func (c Cost) Determined() bool {
	return c.Reason == ReasonNone
}

// CostResult holds the current io1 and projected gp3 monthly storage cost
type CostResult struct {
	Current   Cost
	Projected Cost
}

// Measurement is a CloudWatch value. Zero is a valid value and is
// distinct from an undetermined measurement.
type Measurement struct {
	Value     float64
	Available bool
}

// Measured returns an available measurement
func Measured(v float64) Measurement {
	return Measurement{Value: v, Available: true}
}

// Usage holds the observed storage utilization reported alongside costs
type Usage struct {
	FreeStorageGB   Measurement
	WriteIOPS       Measurement
	ReadIOPS        Measurement
	WriteThroughput Measurement
	ReadThroughput  Measurement
}

// InstanceRecord is an instance with all derived fields attached
type InstanceRecord struct {
	Config    InstanceConfig
	Usage     Usage
	Projected ProjectedConfig
	Costs     CostResult
}

// Notes returns the distinct absence reasons of the record's derived fields
func (r InstanceRecord) Notes() []Reason {
	seen := make(map[Reason]bool)
	var notes []Reason
	for _, reason := range []Reason{r.Costs.Current.Reason, r.Costs.Projected.Reason} {
		if reason == ReasonNone || seen[reason] {
			continue
		}
		seen[reason] = true
		notes = append(notes, reason)
	}
	return notes
}
