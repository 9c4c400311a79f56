package calculators

import (
	"strings"

	"gp3sift/internal/pricing/models"
)

const (
	// BaselineIOPS is bundled into the gp3 storage price
	BaselineIOPS int64 = 3000
	// BaselineThroughput (MB/s) is bundled into the gp3 storage price
	BaselineThroughput int64 = 125

	// HighTierIOPS and HighTierThroughput are the minimums above the size threshold
	HighTierIOPS       int64 = 12000
	HighTierThroughput int64 = 500

	// MaxIOPS is the highest IOPS a gp3 volume can be provisioned with
	MaxIOPS int64 = 64000
)

// ProvisioningInput is the part of an instance configuration the policy reads
type ProvisioningInput struct {
	Engine     string
	StorageGB  int64
	IOPS       *int64
	Throughput *int64
}

// InputFor extracts the provisioning input of an instance
func InputFor(cfg models.InstanceConfig) ProvisioningInput {
	return ProvisioningInput{
		Engine:     cfg.Engine,
		StorageGB:  cfg.StorageGB,
		IOPS:       cfg.IOPS,
		Throughput: cfg.Throughput,
	}
}

type provisioningRule struct {
	name  string
	match func(in ProvisioningInput, iops int64) bool
	apply func(in ProvisioningInput, iops int64) models.ProjectedConfig
}

func isOpenSourceEngine(engine string) bool {
	switch engine {
	case "postgres", "mysql", "mariadb":
		return true
	}
	return false
}

func isSQLServer(engine string) bool { return strings.Contains(engine, "sqlserver") }

func isOracle(engine string) bool { return strings.Contains(engine, "oracle") }

func fixed(iops, throughput int64) func(ProvisioningInput, int64) models.ProjectedConfig {
	return func(ProvisioningInput, int64) models.ProjectedConfig {
		return models.ProjectedConfig{IOPS: iops, Throughput: throughput}
	}
}

// passThrough keeps the instance's IOPS and throughput
func passThrough(in ProvisioningInput, iops int64) models.ProjectedConfig {
	if in.Throughput == nil {
		return models.Undetermined()
	}
	return models.ProjectedConfig{IOPS: iops, Throughput: *in.Throughput}
}

// passThroughFloored keeps the instance's IOPS and raises throughput to the
// baseline. An unreported throughput gets the baseline.
func passThroughFloored(in ProvisioningInput, iops int64) models.ProjectedConfig {
	throughput := BaselineThroughput
	if in.Throughput != nil && *in.Throughput > throughput {
		throughput = *in.Throughput
	}
	return models.ProjectedConfig{IOPS: iops, Throughput: throughput}
}

func undetermined(ProvisioningInput, int64) models.ProjectedConfig {
	return models.Undetermined()
}

// provisioningRules is evaluated in order; the first match wins
var provisioningRules = []provisioningRule{
	// postgres, mysql, mariadb
	{
		name:  "open-source/small/baseline",
		match: func(in ProvisioningInput, iops int64) bool { return isOpenSourceEngine(in.Engine) && in.StorageGB < 400 && iops < BaselineIOPS },
		apply: fixed(BaselineIOPS, BaselineThroughput),
	},
	{
		name:  "open-source/small/pass-through",
		match: func(in ProvisioningInput, iops int64) bool { return isOpenSourceEngine(in.Engine) && in.StorageGB < 400 },
		apply: passThroughFloored,
	},
	{
		name:  "open-source/large/high-tier",
		match: func(in ProvisioningInput, iops int64) bool { return isOpenSourceEngine(in.Engine) && iops <= HighTierIOPS },
		apply: fixed(HighTierIOPS, HighTierThroughput),
	},
	{
		name:  "open-source/large/pass-through",
		match: func(in ProvisioningInput, iops int64) bool { return isOpenSourceEngine(in.Engine) && iops <= MaxIOPS },
		apply: passThrough,
	},
	{
		name:  "open-source/large/over-max",
		match: func(in ProvisioningInput, iops int64) bool { return isOpenSourceEngine(in.Engine) },
		apply: undetermined,
	},

	// sqlserver
	{
		name:  "sqlserver/baseline",
		match: func(in ProvisioningInput, iops int64) bool { return isSQLServer(in.Engine) && iops < BaselineIOPS },
		apply: fixed(BaselineIOPS, BaselineThroughput),
	},
	{
		name:  "sqlserver/pass-through",
		match: func(in ProvisioningInput, iops int64) bool { return isSQLServer(in.Engine) },
		apply: passThrough,
	},

	// oracle
	{
		name:  "oracle/small/baseline",
		match: func(in ProvisioningInput, iops int64) bool { return isOracle(in.Engine) && in.StorageGB < 200 && iops < BaselineIOPS },
		apply: fixed(BaselineIOPS, BaselineThroughput),
	},
	{
		name:  "oracle/small/pass-through",
		match: func(in ProvisioningInput, iops int64) bool { return isOracle(in.Engine) && in.StorageGB < 200 },
		apply: passThrough,
	},
	{
		name:  "oracle/large/high-tier",
		match: func(in ProvisioningInput, iops int64) bool { return isOracle(in.Engine) && iops < HighTierIOPS },
		apply: fixed(HighTierIOPS, HighTierThroughput),
	},
	{
		name:  "oracle/large/at-high-tier",
		match: func(in ProvisioningInput, iops int64) bool { return isOracle(in.Engine) && iops == HighTierIOPS },
		apply: undetermined,
	},
	{
		name:  "oracle/large/pass-through",
		match: func(in ProvisioningInput, iops int64) bool { return isOracle(in.Engine) && iops <= MaxIOPS },
		apply: passThrough,
	},
	{
		name:  "oracle/large/over-max",
		match: func(in ProvisioningInput, iops int64) bool { return isOracle(in.Engine) },
		apply: undetermined,
	},
}

// Provision maps an io1 configuration to its gp3 equivalent. Unknown
// engines, missing IOPS, and IOPS above the gp3 ceiling are undetermined.
func Provision(in ProvisioningInput) models.ProjectedConfig {
	projected, _ := provision(in)
	return projected
}

// provision also returns the name of the rule that matched
func provision(in ProvisioningInput) (models.ProjectedConfig, string) {
	if in.IOPS == nil {
		return models.ProjectedConfig{Reason: models.ReasonMissingIOPS}, ""
	}
	iops := *in.IOPS
	for _, rule := range provisioningRules {
		if rule.match(in, iops) {
			return rule.apply(in, iops), rule.name
		}
	}
	return models.Undetermined(), ""
}
