package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gp3sift/internal/pricing/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleCatalog() *PriceCatalog {
	return New("us-east-1", []Row{
		{UsageType: "RDS:PIOPS-Storage", PricePerUnit: dec("0.125")},
		{UsageType: "RDS:PIOPS", PricePerUnit: dec("0.10")},
		{UsageType: "RDS:Multi-AZ-PIOPS-Storage", PricePerUnit: dec("0.25")},
		{UsageType: "RDS:Multi-AZ-PIOPS", PricePerUnit: dec("0.20")},
		{UsageType: "RDS:GP3-Storage", PricePerUnit: dec("0.115")},
		{UsageType: "RDS:GP3-PIOPS", PricePerUnit: dec("0.02")},
		{UsageType: "RDS:GP3-Throughput", PricePerUnit: dec("0.08")},
		{UsageType: "RDS:Multi-AZ-GP3-Storage", PricePerUnit: dec("0.23")},
		{UsageType: "RDS:Multi-AZ-GP3-PIOPS", PricePerUnit: dec("0.04")},
		{UsageType: "RDS:Multi-AZ-GP3-Throughput", PricePerUnit: dec("0.16")},
	})
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		rows     []Row
		substr   string
		expected string
		wantErr  bool
	}{
		{
			name:     "substring match",
			rows:     []Row{{UsageType: "USE1-RDS:GP3-Storage", PricePerUnit: dec("0.115")}},
			substr:   ":GP3-Storage",
			expected: "0.115",
		},
		{
			name: "first match wins without a suffix match",
			rows: []Row{
				{UsageType: "RDS:GP3-Storage-A", PricePerUnit: dec("1")},
				{UsageType: "RDS:GP3-Storage-B", PricePerUnit: dec("2")},
			},
			substr:   ":GP3-Storage",
			expected: "1",
		},
		{
			name: "suffix match preferred over an earlier containing row",
			rows: []Row{
				{UsageType: "RDS:PIOPS-Storage", PricePerUnit: dec("0.125")},
				{UsageType: "RDS:PIOPS", PricePerUnit: dec("0.10")},
			},
			substr:   ":PIOPS",
			expected: "0.10",
		},
		{
			name:     "missing IOPS row falls back to the storage row",
			rows:     []Row{{UsageType: "RDS:PIOPS-Storage", PricePerUnit: dec("0.125")}},
			substr:   ":PIOPS",
			expected: "0.125",
		},
		{
			name:    "no match",
			rows:    []Row{{UsageType: "RDS:GP2-Storage", PricePerUnit: dec("0.115")}},
			substr:  ":PIOPS",
			wantErr: true,
		},
		{
			name:    "empty catalog",
			substr:  ":PIOPS",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New("us-east-1", tt.rows).Lookup(tt.substr)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrPriceNotFound)
				assert.Contains(t, err.Error(), tt.substr)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tt.expected).Equal(got), "got %s", got)
		})
	}
}

func TestPrice(t *testing.T) {
	cat := sampleCatalog()

	tests := []struct {
		dim      Dimension
		dep      Deployment
		fam      VolumeFamily
		expected string
	}{
		{StorageGB, SingleAZ, IO1, "0.125"},
		{ProvisionedIOPS, SingleAZ, IO1, "0.10"},
		{StorageGB, MultiAZ, IO1, "0.25"},
		{ProvisionedIOPS, MultiAZ, IO1, "0.20"},
		{StorageGB, SingleAZ, GP3, "0.115"},
		{ProvisionedIOPS, SingleAZ, GP3, "0.02"},
		{ProvisionedThroughput, SingleAZ, GP3, "0.08"},
		{StorageGB, MultiAZ, GP3, "0.23"},
		{ProvisionedIOPS, MultiAZ, GP3, "0.04"},
		{ProvisionedThroughput, MultiAZ, GP3, "0.16"},
	}

	for _, tt := range tests {
		label, err := Label(tt.dim, tt.dep, tt.fam)
		require.NoError(t, err)
		t.Run(label, func(t *testing.T) {
			got, err := cat.Price(tt.dim, tt.dep, tt.fam)
			require.NoError(t, err)
			assert.True(t, dec(tt.expected).Equal(got), "got %s", got)
		})
	}
}

func TestPriceUnsupportedDimension(t *testing.T) {
	_, err := sampleCatalog().Price(ProvisionedThroughput, SingleAZ, IO1)
	assert.ErrorIs(t, err, models.ErrUnsupportedDimension)

	_, err = Label(ProvisionedThroughput, MultiAZ, IO1)
	assert.ErrorIs(t, err, models.ErrUnsupportedDimension)
}

func TestDeploymentFor(t *testing.T) {
	assert.Equal(t, MultiAZ, DeploymentFor(true))
	assert.Equal(t, SingleAZ, DeploymentFor(false))
}

func TestRelevant(t *testing.T) {
	assert.True(t, relevant("USE1-RDS:PIOPS-Storage"))
	assert.True(t, relevant("EUW1-RDS:Multi-AZ-GP3-Throughput"))
	assert.False(t, relevant("USE1-InstanceUsage:db.r5.large"))
	assert.False(t, relevant("USE1-RDS:GP2-Storage"))
}
