package catalog

import (
	"fmt"
	"strings"

	"gp3sift/internal/pricing/models"
)

// Dimension is a billed storage quantity
type Dimension int

const (
	StorageGB Dimension = iota
	ProvisionedIOPS
	ProvisionedThroughput
)

func (d Dimension) String() string {
	switch d {
	case StorageGB:
		return "storage-gb"
	case ProvisionedIOPS:
		return "provisioned-iops"
	case ProvisionedThroughput:
		return "provisioned-throughput"
	default:
		return "unknown"
	}
}

// Deployment selects the single-AZ or multi-AZ rate
type Deployment int

const (
	SingleAZ Deployment = iota
	MultiAZ
)

// DeploymentFor maps an instance's multi-AZ flag to a deployment
func DeploymentFor(multiAZ bool) Deployment {
	if multiAZ {
		return MultiAZ
	}
	return SingleAZ
}

// VolumeFamily selects the io1 or gp3 price list entries
type VolumeFamily int

const (
	IO1 VolumeFamily = iota
	GP3
)

type labelKey struct {
	dim Dimension
	dep Deployment
	fam VolumeFamily
}

// usageLabels anchors on the stable suffix of the catalog's usageType column.
// The region prefix (e.g. "USE1-RDS") varies and is not part of the label.
var usageLabels = map[labelKey]string{
	{StorageGB, SingleAZ, IO1}:       ":PIOPS-Storage",
	{ProvisionedIOPS, SingleAZ, IO1}: ":PIOPS",
	{StorageGB, MultiAZ, IO1}:        ":Multi-AZ-PIOPS-Storage",
	{ProvisionedIOPS, MultiAZ, IO1}:  ":Multi-AZ-PIOPS",

	{StorageGB, SingleAZ, GP3}:             ":GP3-Storage",
	{ProvisionedIOPS, SingleAZ, GP3}:       ":GP3-PIOPS",
	{ProvisionedThroughput, SingleAZ, GP3}: ":GP3-Throughput",
	{StorageGB, MultiAZ, GP3}:              ":Multi-AZ-GP3-Storage",
	{ProvisionedIOPS, MultiAZ, GP3}:        ":Multi-AZ-GP3-PIOPS",
	{ProvisionedThroughput, MultiAZ, GP3}:  ":Multi-AZ-GP3-Throughput",
}

// Label returns the usage-type substring for a billing dimension
func Label(dim Dimension, dep Deployment, fam VolumeFamily) (string, error) {
	label, ok := usageLabels[labelKey{dim, dep, fam}]
	if !ok {
		return "", fmt.Errorf("%w: %s", models.ErrUnsupportedDimension, dim)
	}
	return label, nil
}

// relevant reports whether a usage type can be selected by any modeled label
func relevant(usageType string) bool {
	for _, label := range usageLabels {
		if strings.Contains(usageType, label) {
			return true
		}
	}
	return false
}
