package models

import "errors"

var (
	// ErrPriceNotFound is returned when no catalog row matches a usage-type label
	ErrPriceNotFound = errors.New("price not found")

	// ErrUnsupportedDimension is returned for a price dimension a volume type does not bill
	ErrUnsupportedDimension = errors.New("unsupported price dimension")

	// ErrUndeterminedProvisioning is returned when no gp3 equivalent exists under the modeled rules
	ErrUndeterminedProvisioning = errors.New("gp3 provisioning undetermined")

	// ErrMetricUnavailable is returned when a metric query yields no datapoints
	ErrMetricUnavailable = errors.New("metric unavailable")

	// ErrUpstreamUnavailable is returned when enumeration, catalog fetch, or credential exchange fails
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
