package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gp3sift/internal/aws/ratelimit"
	"gp3sift/internal/config"
	"gp3sift/internal/logging"
	"gp3sift/internal/pricing/models"
)

// Fetcher downloads regional RDS bulk price lists
type Fetcher struct {
	baseURL string
	client  *http.Client
	limiter *ratelimit.ServiceLimiter
}

// NewFetcher creates a fetcher for the given bulk price list endpoint
func NewFetcher(baseURL string, timeout time.Duration) *Fetcher {
	if baseURL == "" {
		baseURL = config.DefaultCatalogBaseURL
	}
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: ratelimit.GetServiceLimiter("pricing", config.CatalogRateLimitConfig),
	}
}

// URL returns the price list location of a region
func (f *Fetcher) URL(region string) string {
	return fmt.Sprintf("%s/%s/index.csv", f.baseURL, region)
}

// Fetch downloads and parses the price list of a region
func (f *Fetcher) Fetch(ctx context.Context, region string) (*PriceCatalog, error) {
	url := f.URL(region)
	start := time.Now()

	var cat *PriceCatalog
	err := f.limiter.Execute(ctx, "GetPriceList", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return ratelimit.Retryable(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			statusErr := fmt.Errorf("unexpected status %s from %s", resp.Status, url)
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return ratelimit.Retryable(statusErr)
			}
			return statusErr
		}

		parsed, err := Parse(region, resp.Body)
		if err != nil {
			return err
		}
		cat = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch %s price list: %w", models.ErrUpstreamUnavailable, region, err)
	}

	logging.Debug("Fetched price list", map[string]interface{}{
		"region":   region,
		"rows":     cat.Len(),
		"duration": time.Since(start).String(),
	})

	return cat, nil
}
