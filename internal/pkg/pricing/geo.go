package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/andresvl/aulaviva/internal/pkg/env"
)

const defaultGeoAPIBaseURL = "http://ip-api.com/json"

// GeoClient resolves a client IP to an ISO 3166-1 alpha-2 country code.
// Lookup failures are soft: callers fall back to DefaultCountry.
type GeoClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewGeoClientFromEnv() *GeoClient {
	return &GeoClient{
		BaseURL: strings.TrimRight(env.GetEnv("GEOIP_API_BASE_URL", defaultGeoAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type geoResponse struct {
	Status      string `json:"status"`
	CountryCode string `json:"countryCode"`
}

// CountryForIP queries the GeoIP service. Private and malformed addresses are
// rejected up front so we never leak internal IPs to the lookup service.
func (c *GeoClient) CountryForIP(ctx context.Context, ip string) (string, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "", fmt.Errorf("invalid ip: %w", err)
	}
	if addr.IsPrivate() || addr.IsLoopback() || addr.IsUnspecified() {
		return "", errors.New("non-public ip")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/"+url.PathEscape(addr.String())+"?fields=status,countryCode", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("geo lookup failed: status=%d", resp.StatusCode)
	}

	var out geoResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if out.Status != "success" || out.CountryCode == "" {
		return "", errors.New("geo lookup returned no country")
	}
	return strings.ToUpper(out.CountryCode), nil
}

// DetectCountry picks the effective country for a request, in priority order:
// explicit override, GeoIP by client IP, then DefaultCountry.
func DetectCountry(ctx context.Context, geo *GeoClient, override, clientIP string) string {
	if c := strings.ToUpper(strings.TrimSpace(override)); c != "" {
		return c
	}
	if geo != nil && clientIP != "" {
		if c, err := geo.CountryForIP(ctx, clientIP); err == nil {
			return c
		}
	}
	return DefaultCountry
}
