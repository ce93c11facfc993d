package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/trailbeacon/sheltermap/internal/poi"
	"github.com/trailbeacon/sheltermap/internal/resilience"
)

const (
	defaultBaseURL   = "https://api.sheltermap.io"
	defaultUserAgent = "sheltermap/1.0"
)

// Option configures the HTTP client.
type Option func(*HTTPClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *HTTPClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithUserAgent overrides the default User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) { c.userAgent = ua }
}

// WithRateLimit overrides the default request rate (requests per second).
func WithRateLimit(rps float64) Option {
	return func(c *HTTPClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// HTTPClient implements Provider over the sheltermap POI search API.
type HTTPClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewHTTPClient creates a Provider talking to the remote search API.
func NewHTTPClient(opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		// Burst 1 so a debounced area fetch and a user-submitted search
		// cannot stampede the provider together.
		limiter: rate.NewLimiter(5, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// searchResponse is the provider's wire envelope.
type searchResponse struct {
	POIs []poi.POI `json:"pois"`
}

// SearchBounds queries the provider for POIs inside the bounding box.
func (c *HTTPClient) SearchBounds(ctx context.Context, bounds *geom.Bounds, typ poi.Type) ([]poi.POI, error) {
	if bounds == nil || bounds.IsEmpty() {
		return nil, eris.New("provider: empty bounds")
	}

	q := url.Values{}
	// go-geom layout: x=longitude, y=latitude.
	q.Set("south", formatCoord(bounds.Min(1)))
	q.Set("west", formatCoord(bounds.Min(0)))
	q.Set("north", formatCoord(bounds.Max(1)))
	q.Set("east", formatCoord(bounds.Max(0)))
	if typ != "" {
		q.Set("type", string(typ))
	}

	return c.get(ctx, "/v1/pois", q)
}

// SearchName queries the provider by free-text name.
func (c *HTTPClient) SearchName(ctx context.Context, query string) ([]poi.POI, error) {
	q := url.Values{}
	q.Set("q", query)
	return c.get(ctx, "/v1/pois/search", q)
}

func (c *HTTPClient) get(ctx context.Context, path string, q url.Values) ([]poi.POI, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "provider: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "provider: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: get %s", path)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("provider: unexpected status %d from %s", resp.StatusCode, path)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		// Malformed payloads propagate like any other network failure:
		// the caller discards the cycle and keeps prior state.
		return nil, eris.Wrapf(err, "provider: decode %s response", path)
	}

	out := make([]poi.POI, 0, len(body.POIs))
	for _, p := range body.POIs {
		if err := p.Validate(); err != nil {
			zap.L().Debug("provider: dropping invalid poi", zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
