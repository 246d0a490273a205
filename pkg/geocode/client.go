// Package geocode provides free-text geocoding via Nominatim with a strict
// single-inflight rate limit, plus the batch orchestrator that fills in
// missing coordinates for merged account records.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org/search"
	defaultAgent   = "stratmap/1.0"

	// Nominatim's usage policy allows at most one request per second;
	// leave headroom the way the dashboard always has.
	defaultInterval = 1100 * time.Millisecond
)

// Client looks up coordinates for a free-text query. A miss is not an
// error: Matched is false and the caller moves on to its next query variant.
type Client interface {
	Lookup(ctx context.Context, query string) (*Result, error)
}

// Result holds the geocoding output for one query.
type Result struct {
	Latitude  float64
	Longitude float64
	Quality   string // "point" for a direct hit, "centroid" for a state fallback
	Matched   bool
}

// Option configures the Nominatim client.
type Option func(*nominatim)

// WithBaseURL overrides the Nominatim endpoint (tests point this at a fake).
func WithBaseURL(u string) Option {
	return func(n *nominatim) { n.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(n *nominatim) { n.httpClient = hc }
}

// WithUserAgent sets the User-Agent header; Nominatim requires one that
// identifies the application.
func WithUserAgent(ua string) Option {
	return func(n *nominatim) { n.userAgent = ua }
}

// WithInterval sets the minimum time between requests. Zero disables the
// wait (tests only).
func WithInterval(d time.Duration) Option {
	return func(n *nominatim) {
		if d <= 0 {
			n.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		n.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

type nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Nominatim-backed geocoding Client.
func NewClient(opts ...Option) Client {
	n := &nominatim{
		baseURL:    defaultBaseURL,
		userAgent:  defaultAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(defaultInterval), 1),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// nominatimPlace is one entry of the Nominatim search response. Coordinates
// arrive as strings.
type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Lookup issues one rate-limited search request. The burst of one keeps
// exactly one request in flight no matter how callers schedule work.
func (n *nominatim) Lookup(ctx context.Context, query string) (*Result, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	params := url.Values{
		"format":       {"json"},
		"q":            {query},
		"limit":        {"1"},
		"countrycodes": {"us"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: status %d for %q", resp.StatusCode, query)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}
	if len(places) == 0 {
		return &Result{Matched: false}, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse lat")
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse lon")
	}

	zap.L().Debug("geocode: hit",
		zap.String("query", query),
		zap.Float64("lat", lat),
		zap.Float64("lng", lng),
	)
	return &Result{Latitude: lat, Longitude: lng, Quality: "point", Matched: true}, nil
}
