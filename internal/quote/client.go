package quote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nyashahama/furniture-taxi-leads/internal/metrics"
)

// ErrConfigUnavailable wraps every failure to obtain a pricing configuration.
// Callers never receive defaults in its place.
var ErrConfigUnavailable = errors.New("quote: pricing config unavailable")

// maxConfigBytes caps the upstream body read.
const maxConfigBytes = 1 << 20

// ConfigSource is what the HTTP layer needs to proxy the configuration.
type ConfigSource interface {
	FetchConfig(ctx context.Context) (Config, error)
}

// Client fetches the widget configuration over HTTP.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// NewClient returns a Client for GET {baseURL}/{key}/config. A nil httpClient
// gets a 10s timeout.
func NewClient(baseURL, key string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		key:        key,
		httpClient: httpClient,
	}
}

// FetchConfig retrieves and parses the configuration. It is not cached.
func (c *Client) FetchConfig(ctx context.Context) (Config, error) {
	endpoint := fmt.Sprintf("%s/%s/config", c.baseURL, url.PathEscape(c.key))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Config{}, fmt.Errorf("%w: build request: %w", ErrConfigUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Config{}, fmt.Errorf("%w: http request: %w", ErrConfigUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxConfigBytes))
	if err != nil {
		return Config{}, fmt.Errorf("%w: read response: %w", ErrConfigUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Config{}, fmt.Errorf("%w: unexpected status %d: %.200s",
			ErrConfigUnavailable, resp.StatusCode, string(body))
	}

	cfg, err := ParseConfig(body)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfigUnavailable, err)
	}
	return cfg, nil
}

// Estimator fetches a fresh configuration for every estimate.
type Estimator struct {
	source  ConfigSource
	metrics *metrics.Metrics
}

// NewEstimator wires an Estimator. m may be nil.
func NewEstimator(source ConfigSource, m *metrics.Metrics) *Estimator {
	return &Estimator{source: source, metrics: m}
}

// FetchConfig passes through to the underlying source.
func (e *Estimator) FetchConfig(ctx context.Context) (Config, error) {
	return e.source.FetchConfig(ctx)
}

// Estimate fetches the configuration and computes a quote. A fetch failure is
// returned as is.
func (e *Estimator) Estimate(ctx context.Context, req Request) (Quote, error) {
	cfg, err := e.source.FetchConfig(ctx)
	if err != nil {
		e.metrics.ObserveQuote("config_error")
		return Quote{}, err
	}
	e.metrics.ObserveQuote("ok")
	return Compute(cfg, req), nil
}
