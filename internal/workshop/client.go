// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workshop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/pzpanel/pzpanel/internal/cache"
	xglog "github.com/pzpanel/pzpanel/internal/log"
	"github.com/pzpanel/pzpanel/internal/metrics"
	"github.com/pzpanel/pzpanel/internal/resilience"
	"github.com/pzpanel/pzpanel/internal/telemetry"
)

// ProjectZomboidAppID is the Steam app id of Project Zomboid.
const ProjectZomboidAppID = 108600

const (
	defaultAPIBase       = "https://api.steampowered.com"
	defaultCommunityBase = "https://steamcommunity.com"
	maxBodyBytes         = 16 << 20
	maxErrorBody         = 512
	browserUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Options configures a Client. Zero values fall back to production defaults.
type Options struct {
	// APIKey returns the current Steam Web API key. It is called per request
	// so that reloaded configuration applies without a restart.
	APIKey           func() string
	AppID            int
	APIBaseURL       string
	CommunityBaseURL string
	Timeout          time.Duration

	RequestsPerSecond float64
	Burst             int
	Retries           int
	RetryInterval     time.Duration
	Concurrency       int

	BreakerThreshold int
	BreakerReset     time.Duration

	Cache    cache.Cache
	CacheTTL time.Duration

	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client is a Steam workshop client safe for concurrent use.
type Client struct {
	apiKey        func() string
	appID         int
	apiBase       string
	communityBase string

	http          *http.Client
	limiter       *rate.Limiter
	breaker       *resilience.CircuitBreaker
	retries       int
	retryInterval time.Duration
	concurrency   int

	cache    cache.Cache
	cacheTTL time.Duration
	group    singleflight.Group

	scraper CollectionScraper
	logger  zerolog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.APIKey == nil {
		opts.APIKey = func() string { return "" }
	}
	if opts.AppID == 0 {
		opts.AppID = ProjectZomboidAppID
	}
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = defaultAPIBase
	}
	if opts.CommunityBaseURL == "" {
		opts.CommunityBaseURL = defaultCommunityBase
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 250 * time.Millisecond
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.BreakerThreshold <= 0 {
		opts.BreakerThreshold = 5
	}
	if opts.BreakerReset <= 0 {
		opts.BreakerReset = 30 * time.Second
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNoOp()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	logger := xglog.WithComponent("workshop")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	c := &Client{
		apiKey:        opts.APIKey,
		appID:         opts.AppID,
		apiBase:       strings.TrimRight(opts.APIBaseURL, "/"),
		communityBase: strings.TrimRight(opts.CommunityBaseURL, "/"),
		http:          httpClient,
		limiter:       rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		retries:       opts.Retries,
		retryInterval: opts.RetryInterval,
		concurrency:   opts.Concurrency,
		cache:         opts.Cache,
		cacheTTL:      opts.CacheTTL,
		logger:        logger,
	}
	c.breaker = resilience.NewCircuitBreaker("steam", opts.BreakerThreshold, opts.BreakerReset,
		resilience.WithFailurePredicate(retryable))
	c.scraper = NewPageScraper(c.fetchPage, DefaultExtractors()...)
	return c
}

// SetScraper replaces the collection page fallback.
func (c *Client) SetScraper(s CollectionScraper) { c.scraper = s }

// Breaker exposes the client's circuit breaker for health reporting.
func (c *Client) Breaker() *resilience.CircuitBreaker { return c.breaker }

// HasAPIKey reports whether a Steam Web API key is configured.
func (c *Client) HasAPIKey() bool { return c.apiKey() != "" }

func (c *Client) key() (string, error) {
	k := strings.TrimSpace(c.apiKey())
	if k == "" {
		return "", ErrNoAPIKey
	}
	return k, nil
}

// newRequest builds a request for one attempt; bodies must be rebuilt per attempt.
type newRequest func(ctx context.Context) (*http.Request, error)

func (c *Client) postForm(endpoint string, form url.Values) newRequest {
	u := c.apiBase + "/" + endpoint
	encoded := form.Encode()
	return func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}
}

func (c *Client) get(rawURL string, header http.Header) newRequest {
	return func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range header {
			req.Header[k] = v
		}
		return req, nil
	}
}

// do runs one logical request through the limiter, breaker and retry loop.
func (c *Client) do(ctx context.Context, op string, build newRequest) ([]byte, error) {
	start := time.Now()
	var body []byte

	attempt := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		err := c.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
			b, err := c.roundTrip(ctx, op, build)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
		if err != nil && (errors.Is(err, resilience.ErrCircuitOpen) || !retryable(err)) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxInterval = 10 * c.retryInterval
	b.MaxElapsedTime = 0
	b.Reset()
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.retries)), ctx)

	err := backoff.RetryNotify(attempt, policy, func(err error, wait time.Duration) {
		c.logger.Warn().Err(err).
			Str(xglog.FieldEvent, "workshop.retry").
			Str("op", op).
			Dur("wait", wait).
			Msg("retrying steam request")
	})
	status := statusLabel(err)
	metrics.ObserveWorkshopRequest(op, status, time.Since(start))
	telemetry.RecordWorkshopRequest(ctx, op, status)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, op string, build newRequest) ([]byte, error) {
	req, err := build(ctx)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &APIError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &APIError{Op: op, Status: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Status != 0:
		return strconv.Itoa(apiErr.Status)
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// fetchPage downloads a steamcommunity.com file details page.
func (c *Client) fetchPage(ctx context.Context, id string) (string, error) {
	u := fmt.Sprintf("%s/sharedfiles/filedetails/?id=%s", c.communityBase, url.QueryEscape(id))
	header := http.Header{}
	header.Set("User-Agent", browserUserAgent)
	header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	header.Set("Accept-Language", "en-US,en;q=0.5")
	body, err := c.do(ctx, "collection_page", c.get(u, header))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
