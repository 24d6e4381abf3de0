package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/FranksOps/serprank/internal/bypass"
	"github.com/FranksOps/serprank/internal/fingerprint"
	"github.com/FranksOps/serprank/internal/metrics"
	"github.com/FranksOps/serprank/pkg/httpclient"
	"github.com/FranksOps/serprank/pkg/ratelimit"
	"github.com/FranksOps/serprank/pkg/useragent"
	"github.com/google/uuid"
)

// maxBodyBytes caps how much of a results page is read into memory.
const maxBodyBytes = 8 << 20

// FetchConfig configures the page fetcher shared by all search providers.
type FetchConfig struct {
	// Timeout bounds one request. Zero means 30s.
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	// Limiter throttles requests on top of the per-row delay. Optional.
	Limiter *ratelimit.Limiter
	Logger  *slog.Logger
}

// Response is one fetched page.
type Response struct {
	ID           string
	URL          string
	FinalURL     string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	DetectedBot  bool
	DetectionSrc string
	FetchedAt    time.Time
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher issues browser-like GET requests.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
	logger *slog.Logger
}

// NewFetcher builds a Fetcher whose single client, and cookie jar if
// enabled, lives as long as the Fetcher.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil, useragent.Sequential)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, http.ProxyFromEnvironment)
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
		Header: http.Header{
			"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"},
			"Accept-Language": {"en-US,en;q=0.9"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Fetcher{
		config: cfg,
		client: client,
		logger: cfg.Logger,
	}, nil
}

// Fetch performs one GET of targetURL. Transport failures and body read
// failures are returned as errors; any HTTP status, including non-2xx, is
// returned as a Response for the caller to judge.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Response, error) {
	if err := f.config.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UAPool.Next())

	host := req.URL.Hostname()
	start := time.Now()

	resp, err := f.client.Do(ctx, req)
	if err != nil {
		metrics.RecordFetch(host, metrics.Fetch{Failed: true, Duration: time.Since(start)})
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.RecordFetch(host, metrics.Fetch{Failed: true, Duration: time.Since(start)})
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	res := &Response{
		ID:         uuid.New().String(),
		URL:        targetURL,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		Duration:   time.Since(start),
		FetchedAt:  start.UTC(),
	}

	res.DetectedBot, res.DetectionSrc = bypass.Analyze(&bypass.Sample{
		FinalURL:   res.FinalURL,
		StatusCode: res.StatusCode,
		Headers:    res.Headers,
		Body:       res.Body,
	}, bypass.DefaultDetectors())

	metrics.RecordFetch(host, metrics.Fetch{
		StatusCode:   res.StatusCode,
		DetectedBot:  res.DetectedBot,
		DetectionSrc: res.DetectionSrc,
		Duration:     res.Duration,
		Bytes:        len(res.Body),
	})

	f.logger.Debug("fetched",
		"id", res.ID,
		"url", targetURL,
		"status", res.StatusCode,
		"bytes", len(res.Body),
		"duration", res.Duration,
		"detected", res.DetectionSrc,
	)

	return res, nil
}
