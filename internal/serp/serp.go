package serp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/FranksOps/serprank/internal/scraper"
)

// DefaultLimit is the number of results requested when the caller passes
// a non-positive limit.
const DefaultLimit = 50

var (
	// ErrUnknownEngine is returned by New for an unregistered engine name.
	ErrUnknownEngine = errors.New("unknown search engine")
	// ErrBlocked means the engine answered with a bot wall instead of results.
	ErrBlocked = errors.New("search blocked")
)

// StatusError is returned when the engine answers with a non-2xx status.
type StatusError struct {
	Engine string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Engine, e.Code)
}

// Result is one organic result in engine order.
type Result struct {
	Position int    `json:"position"`
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
}

// Provider abstracts a search engine. Search returns at most limit results
// in ranking order; it issues exactly one request per call.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// Getter fetches a page. *scraper.Fetcher satisfies it.
type Getter interface {
	Fetch(ctx context.Context, targetURL string) (*scraper.Response, error)
}

// Options tune the HTML providers.
type Options struct {
	// BaseURL overrides the engine endpoint, e.g. for a mirror or tests.
	BaseURL string
	// RawLinks keeps hrefs exactly as they appear in the page, tracking
	// redirects and relative paths included.
	RawLinks bool
}

type factory func(g Getter, opts Options) Provider

var engines = map[string]factory{
	"google":     func(g Getter, opts Options) Provider { return NewGoogle(g, opts) },
	"duckduckgo": func(g Getter, opts Options) Provider { return NewDuckDuckGo(g, opts) },
	"ddg":        func(g Getter, opts Options) Provider { return NewDuckDuckGo(g, opts) },
}

// Engines lists the registered engine names.
func Engines() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the provider registered under name.
func New(name string, g Getter, opts Options) (Provider, error) {
	f, ok := engines[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownEngine, name, strings.Join(Engines(), ", "))
	}
	return f(g, opts), nil
}

// URLs projects results onto their URLs, preserving order.
func URLs(results []Result) []string {
	urls := make([]string, len(results))
	for i, r := range results {
		urls[i] = r.URL
	}
	return urls
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// fetchPage performs the request and turns bot walls and non-2xx statuses
// into errors.
func fetchPage(ctx context.Context, g Getter, engine, target string) (*scraper.Response, error) {
	res, err := g.Fetch(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", engine, err)
	}
	if res.DetectedBot {
		return nil, fmt.Errorf("%s: %w by %s", engine, ErrBlocked, res.DetectionSrc)
	}
	if !res.OK() {
		return nil, &StatusError{Engine: engine, Code: res.StatusCode}
	}
	return res, nil
}
