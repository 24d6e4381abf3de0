package serp

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const googleEndpoint = "https://www.google.com/search"

// Google scrapes the classic Google results page. Each organic result is a
// div.g block; its first anchor carries the result link.
type Google struct {
	getter   Getter
	endpoint string
	raw      bool
}

var _ Provider = (*Google)(nil)

// NewGoogle returns a Google provider fetching through g.
func NewGoogle(g Getter, opts Options) *Google {
	endpoint := opts.BaseURL
	if endpoint == "" {
		endpoint = googleEndpoint
	}
	return &Google{getter: g, endpoint: endpoint, raw: opts.RawLinks}
}

func (g *Google) Name() string { return "google" }

// SearchURL builds the results page URL for query.
func (g *Google) SearchURL(query string, limit int) string {
	v := url.Values{}
	v.Set("q", query)
	v.Set("num", strconv.Itoa(normalizeLimit(limit)))
	return g.endpoint + "?" + v.Encode()
}

// Search requests one results page and extracts up to limit result links.
func (g *Google) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	limit = normalizeLimit(limit)
	target := g.SearchURL(query, limit)

	page, err := fetchPage(ctx, g.getter, g.Name(), target)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("%s: parse results page: %w", g.Name(), err)
	}
	base := pageBase(page.FinalURL, target)

	results := make([]Result, 0, limit)
	doc.Find("div.g").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Find("a").First().Attr("href")
		if !ok {
			return true
		}
		link := href
		if !g.raw {
			if link = cleanLink(base, href); link == "" {
				return true
			}
		}
		results = append(results, Result{
			Position: len(results) + 1,
			URL:      link,
			Title:    strings.TrimSpace(s.Find("h3").First().Text()),
		})
		return len(results) < limit
	})

	return results, nil
}

// pageBase picks the URL relative links on the page resolve against.
func pageBase(finalURL, requested string) *url.URL {
	for _, raw := range []string{finalURL, requested} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err == nil {
			return u
		}
	}
	return nil
}
