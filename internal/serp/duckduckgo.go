package serp

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const duckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the JavaScript-free DuckDuckGo results page. It serves
// a single page of roughly thirty results, so limits above that are
// truncated by the engine.
type DuckDuckGo struct {
	getter   Getter
	endpoint string
	raw      bool
}

var _ Provider = (*DuckDuckGo)(nil)

func NewDuckDuckGo(g Getter, opts Options) *DuckDuckGo {
	endpoint := opts.BaseURL
	if endpoint == "" {
		endpoint = duckDuckGoEndpoint
	}
	return &DuckDuckGo{getter: g, endpoint: endpoint, raw: opts.RawLinks}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) SearchURL(query string) string {
	v := url.Values{}
	v.Set("q", query)
	return d.endpoint + "?" + v.Encode()
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	limit = normalizeLimit(limit)
	target := d.SearchURL(query)

	page, err := fetchPage(ctx, d.getter, d.Name(), target)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("%s: parse results page: %w", d.Name(), err)
	}
	base := pageBase(page.FinalURL, target)

	results := make([]Result, 0, limit)
	doc.Find("a.result__a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Closest(".result--ad").Length() > 0 {
			return true
		}
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		link := href
		if !d.raw {
			if link = cleanLink(base, href); link == "" {
				return true
			}
		}
		results = append(results, Result{
			Position: len(results) + 1,
			URL:      link,
			Title:    strings.TrimSpace(s.Text()),
		})
		return len(results) < limit
	})

	return results, nil
}
