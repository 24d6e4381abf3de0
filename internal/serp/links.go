package serp

import (
	"net/url"
	"strings"
)

// redirectParams are the query keys engines use to carry the real target
// of a click-tracking link.
var redirectParams = map[string][]string{
	"/url": {"q", "url"}, // google
	"/l/":  {"uddg"},     // duckduckgo
	"/l":   {"uddg"},
}

// redirectHosts are engine hosts whose click-tracking links may appear on a
// page served from a different host, e.g. html.duckduckgo.com linking
// through duckduckgo.com/l/.
var redirectHosts = map[string]bool{
	"google.com":     true,
	"duckduckgo.com": true,
}

// navPaths are the engine's own search pages. Links to them from a results
// page are related searches or pagination, not results.
var navPaths = map[string]bool{
	"":        true,
	"/":       true,
	"/search": true,
	"/html":   true,
	"/html/":  true,
	"/url":    true,
	"/l":      true,
	"/l/":     true,
}

// cleanLink turns an href from a results page into the destination URL.
// Tracking redirects are unwrapped to their decoded target, relative links
// are made absolute against base, and links back to the engine's search
// pages yield "". Any other absolute href is returned exactly as written,
// so the text stays comparable with what a sheet holds.
func cleanLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	link := href
	if !u.IsAbs() {
		if base == nil {
			return ""
		}
		link = absolute(base, href)
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}

	internal := base != nil && sameSite(u.Hostname(), base.Hostname())
	if internal || redirectHosts[bareHost(u.Hostname())] {
		if target := unwrap(u); target != "" {
			return target
		}
		if navPaths[u.Path] {
			return ""
		}
	}
	return link
}

// absolute joins a relative href onto base without re-encoding it, falling
// back to url resolution for path-relative forms.
func absolute(base *url.URL, href string) string {
	switch {
	case strings.HasPrefix(href, "//"):
		return base.Scheme + ":" + href
	case strings.HasPrefix(href, "/"):
		return base.Scheme + "://" + base.Host + href
	default:
		ref, err := url.Parse(href)
		if err != nil {
			return ""
		}
		return base.ResolveReference(ref).String()
	}
}

// unwrap extracts the destination from an engine redirect URL, or "".
func unwrap(u *url.URL) string {
	keys, ok := redirectParams[u.Path]
	if !ok {
		return ""
	}
	q := u.Query()
	for _, k := range keys {
		if v := q.Get(k); strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
			return v
		}
	}
	return ""
}

// sameSite reports whether host is the engine's own front end. Other
// subdomains (support.google.com and the like) are real results.
func sameSite(host, engineHost string) bool {
	return host != "" && bareHost(host) == bareHost(engineHost)
}

func bareHost(h string) string {
	h = strings.ToLower(h)
	for _, prefix := range []string{"www.", "html."} {
		h = strings.TrimPrefix(h, prefix)
	}
	return h
}
