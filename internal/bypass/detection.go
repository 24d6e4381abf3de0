package bypass

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"
)

// Sample is the part of an HTTP exchange the detectors look at.
type Sample struct {
	// FinalURL is the URL after redirects.
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Detector reports whether s is a bot wall rather than real content, and
// which vendor produced it.
type Detector func(s *Sample) (detected bool, source string)

// DefaultDetectors returns the search-engine walls first, then the generic
// CDN bot managers.
func DefaultDetectors() []Detector {
	return []Detector{
		detectGoogleSorry,
		detectDuckDuckGoAnomaly,
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze runs s through detectors and returns the first hit.
func Analyze(s *Sample, detectors []Detector) (bool, string) {
	if s == nil {
		return false, ""
	}
	for _, d := range detectors {
		if detected, source := d(s); detected {
			return true, source
		}
	}
	return false, ""
}

func header(s *Sample, key string) string {
	if s.Headers == nil {
		return ""
	}
	return s.Headers.Get(key)
}

// servedBy reports whether the sample's final host belongs to the engine
// whose domain label is name, e.g. "google" for www.google.co.uk.
func servedBy(s *Sample, name string) bool {
	u, err := url.Parse(s.FinalURL)
	if err != nil {
		return false
	}
	for _, label := range strings.Split(strings.ToLower(u.Hostname()), ".") {
		if label == name {
			return true
		}
	}
	return false
}

// detectGoogleSorry matches the "unusual traffic" interstitial Google serves
// from /sorry/ with a reCAPTCHA form, usually as a 429.
func detectGoogleSorry(s *Sample) (bool, string) {
	if !servedBy(s, "google") {
		return false, ""
	}
	if strings.HasPrefix(urlPath(s.FinalURL), "/sorry/") {
		return true, "Google"
	}
	if s.StatusCode == http.StatusTooManyRequests || s.StatusCode == http.StatusOK {
		if bytes.Contains(s.Body, []byte("Our systems have detected unusual traffic")) ||
			bytes.Contains(s.Body, []byte(`id="captcha-form"`)) {
			return true, "Google"
		}
	}
	return false, ""
}

// detectDuckDuckGoAnomaly matches the challenge page the HTML endpoint
// returns instead of results. Only DuckDuckGo responses are inspected, so a
// results page quoting the marker text elsewhere is not a wall.
func detectDuckDuckGoAnomaly(s *Sample) (bool, string) {
	if !servedBy(s, "duckduckgo") {
		return false, ""
	}
	if bytes.Contains(s.Body, []byte("anomaly-modal")) ||
		bytes.Contains(s.Body, []byte("Unfortunately, bots use DuckDuckGo too")) {
		return true, "DuckDuckGo"
	}
	return false, ""
}

func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Path
}

func detectCloudflare(s *Sample) (bool, string) {
	if s.StatusCode != http.StatusForbidden && s.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header(s, "Server")), "cloudflare") {
		return true, "Cloudflare"
	}
	for _, sig := range []string{"cf-browser-verification", "cf-turnstile", "Attention Required! | Cloudflare"} {
		if bytes.Contains(s.Body, []byte(sig)) {
			return true, "Cloudflare"
		}
	}
	return false, ""
}

func detectAkamai(s *Sample) (bool, string) {
	if s.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header(s, "Server")), "akamai") {
		return true, "Akamai"
	}
	// Generic Akamai block page.
	if bytes.Contains(s.Body, []byte("Reference #")) && bytes.Contains(s.Body, []byte("Access Denied")) {
		return true, "Akamai"
	}
	return false, ""
}

func detectDataDome(s *Sample) (bool, string) {
	if s.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header(s, "Server")), "datadome") ||
		header(s, "X-DataDome") != "" || header(s, "X-DataDome-Response") != "" {
		return true, "DataDome"
	}
	if bytes.Contains(s.Body, []byte("geo.captcha-delivery.com")) {
		return true, "DataDome"
	}
	return false, ""
}

func detectPerimeterX(s *Sample) (bool, string) {
	if s.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if header(s, "X-Px-Captcha") != "" {
		return true, "PerimeterX"
	}
	for _, sig := range []string{"client.perimeterx.net", "px-captcha", "_pxBlock"} {
		if bytes.Contains(s.Body, []byte(sig)) {
			return true, "PerimeterX"
		}
	}
	return false, ""
}
