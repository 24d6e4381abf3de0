package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FranksOps/serprank/internal/fingerprint"
	"github.com/FranksOps/serprank/pkg/useragent"
)

func newTestFetcher(t *testing.T, timeout time.Duration, uas ...string) *Fetcher {
	t.Helper()
	f, err := NewFetcher(FetchConfig{
		Timeout:     timeout,
		Fingerprint: fingerprint.ProfileGo,
		UAPool:      useragent.NewPool(uas, useragent.Sequential),
	})
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}
	return f
}

func TestFetcher_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "TestBrowser/1.0" {
			t.Errorf("expected User-Agent TestBrowser/1.0, got %q", r.Header.Get("User-Agent"))
		}
		if r.Header.Get("Accept-Language") == "" {
			t.Errorf("expected Accept-Language header")
		}
		w.Header().Set("X-Test", "true")
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	f := newTestFetcher(t, 5*time.Second, "TestBrowser/1.0")

	res, err := f.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK() {
		t.Errorf("expected 2xx, got %d", res.StatusCode)
	}
	if string(res.Body) != "ok" {
		t.Errorf("expected body 'ok', got %s", string(res.Body))
	}
	if res.Headers.Get("X-Test") != "true" {
		t.Errorf("expected X-Test header, got %v", res.Headers)
	}
	if res.Duration == 0 {
		t.Errorf("expected non-zero duration")
	}
	if res.ID == "" {
		t.Errorf("expected non-empty ID")
	}
	if res.DetectedBot {
		t.Errorf("plain page must not be flagged")
	}
}

func TestFetcher_NonSuccessIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("cf-browser-verification"))
	}))
	defer ts.Close()

	f := newTestFetcher(t, 5*time.Second)

	res, err := f.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK() {
		t.Errorf("expected non-2xx response")
	}
	if !res.DetectedBot || res.DetectionSrc != "Cloudflare" {
		t.Errorf("expected Cloudflare detection, got %v %q", res.DetectedBot, res.DetectionSrc)
	}
}

func TestFetcher_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	f := newTestFetcher(t, 10*time.Millisecond)

	if _, err := f.Fetch(context.Background(), ts.URL); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestFetcher_Cancelled(t *testing.T) {
	f := newTestFetcher(t, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Fetch(ctx, "http://127.0.0.1:1/"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestFetcher_BadURL(t *testing.T) {
	f := newTestFetcher(t, time.Second)
	if _, err := f.Fetch(context.Background(), "://bad"); err == nil {
		t.Fatal("expected error for malformed URL")
	}
}
