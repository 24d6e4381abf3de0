package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serprank_search_requests_total",
			Help: "Total number of search result pages requested",
		},
		[]string{"engine", "status", "detected", "detection_src"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "serprank_search_duration_seconds",
			Help:    "Duration of search result page requests in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"engine"},
	)

	SearchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serprank_search_bytes_total",
			Help: "Total bytes of search result pages downloaded",
		},
		[]string{"engine"},
	)

	RankChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serprank_rank_checks_total",
			Help: "Rows processed, by outcome",
		},
		[]string{"outcome"},
	)
)

// Fetch describes one completed or failed page request.
type Fetch struct {
	StatusCode   int
	Failed       bool
	DetectedBot  bool
	DetectionSrc string
	Duration     time.Duration
	Bytes        int
}

// RecordFetch updates the request metrics for engine, normally the host
// the page was requested from.
func RecordFetch(engine string, f Fetch) {
	status := fmt.Sprint(f.StatusCode)
	if f.Failed {
		status = "error"
	}
	detected := "false"
	if f.DetectedBot {
		detected = "true"
	}

	SearchRequestsTotal.WithLabelValues(engine, status, detected, f.DetectionSrc).Inc()
	SearchDuration.WithLabelValues(engine).Observe(f.Duration.Seconds())
	SearchBytesTotal.WithLabelValues(engine).Add(float64(f.Bytes))
}

// RecordRankCheck counts a processed row. outcome is one of the row
// statuses: found, not_found, skipped, failed.
func RecordRankCheck(outcome string) {
	RankChecksTotal.WithLabelValues(outcome).Inc()
}

// Server exposes /metrics over HTTP.
type Server struct {
	srv *http.Server
}

// Start listens on port in the background. Listen errors other than a clean
// shutdown are logged to logger.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "port", port, "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop shuts the server down, waiting at most five seconds.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
