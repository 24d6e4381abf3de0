package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/FranksOps/serprank/internal/config"
	"github.com/FranksOps/serprank/internal/fingerprint"
	"github.com/FranksOps/serprank/internal/metrics"
	"github.com/FranksOps/serprank/internal/pipeline"
	"github.com/FranksOps/serprank/internal/report"
	"github.com/FranksOps/serprank/internal/scraper"
	"github.com/FranksOps/serprank/internal/serp"
	"github.com/FranksOps/serprank/internal/sheet"
	"github.com/FranksOps/serprank/pkg/ratelimit"
	"github.com/FranksOps/serprank/pkg/useragent"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serprank [file]",
		Short: "Check where URLs rank in search results for their keywords",
		Long: `serprank reads a CSV or XLSX file of keyword and URL columns, searches
each keyword and writes the 1-based rank of the URL (-1 when absent) into a
rank column of an updated_ copy of the file.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.New(), configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.File = args[0]
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			level, _ := cfg.Level()
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	f.String("rows", "", "rows to process: a count or all; prompts when unset")
	f.String("keyword-column", "", "column holding the keywords")
	f.String("url-column", "", "column holding the URLs to rank")
	f.String("rank-column", "", "column to write ranks into, created if missing")
	f.String("engine", "google", "search engine: "+strings.Join(serp.Engines(), ", "))
	f.String("endpoint", "", "override the engine's search URL")
	f.Int("max-results", serp.DefaultLimit, "results requested per search")
	f.Bool("raw-links", false, "compare result hrefs as served, without unwrapping redirects")
	f.Duration("delay", pipeline.DefaultDelay, "pause between rows; 0 disables")
	f.String("on-error", string(pipeline.Abort), "on a failed search: abort or continue")
	f.Duration("timeout", 30*time.Second, "per-request timeout")
	f.String("fingerprint", string(fingerprint.ProfileChrome), "TLS fingerprint: "+profileNames())
	f.StringArray("user-agent", nil, "User-Agent to send; repeat to rotate")
	f.Float64("rps", 0, "max search requests per second; 0 is unlimited")
	f.Float64("jitter", 0, "extra random wait as a fraction of the rps interval")
	f.String("report", "text", "run summary: "+strings.Join(report.Formats(), ", "))
	f.Int("metrics-port", 0, "serve Prometheus metrics on this port; 0 disables")
	f.String("log-level", "info", "debug, info, warn or error")

	return cmd
}

func profileNames() string {
	names := make([]string, 0, len(fingerprint.Profiles()))
	for _, p := range fingerprint.Profiles() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

// run performs one rank check. Nothing is written when a search aborts the
// run or ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, logger *slog.Logger) error {
	ask := newPrompter(in, out)

	if cfg.File == "" {
		file, err := ask.String("Enter the path of the file (CSV or XLSX): ")
		if err != nil {
			return err
		}
		cfg.File = file
	}

	if _, err := sheet.FormatFor(cfg.File); err != nil {
		if errors.Is(err, sheet.ErrUnsupportedFormat) {
			fmt.Fprintln(out, "Unsupported file format. Please provide a CSV or XLSX file.")
		}
		return err
	}

	table, format, err := sheet.Load(cfg.File)
	if err != nil {
		return err
	}
	logger.Debug("loaded table", "file", cfg.File, "format", format.Name(), "rows", table.Len())

	if cfg.KeywordColumn == "" || cfg.URLColumn == "" || cfg.RankColumn == "" {
		ask.Columns(table.Columns())
	}
	for _, q := range []struct {
		dst   *string
		label string
	}{
		{&cfg.KeywordColumn, "Enter the column name to use for keywords: "},
		{&cfg.URLColumn, "Enter the column name to use for URLs: "},
		{&cfg.RankColumn, "Enter the column name to update the ranking: "},
	} {
		if *q.dst != "" {
			continue
		}
		if *q.dst, err = ask.String(q.label); err != nil {
			return err
		}
	}

	schema, err := sheet.Bind(table, cfg.KeywordColumn, cfg.URLColumn, cfg.RankColumn)
	if err != nil {
		return err
	}

	if cfg.Rows == "" {
		if cfg.Rows, err = ask.Rows("Enter the number of rows to consider from the file: "); err != nil {
			return err
		}
	}

	provider, cleanup, err := newProvider(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.MetricsPort > 0 {
		srv := metrics.Start(cfg.MetricsPort, logger)
		defer func() {
			if err := srv.Stop(context.Background()); err != nil {
				logger.Warn("metrics server shutdown", "err", err)
			}
		}()
		logger.Info("serving metrics", "port", cfg.MetricsPort)
	}

	pc, err := cfg.PipelineConfig()
	if err != nil {
		return err
	}
	p := &pipeline.Pipeline{
		Provider: provider,
		Config:   pc,
		Logger:   logger,
		Out:      out,
	}

	outcome, err := p.Run(ctx, table, schema)
	if err != nil {
		done := 0
		if outcome != nil {
			done = len(outcome.Rows)
		}
		logger.Error("run stopped, no output written", "rows_done", done, "err", err)
		return err
	}

	dst := sheet.OutputPath(cfg.File)
	if err := format.Write(dst, table); err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated file saved as %s\n", dst)

	return report.Write(out, cfg.Report, report.GenerateSummary(outcome))
}

// newProvider wires the HTTP stack under the configured engine. The returned
// cleanup stops the rate limiter.
func newProvider(cfg *config.Config, logger *slog.Logger) (serp.Provider, func(), error) {
	profile, err := fingerprint.ParseProfile(cfg.Fingerprint)
	if err != nil {
		return nil, nil, err
	}

	uas := cfg.UserAgents
	if len(uas) == 0 {
		uas = []string{useragent.Chrome}
	}
	limiter := ratelimit.NewLimiter(cfg.RPS, cfg.Jitter)

	fetcher, err := scraper.NewFetcher(scraper.FetchConfig{
		Timeout:      cfg.Timeout,
		UseCookieJar: true,
		UAPool:       useragent.NewPool(uas, useragent.Sequential),
		Fingerprint:  profile,
		Limiter:      limiter,
		Logger:       logger,
	})
	if err != nil {
		limiter.Stop()
		return nil, nil, err
	}

	provider, err := serp.New(cfg.Engine, fetcher, serp.Options{
		BaseURL:  cfg.Endpoint,
		RawLinks: cfg.RawLinks,
	})
	if err != nil {
		limiter.Stop()
		return nil, nil, err
	}
	return provider, limiter.Stop, nil
}
