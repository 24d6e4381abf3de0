package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/serprank/internal/pipeline"
	"github.com/FranksOps/serprank/internal/serp"
	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Engine != "google" {
		t.Errorf("expected google, got %q", cfg.Engine)
	}
	if cfg.MaxResults != 50 {
		t.Errorf("expected 50 results, got %d", cfg.MaxResults)
	}
	if cfg.Delay != 2*time.Second {
		t.Errorf("expected 2s delay, got %v", cfg.Delay)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Timeout)
	}
	if cfg.Rows != "" {
		t.Errorf("expected rows to default to prompt, got %q", cfg.Rows)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "serprank.yaml")
	content := "engine: duckduckgo\nmax-results: 20\ndelay: 5s\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERPRANK_MAX_RESULTS", "10")

	cfg, err := Load(New(), path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine != "duckduckgo" {
		t.Errorf("expected engine from file, got %q", cfg.Engine)
	}
	if cfg.MaxResults != 10 {
		t.Errorf("expected env to win, got %d", cfg.MaxResults)
	}
	if cfg.Delay != 5*time.Second {
		t.Errorf("expected 5s delay from file, got %v", cfg.Delay)
	}
}

func TestLoad_FlagsWin(t *testing.T) {
	t.Setenv("SERPRANK_ENGINE", "duckduckgo")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("engine", "google", "")
	flags.StringArray("user-agent", nil, "")
	flags.String("rows", "", "")
	if err := flags.Parse([]string{"--engine", "ddg", "--rows", "3", "--user-agent", "A/1.0 (X, Y)", "--user-agent", "B/2.0"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(New(), "", flags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine != "ddg" {
		t.Errorf("expected flag to win, got %q", cfg.Engine)
	}
	if cfg.Rows != "3" {
		t.Errorf("expected 3 rows, got %q", cfg.Rows)
	}
	if len(cfg.UserAgents) != 2 || cfg.UserAgents[0] != "A/1.0 (X, Y)" {
		t.Errorf("unexpected user agents: %q", cfg.UserAgents)
	}
}

func TestLoad_EnvOnlyKeys(t *testing.T) {
	t.Setenv("SERPRANK_FILE", "kw.csv")
	t.Setenv("SERPRANK_KEYWORD_COLUMN", "Keyword")
	t.Setenv("SERPRANK_ROWS", "all")
	t.Setenv("SERPRANK_RAW_LINKS", "true")
	t.Setenv("SERPRANK_METRICS_PORT", "9100")

	cfg, err := Load(New(), "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.File != "kw.csv" {
		t.Errorf("expected file from env, got %q", cfg.File)
	}
	if cfg.KeywordColumn != "Keyword" {
		t.Errorf("expected keyword column from env, got %q", cfg.KeywordColumn)
	}
	if cfg.Rows != "all" || !cfg.RawLinks || cfg.MetricsPort != 9100 {
		t.Errorf("unexpected env values: rows=%q raw=%v port=%d", cfg.Rows, cfg.RawLinks, cfg.MetricsPort)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected env config to validate: %v", err)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	if _, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load(New(), "", nil)
	if err != nil {
		t.Fatal(err)
	}

	cfg.Engine = "altavista"
	cfg.Timeout = 0
	cfg.OnError = "retry"
	cfg.Report = "pdf"
	cfg.Jitter = 2
	cfg.Rows = "-1"

	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, serp.ErrUnknownEngine) {
		t.Errorf("expected ErrUnknownEngine in %v", err)
	}
	for _, want := range []string{"timeout", "retry", "pdf", "jitter", "row count"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestLevel(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	l, err := cfg.Level()
	if err != nil || l != slog.LevelDebug {
		t.Errorf("expected debug, got %v %v", l, err)
	}
	cfg.LogLevel = "loud"
	if _, err := cfg.Level(); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestPipelineConfig(t *testing.T) {
	cfg := &Config{Rows: "5", Delay: 0, MaxResults: 20, OnError: "continue"}
	pc, err := cfg.PipelineConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.Delay >= 0 {
		t.Errorf("expected zero delay to disable pacing, got %v", pc.Delay)
	}
	if pc.OnError != pipeline.Continue || pc.RowLimit != 5 || pc.MaxResults != 20 {
		t.Errorf("unexpected pipeline config: %+v", pc)
	}

	cfg.Rows = "0"
	if pc, err = cfg.PipelineConfig(); err != nil || pc.RowLimit != 0 {
		t.Errorf("expected a zero row limit to stay zero, got %d %v", pc.RowLimit, err)
	}
	cfg.Rows = "all"
	if pc, err = cfg.PipelineConfig(); err != nil || pc.RowLimit != pipeline.AllRows {
		t.Errorf("expected all rows, got %d %v", pc.RowLimit, err)
	}
}
