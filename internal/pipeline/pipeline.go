package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/FranksOps/serprank/internal/metrics"
	"github.com/FranksOps/serprank/internal/rank"
	"github.com/FranksOps/serprank/internal/serp"
	"github.com/FranksOps/serprank/internal/sheet"
	"github.com/FranksOps/serprank/pkg/ratelimit"
	"github.com/google/uuid"
)

// DefaultDelay is the pause after every row.
const DefaultDelay = 2 * time.Second

// AllRows as a RowLimit processes every row of the table.
const AllRows = -1

// Policy decides what a failed search does to the rest of the run.
type Policy string

const (
	// Abort stops at the first failed search. Rows after it are left untouched.
	Abort Policy = "abort"
	// Continue records the failed row as rank -1 and moves on.
	Continue Policy = "continue"
)

// ParsePolicy maps a name to a Policy. Empty means Abort.
func ParsePolicy(name string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return Abort, nil
	case Abort, Continue:
		return p, nil
	default:
		return "", fmt.Errorf("unknown error policy %q (expected abort or continue)", name)
	}
}

// ParseRowLimit reads a row count: "all" means AllRows, otherwise a
// non-negative integer.
func ParseRowLimit(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return AllRows, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid row count %q (expected a non-negative number or all)", s)
	}
	return n, nil
}

// Status is the outcome of one row.
type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Config controls a run.
type Config struct {
	// RowLimit is clamped to the table length. Zero processes nothing;
	// AllRows processes every row.
	RowLimit int
	// Delay is slept after each row, skipped or not. Zero means
	// DefaultDelay; negative disables the pause.
	Delay time.Duration
	// MaxResults is passed to the provider as the result limit.
	MaxResults int
	OnError    Policy
}

// RowResult is the record of one processed row.
type RowResult struct {
	// Index is the zero-based data row index.
	Index   int
	Keyword string
	URL     string
	Rank    rank.Value
	Status  Status
	// Results is the number of results the engine returned.
	Results int
	Err     error
}

// Outcome collects every row processed in a run, in order.
type Outcome struct {
	RunID    string
	Engine   string
	Started  time.Time
	Finished time.Time
	Rows     []RowResult
	// Requested is the clamped row limit; Rows may be shorter on abort.
	Requested int
}

// RowError is returned when a search fails under the Abort policy.
type RowError struct {
	Index   int
	Keyword string
	Err     error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%q): %v", e.Index, e.Keyword, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Pipeline checks the rank of every row of a table against one provider.
type Pipeline struct {
	Provider serp.Provider
	Config   Config
	Logger   *slog.Logger
	// Out receives one human-readable line per row. Nil discards them.
	Out io.Writer
	// Sleep pauses between rows. Nil means ratelimit.Pause.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run processes the table in place: the rank cell of every processed row
// is written exactly once. On abort it returns the partial outcome with a
// *RowError; on cancellation the partial outcome with ctx's error.
func (p *Pipeline) Run(ctx context.Context, t *sheet.Table, schema sheet.Schema) (*Outcome, error) {
	if p.Provider == nil {
		return nil, errors.New("pipeline: provider is nil")
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := p.Out
	if out == nil {
		out = io.Discard
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = ratelimit.Pause
	}
	delay := p.Config.Delay
	if delay == 0 {
		delay = DefaultDelay
	}
	policy := p.Config.OnError
	if policy == "" {
		policy = Abort
	}

	limit := p.Config.RowLimit
	if limit < 0 || limit > t.Len() {
		limit = t.Len()
	}

	outcome := &Outcome{
		RunID:     uuid.New().String(),
		Engine:    p.Provider.Name(),
		Started:   time.Now().UTC(),
		Requested: limit,
	}
	defer func() { outcome.Finished = time.Now().UTC() }()

	logger.Info("run started", "run_id", outcome.RunID, "engine", outcome.Engine, "rows", limit)

	for i := 0; i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		res := p.processRow(ctx, t, schema, i, out, logger)
		t.Set(i, schema.Rank, res.Rank.String())
		outcome.Rows = append(outcome.Rows, res)
		metrics.RecordRankCheck(string(res.Status))

		if res.Status == StatusFailed {
			if policy == Abort || ctx.Err() != nil {
				logger.Error("run aborted", "row", i, "keyword", res.Keyword, "err", res.Err)
				return outcome, &RowError{Index: i, Keyword: res.Keyword, Err: res.Err}
			}
			logger.Warn("search failed, continuing", "row", i, "keyword", res.Keyword, "err", res.Err)
		}

		if delay > 0 && i < limit-1 {
			if err := sleep(ctx, delay); err != nil {
				return outcome, err
			}
		}
	}

	logger.Info("run finished", "run_id", outcome.RunID, "rows", len(outcome.Rows))
	return outcome, nil
}

func (p *Pipeline) processRow(ctx context.Context, t *sheet.Table, schema sheet.Schema, i int, out io.Writer, logger *slog.Logger) RowResult {
	rawKeyword, rawTarget := t.Cell(i, schema.Keyword), t.Cell(i, schema.URL)
	keyword, target := strings.TrimSpace(rawKeyword), strings.TrimSpace(rawTarget)
	res := RowResult{Index: i, Keyword: keyword, URL: target, Rank: rank.NotFound}

	if sheet.IsMissing(rawKeyword) || sheet.IsMissing(rawTarget) {
		res.Status = StatusSkipped
		fmt.Fprintf(out, "Skipping row %d due to missing keyword or link.\n", i)
		logger.Debug("row skipped", "row", i)
		return res
	}

	fmt.Fprintf(out, "Searching for '%s' on %s...\n", keyword, p.Provider.Name())
	results, err := p.Provider.Search(ctx, keyword, p.Config.MaxResults)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		fmt.Fprintf(out, "%s - %s - Search failed: %v\n", keyword, target, err)
		return res
	}

	res.Results = len(results)
	res.Rank = rank.Resolve(serp.URLs(results), target)
	if res.Rank.Found() {
		res.Status = StatusFound
		fmt.Fprintf(out, "%s - %s - #%d\n", keyword, target, res.Rank)
	} else {
		res.Status = StatusNotFound
		fmt.Fprintf(out, "%s - %s - Not found in the top %d\n", keyword, target, len(results))
	}
	logger.Debug("row checked", "row", i, "keyword", keyword, "url", target, "rank", int(res.Rank), "results", len(results))
	return res
}
