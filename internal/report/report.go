package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"text/template"
	"time"

	"github.com/FranksOps/serprank/internal/pipeline"
)

// Row is the per-row line of a report.
type Row struct {
	Index   int    `json:"index"`
	Keyword string `json:"keyword"`
	URL     string `json:"url"`
	Rank    int    `json:"rank"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// Summary contains aggregated figures about a rank-check run.
type Summary struct {
	RunID     string         `json:"run_id"`
	Engine    string         `json:"engine"`
	Requested int            `json:"requested"`
	Processed int            `json:"processed"`
	Found     int            `json:"found"`
	ByStatus  map[string]int `json:"by_status"`
	// BestRank and WorstRank cover found rows only; 0 when nothing was found.
	BestRank  int           `json:"best_rank"`
	WorstRank int           `json:"worst_rank"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Rows      []Row         `json:"rows"`
}

// GenerateSummary aggregates the rows of a run.
func GenerateSummary(o *pipeline.Outcome) Summary {
	s := Summary{ByStatus: make(map[string]int)}
	if o == nil {
		return s
	}

	s.RunID = o.RunID
	s.Engine = o.Engine
	s.Requested = o.Requested
	s.StartTime = o.Started
	s.EndTime = o.Finished
	if !o.Finished.IsZero() {
		s.Duration = o.Finished.Sub(o.Started)
	}

	for _, r := range o.Rows {
		s.Processed++
		s.ByStatus[string(r.Status)]++

		row := Row{
			Index:   r.Index,
			Keyword: r.Keyword,
			URL:     r.URL,
			Rank:    int(r.Rank),
			Status:  string(r.Status),
		}
		if r.Err != nil {
			row.Error = r.Err.Error()
		}
		s.Rows = append(s.Rows, row)

		if !r.Rank.Found() {
			continue
		}
		s.Found++
		if s.BestRank == 0 || row.Rank < s.BestRank {
			s.BestRank = row.Rank
		}
		if row.Rank > s.WorstRank {
			s.WorstRank = row.Rank
		}
	}

	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Rank Check Summary
------------------
Run:        {{.RunID}} ({{.Engine}})
Time:       {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:   {{.Duration}}
Rows:       {{.Processed}} of {{.Requested}}
Found:      {{.Found}}
{{- if .Found}}
Best rank:  #{{.BestRank}}
Worst rank: #{{.WorstRank}}
{{- end}}

By Status:
{{- range $status, $count := .ByStatus}}
  {{$status}}: {{$count}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse text report: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render text report: %w", err)
	}

	return nil
}

// WriteHTML writes a basic HTML report to the provided writer. Keywords and
// URLs come from user files, so the page goes through html/template.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Rank Check Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
  .found { color: green; }
  .failed { color: red; }
</style>
</head>
<body>
  <h1>Rank Check Report</h1>
  <p><strong>Run:</strong> {{.RunID}} on {{.Engine}}</p>
  <p><strong>Time:</strong> {{.StartTime.Format "2006-01-02 15:04:05"}} to {{.EndTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Rows</div>
    <div class="stat-val">{{.Processed}}</div>
  </div>
  <div class="stat-card">
    <div>Found</div>
    <div class="stat-val">{{.Found}}</div>
  </div>
  <div class="stat-card">
    <div>Best Rank</div>
    <div class="stat-val">{{if .Found}}#{{.BestRank}}{{else}}-{{end}}</div>
  </div>
  <div class="stat-card">
    <div>Worst Rank</div>
    <div class="stat-val">{{if .Found}}#{{.WorstRank}}{{else}}-{{end}}</div>
  </div>

  <h3>Rows</h3>
  <table>
    <tr><th>Row</th><th>Keyword</th><th>URL</th><th>Rank</th><th>Status</th></tr>
    {{- range .Rows}}
    <tr class="{{.Status}}"><td>{{.Index}}</td><td>{{.Keyword}}</td><td>{{.URL}}</td><td>{{.Rank}}</td><td>{{.Status}}{{if .Error}}: {{.Error}}{{end}}</td></tr>
    {{- else}}
    <tr><td colspan="5">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := htmltemplate.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parse html report: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}

	return nil
}

// Write renders the summary in the named format: text, json or html.
// "none" writes nothing.
func Write(w io.Writer, format string, summary Summary) error {
	switch format {
	case "", "text":
		return WriteText(w, summary)
	case "json":
		return WriteJSON(w, summary)
	case "html":
		return WriteHTML(w, summary)
	case "none":
		return nil
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// Formats lists the names Write accepts.
func Formats() []string {
	return []string{"text", "json", "html", "none"}
}
