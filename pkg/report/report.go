// Package report aggregates per-dataset run statistics into the
// structured summary a run always terminates with.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/quantlake/quantlake/pkg/ratelimit"
)

// DatasetStats counts task outcomes for one dataset.
type DatasetStats struct {
	Planned int `json:"planned"`
	Done    int `json:"done"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Rows    int `json:"rows"`
}

// Failure is one non-done task and why it did not finish.
type Failure struct {
	Dataset string `json:"dataset"`
	TaskKey string `json:"task_key"`
	Status  string `json:"status"`
	Reason  string `json:"reason"`
}

// Report is the aggregate outcome of one run. It is owned by the
// scheduler and never shared across runs.
type Report struct {
	RunID       string                   `json:"run_id"`
	StartedAt   time.Time                `json:"started_at"`
	FinishedAt  time.Time                `json:"finished_at"`
	Interrupted bool                     `json:"interrupted"`
	PerDataset  map[string]*DatasetStats `json:"per_dataset"`
	Failures    []Failure                `json:"failures"`
	RateLimit   ratelimit.Stats          `json:"rate_limit"`
}

// New creates an empty report for a fresh run.
func New() *Report {
	return &Report{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now(),
		PerDataset: make(map[string]*DatasetStats),
	}
}

func (r *Report) dataset(name string) *DatasetStats {
	s, ok := r.PerDataset[name]
	if !ok {
		s = &DatasetStats{}
		r.PerDataset[name] = s
	}
	return s
}

// AddPlanned records how many tasks were planned for a dataset.
func (r *Report) AddPlanned(dataset string, n int) {
	r.dataset(dataset).Planned += n
}

// AddDone records a successful task.
func (r *Report) AddDone(dataset string, rows int) {
	s := r.dataset(dataset)
	s.Done++
	s.Rows += rows
}

// AddSkipped records a permanently skipped task.
func (r *Report) AddSkipped(dataset, key, reason string) {
	r.dataset(dataset).Skipped++
	r.Failures = append(r.Failures, Failure{
		Dataset: dataset, TaskKey: key, Status: "skipped", Reason: reason,
	})
}

// AddFailed records a task that exhausted its retries.
func (r *Report) AddFailed(dataset, key, reason string) {
	r.dataset(dataset).Failed++
	r.Failures = append(r.Failures, Failure{
		Dataset: dataset, TaskKey: key, Status: "failed", Reason: reason,
	})
}

// Totals sums the per-dataset stats.
func (r *Report) Totals() DatasetStats {
	var t DatasetStats
	for _, s := range r.PerDataset {
		t.Planned += s.Planned
		t.Done += s.Done
		t.Skipped += s.Skipped
		t.Failed += s.Failed
		t.Rows += s.Rows
	}
	return t
}

// Finalize stamps the end time and limiter stats.
func (r *Report) Finalize(stats ratelimit.Stats, interrupted bool) {
	r.FinishedAt = time.Now()
	r.RateLimit = stats
	r.Interrupted = interrupted
}

// Save writes the report as JSON under dir, named by run ID.
func (r *Report) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("run_%s.json", r.RunID))
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Render prints a human readable summary table.
func (r *Report) Render(w io.Writer, noColor bool) {
	header := color.New(color.FgCyan, color.Bold)
	okColor := color.New(color.FgGreen)
	warnColor := color.New(color.FgYellow)
	failColor := color.New(color.FgRed)
	if noColor {
		for _, c := range []*color.Color{header, okColor, warnColor, failColor} {
			c.DisableColor()
		}
	}

	names := make([]string, 0, len(r.PerDataset))
	for name := range r.PerDataset {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w)
	header.Fprintf(w, "%-22s %8s %8s %8s %8s %12s\n",
		"dataset", "planned", "done", "skipped", "failed", "rows")
	for _, name := range names {
		s := r.PerDataset[name]
		fmt.Fprintf(w, "%-22s %8d ", name, s.Planned)
		okColor.Fprintf(w, "%8d ", s.Done)
		warnColor.Fprintf(w, "%8d ", s.Skipped)
		failColor.Fprintf(w, "%8d ", s.Failed)
		fmt.Fprintf(w, "%12d\n", s.Rows)
	}

	t := r.Totals()
	elapsed := r.FinishedAt.Sub(r.StartedAt).Round(time.Second)
	fmt.Fprintf(w, "\ntotal: %d planned, %d done, %d skipped, %d failed, %d rows in %s",
		t.Planned, t.Done, t.Skipped, t.Failed, t.Rows, elapsed)
	if r.Interrupted {
		warnColor.Fprint(w, " (interrupted)")
	}
	fmt.Fprintf(w, "\nrequests: %d (%.1f effective rpm)\n", r.RateLimit.Requests, r.RateLimit.EffectiveRPM)

	if len(r.Failures) > 0 {
		fmt.Fprintln(w)
		header.Fprintln(w, "unresolved tasks:")
		for _, f := range r.Failures {
			failColor.Fprintf(w, "  %-9s", f.Status)
			fmt.Fprintf(w, " %s %s: %s\n", f.Dataset, f.TaskKey, f.Reason)
		}
	}
}
