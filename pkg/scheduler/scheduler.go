// Package scheduler drains planned fetch tasks across a bounded worker
// pool and aggregates every outcome into the run report.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quantlake/quantlake/pkg/catalog"
	"github.com/quantlake/quantlake/pkg/fetcher"
	"github.com/quantlake/quantlake/pkg/ledger"
	"github.com/quantlake/quantlake/pkg/planner"
	"github.com/quantlake/quantlake/pkg/ratelimit"
	"github.com/quantlake/quantlake/pkg/report"
)

const (
	// DefaultMaxWorkers bounds concurrent fetch tasks
	DefaultMaxWorkers = 4

	// DefaultStatusInterval is how often the scheduler logs progress
	DefaultStatusInterval = 30 * time.Second
)

// Planner expands one descriptor into its remaining tasks.
type Planner interface {
	Plan(ctx context.Context, desc catalog.Descriptor) ([]planner.Task, error)
}

// Executor resolves one task.
type Executor interface {
	Execute(ctx context.Context, desc catalog.Descriptor, task planner.Task) fetcher.Outcome
}

// Config assembles a Scheduler.
type Config struct {
	Catalog  *catalog.Catalog
	Planner  Planner
	Executor Executor
	// Limiter is only consulted for report stats
	Limiter *ratelimit.Limiter
	Logger  *logrus.Logger

	// MaxWorkers bounds the worker pool
	MaxWorkers int
	// StatusInterval is how often progress is logged
	StatusInterval time.Duration
}

// Scheduler owns one run: planning, dispatch and the report.
type Scheduler struct {
	config Config
	logger *logrus.Logger
}

// New creates a Scheduler.
func New(config Config) (*Scheduler, error) {
	if config.Catalog == nil || config.Planner == nil || config.Executor == nil {
		return nil, fmt.Errorf("scheduler requires a catalog, planner and executor")
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultMaxWorkers
	}
	if config.StatusInterval <= 0 {
		config.StatusInterval = DefaultStatusInterval
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	return &Scheduler{config: config, logger: config.Logger}, nil
}

// work pairs a task with its descriptor for the executor.
type work struct {
	desc catalog.Descriptor
	task planner.Task
}

// result carries one resolved task back to the aggregator.
type result struct {
	desc    catalog.Descriptor
	task    planner.Task
	outcome fetcher.Outcome
}

// Run plans every selected dataset, executes the tasks and returns the
// report. Individual task failures never abort the run; cancellation
// stops dispatch, lets in-flight tasks wind down and finalizes the
// report from whatever resolved.
func (s *Scheduler) Run(ctx context.Context, sel catalog.Selection) (*report.Report, error) {
	descriptors, err := s.config.Catalog.Select(sel)
	if err != nil {
		return nil, err
	}

	rep := report.New()

	s.logger.WithFields(logrus.Fields{
		"run_id":   rep.RunID,
		"datasets": len(descriptors),
		"workers":  s.config.MaxWorkers,
	}).Info("Starting run")

	var queue []work
	for _, desc := range descriptors {
		if ctx.Err() != nil {
			break
		}
		tasks, err := s.config.Planner.Plan(ctx, desc)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"dataset": desc.Name,
				"error":   err,
			}).Error("Planning failed, dataset left for next run")
			rep.AddFailed(desc.Name, "plan", fmt.Sprintf("planning failed: %v", err))
			continue
		}
		rep.AddPlanned(desc.Name, len(tasks))
		for _, t := range tasks {
			queue = append(queue, work{desc: desc, task: t})
		}
	}

	s.logger.WithFields(logrus.Fields{
		"run_id": rep.RunID,
		"tasks":  len(queue),
	}).Info("Planned run")

	s.dispatch(ctx, rep, queue)

	interrupted := ctx.Err() != nil
	var stats ratelimit.Stats
	if s.config.Limiter != nil {
		stats = s.config.Limiter.Stats()
	}
	rep.Finalize(stats, interrupted)

	totals := rep.Totals()
	s.logger.WithFields(logrus.Fields{
		"run_id":      rep.RunID,
		"done":        totals.Done,
		"skipped":     totals.Skipped,
		"failed":      totals.Failed,
		"rows":        totals.Rows,
		"interrupted": interrupted,
	}).Info("Run finished")

	return rep, nil
}

// dispatch fans the queue out to the worker pool and folds results into
// the report as they resolve.
func (s *Scheduler) dispatch(ctx context.Context, rep *report.Report, queue []work) {
	if len(queue) == 0 {
		return
	}

	workCh := make(chan work)
	resultCh := make(chan result)

	var processed atomic.Int64
	total := int64(len(queue))

	stopReporter := make(chan struct{})
	go s.reportStatus(stopReporter, &processed, total)

	// producer: stops dispatching as soon as the run is cancelled
	go func() {
		defer close(workCh)
		for _, w := range queue {
			select {
			case <-ctx.Done():
				return
			case workCh <- w:
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < s.config.MaxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				outcome := s.config.Executor.Execute(ctx, w.desc, w.task)
				resultCh <- result{desc: w.desc, task: w.task, outcome: outcome}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for res := range resultCh {
		processed.Add(1)
		s.aggregate(rep, res)
	}
	close(stopReporter)
}

// aggregate folds one outcome into the report. Aborted tasks were never
// recorded anywhere and stay out of the report; they replan next run.
func (s *Scheduler) aggregate(rep *report.Report, res result) {
	o := res.outcome
	if o.Aborted {
		return
	}
	switch o.Status {
	case ledger.StatusDone:
		rep.AddDone(res.task.Dataset, o.Rows)
	case ledger.StatusSkipped:
		rep.AddSkipped(res.task.Dataset, res.task.Key, o.Reason)
	case ledger.StatusFailed:
		rep.AddFailed(res.task.Dataset, res.task.Key, o.Reason)
	}
}

func (s *Scheduler) reportStatus(stop <-chan struct{}, processed *atomic.Int64, total int64) {
	ticker := time.NewTicker(s.config.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			done := processed.Load()
			s.logger.WithFields(logrus.Fields{
				"processed": done,
				"total":     total,
				"pct":       fmt.Sprintf("%.1f", float64(done)/float64(total)*100),
			}).Info("Run progress")
		}
	}
}
