// Package fetcher executes single fetch tasks against the remote API:
// rate limiting, retry with backoff, adaptive re-chunking on truncated
// responses, and the sink and ledger writes that resolve a task.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quantlake/quantlake/pkg/catalog"
	"github.com/quantlake/quantlake/pkg/ledger"
	"github.com/quantlake/quantlake/pkg/planner"
	"github.com/quantlake/quantlake/pkg/tushare"
)

// Default retry behavior for transient failures.
const (
	DefaultMaxAttempts = 5
	DefaultBaseBackoff = 1 * time.Second
	DefaultMaxBackoff  = 30 * time.Second
)

// Client is the remote request/response contract the executor depends
// on. Vendor endpoint and auth details stay behind it.
type Client interface {
	Call(ctx context.Context, apiName string, params map[string]string) (*tushare.Result, error)
}

// RateLimiter gates every outbound call.
type RateLimiter interface {
	Acquire(ctx context.Context) error
}

// Sink receives the rows of a successfully fetched task.
type Sink interface {
	Write(dataset, partition string, res *tushare.Result) error
}

// Ledger records task outcomes.
type Ledger interface {
	MarkDone(dataset, key string, rows, attempts int) error
	MarkSkipped(dataset, key, reason string) error
	MarkFailed(dataset, key, reason string, attempts int) error
}

// Config tunes the executor.
type Config struct {
	// MaxAttempts bounds tries per call for transient failures
	MaxAttempts int
	// BaseBackoff is the first retry delay; it doubles per attempt
	BaseBackoff time.Duration
	// MaxBackoff clamps the retry delay
	MaxBackoff time.Duration
	// Range bounds adaptive entity-to-year splitting
	Range planner.Range
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = DefaultBaseBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
	return c
}

// Outcome is the resolution of one task.
type Outcome struct {
	// Status is the terminal status recorded in the ledger. Unset
	// when Aborted.
	Status ledger.Status
	// Rows is the number of rows written through the sink
	Rows int
	// Attempts is how many calls the top-level fetch took
	Attempts int
	// Reason explains skipped and failed outcomes
	Reason string
	// Aborted means the run was cancelled before the task resolved;
	// nothing was recorded and the task is replanned next run
	Aborted bool
}

// Executor runs tasks. Safe for concurrent use by multiple workers.
type Executor struct {
	client  Client
	limiter RateLimiter
	sink    Sink
	ledger  Ledger
	config  Config
	logger  *logrus.Logger
}

// New creates an Executor.
func New(client Client, limiter RateLimiter, sink Sink, ledg Ledger, config Config, logger *logrus.Logger) (*Executor, error) {
	if client == nil || limiter == nil || sink == nil || ledg == nil {
		return nil, fmt.Errorf("executor requires client, limiter, sink and ledger")
	}
	return &Executor{
		client:  client,
		limiter: limiter,
		sink:    sink,
		ledger:  ledg,
		config:  config.withDefaults(),
		logger:  logger,
	}, nil
}

// Execute runs one task to resolution. Sink and ledger writes happen
// only after the fetch fully succeeds, so a failed task leaves no
// partial partition behind.
func (e *Executor) Execute(ctx context.Context, desc catalog.Descriptor, task planner.Task) Outcome {
	res, attempts, err := e.fetchInterval(ctx, desc, task)
	if err != nil {
		return e.resolveError(ctx, task, attempts, err)
	}

	if err := e.sink.Write(task.Dataset, task.Partition, res); err != nil {
		e.logger.WithFields(logrus.Fields{
			"dataset":  task.Dataset,
			"task_key": task.Key,
			"error":    err,
		}).Error("Sink write failed")
		reason := fmt.Sprintf("sink write failed: %v", err)
		if lerr := e.ledger.MarkFailed(task.Dataset, task.Key, reason, attempts); lerr != nil {
			e.logLedgerFailure(task, lerr)
		}
		return Outcome{Status: ledger.StatusFailed, Attempts: attempts, Reason: reason}
	}

	if err := e.ledger.MarkDone(task.Dataset, task.Key, res.Rows(), attempts); err != nil {
		e.logLedgerFailure(task, err)
		return Outcome{Status: ledger.StatusFailed, Attempts: attempts, Reason: fmt.Sprintf("ledger write failed: %v", err)}
	}

	e.logger.WithFields(logrus.Fields{
		"dataset":   task.Dataset,
		"task_key":  task.Key,
		"partition": task.Partition,
		"rows":      res.Rows(),
	}).Info("Task done")

	return Outcome{Status: ledger.StatusDone, Rows: res.Rows(), Attempts: attempts}
}

// resolveError turns a fetch error into a recorded outcome. Permanent
// rejections are skipped without retry; cancellation resolves nothing.
func (e *Executor) resolveError(ctx context.Context, task planner.Task, attempts int, err error) Outcome {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Outcome{Aborted: true, Attempts: attempts}
	}

	if tushare.IsPermanent(err) {
		reason := err.Error()
		e.logger.WithFields(logrus.Fields{
			"dataset":  task.Dataset,
			"task_key": task.Key,
			"reason":   reason,
		}).Warn("Task skipped permanently")
		if lerr := e.ledger.MarkSkipped(task.Dataset, task.Key, reason); lerr != nil {
			e.logLedgerFailure(task, lerr)
			return Outcome{Status: ledger.StatusFailed, Attempts: attempts, Reason: fmt.Sprintf("ledger write failed: %v", lerr)}
		}
		return Outcome{Status: ledger.StatusSkipped, Attempts: attempts, Reason: reason}
	}

	reason := err.Error()
	e.logger.WithFields(logrus.Fields{
		"dataset":  task.Dataset,
		"task_key": task.Key,
		"attempts": attempts,
		"error":    err,
	}).Error("Task failed after retries")
	if lerr := e.ledger.MarkFailed(task.Dataset, task.Key, reason, attempts); lerr != nil {
		e.logLedgerFailure(task, lerr)
	}
	return Outcome{Status: ledger.StatusFailed, Attempts: attempts, Reason: reason}
}

func (e *Executor) logLedgerFailure(task planner.Task, err error) {
	e.logger.WithFields(logrus.Fields{
		"dataset":  task.Dataset,
		"task_key": task.Key,
		"error":    err,
	}).Error("Ledger write failed")
}

// fetchInterval fetches one task's interval, recursively re-planning it
// at a finer granularity when the response sits at the row ceiling and
// may be truncated. The returned attempts count is for the coarse call.
func (e *Executor) fetchInterval(ctx context.Context, desc catalog.Descriptor, task planner.Task) (*tushare.Result, int, error) {
	res, attempts, err := e.fetchWithRetry(ctx, task)
	if err != nil {
		return nil, attempts, err
	}

	ceiling := ceilingFor(task.Chunk.Kind)
	if ceiling == 0 || res.Rows() < ceiling {
		return res, attempts, nil
	}

	children := planner.Split(desc, task, e.config.Range)
	if len(children) == 0 {
		e.logger.WithFields(logrus.Fields{
			"dataset":  task.Dataset,
			"task_key": task.Key,
			"rows":     res.Rows(),
			"ceiling":  ceiling,
		}).Warn("Response at row ceiling with no finer granularity; rows may be truncated")
		return res, attempts, nil
	}

	e.logger.WithFields(logrus.Fields{
		"dataset":  task.Dataset,
		"task_key": task.Key,
		"rows":     res.Rows(),
		"ceiling":  ceiling,
		"children": len(children),
	}).Info("Response at row ceiling; re-fetching at finer granularity")

	// discard the possibly truncated rows and rebuild from children
	merged := &tushare.Result{}
	for _, child := range children {
		childRes, _, err := e.fetchInterval(ctx, desc, child)
		if err != nil {
			return nil, attempts, fmt.Errorf("sub-fetch %s failed: %w", child.Key, err)
		}
		merged.Append(childRes)
	}

	return merged, attempts, nil
}

// fetchWithRetry performs one rate-limited call with bounded, jittered
// exponential backoff on transient failures. Permanent rejections and
// cancellation return immediately.
func (e *Executor) fetchWithRetry(ctx context.Context, task planner.Task) (*tushare.Result, int, error) {
	var lastErr error

	for attempt := 1; attempt <= e.config.MaxAttempts; attempt++ {
		if err := e.limiter.Acquire(ctx); err != nil {
			return nil, attempt, err
		}

		res, err := e.client.Call(ctx, task.Dataset, task.Params)
		if err == nil {
			return res, attempt, nil
		}
		lastErr = err

		if tushare.IsPermanent(err) || ctx.Err() != nil {
			return nil, attempt, err
		}

		if attempt < e.config.MaxAttempts {
			backoff := calculateBackoff(attempt, e.config.BaseBackoff, e.config.MaxBackoff)
			e.logger.WithFields(logrus.Fields{
				"dataset":  task.Dataset,
				"task_key": task.Key,
				"attempt":  attempt,
				"backoff":  backoff.String(),
				"error":    err,
			}).Warn("Transient failure, retrying")

			select {
			case <-ctx.Done():
				return nil, attempt, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, e.config.MaxAttempts, fmt.Errorf("all %d attempts failed: %w", e.config.MaxAttempts, lastErr)
}

// calculateBackoff doubles the delay per attempt, clamps it to max and
// jitters by up to 25% so workers retrying together spread out.
func calculateBackoff(attempt int, base, max time.Duration) time.Duration {
	backoff := base * time.Duration(1<<(attempt-1))
	if backoff > max || backoff <= 0 {
		backoff = max
	}

	jitter := time.Duration(rand.Int63n(int64(backoff)/4 + 1))
	return backoff - jitter
}

// ceilingFor returns the response row ceiling applicable to a chunk
// kind, or zero when no ceiling is known.
func ceilingFor(kind planner.ChunkKind) int {
	switch kind {
	case planner.KindWhole, planner.KindEntity:
		return tushare.MaxRowsEntityScoped
	case planner.KindYear, planner.KindMonth, planner.KindQuarter, planner.KindDate,
		planner.KindEntityYear, planner.KindEntityMonth:
		return tushare.MaxRowsRangeScoped
	default:
		return 0
	}
}
