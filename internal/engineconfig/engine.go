// Package engineconfig wires the acquisition engine together from the
// environment and run flags: remote client, ledger, sink, rate limiter,
// planner, executor and scheduler.
package engineconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quantlake/quantlake/pkg/catalog"
	"github.com/quantlake/quantlake/pkg/db"
	"github.com/quantlake/quantlake/pkg/entities"
	"github.com/quantlake/quantlake/pkg/fetcher"
	"github.com/quantlake/quantlake/pkg/ledger"
	"github.com/quantlake/quantlake/pkg/planner"
	"github.com/quantlake/quantlake/pkg/ratelimit"
	"github.com/quantlake/quantlake/pkg/scheduler"
	"github.com/quantlake/quantlake/pkg/sink"
	"github.com/quantlake/quantlake/pkg/tushare"
)

// Options are the run-scoped knobs from the CLI. Zero values fall back
// to environment settings and their defaults.
type Options struct {
	Workers   int
	RPM       int
	StartYear int
	EndYear   int

	Logger *logrus.Logger
}

// Engine is the assembled acquisition engine for one process.
type Engine struct {
	Catalog   *catalog.Catalog
	Scheduler *scheduler.Scheduler

	// ReportDir is where run reports are saved
	ReportDir string
}

// Configure builds the engine. Configuration errors here are the only
// fatal ones; everything later is isolated per task.
func Configure(opts Options) (*Engine, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}

	cat, err := catalog.Builtin()
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset catalog: %w", err)
	}

	clientConfig, err := tushare.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load client config: %w", err)
	}
	clientConfig.Logger = log

	client, err := tushare.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote client: %w", err)
	}

	database, err := db.Setup(log)
	if err != nil {
		return nil, fmt.Errorf("failed to set up ledger database: %w", err)
	}

	store, err := ledger.NewStore(log, database)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress ledger: %w", err)
	}

	dataDir := getEnvOrDefault("QUANTLAKE_DATA_DIR", "data")
	csvSink, err := sink.NewCSVSink(dataDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create sink: %w", err)
	}

	rpm := opts.RPM
	if rpm <= 0 {
		rpm = envInt("QUANTLAKE_RPM", 500)
	}
	limiter := ratelimit.New(rpm, envInt("QUANTLAKE_BURST", 20))

	rng := planner.DefaultRange()
	if v := envInt("QUANTLAKE_START_YEAR", 0); v > 0 {
		rng.StartYear = v
	}
	if v := envInt("QUANTLAKE_END_YEAR", 0); v > 0 {
		rng.EndYear = v
	}
	if v := envInt("QUANTLAKE_DATE_FLOOR_YEAR", 0); v > 0 {
		rng.DateFloorYear = v
	}
	if opts.StartYear > 0 {
		rng.StartYear = opts.StartYear
	}
	if opts.EndYear > 0 {
		rng.EndYear = opts.EndYear
	}

	lister := entities.NewTushareLister(client, log)

	plan, err := planner.New(rng, store, lister, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create planner: %w", err)
	}

	executor, err := fetcher.New(client, limiter, csvSink, store, fetcher.Config{
		MaxAttempts: envInt("QUANTLAKE_MAX_RETRIES", fetcher.DefaultMaxAttempts),
		BaseBackoff: time.Duration(envInt("QUANTLAKE_RETRY_BASE_MS", 1000)) * time.Millisecond,
		Range:       rng,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = envInt("QUANTLAKE_MAX_WORKERS", scheduler.DefaultMaxWorkers)
	}

	sched, err := scheduler.New(scheduler.Config{
		Catalog:    cat,
		Planner:    plan,
		Executor:   executor,
		Limiter:    limiter,
		Logger:     log,
		MaxWorkers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Engine{
		Catalog:   cat,
		Scheduler: sched,
		ReportDir: filepath.Join(dataDir, "reports"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
