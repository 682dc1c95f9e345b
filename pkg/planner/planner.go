// Package planner expands dataset descriptors into bounded, ordered
// sequences of fetch tasks and filters out work that earlier runs
// already finished.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quantlake/quantlake/pkg/catalog"
)

// quarterEnds are the four reporting period ends within a year, MMDD.
var quarterEnds = []string{"0331", "0630", "0930", "1231"}

// Range bounds the calendar intervals the planner expands over.
type Range struct {
	// StartYear / EndYear bound year and quarter chunking, inclusive
	StartYear int
	EndYear   int
	// DateFloorYear narrows per-date chunking for high-volume
	// datasets; dates before max(DateFloorYear, StartYear) are not
	// planned
	DateFloorYear int
}

// DefaultRange covers 1990 through the current year, with per-date
// datasets floored at 2020.
func DefaultRange() Range {
	return Range{
		StartYear:     1990,
		EndYear:       time.Now().Year(),
		DateFloorYear: 2020,
	}
}

// Validate checks the range is usable.
func (r Range) Validate() error {
	if r.StartYear <= 0 || r.EndYear < r.StartYear {
		return fmt.Errorf("invalid year range [%d, %d]", r.StartYear, r.EndYear)
	}
	return nil
}

// LedgerView is the read side of the progress ledger the planner
// filters against.
type LedgerView interface {
	CompletedKeys(dataset string) (map[string]struct{}, error)
}

// EntityLister resolves the instrument universe for entity-chunked
// datasets.
type EntityLister interface {
	List(ctx context.Context, kind catalog.EntityKind) ([]string, error)
}

// Planner expands descriptors into tasks.
type Planner struct {
	rng      Range
	ledger   LedgerView
	entities EntityLister
	logger   *logrus.Logger
}

// New creates a Planner.
func New(rng Range, ledger LedgerView, entities EntityLister, logger *logrus.Logger) (*Planner, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return &Planner{
		rng:      rng,
		ledger:   ledger,
		entities: entities,
		logger:   logger,
	}, nil
}

// Plan expands desc into its full ordered task sequence, minus every
// task whose key the ledger already holds as done or skipped. Disabled
// descriptors plan to nothing. Ordering is ascending by date or entity
// code, stable across calls.
func (p *Planner) Plan(ctx context.Context, desc catalog.Descriptor) ([]Task, error) {
	if !desc.Enabled {
		return nil, nil
	}

	all, err := p.expand(ctx, desc)
	if err != nil {
		return nil, err
	}

	completed, err := p.ledger.CompletedKeys(desc.Name)
	if err != nil {
		return nil, err
	}

	tasks := all[:0]
	for _, t := range all {
		if _, done := completed[t.Key]; done {
			continue
		}
		tasks = append(tasks, t)
	}

	p.logger.WithFields(logrus.Fields{
		"dataset":   desc.Name,
		"policy":    desc.Policy,
		"expanded":  len(all),
		"remaining": len(tasks),
	}).Debug("Planned dataset")

	return tasks, nil
}

// expand generates the full task sequence for desc, before ledger
// filtering. One case per policy; adding a policy means adding a case
// here and a split rule in split.go.
func (p *Planner) expand(ctx context.Context, desc catalog.Descriptor) ([]Task, error) {
	switch desc.Policy {
	case catalog.ChunkNone:
		return []Task{newWholeTask(desc)}, nil

	case catalog.ChunkByYear:
		var tasks []Task
		for year := p.rng.StartYear; year <= p.rng.EndYear; year++ {
			tasks = append(tasks, newYearTask(desc, year))
		}
		return tasks, nil

	case catalog.ChunkByQuarter:
		var tasks []Task
		for year := p.rng.StartYear; year <= p.rng.EndYear; year++ {
			for _, mmdd := range quarterEnds {
				tasks = append(tasks, newQuarterTask(desc, fmt.Sprintf("%d%s", year, mmdd)))
			}
		}
		return tasks, nil

	case catalog.ChunkByDate:
		var tasks []Task
		for _, date := range p.dateRange() {
			tasks = append(tasks, newDateTask(desc, date))
		}
		return tasks, nil

	case catalog.ChunkByEntity:
		codes, err := p.entities.List(ctx, desc.EntityKind)
		if err != nil {
			return nil, fmt.Errorf("failed to plan %s: %w", desc.Name, err)
		}
		var tasks []Task
		for _, code := range codes {
			tasks = append(tasks, newEntityTask(desc, code))
		}
		return tasks, nil

	case catalog.ChunkByEntityAndDate:
		codes, err := p.entities.List(ctx, desc.EntityKind)
		if err != nil {
			return nil, fmt.Errorf("failed to plan %s: %w", desc.Name, err)
		}
		var tasks []Task
		for _, code := range codes {
			for year := p.rng.StartYear; year <= p.rng.EndYear; year++ {
				tasks = append(tasks, newEntityYearTask(desc, code, year))
			}
		}
		return tasks, nil

	default:
		// unreachable after catalog validation
		return nil, fmt.Errorf("dataset %s: unknown chunk policy %q", desc.Name, desc.Policy)
	}
}

// dateRange lists every weekday from the floored start year through the
// end year, formatted YYYYMMDD. Weekends are never trading days, so
// they are not planned.
func (p *Planner) dateRange() []string {
	startYear := p.rng.StartYear
	if p.rng.DateFloorYear > startYear {
		startYear = p.rng.DateFloorYear
	}

	var dates []string
	current := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(p.rng.EndYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	for !current.After(end) {
		if wd := current.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, current.Format("20060102"))
		}
		current = current.AddDate(0, 0, 1)
	}
	return dates
}
