package planner

import (
	"time"

	"github.com/quantlake/quantlake/pkg/catalog"
)

// Split re-plans a task's interval at the next finer granularity, for
// use when a response hit the row ceiling and may be truncated. Year
// ranges split into months; full-history entity tasks split into
// per-year ranges over rng. Returns nil when the task is already at the
// finest granularity.
//
// Children are plain tasks flowing through the same executor path; only
// the parent's key is ever recorded in the ledger.
func Split(desc catalog.Descriptor, task Task, rng Range) []Task {
	switch task.Chunk.Kind {
	case KindYear:
		children := make([]Task, 0, 12)
		for month := time.January; month <= time.December; month++ {
			children = append(children, newMonthTask(desc, task.Chunk.Year, month))
		}
		return children

	case KindEntity:
		children := make([]Task, 0, rng.EndYear-rng.StartYear+1)
		for year := rng.StartYear; year <= rng.EndYear; year++ {
			children = append(children, newEntityYearTask(desc, task.Chunk.Entity, year))
		}
		return children

	case KindEntityYear:
		children := make([]Task, 0, 12)
		for month := time.January; month <= time.December; month++ {
			children = append(children, newEntityMonthTask(desc, task.Chunk.Entity, task.Chunk.Year, month))
		}
		return children

	default:
		// whole, quarter, date and month chunks have no finer form
		return nil
	}
}
