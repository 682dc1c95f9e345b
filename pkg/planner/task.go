package planner

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/quantlake/quantlake/pkg/catalog"
)

// ChunkKind identifies the logical interval one task covers. The
// executor uses it to pick the response ceiling and the finer
// granularity when a response looks truncated.
type ChunkKind string

const (
	// KindWhole covers the entire dataset in one call
	KindWhole ChunkKind = "whole"
	// KindYear covers one calendar year as a date range
	KindYear ChunkKind = "year"
	// KindMonth covers one calendar month as a date range
	KindMonth ChunkKind = "month"
	// KindQuarter covers one quarter-end reporting period
	KindQuarter ChunkKind = "quarter"
	// KindDate covers one calendar date
	KindDate ChunkKind = "date"
	// KindEntity covers the full history of one instrument
	KindEntity ChunkKind = "entity"
	// KindEntityYear covers one instrument over one calendar year
	KindEntityYear ChunkKind = "entity_year"
	// KindEntityMonth covers one instrument over one calendar month
	KindEntityMonth ChunkKind = "entity_month"
)

// Chunk is the logical interval behind a task's parameters. Only the
// fields relevant to Kind are set.
type Chunk struct {
	Kind   ChunkKind
	Year   int
	Month  time.Month
	Period string // quarter end, YYYYMMDD
	Date   string // YYYYMMDD
	Entity string
}

// Task is one unit of work: the parameters for exactly one API call.
// Tasks are immutable once created; adaptive splitting produces new
// child tasks instead of mutating the parent.
type Task struct {
	// Dataset is the owning dataset (and remote API) name
	Dataset string
	// Params is the full parameter set for the call, fixed params
	// included
	Params map[string]string
	// Key is the canonical ledger key derived from Params
	Key string
	// Partition is the sink partition this task owns
	Partition string
	// Chunk is the logical interval the task covers
	Chunk Chunk
}

// taskKey derives the canonical ledger key from a parameter set. Sorted
// k=v pairs make the key deterministic; distinct parameter sets of the
// same dataset always produce distinct keys.
func taskKey(params map[string]string) string {
	if len(params) == 0 {
		return "all"
	}
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

// baseParams copies the descriptor's fixed params as the starting
// parameter set for a task.
func baseParams(desc catalog.Descriptor) map[string]string {
	params := make(map[string]string, len(desc.FixedParams)+3)
	for k, v := range desc.FixedParams {
		params[k] = v
	}
	return params
}

func newTask(desc catalog.Descriptor, params map[string]string, partition string, chunk Chunk) Task {
	return Task{
		Dataset:   desc.Name,
		Params:    params,
		Key:       taskKey(params),
		Partition: partition,
		Chunk:     chunk,
	}
}

func newWholeTask(desc catalog.Descriptor) Task {
	return newTask(desc, baseParams(desc), "", Chunk{Kind: KindWhole})
}

func newYearTask(desc catalog.Descriptor, year int) Task {
	params := baseParams(desc)
	params[desc.StartDateParam] = fmt.Sprintf("%d0101", year)
	params[desc.EndDateParam] = fmt.Sprintf("%d1231", year)
	return newTask(desc, params, fmt.Sprintf("year=%d", year), Chunk{Kind: KindYear, Year: year})
}

func newMonthTask(desc catalog.Descriptor, year int, month time.Month) Task {
	params := baseParams(desc)
	params[desc.StartDateParam] = fmt.Sprintf("%d%02d01", year, month)
	params[desc.EndDateParam] = fmt.Sprintf("%d%02d%02d", year, month, lastDay(year, month))
	return newTask(desc, params, fmt.Sprintf("month=%d%02d", year, month),
		Chunk{Kind: KindMonth, Year: year, Month: month})
}

func newQuarterTask(desc catalog.Descriptor, period string) Task {
	params := baseParams(desc)
	params[desc.PeriodParam] = period
	return newTask(desc, params, "quarter="+period, Chunk{Kind: KindQuarter, Period: period})
}

func newDateTask(desc catalog.Descriptor, date string) Task {
	params := baseParams(desc)
	params[desc.DateParam] = date
	return newTask(desc, params, "date="+date, Chunk{Kind: KindDate, Date: date})
}

func newEntityTask(desc catalog.Descriptor, code string) Task {
	params := baseParams(desc)
	params[desc.EntityParam] = code
	return newTask(desc, params, desc.EntityParam+"="+code, Chunk{Kind: KindEntity, Entity: code})
}

func newEntityYearTask(desc catalog.Descriptor, code string, year int) Task {
	params := baseParams(desc)
	params[desc.EntityParam] = code
	params[desc.StartDateParam] = fmt.Sprintf("%d0101", year)
	params[desc.EndDateParam] = fmt.Sprintf("%d1231", year)
	partition := fmt.Sprintf("%s=%s/year=%d", desc.EntityParam, code, year)
	return newTask(desc, params, partition, Chunk{Kind: KindEntityYear, Entity: code, Year: year})
}

func newEntityMonthTask(desc catalog.Descriptor, code string, year int, month time.Month) Task {
	params := baseParams(desc)
	params[desc.EntityParam] = code
	params[desc.StartDateParam] = fmt.Sprintf("%d%02d01", year, month)
	params[desc.EndDateParam] = fmt.Sprintf("%d%02d%02d", year, month, lastDay(year, month))
	partition := fmt.Sprintf("%s=%s/month=%d%02d", desc.EntityParam, code, year, month)
	return newTask(desc, params, partition,
		Chunk{Kind: KindEntityMonth, Entity: code, Year: year, Month: month})
}

// lastDay returns the last day of the month.
func lastDay(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
