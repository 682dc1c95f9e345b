package catalog

import (
	"fmt"
	"sort"
)

// ChunkPolicy determines how a dataset's full extraction is decomposed
// into individual fetch tasks.
type ChunkPolicy string

const (
	// ChunkNone fetches the whole dataset in a single call
	ChunkNone ChunkPolicy = "none"
	// ChunkByYear fetches one calendar year per call using a date range
	ChunkByYear ChunkPolicy = "year"
	// ChunkByQuarter fetches one reporting period (quarter end) per call
	ChunkByQuarter ChunkPolicy = "quarter"
	// ChunkByDate fetches one calendar date per call
	ChunkByDate ChunkPolicy = "date"
	// ChunkByEntity fetches one instrument code per call
	ChunkByEntity ChunkPolicy = "entity"
	// ChunkByEntityAndDate fetches one instrument code per outer chunk,
	// split into yearly date ranges per call
	ChunkByEntityAndDate ChunkPolicy = "entity_date"
)

// EntityKind selects which instrument universe an entity-chunked dataset
// iterates over.
type EntityKind string

const (
	EntityStock EntityKind = "stock"
	EntityFund  EntityKind = "fund"
	EntityIndex EntityKind = "index"
)

// Default parameter names used by the remote API unless a descriptor
// overrides them.
const (
	DefaultStartDateParam = "start_date"
	DefaultEndDateParam   = "end_date"
	DefaultDateParam      = "trade_date"
	DefaultPeriodParam    = "period"
	DefaultEntityParam    = "ts_code"
)

// Descriptor is the immutable per-dataset configuration consumed by the
// planner and scheduler. Descriptors are validated once at catalog load,
// never per task.
type Descriptor struct {
	// Name is the remote API name and the unique dataset identifier
	Name string
	// Description is a human readable summary for listings
	Description string
	// Policy selects how the dataset is chunked into tasks
	Policy ChunkPolicy
	// DateParam is the single-date parameter name (ChunkByDate)
	DateParam string
	// PeriodParam is the quarter-end parameter name (ChunkByQuarter)
	PeriodParam string
	// StartDateParam / EndDateParam bound date-range chunks
	StartDateParam string
	EndDateParam   string
	// EntityParam carries the instrument code (entity policies)
	EntityParam string
	// EntityKind selects the instrument universe (entity policies)
	EntityKind EntityKind
	// FixedParams are constant parameters merged into every task
	FixedParams map[string]string
	// Category groups related datasets for selection and reporting
	Category string
	// Priority orders downloads: 1 is highest, 3 lowest
	Priority int
	// Enabled datasets are planned; disabled ones produce zero tasks
	Enabled bool
}

// withDefaults returns a copy with unset parameter names filled in.
func (d Descriptor) withDefaults() Descriptor {
	if d.StartDateParam == "" {
		d.StartDateParam = DefaultStartDateParam
	}
	if d.EndDateParam == "" {
		d.EndDateParam = DefaultEndDateParam
	}
	if d.DateParam == "" && d.Policy == ChunkByDate {
		d.DateParam = DefaultDateParam
	}
	if d.PeriodParam == "" && d.Policy == ChunkByQuarter {
		d.PeriodParam = DefaultPeriodParam
	}
	if d.EntityParam == "" && (d.Policy == ChunkByEntity || d.Policy == ChunkByEntityAndDate) {
		d.EntityParam = DefaultEntityParam
	}
	if d.Priority == 0 {
		d.Priority = 1
	}
	return d
}

// Validate checks the policy/field invariants for a single descriptor.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("descriptor has empty name")
	}

	switch d.Policy {
	case ChunkNone:
		// no chunk parameters required
	case ChunkByYear:
		if d.StartDateParam == "" || d.EndDateParam == "" {
			return fmt.Errorf("dataset %s: year chunking requires start/end date params", d.Name)
		}
	case ChunkByQuarter:
		if d.PeriodParam == "" {
			return fmt.Errorf("dataset %s: quarter chunking requires a period param", d.Name)
		}
	case ChunkByDate:
		if d.DateParam == "" {
			return fmt.Errorf("dataset %s: date chunking requires a date param", d.Name)
		}
	case ChunkByEntity:
		if d.EntityParam == "" {
			return fmt.Errorf("dataset %s: entity chunking requires an entity param", d.Name)
		}
		if d.EntityKind == "" {
			return fmt.Errorf("dataset %s: entity chunking requires an entity kind", d.Name)
		}
	case ChunkByEntityAndDate:
		if d.EntityParam == "" || d.EntityKind == "" {
			return fmt.Errorf("dataset %s: entity+date chunking requires an entity param and kind", d.Name)
		}
		if d.StartDateParam == "" || d.EndDateParam == "" {
			return fmt.Errorf("dataset %s: entity+date chunking requires start/end date params", d.Name)
		}
	default:
		return fmt.Errorf("dataset %s: unknown chunk policy %q", d.Name, d.Policy)
	}

	return nil
}

// Catalog is the validated, immutable set of dataset descriptors loaded
// once at startup.
type Catalog struct {
	descriptors []Descriptor
	byName      map[string]Descriptor
}

// New builds a Catalog from the given descriptors, applying parameter
// defaults and validating every entry. Load errors here are fatal to the
// run; nothing else about a malformed descriptor is recoverable later.
func New(descriptors []Descriptor) (*Catalog, error) {
	c := &Catalog{
		descriptors: make([]Descriptor, 0, len(descriptors)),
		byName:      make(map[string]Descriptor, len(descriptors)),
	}

	for _, d := range descriptors {
		d = d.withDefaults()
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("invalid catalog: %w", err)
		}
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("invalid catalog: duplicate dataset %s", d.Name)
		}
		c.descriptors = append(c.descriptors, d)
		c.byName[d.Name] = d
	}

	return c, nil
}

// Builtin returns the catalog of all known datasets.
func Builtin() (*Catalog, error) {
	return New(builtinDescriptors)
}

// Get returns the descriptor for name.
func (c *Catalog) Get(name string) (Descriptor, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// All returns every descriptor in catalog order, enabled or not.
func (c *Catalog) All() []Descriptor {
	out := make([]Descriptor, len(c.descriptors))
	copy(out, c.descriptors)
	return out
}

// Categories returns the sorted set of category names.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range c.descriptors {
		if !seen[d.Category] {
			seen[d.Category] = true
			out = append(out, d.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Selection narrows a run to a subset of the catalog. Zero values select
// everything that is enabled.
type Selection struct {
	// Datasets restricts to these dataset names
	Datasets []string
	// Categories restricts to these category names
	Categories []string
	// Priority restricts to one priority level (0 means all)
	Priority int
	// Quick restricts to priority-1 unchunked datasets, for smoke runs
	Quick bool
}

// Select returns the enabled descriptors matching sel, in catalog order.
// Requesting an unknown dataset name is an error so typos fail loudly
// instead of silently downloading nothing.
func (c *Catalog) Select(sel Selection) ([]Descriptor, error) {
	for _, name := range sel.Datasets {
		if _, ok := c.byName[name]; !ok {
			return nil, fmt.Errorf("unknown dataset %q", name)
		}
	}

	names := make(map[string]bool, len(sel.Datasets))
	for _, n := range sel.Datasets {
		names[n] = true
	}
	categories := make(map[string]bool, len(sel.Categories))
	for _, cat := range sel.Categories {
		categories[cat] = true
	}

	var out []Descriptor
	for _, d := range c.descriptors {
		if !d.Enabled {
			continue
		}
		if len(names) > 0 && !names[d.Name] {
			continue
		}
		if len(categories) > 0 && !categories[d.Category] {
			continue
		}
		if sel.Priority != 0 && d.Priority != sel.Priority {
			continue
		}
		if sel.Quick && (d.Priority != 1 || d.Policy != ChunkNone) {
			continue
		}
		out = append(out, d)
	}

	return out, nil
}
