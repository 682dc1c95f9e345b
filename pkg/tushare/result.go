package tushare

import (
	"fmt"
	"strconv"
)

// Result is one API response in the wire's column-oriented layout:
// a list of field names and one value slice per row.
type Result struct {
	Fields []string `json:"fields"`
	Items  [][]any  `json:"items"`
}

// Rows returns the number of rows in the result.
func (r *Result) Rows() int {
	if r == nil {
		return 0
	}
	return len(r.Items)
}

// Column returns the values of the named field rendered as strings.
// Missing fields return nil.
func (r *Result) Column(name string) []string {
	if r == nil {
		return nil
	}
	idx := -1
	for i, f := range r.Fields {
		if f == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	out := make([]string, 0, len(r.Items))
	for _, row := range r.Items {
		if idx >= len(row) {
			out = append(out, "")
			continue
		}
		out = append(out, CellString(row[idx]))
	}
	return out
}

// Append merges other's rows into r. Field layouts must match; results
// merged here always come from the same endpoint.
func (r *Result) Append(other *Result) {
	if other == nil || len(other.Items) == 0 {
		return
	}
	if len(r.Fields) == 0 {
		r.Fields = other.Fields
	}
	r.Items = append(r.Items, other.Items...)
}

// CellString renders one wire value for text output. The API encodes
// cells as JSON strings, numbers or nulls.
func CellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
