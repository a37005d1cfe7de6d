package domain

import (
	"math"
	"slices"
	"time"
)

// Row is a single result record keyed by column name. Values are float64, string, bool,
// nil, or time.Time once a view has parsed a timestamp column.
type Row map[string]any

// Table is an ordered collection of rows sharing one column set.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable builds a table from the remote service's header and positional data rows.
func NewTable(header []string, data [][]any) Table {
	rows := make([]Row, 0, len(data))
	for _, values := range data {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(values) {
				row[col] = values[i]
			} else {
				row[col] = nil
			}
		}
		rows = append(rows, row)
	}
	return Table{Columns: slices.Clone(header), Rows: rows}
}

func (t Table) Len() int {
	return len(t.Rows)
}

func (t Table) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

// WithColumn returns the column list extended by name unless it is already present.
func (t Table) WithColumn(name string) []string {
	if t.HasColumn(name) {
		return slices.Clone(t.Columns)
	}
	return append(slices.Clone(t.Columns), name)
}

// Clone returns a copy whose rows can be mutated without affecting t.
func (t Table) Clone() Table {
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		row := make(Row, len(r))
		for k, v := range r {
			row[k] = cloneValue(v)
		}
		rows[i] = row
	}
	return Table{Columns: slices.Clone(t.Columns), Rows: rows}
}

// Float returns the numeric value stored under col. Missing, null and non-numeric values
// are reported as NaN.
func (r Row) Float(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return math.NaN()
	}
}

// Time returns the timestamp stored under col.
func (r Row) Time(col string) (time.Time, bool) {
	t, ok := r[col].(time.Time)
	return t, ok
}
