package domain

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// TimeSeries is a view re-indexed by a timestamp column. Index is strictly increasing and
// Table.Rows[i] holds the values observed at Index[i].
type TimeSeries struct {
	Label string
	Index []time.Time
	Table Table
}

// NewTimeSeries moves indexColumn out of table into the series index. The table must
// already be sorted ascending by indexColumn.
func NewTimeSeries(label string, table Table, indexColumn string) (*TimeSeries, error) {
	index := make([]time.Time, 0, table.Len())
	rows := make([]Row, 0, table.Len())
	for i, row := range table.Rows {
		ts, ok := row.Time(indexColumn)
		if !ok {
			return nil, fmt.Errorf("series %s: row %d has no timestamp in %q", label, i, indexColumn)
		}
		if n := len(index); n > 0 && !index[n-1].Before(ts) {
			if index[n-1].Equal(ts) {
				return nil, fmt.Errorf("series %s: %w: %s", label, ErrDuplicateTimestamp, ts.Format(time.RFC3339))
			}
			return nil, fmt.Errorf("series %s: index not sorted at row %d", label, i)
		}
		index = append(index, ts)

		values := make(Row, len(row)-1)
		for k, v := range row {
			if k != indexColumn {
				values[k] = v
			}
		}
		rows = append(rows, values)
	}

	columns := slices.DeleteFunc(slices.Clone(table.Columns), func(c string) bool {
		return c == indexColumn
	})

	return &TimeSeries{
		Label: label,
		Index: index,
		Table: Table{Columns: columns, Rows: rows},
	}, nil
}

func (s *TimeSeries) Len() int {
	return len(s.Index)
}

// AlignedFrame is the outer join of two time series on their timestamps. Columns are
// namespaced "<label>.<column>"; a value absent from a source is nil in Rows.
type AlignedFrame struct {
	Index   []time.Time
	Columns []string
	Rows    []Row
}

func (f *AlignedFrame) Len() int {
	return len(f.Index)
}

func (f *AlignedFrame) HasColumn(name string) bool {
	return slices.Contains(f.Columns, name)
}

// Float returns the column as floats, NaN where the value is missing.
func (f *AlignedFrame) Float(col string) []float64 {
	out := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row.Float(col)
	}
	return out
}

// ColumnName returns the namespaced name of a source column.
func ColumnName(label, column string) string {
	return label + "." + column
}

// IsMissing reports whether v stands for an absent value.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}
