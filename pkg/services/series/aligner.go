package series

import (
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/test-atlas/pkg/models/domain"
)

var ErrLabelCollision = errors.New("series labels collide")

// Align outer-joins a and b on their timestamps. The resulting index is the sorted union of
// both indices, matched by exact equality. Columns are namespaced by series label and a
// timestamp present in only one series leaves the other series' columns nil.
func Align(a, b *domain.TimeSeries) (*domain.AlignedFrame, error) {
	if a == nil || b == nil {
		return nil, errors.New("align: nil series")
	}
	if a.Label == b.Label {
		return nil, fmt.Errorf("align: %w: both series are labelled %q", ErrLabelCollision, a.Label)
	}

	columns := make([]string, 0, len(a.Table.Columns)+len(b.Table.Columns))
	for _, s := range []*domain.TimeSeries{a, b} {
		for _, col := range s.Table.Columns {
			columns = append(columns, domain.ColumnName(s.Label, col))
		}
	}

	frame := &domain.AlignedFrame{
		Index:   make([]time.Time, 0, max(a.Len(), b.Len())),
		Columns: columns,
	}

	i, j := 0, 0
	for i < a.Len() || j < b.Len() {
		var ts time.Time
		var fromA, fromB bool
		switch {
		case j >= b.Len():
			ts, fromA = a.Index[i], true
		case i >= a.Len():
			ts, fromB = b.Index[j], true
		case a.Index[i].Equal(b.Index[j]):
			ts, fromA, fromB = a.Index[i], true, true
		case a.Index[i].Before(b.Index[j]):
			ts, fromA = a.Index[i], true
		default:
			ts, fromB = b.Index[j], true
		}

		row := make(domain.Row, len(columns))
		fill(row, a, i, fromA)
		fill(row, b, j, fromB)
		if fromA {
			i++
		}
		if fromB {
			j++
		}

		frame.Index = append(frame.Index, ts)
		frame.Rows = append(frame.Rows, row)
	}

	return frame, nil
}

func fill(row domain.Row, s *domain.TimeSeries, pos int, present bool) {
	for _, col := range s.Table.Columns {
		var v any
		if present {
			v = s.Table.Rows[pos][col]
		}
		row[domain.ColumnName(s.Label, col)] = v
	}
}
