package views

import (
	"cmp"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/test-atlas/pkg/models/domain"
)

// step is one stage of a view transform. Steps own the table they receive.
type step func(domain.Table) domain.Table

func pipeline(steps ...step) step {
	return func(t domain.Table) domain.Table {
		for _, s := range steps {
			t = s(t)
		}
		return t
	}
}

// parseEpoch replaces epoch-seconds values in col with UTC timestamps.
func parseEpoch(col string) step {
	return func(t domain.Table) domain.Table {
		for _, row := range t.Rows {
			row[col] = epochToTime(row[col])
		}
		return t
	}
}

func epochToTime(v any) any {
	var secs float64
	switch x := v.(type) {
	case float64:
		secs = x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		secs = f
	case time.Time:
		return x
	default:
		return nil
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) {
		return nil
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}

func fillMissing(col string, value float64) step {
	return func(t domain.Table) domain.Table {
		for _, row := range t.Rows {
			if isNull(row[col]) {
				row[col] = value
			}
		}
		return t
	}
}

// derive sets col on every row from fn.
func derive(col string, fn func(domain.Row) float64) step {
	return func(t domain.Table) domain.Table {
		for _, row := range t.Rows {
			row[col] = fn(row)
		}
		t.Columns = t.WithColumn(col)
		return t
	}
}

func where(keep func(domain.Row) bool) step {
	return func(t domain.Table) domain.Table {
		t.Rows = slices.DeleteFunc(t.Rows, func(r domain.Row) bool {
			return !keep(r)
		})
		return t
	}
}

func positive(col string) func(domain.Row) bool {
	return func(r domain.Row) bool {
		return r.Float(col) > 0
	}
}

// sortBy orders rows by col. The sort is stable and missing values go last in either
// direction.
func sortBy(col string, descending bool) step {
	return func(t domain.Table) domain.Table {
		slices.SortStableFunc(t.Rows, func(a, b domain.Row) int {
			an, bn := isNull(a[col]), isNull(b[col])
			switch {
			case an && bn:
				return 0
			case an:
				return 1
			case bn:
				return -1
			}
			c := compareValues(a[col], b[col])
			if descending {
				return -c
			}
			return c
		})
		return t
	}
}

func head(n int) step {
	return func(t domain.Table) domain.Table {
		if len(t.Rows) > n {
			t.Rows = t.Rows[:n]
		}
		return t
	}
}

var nonAlphanumeric = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// alphanumeric strips every character of col that is not a letter or digit.
func alphanumeric(col string) step {
	return func(t domain.Table) domain.Table {
		for _, row := range t.Rows {
			switch v := row[col].(type) {
			case nil:
			case string:
				row[col] = nonAlphanumeric.ReplaceAllString(v, "")
			default:
				row[col] = nonAlphanumeric.ReplaceAllString(fmt.Sprint(v), "")
			}
		}
		return t
	}
}

// prefixes replaces the table with the sorted distinct prefixes of col before sep,
// stored in a single column named as.
func prefixes(col, sep, as string) step {
	return func(t domain.Table) domain.Table {
		seen := map[string]struct{}{}
		for _, row := range t.Rows {
			s, ok := row[col].(string)
			if !ok {
				continue
			}
			p, _, _ := strings.Cut(s, sep)
			seen[p] = struct{}{}
		}

		names := make([]string, 0, len(seen))
		for p := range seen {
			names = append(names, p)
		}
		slices.Sort(names)

		rows := make([]domain.Row, 0, len(names))
		for _, p := range names {
			rows = append(rows, domain.Row{as: p})
		}
		return domain.Table{Columns: []string{as}, Rows: rows}
	}
}

func isNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	default:
		return false
	}
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			return cmp.Compare(av, bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			return cmp.Compare(boolRank(av), boolRank(bv))
		}
	}
	return cmp.Compare(typeRank(a), typeRank(b))
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func typeRank(v any) int {
	switch v.(type) {
	case bool:
		return 0
	case float64:
		return 1
	case time.Time:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}
