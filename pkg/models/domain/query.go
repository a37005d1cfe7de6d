package domain

import (
	"time"
)

// MetaTimestamp is the metadata key holding the wall-clock time a result was fetched.
const MetaTimestamp = "timestamp"

// Metadata is the service-reported metadata of a query result.
type Metadata map[string]any

// Clone returns a deep copy of m. Nested objects and arrays decoded from the remote
// service are copied as well.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	case Metadata:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func (m Metadata) Timestamp() time.Time {
	ts, _ := m[MetaTimestamp].(time.Time)
	return ts
}

// QueryResult pairs the metadata of a remote query with its table.
type QueryResult struct {
	Meta  Metadata
	Table Table
}

func (q *QueryResult) Clone() *QueryResult {
	return &QueryResult{
		Meta:  q.Meta.Clone(),
		Table: q.Table.Clone(),
	}
}
