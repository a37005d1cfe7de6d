package store

import "time"

// CachedQuery is a persisted query result in its raw, pre-transform form.
type CachedQuery struct {
	Query      string
	Meta       map[string]any
	Header     []string
	Data       [][]any
	InsertedAt time.Time
}
