package domain

import (
	"fmt"
	"maps"
	"slices"
)

const (
	FilterSince  = "since"
	DefaultSince = "today-1week"
)

// SinceOptions lists the time windows a dashboard may be filtered by.
var SinceOptions = []string{
	"today-1week",
	"today-2week",
	"today-4week",
	"today-8week",
	"today-16week",
}

// Filters are the user-selected values rendered into a view's query template.
type Filters map[string]string

// WithDefaults returns a copy of f with `since` set when it is absent or empty.
func (f Filters) WithDefaults() Filters {
	out := maps.Clone(f)
	if out == nil {
		out = Filters{}
	}
	if out[FilterSince] == "" {
		out[FilterSince] = DefaultSince
	}
	return out
}

func (f Filters) Validate() error {
	since, ok := f[FilterSince]
	if !ok || since == "" {
		return nil
	}
	if !slices.Contains(SinceOptions, since) {
		return fmt.Errorf("%w: since %q, expected one of %v", ErrInvalidFilter, since, SinceOptions)
	}
	return nil
}
