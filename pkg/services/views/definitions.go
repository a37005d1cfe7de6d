package views

import (
	"slices"

	"github.com/de-tools/test-atlas/pkg/models/domain"
)

const (
	Summary         = "summary"
	TestsByDate     = "tests_by_date"
	FailuresByDate  = "failures_by_date"
	Failures        = "failures"
	Skipped         = "skipped"
	Slowest         = "slowest"
	XFails          = "xfails"
	TestsFailures   = "tests_failures"
	TestsSkipped    = "tests_skipped"
	TestsXFails     = "tests_xfails"
	TestsSlowest    = "tests_slowest"
	Projects        = "projects"
	Jobs            = "jobs"
	leaderboardSize = 5
	testsListSize   = 50

	// DateColumn indexes the time-series views.
	DateColumn = "date"
)

// definition binds a view name to its query template and the transform producing the
// view's canonical table.
type definition struct {
	name      string
	query     string
	required  []string
	transform step
	// series is the column namespace of time-series views; empty for plain tables.
	series string
}

var definitions = map[string]definition{
	Summary: {
		query:    "summary",
		required: []string{"distinct", "total", "start", "end"},
		transform: pipeline(
			parseEpoch("start"),
			parseEpoch("end"),
		),
	},
	TestsByDate: {
		query:     "tests_by_date",
		required:  []string{DateColumn, "distinct"},
		transform: byDate(),
		series:    "tests",
	},
	FailuresByDate: {
		query:     "failures_by_date",
		required:  []string{DateColumn, "distinct"},
		transform: byDate(),
		series:    "failures",
	},
	Failures: {
		query:    "failures",
		required: []string{"failures", "total"},
		transform: pipeline(
			derive("pass", func(r domain.Row) float64 {
				return 1 - r.Float("failures")/r.Float("total")
			}),
			where(positive("failures")),
			sortBy("pass", false),
			head(leaderboardSize),
		),
	},
	Skipped: {
		query:    "skipped",
		required: []string{"skips", "total"},
		transform: pipeline(
			derive("concentration", func(r domain.Row) float64 {
				return r.Float("skips") / r.Float("total")
			}),
			where(positive("skips")),
			sortBy("skips", true),
			head(leaderboardSize),
		),
	},
	Slowest: {
		query:    "durations",
		required: []string{"duration"},
		transform: pipeline(
			sortBy("duration", true),
			head(leaderboardSize),
		),
	},
	XFails: {
		query:     "xfails",
		transform: head(leaderboardSize),
	},
	TestsFailures: {
		query:     "tests_failures",
		required:  []string{"id", DateColumn},
		transform: testsList(DateColumn),
	},
	TestsSkipped: {
		query:     "tests_skipped",
		required:  []string{"id", DateColumn},
		transform: testsList(DateColumn),
	},
	TestsXFails: {
		query:     "tests_xfails",
		required:  []string{"id", DateColumn},
		transform: testsList(DateColumn),
	},
	TestsSlowest: {
		query:     "tests",
		required:  []string{"id", DateColumn, "duration"},
		transform: testsList("duration"),
	},
	Projects: {
		query:     "projects",
		required:  []string{"job"},
		transform: prefixes("job", ".", "project"),
	},
	Jobs: {
		query:     "jobs",
		required:  []string{"job"},
		transform: sortBy("job", false),
	},
}

func init() {
	for name, def := range definitions {
		def.name = name
		definitions[name] = def
	}
}

func byDate() step {
	return pipeline(
		parseEpoch(DateColumn),
		fillMissing("distinct", 0),
		sortBy(DateColumn, false),
	)
}

func testsList(orderBy string) step {
	return pipeline(
		alphanumeric("id"),
		parseEpoch(DateColumn),
		sortBy(orderBy, true),
		head(testsListSize),
	)
}

// apply validates raw against the view schema and transforms a copy of it. A raw table
// without rows carries no schema to check and yields an empty view.
func (d definition) apply(raw domain.Table) (domain.Table, error) {
	if raw.Len() > 0 {
		for _, col := range d.required {
			if !raw.HasColumn(col) {
				return domain.Table{}, &domain.ShapeMismatchError{View: d.name, Column: col}
			}
		}
	}

	out := d.transform(raw.Clone())
	if out.Rows == nil {
		out.Rows = []domain.Row{}
	}
	return out, nil
}

// Names lists every view in lexical order.
func Names() []string {
	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsSeries reports whether view is one of the time-indexed views.
func IsSeries(view string) bool {
	return definitions[view].series != ""
}
