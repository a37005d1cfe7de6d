package domain

// Dashboard describes one configured dashboard and the filters it offers.
type Dashboard struct {
	Name     string
	Title    string
	Filters  []string
	Branches []string
}

// FilterDescriptor is a single filter control with its options and current selection.
type FilterDescriptor struct {
	ID       string
	Label    string
	Options  []string
	Selected string
	Value    string
	FreeText bool
}

// Summary is the headline counters of a dashboard, formatted for display.
type Summary struct {
	Meta     Metadata
	Distinct string
	Total    string
	Start    string
	End      string
}
