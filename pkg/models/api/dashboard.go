package api

import (
	"encoding/json"
	"math"
)

// Float is a number that encodes NaN and infinities as null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

type Dashboard struct {
	Name    string   `json:"name"`
	Title   string   `json:"title"`
	Filters []string `json:"filters"`
}

type Filter struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Options  []string `json:"options,omitempty"`
	Selected string   `json:"selected,omitempty"`
	Value    string   `json:"value,omitempty"`
	FreeText bool     `json:"free_text,omitempty"`
}

type Summary struct {
	Meta     map[string]any `json:"meta"`
	Distinct string         `json:"distinct"`
	Total    string         `json:"total"`
	Start    string         `json:"start"`
	End      string         `json:"end"`
}

type View struct {
	Name    string           `json:"name"`
	Meta    map[string]any   `json:"meta"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

type Range struct {
	Start Float `json:"start"`
	End   Float `json:"end"`
}

type YRange struct {
	Start Float  `json:"start"`
	End   *Float `json:"end"`
}

type Polygon struct {
	Name string  `json:"name"`
	X    []Float `json:"x"`
	Y    []Float `json:"y"`
}

type Panel struct {
	Title    string    `json:"title"`
	XRange   Range     `json:"x_range"`
	YRange   YRange    `json:"y_range"`
	Polygons []Polygon `json:"polygons"`
}

type Chart struct {
	Panels []Panel `json:"panels"`
}

type Error struct {
	Error string `json:"error"`
}
