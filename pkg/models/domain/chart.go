package domain

// Range is a closed numeric interval on a chart axis.
type Range struct {
	Start float64
	End   float64
}

// YRange is a y-axis range whose end is left to the renderer when nil.
type YRange struct {
	Start float64
	End   *float64
}

// Polygon is a closed band: X holds the index forward then reversed, Y holds the baseline
// forward then the series reversed.
type Polygon struct {
	Name string
	X    []float64
	Y    []float64
}

// ChartGeometry is everything needed to draw one chart panel.
type ChartGeometry struct {
	Title    string
	XRange   Range
	YRange   YRange
	Polygons []Polygon
}
