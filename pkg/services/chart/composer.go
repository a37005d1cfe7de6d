package chart

import (
	"math"
	"slices"

	"github.com/de-tools/test-atlas/pkg/models/domain"
)

const (
	DistinctTestsTitle   = "Distinct Tests"
	TotalFailuresTitle   = "Total Failures"
	AverageDurationTitle = "Average Test Duration"

	testsDistinct    = "tests.distinct"
	testsDuration    = "tests.duration"
	failuresDistinct = "failures.distinct"
	failuresTotal    = "failures.total"

	// padding is the share of the value spread added around the distinct tests band.
	padding = 0.3
)

var required = []string{testsDistinct, failuresDistinct, failuresTotal, testsDuration}

// Compose turns a frame aligned from the "tests" and "failures" series into three panels
// sharing one x-range: distinct tests, total failures and average test duration. An empty
// frame carries no columns to check and yields panels with empty polygons.
func Compose(frame *domain.AlignedFrame) ([3]domain.ChartGeometry, error) {
	var panels [3]domain.ChartGeometry
	for _, col := range required {
		if frame.Len() > 0 && !frame.HasColumn(col) {
			return panels, &domain.ShapeMismatchError{View: "chart", Column: col}
		}
	}

	x := make([]float64, frame.Len())
	for i, ts := range frame.Index {
		x[i] = float64(ts.UnixMilli())
	}
	var xRange domain.Range
	if len(x) > 0 {
		xRange = domain.Range{Start: slices.Min(x), End: slices.Max(x)}
	}

	distinct := frame.Float(testsDistinct)
	failed := frame.Float(failuresDistinct)
	stable := make([]float64, len(distinct))
	for i := range distinct {
		stable[i] = distinct[i] - failed[i]
	}
	zeros := make([]float64, len(x))

	maxDistinct, minStable := nanMax(distinct), nanMin(stable)
	spread := maxDistinct - minStable
	if spread == 0 {
		spread = minStable
	}
	yEnd := maxDistinct + padding*spread

	panels[0] = domain.ChartGeometry{
		Title:  DistinctTestsTitle,
		XRange: xRange,
		YRange: domain.YRange{Start: math.Max(0, minStable-padding*spread), End: &yEnd},
		Polygons: []domain.Polygon{
			band("stable", x, zeros, stable),
			band("distinct", x, stable, distinct),
		},
	}
	panels[1] = domain.ChartGeometry{
		Title:    TotalFailuresTitle,
		XRange:   xRange,
		Polygons: []domain.Polygon{band("failures", x, zeros, frame.Float(failuresTotal))},
	}
	panels[2] = domain.ChartGeometry{
		Title:    AverageDurationTitle,
		XRange:   xRange,
		Polygons: []domain.Polygon{band("duration", x, zeros, frame.Float(testsDuration))},
	}

	return panels, nil
}

// band closes the area between baseline and upper: x runs forward then back, y follows
// baseline forward then upper reversed.
func band(name string, x, baseline, upper []float64) domain.Polygon {
	xs := make([]float64, 0, 2*len(x))
	xs = append(xs, x...)
	ys := make([]float64, 0, 2*len(x))
	ys = append(ys, baseline...)
	for i := len(x) - 1; i >= 0; i-- {
		xs = append(xs, x[i])
		ys = append(ys, upper[i])
	}
	return domain.Polygon{Name: name, X: xs, Y: ys}
}

// nanMax returns the largest non-NaN value, 0 when there is none.
func nanMax(values []float64) float64 {
	return reduce(values, math.Max)
}

// nanMin returns the smallest non-NaN value, 0 when there is none.
func nanMin(values []float64) float64 {
	return reduce(values, math.Min)
}

func reduce(values []float64, pick func(a, b float64) float64) float64 {
	out, seen := 0.0, false
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if !seen {
			out, seen = v, true
			continue
		}
		out = pick(out, v)
	}
	return out
}
