package adapters

import (
	"github.com/de-tools/test-atlas/pkg/models/api"
	"github.com/de-tools/test-atlas/pkg/models/domain"
)

func MapDashboardDomainToApi(d domain.Dashboard) api.Dashboard {
	filters := d.Filters
	if filters == nil {
		filters = []string{}
	}
	return api.Dashboard{
		Name:    d.Name,
		Title:   d.Title,
		Filters: filters,
	}
}

func MapFilterDomainToApi(f domain.FilterDescriptor) api.Filter {
	return api.Filter{
		ID:       f.ID,
		Label:    f.Label,
		Options:  f.Options,
		Selected: f.Selected,
		Value:    f.Value,
		FreeText: f.FreeText,
	}
}

func MapSummaryDomainToApi(s *domain.Summary) api.Summary {
	return api.Summary{
		Meta:     mapValues(s.Meta),
		Distinct: s.Distinct,
		Total:    s.Total,
		Start:    s.Start,
		End:      s.End,
	}
}

func MapChartDomainToApi(panels [3]domain.ChartGeometry) api.Chart {
	chart := api.Chart{Panels: make([]api.Panel, 0, len(panels))}
	for _, p := range panels {
		chart.Panels = append(chart.Panels, MapChartGeometryDomainToApi(p))
	}
	return chart
}

func MapChartGeometryDomainToApi(g domain.ChartGeometry) api.Panel {
	panel := api.Panel{
		Title: g.Title,
		XRange: api.Range{
			Start: api.Float(g.XRange.Start),
			End:   api.Float(g.XRange.End),
		},
		YRange:   api.YRange{Start: api.Float(g.YRange.Start)},
		Polygons: make([]api.Polygon, 0, len(g.Polygons)),
	}
	if g.YRange.End != nil {
		end := api.Float(*g.YRange.End)
		panel.YRange.End = &end
	}
	for _, p := range g.Polygons {
		panel.Polygons = append(panel.Polygons, api.Polygon{
			Name: p.Name,
			X:    floats(p.X),
			Y:    floats(p.Y),
		})
	}
	return panel
}

func floats(values []float64) []api.Float {
	out := make([]api.Float, len(values))
	for i, v := range values {
		out[i] = api.Float(v)
	}
	return out
}
