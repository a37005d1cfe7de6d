package dashboard

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/de-tools/test-atlas/pkg/models/domain"
	"github.com/de-tools/test-atlas/pkg/services/chart"
	"github.com/de-tools/test-atlas/pkg/services/config"
	"github.com/de-tools/test-atlas/pkg/services/series"
	"github.com/de-tools/test-atlas/pkg/services/views"
	"github.com/dustin/go-humanize"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
)

const summaryDateLayout = "02-Jan-2006"

type Service interface {
	ListDashboards(ctx context.Context) ([]domain.Dashboard, error)
	GetView(ctx context.Context, dashboard, view string, filters domain.Filters) (*domain.QueryResult, error)
	// GetChart aligns two time-series views and composes the three chart panels. Empty view
	// names select tests_by_date and failures_by_date.
	GetChart(ctx context.Context, dashboard, viewA, viewB string, filters domain.Filters) ([3]domain.ChartGeometry, error)
	GetSummary(ctx context.Context, dashboard string, filters domain.Filters) (*domain.Summary, error)
	GetFilters(ctx context.Context, dashboard string, filters domain.Filters) ([]domain.FilterDescriptor, error)
}

// CatalogFactory builds the view catalog of a dashboard.
type CatalogFactory func(dashboard string) (views.Catalog, error)

type service struct {
	registry   config.Registry
	newCatalog CatalogFactory
	catalogs   *xsync.MapOf[string, views.Catalog]
}

func NewService(registry config.Registry, newCatalog CatalogFactory) Service {
	return &service{
		registry:   registry,
		newCatalog: newCatalog,
		catalogs:   xsync.NewMapOf[string, views.Catalog](),
	}
}

func (s *service) ListDashboards(ctx context.Context) ([]domain.Dashboard, error) {
	return s.registry.GetDashboards(ctx)
}

func (s *service) GetView(
	ctx context.Context,
	dashboard, view string,
	filters domain.Filters,
) (*domain.QueryResult, error) {
	catalog, _, err := s.catalog(ctx, dashboard, filters)
	if err != nil {
		return nil, err
	}
	return catalog.Get(ctx, view, filters)
}

func (s *service) GetChart(
	ctx context.Context,
	dashboard, viewA, viewB string,
	filters domain.Filters,
) ([3]domain.ChartGeometry, error) {
	var panels [3]domain.ChartGeometry
	catalog, _, err := s.catalog(ctx, dashboard, filters)
	if err != nil {
		return panels, err
	}

	if viewA == "" {
		viewA = views.TestsByDate
	}
	if viewB == "" {
		viewB = views.FailuresByDate
	}

	a, err := catalog.Series(ctx, viewA, filters)
	if err != nil {
		return panels, err
	}
	b, err := catalog.Series(ctx, viewB, filters)
	if err != nil {
		return panels, err
	}

	frame, err := series.Align(a, b)
	if err != nil {
		return panels, fmt.Errorf("chart %s/%s: %w", viewA, viewB, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("dashboard", dashboard).
		Int("points", frame.Len()).
		Msg("composing chart")

	return chart.Compose(frame)
}

func (s *service) GetSummary(ctx context.Context, dashboard string, filters domain.Filters) (*domain.Summary, error) {
	res, err := s.GetView(ctx, dashboard, views.Summary, filters)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{Meta: res.Meta, Distinct: "0", Total: "0"}
	if res.Table.Len() == 0 {
		return summary, nil
	}

	row := res.Table.Rows[0]
	summary.Distinct = formatCount(row.Float("distinct"))
	summary.Total = formatCount(row.Float("total"))
	if start, ok := row.Time("start"); ok {
		summary.Start = start.Format(summaryDateLayout)
	}
	if end, ok := row.Time("end"); ok {
		summary.End = end.Format(summaryDateLayout)
	}
	return summary, nil
}

func formatCount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return humanize.Comma(int64(v))
}

func (s *service) GetFilters(
	ctx context.Context,
	dashboard string,
	filters domain.Filters,
) ([]domain.FilterDescriptor, error) {
	catalog, d, err := s.catalog(ctx, dashboard, filters)
	if err != nil {
		return nil, err
	}

	descriptors := make([]domain.FilterDescriptor, 0, len(d.Filters))
	for _, id := range d.Filters {
		desc := domain.FilterDescriptor{ID: id, Label: label(id), Selected: filters[id]}

		switch id {
		case domain.FilterSince:
			desc.Options = slices.Clone(domain.SinceOptions)
			if desc.Selected == "" {
				desc.Selected = domain.DefaultSince
			}
		case "project":
			desc.Options, err = s.options(ctx, catalog, views.Projects, "project", filters)
		case "job":
			desc.Options, err = s.options(ctx, catalog, views.Jobs, "job", filters)
		case "branch":
			desc.Options = slices.Clone(d.Branches)
			if desc.Selected == "" && len(desc.Options) > 0 {
				desc.Selected = desc.Options[0]
			}
		default:
			desc.FreeText = true
			desc.Value = filters[id]
			desc.Selected = ""
		}
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", id, err)
		}

		descriptors = append(descriptors, desc)
	}
	return descriptors, nil
}

// options lists the values of column in view, in view order.
func (s *service) options(
	ctx context.Context,
	catalog views.Catalog,
	view, column string,
	filters domain.Filters,
) ([]string, error) {
	res, err := catalog.Get(ctx, view, filters)
	if err != nil {
		return nil, err
	}

	options := make([]string, 0, res.Table.Len())
	for _, row := range res.Table.Rows {
		if v, ok := row[column].(string); ok && v != "" {
			options = append(options, v)
		}
	}
	return options, nil
}

func (s *service) catalog(
	ctx context.Context,
	name string,
	filters domain.Filters,
) (views.Catalog, *domain.Dashboard, error) {
	if err := filters.Validate(); err != nil {
		return nil, nil, err
	}

	d, err := s.registry.GetDashboard(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	if c, ok := s.catalogs.Load(name); ok {
		return c, d, nil
	}
	c, err := s.newCatalog(name)
	if err != nil {
		return nil, nil, err
	}
	c, _ = s.catalogs.LoadOrStore(name, c)
	return c, d, nil
}

func label(id string) string {
	switch id {
	case domain.FilterSince:
		return "Since"
	case "project":
		return "Project"
	case "job":
		return "Job"
	case "branch":
		return "Branch"
	case "path":
		return "Path"
	default:
		return id
	}
}
