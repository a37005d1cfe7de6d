package views

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/de-tools/test-atlas/pkg/models/domain"
	"github.com/de-tools/test-atlas/pkg/services/querycache"
	"github.com/rs/zerolog"
)

//go:embed templates
var embedded embed.FS

// DefaultTemplates holds one directory of query templates per dashboard.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Catalog resolves named views of one dashboard.
type Catalog interface {
	// Get renders the view's query with filters, executes it through the query cache and
	// returns the transformed table.
	Get(ctx context.Context, view string, filters domain.Filters) (*domain.QueryResult, error)
	// Series is Get for time-series views, re-indexed by date.
	Series(ctx context.Context, view string, filters domain.Filters) (*domain.TimeSeries, error)
	// Render returns the exact query text view resolves to.
	Render(view string, filters domain.Filters) (string, error)
	// Supports reports whether the dashboard has a query template for view.
	Supports(view string) bool
}

type catalog struct {
	dashboard string
	templates *template.Template
	cache     querycache.Cache
}

// NewCatalog parses the query templates found under the dashboard directory of templates.
func NewCatalog(dashboard string, templates fs.FS, cache querycache.Cache) (Catalog, error) {
	tmpl, err := template.New(dashboard).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=zero").
		ParseFS(templates, dashboard+"/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: parse query templates: %w", domain.ErrUnknownDashboard, dashboard, err)
	}

	return &catalog{
		dashboard: dashboard,
		templates: tmpl,
		cache:     cache,
	}, nil
}

func (c *catalog) Supports(view string) bool {
	def, ok := definitions[view]
	return ok && c.templates.Lookup(templateName(def)) != nil
}

func (c *catalog) Render(view string, filters domain.Filters) (string, error) {
	def, err := c.definition(view)
	if err != nil {
		return "", err
	}
	return c.render(def, filters.WithDefaults())
}

func (c *catalog) Get(ctx context.Context, view string, filters domain.Filters) (*domain.QueryResult, error) {
	def, err := c.definition(view)
	if err != nil {
		return nil, err
	}

	query, err := c.render(def, filters.WithDefaults())
	if err != nil {
		return nil, err
	}

	res, err := c.cache.Execute(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", view, err)
	}

	table, err := def.apply(res.Table)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("dashboard", c.dashboard).
		Str("view", view).
		Int("raw_rows", res.Table.Len()).
		Int("rows", table.Len()).
		Msg("view resolved")

	return &domain.QueryResult{Meta: res.Meta, Table: table}, nil
}

func (c *catalog) Series(ctx context.Context, view string, filters domain.Filters) (*domain.TimeSeries, error) {
	def, err := c.definition(view)
	if err != nil {
		return nil, err
	}
	if def.series == "" {
		return nil, fmt.Errorf("%w: %s is not a time-series view", domain.ErrUnknownView, view)
	}

	res, err := c.Get(ctx, view, filters)
	if err != nil {
		return nil, err
	}
	return domain.NewTimeSeries(def.series, res.Table, DateColumn)
}

func (c *catalog) definition(view string) (definition, error) {
	def, ok := definitions[view]
	if !ok || c.templates.Lookup(templateName(def)) == nil {
		return definition{}, fmt.Errorf("%w: %s/%s", domain.ErrUnknownView, c.dashboard, view)
	}
	return def, nil
}

func (c *catalog) render(def definition, filters domain.Filters) (string, error) {
	var buf bytes.Buffer
	if err := c.templates.ExecuteTemplate(&buf, templateName(def), map[string]string(filters)); err != nil {
		return "", fmt.Errorf("render %s query: %w", def.name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func templateName(def definition) string {
	return def.query + ".json.tmpl"
}

// IsUnknown reports whether err stems from an unknown view or dashboard.
func IsUnknown(err error) bool {
	return errors.Is(err, domain.ErrUnknownView) || errors.Is(err, domain.ErrUnknownDashboard)
}
