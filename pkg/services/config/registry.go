package config

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/de-tools/test-atlas/pkg/models/domain"
	"gopkg.in/ini.v1"
)

//go:embed dashboards.ini
var defaultDashboards []byte

type Registry interface {
	GetDashboards(ctx context.Context) ([]domain.Dashboard, error)
	GetDashboard(ctx context.Context, name string) (*domain.Dashboard, error)
}

type iniRegistry struct {
	cfg *ini.File
}

// NewRegistry loads dashboard definitions from the ini file at path, one section per
// dashboard. An empty path selects the built-in fx-test and unittest dashboards.
func NewRegistry(path string) (Registry, error) {
	var source any = defaultDashboards
	if path != "" {
		source = path
	}

	cfg, err := ini.Load(source)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboards: %w", err)
	}
	return &iniRegistry{cfg: cfg}, nil
}

func (r *iniRegistry) GetDashboards(_ context.Context) ([]domain.Dashboard, error) {
	var dashboards []domain.Dashboard
	for _, section := range r.cfg.Sections() {
		if len(section.Keys()) == 0 {
			continue
		}
		dashboards = append(dashboards, toDashboard(section))
	}
	return dashboards, nil
}

func (r *iniRegistry) GetDashboard(_ context.Context, name string) (*domain.Dashboard, error) {
	section, err := r.cfg.GetSection(name)
	if err != nil || len(section.Keys()) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDashboard, name)
	}
	d := toDashboard(section)
	return &d, nil
}

func toDashboard(section *ini.Section) domain.Dashboard {
	d := domain.Dashboard{
		Name:    section.Name(),
		Title:   section.Name(),
		Filters: []string{domain.FilterSince},
	}
	if section.HasKey("title") {
		d.Title = section.Key("title").String()
	}
	if section.HasKey("filters") {
		d.Filters = section.Key("filters").Strings(",")
	}
	if section.HasKey("branches") {
		d.Branches = section.Key("branches").Strings(",")
	}
	return d
}
