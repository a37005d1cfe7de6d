package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/de-tools/test-atlas/pkg/models/domain"
	"github.com/de-tools/test-atlas/pkg/services/chart"
	"github.com/de-tools/test-atlas/pkg/services/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) GetDashboards(ctx context.Context) ([]domain.Dashboard, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Dashboard), args.Error(1)
}

func (m *mockRegistry) GetDashboard(ctx context.Context, name string) (*domain.Dashboard, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) Get(ctx context.Context, view string, filters domain.Filters) (*domain.QueryResult, error) {
	args := m.Called(ctx, view, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueryResult), args.Error(1)
}

func (m *mockCatalog) Series(ctx context.Context, view string, filters domain.Filters) (*domain.TimeSeries, error) {
	args := m.Called(ctx, view, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TimeSeries), args.Error(1)
}

func (m *mockCatalog) Render(view string, filters domain.Filters) (string, error) {
	args := m.Called(view, filters)
	return args.String(0), args.Error(1)
}

func (m *mockCatalog) Supports(view string) bool {
	return m.Called(view).Bool(0)
}

var (
	fxTest = &domain.Dashboard{
		Name:    "fx-test",
		Title:   "fx-test",
		Filters: []string{"project", "job", "since"},
	}
	unittest = &domain.Dashboard{
		Name:     "unittest",
		Title:    "unittest",
		Filters:  []string{"branch", "path", "since"},
		Branches: []string{"autoland", "mozilla-central"},
	}
)

func setup(dashboards ...*domain.Dashboard) (*service, *mockRegistry, *mockCatalog, *int) {
	registry := new(mockRegistry)
	for _, d := range dashboards {
		registry.On("GetDashboard", mock.Anything, d.Name).Return(d, nil)
	}
	registry.On("GetDashboard", mock.Anything, mock.Anything).
		Return(nil, domain.ErrUnknownDashboard)

	catalog := new(mockCatalog)
	built := 0
	svc := NewService(registry, func(string) (views.Catalog, error) {
		built++
		return catalog, nil
	}).(*service)
	return svc, registry, catalog, &built
}

func timeSeries(t *testing.T, label string, columns []string, rows ...[]any) *domain.TimeSeries {
	t.Helper()
	s, err := domain.NewTimeSeries(label, domain.NewTable(append([]string{"date"}, columns...), rows), "date")
	require.NoError(t, err)
	return s
}

func day(n int) time.Time {
	return time.Date(2023, 11, n, 0, 0, 0, 0, time.UTC)
}

func TestGetChart(t *testing.T) {
	svc, _, catalog, _ := setup(unittest)
	filters := domain.Filters{"branch": "autoland"}

	catalog.On("Series", mock.Anything, views.TestsByDate, filters).Return(
		timeSeries(t, "tests", []string{"distinct", "total", "duration"},
			[]any{day(14), 100.0, 120.0, 1.5},
			[]any{day(15), 90.0, 150.0, 2.5},
		), nil)
	catalog.On("Series", mock.Anything, views.FailuresByDate, filters).Return(
		timeSeries(t, "failures", []string{"distinct", "total"},
			[]any{day(15), 4.0, 9.0},
		), nil)

	panels, err := svc.GetChart(context.Background(), "unittest", "", "", filters)

	require.NoError(t, err)
	assert.Equal(t, chart.DistinctTestsTitle, panels[0].Title)
	assert.Equal(t, float64(day(14).UnixMilli()), panels[1].XRange.Start)
	assert.Equal(t, float64(day(15).UnixMilli()), panels[2].XRange.End)
	assert.Len(t, panels[1].Polygons[0].Y, 4)
	catalog.AssertExpectations(t)
}

func TestGetChart_SeriesError(t *testing.T) {
	svc, _, catalog, _ := setup(unittest)
	remoteErr := &domain.RemoteQueryError{Reason: "send request"}
	catalog.On("Series", mock.Anything, views.TestsByDate, mock.Anything).Return(nil, remoteErr)

	_, err := svc.GetChart(context.Background(), "unittest", "", "", nil)

	var target *domain.RemoteQueryError
	assert.ErrorAs(t, err, &target)
	catalog.AssertNotCalled(t, "Series", mock.Anything, views.FailuresByDate, mock.Anything)
}

func TestGetSummary(t *testing.T) {
	svc, _, catalog, _ := setup(fxTest)
	catalog.On("Get", mock.Anything, views.Summary, domain.Filters(nil)).Return(&domain.QueryResult{
		Meta: domain.Metadata{"timestamp": day(20)},
		Table: domain.NewTable([]string{"distinct", "total", "start", "end"}, [][]any{
			{1234.0, 1234567.0, day(14), day(21)},
		}),
	}, nil)

	summary, err := svc.GetSummary(context.Background(), "fx-test", nil)

	require.NoError(t, err)
	assert.Equal(t, "1,234", summary.Distinct)
	assert.Equal(t, "1,234,567", summary.Total)
	assert.Equal(t, "14-Nov-2023", summary.Start)
	assert.Equal(t, "21-Nov-2023", summary.End)
	assert.Equal(t, day(20), summary.Meta["timestamp"])
}

func TestGetSummary_NoRows(t *testing.T) {
	svc, _, catalog, _ := setup(fxTest)
	catalog.On("Get", mock.Anything, views.Summary, mock.Anything).Return(&domain.QueryResult{
		Meta:  domain.Metadata{},
		Table: domain.Table{Rows: []domain.Row{}},
	}, nil)

	summary, err := svc.GetSummary(context.Background(), "fx-test", nil)

	require.NoError(t, err)
	assert.Equal(t, "0", summary.Distinct)
	assert.Empty(t, summary.Start)
}

func TestGetFilters_FxTest(t *testing.T) {
	svc, _, catalog, _ := setup(fxTest)
	filters := domain.Filters{"project": "kuma"}
	catalog.On("Get", mock.Anything, views.Projects, filters).Return(&domain.QueryResult{
		Table: domain.NewTable([]string{"project"}, [][]any{{"addons"}, {"kuma"}}),
	}, nil)
	catalog.On("Get", mock.Anything, views.Jobs, filters).Return(&domain.QueryResult{
		Table: domain.NewTable([]string{"job"}, [][]any{{"kuma.prod"}, {"kuma.stage"}, {nil}}),
	}, nil)

	got, err := svc.GetFilters(context.Background(), "fx-test", filters)

	require.NoError(t, err)
	assert.Equal(t, []domain.FilterDescriptor{
		{ID: "project", Label: "Project", Options: []string{"addons", "kuma"}, Selected: "kuma"},
		{ID: "job", Label: "Job", Options: []string{"kuma.prod", "kuma.stage"}},
		{ID: "since", Label: "Since", Options: domain.SinceOptions, Selected: "today-1week"},
	}, got)
}

func TestGetFilters_Unittest(t *testing.T) {
	svc, _, catalog, _ := setup(unittest)

	got, err := svc.GetFilters(context.Background(), "unittest", domain.Filters{
		"path":  "dom/",
		"since": "today-4week",
	})

	require.NoError(t, err)
	assert.Equal(t, []domain.FilterDescriptor{
		{ID: "branch", Label: "Branch", Options: []string{"autoland", "mozilla-central"}, Selected: "autoland"},
		{ID: "path", Label: "Path", Value: "dom/", FreeText: true},
		{ID: "since", Label: "Since", Options: domain.SinceOptions, Selected: "today-4week"},
	}, got)
	catalog.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetFilters_OptionsError(t *testing.T) {
	svc, _, catalog, _ := setup(fxTest)
	catalog.On("Get", mock.Anything, views.Projects, mock.Anything).Return(nil, errors.New("boom"))

	_, err := svc.GetFilters(context.Background(), "fx-test", nil)

	assert.ErrorContains(t, err, "filter project")
}

func TestService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown dashboard", func(t *testing.T) {
		svc, _, _, built := setup(fxTest)

		_, err := svc.GetView(ctx, "nope", views.Failures, nil)

		assert.ErrorIs(t, err, domain.ErrUnknownDashboard)
		assert.Zero(t, *built)
	})

	t.Run("invalid since", func(t *testing.T) {
		svc, registry, _, _ := setup(fxTest)

		_, err := svc.GetView(ctx, "fx-test", views.Failures, domain.Filters{"since": "yesterday"})

		assert.ErrorIs(t, err, domain.ErrInvalidFilter)
		registry.AssertNotCalled(t, "GetDashboard", mock.Anything, mock.Anything)
	})

	t.Run("catalog factory failure", func(t *testing.T) {
		registry := new(mockRegistry)
		registry.On("GetDashboard", mock.Anything, "fx-test").Return(fxTest, nil)
		svc := NewService(registry, func(string) (views.Catalog, error) {
			return nil, domain.ErrUnknownDashboard
		})

		_, err := svc.GetView(ctx, "fx-test", views.Failures, nil)
		assert.ErrorIs(t, err, domain.ErrUnknownDashboard)
	})
}

func TestService_ReusesCatalog(t *testing.T) {
	svc, _, catalog, built := setup(fxTest)
	catalog.On("Get", mock.Anything, views.Failures, mock.Anything).
		Return(&domain.QueryResult{Table: domain.Table{Rows: []domain.Row{}}}, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.GetView(context.Background(), "fx-test", views.Failures, nil)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, *built)
}

func TestListDashboards(t *testing.T) {
	svc, registry, _, _ := setup()
	registry.On("GetDashboards", mock.Anything).Return([]domain.Dashboard{*fxTest, *unittest}, nil)

	got, err := svc.ListDashboards(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 2)
}
