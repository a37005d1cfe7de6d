package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/de-tools/test-atlas/pkg/models/api"
	"github.com/de-tools/test-atlas/pkg/models/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ListDashboards(ctx context.Context) ([]domain.Dashboard, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Dashboard), args.Error(1)
}

func (m *mockService) GetView(
	ctx context.Context,
	dashboard, view string,
	filters domain.Filters,
) (*domain.QueryResult, error) {
	args := m.Called(ctx, dashboard, view, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueryResult), args.Error(1)
}

func (m *mockService) GetChart(
	ctx context.Context,
	dashboard, viewA, viewB string,
	filters domain.Filters,
) ([3]domain.ChartGeometry, error) {
	args := m.Called(ctx, dashboard, viewA, viewB, filters)
	return args.Get(0).([3]domain.ChartGeometry), args.Error(1)
}

func (m *mockService) GetSummary(ctx context.Context, dashboard string, filters domain.Filters) (*domain.Summary, error) {
	args := m.Called(ctx, dashboard, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Summary), args.Error(1)
}

func (m *mockService) GetFilters(
	ctx context.Context,
	dashboard string,
	filters domain.Filters,
) ([]domain.FilterDescriptor, error) {
	args := m.Called(ctx, dashboard, filters)
	return args.Get(0).([]domain.FilterDescriptor), args.Error(1)
}

func setupRouter(svc *mockService) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Get("/dashboards", h.ListDashboards)
	r.Route("/dashboards/{dashboard}", func(r chi.Router) {
		r.Get("/filters", h.GetFilters)
		r.Post("/filters", h.GetFilters)
		r.Get("/summary", h.GetSummary)
		r.Get("/plot", h.GetPlot)
		r.Get("/views/{view}", h.GetView)
		r.Post("/views/{view}", h.GetView)
		r.Get("/tests/{kind}", h.GetTests)
	})
	return r
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListDashboards(t *testing.T) {
	svc := new(mockService)
	svc.On("ListDashboards", mock.Anything).Return([]domain.Dashboard{
		{Name: "fx-test", Title: "Firefox", Filters: []string{"project", "since"}},
	}, nil)

	rec := serve(setupRouter(svc), httptest.NewRequest(http.MethodGet, "/dashboards", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var got []api.Dashboard
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, []api.Dashboard{{Name: "fx-test", Title: "Firefox", Filters: []string{"project", "since"}}}, got)
}

func TestGetView(t *testing.T) {
	tests := []struct {
		name     string
		request  func() *http.Request
		view     string
		expected domain.Filters
	}{
		{
			name: "query string",
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/dashboards/unittest/views/failures?since=today-2week&path=", nil)
			},
			view:     "failures",
			expected: domain.Filters{"since": "today-2week"},
		},
		{
			name: "form body",
			request: func() *http.Request {
				form := url.Values{"branch": {"mozilla-beta"}, "since": {"today-4week"}}
				req := httptest.NewRequest(http.MethodPost, "/dashboards/unittest/views/skipped", strings.NewReader(form.Encode()))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return req
			},
			view:     "skipped",
			expected: domain.Filters{"branch": "mozilla-beta", "since": "today-4week"},
		},
		{
			name: "tests breakdown",
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/dashboards/unittest/tests/slowest", nil)
			},
			view:     "tests_slowest",
			expected: domain.Filters{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			svc.On("GetView", mock.Anything, "unittest", tt.view, tt.expected).Return(&domain.QueryResult{
				Meta: domain.Metadata{"format": "table"},
				Table: domain.Table{
					Columns: []string{"test", "pass"},
					Rows:    []domain.Row{{"test": "a", "pass": math.NaN()}},
				},
			}, nil)

			rec := serve(setupRouter(svc), tt.request())

			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, fmt.Sprintf(`{
				"name": %q,
				"meta": {"format": "table"},
				"columns": ["test", "pass"],
				"rows": [{"test": "a", "pass": null}]
			}`, tt.view), rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "unknown view", err: fmt.Errorf("%w: unittest/nope", domain.ErrUnknownView), expectedStatus: http.StatusNotFound},
		{name: "unknown dashboard", err: domain.ErrUnknownDashboard, expectedStatus: http.StatusNotFound},
		{name: "invalid since", err: fmt.Errorf("%w: since", domain.ErrInvalidFilter), expectedStatus: http.StatusBadRequest},
		{name: "remote failure", err: fmt.Errorf("view failures: %w", &domain.RemoteQueryError{Reason: "send request"}), expectedStatus: http.StatusBadGateway},
		{name: "schema drift", err: &domain.ShapeMismatchError{View: "failures", Column: "total"}, expectedStatus: http.StatusBadGateway},
		{name: "other", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			svc.On("GetView", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := serve(setupRouter(svc), httptest.NewRequest(http.MethodGet, "/dashboards/unittest/views/failures", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			var body api.Error
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.err.Error(), body.Error)
		})
	}
}

func TestGetPlot(t *testing.T) {
	svc := new(mockService)
	end := 10.0
	svc.On("GetChart", mock.Anything, "fx-test", "", "", domain.Filters{"project": "kuma"}).Return([3]domain.ChartGeometry{
		{Title: "Distinct Tests", YRange: domain.YRange{End: &end}},
		{Title: "Total Failures"},
		{Title: "Average Test Duration"},
	}, nil)

	rec := serve(setupRouter(svc), httptest.NewRequest(http.MethodGet, "/dashboards/fx-test/plot?project=kuma", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got api.Chart
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got.Panels, 3)
	assert.Equal(t, "Total Failures", got.Panels[1].Title)
	require.NotNil(t, got.Panels[0].YRange.End)
	assert.Equal(t, api.Float(10), *got.Panels[0].YRange.End)
	assert.Nil(t, got.Panels[1].YRange.End)
}

func TestGetSummaryAndFilters(t *testing.T) {
	svc := new(mockService)
	svc.On("GetSummary", mock.Anything, "unittest", domain.Filters{}).Return(&domain.Summary{
		Meta: domain.Metadata{}, Distinct: "1,234", Total: "5,678", Start: "14-Nov-2023", End: "21-Nov-2023",
	}, nil)
	svc.On("GetFilters", mock.Anything, "unittest", domain.Filters{"branch": "mozilla-beta"}).Return([]domain.FilterDescriptor{
		{ID: "branch", Label: "Branch", Options: []string{"autoland", "mozilla-beta"}, Selected: "mozilla-beta"},
		{ID: "path", Label: "Path", FreeText: true},
	}, nil)
	router := setupRouter(svc)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/dashboards/unittest/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"meta": {}, "distinct": "1,234", "total": "5,678", "start": "14-Nov-2023", "end": "21-Nov-2023"}`,
		rec.Body.String())

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/dashboards/unittest/filters?branch=mozilla-beta", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"id": "branch", "label": "Branch", "options": ["autoland", "mozilla-beta"], "selected": "mozilla-beta"},
		{"id": "path", "label": "Path", "free_text": true}
	]`, rec.Body.String())
}
