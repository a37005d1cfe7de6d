package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/de-tools/test-atlas/pkg/adapters"
	"github.com/de-tools/test-atlas/pkg/models/api"
	"github.com/de-tools/test-atlas/pkg/models/domain"
	"github.com/de-tools/test-atlas/pkg/services/dashboard"
	"github.com/de-tools/test-atlas/pkg/services/views"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Handler struct {
	svc dashboard.Service
}

func NewHandler(svc dashboard.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListDashboards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dashboards, err := h.svc.ListDashboards(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response := make([]api.Dashboard, 0, len(dashboards))
	for _, d := range dashboards {
		response = append(response, adapters.MapDashboardDomainToApi(d))
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *Handler) GetFilters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "dashboard")

	filters, err := h.svc.GetFilters(ctx, name, requestFilters(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response := make([]api.Filter, 0, len(filters))
	for _, f := range filters {
		response = append(response, adapters.MapFilterDomainToApi(f))
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "dashboard")

	summary, err := h.svc.GetSummary(ctx, name, requestFilters(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapSummaryDomainToApi(summary))
}

func (h *Handler) GetPlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "dashboard")

	panels, err := h.svc.GetChart(ctx, name, "", "", requestFilters(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapChartDomainToApi(panels))
}

func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, chi.URLParam(r, "view"))
}

// GetTests serves the per-test breakdowns, e.g. /tests/failures resolves tests_failures.
func (h *Handler) GetTests(w http.ResponseWriter, r *http.Request) {
	h.view(w, r, "tests_"+chi.URLParam(r, "kind"))
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request, view string) {
	ctx := r.Context()
	name := chi.URLParam(r, "dashboard")

	res, err := h.svc.GetView(ctx, name, view, requestFilters(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapViewDomainToApi(view, res))
}

// requestFilters reads filters from the query string and, for POST requests, the form body.
// Empty values are dropped.
func requestFilters(r *http.Request) domain.Filters {
	if err := r.ParseForm(); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("failed to parse request form")
	}

	filters := domain.Filters{}
	for key, values := range r.Form {
		if len(values) > 0 && values[0] != "" {
			filters[key] = values[0]
		}
	}
	return filters
}

func statusOf(err error) int {
	var remoteErr *domain.RemoteQueryError
	var shapeErr *domain.ShapeMismatchError

	switch {
	case views.IsUnknown(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.As(err, &remoteErr), errors.As(err, &shapeErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		logger.Info().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, r, status, api.Error{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}
