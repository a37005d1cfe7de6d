package adapters

import (
	"math"

	"github.com/de-tools/test-atlas/pkg/models/api"
	"github.com/de-tools/test-atlas/pkg/models/domain"
	"github.com/de-tools/test-atlas/pkg/models/store"
)

// MapStoreCachedQueryToDomain builds the result of a cached query. The metadata timestamp is
// the time the result was inserted.
func MapStoreCachedQueryToDomain(q store.CachedQuery) *domain.QueryResult {
	meta := domain.Metadata(q.Meta).Clone()
	if meta == nil {
		meta = domain.Metadata{}
	}
	meta[domain.MetaTimestamp] = q.InsertedAt

	return &domain.QueryResult{
		Meta:  meta,
		Table: domain.NewTable(q.Header, q.Data),
	}
}

func MapViewDomainToApi(name string, res *domain.QueryResult) api.View {
	view := api.View{
		Name:    name,
		Meta:    mapValues(res.Meta),
		Columns: res.Table.Columns,
		Rows:    make([]map[string]any, 0, res.Table.Len()),
	}
	if view.Columns == nil {
		view.Columns = []string{}
	}
	for _, row := range res.Table.Rows {
		view.Rows = append(view.Rows, mapValues(row))
	}
	return view
}

// mapValues copies m, replacing numbers JSON cannot represent with nil.
func mapValues[M ~map[string]any](m M) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			v = nil
		}
		out[k] = v
	}
	return out
}
