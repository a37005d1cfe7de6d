package querycache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/test-atlas/pkg/models/store"
)

// Store persists raw query results keyed by the exact rendered query text.
type Store interface {
	// Get returns nil without error when nothing is stored for query.
	Get(ctx context.Context, query string) (*store.CachedQuery, error)
	Put(ctx context.Context, entry store.CachedQuery) error
	DeleteExpired(ctx context.Context, insertedBefore time.Time) (int64, error)
}

type queryStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &queryStore{
		db: db,
	}, nil
}

func (s *queryStore) Get(ctx context.Context, query string) (*store.CachedQuery, error) {
	var (
		metaRaw, headerRaw, dataRaw string
		insertedAt                  time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT metadata, header, data, inserted_at FROM query_cache WHERE query = ?`,
		query,
	).Scan(&metaRaw, &headerRaw, &dataRaw, &insertedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached query: %w", err)
	}

	entry := store.CachedQuery{
		Query:      query,
		InsertedAt: insertedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(metaRaw), &entry.Meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if err := json.Unmarshal([]byte(headerRaw), &entry.Header); err != nil {
		return nil, fmt.Errorf("unmarshal header: %w", err)
	}
	if err := json.Unmarshal([]byte(dataRaw), &entry.Data); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	if entry.Meta == nil {
		entry.Meta = map[string]any{}
	}
	return &entry, nil
}

func (s *queryStore) Put(ctx context.Context, entry store.CachedQuery) error {
	meta, err := json.Marshal(entry.Meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	header, err := json.Marshal(entry.Header)
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}
	data, err := json.Marshal(entry.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO query_cache (query, metadata, header, data, inserted_at)
		VALUES (?, ?, ?, ?, ?)`,
		entry.Query, string(meta), string(header), string(data), entry.InsertedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert cached query: %w", err)
	}
	return nil
}

func (s *queryStore) DeleteExpired(ctx context.Context, insertedBefore time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM query_cache WHERE inserted_at < ?`,
		insertedBefore.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired queries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted queries: %w", err)
	}
	return n, nil
}
