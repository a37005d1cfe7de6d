package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const QueryCacheSchema = `
	CREATE TABLE IF NOT EXISTS query_cache (
		query VARCHAR NOT NULL PRIMARY KEY,
		metadata VARCHAR NOT NULL,
		header VARCHAR NOT NULL,
		data VARCHAR NOT NULL,
		inserted_at TIMESTAMP NOT NULL
	);
`

var bootQueries = []string{
	QueryCacheSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
