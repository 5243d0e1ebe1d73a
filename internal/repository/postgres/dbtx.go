package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

var (
	_ DBTX = (*sqlx.DB)(nil)
	_ DBTX = (*sqlx.Tx)(nil)
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx, so repository tests can
// run inside a transaction that is rolled back afterwards
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}
