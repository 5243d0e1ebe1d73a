package testsupport

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"wsbpanel/internal/adapters/postgres"
)

// PostgresTestHelper holds a transaction that is rolled back when the test ends,
// so the universe schema and rows a test creates never persist.
type PostgresTestHelper struct {
	client     *postgres.Client
	tx         *sqlx.Tx
	rolledBack bool
}

// NewTestPostgres connects, begins a transaction and applies the universe schema inside it
func NewTestPostgres(t *testing.T) *PostgresTestHelper {
	t.Helper()

	ctx := context.Background()

	client, err := postgres.NewClient(ctx, PostgresConfig(t))
	if err != nil {
		t.Fatalf("failed to create postgres client: %v", err)
	}

	tx, err := client.DB().BeginTxx(ctx, nil)
	if err != nil {
		_ = client.Close()
		t.Fatalf("failed to start transaction: %v", err)
	}

	h := &PostgresTestHelper{client: client, tx: tx}
	t.Cleanup(func() {
		h.Rollback()
		_ = client.Close()
	})

	if _, err := tx.ExecContext(ctx, postgres.Schema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return h
}

// Tx returns the active transaction for the test.
func (h *PostgresTestHelper) Tx() *sqlx.Tx {
	return h.tx
}

// DB returns the underlying database handle.
func (h *PostgresTestHelper) DB() *sqlx.DB {
	return h.client.DB()
}

// Rollback rolls back the transaction once.
func (h *PostgresTestHelper) Rollback() {
	if h.rolledBack {
		return
	}
	_ = h.tx.Rollback()
	h.rolledBack = true
}
