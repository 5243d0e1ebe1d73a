package testsupport

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestPostgres_RollsBackSchema(t *testing.T) {
	helper := NewTestPostgres(t)
	ctx := context.Background()

	_, err := helper.Tx().ExecContext(ctx, `INSERT INTO companies (ticker, name, position) VALUES ('ZZZ', 'Test Corp', 1)`)
	require.NoError(t, err)

	var count int
	require.NoError(t, helper.Tx().GetContext(ctx, &count, `SELECT COUNT(*) FROM companies WHERE ticker = 'ZZZ'`))
	assert.Equal(t, 1, count)

	helper.Rollback()

	var exists sql.NullString
	require.NoError(t, helper.DB().QueryRowContext(ctx, "SELECT to_regclass('public.companies')::text").Scan(&exists))
	if exists.Valid {
		var leaked int
		require.NoError(t, helper.DB().GetContext(ctx, &leaked, `SELECT COUNT(*) FROM companies WHERE ticker = 'ZZZ'`))
		assert.Zero(t, leaked)
	}
}
