package testsupport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"wsbpanel/internal/adapters/clickhouse"
)

// ClickHouseTestHelper scopes analytical writes to one throwaway run id
type ClickHouseTestHelper struct {
	client *clickhouse.Client
	runID  string
}

// NewTestClickHouse connects, applies the schema and allocates a run id whose
// rows are deleted from every panel table when the test ends.
func NewTestClickHouse(t *testing.T) *ClickHouseTestHelper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := clickhouse.NewClient(ctx, ClickHouseConfig(t))
	if err != nil {
		t.Fatalf("failed to connect to clickhouse: %v", err)
	}

	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("failed to migrate clickhouse: %v", err)
	}

	h := &ClickHouseTestHelper{client: client, runID: UniqueRunID()}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		for _, table := range clickhouse.Tables {
			_ = client.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE run_id = ?", table), h.runID)
		}
		_ = client.Close()
	})

	return h
}

// RunID is the run id the test should write under
func (h *ClickHouseTestHelper) RunID() string {
	return h.runID
}

// CountRun returns how many rows table holds for the helper's run
func (h *ClickHouseTestHelper) CountRun(t *testing.T, table string) uint64 {
	t.Helper()

	var count uint64
	row := h.client.Conn().QueryRow(context.Background(),
		fmt.Sprintf("SELECT count() FROM %s FINAL WHERE run_id = ?", table), h.runID)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	return count
}

// Client exposes the raw ClickHouse client for queries.
func (h *ClickHouseTestHelper) Client() *clickhouse.Client {
	return h.client
}
