package panel

import (
	"context"
)

// Repository persists finished panel rows (ClickHouse)
type Repository interface {
	InsertRows(ctx context.Context, runID string, rows []Row) error
}

// Publisher streams finished panel rows to downstream consumers (Kafka)
type Publisher interface {
	PublishRows(ctx context.Context, runID string, rows []Row) error
}
