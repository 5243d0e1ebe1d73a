package sentiment

import (
	"context"
)

// Repository persists derived sentiment aggregates (ClickHouse)
type Repository interface {
	InsertDailyAggregates(ctx context.Context, runID string, aggregates []DailyAggregate) error
}

// LabelSource provides consensus labels keyed by record id
type LabelSource interface {
	LoadLabels(ctx context.Context) (map[string]Label, error)
}
