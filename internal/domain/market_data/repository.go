package market_data

import (
	"context"
)

// Provider serves daily bars; it may omit dates (holidays, halts)
type Provider interface {
	GetDaily(ctx context.Context, query Query) ([]Observation, error)
}

// Repository persists observations (ClickHouse)
type Repository interface {
	InsertObservations(ctx context.Context, runID string, observations []Observation) error
}
