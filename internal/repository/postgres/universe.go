package postgres

import (
	"context"
	"time"

	"github.com/lib/pq"

	"wsbpanel/internal/domain/ticker"
	"wsbpanel/internal/metrics"
	"wsbpanel/pkg/errors"
)

// Compile-time check
var _ ticker.UniverseSource = (*UniverseRepository)(nil)

// UniverseRepository reads and maintains the companies table
type UniverseRepository struct {
	db DBTX
}

// NewUniverseRepository creates a new universe repository
func NewUniverseRepository(db DBTX) *UniverseRepository {
	return &UniverseRepository{db: db}
}

// LoadCompanies returns the universe in insertion order
func (r *UniverseRepository) LoadCompanies(ctx context.Context) (companies []ticker.Company, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("postgres", "load_companies", time.Since(start), err) }()

	query := `SELECT ticker, name FROM companies ORDER BY position, ticker`

	if err := r.db.SelectContext(ctx, &companies, query); err != nil {
		return nil, errors.Wrap(err, "failed to load companies")
	}
	return companies, nil
}

// UpsertCompanies stores the universe, keeping the given order as position.
// Existing tickers get their name and position refreshed.
func (r *UniverseRepository) UpsertCompanies(ctx context.Context, companies []ticker.Company) (err error) {
	if len(companies) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("postgres", "upsert_companies", time.Since(start), err) }()

	symbols := make([]string, len(companies))
	names := make([]string, len(companies))
	for i, c := range companies {
		symbols[i] = c.Symbol
		names[i] = c.Name
	}

	query := `
		INSERT INTO companies (ticker, name, position)
		SELECT t.ticker, t.name, t.ord
		FROM unnest($1::text[], $2::text[]) WITH ORDINALITY AS t(ticker, name, ord)
		ON CONFLICT (ticker) DO UPDATE
		SET name = EXCLUDED.name, position = EXCLUDED.position`

	if _, err := r.db.ExecContext(ctx, query, pq.Array(symbols), pq.Array(names)); err != nil {
		return errors.Wrap(err, "failed to upsert companies")
	}
	return nil
}
