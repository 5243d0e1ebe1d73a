package csvstore

import (
	"context"
	"strings"

	"wsbpanel/internal/domain/ticker"
)

// Compile-time check
var _ ticker.UniverseSource = (*UniverseFile)(nil)

// UniverseFile reads a ';' separated company list with a Ticker;Name header
type UniverseFile struct {
	path string
}

// NewUniverseFile creates a universe source over path
func NewUniverseFile(path string) *UniverseFile {
	return &UniverseFile{path: path}
}

// LoadCompanies returns companies in file order; rows without a ticker are skipped
func (u *UniverseFile) LoadCompanies(ctx context.Context) ([]ticker.Company, error) {
	var companies []ticker.Company
	err := readTable(u.path, ';', []string{"Ticker", "Name"}, func(r record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		symbol := strings.TrimSpace(r.get("Ticker"))
		if symbol == "" {
			return nil
		}
		companies = append(companies, ticker.Company{Symbol: symbol, Name: r.get("Name")})
		return nil
	})
	return companies, err
}
