package csvstore

import (
	"wsbpanel/internal/domain/market_data"
)

var observationsHeader = []string{"date", "ticker", "closing_price", "volume"}

// WriteObservations writes daily bars in long format; missing values are empty cells
func (s *Store) WriteObservations(rows []market_data.Observation) error {
	return writeTable(s.Path(MarketObservationsFile), observationsHeader, rows, func(o market_data.Observation) []string {
		return []string{o.Date.String(), o.Ticker, formatDecimal(o.Close), formatDecimal(o.Volume)}
	})
}

// ReadObservations reads daily bars back
func (s *Store) ReadObservations() ([]market_data.Observation, error) {
	var rows []market_data.Observation
	err := readTable(s.Path(MarketObservationsFile), ',', observationsHeader, func(r record) error {
		date, err := parseDate(r, "date")
		if err != nil {
			return err
		}
		closing, err := r.decimal("closing_price")
		if err != nil {
			return err
		}
		volume, err := r.decimal("volume")
		if err != nil {
			return err
		}
		rows = append(rows, market_data.Observation{
			Date:   date,
			Ticker: r.get("ticker"),
			Close:  closing,
			Volume: volume,
		})
		return nil
	})
	return rows, err
}
