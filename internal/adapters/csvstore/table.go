// Package csvstore reads and writes the pipeline's flat CSV datasets.
package csvstore

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"wsbpanel/internal/metrics"
	"wsbpanel/pkg/errors"
	"wsbpanel/pkg/logger"
)

// writeTable writes header plus one encoded line per row. The file is
// written under a temporary name and renamed into place, so readers never
// see a half written dataset.
func writeTable[T any](path string, header []string, rows []T, encode func(T) []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "csv: create output dir")
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "csv: create file %q", path)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "csv: write header")
	}
	for _, row := range rows {
		if err := w.Write(encode(row)); err != nil {
			_ = f.Close()
			return errors.Wrap(err, "csv: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "csv: flush")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "csv: close")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "csv: move into place %q", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), ".csv")
	metrics.RecordDatasetRows(name, len(rows))
	logger.Get().Infow("Wrote dataset", "file", path, "rows", humanize.Comma(int64(len(rows))))
	return nil
}

// record is one CSV line addressed by header name
type record struct {
	index  map[string]int
	fields []string
	line   int
}

// get returns the named field, "" when the column or cell is absent
func (r record) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

// first returns the value of the first column present in the header
func (r record) first(cols ...string) string {
	for _, col := range cols {
		if _, ok := r.index[col]; ok {
			return r.get(col)
		}
	}
	return ""
}

func (r record) int(col string) (int, error) {
	s := strings.TrimSpace(r.get(col))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err == nil {
		return v, nil
	}
	// pandas writes integer columns holding NaN as floats
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return 0, r.malformed(col, s)
	}
	return int(f), nil
}

func (r record) int64(col string) (int64, error) {
	s := strings.TrimSpace(r.get(col))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return v, nil
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return 0, r.malformed(col, s)
	}
	return int64(f), nil
}

func (r record) float(col string) (float64, error) {
	s := strings.TrimSpace(r.get(col))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, r.malformed(col, s)
	}
	return v, nil
}

func (r record) bool(col string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(r.get(col)))
	return v
}

// decimal returns an invalid NullDecimal for empty and NaN cells
func (r record) decimal(col string) (decimal.NullDecimal, error) {
	s := strings.TrimSpace(r.get(col))
	if s == "" || strings.EqualFold(s, "nan") {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, r.malformed(col, s)
	}
	return decimal.NewNullDecimal(d), nil
}

func (r record) malformed(col, value string) error {
	return errors.Wrapf(errors.ErrMalformedField, "line %d column %s: %q", r.line, col, value)
}

// readTable streams every data line of path to fn. required columns must
// appear in the header.
func readTable(path string, comma rune, required []string, fn func(record) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(errors.ErrNotFound, "csv: %s", path)
		}
		return errors.Wrapf(err, "csv: open %q", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return errors.Wrapf(errors.ErrMalformedField, "csv: %s has no header", path)
	}
	if err != nil {
		return errors.Wrapf(err, "csv: read header of %q", path)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		if _, dup := index[col]; !dup {
			index[col] = i
		}
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return errors.Wrapf(errors.ErrMalformedField, "csv: %s is missing column %q", path, col)
		}
	}

	for line := 2; ; line++ {
		fields, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "csv: read %q", path)
		}
		if err := fn(record{index: index, fields: fields, line: line}); err != nil {
			return errors.Wrapf(err, "csv: %s", path)
		}
	}
}

func itoa(v int) string { return strconv.Itoa(v) }

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// formatList renders tickers the way the labeler expects them: ['AAPL', 'TSLA']
func formatList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// parseList accepts formatList output as well as JSON style double quotes.
// An empty cell is an empty list.
func parseList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return []string{}
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `'"`)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
