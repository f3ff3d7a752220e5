package backtest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wonny/pairlab/internal/contracts"
	"github.com/wonny/pairlab/internal/s0_data"
)

// ValueColumn is the header of the value column.
const ValueColumn = "Portfolio_Value"

// WriteValueCSV writes Date,Portfolio_Value for every point.
func WriteValueCSV(w io.Writer, values contracts.PortfolioValueSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", ValueColumn}); err != nil {
		return err
	}
	for _, p := range values {
		if err := cw.Write([]string{p.Date.Format("2006-01-02"), strconv.FormatFloat(p.Value, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveValueCSV writes the series to path, creating parent directories.
func SaveValueCSV(path string, values contracts.PortfolioValueSeries) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteValueCSV(f, values); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadValueCSV reads a two-column date/value file. The header row is
// required; empty values are skipped.
func ReadValueCSV(r io.Reader) (contracts.PortfolioValueSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, contracts.ErrEmptyMatrix
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var out contracts.PortfolioValueSeries
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if len(record) < 2 || strings.TrimSpace(record[1]) == "" {
			continue
		}

		date, ok := s0_data.ParseDate(record[0])
		if !ok {
			return nil, fmt.Errorf("line %d: invalid date %q", line, record[0])
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid value %q: %w", line, record[1], err)
		}
		if n := len(out); n > 0 && !date.After(out[n-1].Date) {
			return nil, fmt.Errorf("%w: line %d", contracts.ErrUnsortedDates, line)
		}
		out = append(out, contracts.ValuePoint{Date: date, Value: v})
	}

	if len(out) == 0 {
		return nil, contracts.ErrEmptyMatrix
	}
	return out, nil
}

// LoadValueCSV reads a value series from path.
func LoadValueCSV(path string) (contracts.PortfolioValueSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadValueCSV(f)
}
