package s0_data

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/pairlab/internal/contracts"
)

// dateLayouts are tried in order when parsing the first CSV column.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"20060102",
}

// LoadReport describes what the loader stripped or coerced.
type LoadReport struct {
	MetadataRows   int      // leading rows whose first cell is not a date
	CoercedCells   int      // non-empty cells that were not numbers
	DroppedColumns []string // columns with no observation at all
}

// ParseDate parses a calendar date in any supported layout, in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ReadPriceCSV loads a price matrix from a file.
func ReadPriceCSV(path string) (*contracts.PriceMatrix, *LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	return LoadPriceCSV(bufio.NewReader(f))
}

// LoadPriceCSV reads a date-by-ticker table of closes.
//
// The first row names the tickers. Rows whose first cell is not a date
// (the "Ticker,..." and "Date,,," rows some downloaders emit) are
// skipped. Empty or non-numeric cells become NaN, and columns with no
// numeric cell are dropped. Dates must be strictly ascending.
func LoadPriceCSV(r io.Reader) (*contracts.PriceMatrix, *LoadReport, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, contracts.ErrEmptyMatrix
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	tickers := make([]string, 0, len(header))
	seen := make(map[string]bool, len(header))
	for _, h := range header[1:] {
		t := strings.TrimSpace(h)
		if t != "" && seen[t] {
			return nil, nil, fmt.Errorf("duplicate column %q", t)
		}
		seen[t] = true
		tickers = append(tickers, t)
	}

	report := &LoadReport{}
	var dates []time.Time
	columns := make([][]float64, len(tickers))

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", len(dates)+report.MetadataRows+2, err)
		}
		if len(record) == 0 {
			continue
		}

		date, ok := ParseDate(record[0])
		if !ok {
			report.MetadataRows++
			continue
		}
		dates = append(dates, date)

		for j := range tickers {
			cell := ""
			if j+1 < len(record) {
				cell = strings.TrimSpace(record[j+1])
			}
			columns[j] = append(columns[j], parseCell(cell, report))
		}
	}

	if len(dates) == 0 {
		return nil, report, contracts.ErrEmptyMatrix
	}

	kept := make([]string, 0, len(tickers))
	byTicker := make(map[string][]float64, len(tickers))
	for j, t := range tickers {
		if t == "" || allMissing(columns[j]) {
			report.DroppedColumns = append(report.DroppedColumns, t)
			continue
		}
		kept = append(kept, t)
		byTicker[t] = columns[j]
	}

	m, err := contracts.NewPriceMatrix(dates, kept, byTicker)
	if err != nil {
		return nil, report, err
	}
	return m, report, nil
}

func parseCell(cell string, report *LoadReport) float64 {
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsInf(v, 0) {
		report.CoercedCells++
		return math.NaN()
	}
	return v
}

func allMissing(col []float64) bool {
	for _, v := range col {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

// WritePriceCSV writes the matrix as Date,<tickers...>; NaN is written
// as an empty cell.
func WritePriceCSV(w io.Writer, m *contracts.PriceMatrix) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Date"}, m.Tickers...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i, d := range m.Dates {
		row[0] = d.Format("2006-01-02")
		for j, t := range m.Tickers {
			row[j+1] = formatPrice(m.Columns[t][i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SavePriceCSV writes the matrix to path, creating parent directories.
func SavePriceCSV(path string, m *contracts.PriceMatrix) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := WritePriceCSV(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatPrice(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
