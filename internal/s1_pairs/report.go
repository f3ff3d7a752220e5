package s1_pairs

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wonny/pairlab/internal/contracts"
)

// WriteReportCSV writes retained pairs as Asset1,Asset2,PValue,TestStat,HedgeRatio.
// A pair without a hedge ratio gets an empty cell.
func WriteReportCSV(w io.Writer, pairs []contracts.Pair) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Asset1", "Asset2", "PValue", "TestStat", "HedgeRatio"}); err != nil {
		return err
	}

	for _, p := range pairs {
		hedge := ""
		if p.HedgeRatio != nil {
			hedge = formatFloat(*p.HedgeRatio)
		}
		row := []string{p.Asset1, p.Asset2, formatFloat(p.PValue), formatFloat(p.TestStat), hedge}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveReportCSV writes the report to path, creating parent directories.
func SaveReportCSV(path string, pairs []contracts.Pair) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteReportCSV(f, pairs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadReportCSV parses a report written by WriteReportCSV, keeping row order.
func ReadReportCSV(r io.Reader) ([]contracts.Pair, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("pair report is empty")
	}
	if err != nil {
		return nil, err
	}
	if len(header) < 3 || header[0] != "Asset1" || header[1] != "Asset2" {
		return nil, fmt.Errorf("unexpected pair report header %v", header)
	}

	var pairs []contracts.Pair
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) < 3 || row[0] == "" || row[1] == "" {
			return nil, fmt.Errorf("line %d: incomplete pair row", line)
		}

		p := contracts.Pair{Asset1: row[0], Asset2: row[1], TestStat: math.NaN()}
		if p.PValue, err = strconv.ParseFloat(row[2], 64); err != nil {
			return nil, fmt.Errorf("line %d: p-value: %w", line, err)
		}
		if len(row) > 3 && row[3] != "" {
			if p.TestStat, err = strconv.ParseFloat(row[3], 64); err != nil {
				return nil, fmt.Errorf("line %d: test statistic: %w", line, err)
			}
		}
		if len(row) > 4 && row[4] != "" {
			beta, err := strconv.ParseFloat(row[4], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: hedge ratio: %w", line, err)
			}
			p.HedgeRatio = &beta
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// LoadReportCSV reads a report file.
func LoadReportCSV(path string) ([]contracts.Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadReportCSV(bufio.NewReader(f))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
