package s0_data

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pairlab/internal/contracts"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const downloaderCSV = `Price,AAPL,MSFT,EMPTY
Ticker,AAPL,MSFT,EMPTY
Date,,,
2024-01-02,185.5,370.1,
2024-01-03,184.2,n/a,
2024-01-04,,371.0,
`

func TestLoadPriceCSVDownloaderLayout(t *testing.T) {
	m, report, err := LoadPriceCSV(strings.NewReader(downloaderCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT"}, m.Tickers)
	assert.Equal(t, []time.Time{day(2024, 1, 2), day(2024, 1, 3), day(2024, 1, 4)}, m.Dates)
	assert.Equal(t, 185.5, m.Columns["AAPL"][0])
	assert.True(t, math.IsNaN(m.Columns["AAPL"][2]))
	assert.True(t, math.IsNaN(m.Columns["MSFT"][1]))

	assert.Equal(t, 2, report.MetadataRows)
	assert.Equal(t, 1, report.CoercedCells)
	assert.Equal(t, []string{"EMPTY"}, report.DroppedColumns)
}

func TestLoadPriceCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty input", input: "", wantErr: contracts.ErrEmptyMatrix},
		{name: "header only", input: "Date,A,B\n", wantErr: contracts.ErrEmptyMatrix},
		{name: "unsorted dates", input: "Date,A\n2024-01-03,1\n2024-01-02,2\n", wantErr: contracts.ErrUnsortedDates},
		{name: "duplicate dates", input: "Date,A\n2024-01-02,1\n2024-01-02,2\n", wantErr: contracts.ErrUnsortedDates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadPriceCSV(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadPriceCSVDuplicateColumn(t *testing.T) {
	_, _, err := LoadPriceCSV(strings.NewReader("Date,A,A\n2024-01-02,1,2\n"))
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-01-02", day(2024, 1, 2), true},
		{"2024-01-02 00:00:00-05:00", day(2024, 1, 2), true},
		{"2024/01/02", day(2024, 1, 2), true},
		{"20240102", day(2024, 1, 2), true},
		{"Ticker", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteThenLoadPriceCSV(t *testing.T) {
	m, err := contracts.NewPriceMatrix(
		[]time.Time{day(2024, 1, 2), day(2024, 1, 3)},
		[]string{"B", "A"},
		map[string][]float64{"B": {1.25, math.NaN()}, "A": {3, 4}},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePriceCSV(&buf, m))
	assert.Equal(t, "Date,B,A\n2024-01-02,1.25,3\n2024-01-03,,4\n", buf.String())

	path := filepath.Join(t.TempDir(), "nested", "prices.csv")
	require.NoError(t, SavePriceCSV(path, m))

	got, report, err := ReadPriceCSV(path)
	require.NoError(t, err)
	assert.Zero(t, report.MetadataRows)
	assert.Equal(t, m.Tickers, got.Tickers)
	assert.Equal(t, m.Dates, got.Dates)
	assert.True(t, math.IsNaN(got.Columns["B"][1]))
}

func TestReadPriceCSVMissingFile(t *testing.T) {
	_, _, err := ReadPriceCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
