package contracts

import (
	"errors"
	"math"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestPriceMatrix_Validate(t *testing.T) {
	tests := []struct {
		name    string
		matrix  PriceMatrix
		wantErr error
	}{
		{
			name: "valid",
			matrix: PriceMatrix{
				Dates:   []time.Time{day(2), day(3)},
				Tickers: []string{"AAA"},
				Columns: map[string][]float64{"AAA": {1, 2}},
			},
		},
		{
			name: "duplicate date",
			matrix: PriceMatrix{
				Dates:   []time.Time{day(2), day(2)},
				Tickers: []string{"AAA"},
				Columns: map[string][]float64{"AAA": {1, 2}},
			},
			wantErr: ErrUnsortedDates,
		},
		{
			name: "descending dates",
			matrix: PriceMatrix{
				Dates:   []time.Time{day(3), day(2)},
				Tickers: []string{"AAA"},
				Columns: map[string][]float64{"AAA": {1, 2}},
			},
			wantErr: ErrUnsortedDates,
		},
		{
			name: "missing column",
			matrix: PriceMatrix{
				Dates:   []time.Time{day(2)},
				Tickers: []string{"AAA", "BBB"},
				Columns: map[string][]float64{"AAA": {1}},
			},
			wantErr: ErrMissingTicker,
		},
		{
			name: "short column",
			matrix: PriceMatrix{
				Dates:   []time.Time{day(2), day(3)},
				Tickers: []string{"AAA"},
				Columns: map[string][]float64{"AAA": {1}},
			},
			wantErr: ErrMisaligned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.matrix.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPriceMatrix_Coverage(t *testing.T) {
	m, err := NewPriceMatrix(
		[]time.Time{day(2), day(3), day(4), day(5)},
		[]string{"AAA", "BBB"},
		map[string][]float64{
			"AAA": {1, 2, 3, 4},
			"BBB": {math.NaN(), 2, math.NaN(), 4},
		},
	)
	if err != nil {
		t.Fatalf("NewPriceMatrix() error = %v", err)
	}

	cov := m.Coverage()
	if cov["AAA"] != 1 {
		t.Errorf("Coverage()[AAA] = %v, want 1", cov["AAA"])
	}
	if cov["BBB"] != 0.5 {
		t.Errorf("Coverage()[BBB] = %v, want 0.5", cov["BBB"])
	}
}

func TestPriceMatrix_IsEmpty(t *testing.T) {
	var nilMatrix *PriceMatrix
	if !nilMatrix.IsEmpty() {
		t.Error("nil matrix should be empty")
	}
	if !(&PriceMatrix{Dates: []time.Time{day(2)}}).IsEmpty() {
		t.Error("matrix without tickers should be empty")
	}
	m := &PriceMatrix{
		Dates:   []time.Time{day(2)},
		Tickers: []string{"AAA"},
		Columns: map[string][]float64{"AAA": {1}},
	}
	if m.IsEmpty() {
		t.Error("populated matrix should not be empty")
	}
}

func TestPriceMatrix_Series(t *testing.T) {
	m := &PriceMatrix{
		Dates:   []time.Time{day(2), day(3)},
		Tickers: []string{"AAA"},
		Columns: map[string][]float64{"AAA": {10, 11}},
	}

	s, err := m.Series("AAA")
	if err != nil {
		t.Fatalf("Series() error = %v", err)
	}
	if s.Len() != 2 || s.Values[1] != 11 {
		t.Errorf("Series() = %+v", s)
	}

	if _, err := m.Series("ZZZ"); !errors.Is(err, ErrMissingTicker) {
		t.Errorf("Series(ZZZ) error = %v, want ErrMissingTicker", err)
	}
}

func TestStage_ShortName(t *testing.T) {
	want := []string{"S0", "S1", "S2", "S3", "S4"}
	for i, s := range AllStages() {
		if got := s.ShortName(); got != want[i] {
			t.Errorf("%s.ShortName() = %q, want %q", s, got, want[i])
		}
	}
	if got := Stage("bogus").ShortName(); got != "UNKNOWN" {
		t.Errorf("ShortName() = %q, want UNKNOWN", got)
	}
}
