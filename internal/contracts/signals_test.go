package contracts

import (
	"testing"
	"time"
)

func TestSignalSeries_At(t *testing.T) {
	dates := []time.Time{day(2), day(3), day(4)}
	signals := []DaySignal{{}, {LongEntry: true}, {LongExit: true, ShortExit: true}}
	zs := []ZScore{{}, {Value: -2.1, Valid: true}, {Value: 0.1, Valid: true}}

	indexed := NewSignalSeries(dates, zs, signals)
	literal := &SignalSeries{Dates: dates, ZScores: zs, Signals: signals}

	for name, s := range map[string]*SignalSeries{"indexed": indexed, "literal": literal} {
		t.Run(name, func(t *testing.T) {
			// a different time of day still maps to the same date
			got, ok := s.At(time.Date(2024, 1, 3, 16, 0, 0, 0, time.UTC))
			if !ok || !got.LongEntry {
				t.Errorf("At(day 3) = %+v, %v", got, ok)
			}

			if _, ok := s.At(day(9)); ok {
				t.Error("At(day 9) should be absent")
			}

			i, ok := s.Index(day(4))
			if !ok || i != 2 {
				t.Errorf("Index(day 4) = %d, %v, want 2, true", i, ok)
			}
		})
	}
}

func TestDaySignal_Any(t *testing.T) {
	if (DaySignal{}).Any() {
		t.Error("zero signal should not be raised")
	}
	if !(DaySignal{ShortExit: true}).Any() {
		t.Error("ShortExit should count as raised")
	}
}
