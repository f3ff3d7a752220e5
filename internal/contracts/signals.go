package contracts

import "time"

// ZScore is an optional z-score: Valid is false until the rolling
// window is full, or when the window has zero dispersion.
type ZScore struct {
	Value float64
	Valid bool
}

// DaySignal holds the four trading booleans for one date.
// All four are false when the z-score is undefined.
type DaySignal struct {
	LongEntry  bool `json:"long_entry"`
	ShortEntry bool `json:"short_entry"`
	LongExit   bool `json:"long_exit"`
	ShortExit  bool `json:"short_exit"`
}

// Any reports whether any flag is raised.
func (d DaySignal) Any() bool {
	return d.LongEntry || d.ShortEntry || d.LongExit || d.ShortExit
}

// SignalSeries is the per-date output of the signal generator.
// ⭐ SSOT: S2 → Backtest 시그널 전달
type SignalSeries struct {
	Dates   []time.Time
	ZScores []ZScore
	Signals []DaySignal
	index   map[int64]int
}

// NewSignalSeries builds a series and its date index.
func NewSignalSeries(dates []time.Time, zscores []ZScore, signals []DaySignal) *SignalSeries {
	s := &SignalSeries{Dates: dates, ZScores: zscores, Signals: signals}
	s.index = make(map[int64]int, len(dates))
	for i, d := range dates {
		s.index[dateKey(d)] = i
	}
	return s
}

// Len returns the number of dates.
func (s *SignalSeries) Len() int { return len(s.Dates) }

// At returns the signal for a date, and false when the date is absent.
func (s *SignalSeries) At(date time.Time) (DaySignal, bool) {
	i, ok := s.Index(date)
	if !ok {
		return DaySignal{}, false
	}
	return s.Signals[i], true
}

// Index returns the position of date in the series.
func (s *SignalSeries) Index(date time.Time) (int, bool) {
	key := dateKey(date)
	if s.index == nil {
		for i, d := range s.Dates {
			if dateKey(d) == key {
				return i, true
			}
		}
		return 0, false
	}
	i, ok := s.index[key]
	return i, ok
}

func dateKey(t time.Time) int64 {
	y, m, d := t.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}
