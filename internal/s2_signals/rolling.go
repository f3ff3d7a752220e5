package s2_signals

import (
	"iter"

	"gonum.org/v1/gonum/stat"
)

// WindowStat is the mean and sample standard deviation of one trailing
// window. Valid is false until the window is full.
type WindowStat struct {
	Mean  float64
	Std   float64
	Valid bool
}

// RollingStats yields (index, stat) for every element of values over a
// trailing window of the given size. The sequence is finite and can be
// ranged over once; a second range yields nothing.
func RollingStats(values []float64, window int) iter.Seq2[int, WindowStat] {
	used := false
	return func(yield func(int, WindowStat) bool) {
		if used {
			return
		}
		used = true

		for i := range values {
			ws := WindowStat{}
			if window >= 1 && i+1 >= window {
				w := values[i+1-window : i+1]
				if window == 1 {
					ws.Mean, ws.Valid = w[0], true
				} else {
					ws.Mean, ws.Std = stat.MeanStdDev(w, nil)
					ws.Valid = true
				}
			}
			if !yield(i, ws) {
				return
			}
		}
	}
}
