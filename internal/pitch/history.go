package pitch

import (
	"math"

	"github.com/0xlemi/fretlab/internal/audio"
)

// History keeps the most recent voiced frequencies and judges whether the
// reading has settled. It smooths the display only; estimates are never
// altered.
type History struct {
	readings  *audio.Ring[float64]
	window    int
	tolerance float64
}

// NewHistory keeps size readings and calls the reading stable when the
// latest window of them lie within tolerance Hz of their mean
func NewHistory(size, window int, tolerance float64) *History {
	if size <= 0 {
		size = 10
	}
	if window <= 0 || window > size {
		window = size
	}
	return &History{
		readings:  audio.NewRing[float64](size),
		window:    window,
		tolerance: tolerance,
	}
}

// Add records a voiced frequency
func (h *History) Add(frequency float64) {
	if frequency <= 0 || math.IsNaN(frequency) || math.IsInf(frequency, 0) {
		return
	}
	h.readings.Enqueue(frequency)
}

// Observe folds an estimate into the history. Silence clears it; unvoiced
// frames leave it untouched.
func (h *History) Observe(e Estimate) {
	switch {
	case e.Voiced:
		h.Add(e.Frequency)
	case e.Reason == ReasonSilent:
		h.Reset()
	}
}

func (h *History) Reset() {
	h.readings.Reset()
}

// Len returns the number of readings held
func (h *History) Len() int {
	return h.readings.Len()
}

// Recent returns the readings that decide stability, oldest first
func (h *History) Recent() []float64 {
	return h.readings.Last(h.window)
}

// Mean of the recent readings, zero when empty
func (h *History) Mean() float64 {
	recent := h.Recent()
	if len(recent) == 0 {
		return 0
	}
	sum := 0.0
	for _, f := range recent {
		sum += f
	}
	return sum / float64(len(recent))
}

// Stable reports whether a full window of readings sits within tolerance of
// its mean
func (h *History) Stable() bool {
	recent := h.Recent()
	if len(recent) < h.window {
		return false
	}

	mean := h.Mean()
	for _, f := range recent {
		if math.Abs(f-mean) >= h.tolerance {
			return false
		}
	}
	return true
}
