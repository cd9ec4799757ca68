package pitch

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/0xlemi/fretlab/internal/audio"
	"github.com/0xlemi/fretlab/internal/theory"
)

// Errors
var (
	ErrEmptyBuffer   = errors.New("empty audio buffer")
	ErrSampleRate    = errors.New("invalid sample rate")
	ErrNoPitch       = errors.New("no pitch detected")
	ErrUnknownMethod = errors.New("unknown detection method")
)

// Reason explains why an estimate carries no frequency
type Reason int

const (
	ReasonNone       Reason = iota // voiced
	ReasonSilent                   // level below the noise floor
	ReasonUnvoiced                 // no strongly periodic lag
	ReasonOutOfRange               // periodic, but outside the instrument's range
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "voiced"
	case ReasonSilent:
		return "silent"
	case ReasonUnvoiced:
		return "unvoiced"
	case ReasonOutOfRange:
		return "out of range"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Estimate is the result of analysing one window. When Voiced is false the
// frequency is absent and Frequency is zero.
type Estimate struct {
	Frequency   float64
	Voiced      bool
	Reason      Reason
	Correlation float64 // strength of the chosen period, 0..1
	Level       float64 // mean absolute amplitude
	RMS         float64
	DB          float64
	Frame       uint64
	At          time.Time
}

// Note converts a voiced estimate to a note name with cents deviation
func (e Estimate) Note() (theory.NoteResult, error) {
	if !e.Voiced {
		return theory.NoteResult{}, ErrNoPitch
	}
	return theory.NoteOf(e.Frequency)
}

// Detector defines the interface for pitch detection
type Detector interface {
	// Detect analyses one window and reports the fundamental, if any
	Detect(buffer *audio.AudioBuffer) (Estimate, error)
}

// Params are the acceptance thresholds shared by every detector
type Params struct {
	NoiseFloor   float64 // minimum mean absolute amplitude
	Threshold    float64 // minimum normalised correlation
	MinFrequency float64 // exclusive, Hz
	MaxFrequency float64 // exclusive, Hz
}

// DefaultParams returns thresholds tuned for guitar
func DefaultParams() Params {
	return Params{
		NoiseFloor:   0.01,
		Threshold:    0.9,
		MinFrequency: 60,
		MaxFrequency: 1200,
	}
}

func (p Params) inRange(f float64) bool {
	return f > p.MinFrequency && f < p.MaxFrequency
}

// New returns the detector registered under method
func New(method string, p Params) (Detector, error) {
	switch method {
	case "", "autocorrelation":
		return NewAutocorrelationDetector(p), nil
	case "spectrum":
		return NewSpectrumDetector(p), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
}

// measure validates the buffer and applies the silence gate. The returned
// estimate is final when ok is false.
func measure(buffer *audio.AudioBuffer, p Params) (est Estimate, ok bool, err error) {
	if buffer == nil || len(buffer.Samples) == 0 {
		return Estimate{}, false, ErrEmptyBuffer
	}
	if buffer.SampleRate <= 0 {
		return Estimate{}, false, ErrSampleRate
	}

	level := audio.MeasureLevel(buffer.Samples)
	est = Estimate{
		Level: level.MeanAbs,
		RMS:   level.RMS,
		DB:    level.DB,
	}

	if level.MeanAbs < p.NoiseFloor || math.IsNaN(level.MeanAbs) {
		est.Reason = ReasonSilent
		return est, false, nil
	}

	return est, true, nil
}
