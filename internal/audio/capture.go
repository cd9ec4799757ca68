package audio

import (
	"context"
	"errors"
	"math"
	"time"
)

var (
	ErrStreamClosed      = errors.New("audio stream closed")
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	ErrCaptureStalled    = errors.New("audio capture stalled")
)

// AudioBuffer represents a buffer of mono audio samples
type AudioBuffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the playing time of the buffer
func (b *AudioBuffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// Microphone opens capture streams. Implementations own device access and
// permission prompts.
type Microphone interface {
	// Open starts capturing mono audio. windowSize is the number of most
	// recent samples each Read returns.
	Open(ctx context.Context, sampleRate, windowSize int) (Stream, error)
}

// Stream is a running capture
type Stream interface {
	// Read fills buf with the most recent len(buf) samples, oldest first
	Read(buf []float32) error

	// SampleRate returns the rate the device actually runs at
	SampleRate() int

	// Close releases the device. Safe to call more than once.
	Close() error
}

// Level summarises the loudness of a window
type Level struct {
	MeanAbs float64
	RMS     float64
	DB      float64
	Peak    float64
}

// MeasureLevel computes the mean absolute amplitude, RMS and dB level
func MeasureLevel(samples []float32) Level {
	if len(samples) == 0 {
		return Level{DB: -100}
	}

	var sumAbs, sumSquares, peak float64
	for _, s := range samples {
		v := math.Abs(float64(s))
		sumAbs += v
		sumSquares += v * v
		if v > peak {
			peak = v
		}
	}

	n := float64(len(samples))
	rms := math.Sqrt(sumSquares / n)

	// dB with protection against log(0)
	db := -100.0
	if rms > 0.0000001 {
		db = 20 * math.Log10(rms)
	}

	return Level{
		MeanAbs: sumAbs / n,
		RMS:     rms,
		DB:      db,
		Peak:    peak,
	}
}

// downmixInterleaved averages interleaved channels into a new mono slice
func downmixInterleaved(in []float32, channels, frames int) []float32 {
	out := make([]float32, frames)
	if channels <= 1 {
		copy(out, in)
		return out
	}

	for i := 0; i < frames; i++ {
		sum := float32(0)
		for ch := 0; ch < channels; ch++ {
			sum += in[i*channels+ch]
		}
		out[i] = sum / float32(channels)
	}
	return out
}
