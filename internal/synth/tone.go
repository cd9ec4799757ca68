package synth

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var ErrUnknownWaveform = errors.New("unknown waveform")

// Waveform selects the oscillator shape
type Waveform int

const (
	Triangle Waveform = iota
	Sine
	Square
	Sawtooth
)

var waveformNames = map[Waveform]string{
	Triangle: "triangle",
	Sine:     "sine",
	Square:   "square",
	Sawtooth: "sawtooth",
}

func (w Waveform) String() string {
	if name, ok := waveformNames[w]; ok {
		return name
	}
	return fmt.Sprintf("Waveform(%d)", int(w))
}

// ParseWaveform accepts the names printed by String
func ParseWaveform(name string) (Waveform, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for w, n := range waveformNames {
		if n == name {
			return w, nil
		}
	}
	if name == "saw" {
		return Sawtooth, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWaveform, name)
}

// sample evaluates one cycle at phase in [0, 1). Every shape starts at zero
// and rises.
func (w Waveform) sample(phase float64) float64 {
	switch w {
	case Sine:
		return math.Sin(2 * math.Pi * phase)
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*math.Mod(phase+0.5, 1) - 1
	default:
		return 1 - 4*math.Abs(math.Mod(phase+0.25, 1)-0.5)
	}
}

// ToneRequest describes one tone. It lives as long as its voice.
type ToneRequest struct {
	Frequency float64
	Start     time.Time
	Duration  time.Duration
	Wave      Waveform
}

// voice is a beep.Streamer producing a single enveloped tone. It drains
// itself at the end of the envelope.
type voice struct {
	wave       Waveform
	env        Envelope
	sampleRate float64
	step       float64 // phase increment per sample
	phase      float64
	pos        int
	total      int
}

func newVoice(req ToneRequest, env Envelope, sampleRate int) *voice {
	env.Duration = req.Duration
	return &voice{
		wave:       req.Wave,
		env:        env,
		sampleRate: float64(sampleRate),
		step:       req.Frequency / float64(sampleRate),
		total:      int(math.Round(req.Duration.Seconds() * float64(sampleRate))),
	}
}

func (v *voice) Stream(samples [][2]float64) (n int, ok bool) {
	if v.pos >= v.total {
		return 0, false
	}

	for i := range samples {
		if v.pos >= v.total {
			break
		}

		s := v.wave.sample(v.phase) * v.env.gainAt(float64(v.pos)/v.sampleRate)
		samples[i][0] = s
		samples[i][1] = s

		v.phase += v.step
		if v.phase >= 1 {
			v.phase -= math.Floor(v.phase)
		}
		v.pos++
		n++
	}

	return n, true
}

func (v *voice) Err() error { return nil }
