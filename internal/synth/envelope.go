package synth

import (
	"math"
	"time"
)

// Envelope is an exponential attack to Peak followed by an exponential decay
// back to Floor at Duration. Exponential ramps cannot start or end at zero,
// hence the floor.
type Envelope struct {
	Floor    float64
	Peak     float64
	Attack   time.Duration
	Duration time.Duration
}

// DefaultEnvelope is the plucked-string envelope
func DefaultEnvelope() Envelope {
	return Envelope{
		Floor:    0.00001,
		Peak:     0.5,
		Attack:   10 * time.Millisecond,
		Duration: 2 * time.Second,
	}
}

// Gain returns the envelope value t after the tone starts. It is zero
// outside [0, Duration].
func (e Envelope) Gain(t time.Duration) float64 {
	return e.gainAt(t.Seconds())
}

func (e Envelope) gainAt(sec float64) float64 {
	attack := e.Attack.Seconds()
	total := e.Duration.Seconds()

	switch {
	case sec < 0 || sec > total:
		return 0
	case sec < attack:
		return e.Floor * math.Pow(e.Peak/e.Floor, sec/attack)
	default:
		return e.Peak * math.Pow(e.Floor/e.Peak, (sec-attack)/(total-attack))
	}
}
