package synth

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestEnvelopeShape(t *testing.T) {
	e := DefaultEnvelope()

	if got := e.Gain(0); math.Abs(got-e.Floor) > 1e-12 {
		t.Errorf("expected the floor at the start, got %v", got)
	}
	if got := e.Gain(e.Attack); math.Abs(got-e.Peak) > 1e-12 {
		t.Errorf("expected the peak after the attack, got %v", got)
	}
	if got := e.Gain(e.Duration); math.Abs(got-e.Floor) > 1e-12 {
		t.Errorf("expected the floor at the end, got %v", got)
	}
	if got := e.Gain(-time.Millisecond); got != 0 {
		t.Errorf("expected silence before the start, got %v", got)
	}
	if got := e.Gain(e.Duration + time.Millisecond); got != 0 {
		t.Errorf("expected silence after the end, got %v", got)
	}
}

func TestEnvelopeIsMonotonic(t *testing.T) {
	e := DefaultEnvelope()

	prev := 0.0
	for ms := 0; ms <= 10; ms++ {
		g := e.Gain(time.Duration(ms) * time.Millisecond)
		if g < prev {
			t.Fatalf("attack fell at %dms", ms)
		}
		prev = g
	}
	for ms := 10; ms <= 2000; ms += 10 {
		g := e.Gain(time.Duration(ms) * time.Millisecond)
		if g > prev {
			t.Fatalf("decay rose at %dms", ms)
		}
		prev = g
	}
}

func TestEnvelopeDecayIsExponential(t *testing.T) {
	e := DefaultEnvelope()

	// Equal steps in time divide the gain by equal ratios
	a := e.Gain(500 * time.Millisecond)
	b := e.Gain(1000 * time.Millisecond)
	c := e.Gain(1500 * time.Millisecond)
	if math.Abs(a/b-b/c) > 1e-9 {
		t.Fatalf("expected constant decay ratio, got %v and %v", a/b, b/c)
	}
}

func TestWaveforms(t *testing.T) {
	for _, w := range []Waveform{Triangle, Sine, Sawtooth} {
		if got := w.sample(0); math.Abs(got) > 1e-12 {
			t.Errorf("%s should start at zero, got %v", w, got)
		}
	}

	if got := Triangle.sample(0.25); math.Abs(got-1) > 1e-12 {
		t.Errorf("triangle peak should be 1, got %v", got)
	}
	if got := Triangle.sample(0.75); math.Abs(got+1) > 1e-12 {
		t.Errorf("triangle trough should be -1, got %v", got)
	}
	if Square.sample(0.1) != 1 || Square.sample(0.6) != -1 {
		t.Error("unexpected square wave")
	}
	if got := Sawtooth.sample(0.49); got < 0.9 {
		t.Errorf("sawtooth should approach 1 before wrapping, got %v", got)
	}
}

func TestParseWaveform(t *testing.T) {
	tests := map[string]Waveform{
		"triangle": Triangle,
		"Sine":     Sine,
		" square ": Square,
		"sawtooth": Sawtooth,
		"saw":      Sawtooth,
	}
	for in, want := range tests {
		got, err := ParseWaveform(in)
		if err != nil {
			t.Fatalf("ParseWaveform(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseWaveform(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseWaveform("organ"); !errors.Is(err, ErrUnknownWaveform) {
		t.Fatalf("expected ErrUnknownWaveform, got %v", err)
	}
	if Waveform(7).String() != "Waveform(7)" {
		t.Fatalf("unexpected %q", Waveform(7).String())
	}
}
