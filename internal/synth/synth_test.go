package synth

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/0xlemi/fretlab/internal/audio"
	"github.com/0xlemi/fretlab/internal/pitch"
	"github.com/gopxl/beep/v2"
	"github.com/rs/zerolog"
)

const testRate = 44100

// recordingOutput keeps streamers instead of playing them
type recordingOutput struct {
	mu        sync.Mutex
	streamers []beep.Streamer
	err       error
}

func (o *recordingOutput) SampleRate() beep.SampleRate { return testRate }

func (o *recordingOutput) Play(s beep.Streamer) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.streamers = append(o.streamers, s)
	return nil
}

func (o *recordingOutput) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.streamers)
}

// drain streams the i-th tone to completion and returns its left channel
func (o *recordingOutput) drain(i int) []float64 {
	o.mu.Lock()
	s := o.streamers[i]
	o.mu.Unlock()

	var out []float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for _, frame := range buf[:n] {
			out = append(out, frame[0])
		}
		if !ok {
			return out
		}
	}
}

func newTestSynth() (*Synth, *recordingOutput) {
	out := &recordingOutput{}
	return New(out, DefaultEnvelope(), zerolog.Nop()), out
}

func signChanges(samples []float64) int {
	prev, n := 0.0, 0
	for _, s := range samples {
		if s == 0 {
			continue
		}
		if prev != 0 && (s > 0) != (prev > 0) {
			n++
		}
		prev = s
	}
	return n
}

func detect(t *testing.T, samples []float64, offset int) pitch.Estimate {
	t.Helper()
	window := make([]float32, 2048)
	for i := range window {
		window[i] = float32(samples[offset+i])
	}
	est, err := pitch.NewAutocorrelationDetector(pitch.DefaultParams()).Detect(&audio.AudioBuffer{Samples: window, SampleRate: testRate})
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	return est
}

func TestPlayDecaysToFloorAtDuration(t *testing.T) {
	s, out := newTestSynth()

	s.Play(440, 500*time.Millisecond)
	if out.count() != 1 {
		t.Fatalf("expected one tone, got %d", out.count())
	}
	if s.Active() != 1 {
		t.Fatalf("expected one active tone, got %d", s.Active())
	}

	samples := out.drain(0)
	if len(samples) != testRate/2 {
		t.Fatalf("expected %d samples, got %d", testRate/2, len(samples))
	}
	for _, v := range samples[len(samples)-10:] {
		if math.Abs(v) > 1.5e-5 {
			t.Fatalf("expected the tail at the floor, got %v", v)
		}
	}

	peak := 0.0
	for _, v := range samples {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak < 0.45 || peak > 0.5 {
		t.Fatalf("expected a peak just under 0.5, got %v", peak)
	}

	if s.Active() != 0 {
		t.Fatalf("expected the completion callback to release the tone, got %d active", s.Active())
	}
}

func TestPlayZeroDurationUsesDefault(t *testing.T) {
	s, out := newTestSynth()
	s.Play(220, 0)

	if got := len(out.drain(0)); got != 2*testRate {
		t.Fatalf("expected a two second tone, got %d samples", got)
	}
}

func TestPlayClampsVeryShortTones(t *testing.T) {
	s, out := newTestSynth()
	s.Play(440, 5*time.Millisecond)

	// twice the attack
	if got := len(out.drain(0)); got != 882 {
		t.Fatalf("expected 882 samples, got %d", got)
	}
}

func TestPlayRejectsInvalidFrequency(t *testing.T) {
	s, out := newTestSynth()

	for _, f := range []float64{0, -440, math.NaN(), math.Inf(1), 30000} {
		s.Play(f, time.Second)
	}
	if out.count() != 0 {
		t.Fatalf("expected invalid tones to be dropped, got %d", out.count())
	}
	if s.Active() != 0 {
		t.Fatalf("expected no active tones, got %d", s.Active())
	}
}

func TestPlayWithUnavailableOutput(t *testing.T) {
	s, out := newTestSynth()
	out.err = audio.ErrDeviceUnavailable

	s.Play(440, time.Second)
	if s.Active() != 0 {
		t.Fatalf("expected a failed tone not to count as active, got %d", s.Active())
	}
}

func TestOverlappingTonesAreIndependent(t *testing.T) {
	s, out := newTestSynth()
	s.Play(440, 100*time.Millisecond)
	s.Play(660, 200*time.Millisecond)

	if s.Active() != 2 {
		t.Fatalf("expected two active tones, got %d", s.Active())
	}
	out.drain(0)
	if s.Active() != 1 {
		t.Fatalf("expected one tone left, got %d", s.Active())
	}
	if got := len(out.drain(1)); got != testRate/5 {
		t.Fatalf("second tone should be unaffected, got %d samples", got)
	}
}

func TestPlayFrettedNote(t *testing.T) {
	s, out := newTestSynth()

	// Low E at the fifth fret is A2
	s.PlayFrettedNote(0, 5)
	if out.count() != 1 {
		t.Fatalf("expected one tone, got %d", out.count())
	}

	est := detect(t, out.drain(0), testRate/10)
	if !est.Voiced || math.Abs(est.Frequency-110) > 1 {
		t.Fatalf("expected about 110Hz, got %+v", est)
	}

	s.PlayFrettedNote(6, 0)
	s.PlayFrettedNote(-1, 0)
	s.PlayFrettedNote(0, 25)
	s.PlayFrettedNote(0, -1)
	if out.count() != 1 {
		t.Fatalf("expected out of range strings and frets to be dropped, got %d tones", out.count())
	}
}

func TestPlayNote(t *testing.T) {
	s, out := newTestSynth()

	s.PlayNote("A", 4, 300*time.Millisecond)
	s.PlayNote("H", 4, 300*time.Millisecond)
	if out.count() != 1 {
		t.Fatalf("expected only the valid note to play, got %d", out.count())
	}

	samples := out.drain(0)
	// 440Hz for 0.3s crosses zero about 264 times
	if n := signChanges(samples); n < 260 || n > 266 {
		t.Fatalf("unexpected zero crossings %d", n)
	}
}

func TestRender(t *testing.T) {
	s, _ := newTestSynth()

	samples, err := s.Render(Sine, 1000, 100*time.Millisecond, 8000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 800 {
		t.Fatalf("expected 800 samples, got %d", len(samples))
	}
	if samples[0] != 0 {
		t.Fatalf("expected the tone to start at zero, got %v", samples[0])
	}

	if _, err := s.Render(Sine, 5000, time.Second, 8000); !errors.Is(err, ErrInvalidTone) {
		t.Fatalf("expected ErrInvalidTone above Nyquist, got %v", err)
	}
	if _, err := s.Render(Waveform(9), 440, time.Second, 8000); !errors.Is(err, ErrUnknownWaveform) {
		t.Fatalf("expected ErrUnknownWaveform, got %v", err)
	}
}

func TestWait(t *testing.T) {
	s, out := newTestSynth()
	s.Play(440, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected Wait to time out with a tone sounding, got %v", err)
	}

	out.drain(0)
	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("expected Wait to return once idle, got %v", err)
	}
}
