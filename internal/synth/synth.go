package synth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/0xlemi/fretlab/internal/audio"
	"github.com/0xlemi/fretlab/internal/theory"
	"github.com/gopxl/beep/v2"
	"github.com/rs/zerolog"
)

var ErrInvalidTone = errors.New("invalid tone")

// Synth plays short enveloped tones. Every call is fire-and-forget;
// overlapping tones mix in the output.
type Synth struct {
	out    audio.Output
	env    Envelope
	tuning theory.Tuning
	log    zerolog.Logger

	active atomic.Int32
}

// New creates a synthesizer. env.Duration is the default tone length.
func New(out audio.Output, env Envelope, log zerolog.Logger) *Synth {
	return &Synth{
		out:    out,
		env:    env,
		tuning: theory.StandardTuning,
		log:    log,
	}
}

// Play sounds a triangle tone. A zero duration means the default length.
func (s *Synth) Play(frequency float64, duration time.Duration) {
	s.PlayWave(Triangle, frequency, duration)
}

// PlayWave sounds a tone with the given waveform
func (s *Synth) PlayWave(wave Waveform, frequency float64, duration time.Duration) {
	req, err := s.request(wave, frequency, duration, int(s.out.SampleRate()))
	if err != nil {
		s.log.Warn().Err(err).Msg("Tone not played")
		return
	}
	s.play(req)
}

// Validate reports whether a tone of this waveform and frequency can be
// played on the output
func (s *Synth) Validate(wave Waveform, frequency float64) error {
	_, err := s.request(wave, frequency, 0, int(s.out.SampleRate()))
	return err
}

// PlayNote sounds the reference pitch of a named note
func (s *Synth) PlayNote(name string, octave int, duration time.Duration) {
	frequency, err := theory.FrequencyOf(name, octave)
	if err != nil {
		s.log.Warn().Err(err).Str("note", name).Int("octave", octave).Msg("Tone not played")
		return
	}
	s.Play(frequency, duration)
}

// PlayFrettedNote sounds a string of the standard tuning stopped at fret
func (s *Synth) PlayFrettedNote(stringIndex, fret int) {
	frequency, err := s.tuning.FrettedFrequency(stringIndex, fret)
	if err != nil {
		s.log.Warn().Err(err).Int("string", stringIndex).Int("fret", fret).Msg("Tone not played")
		return
	}
	s.Play(frequency, 0)
}

// Render produces the tone's mono samples without touching the output
func (s *Synth) Render(wave Waveform, frequency float64, duration time.Duration, sampleRate int) ([]float64, error) {
	req, err := s.request(wave, frequency, duration, sampleRate)
	if err != nil {
		return nil, err
	}

	v := newVoice(req, s.env, sampleRate)
	out := make([]float64, 0, v.total)
	buf := make([][2]float64, 512)
	for {
		n, ok := v.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, buf[i][0])
		}
		if !ok {
			break
		}
	}
	return out, nil
}

// Active returns the number of tones still sounding
func (s *Synth) Active() int {
	return int(s.active.Load())
}

// Wait blocks until every tone has finished or ctx is done
func (s *Synth) Wait(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for s.Active() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (s *Synth) play(req ToneRequest) {
	v := newVoice(req, s.env, int(s.out.SampleRate()))

	s.active.Add(1)
	done := beep.Callback(func() {
		s.active.Add(-1)
		s.log.Debug().
			Float64("frequency", req.Frequency).
			Dur("elapsed", time.Since(req.Start)).
			Msg("Tone finished")
	})

	if err := s.out.Play(beep.Seq(v, done)); err != nil {
		// The output logs its own failure once
		s.active.Add(-1)
		return
	}

	s.log.Debug().
		Float64("frequency", req.Frequency).
		Dur("duration", req.Duration).
		Stringer("wave", req.Wave).
		Msg("Tone started")
}

func (s *Synth) request(wave Waveform, frequency float64, duration time.Duration, sampleRate int) (ToneRequest, error) {
	if math.IsNaN(frequency) || math.IsInf(frequency, 0) || frequency <= 0 {
		return ToneRequest{}, fmt.Errorf("%w: frequency %v", ErrInvalidTone, frequency)
	}
	if sampleRate <= 0 || frequency >= float64(sampleRate)/2 {
		return ToneRequest{}, fmt.Errorf("%w: %vHz cannot be played at %dHz", ErrInvalidTone, frequency, sampleRate)
	}
	if _, ok := waveformNames[wave]; !ok {
		return ToneRequest{}, fmt.Errorf("%w: %v", ErrUnknownWaveform, wave)
	}

	if duration <= 0 {
		duration = s.env.Duration
	}
	// The decay needs room after the attack
	if shortest := 2 * s.env.Attack; duration < shortest {
		duration = shortest
	}

	return ToneRequest{
		Frequency: frequency,
		Start:     time.Now(),
		Duration:  duration,
		Wave:      wave,
	}, nil
}
