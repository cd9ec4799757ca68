package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/0xlemi/fretlab/internal/audio"
	"github.com/0xlemi/fretlab/internal/synth"
	"github.com/0xlemi/fretlab/internal/theory"
	"github.com/spf13/cobra"
)

func newToneCmd() *cobra.Command {
	var (
		octave   int
		duration time.Duration
		wave     string
		out      string
	)

	cmd := &cobra.Command{
		Use:   "tone <note|frequency>",
		Short: "Play a reference tone",
		Long: `Play a reference tone for a note such as A, C#3 or Bb, or for a frequency
in Hz. With --out the tone is written to a WAV file instead.`,
		Example: "  fretlab tone A --octave 2\n  fretlab tone 329.63 --duration 4s\n  fretlab tone E4 --wave sine --out e4.wav",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frequency, err := parseTone(args[0], octave)
			if err != nil {
				return err
			}
			w, err := synth.ParseWaveform(wave)
			if err != nil {
				return err
			}
			return runTone(cmd.Context(), cmd.OutOrStdout(), frequency, duration, w, out)
		},
	}

	cmd.Flags().IntVarP(&octave, "octave", "o", 4, "octave when the note has none")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "tone length (default from config)")
	cmd.Flags().StringVarP(&wave, "wave", "w", synth.Triangle.String(), "triangle, sine, square or sawtooth")
	cmd.Flags().StringVar(&out, "out", "", "write the tone to this WAV file")
	return cmd
}

// parseTone accepts a frequency in Hz, a note with octave such as "C#3", or
// a bare note name played in the given octave
func parseTone(arg string, octave int) (float64, error) {
	arg = strings.TrimSpace(arg)
	if f, err := strconv.ParseFloat(strings.TrimSuffix(strings.ToLower(arg), "hz"), 64); err == nil {
		return f, nil
	}

	name := strings.TrimRight(arg, "-0123456789")
	if digits := arg[len(name):]; digits != "" {
		o, err := strconv.Atoi(digits)
		if err != nil {
			return 0, fmt.Errorf("invalid octave in %q", arg)
		}
		octave = o
	}
	return theory.FrequencyOf(name, octave)
}

func runTone(ctx context.Context, w io.Writer, frequency float64, duration time.Duration, wave synth.Waveform, out string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	speaker := audio.NewSpeaker(cfg.Audio.SampleRate, millis(cfg.Audio.OutputBuffer), log)
	defer speaker.Close()
	s := newSynth(cfg, speaker, log)
	if err := s.Validate(wave, frequency); err != nil {
		return err
	}

	if note, err := theory.NoteOf(frequency); err == nil {
		fmt.Fprintf(w, "%s %+d cents, %.2f Hz\n", note, note.Cents, frequency)
	}

	if out != "" {
		samples, err := s.Render(wave, frequency, duration, cfg.Audio.SampleRate)
		if err != nil {
			return err
		}
		buf := &audio.AudioBuffer{
			Samples:    make([]float32, len(samples)),
			SampleRate: cfg.Audio.SampleRate,
		}
		for i, v := range samples {
			buf.Samples[i] = float32(v)
		}
		if err := audio.SaveWAV(out, buf); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %s (%v)\n", out, buf.Duration().Round(time.Millisecond))
		return nil
	}

	s.PlayWave(wave, frequency, duration)
	if s.Active() == 0 {
		return fmt.Errorf("tone was not played: %w", audio.ErrDeviceUnavailable)
	}
	if err := s.Wait(ctx); err != nil {
		speaker.Clear()
		return err
	}
	return nil
}
