package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/0xlemi/fretlab/internal/audio"
	"github.com/0xlemi/fretlab/internal/synth"
	"github.com/spf13/cobra"
)

func newMetronomeCmd() *cobra.Command {
	var (
		bpm      int
		beats    int
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "metronome",
		Short: "Run the metronome",
		Long:  "Run the metronome until interrupted or for --duration. The first beat of each measure is accented.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetronome(cmd.Context(), cmd.OutOrStdout(), bpm, beats, duration)
		},
	}

	cmd.Flags().IntVarP(&bpm, "bpm", "b", 0, fmt.Sprintf("tempo, %d to %d (default from config)", synth.MinBPM, synth.MaxBPM))
	cmd.Flags().IntVar(&beats, "beats", 0, fmt.Sprintf("beats per measure, %d to %d (default from config)", synth.MinBeats, synth.MaxBeats))
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop after this long")
	return cmd
}

func runMetronome(ctx context.Context, w io.Writer, bpm, beats int, duration time.Duration) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if bpm == 0 {
		bpm = cfg.Metronome.BPM
	}
	if beats == 0 {
		beats = cfg.Metronome.BeatsPerMeasure
	}

	speaker := audio.NewSpeaker(cfg.Audio.SampleRate, millis(cfg.Audio.OutputBuffer), log)
	defer speaker.Close()

	s := newSynth(cfg, speaker, log)
	m := synth.NewMetronome(s, bpm, beats, log.With().Str("component", "metronome").Logger())

	measure := m.BeatsPerMeasure()
	m.OnBeat(func(beat int) {
		marks := make([]string, measure)
		for i := range marks {
			marks[i] = "."
			if i == beat {
				marks[i] = "x"
			}
		}
		fmt.Fprintf(w, "\r%s", strings.Join(marks, " "))
	})

	fmt.Fprintf(w, "%d bpm, %d beats per measure\n", m.BPM(), measure)

	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	m.Start()
	<-ctx.Done()
	m.Stop()
	fmt.Fprintln(w)

	return s.Wait(context.Background())
}
