package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/0xlemi/fretlab/internal/audio"
	"github.com/0xlemi/fretlab/internal/theory"
	"github.com/spf13/cobra"
)

func newFretCmd() *cobra.Command {
	var (
		play bool
		root string
	)

	cmd := &cobra.Command{
		Use:   "fret <string> <fret>",
		Short: "Show the note at a string and fret",
		Long: `Show the note and frequency at a string and fret of a guitar in standard
tuning. Strings are numbered 1 (low E) to 6 (high E).`,
		Example: "  fretlab fret 1 5\n  fretlab fret 3 2 --play\n  fretlab fret 2 7 --root E",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			str, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid string %q", args[0])
			}
			fret, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid fret %q", args[1])
			}
			return runFret(cmd.Context(), cmd.OutOrStdout(), str-1, fret, root, play)
		},
	}

	cmd.Flags().BoolVarP(&play, "play", "p", false, "play the note")
	cmd.Flags().StringVar(&root, "root", "", "also show the interval from this root note")
	return cmd
}

func runFret(ctx context.Context, w io.Writer, stringIndex, fret int, root string, play bool) error {
	tuning := theory.StandardTuning

	frequency, err := tuning.FrettedFrequency(stringIndex, fret)
	if err != nil {
		return err
	}
	open := tuning[stringIndex]
	note, err := theory.NoteAtFret(open.Name, fret)
	if err != nil {
		return err
	}
	exact, err := theory.NoteOf(frequency)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "String %d (%s), fret %d: %s (%.2f Hz)\n", stringIndex+1, open, fret, exact, frequency)

	if root != "" {
		interval, err := theory.IntervalName(root, note)
		if err != nil {
			return err
		}
		degree, err := theory.ScaleDegree(root, note)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Interval from %s: %s (degree %s)\n", root, interval, degree)
	}

	if !play {
		return nil
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	speaker := audio.NewSpeaker(cfg.Audio.SampleRate, millis(cfg.Audio.OutputBuffer), log)
	defer speaker.Close()

	s := newSynth(cfg, speaker, log)
	s.PlayFrettedNote(stringIndex, fret)
	if s.Active() == 0 {
		return fmt.Errorf("note was not played: %w", audio.ErrDeviceUnavailable)
	}
	if err := s.Wait(ctx); err != nil {
		speaker.Clear()
		return err
	}
	return nil
}
