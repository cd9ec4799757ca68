package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/0xlemi/fretlab/internal/audio"
	"github.com/0xlemi/fretlab/internal/pitch"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	stableStyle = cellStyle.Foreground(lipgloss.Color("#00FF00"))
)

func newAnalyzeCmd() *cobra.Command {
	var (
		detector  string
		minFrames int
		frames    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Track the pitch of a recording",
		Long:  "Run a WAV recording through the pitch tracker as fast as possible and print the notes found.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), args[0], detector, minFrames, frames)
		},
	}

	cmd.Flags().StringVar(&detector, "detector", "", "autocorrelation or spectrum (default from config)")
	cmd.Flags().IntVar(&minFrames, "min-frames", 3, "shortest run of frames reported as a note")
	cmd.Flags().BoolVar(&frames, "frames", false, "print every frame instead of note segments")
	return cmd
}

func runAnalyze(ctx context.Context, w io.Writer, path, detector string, minFrames int, frames bool) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if detector != "" {
		cfg.Tracker.Detector = detector
	}

	rec, err := audio.LoadWAV(path)
	if err != nil {
		return err
	}
	step := hop(cfg, rec.SampleRate)

	log.Info().
		Str("file", path).
		Int("sample_rate", rec.SampleRate).
		Dur("duration", rec.Duration()).
		Int("hop", step).
		Msg("Analyzing recording")

	var estimates []pitch.Estimate
	done := make(chan error, 1)
	sink := pitch.SinkFuncs{
		Estimate: func(e pitch.Estimate) { estimates = append(estimates, e) },
		Error:    func(err error) { done <- err },
	}

	mic := audio.NewBufferMicrophone(rec, step)
	tracker, err := newTracker(cfg, mic, pitch.FreeRunningClock{}, rec.SampleRate, sink, log)
	if err != nil {
		return err
	}
	if err := tracker.Start(ctx); err != nil {
		return err
	}

	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	tracker.Stop()
	if !errors.Is(err, io.EOF) {
		return err
	}

	if frames {
		fmt.Fprintln(w, frameTable(estimates, rec.SampleRate, cfg.Tracker.WindowSize, step))
		return nil
	}

	seg := pitch.NewSegmenter(rec.SampleRate, cfg.Tracker.WindowSize, step, minFrames, newHistory(cfg))
	for _, e := range estimates {
		seg.Add(e)
	}
	segments := seg.Segments()
	if len(segments) == 0 {
		fmt.Fprintln(w, "No notes found")
		return nil
	}
	fmt.Fprintln(w, segmentTable(segments))
	return nil
}

func segmentTable(segments []pitch.Segment) *table.Table {
	rows := make([][]string, 0, len(segments))
	for _, s := range segments {
		stable := "no"
		if s.Stable {
			stable = "yes"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%.2fs", s.Start.Seconds()),
			fmt.Sprintf("%.2fs", s.End.Seconds()),
			s.Note.String(),
			fmt.Sprintf("%.2f", s.Frequency),
			fmt.Sprintf("%+d", s.Note.Cents),
			strconv.Itoa(s.Frames),
			stable,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Start", "End", "Note", "Hz", "Cents", "Frames", "Stable").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 6 && segments[row].Stable:
				return stableStyle
			}
			return cellStyle
		})
}

func frameTable(estimates []pitch.Estimate, sampleRate, windowSize, step int) *table.Table {
	rows := make([][]string, 0, len(estimates))
	for _, e := range estimates {
		at := float64(windowSize/2+int(e.Frame-1)*step) / float64(sampleRate)
		note, freq := "-", "-"
		if n, err := e.Note(); err == nil {
			note = fmt.Sprintf("%s %+d", n, n.Cents)
			freq = fmt.Sprintf("%.2f", e.Frequency)
		}
		rows = append(rows, []string{
			strconv.FormatUint(e.Frame, 10),
			fmt.Sprintf("%.3fs", at),
			e.Reason.String(),
			freq,
			note,
			fmt.Sprintf("%.2f", e.Correlation),
			fmt.Sprintf("%.1f", e.DB),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Frame", "Time", "Result", "Hz", "Note", "Corr", "dB").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
