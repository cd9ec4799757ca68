package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xlemi/fretlab/internal/audio"
	"github.com/0xlemi/fretlab/internal/config"
	"github.com/0xlemi/fretlab/internal/logging"
	"github.com/0xlemi/fretlab/internal/pitch"
	"github.com/0xlemi/fretlab/internal/synth"
	"github.com/0xlemi/fretlab/internal/theory"
	"github.com/0xlemi/fretlab/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newTuneCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Open the tuner",
		Long:  "Open the interactive tuner. Listens to the microphone, or replays a WAV file in real time with --input.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTune(cmd.Context(), input)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "WAV file to use instead of the microphone")
	return cmd
}

func runTune(ctx context.Context, input string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The UI owns the terminal
	log, closer, err := logging.NewFile(config.StatePath(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	log.Info().Str("detector", cfg.Tracker.Detector).Msg("FretLab starting")

	var mic audio.Microphone
	sampleRate := cfg.Audio.SampleRate
	if input != "" {
		rec, err := audio.LoadWAV(input)
		if err != nil {
			return err
		}
		mic = audio.NewBufferMicrophone(rec, hop(cfg, rec.SampleRate))
	} else {
		mic = audio.NewPortAudioMicrophone(cfg.Audio.DeviceID, cfg.Audio.InputGain, log)
	}

	device := audio.NewDevice(sampleRate, millis(cfg.Audio.OutputBuffer), mic, log)
	defer device.Close()

	sink := ui.NewSink()
	defer sink.Close()
	tracker, err := newTracker(cfg, device, pitch.NewFrameClock(cfg.Tracker.FrameRate), sampleRate, sink, log)
	if err != nil {
		return err
	}

	s := newSynth(cfg, device, log)
	metronome := synth.NewMetronome(s, cfg.Metronome.BPM, cfg.Metronome.BeatsPerMeasure, log)
	metronome.OnBeat(sink.OnBeat)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(ui.Deps{
		Context:   ctx,
		Listener:  tracker,
		Player:    s,
		Metronome: metronome,
		History:   newHistory(cfg),
		Tuning:    theory.StandardTuning,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	sink.Attach(p)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("error running program: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		metronome.Stop()
		tracker.Stop()
		return nil
	})

	err = g.Wait()
	log.Info().Err(err).Msg("FretLab stopped")
	return err
}
