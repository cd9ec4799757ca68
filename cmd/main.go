package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xlemi/fretlab/internal/audio"
	"github.com/0xlemi/fretlab/internal/config"
	"github.com/0xlemi/fretlab/internal/logging"
	"github.com/0xlemi/fretlab/internal/pitch"
	"github.com/0xlemi/fretlab/internal/synth"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Global flags
var (
	configPath string
	logLevel   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fretlab",
		Short:         "Guitar tuner, reference tones and metronome for the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.Path()+")")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newTuneCmd(),
		newAnalyzeCmd(),
		newToneCmd(),
		newFretCmd(),
		newBoardCmd(),
		newMetronomeCmd(),
		newDevicesCmd(),
	)
	return root
}

// loadConfig reads the config file and applies the global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// setup loads the config and a console logger for the non-interactive
// commands
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log, nil
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func newSynth(cfg *config.Config, out audio.Output, log zerolog.Logger) *synth.Synth {
	env := synth.Envelope{
		Floor:    cfg.Synth.FloorGain,
		Peak:     cfg.Synth.PeakGain,
		Attack:   millis(cfg.Synth.AttackMs),
		Duration: millis(cfg.Synth.DefaultDurationMs),
	}
	return synth.New(out, env, log.With().Str("component", "synth").Logger())
}

func detectorParams(cfg *config.Config) pitch.Params {
	return pitch.Params{
		NoiseFloor:   cfg.Tracker.NoiseFloor,
		Threshold:    cfg.Tracker.CorrelationThreshold,
		MinFrequency: cfg.Tracker.MinFrequency,
		MaxFrequency: cfg.Tracker.MaxFrequency,
	}
}

// newTracker builds a tracker with the configured detector. Each session
// gets its own detector instance.
func newTracker(cfg *config.Config, mic audio.Microphone, clock pitch.FrameClock, sampleRate int, sink pitch.Sink, log zerolog.Logger) (*pitch.Tracker, error) {
	params := detectorParams(cfg)
	if _, err := pitch.New(cfg.Tracker.Detector, params); err != nil {
		return nil, err
	}
	newDetector := func() pitch.Detector {
		d, _ := pitch.New(cfg.Tracker.Detector, params)
		return d
	}

	return pitch.NewTracker(
		mic,
		newDetector,
		clock,
		sink,
		pitch.TrackerConfig{SampleRate: sampleRate, WindowSize: cfg.Tracker.WindowSize},
		log.With().Str("component", "tracker").Logger(),
	), nil
}

func newHistory(cfg *config.Config) *pitch.History {
	return pitch.NewHistory(cfg.Tracker.HistorySize, cfg.Tracker.StabilityWindow, cfg.Tracker.StabilityTolerance)
}

// hop returns the number of samples between frames at the configured frame
// rate
func hop(cfg *config.Config, sampleRate int) int {
	return max(1, sampleRate/max(1, cfg.Tracker.FrameRate))
}
