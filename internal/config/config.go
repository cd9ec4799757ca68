package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

var ErrInvalidConfig = errors.New("invalid config")

// Detector names accepted by TrackerConfig.Detector
const (
	DetectorAutocorrelation = "autocorrelation"
	DetectorSpectrum        = "spectrum"
)

type Config struct {
	LogLevel  string          `json:"log_level"`
	Audio     AudioConfig     `json:"audio"`
	Tracker   TrackerConfig   `json:"tracker"`
	Synth     SynthConfig     `json:"synth"`
	Metronome MetronomeConfig `json:"metronome"`
}

type AudioConfig struct {
	DeviceID     string  `json:"device_id"`     // empty selects the default input
	SampleRate   int     `json:"sample_rate"`   // Hz, shared by capture and playback
	InputGain    float32 `json:"input_gain"`    // applied to captured samples
	OutputBuffer int     `json:"output_buffer"` // milliseconds of speaker buffering
}

type TrackerConfig struct {
	Detector             string  `json:"detector"`
	WindowSize           int     `json:"window_size"`
	NoiseFloor           float64 `json:"noise_floor"`
	CorrelationThreshold float64 `json:"correlation_threshold"`
	MinFrequency         float64 `json:"min_frequency"`
	MaxFrequency         float64 `json:"max_frequency"`
	FrameRate            int     `json:"frame_rate"`
	HistorySize          int     `json:"history_size"`
	StabilityWindow      int     `json:"stability_window"`
	StabilityTolerance   float64 `json:"stability_tolerance"` // Hz
}

type SynthConfig struct {
	AttackMs          int     `json:"attack_ms"`
	DefaultDurationMs int     `json:"default_duration_ms"`
	PeakGain          float64 `json:"peak_gain"`
	FloorGain         float64 `json:"floor_gain"`
}

type MetronomeConfig struct {
	BPM             int `json:"bpm"`
	BeatsPerMeasure int `json:"beats_per_measure"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			DeviceID:     "",
			SampleRate:   44100,
			InputGain:    1.0,
			OutputBuffer: 100,
		},
		Tracker: TrackerConfig{
			Detector:             DetectorAutocorrelation,
			WindowSize:           2048,
			NoiseFloor:           0.01,
			CorrelationThreshold: 0.9,
			MinFrequency:         60,
			MaxFrequency:         1200,
			FrameRate:            60,
			HistorySize:          10,
			StabilityWindow:      5,
			StabilityTolerance:   1.0,
		},
		Synth: SynthConfig{
			AttackMs:          10,
			DefaultDurationMs: 2000,
			PeakGain:          0.5,
			FloorGain:         0.00001,
		},
		Metronome: MetronomeConfig{
			BPM:             80,
			BeatsPerMeasure: 4,
		},
	}
}

// Load reads the config at path, or the platform default path when path is
// empty. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to path, or the platform default path when empty
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the invariants the audio core relies on
func (c *Config) Validate() error {
	t := c.Tracker
	switch {
	case t.Detector != DetectorAutocorrelation && t.Detector != DetectorSpectrum:
		return fmt.Errorf("%w: unknown detector %q", ErrInvalidConfig, t.Detector)
	case t.WindowSize < 64 || t.WindowSize&(t.WindowSize-1) != 0:
		return fmt.Errorf("%w: window size %d must be a power of two >= 64", ErrInvalidConfig, t.WindowSize)
	case t.NoiseFloor <= 0 || t.NoiseFloor >= 1:
		return fmt.Errorf("%w: noise floor %v must be in (0,1)", ErrInvalidConfig, t.NoiseFloor)
	case t.CorrelationThreshold <= 0 || t.CorrelationThreshold > 1:
		return fmt.Errorf("%w: correlation threshold %v must be in (0,1]", ErrInvalidConfig, t.CorrelationThreshold)
	case t.MinFrequency <= 0 || t.MaxFrequency <= t.MinFrequency:
		return fmt.Errorf("%w: frequency range %v..%v", ErrInvalidConfig, t.MinFrequency, t.MaxFrequency)
	case t.FrameRate <= 0:
		return fmt.Errorf("%w: frame rate %d", ErrInvalidConfig, t.FrameRate)
	case t.StabilityWindow <= 0 || t.StabilityWindow > t.HistorySize:
		return fmt.Errorf("%w: stability window %d must be in 1..%d", ErrInvalidConfig, t.StabilityWindow, t.HistorySize)
	case t.StabilityTolerance <= 0:
		return fmt.Errorf("%w: stability tolerance %v", ErrInvalidConfig, t.StabilityTolerance)
	}

	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.Audio.SampleRate)
	}
	if c.Audio.SampleRate/2 <= int(t.MaxFrequency) {
		return fmt.Errorf("%w: sample rate %d cannot represent %vHz", ErrInvalidConfig, c.Audio.SampleRate, t.MaxFrequency)
	}
	if c.Audio.InputGain <= 0 {
		return fmt.Errorf("%w: input gain %v", ErrInvalidConfig, c.Audio.InputGain)
	}

	s := c.Synth
	if s.AttackMs <= 0 || s.DefaultDurationMs <= s.AttackMs {
		return fmt.Errorf("%w: attack %dms must be positive and shorter than the default duration %dms", ErrInvalidConfig, s.AttackMs, s.DefaultDurationMs)
	}
	if s.FloorGain <= 0 || s.PeakGain <= s.FloorGain || s.PeakGain > 1 {
		return fmt.Errorf("%w: gain floor %v and peak %v", ErrInvalidConfig, s.FloorGain, s.PeakGain)
	}

	if c.Metronome.BPM < 30 || c.Metronome.BPM > 250 {
		return fmt.Errorf("%w: bpm %d must be in 30..250", ErrInvalidConfig, c.Metronome.BPM)
	}
	if c.Metronome.BeatsPerMeasure < 2 || c.Metronome.BeatsPerMeasure > 8 {
		return fmt.Errorf("%w: beats per measure %d must be in 2..8", ErrInvalidConfig, c.Metronome.BeatsPerMeasure)
	}

	return nil
}

// Path returns the platform-specific config file path
func Path() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "fretlab", "config.json")
}

// StatePath returns the platform-specific directory for logs
func StatePath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Logs"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/state"
		}
	}

	return filepath.Join(base, "fretlab")
}
