package main

import (
	"bytes"
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/0xlemi/fretlab/internal/audio"
	"github.com/0xlemi/fretlab/internal/synth"
	"github.com/0xlemi/fretlab/internal/theory"
)

func TestParseTone(t *testing.T) {
	tests := []struct {
		arg    string
		octave int
		want   float64
	}{
		{"A", 4, 440},
		{"A", 2, 110},
		{"E2", 4, 82.41},
		{"C#3", 4, 138.59},
		{"Bb", 3, 233.08},
		{"329.63", 4, 329.63},
		{"440Hz", 4, 440},
	}
	for _, tt := range tests {
		got, err := parseTone(tt.arg, tt.octave)
		if err != nil {
			t.Fatalf("parseTone(%q): %v", tt.arg, err)
		}
		if math.Abs(got-tt.want) > 0.01 {
			t.Errorf("parseTone(%q, %d) = %.2f, want %.2f", tt.arg, tt.octave, got, tt.want)
		}
	}

	if _, err := parseTone("H2", 4); !errors.Is(err, theory.ErrUnknownNote) {
		t.Fatalf("expected ErrUnknownNote, got %v", err)
	}
}

func TestRunFret(t *testing.T) {
	var out bytes.Buffer
	if err := runFret(context.Background(), &out, 0, 5, "E", false); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"String 1 (E2), fret 5: A2 (110.00 Hz)", "Interval from E: P4 (degree 4)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	if err := runFret(context.Background(), &out, 6, 0, "", false); !errors.Is(err, theory.ErrInvalidString) {
		t.Fatalf("expected ErrInvalidString, got %v", err)
	}
	if err := runFret(context.Background(), &out, 0, 25, "", false); !errors.Is(err, theory.ErrInvalidFret) {
		t.Fatalf("expected ErrInvalidFret, got %v", err)
	}
}

// quietConfig points the commands at default settings with little logging
func quietConfig(t *testing.T) {
	t.Helper()
	configPath = filepath.Join(t.TempDir(), "missing.json")
	logLevel = "error"
	t.Cleanup(func() { configPath, logLevel = "", "" })
}

func TestToneToWAVThenAnalyze(t *testing.T) {
	quietConfig(t)

	path := filepath.Join(t.TempDir(), "a2.wav")
	var out bytes.Buffer
	if err := runTone(context.Background(), &out, 110, 0, 0, path); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "A2 +0 cents") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}

	rec, err := audio.LoadWAV(path)
	if err != nil {
		t.Fatal(err)
	}
	if rec.SampleRate != 44100 || len(rec.Samples) != 2*44100 {
		t.Fatalf("expected two seconds at 44100Hz, got %d samples at %d", len(rec.Samples), rec.SampleRate)
	}

	out.Reset()
	if err := runAnalyze(context.Background(), &out, path, "", 3, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "A2") {
		t.Fatalf("expected the analysis to find A2:\n%s", out.String())
	}
}

func TestRunToneRejectsUnplayableFrequencies(t *testing.T) {
	quietConfig(t)

	for _, freq := range []float64{math.NaN(), -5, 0, math.Inf(1), 30000} {
		var out bytes.Buffer
		err := runTone(context.Background(), &out, freq, 0, synth.Triangle, "")
		if !errors.Is(err, synth.ErrInvalidTone) {
			t.Errorf("runTone(%v): expected ErrInvalidTone, got %v", freq, err)
		}
		if errors.Is(err, audio.ErrDeviceUnavailable) {
			t.Errorf("runTone(%v): blamed the audio device", freq)
		}
	}

	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := runTone(context.Background(), &bytes.Buffer{}, math.NaN(), 0, synth.Triangle, path); !errors.Is(err, synth.ErrInvalidTone) {
		t.Fatalf("expected ErrInvalidTone when writing a file, got %v", err)
	}
}

func TestRunBoard(t *testing.T) {
	var out bytes.Buffer
	if err := runBoard(&out, 5, "bb"); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(out.String(), "\n")
	high, low := -1, -1
	for i, line := range lines {
		switch {
		case strings.Contains(line, "6 E4"):
			high = i
		case strings.Contains(line, "1 E2"):
			low = i
		}
	}
	if high < 0 || low < 0 || high > low {
		t.Fatalf("expected the high E row above the low E row:\n%s", out.String())
	}
	for _, want := range []string{"A#", "F", "0", "5"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("board missing %q", want)
		}
	}

	if err := runBoard(&out, theory.MaxFret+1, ""); !errors.Is(err, theory.ErrInvalidFret) {
		t.Fatalf("expected ErrInvalidFret, got %v", err)
	}
	if err := runBoard(&out, 5, "H"); !errors.Is(err, theory.ErrUnknownNote) {
		t.Fatalf("expected ErrUnknownNote, got %v", err)
	}
}
