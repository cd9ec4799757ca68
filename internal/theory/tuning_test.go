package theory

import (
	"errors"
	"math"
	"testing"
)

func TestStandardTuningOpenFrequencies(t *testing.T) {
	want := []float64{82.4069, 110.0, 146.8324, 195.9977, 246.9417, 329.6276}
	for i, w := range want {
		got, err := StandardTuning.OpenFrequency(i)
		if err != nil {
			t.Fatalf("string %d: %v", i, err)
		}
		if math.Abs(got-w) > 0.001 {
			t.Errorf("string %d: expected %.4f, got %.4f", i, w, got)
		}
	}
}

func TestFrettedFrequencyMatchesNoteMath(t *testing.T) {
	// Low E at the fifth fret is A2, the next open string
	got, err := StandardTuning.FrettedFrequency(0, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-110.0) > 1e-9 {
		t.Fatalf("expected 110Hz, got %v", got)
	}

	// B string at the fifth fret is E4, the open high E
	got, err = StandardTuning.FrettedFrequency(4, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	open, _ := StandardTuning.OpenFrequency(5)
	if math.Abs(got-open) > 1e-9 {
		t.Fatalf("expected %v, got %v", open, got)
	}
}

func TestFrettedFrequencyRejectsOutOfRange(t *testing.T) {
	if _, err := StandardTuning.FrettedFrequency(6, 0); !errors.Is(err, ErrInvalidString) {
		t.Errorf("expected ErrInvalidString, got %v", err)
	}
	if _, err := StandardTuning.FrettedFrequency(-1, 0); !errors.Is(err, ErrInvalidString) {
		t.Errorf("expected ErrInvalidString, got %v", err)
	}
	if _, err := StandardTuning.FrettedFrequency(0, 25); !errors.Is(err, ErrInvalidFret) {
		t.Errorf("expected ErrInvalidFret, got %v", err)
	}
	if _, err := StandardTuning.FrettedFrequency(0, -2); !errors.Is(err, ErrInvalidFret) {
		t.Errorf("expected ErrInvalidFret, got %v", err)
	}
}

func TestTuningStrings(t *testing.T) {
	got := StandardTuning.Strings("E")
	if len(got) != 2 || got[0] != 0 || got[1] != 5 {
		t.Fatalf("expected strings [0 5] for E, got %v", got)
	}
	if got := StandardTuning.Strings("F#"); len(got) != 0 {
		t.Fatalf("expected no strings for F#, got %v", got)
	}
}

func TestFretboard(t *testing.T) {
	board, err := StandardTuning.Fretboard(12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(board) != NumStrings || len(board[0]) != 13 {
		t.Fatalf("unexpected board shape %dx%d", len(board), len(board[0]))
	}
	if board[1][5] != "D" {
		t.Errorf("A string fifth fret should be D, got %s", board[1][5])
	}
	if board[5][12] != "E" {
		t.Errorf("high E twelfth fret should be E, got %s", board[5][12])
	}

	if _, err := StandardTuning.Fretboard(30); !errors.Is(err, ErrInvalidFret) {
		t.Errorf("expected ErrInvalidFret, got %v", err)
	}
}

func TestIntervals(t *testing.T) {
	tests := []struct {
		root, note       string
		degree, interval string
	}{
		{"C", "C", "1", "R"},
		{"C", "D#", "b3", "m3"},
		{"A", "E", "5", "P5"},
		{"E", "A#", "#4/b5", "TT"},
		{"G", "F#", "7", "M7"},
	}

	for _, tt := range tests {
		degree, err := ScaleDegree(tt.root, tt.note)
		if err != nil {
			t.Fatalf("ScaleDegree(%s, %s): %v", tt.root, tt.note, err)
		}
		if degree != tt.degree {
			t.Errorf("ScaleDegree(%s, %s) = %s, want %s", tt.root, tt.note, degree, tt.degree)
		}
		interval, err := IntervalName(tt.root, tt.note)
		if err != nil {
			t.Fatalf("IntervalName(%s, %s): %v", tt.root, tt.note, err)
		}
		if interval != tt.interval {
			t.Errorf("IntervalName(%s, %s) = %s, want %s", tt.root, tt.note, interval, tt.interval)
		}
	}
}

func TestTranspose(t *testing.T) {
	if got, _ := Transpose("C", -1); got != "B" {
		t.Errorf("expected B, got %s", got)
	}
	if got, _ := Transpose("A", 3); got != "C" {
		t.Errorf("expected C, got %s", got)
	}
	if got, _ := Transpose("E", -25); got != "D#" {
		t.Errorf("expected D#, got %s", got)
	}
}
