package theory

import (
	"errors"
	"fmt"
)

// Fretboard limits
const (
	NumStrings = 6
	MaxFret    = 24
)

var (
	ErrInvalidString = errors.New("string index out of range")
	ErrInvalidFret   = errors.New("fret out of range")
)

// OpenString is a string's pitch when played open
type OpenString struct {
	Name   string
	Octave int
}

func (s OpenString) String() string {
	return fmt.Sprintf("%s%d", s.Name, s.Octave)
}

// Tuning lists open strings from the lowest (index 0) to the highest
type Tuning [NumStrings]OpenString

// StandardTuning is E2 A2 D3 G3 B3 E4
var StandardTuning = Tuning{
	{"E", 2},
	{"A", 2},
	{"D", 3},
	{"G", 3},
	{"B", 3},
	{"E", 4},
}

// OpenFrequency returns the frequency of an open string
func (t Tuning) OpenFrequency(stringIndex int) (float64, error) {
	if stringIndex < 0 || stringIndex >= NumStrings {
		return 0, fmt.Errorf("string %d: %w", stringIndex, ErrInvalidString)
	}
	s := t[stringIndex]
	return FrequencyOf(s.Name, s.Octave)
}

// FrettedFrequency returns the frequency of a string held at a fret.
// This is the only place fret numbers become frequencies.
func (t Tuning) FrettedFrequency(stringIndex, fret int) (float64, error) {
	if fret < 0 || fret > MaxFret {
		return 0, fmt.Errorf("fret %d: %w", fret, ErrInvalidFret)
	}
	open, err := t.OpenFrequency(stringIndex)
	if err != nil {
		return 0, err
	}
	return FretFrequency(open, fret), nil
}

// Strings returns the indexes of the strings whose open pitch class is name
func (t Tuning) Strings(name string) []int {
	normalized, err := Normalize(name)
	if err != nil {
		return nil
	}
	var out []int
	for i, s := range t {
		if s.Name == normalized {
			out = append(out, i)
		}
	}
	return out
}

// Fretboard returns the pitch class at every string and fret, [string][fret]
func (t Tuning) Fretboard(frets int) ([][]string, error) {
	if frets < 0 || frets > MaxFret {
		return nil, fmt.Errorf("fret count %d: %w", frets, ErrInvalidFret)
	}
	board := make([][]string, NumStrings)
	for i, s := range t {
		row := make([]string, frets+1)
		for f := 0; f <= frets; f++ {
			note, err := NoteAtFret(s.Name, f)
			if err != nil {
				return nil, err
			}
			row[f] = note
		}
		board[i] = row
	}
	return board, nil
}
