package theory

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Errors
var (
	ErrUnknownNote      = errors.New("unknown note name")
	ErrInvalidFrequency = errors.New("frequency must be positive and finite")
)

// Reference pitch (A4 = 440Hz)
const (
	ReferenceFrequency = 440.0
	ReferenceOctave    = 4
	SemitonesPerOctave = 12
)

// NoteNames holds the 12 pitch classes in chromatic order, starting at C
var NoteNames = [SemitonesPerOctave]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Index of A within NoteNames, and of A4 counted in semitones from C0
var (
	aIndex  = 9
	a4Index = aIndex + ReferenceOctave*SemitonesPerOctave
)

// Enharmonic maps sharps to their flat spelling and back
var Enharmonic = map[string]string{
	"C#": "Db",
	"D#": "Eb",
	"F#": "Gb",
	"G#": "Ab",
	"A#": "Bb",
	"Db": "C#",
	"Eb": "D#",
	"Gb": "F#",
	"Ab": "G#",
	"Bb": "A#",
}

// NoteResult is the nearest equal-tempered note to a frequency
type NoteResult struct {
	Name   string // pitch class, e.g. "A#"
	Octave int    // scientific octave, A4 = 440Hz
	Cents  int    // deviation from the nearest semitone, -50 to +50
}

// String renders the note as name and octave, e.g. "E2"
func (n NoteResult) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// Normalize maps a note spelling to its sharp pitch class.
// "Bb" becomes "A#", "Cb" becomes "B", naturals and sharps pass through.
func Normalize(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrUnknownNote
	}
	name = strings.ToUpper(name[:1]) + name[1:]

	if _, err := indexOf(name); err == nil {
		return name, nil
	}

	switch {
	case name == "Cb":
		return "B", nil
	case name == "Fb":
		return "E", nil
	case name == "E#":
		return "F", nil
	case name == "B#":
		return "C", nil
	}

	if sharp, ok := Enharmonic[name]; ok {
		return sharp, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownNote, name)
}

// Index returns the chromatic index (C = 0) of a note name
func Index(name string) (int, error) {
	normalized, err := Normalize(name)
	if err != nil {
		return 0, err
	}
	return indexOf(normalized)
}

func indexOf(name string) (int, error) {
	for i, n := range NoteNames {
		if n == name {
			return i, nil
		}
	}
	return 0, ErrUnknownNote
}

// FrequencyOf returns the equal-tempered frequency of a note at an octave:
//
//	f = 440 * 2^((index + 12*octave - A4index) / 12)
func FrequencyOf(name string, octave int) (float64, error) {
	idx, err := Index(name)
	if err != nil {
		return 0, err
	}
	halfSteps := idx + octave*SemitonesPerOctave - a4Index
	return ReferenceFrequency * math.Pow(2, float64(halfSteps)/SemitonesPerOctave), nil
}

// NoteOf converts a frequency to the nearest note and its cents deviation
func NoteOf(frequency float64) (NoteResult, error) {
	if !validFrequency(frequency) {
		return NoteResult{}, fmt.Errorf("%w: %v", ErrInvalidFrequency, frequency)
	}

	// Semitones from A4, rounded to the nearest semitone
	halfSteps := int(math.Round(SemitonesPerOctave * math.Log2(frequency/ReferenceFrequency)))
	expected := ReferenceFrequency * math.Pow(2, float64(halfSteps)/SemitonesPerOctave)
	cents := int(math.Round(1200 * math.Log2(frequency/expected)))

	fromC0 := a4Index + halfSteps
	noteIndex := ((aIndex+halfSteps)%SemitonesPerOctave + SemitonesPerOctave) % SemitonesPerOctave
	octave := floorDiv(fromC0, SemitonesPerOctave)

	return NoteResult{
		Name:   NoteNames[noteIndex],
		Octave: octave,
		Cents:  cents,
	}, nil
}

// NoteAtFret returns the pitch class sounding at a fret of an open string.
// Octave information is discarded.
func NoteAtFret(openNote string, fret int) (string, error) {
	idx, err := Index(openNote)
	if err != nil {
		return "", err
	}
	if fret < 0 {
		return "", fmt.Errorf("fret %d: %w", fret, ErrInvalidFret)
	}
	return NoteNames[(idx+fret)%SemitonesPerOctave], nil
}

// FretFrequency raises an open string frequency by one semitone per fret
func FretFrequency(openFrequency float64, fret int) float64 {
	return openFrequency * math.Pow(2, float64(fret)/SemitonesPerOctave)
}

func validFrequency(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
