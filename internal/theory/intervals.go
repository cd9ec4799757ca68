package theory

var scaleDegrees = [SemitonesPerOctave]string{"1", "b2", "2", "b3", "3", "4", "#4/b5", "5", "b6", "6", "b7", "7"}

var intervalNames = [SemitonesPerOctave]string{"R", "m2", "M2", "m3", "M3", "P4", "TT", "P5", "m6", "M6", "m7", "M7"}

// Semitones counts the ascending half steps from root to note, 0..11
func Semitones(root, note string) (int, error) {
	r, err := Index(root)
	if err != nil {
		return 0, err
	}
	n, err := Index(note)
	if err != nil {
		return 0, err
	}
	return (n - r + SemitonesPerOctave) % SemitonesPerOctave, nil
}

// ScaleDegree names note relative to root, e.g. "b3" for C to D#
func ScaleDegree(root, note string) (string, error) {
	st, err := Semitones(root, note)
	if err != nil {
		return "", err
	}
	return scaleDegrees[st], nil
}

// IntervalName names the interval from root to note, e.g. "P5" for A to E
func IntervalName(root, note string) (string, error) {
	st, err := Semitones(root, note)
	if err != nil {
		return "", err
	}
	return intervalNames[st], nil
}

// Transpose moves a pitch class by a number of semitones, either direction
func Transpose(note string, semitones int) (string, error) {
	idx, err := Index(note)
	if err != nil {
		return "", err
	}
	return NoteNames[((idx+semitones)%SemitonesPerOctave+SemitonesPerOctave)%SemitonesPerOctave], nil
}
