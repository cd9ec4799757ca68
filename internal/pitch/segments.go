package pitch

import (
	"time"

	"github.com/0xlemi/fretlab/internal/theory"
)

// Segment is a run of consecutive voiced frames on the same note
type Segment struct {
	Note      theory.NoteResult // nearest note to the mean frequency
	Start     time.Duration
	End       time.Duration
	Frequency float64 // mean over the run
	Frames    int
	Stable    bool // the reading settled at some point during the run
}

// Segmenter groups the estimates of a recording into note segments. Frames
// are placed in time by their number: frame k analyses the window ending
// windowSize+(k-1)*hop samples into the recording.
type Segmenter struct {
	sampleRate int
	windowSize int
	hop        int
	minFrames  int
	history    *History

	open     bool
	current  Segment
	sum      float64
	segments []Segment
}

// NewSegmenter drops runs shorter than minFrames
func NewSegmenter(sampleRate, windowSize, hop, minFrames int, history *History) *Segmenter {
	if minFrames < 1 {
		minFrames = 1
	}
	return &Segmenter{
		sampleRate: sampleRate,
		windowSize: windowSize,
		hop:        hop,
		minFrames:  minFrames,
		history:    history,
	}
}

// Add folds the next estimate in. Estimates must arrive in frame order.
func (s *Segmenter) Add(e Estimate) {
	s.history.Observe(e)

	if !e.Voiced {
		s.flush()
		return
	}
	note, err := e.Note()
	if err != nil {
		s.flush()
		return
	}

	if s.open && (s.current.Note.Name != note.Name || s.current.Note.Octave != note.Octave) {
		s.flush()
	}
	if !s.open {
		s.open = true
		s.current = Segment{Note: note, Start: s.at(e.Frame)}
		s.sum = 0
	}

	s.sum += e.Frequency
	s.current.Frames++
	s.current.End = s.at(e.Frame) + s.duration(s.hop)
	s.current.Stable = s.current.Stable || s.history.Stable()
}

// Segments closes any open run and returns every segment found so far
func (s *Segmenter) Segments() []Segment {
	s.flush()
	return s.segments
}

func (s *Segmenter) flush() {
	if !s.open {
		return
	}
	s.open = false

	if s.current.Frames < s.minFrames {
		return
	}
	s.current.Frequency = s.sum / float64(s.current.Frames)
	if note, err := theory.NoteOf(s.current.Frequency); err == nil {
		s.current.Note = note
	}
	s.segments = append(s.segments, s.current)
}

// at returns the time of the centre of frame's window
func (s *Segmenter) at(frame uint64) time.Duration {
	if frame == 0 {
		frame = 1
	}
	centre := s.windowSize/2 + int(frame-1)*s.hop
	return s.duration(centre)
}

func (s *Segmenter) duration(samples int) time.Duration {
	if s.sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(s.sampleRate)
}
