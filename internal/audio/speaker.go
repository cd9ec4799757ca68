package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog"
)

// Output plays streamers without blocking the caller
type Output interface {
	SampleRate() beep.SampleRate
	Play(s beep.Streamer) error
}

// Speaker is the process-wide playback context. The device is opened on the
// first Play and reused by every later one.
type Speaker struct {
	sampleRate beep.SampleRate
	buffer     time.Duration
	log        zerolog.Logger

	once sync.Once
	err  error
}

// NewSpeaker creates a speaker that will open at the given rate with the given
// amount of buffering
func NewSpeaker(sampleRate int, buffer time.Duration, log zerolog.Logger) *Speaker {
	if buffer <= 0 {
		buffer = time.Second / 10
	}
	return &Speaker{
		sampleRate: beep.SampleRate(sampleRate),
		buffer:     buffer,
		log:        log,
	}
}

func (s *Speaker) SampleRate() beep.SampleRate {
	return s.sampleRate
}

// Play mixes st into the output. It returns ErrDeviceUnavailable when the
// device could not be opened.
func (s *Speaker) Play(st beep.Streamer) error {
	if err := s.init(); err != nil {
		return err
	}
	speaker.Play(st)
	return nil
}

// Clear stops everything currently playing
func (s *Speaker) Clear() {
	if s.init() == nil {
		speaker.Clear()
	}
}

// Close releases the output device if it was opened
func (s *Speaker) Close() {
	s.once.Do(func() { s.err = ErrStreamClosed })
	if s.err == nil {
		speaker.Close()
	}
}

func (s *Speaker) init() error {
	s.once.Do(func() {
		if err := speaker.Init(s.sampleRate, s.sampleRate.N(s.buffer)); err != nil {
			s.err = fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
			s.log.Error().Err(err).Msg("Failed to open audio output")
			return
		}
		s.log.Debug().
			Int("sample_rate", int(s.sampleRate)).
			Dur("buffer", s.buffer).
			Msg("Audio output opened")
	})
	return s.err
}
