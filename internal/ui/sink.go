package ui

import (
	"sync"

	"github.com/0xlemi/fretlab/internal/pitch"
	tea "github.com/charmbracelet/bubbletea"
)

// queueSize bounds the messages waiting for the program. At 60 frames a
// second it covers about half a second of a stalled Update.
const queueSize = 32

// Sender delivers messages to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Sink forwards tracker output and metronome beats to the program. None of
// its methods block: Update may stop the tracker, which waits for the
// tracker's loop, so the loop must never wait for Update. Messages queue
// until Attach; estimates are dropped while the queue is full, errors and
// beats are not.
type Sink struct {
	queue chan tea.Msg
	done  chan struct{}

	attachOnce sync.Once
	closeOnce  sync.Once
}

var _ pitch.Sink = (*Sink)(nil)

func NewSink() *Sink {
	return &Sink{
		queue: make(chan tea.Msg, queueSize),
		done:  make(chan struct{}),
	}
}

// Attach starts forwarding queued messages to p. Only the first call counts.
func (s *Sink) Attach(p Sender) {
	s.attachOnce.Do(func() {
		go s.forward(p)
	})
}

// Close stops forwarding. Messages still queued are discarded.
func (s *Sink) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *Sink) OnEstimate(e pitch.Estimate) {
	select {
	case s.queue <- EstimateMsg(e):
	default:
	}
}

func (s *Sink) OnError(err error) {
	s.post(ErrorMsg{Err: err})
}

// OnBeat is also called from inside Update, when the metronome starts
func (s *Sink) OnBeat(beat int) {
	s.post(BeatMsg(beat))
}

// post queues msg, handing it to a goroutine when the queue is full
func (s *Sink) post(msg tea.Msg) {
	select {
	case s.queue <- msg:
	default:
		go func() {
			select {
			case s.queue <- msg:
			case <-s.done:
			}
		}()
	}
}

func (s *Sink) forward(p Sender) {
	for {
		select {
		case msg := <-s.queue:
			p.Send(msg)
		case <-s.done:
			return
		}
	}
}
