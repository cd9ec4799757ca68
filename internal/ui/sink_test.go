package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/0xlemi/fretlab/internal/pitch"
	tea "github.com/charmbracelet/bubbletea"
)

type chanSender chan tea.Msg

func (c chanSender) Send(msg tea.Msg) { c <- msg }

func receive(t *testing.T, c chanSender) tea.Msg {
	t.Helper()
	select {
	case msg := <-c:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

func TestSinkQueuesUntilAttach(t *testing.T) {
	s := NewSink()
	defer s.Close()

	s.OnEstimate(pitch.Estimate{Frequency: 440, Voiced: true, Frame: 1})

	c := make(chanSender)
	s.Attach(c)
	if msg, ok := receive(t, c).(EstimateMsg); !ok || msg.Frame != 1 {
		t.Fatalf("expected the queued estimate, got %#v", msg)
	}
}

func TestSinkForwardsToProgram(t *testing.T) {
	c := make(chanSender, 4)
	s := NewSink()
	defer s.Close()
	s.Attach(c)

	s.OnEstimate(pitch.Estimate{Frequency: 440, Voiced: true, Frame: 7})
	msg, ok := receive(t, c).(EstimateMsg)
	if !ok || msg.Frame != 7 {
		t.Fatalf("expected frame 7, got %#v", msg)
	}

	err := errors.New("lost")
	s.OnError(err)
	if got, ok := receive(t, c).(ErrorMsg); !ok || !errors.Is(got.Err, err) {
		t.Fatalf("expected the error, got %#v", got)
	}

	s.OnBeat(3)
	if got, ok := receive(t, c).(BeatMsg); !ok || got != 3 {
		t.Fatalf("expected beat 3, got %#v", got)
	}
}

// A program stuck in Update must not stall the tracker's loop
func TestSinkNeverBlocksOnABusyProgram(t *testing.T) {
	c := make(chanSender)
	s := NewSink()
	defer s.Close()
	s.Attach(c)

	returned := make(chan struct{})
	go func() {
		for i := 0; i < 10*queueSize; i++ {
			s.OnEstimate(pitch.Estimate{Frame: uint64(i + 1)})
		}
		s.OnError(errors.New("lost"))
		s.OnBeat(0)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("sink blocked while the program was busy")
	}

	// Errors and beats survive a full queue
	var sawError, sawBeat bool
	for i := 0; i < 10*queueSize && !(sawError && sawBeat); i++ {
		switch receive(t, c).(type) {
		case ErrorMsg:
			sawError = true
		case BeatMsg:
			sawBeat = true
		}
	}
	if !sawError || !sawBeat {
		t.Fatalf("expected the error and the beat to be delivered, error=%v beat=%v", sawError, sawBeat)
	}
}
