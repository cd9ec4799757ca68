package pitch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/0xlemi/fretlab/internal/audio"
	"github.com/rs/zerolog"
)

var (
	ErrMicrophone = errors.New("microphone unavailable")
	ErrCapture    = errors.New("capture failed")
)

// Sink receives the tracker's output. Calls never overlap, even across
// sessions. Estimates and capture errors come from the session's loop
// goroutine; the error of a failed Start comes from its caller.
type Sink interface {
	OnEstimate(Estimate)
	OnError(error)
}

// SinkFuncs adapts plain functions to a Sink. Nil fields are ignored.
type SinkFuncs struct {
	Estimate func(Estimate)
	Error    func(error)
}

func (s SinkFuncs) OnEstimate(e Estimate) {
	if s.Estimate != nil {
		s.Estimate(e)
	}
}

func (s SinkFuncs) OnError(err error) {
	if s.Error != nil {
		s.Error(err)
	}
}

// TrackerConfig holds the capture parameters
type TrackerConfig struct {
	SampleRate int
	WindowSize int
}

// Tracker turns a microphone stream into one pitch estimate per frame. It is
// either Idle or Listening; at most one capture session is active.
type Tracker struct {
	mic      audio.Microphone
	detector func() Detector
	clock    FrameClock
	sink     Sink
	cfg      TrackerConfig
	log      zerolog.Logger

	mu      sync.Mutex
	session *session
	opening bool
	// gen changes on every Stop so that an open in flight can tell it was
	// cancelled
	gen uint64

	// reportMu serializes sink calls across sessions. reporter holds the id
	// of the goroutine inside a sink call, or zero.
	reportMu sync.Mutex
	reporter atomic.Uint64
}

// NewTracker creates an idle tracker. newDetector is called once per
// session so that detector scratch space is never shared.
func NewTracker(mic audio.Microphone, newDetector func() Detector, clock FrameClock, sink Sink, cfg TrackerConfig, log zerolog.Logger) *Tracker {
	return &Tracker{
		mic:      mic,
		detector: newDetector,
		clock:    clock,
		sink:     sink,
		cfg:      cfg,
		log:      log,
	}
}

// Listening reports whether a capture session is active or being opened
func (t *Tracker) Listening() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session != nil || t.opening
}

// Start opens the microphone and begins the frame loop. It is a no-op while
// already listening. On failure the tracker stays idle and the error is
// both returned and sent to the sink. Cancelling ctx ends the session.
//
// The microphone is opened without holding the tracker's lock, so Listening
// and Stop stay responsive while a device is slow to open. A Stop during the
// open cancels it.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.session != nil || t.opening {
		t.mu.Unlock()
		return nil
	}
	t.opening = true
	gen := t.gen
	t.mu.Unlock()

	stream, err := t.mic.Open(ctx, t.cfg.SampleRate, t.cfg.WindowSize)

	t.mu.Lock()
	t.opening = false
	if t.gen != gen {
		t.mu.Unlock()
		if err == nil {
			if cerr := stream.Close(); cerr != nil {
				t.log.Warn().Err(cerr).Msg("Failed to close audio stream")
			}
		}
		t.log.Debug().Msg("Start cancelled while opening the microphone")
		return nil
	}
	if err != nil {
		t.mu.Unlock()
		err = fmt.Errorf("%w: %w", ErrMicrophone, err)
		t.log.Error().Err(err).Msg("Failed to start listening")
		t.report(func() { t.sink.OnError(err) })
		return err
	}

	s := &session{
		tracker:  t,
		ctx:      ctx,
		stream:   stream,
		detector: t.detector(),
		ticker:   t.clock.NewTicker(),
		window:   make([]float32, t.cfg.WindowSize),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
	t.session = s
	t.mu.Unlock()

	t.log.Info().
		Int("sample_rate", stream.SampleRate()).
		Int("window", t.cfg.WindowSize).
		Msg("Listening")

	go s.run()
	return nil
}

// Stop ends the active session, or cancels a Start that is still opening the
// microphone. It is safe to call while idle and from inside a sink callback.
// Called from any goroutine other than the session's loop, it waits for the
// loop to exit, so no estimate is reported after it returns. A sink must not
// block on a goroutine that calls Stop.
func (t *Tracker) Stop() {
	t.mu.Lock()
	s := t.session
	t.session = nil
	t.gen++
	t.mu.Unlock()

	if s == nil {
		return
	}

	s.halt()
	if s.loop.Load() != goroutineID() {
		<-s.exited
	}
	t.log.Info().Uint64("frames", s.frames.Load()).Msg("Stopped listening")
}

// report runs fn as a sink call. Calls are serialized across sessions; a call
// made from inside another sink call on the same goroutine runs directly.
func (t *Tracker) report(fn func()) {
	id := goroutineID()
	if t.reporter.Load() == id {
		fn()
		return
	}

	t.reportMu.Lock()
	t.reporter.Store(id)
	defer func() {
		t.reporter.Store(0)
		t.reportMu.Unlock()
	}()
	fn()
}

// end tears down s from inside its own loop
func (t *Tracker) end(s *session, err error) {
	t.mu.Lock()
	if t.session == s {
		t.session = nil
	}
	t.mu.Unlock()

	s.halt()
	if err == nil {
		return
	}

	t.log.Error().Err(err).Uint64("frames", s.frames.Load()).Msg("Capture session ended")
	t.report(func() { t.sink.OnError(err) })
}

type session struct {
	tracker  *Tracker
	ctx      context.Context
	stream   audio.Stream
	detector Detector
	ticker   Ticker
	window   []float32
	frames   atomic.Uint64

	// loop is the id of the goroutine running the session
	loop     atomic.Uint64
	stopped  atomic.Bool
	haltOnce sync.Once
	done     chan struct{}
	exited   chan struct{}
}

func (s *session) run() {
	defer close(s.exited)
	s.loop.Store(goroutineID())

	for {
		select {
		case <-s.done:
			return
		case <-s.ctx.Done():
			s.tracker.end(s, nil)
			return
		case at := <-s.ticker.C():
			if !s.frame(at) {
				return
			}
		}
	}
}

// frame reads, analyses and reports one window. It returns false once the
// session is over.
func (s *session) frame(at time.Time) bool {
	if s.stopped.Load() {
		return false
	}

	if err := s.stream.Read(s.window); err != nil {
		if s.stopped.Load() {
			return false
		}
		s.tracker.end(s, fmt.Errorf("%w: %w", ErrCapture, err))
		return false
	}

	est, err := s.detector.Detect(&audio.AudioBuffer{
		Samples:    s.window,
		SampleRate: s.stream.SampleRate(),
	})
	if err != nil {
		// Still one estimate per frame, just an absent one
		s.tracker.log.Debug().Err(err).Msg("Detection failed")
		est = Estimate{Reason: ReasonSilent}
	}

	est.Frame = s.frames.Add(1)
	est.At = at

	reported := false
	s.tracker.report(func() {
		// Checked under the report lock: a Stop that lands before this
		// point suppresses the estimate
		if s.stopped.Load() {
			return
		}
		s.tracker.sink.OnEstimate(est)
		reported = true
	})

	return reported && !s.stopped.Load()
}

// halt marks the session stopped and releases the clock and the stream
func (s *session) halt() {
	s.haltOnce.Do(func() {
		s.stopped.Store(true)
		close(s.done)
		s.ticker.Stop()
		if err := s.stream.Close(); err != nil {
			s.tracker.log.Warn().Err(err).Msg("Failed to close audio stream")
		}
	})
}
