package pitch

import (
	"sync"
	"time"
)

// FrameClock paces the tracker's analysis loop
type FrameClock interface {
	NewTicker() Ticker
}

// Ticker delivers frame ticks until stopped
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// IntervalClock ticks at a fixed rate using time.Ticker. Ticks are dropped,
// not queued, when a frame takes longer than the interval.
type IntervalClock struct {
	Interval time.Duration
}

// NewFrameClock returns a clock running at fps frames per second
func NewFrameClock(fps int) IntervalClock {
	if fps <= 0 {
		fps = 60
	}
	return IntervalClock{Interval: time.Second / time.Duration(fps)}
}

func (c IntervalClock) NewTicker() Ticker {
	return &timeTicker{t: time.NewTicker(c.Interval)}
}

type timeTicker struct {
	t *time.Ticker
}

func (t *timeTicker) C() <-chan time.Time { return t.t.C }
func (t *timeTicker) Stop()               { t.t.Stop() }

// FreeRunningClock ticks as soon as the previous tick is taken, which runs
// offline analysis as fast as frames can be processed
type FreeRunningClock struct{}

func (FreeRunningClock) NewTicker() Ticker {
	t := &freeTicker{
		c:    make(chan time.Time),
		done: make(chan struct{}),
	}
	go t.run()
	return t
}

type freeTicker struct {
	c    chan time.Time
	done chan struct{}
	once sync.Once
}

func (t *freeTicker) run() {
	for {
		select {
		case <-t.done:
			return
		case t.c <- time.Now():
		}
	}
}

func (t *freeTicker) C() <-chan time.Time { return t.c }
func (t *freeTicker) Stop()               { t.once.Do(func() { close(t.done) }) }
