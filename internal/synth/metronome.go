package synth

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	MinBPM       = 30
	MaxBPM       = 250
	DefaultBPM   = 80
	MinBeats     = 2
	MaxBeats     = 8
	DefaultBeats = 4
	AccentHz     = 1000.0
	BeatHz       = 800.0
	TickDuration = 100 * time.Millisecond
)

// Interval returns the time between beats at bpm
func Interval(bpm int) time.Duration {
	return time.Minute / time.Duration(ClampBPM(bpm))
}

func ClampBPM(bpm int) int {
	return max(MinBPM, min(MaxBPM, bpm))
}

func ClampBeats(beats int) int {
	return max(MinBeats, min(MaxBeats, beats))
}

// Metronome ticks through a measure, accenting its first beat
type Metronome struct {
	synth *Synth
	log   zerolog.Logger

	mu      sync.Mutex
	bpm     int
	beats   int
	beat    int
	running bool
	ticker  *time.Ticker
	stop    chan struct{}
	onBeat  func(beat int)
}

// NewMetronome creates a stopped metronome. Zero values select the defaults.
func NewMetronome(s *Synth, bpm, beats int, log zerolog.Logger) *Metronome {
	if bpm == 0 {
		bpm = DefaultBPM
	}
	if beats == 0 {
		beats = DefaultBeats
	}
	return &Metronome{
		synth: s,
		log:   log,
		bpm:   ClampBPM(bpm),
		beats: ClampBeats(beats),
	}
}

// OnBeat registers fn to run after each beat sounds, with the beat's index
// in the measure
func (m *Metronome) OnBeat(fn func(beat int)) {
	m.mu.Lock()
	m.onBeat = fn
	m.mu.Unlock()
}

// Start sounds the accented first beat immediately and keeps time until
// Stop. It is a no-op while running.
func (m *Metronome) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.beat = 0
	m.ticker = time.NewTicker(Interval(m.bpm))
	m.stop = make(chan struct{})
	ticker, stop := m.ticker, m.stop
	bpm, beats := m.bpm, m.beats
	m.mu.Unlock()

	m.log.Info().Int("bpm", bpm).Int("beats", beats).Msg("Metronome started")

	m.sound(0)
	go m.run(ticker, stop)
}

// Stop silences the metronome. It is a no-op while stopped.
func (m *Metronome) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false
	m.ticker.Stop()
	close(m.stop)

	m.log.Info().Msg("Metronome stopped")
}

// Toggle starts a stopped metronome or stops a running one
func (m *Metronome) Toggle() {
	if m.Running() {
		m.Stop()
	} else {
		m.Start()
	}
}

// SetBPM changes the tempo, clamped to MinBPM..MaxBPM, and restarts the
// beat interval when running. It returns the tempo applied.
func (m *Metronome) SetBPM(bpm int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bpm = ClampBPM(bpm)
	if m.running {
		m.ticker.Reset(Interval(m.bpm))
	}
	return m.bpm
}

// SetBeatsPerMeasure changes the measure length, clamped to
// MinBeats..MaxBeats. It returns the length applied.
func (m *Metronome) SetBeatsPerMeasure(beats int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.beats = ClampBeats(beats)
	if m.beat >= m.beats {
		m.beat = m.beats - 1
	}
	return m.beats
}

func (m *Metronome) BPM() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bpm
}

func (m *Metronome) BeatsPerMeasure() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.beats
}

// Beat returns the index of the beat that sounded last
func (m *Metronome) Beat() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.beat
}

func (m *Metronome) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Metronome) run(ticker *time.Ticker, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !m.advance(stop) {
				return
			}
		}
	}
}

// advance moves to the next beat and sounds it, unless this run was stopped
func (m *Metronome) advance(stop chan struct{}) bool {
	m.mu.Lock()
	if !m.running || m.stop != stop {
		m.mu.Unlock()
		return false
	}
	m.beat = (m.beat + 1) % m.beats
	beat := m.beat
	m.mu.Unlock()

	m.sound(beat)
	return true
}

func (m *Metronome) sound(beat int) {
	frequency := BeatHz
	if beat == 0 {
		frequency = AccentHz
	}
	m.synth.PlayWave(Sine, frequency, TickDuration)

	m.mu.Lock()
	fn := m.onBeat
	m.mu.Unlock()
	if fn != nil {
		fn(beat)
	}
}
