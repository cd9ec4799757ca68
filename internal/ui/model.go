package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/0xlemi/fretlab/internal/pitch"
	"github.com/0xlemi/fretlab/internal/synth"
	"github.com/0xlemi/fretlab/internal/theory"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// How long to keep displaying a note after the signal drops
	noteHold = 500 * time.Millisecond

	tickInterval = 100 * time.Millisecond

	// Cells either side of the centre of the cents needle
	needleHalfWidth = 20

	meterWidth = 20

	bpmStep = 5
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F5F"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	highlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5FAFFF"))

	statusColors = map[Status]string{
		StatusInTune: "#00FF00",
		StatusFlat:   "#5FAFFF",
		StatusSharp:  "#FF0000",
	}

	noteColors = map[string]string{
		"C": "#E8D6B0", // Beige
		"D": "#A020F0", // Purple
		"E": "#FFFF00", // Yellow
		"F": "#FFA500", // Orange
		"G": "#00FF00", // Green
		"A": "#FF0000", // Red
		"B": "#0000FF", // Blue
	}
)

// Status is the tuning feedback for a cents deviation
type Status int

const (
	StatusNone Status = iota
	StatusInTune
	StatusFlat  // tune higher
	StatusSharp // tune lower
)

func (s Status) String() string {
	switch s {
	case StatusInTune:
		return "In tune!"
	case StatusFlat:
		return "Tune higher"
	case StatusSharp:
		return "Tune lower"
	}
	return ""
}

// TuningStatus maps cents to feedback. Exactly five cents either way gets
// none.
func TuningStatus(cents int) Status {
	switch {
	case cents > -5 && cents < 5:
		return StatusInTune
	case cents < -5:
		return StatusFlat
	case cents > 5:
		return StatusSharp
	}
	return StatusNone
}

// Listener starts and stops pitch tracking
type Listener interface {
	Start(ctx context.Context) error
	Stop()
	Listening() bool
}

// Player sounds reference tones
type Player interface {
	PlayFrettedNote(stringIndex, fret int)
	PlayNote(name string, octave int, duration time.Duration)
}

// Clicker is the metronome as seen by the UI
type Clicker interface {
	Toggle()
	Running() bool
	BPM() int
	SetBPM(bpm int) int
	BeatsPerMeasure() int
	SetBeatsPerMeasure(beats int) int
}

type Deps struct {
	Context   context.Context
	Listener  Listener
	Player    Player
	Metronome Clicker
	History   *pitch.History
	Tuning    theory.Tuning
}

// TickMsg represents a timer tick
type TickMsg time.Time

// EstimateMsg carries one frame from the tracker
type EstimateMsg pitch.Estimate

// ErrorMsg reports a microphone or capture failure. Listening can be
// retried.
type ErrorMsg struct {
	Err error
}

// BeatMsg is the index of the metronome beat that just sounded
type BeatMsg int

type listenMsg struct {
	err error
}

// Model represents the UI state
type Model struct {
	ctx       context.Context
	listener  Listener
	player    Player
	metronome Clicker
	history   *pitch.History
	tuning    theory.Tuning

	estimate   pitch.Estimate
	note       *theory.NoteResult
	frequency  float64
	lastVoiced time.Time
	err        error

	target int // string the reference tone plays
	fret   int
	beat   int
	width  int
	height int
}

// NewModel creates a new UI model
func NewModel(d Deps) Model {
	ctx := d.Context
	if ctx == nil {
		ctx = context.Background()
	}
	history := d.History
	if history == nil {
		history = pitch.NewHistory(10, 5, 1)
	}
	return Model{
		ctx:       ctx,
		listener:  d.Listener,
		player:    d.Player,
		metronome: d.Metronome,
		history:   history,
		tuning:    d.Tuning,
	}
}

// Init starts listening and the display timer
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.listen())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) listen() tea.Cmd {
	if m.listener == nil {
		return nil
	}
	listener, ctx := m.listener, m.ctx
	return func() tea.Msg {
		return listenMsg{err: listener.Start(ctx)}
	}
}

// Update updates the UI model based on messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		if m.note != nil && time.Time(msg).Sub(m.lastVoiced) > noteHold {
			m.note = nil
		}
		return m, tick()

	case EstimateMsg:
		m.observe(pitch.Estimate(msg))

	case ErrorMsg:
		m.err = msg.Err
		m.clear()

	case listenMsg:
		m.err = msg.err

	case BeatMsg:
		m.beat = int(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ":
		if m.listener == nil {
			return m, nil
		}
		if m.listener.Listening() {
			m.listener.Stop()
			m.clear()
			return m, nil
		}
		return m, m.listen()

	case "left", "h":
		m.target = (m.target + theory.NumStrings - 1) % theory.NumStrings
	case "right", "l":
		m.target = (m.target + 1) % theory.NumStrings
	case "up", "k":
		m.fret = min(m.fret+1, theory.MaxFret)
	case "down", "j":
		m.fret = max(m.fret-1, 0)

	case "enter", "p":
		if m.player != nil {
			m.player.PlayFrettedNote(m.target, m.fret)
		}
	case "r":
		// Reference pitch of the note being heard
		if m.player != nil && m.note != nil {
			m.player.PlayNote(m.note.Name, m.note.Octave, 0)
		}

	case "m":
		if m.metronome != nil {
			m.metronome.Toggle()
		}
	case "+", "=":
		if m.metronome != nil {
			m.metronome.SetBPM(m.metronome.BPM() + bpmStep)
		}
	case "-", "_":
		if m.metronome != nil {
			m.metronome.SetBPM(m.metronome.BPM() - bpmStep)
		}
	case "b":
		if m.metronome != nil {
			beats := m.metronome.BeatsPerMeasure() + 1
			if beats > synth.MaxBeats {
				beats = synth.MinBeats
			}
			m.metronome.SetBeatsPerMeasure(beats)
		}
	}

	return m, nil
}

// observe folds an estimate into the display. Absent frames keep the last
// note on screen until the hold expires. Frames queued before a stop are
// dropped.
func (m *Model) observe(e pitch.Estimate) {
	if m.listener != nil && !m.listener.Listening() {
		return
	}
	m.estimate = e
	m.history.Observe(e)

	if !e.Voiced {
		return
	}
	note, err := e.Note()
	if err != nil {
		return
	}

	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	m.note = &note
	m.frequency = e.Frequency
	m.lastVoiced = at
	m.err = nil
}

func (m *Model) clear() {
	m.note = nil
	m.frequency = 0
	m.estimate = pitch.Estimate{}
	m.history.Reset()
}

// Note returns the displayed note, if any
func (m Model) Note() (theory.NoteResult, bool) {
	if m.note == nil {
		return theory.NoteResult{}, false
	}
	return *m.note, true
}

// Stable reports whether the recent readings have settled
func (m Model) Stable() bool {
	return m.history.Stable()
}

// Target returns the selected string and fret for the reference tone
func (m Model) Target() (stringIndex, fret int) {
	return m.target, m.fret
}

func (m Model) Err() error {
	return m.err
}

// View renders the UI
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("FretLab - Guitar Tuner"))
	b.WriteString("\n")

	if m.note != nil {
		b.WriteString(renderNote(m.note.Name, m.note.Octave))
		b.WriteString("\n")
		b.WriteString(infoStyle.Render(fmt.Sprintf("Frequency: %.2f Hz | Cents: %+d", m.frequency, m.note.Cents)))
		b.WriteString("\n\n")
		b.WriteString(needle(m.note.Cents))
		b.WriteString("\n")
		b.WriteString(m.hint())
	} else {
		b.WriteString(infoStyle.Render(m.idleText()))
		b.WriteString("\n\n")
		b.WriteString(needle(0))
	}
	b.WriteString("\n\n")

	b.WriteString(m.stringRow())
	b.WriteString("\n")
	b.WriteString(m.reference())
	b.WriteString("\n")
	if m.metronome != nil {
		b.WriteString(m.click())
		b.WriteString("\n")
	}
	b.WriteString(infoStyle.Render("Input " + meter(m.inputDB())))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Microphone error: %v (space to retry)", m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(infoStyle.Render("space listen | ←/→ string | ↑/↓ fret | enter play | r reference | m metronome | +/- bpm | b beats | q quit"))

	return b.String()
}

func (m Model) idleText() string {
	if m.listener != nil && !m.listener.Listening() {
		return "Not listening"
	}
	return "Play a string"
}

func (m Model) hint() string {
	status := TuningStatus(m.note.Cents)
	text := status.String()
	if !m.history.Stable() {
		return infoStyle.Render(text)
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(statusColors[status])).
		Render(text)
}

// stringRow renders the open strings from low to high. The selected string is
// boxed and strings matching the heard note are highlighted.
func (m Model) stringRow() string {
	heard := map[int]bool{}
	if m.note != nil {
		for _, i := range m.tuning.Strings(m.note.Name) {
			heard[i] = true
		}
	}

	cells := make([]string, 0, theory.NumStrings)
	for i, s := range m.tuning {
		label := " " + s.String() + " "
		switch {
		case i == m.target:
			cells = append(cells, selectedStyle.Render(label))
		case heard[i]:
			cells = append(cells, highlightStyle.Render(label))
		default:
			cells = append(cells, infoStyle.Render(label))
		}
	}
	return strings.Join(cells, " ")
}

func (m Model) reference() string {
	open := m.tuning[m.target]
	note, err := theory.NoteAtFret(open.Name, m.fret)
	if err != nil {
		note = "?"
	}
	freq, err := m.tuning.FrettedFrequency(m.target, m.fret)
	if err != nil {
		return infoStyle.Render("Reference: -")
	}
	return infoStyle.Render(fmt.Sprintf("Reference: %s string, fret %d = %s (%.2f Hz)", open, m.fret, note, freq))
}

func (m Model) click() string {
	if !m.metronome.Running() {
		return infoStyle.Render(fmt.Sprintf("Metronome: off | %d bpm | %d beats", m.metronome.BPM(), m.metronome.BeatsPerMeasure()))
	}
	beats := m.metronome.BeatsPerMeasure()
	dots := make([]string, beats)
	for i := range dots {
		dots[i] = "○"
		if i == m.beat {
			dots[i] = "●"
		}
	}
	return infoStyle.Render(fmt.Sprintf("Metronome: %s | %d bpm", strings.Join(dots, " "), m.metronome.BPM()))
}

func (m Model) inputDB() float64 {
	if m.estimate.RMS == 0 {
		return -100
	}
	return m.estimate.DB
}

// needle draws the cents deviation on a -50..+50 scale
func needle(cents int) string {
	pos := needleHalfWidth + cents*needleHalfWidth/50
	pos = max(0, min(2*needleHalfWidth, pos))

	cells := []rune(strings.Repeat("─", 2*needleHalfWidth+1))
	cells[needleHalfWidth] = '┼'
	cells[pos] = '▲'
	return infoStyle.Render("-50 " + string(cells) + " +50")
}

// meter draws an input level bar from -60dB to 0dB
func meter(db float64) string {
	filled := int((db + 60) / 60 * meterWidth)
	filled = max(0, min(meterWidth, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)
}

// renderNote draws the note block, splitting sharps across the colours of
// their neighbouring naturals
func renderNote(name string, octave int) string {
	text := fmt.Sprintf("%s%d", name, octave)

	if !strings.HasSuffix(name, "#") {
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color(noteColors[name])).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333333")).
			Padding(2, 4).
			MarginBottom(1).
			Render(text)
	}

	base := name[:1]
	next, err := theory.Transpose(base, 2)
	if err != nil {
		next = base
	}

	left := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[base])).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		BorderLeft(true).
		BorderTop(true).
		BorderBottom(true).
		BorderRight(false).
		PaddingLeft(2).
		PaddingRight(1).
		PaddingTop(2).
		PaddingBottom(2)

	right := left.
		Background(lipgloss.Color(noteColors[next])).
		BorderLeft(false).
		BorderRight(true).
		PaddingLeft(1).
		PaddingRight(2)

	return left.Render(base) + right.Render(fmt.Sprintf("#%d", octave))
}
