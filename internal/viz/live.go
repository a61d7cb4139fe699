package viz

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/propsetup/internal/dynamo"
)

const (
	liveCols      = 60
	liveRows      = 18
	trackCapacity = 4000
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(40)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// StepMsg carries one sampled step of an arc.
type StepMsg struct {
	Arc   int
	Time  float64
	State dynamo.State
}

// DoneMsg ends the live view.
type DoneMsg struct {
	Err error
}

type arcStatus struct {
	time    float64
	samples int
	radius  float64
}

// Model follows a propagation in the terminal.
type Model struct {
	title    string
	started  time.Time
	canvas   *Canvas
	track    *Track
	arcs     map[int]*arcStatus
	done     bool
	aborted  bool
	err      error
	finished time.Duration
}

func NewModel(title string, plane Plane) Model {
	return Model{
		title:   title,
		started: time.Now(),
		canvas:  NewCanvas(liveCols, liveRows),
		track:   NewTrack(plane, trackCapacity),
		arcs:    make(map[int]*arcStatus),
	}
}

// Aborted reports whether the view was closed before the propagation ended.
func (m Model) Aborted() bool { return m.aborted }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.done {
				m.aborted = true
			}
			return m, tea.Quit
		}
	case StepMsg:
		a, ok := m.arcs[msg.Arc]
		if !ok {
			a = &arcStatus{}
			m.arcs[msg.Arc] = a
		}
		a.time = msg.Time
		a.samples++
		if len(msg.State) >= 3 {
			a.radius = msg.State[:3].Norm()
		}
		m.track.Add(msg.Arc, msg.State)
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		m.finished = time.Since(m.started)
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	m.track.Render(m.canvas)
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	switch {
	case m.done && m.err != nil:
		s.WriteString(failStyle.Render("FAILED") + "\n" + m.err.Error() + "\n\n")
	case m.done:
		s.WriteString(doneStyle.Render(fmt.Sprintf("DONE in %s", m.finished.Round(time.Millisecond))) + "\n\n")
	default:
		s.WriteString(fmt.Sprintf("RUNNING %s\n\n", time.Since(m.started).Round(100*time.Millisecond)))
	}

	keys := make([]int, 0, len(m.arcs))
	for k := range m.arcs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		a := m.arcs[k]
		name := fmt.Sprintf("arc %d", k)
		if k < 0 {
			name = "single"
		}
		s.WriteString(labelStyle.Render(name) + valueStyle.Render(fmt.Sprintf("t=%.1f r=%.4g", a.time, a.radius)) + "\n")
	}
	if len(keys) == 0 {
		s.WriteString(labelStyle.Render("waiting") + "\n")
	}
	s.WriteString(helpStyle.Render("Q:Abort"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Feed forwards propagation steps to a Sender, at most one per arc and
// interval. It is safe for concurrent use by several arcs.
type Feed struct {
	sender   Sender
	interval time.Duration

	mu   sync.Mutex
	last map[int]time.Time
}

func NewFeed(s Sender, interval time.Duration) *Feed {
	return &Feed{sender: s, interval: interval, last: make(map[int]time.Time)}
}

func (f *Feed) OnStep(arc int, x dynamo.State, t float64) {
	now := time.Now()
	f.mu.Lock()
	if last, ok := f.last[arc]; ok && now.Sub(last) < f.interval {
		f.mu.Unlock()
		return
	}
	f.last[arc] = now
	f.mu.Unlock()
	f.sender.Send(StepMsg{Arc: arc, Time: t, State: x.Clone()})
}
