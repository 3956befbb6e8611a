package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/ising/internal/lattice"
	"github.com/san-kum/ising/internal/sim"
)

const (
	barWidth        = 30
	sparkWidth      = 40
	historyCapacity = 400
	// Lattices wider than this are not drawn.
	maxSnapshotSize = 48
)

type ChainStartMsg struct {
	K           int
	Temperature float64
}

type SweepMsg struct {
	K        int
	Sweep    int
	Energy   float64 // instantaneous energy per site
	Snapshot string  // empty when the lattice is too large to draw
}

type ChainDoneMsg struct {
	K     int
	Point sim.Point
}

// DoneMsg ends the view. Result is nil when Err is set.
type DoneMsg struct {
	Result *sim.Result
	Err    error
}

type chainView struct {
	temperature float64
	sweeps      int
	energy      float64 // latest instantaneous energy per site
	mean        float64 // chain average once done
	started     bool
	done        bool
}

// Model follows a temperature sweep as it runs.
type Model struct {
	size     int
	sweeps   int
	chains   []chainView
	active   int
	history  []float64
	snapshot string
	start    time.Time
	elapsed  time.Duration
	finished bool
	quitting bool
	result   *sim.Result
	err      error
}

func NewModel(temperatures []float64, cfg sim.Config) Model {
	chains := make([]chainView, len(temperatures))
	for i, t := range temperatures {
		chains[i].temperature = t
	}
	return Model{
		size:    cfg.Size,
		sweeps:  cfg.Sweeps,
		chains:  chains,
		active:  -1,
		history: make([]float64, 0, historyCapacity),
		start:   time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Update applies progress messages and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case ChainStartMsg:
		if c := m.chain(msg.K); c != nil {
			c.started = true
			m.active = msg.K
			m.history = m.history[:0]
		}

	case SweepMsg:
		if c := m.chain(msg.K); c != nil {
			c.sweeps = msg.Sweep + 1
			c.energy = msg.Energy
			if msg.K == m.active {
				m.history = append(m.history, msg.Energy)
				if len(m.history) > historyCapacity {
					m.history = m.history[1:]
				}
				if msg.Snapshot != "" {
					m.snapshot = msg.Snapshot
				}
			}
		}

	case ChainDoneMsg:
		if c := m.chain(msg.K); c != nil {
			c.done = true
			c.sweeps = m.sweeps
			c.mean = msg.Point.Energy
		}

	case DoneMsg:
		m.finished = true
		m.result = msg.Result
		m.err = msg.Err
		m.elapsed = time.Since(m.start)
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) chain(k int) *chainView {
	if k < 0 || k >= len(m.chains) {
		return nil
	}
	return &m.chains[k]
}

// Result returns the finished run, if any.
func (m Model) Result() (*sim.Result, error) { return m.result, m.err }

// Quitting reports whether the user asked to leave before the run finished.
func (m Model) Quitting() bool { return m.quitting && !m.finished }

func (m Model) completed() int {
	n := 0
	for _, c := range m.chains {
		if c.done {
			n++
		}
	}
	return n
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(Title.Render(fmt.Sprintf("ising  L=%d  sweeps=%d", m.size, m.sweeps)))
	b.WriteString("  ")
	switch {
	case m.err != nil:
		b.WriteString(StatusError.Render("error: " + m.err.Error()))
	case m.finished:
		b.WriteString(StatusDone.Render(fmt.Sprintf("done in %v", m.elapsed.Round(time.Millisecond))))
	default:
		b.WriteString(StatusRunning.Render(fmt.Sprintf("running %d/%d", m.completed(), len(m.chains))))
	}
	b.WriteString("\n\n")

	var rows strings.Builder
	for k, c := range m.chains {
		progress := 0.0
		if m.sweeps > 0 {
			progress = float64(c.sweeps) / float64(m.sweeps)
		}

		label := MetricLabel.Render(fmt.Sprintf("T=%.3f", c.temperature))
		var value string
		switch {
		case c.done:
			value = MetricValue.Render(fmt.Sprintf("<E>=%+.4f", c.mean))
		case c.started:
			value = fmt.Sprintf("E=%+.4f", c.energy)
		default:
			value = Subtle.Render("pending")
		}

		marker := "  "
		if k == m.active && !c.done {
			marker = "▶ "
		}
		fmt.Fprintf(&rows, "%s%s %s %s\n", marker, label, ProgressBar(progress, barWidth), value)
	}

	side := ""
	if m.active >= 0 && m.active < len(m.chains) {
		var s strings.Builder
		s.WriteString(MetricLabel.Render(fmt.Sprintf("chain %d  T=%.3f", m.active, m.chains[m.active].temperature)))
		s.WriteString("\n")
		s.WriteString(Sparkline(m.history, sparkWidth))
		if m.snapshot != "" {
			s.WriteString("\n\n")
			s.WriteString(m.snapshot)
		}
		side = Panel.Render(s.String())
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rows.String(), "  ", side))
	b.WriteString("\n")

	if m.finished && m.result != nil {
		b.WriteString("\n")
		b.WriteString(PlotCurve(m.result.Temperatures(), m.result.Energies()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(KeyHint.Render("q quit"))
	b.WriteString("\n")
	return b.String()
}

// ProgramObserver forwards chain progress to a running Model. It sends at most
// about updates SweepMsgs per chain.
type ProgramObserver struct {
	send  func(tea.Msg)
	every int
}

// NewProgramObserver returns an observer that sends to p.
func NewProgramObserver(p *tea.Program, sweeps, updates int) *ProgramObserver {
	return newObserver(p.Send, sweeps, updates)
}

func newObserver(send func(tea.Msg), sweeps, updates int) *ProgramObserver {
	every := 1
	if updates > 0 && sweeps > updates {
		every = sweeps / updates
	}
	return &ProgramObserver{send: send, every: every}
}

func (o *ProgramObserver) OnChainStart(k int, temperature float64) {
	o.send(ChainStartMsg{K: k, Temperature: temperature})
}

func (o *ProgramObserver) OnSweep(k, sweep int, lat *lattice.Lattice, energy float64) {
	if (sweep+1)%o.every != 0 {
		return
	}
	msg := SweepMsg{K: k, Sweep: sweep, Energy: energy / float64(lat.Sites())}
	if lat.Size() <= maxSnapshotSize {
		msg.Snapshot = renderLattice(lat)
	}
	o.send(msg)
}

func (o *ProgramObserver) OnChainDone(k int, p sim.Point) {
	o.send(ChainDoneMsg{K: k, Point: p})
}

var (
	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ccff"))
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6688"))
)

// renderLattice draws one cell per spin, two columns wide so the grid looks
// square in most terminals.
func renderLattice(lat *lattice.Lattice) string {
	rows := strings.Split(lat.String(), "\n")
	var b strings.Builder
	for i, row := range rows {
		for _, c := range row {
			if c == '+' {
				b.WriteString(upStyle.Render("██"))
			} else {
				b.WriteString(downStyle.Render("░░"))
			}
		}
		if i < len(rows)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
