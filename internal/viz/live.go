package viz

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ionsim/internal/integrate"
	"github.com/san-kum/ionsim/internal/metrics"
)

const (
	canvasWidth     = 70
	canvasHeight    = 20
	historyCapacity = 400
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(40)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model is the bubbletea model of the live monitor. Each tick advances the
// simulation a fixed number of steps and redraws the cloud projection.
type Model struct {
	integrator   *integrate.VerletIntegrator
	dt           float64
	stepsPerTick int

	canvas  *Canvas
	plane   Plane
	running bool
	name    string

	kinetic       *metrics.KineticEnergy
	active        *metrics.ActiveCount
	energyHistory []float64
}

// NewModel wraps an integrator for live viewing. stepsPerTick controls how
// much simulated time passes per frame.
func NewModel(v *integrate.VerletIntegrator, dt float64, stepsPerTick int, name string) Model {
	if stepsPerTick < 1 {
		stepsPerTick = 1
	}
	return Model{
		integrator:    v,
		dt:            dt,
		stepsPerTick:  stepsPerTick,
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		running:       true,
		name:          name,
		kinetic:       metrics.NewKineticEnergy(),
		active:        metrics.NewActiveCount(),
		energyHistory: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "v":
			m.plane = (m.plane + 1) % 3
		}

	case TickMsg:
		if m.running && m.integrator.RunState() != integrate.StateFinalized {
			for i := 0; i < m.stepsPerTick; i++ {
				if err := m.integrator.RunSingleStep(m.dt); err != nil {
					m.running = false
					break
				}
			}
			m.observe()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) observe() {
	particles := m.integrator.Particles()
	m.kinetic.Observe(particles, m.integrator.Time())
	m.active.Observe(particles, m.integrator.Time())

	m.energyHistory = append(m.energyHistory, m.kinetic.Value())
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

func (m Model) View() string {
	particles := m.integrator.Particles()

	m.canvas.Clear()
	min, max := CloudBounds(particles)
	m.canvas.DrawCloud(particles, m.plane, min, max)

	state := "running"
	if !m.running {
		state = "paused"
	}

	stats := headerStyle.Render(m.name) + "\n" +
		row("state", state) +
		row("plane", m.plane.String()) +
		row("time", fmt.Sprintf("%.3e s", m.integrator.Time())) +
		row("step", fmt.Sprintf("%d", m.integrator.Step())) +
		row("particles", fmt.Sprintf("%d", len(particles))) +
		row("active", fmt.Sprintf("%.0f", m.active.Value())) +
		row("kinetic", fmt.Sprintf("%.3e J", m.kinetic.Value()))

	graph := ""
	if len(m.energyHistory) > 2 {
		graph = graphStyle.Render(asciigraph.Plot(
			m.energyHistory,
			asciigraph.Height(6),
			asciigraph.Width(60),
			asciigraph.Caption("kinetic energy"),
		))
	}

	main := lipgloss.JoinHorizontal(
		lipgloss.Top,
		canvasStyle.Render(m.canvas.String()),
		statsStyle.Render(stats),
	)
	help := helpStyle.Render("space pause · v plane · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, main, graph, help)
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}
