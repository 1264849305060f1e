package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/manasm11/workforce/internal/roles"
	"github.com/manasm11/workforce/internal/runner"
)

// Phase is the screen currently shown.
type Phase int

const (
	PhaseForm Phase = iota
	PhaseRun
)

// NewRunMsg returns from the run screen to a fresh form.
type NewRunMsg struct{}

// RunnerFactory builds a runner for the confirmed mode and model. onEvent
// must be installed as the runner's event hook.
type RunnerFactory func(mode runner.Mode, model string, onEvent runner.EventHandler) *runner.Runner

// Options configures the application.
type Options struct {
	Crew          roles.Crew
	Selected      []string
	Mode          runner.Mode
	Model         string
	HasCredential bool
	NewRunner     RunnerFactory
}

// AppModel is the root bubbletea model managing phase transitions.
type AppModel struct {
	opts     Options
	program  *tea.Program
	phase    Phase
	form     FormModel
	run      RunModel
	width    int
	height   int
	quitting bool
}

// NewAppModel creates the root model showing the form.
func NewAppModel(opts Options) AppModel {
	return AppModel{
		opts:  opts,
		phase: PhaseForm,
		form:  NewFormModel(opts.Crew.Registry, opts.Selected, opts.Mode, opts.Model, opts.HasCredential),
	}
}

// SetProgram sets the tea.Program reference for streaming runner events.
// Must be called after tea.NewProgram() and before p.Run().
func (m *AppModel) SetProgram(p *tea.Program) {
	m.program = p
	m.run.SetProgram(p)
}

func (m *AppModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentHeight := max(m.height-2, 0) // header + status bar
		m.form.SetSize(m.width, contentHeight)
		m.run.SetSize(m.width, contentHeight)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.phase == PhaseRun && m.run.Status() == RunRunning && m.run.cancelFunc != nil {
				m.run.cancelFunc()
			}
			m.quitting = true
			return m, tea.Quit
		}

	case StartRunMsg:
		return m, m.startRun(msg)

	case NewRunMsg:
		m.opts.Mode = m.form.Mode()
		m.opts.Model = m.form.Model()
		m.form = NewFormModel(m.opts.Crew.Registry, m.run.selectedIDs(), m.opts.Mode, m.opts.Model, m.opts.HasCredential)
		m.form.SetSize(m.width, max(m.height-2, 0))
		m.phase = PhaseForm
		return m, m.form.Init()
	}

	var cmd tea.Cmd
	switch m.phase {
	case PhaseForm:
		m.form, cmd = m.form.Update(msg)
	case PhaseRun:
		m.run, cmd = m.run.Update(msg)
	}
	return m, cmd
}

func (m *AppModel) startRun(msg StartRunMsg) tea.Cmd {
	if m.opts.NewRunner == nil {
		return nil
	}
	p := m.program
	r := m.opts.NewRunner(msg.Mode, msg.Model, func(e runner.Event) {
		if p != nil {
			p.Send(RunEventMsg{Event: e})
		}
	})

	m.run = NewRunModel(r, m.opts.Crew.Registry, msg.Vision, msg.Selected)
	m.run.SetProgram(p)
	m.run.SetSize(m.width, max(m.height-2, 0))
	m.phase = PhaseRun
	return tea.Batch(m.run.Init(), m.run.StartRun())
}

func (m *AppModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.phase {
	case PhaseForm:
		content = m.form.View()
	case PhaseRun:
		content = m.run.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), content, m.renderStatusBar())
}

// Phase returns the active screen.
func (m *AppModel) Phase() Phase { return m.phase }

func (m *AppModel) renderHeader() string {
	title := TitleStyle.Render("🤖 workforce")

	phases := []struct {
		name  string
		phase Phase
	}{
		{"Vision", PhaseForm},
		{"Run", PhaseRun},
	}

	var indicators string
	for i, p := range phases {
		style := PhaseLabelStyle
		if p.phase == m.phase {
			style = PhaseActiveStyle
		}
		if i > 0 {
			indicators += SubtitleStyle.Render(" → ")
		}
		indicators += style.Render(p.name)
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Background(Surface).
		PaddingLeft(1).
		Render(lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", indicators))
}

func (m *AppModel) renderStatusBar() string {
	return StatusBar.
		Width(m.width).
		Render(FormatStatusLine(m.form.Mode(), m.form.Model(), m.opts.HasCredential, m.opts.Crew.Name) + "  |  ctrl+c: quit")
}
