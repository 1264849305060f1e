package tui

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/manasm11/workforce/internal/llm"
	"github.com/manasm11/workforce/internal/roles"
	"github.com/manasm11/workforce/internal/runner"
	"github.com/manasm11/workforce/internal/tui/components"
)

// StartRunMsg is emitted when the form is submitted and valid.
type StartRunMsg struct {
	Vision   string
	Selected []string
	Mode     runner.Mode
	Model    string
}

// FormModel collects the vision, the role selection, mode and model.
type FormModel struct {
	vision        textarea.Model
	roles         components.RoleListModel
	focus         FormField
	mode          runner.Mode
	model         string
	hasCredential bool
	errMsg        string
	width, height int
}

// NewFormModel builds the form from the crew and the configured defaults.
func NewFormModel(reg *roles.Registry, selected []string, mode runner.Mode, model string, hasCredential bool) FormModel {
	ta := textarea.New()
	ta.Placeholder = "🚀 Describe your project vision…"
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetHeight(5)
	ta.Focus()

	if model == "" {
		model = llm.DefaultModel
	}
	if mode == "" {
		mode = runner.ModeMock
	}

	return FormModel{
		vision:        ta,
		roles:         components.NewRoleListModel(BuildRoleItems(reg, selected)),
		focus:         FieldVision,
		mode:          mode,
		model:         model,
		hasCredential: hasCredential,
	}
}

func (m FormModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "shift+tab":
			m.focus = NextField(m.focus)
			if m.focus == FieldVision {
				return m, m.vision.Focus()
			}
			m.vision.Blur()
			return m, nil

		case "ctrl+t":
			m.mode = ToggleMode(m.mode)
			m.errMsg = ""
			return m, nil

		case "ctrl+o":
			m.model = llm.NextModel(m.model)
			return m, nil

		case "ctrl+s":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	if m.focus == FieldVision {
		m.vision, cmd = m.vision.Update(msg)
	} else {
		m.roles, cmd = m.roles.Update(msg)
	}
	return m, cmd
}

func (m FormModel) submit() (FormModel, tea.Cmd) {
	vision := m.vision.Value()
	selected := m.roles.CheckedIDs()
	if reason := ValidateStart(vision, selected, m.mode, m.hasCredential, m.model); reason != "" {
		m.errMsg = reason
		return m, nil
	}
	m.errMsg = ""
	start := StartRunMsg{Vision: vision, Selected: selected, Mode: m.mode, Model: m.model}
	return m, func() tea.Msg { return start }
}

// Mode and Model expose the current picks for the status bar.
func (m FormModel) Mode() runner.Mode { return m.mode }
func (m FormModel) Model() string { return m.model }

// Err returns the last validation message.
func (m FormModel) Err() string { return m.errMsg }

func (m *FormModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.vision.SetWidth(max(w-4, 20))
	// label(1) + textarea(5) + gap(1) + label(1) + error(1) + help(1)
	m.roles.SetSize(w-2, max(h-10, 3))
}

func (m FormModel) View() string {
	visionLabel, rolesLabel := LabelStyle, LabelStyle
	if m.focus == FieldVision {
		visionLabel = FocusedLabelStyle
	} else {
		rolesLabel = FocusedLabelStyle
	}

	sections := []string{
		visionLabel.Render(" Vision"),
		" " + m.vision.View(),
		"",
		rolesLabel.Render(" Roles") + SubtitleStyle.Render("  (run top to bottom)"),
		m.roles.View(),
	}
	if m.errMsg != "" {
		sections = append(sections, ErrorStyle.Render(" "+m.errMsg))
	}

	help := "tab switch · ctrl+s start · ctrl+t mode · ctrl+o model"
	if m.focus == FieldRoles {
		help = "space toggle · a all · K/J move · enter details · " + help
	}
	sections = append(sections, HelpStyle.Render(help))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
