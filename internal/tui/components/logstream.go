package components

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// LogLineType classifies a run log line.
type LogLineType int

const (
	LogInfo LogLineType = iota
	LogSuccess
	LogError
	LogWarning
	LogDetail // request and artifact notices, hidden unless verbose
)

// LogLine is a single line in the run log.
type LogLine struct {
	Text string
	Type LogLineType
	Time time.Time // zero hides the timestamp column
}

var logStyles = map[LogLineType]lipgloss.Style{
	LogInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E7EB")),
	LogSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
	LogError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	LogWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
	LogDetail:  lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
}

var logMarkers = map[LogLineType]string{
	LogInfo:    "›",
	LogSuccess: "✓",
	LogError:   "✗",
	LogWarning: "!",
	LogDetail:  " ",
}

// LogStreamModel shows one role's event log. It sticks to the newest line
// until the user scrolls up.
type LogStreamModel struct {
	lines   []LogLine
	top     int
	width   int
	height  int
	pinned  bool // stick to the newest line
	verbose bool // show LogDetail lines
}

func NewLogStreamModel() LogStreamModel {
	return LogStreamModel{pinned: true, verbose: true}
}

func (m *LogStreamModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.clamp()
}

// AppendLine adds a line, scrolling with it when pinned.
func (m *LogStreamModel) AppendLine(line LogLine) {
	m.lines = append(m.lines, line)
	m.clamp()
}

// SetLines swaps in another role's log and pins to its end.
func (m *LogStreamModel) SetLines(lines []LogLine) {
	m.lines = lines
	m.pinned = true
	m.clamp()
}

// Len returns the number of buffered lines, hidden ones included.
func (m LogStreamModel) Len() int { return len(m.lines) }

// Verbose reports whether detail lines are shown.
func (m LogStreamModel) Verbose() bool { return m.verbose }

func (m LogStreamModel) visible() []LogLine {
	if m.verbose {
		return m.lines
	}
	out := make([]LogLine, 0, len(m.lines))
	for _, l := range m.lines {
		if l.Type != LogDetail {
			out = append(out, l)
		}
	}
	return out
}

func (m *LogStreamModel) clamp() {
	n := len(m.visible())
	last := max(n-m.height, 0)
	if m.pinned || m.top > last {
		m.top = last
	}
	m.top = max(m.top, 0)
}

// Update handles g/G, pgup/pgdown and v (verbose).
func (m LogStreamModel) Update(msg tea.Msg) (LogStreamModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "G":
		m.pinned = true
	case "g":
		m.pinned = false
		m.top = 0
	case "pgup":
		m.pinned = false
		m.top -= m.height
	case "pgdown":
		m.top += m.height
		m.pinned = m.top+m.height >= len(m.visible())
	case "v":
		m.verbose = !m.verbose
	}
	m.clamp()
	return m, nil
}

func (m LogStreamModel) View() string {
	if m.height <= 0 || m.width <= 0 {
		return ""
	}

	lines := m.visible()
	if len(lines) == 0 {
		return logStyles[LogDetail].Render("  Waiting for events...")
	}

	end := min(m.top+m.height, len(lines))
	rows := make([]string, 0, m.height)
	for _, l := range lines[m.top:end] {
		rows = append(rows, m.renderLine(l))
	}
	if below := len(lines) - end; below > 0 && len(rows) > 0 {
		rows[len(rows)-1] = logStyles[LogDetail].Render(fmt.Sprintf("  ↓ %d more (G to follow)", below))
	}
	for len(rows) < m.height {
		rows = append(rows, "")
	}
	return strings.Join(rows, "\n")
}

func (m LogStreamModel) renderLine(line LogLine) string {
	prefix := "  " + logMarkers[line.Type] + " "
	if !line.Time.IsZero() {
		prefix += line.Time.Format("15:04:05") + " "
	}

	text, _, _ := strings.Cut(line.Text, "\n")
	if avail := m.width - lipgloss.Width(prefix) - 1; avail > 1 {
		text = truncate.StringWithTail(text, uint(avail), "…")
	}
	return logStyles[line.Type].Render(prefix + text)
}
