package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBarModel shows finished roles out of the selection. Completed roles
// fill green, failed roles red, and roles that will never run are hatched.
type ProgressBarModel struct {
	done    int
	failed  int
	skipped int
	total   int
	width   int
}

var (
	progressBarFilled = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#10B981"))
	progressBarFailed = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#EF4444"))
	progressBarEmpty = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6B7280"))
	progressBarText = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5E7EB"))
)

// NewProgressBarModel creates a new progress bar.
func NewProgressBarModel(total, width int) ProgressBarModel {
	return ProgressBarModel{
		total: total,
		width: width,
	}
}

// SetCounts updates the completed and failed counts.
func (m *ProgressBarModel) SetCounts(done, failed int) {
	m.done = done
	m.failed = failed
}

// SetSkipped marks roles left unstarted by an abort or cancellation.
func (m *ProgressBarModel) SetSkipped(n int) {
	m.skipped = n
}

func (m *ProgressBarModel) SetTotal(total int) {
	m.total = total
}

func (m *ProgressBarModel) SetWidth(width int) {
	m.width = width
}

// Finished is the number of roles that reached a terminal state.
func (m ProgressBarModel) Finished() int {
	return m.done + m.failed
}

// View renders the bar, e.g. "██████╌╌░░ 3/5 (60%) · 1 failed · 1 skipped".
func (m ProgressBarModel) View() string {
	barWidth := m.width - 28
	if barWidth < 5 {
		barWidth = 5
	}
	if m.total == 0 {
		empty := strings.Repeat("░", barWidth)
		return fmt.Sprintf("  %s 0/0 (0%%)", progressBarEmpty.Render(empty))
	}

	finished := min(m.Finished(), m.total)
	skipped := min(m.skipped, m.total-finished)
	pct := finished * 100 / m.total
	okCells := min(m.done, m.total) * barWidth / m.total
	failCells := finished*barWidth/m.total - okCells
	skipCells := (finished+skipped)*barWidth/m.total - okCells - failCells
	empty := barWidth - okCells - failCells - skipCells

	bar := progressBarFilled.Render(strings.Repeat("█", okCells)) +
		progressBarFailed.Render(strings.Repeat("█", failCells)) +
		progressBarEmpty.Render(strings.Repeat("╌", skipCells)) +
		progressBarEmpty.Render(strings.Repeat("░", empty))

	label := fmt.Sprintf(" %d/%d (%d%%)", finished, m.total, pct)
	if m.failed > 0 {
		label += fmt.Sprintf(" · %d failed", m.failed)
	}
	if skipped > 0 {
		label += fmt.Sprintf(" · %d skipped", skipped)
	}

	return fmt.Sprintf("  %s%s", bar, progressBarText.Render(label))
}
