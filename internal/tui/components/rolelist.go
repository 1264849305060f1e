package components

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

// RoleStatus mirrors runner.Status without importing runner, plus skipped.
type RoleStatus string

const (
	StatusPending  RoleStatus = "pending"
	StatusRunning  RoleStatus = "running"
	StatusComplete RoleStatus = "complete"
	StatusFailed   RoleStatus = "failed"
	StatusSkipped  RoleStatus = "skipped"
)

// RoleItem is one row of the role list.
type RoleItem struct {
	ID      string
	Kind    string // "structured" or "free_text"
	Checked bool
	Status  RoleStatus
	Elapsed time.Duration
	Detail  string // instruction on the form, result preview during a run
}

// RoleListModel is a checklist of roles. Unlocked, the user can toggle and
// reorder; locked, it only navigates and shows status.
type RoleListModel struct {
	items      []RoleItem
	cursor     int
	scrollOff  int
	detailView bool
	locked     bool
	width      int
	height     int
}

var (
	selectedPrefix = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED")).
			Bold(true)

	completeIcon = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Render("✅")

	failedIcon = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Render("❌")

	runningIcon = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#06B6D4")).
			Render("🔄")

	skippedIcon = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Render("⏭")

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5E7EB")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5E7EB"))

	detailBorderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6B7280"))

	detailContentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#E5E7EB")).
				PaddingLeft(1)
)

func NewRoleListModel(items []RoleItem) RoleListModel {
	return RoleListModel{items: items}
}

// SetItems replaces the items, keeping the cursor in range.
func (m *RoleListModel) SetItems(items []RoleItem) {
	m.items = items
	if m.cursor >= len(items) {
		m.cursor = len(items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Items returns a copy of the rows in display order.
func (m RoleListModel) Items() []RoleItem {
	out := make([]RoleItem, len(m.items))
	copy(out, m.items)
	return out
}

func (m *RoleListModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.ensureVisible()
}

// Lock freezes selection and order.
func (m *RoleListModel) Lock() { m.locked = true }

// CheckedIDs returns checked role ids in display order.
func (m RoleListModel) CheckedIDs() []string {
	var ids []string
	for _, it := range m.items {
		if it.Checked {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// SelectedItem returns the highlighted row.
func (m RoleListModel) SelectedItem() *RoleItem {
	if len(m.items) == 0 || m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	item := m.items[m.cursor]
	return &item
}

func (m RoleListModel) CursorID() string {
	if item := m.SelectedItem(); item != nil {
		return item.ID
	}
	return ""
}

// SetCursorByID moves the cursor to the item with the given ID.
func (m *RoleListModel) SetCursorByID(id string) {
	if i := m.index(id); i >= 0 {
		m.cursor = i
		m.ensureVisible()
	}
}

// SetStatus updates one row's status and elapsed time.
func (m *RoleListModel) SetStatus(id string, status RoleStatus, elapsed time.Duration) {
	if i := m.index(id); i >= 0 {
		m.items[i].Status = status
		m.items[i].Elapsed = elapsed
	}
}

// SetDetail replaces the detail text shown for a row.
func (m *RoleListModel) SetDetail(id, detail string) {
	if i := m.index(id); i >= 0 {
		m.items[i].Detail = detail
	}
}

func (m *RoleListModel) ToggleDetail() {
	m.detailView = !m.detailView
	m.ensureVisible()
}

func (m RoleListModel) index(id string) int {
	for i, it := range m.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (m RoleListModel) Init() tea.Cmd {
	return nil
}

func (m RoleListModel) Update(msg tea.Msg) (RoleListModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "j", "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
			m.ensureVisible()
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
			m.ensureVisible()
		}
	case "enter":
		m.ToggleDetail()
	}
	if m.locked {
		return m, nil
	}

	switch key.String() {
	case " ", "x":
		if m.cursor < len(m.items) {
			m.items[m.cursor].Checked = !m.items[m.cursor].Checked
		}
	case "a":
		all := len(m.CheckedIDs()) < len(m.items)
		for i := range m.items {
			m.items[i].Checked = all
		}
	case "K": // shift+k = move up
		if m.cursor > 0 {
			m.items[m.cursor], m.items[m.cursor-1] = m.items[m.cursor-1], m.items[m.cursor]
			m.cursor--
			m.ensureVisible()
		}
	case "J": // shift+j = move down
		if m.cursor < len(m.items)-1 {
			m.items[m.cursor], m.items[m.cursor+1] = m.items[m.cursor+1], m.items[m.cursor]
			m.cursor++
			m.ensureVisible()
		}
	}
	return m, nil
}

func (m RoleListModel) listHeight() (list, detail int) {
	list = m.height
	if m.detailView {
		detail = max(m.height*40/100, 5)
		list = m.height - detail - 1 // separator
	}
	return max(list, 1), detail
}

func (m *RoleListModel) ensureVisible() {
	h, _ := m.listHeight()
	if m.cursor < m.scrollOff {
		m.scrollOff = m.cursor
	}
	if m.cursor >= m.scrollOff+h {
		m.scrollOff = m.cursor - h + 1
	}
}

func (m RoleListModel) View() string {
	if m.width == 0 || m.height == 0 || len(m.items) == 0 {
		return ""
	}

	listHeight, detailHeight := m.listHeight()
	end := min(m.scrollOff+listHeight, len(m.items))

	var lines []string
	for i := m.scrollOff; i < end; i++ {
		lines = append(lines, m.renderItem(i))
	}
	listView := strings.Join(lines, "\n")
	if !m.detailView {
		return listView
	}

	separator := detailBorderStyle.Render(strings.Repeat("─", m.width))
	return lipgloss.JoinVertical(lipgloss.Left, listView, separator, m.renderDetail(detailHeight))
}

func (m RoleListModel) renderItem(idx int) string {
	item := m.items[idx]
	isSelected := idx == m.cursor

	var icon string
	switch item.Status {
	case StatusComplete:
		icon = completeIcon
	case StatusFailed:
		icon = failedIcon
	case StatusRunning:
		icon = runningIcon
	case StatusSkipped:
		icon = skippedIcon
	default:
		icon = "  "
	}
	if !m.locked {
		icon = "[ ]"
		if item.Checked {
			icon = "[x]"
		}
	}

	prefix := "  "
	style := normalStyle
	if isSelected {
		prefix = selectedPrefix.Render("→ ")
		style = selectedStyle
	}

	title := style.Render(item.ID)
	if !m.locked && !item.Checked && !isSelected {
		title = dimStyle.Render(item.ID)
	}

	line := fmt.Sprintf("%s%s %s %s", prefix, icon, title, kindStyle.Render("["+item.Kind+"]"))
	if m.locked && (item.Status == StatusRunning || item.Status == StatusComplete || item.Status == StatusFailed) {
		line += dimStyle.Render(" " + formatElapsed(item.Elapsed))
	}

	if m.width > 0 && lipgloss.Width(line) > m.width {
		line = truncate.StringWithTail(line, uint(m.width), "…")
	}
	return line
}

func (m RoleListModel) renderDetail(maxHeight int) string {
	item := m.SelectedItem()
	if item == nil || item.Detail == "" {
		return dimStyle.Render("  Nothing to show yet")
	}

	wrapped := wordwrap.String(item.Detail, max(m.width-2, 10))
	lines := strings.Split(detailContentStyle.Render(wrapped), "\n")
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}
	return strings.Join(lines, "\n")
}

func formatElapsed(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
