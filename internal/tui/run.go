package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/manasm11/workforce/internal/artifact"
	"github.com/manasm11/workforce/internal/roles"
	"github.com/manasm11/workforce/internal/runner"
	"github.com/manasm11/workforce/internal/tui/components"
)

// RunEventMsg wraps runner.Event for the bubbletea message loop.
type RunEventMsg struct {
	Event runner.Event
}

// RunDoneMsg signals the runner has finished (or refused to start).
type RunDoneMsg struct {
	Summary *runner.Summary
	Err     error
}

// TickMsg is the 1-second heartbeat for updating elapsed times.
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

type runCancelFuncMsg struct {
	cancel context.CancelFunc
}

// RunModel is the dashboard shown while roles execute.
type RunModel struct {
	runner   *runner.Runner
	program  *tea.Program
	vision   string
	progress []RoleProgress
	roleList components.RoleListModel
	logs     components.LogStreamModel
	bar      components.ProgressBarModel
	spinner  spinner.Model
	status   RunStatus
	summary  *runner.Summary
	files    []string // artifacts in the output folder once the run ends
	err      error
	width    int
	height   int

	cancelFunc context.CancelFunc
	started    bool
	userMoved  bool
}

// NewRunModel prepares the dashboard for the given selection.
func NewRunModel(r *runner.Runner, reg *roles.Registry, vision string, selected []string) RunModel {
	progress := BuildRoleProgress(reg, selected)
	list := components.NewRoleListModel(ToRoleItems(progress))
	list.Lock()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(Secondary)

	return RunModel{
		runner:   r,
		vision:   vision,
		progress: progress,
		roleList: list,
		logs:     components.NewLogStreamModel(),
		bar:      components.NewProgressBarModel(len(progress), 40),
		spinner:  sp,
		status:   RunRunning,
	}
}

// SetProgram sets the tea.Program used to forward runner events.
func (m *RunModel) SetProgram(p *tea.Program) {
	m.program = p
}

func (m RunModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// StartRun launches the runner in the background. Events reach the model
// through the runner's OnEvent hook, which must forward to the program.
func (m *RunModel) StartRun() tea.Cmd {
	if m.started || m.program == nil || m.runner == nil {
		return nil
	}
	m.started = true

	p := m.program
	r := m.runner
	vision := m.vision
	ids := m.selectedIDs()

	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		p.Send(runCancelFuncMsg{cancel: cancel})
		summary, err := r.RunAll(ctx, vision, ids)
		cancel()
		return RunDoneMsg{Summary: summary, Err: err}
	}
}

func (m RunModel) Update(msg tea.Msg) (RunModel, tea.Cmd) {
	switch msg := msg.(type) {

	case runCancelFuncMsg:
		m.cancelFunc = msg.cancel
		return m, nil

	case RunEventMsg:
		m.applyEvent(msg.Event)
		return m, nil

	case RunDoneMsg:
		m.finish(msg.Summary, msg.Err)
		return m, nil

	case spinner.TickMsg:
		if m.status != RunRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		if m.status != RunRunning {
			return m, nil
		}
		now := time.Now()
		for i := range m.progress {
			rp := &m.progress[i]
			if rp.Status == components.StatusRunning && rp.StartedAt != nil {
				rp.Elapsed = now.Sub(*rp.StartedAt)
				m.roleList.SetStatus(rp.RoleID, rp.Status, rp.Elapsed)
			}
		}
		return m, tickCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *RunModel) applyEvent(e runner.Event) {
	ApplyEventToProgress(m.progress, e)

	for i := range m.progress {
		rp := m.progress[i]
		if rp.RoleID != e.RoleID {
			continue
		}
		m.roleList.SetStatus(rp.RoleID, rp.Status, rp.Elapsed)
		m.roleList.SetDetail(rp.RoleID, rp.Preview)
		if m.roleList.CursorID() == rp.RoleID {
			if line := EventToLogLine(e); line != nil {
				m.logs.AppendLine(*line)
			}
		}
		break
	}

	done, failed := CountProgress(m.progress)
	m.bar.SetCounts(done, failed)

	// Follow the running role unless the user navigated away.
	if !m.userMoved && e.Type == runner.EventRoleStart {
		m.focusRole(e.RoleID)
	}
}

func (m *RunModel) finish(summary *runner.Summary, err error) {
	m.summary = summary
	m.err = err
	m.status = ComputeRunStatus(summary, err)
	if m.status == RunRunning {
		m.status = RunComplete
	}
	MarkUnstartedSkipped(m.progress)
	skipped := 0
	for _, rp := range m.progress {
		m.roleList.SetStatus(rp.RoleID, rp.Status, rp.Elapsed)
		if rp.Status == components.StatusSkipped {
			skipped++
		}
	}
	done, failed := CountProgress(m.progress)
	m.bar.SetCounts(done, failed)
	m.bar.SetSkipped(skipped)

	if summary != nil && summary.OutputDir != "" {
		if files, err := artifact.NewStore(summary.OutputDir).List(); err == nil {
			m.files = files
		}
	}
}

func (m *RunModel) focusRole(id string) {
	m.roleList.SetCursorByID(id)
	for _, rp := range m.progress {
		if rp.RoleID == id {
			m.logs.SetLines(rp.LogLines)
			return
		}
	}
}

func (m RunModel) handleKey(msg tea.KeyMsg) (RunModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down", "k", "up":
		m.roleList, _ = m.roleList.Update(msg)
		m.userMoved = true
		m.focusRole(m.roleList.CursorID())

	case "enter":
		m.roleList, _ = m.roleList.Update(msg)

	case "f":
		m.userMoved = false
		for _, rp := range m.progress {
			if rp.Status == components.StatusRunning {
				m.focusRole(rp.RoleID)
				break
			}
		}

	case "g", "G", "pgup", "pgdown", "v":
		m.logs, _ = m.logs.Update(msg)

	case "n":
		if m.status != RunRunning {
			return m, func() tea.Msg { return NewRunMsg{} }
		}

	case "q", "esc":
		if m.status == RunRunning {
			if m.cancelFunc != nil {
				m.cancelFunc()
			}
			return m, nil
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m RunModel) selectedIDs() []string {
	ids := make([]string, len(m.progress))
	for i, rp := range m.progress {
		ids[i] = rp.RoleID
	}
	return ids
}

// Status reports the overall run state.
func (m RunModel) Status() RunStatus { return m.status }

// Summary returns the final summary, nil while running.
func (m RunModel) Summary() *runner.Summary { return m.summary }

func (m *RunModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.roleList.SetSize(w-2, m.roleListHeight())
	m.logs.SetSize(w, m.lowerHeight())
	m.bar.SetWidth(w - 4)
}

func (m RunModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	sections := []string{
		m.renderHeader(),
		m.renderSeparator(),
		m.roleList.View(),
		m.renderSeparator(),
	}

	if m.status == RunRunning {
		sections = append(sections, m.renderDetailHeader(), m.logs.View())
	} else {
		sections = append(sections, m.renderPreview(), m.renderSummary())
	}

	sections = append(sections, m.renderSeparator(), m.bar.View(), m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m RunModel) renderHeader() string {
	done, _ := CountProgress(m.progress)
	text := FormatCompletionMessage(m.status, done, len(m.progress))

	var left string
	switch m.status {
	case RunRunning:
		left = m.spinner.View() + " " + lipgloss.NewStyle().Bold(true).Foreground(Secondary).Render(text)
	case RunComplete:
		left = lipgloss.NewStyle().Bold(true).Foreground(Success).Render(text)
	default:
		left = lipgloss.NewStyle().Bold(true).Foreground(Warning).Render(text)
	}

	right := SubtitleStyle.Render(truncateVision(m.vision, 40))
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return fmt.Sprintf(" %s%s%s", left, strings.Repeat(" ", gap), right)
}

func (m RunModel) renderSeparator() string {
	return lipgloss.NewStyle().
		Foreground(Muted).
		Render("  " + strings.Repeat("─", max(m.width-4, 0)))
}

func (m RunModel) renderDetailHeader() string {
	id := m.roleList.CursorID()
	if id == "" {
		return ""
	}
	return LabelStyle.Render("  " + id)
}

func (m RunModel) renderPreview() string {
	id := m.roleList.CursorID()
	for _, rp := range m.progress {
		if rp.RoleID != id {
			continue
		}
		body := PreviewText(rp.Preview, max(m.width-8, 10))
		if body == "" {
			body = SubtitleStyle.Render("no result")
		}
		lines := strings.Split(body, "\n")
		if limit := max(m.lowerHeight()-6, 3); len(lines) > limit {
			lines = append(lines[:limit], "…")
		}
		title := LabelStyle.Render("  " + id)
		if rp.Path != "" {
			title += SubtitleStyle.Render("  " + rp.Path)
		}
		return lipgloss.JoinVertical(lipgloss.Left, title, PreviewStyle.Width(max(m.width-6, 10)).Render(strings.Join(lines, "\n")))
	}
	return ""
}

func (m RunModel) renderSummary() string {
	if m.summary == nil {
		if m.err != nil {
			return ErrorStyle.Render("  " + m.err.Error())
		}
		return ""
	}
	text := FormatSummaryText(*m.summary)
	if files := FormatFileList(m.files); files != "" {
		text += "\n" + files
	}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = "  " + lines[i]
	}
	return lipgloss.NewStyle().Foreground(Text).Render(strings.Join(lines, "\n"))
}

func (m RunModel) renderFooter() string {
	if m.status == RunRunning {
		return HelpStyle.Render("  j/k navigate · enter details · f follow · g/G scroll · v verbose · q cancel")
	}
	return HelpStyle.Render("  j/k navigate · enter details · n new run · q quit")
}

func (m RunModel) roleListHeight() int {
	h := max(m.height*30/100, 3)
	return max(min(h, len(m.progress)), 1)
}

func (m RunModel) lowerHeight() int {
	// header(1) + sep(1) + list + sep(1) + detail header(1) + sep(1) + bar(1) + footer(1)
	return max(m.height-7-m.roleListHeight(), 3)
}

func truncateVision(v string, n int) string {
	v = strings.Join(strings.Fields(v), " ")
	if r := []rune(v); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return v
}
