package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/manasm11/workforce/internal/roles"
	"github.com/manasm11/workforce/internal/runner"
	"github.com/manasm11/workforce/internal/tui/components"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

type factoryCall struct {
	mode  runner.Mode
	model string
}

func newTestApp(t *testing.T, hasCred bool) (*AppModel, *[]factoryCall) {
	t.Helper()
	crew, err := roles.Builtin("workforce")
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	var calls []factoryCall
	app := NewAppModel(Options{
		Crew:          crew,
		Mode:          runner.ModeMock,
		Model:         "gemini-2.0-flash",
		HasCredential: hasCred,
		NewRunner: func(mode runner.Mode, model string, onEvent runner.EventHandler) *runner.Runner {
			calls = append(calls, factoryCall{mode: mode, model: model})
			return runner.NewRunner(runner.Config{Registry: crew.Registry, Mode: mode, Model: model, OnEvent: onEvent})
		},
	})
	m := &app
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, &calls
}

// send delivers msg to the app and returns the resulting command.
func send(m *AppModel, msg tea.Msg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

// ============================================================
// Form
// ============================================================

func TestForm_EmptyVisionRejected(t *testing.T) {
	t.Parallel()
	m, calls := newTestApp(t, false)

	cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Errorf("ctrl+s with empty vision should not emit a command")
	}
	if m.form.Err() != "Please enter a vision." {
		t.Errorf("Err() = %q, want %q", m.form.Err(), "Please enter a vision.")
	}
	if m.Phase() != PhaseForm {
		t.Errorf("Phase() = %d, want PhaseForm", m.Phase())
	}
	if len(*calls) != 0 {
		t.Errorf("runner factory called %d times, want 0", len(*calls))
	}
}

func TestForm_RealModeWithoutKeyRejected(t *testing.T) {
	t.Parallel()
	m, _ := newTestApp(t, false)

	send(m, runes("Eco app"))
	send(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.form.Mode() != runner.ModeReal {
		t.Fatalf("Mode() = %q, want real", m.form.Mode())
	}
	if cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS}); cmd != nil {
		t.Error("submit without a key in real mode should be refused")
	}
	if m.form.Err() == "" {
		t.Error("Err() is empty, want the missing key message")
	}

	send(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.form.Err() != "" {
		t.Errorf("Err() = %q after toggling back, want empty", m.form.Err())
	}
}

func TestForm_ModelCycles(t *testing.T) {
	t.Parallel()
	m, _ := newTestApp(t, true)
	before := m.form.Model()
	send(m, tea.KeyMsg{Type: tea.KeyCtrlO})
	if m.form.Model() == before {
		t.Errorf("Model() unchanged after ctrl+o: %q", before)
	}
}

func TestForm_TabMovesFocusToRoles(t *testing.T) {
	t.Parallel()
	m, _ := newTestApp(t, false)

	send(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.form.focus != FieldRoles {
		t.Fatalf("focus = %d, want FieldRoles", m.form.focus)
	}
	// Space on the first row unchecks Optimizer.
	send(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	ids := m.form.roles.CheckedIDs()
	for _, id := range ids {
		if id == "Optimizer" {
			t.Errorf("CheckedIDs() = %v, Optimizer should be unchecked", ids)
		}
	}
	if len(ids) != 3 {
		t.Errorf("CheckedIDs() = %v, want 3 roles", ids)
	}
}

// ============================================================
// Form → Run → Form
// ============================================================

func TestApp_SubmitStartsRun(t *testing.T) {
	t.Parallel()
	m, calls := newTestApp(t, false)

	send(m, runes("A recycling rewards app"))
	cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatalf("ctrl+s returned no command; Err() = %q", m.form.Err())
	}
	start, ok := cmd().(StartRunMsg)
	if !ok {
		t.Fatalf("command produced %T, want StartRunMsg", cmd())
	}
	if start.Vision != "A recycling rewards app" {
		t.Errorf("Vision = %q", start.Vision)
	}
	if len(start.Selected) != 4 || start.Selected[0] != "Optimizer" {
		t.Errorf("Selected = %v", start.Selected)
	}

	send(m, start)
	if m.Phase() != PhaseRun {
		t.Fatalf("Phase() = %d, want PhaseRun", m.Phase())
	}
	if len(*calls) != 1 || (*calls)[0].mode != runner.ModeMock || (*calls)[0].model != "gemini-2.0-flash" {
		t.Errorf("factory calls = %+v", *calls)
	}
	if m.run.Status() != RunRunning {
		t.Errorf("Status() = %d, want RunRunning", m.run.Status())
	}
}

func TestApp_RunEventsAndCompletion(t *testing.T) {
	t.Parallel()
	m, _ := newTestApp(t, false)
	send(m, StartRunMsg{Vision: "app", Selected: []string{"Optimizer", "Growth"}, Mode: runner.ModeMock, Model: "gemini-2.0-flash"})

	send(m, RunEventMsg{Event: runner.Event{RoleID: "Optimizer", Type: runner.EventRoleStart}})
	if got := m.run.progress[0].Status; got != components.StatusRunning {
		t.Errorf("Optimizer status = %v, want running", got)
	}
	if m.run.roleList.CursorID() != "Optimizer" {
		t.Errorf("cursor = %q, want Optimizer", m.run.roleList.CursorID())
	}
	if m.run.logs.Len() != 1 {
		t.Errorf("log lines = %d, want 1", m.run.logs.Len())
	}

	send(m, RunEventMsg{Event: runner.Event{RoleID: "Optimizer", Type: runner.EventRoleDone, Detail: `{"project_name":"Eco-Quest"}`}})
	send(m, RunDoneMsg{Summary: &runner.Summary{Completed: 1, Skipped: 1, OutputDir: "workforce"}})

	if m.run.Status() != RunPartial {
		t.Errorf("Status() = %d, want RunPartial", m.run.Status())
	}
	if got := m.run.progress[1].Status; got != components.StatusSkipped {
		t.Errorf("Growth status = %v, want skipped", got)
	}
	if m.View() == "" {
		t.Error("View() is empty after completion")
	}

	cmd := send(m, runes("n"))
	if cmd == nil {
		t.Fatal("n after completion returned no command")
	}
	send(m, cmd())
	if m.Phase() != PhaseForm {
		t.Fatalf("Phase() = %d, want PhaseForm", m.Phase())
	}
	ids := m.form.roles.CheckedIDs()
	if len(ids) != 2 || ids[0] != "Optimizer" || ids[1] != "Growth" {
		t.Errorf("new form keeps selection: CheckedIDs() = %v", ids)
	}
}

func TestApp_CompletionListsArtifacts(t *testing.T) {
	t.Parallel()
	m, _ := newTestApp(t, false)
	send(m, StartRunMsg{Vision: "app", Selected: []string{"Optimizer"}, Mode: runner.ModeMock, Model: "gemini-2.0-flash"})

	dir := t.TempDir()
	for _, name := range []string{"optimizer.json", "notes.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	send(m, RunEventMsg{Event: runner.Event{RoleID: "Optimizer", Type: runner.EventRoleStart}})
	send(m, RunEventMsg{Event: runner.Event{RoleID: "Optimizer", Type: runner.EventRoleDone, Detail: "{}"}})
	send(m, RunDoneMsg{Summary: &runner.Summary{Completed: 1, OutputDir: dir}})

	if got := strings.Join(m.run.files, ","); got != "notes.md,optimizer.json" {
		t.Errorf("files = %q, want %q", got, "notes.md,optimizer.json")
	}
	if !strings.Contains(m.run.renderSummary(), "Files: notes.md, optimizer.json") {
		t.Errorf("summary missing file list:\n%s", m.run.renderSummary())
	}
}

func TestApp_QuitWhileRunningCancels(t *testing.T) {
	t.Parallel()
	m, _ := newTestApp(t, false)
	send(m, StartRunMsg{Vision: "app", Selected: []string{"Optimizer"}, Mode: runner.ModeMock})

	cancelled := false
	send(m, runCancelFuncMsg{cancel: func() { cancelled = true }})

	if cmd := send(m, runes("q")); cmd != nil {
		t.Error("q while running should cancel, not quit")
	}
	if !cancelled {
		t.Error("q while running did not call cancel")
	}

	send(m, RunDoneMsg{Summary: &runner.Summary{Skipped: 1}, Err: nil})
	if cmd := send(m, runes("q")); cmd == nil {
		t.Error("q after the run should quit")
	}
}

func TestApp_StartWithoutFactoryStaysOnForm(t *testing.T) {
	t.Parallel()
	crew, _ := roles.Builtin("advisors")
	app := NewAppModel(Options{Crew: crew})
	m := &app
	send(m, StartRunMsg{Vision: "app", Selected: []string{"Growth"}})
	if m.Phase() != PhaseForm {
		t.Errorf("Phase() = %d, want PhaseForm", m.Phase())
	}
}
