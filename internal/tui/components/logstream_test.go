package components

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func filledStream(h, n int) LogStreamModel {
	m := NewLogStreamModel()
	m.SetSize(80, h)
	for i := 0; i < n; i++ {
		m.AppendLine(LogLine{Text: fmt.Sprintf("line %02d", i), Type: LogInfo})
	}
	return m
}

func TestLogStream_Defaults(t *testing.T) {
	t.Parallel()
	m := NewLogStreamModel()
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
	if !m.pinned || !m.Verbose() {
		t.Errorf("pinned=%v verbose=%v, want both true", m.pinned, m.Verbose())
	}
}

func TestLogStream_AppendFollowsNewest(t *testing.T) {
	t.Parallel()
	m := filledStream(5, 20)
	if m.top != 15 {
		t.Errorf("top = %d, want 15", m.top)
	}
	view := m.View()
	if !strings.Contains(view, "line 19") || strings.Contains(view, "line 14") {
		t.Errorf("view should show the last five lines:\n%s", view)
	}
}

func TestLogStream_SetLinesRepins(t *testing.T) {
	t.Parallel()
	m := filledStream(5, 20)
	m, _ = m.Update(key("g"))

	m.SetLines([]LogLine{{Text: "a"}, {Text: "b"}})
	if !m.pinned || m.top != 0 || m.Len() != 2 {
		t.Errorf("pinned=%v top=%d len=%d", m.pinned, m.top, m.Len())
	}
}

func TestLogStream_View(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		w, h  int
		lines []LogLine
		want  []string
		empty bool
	}{
		{name: "zero size", empty: true},
		{name: "no lines", w: 80, h: 4, want: []string{"Waiting for events..."}},
		{
			name: "markers",
			w:    80,
			h:    6,
			lines: []LogLine{
				{Text: "started", Type: LogInfo},
				{Text: "done", Type: LogSuccess},
				{Text: "boom", Type: LogError},
				{Text: "kept as text", Type: LogWarning},
			},
			want: []string{"› started", "✓ done", "✗ boom", "! kept as text"},
		},
		{
			name:  "timestamp column",
			w:     80,
			h:     2,
			lines: []LogLine{{Text: "Optimizer processing", Time: time.Date(2026, 1, 1, 9, 5, 7, 0, time.UTC)}},
			want:  []string{"09:05:07 Optimizer processing"},
		},
		{
			name:  "first line of multi-line text",
			w:     80,
			h:     2,
			lines: []LogLine{{Text: "head\ntail", Type: LogError}},
			want:  []string{"head"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewLogStreamModel()
			m.SetSize(tt.w, tt.h)
			for _, l := range tt.lines {
				m.AppendLine(l)
			}
			view := m.View()
			if tt.empty {
				if view != "" {
					t.Errorf("View() = %q, want empty", view)
				}
				return
			}
			for _, w := range tt.want {
				if !strings.Contains(view, w) {
					t.Errorf("View() missing %q:\n%s", w, view)
				}
			}
			if strings.Contains(view, "tail") {
				t.Errorf("View() should drop continuation lines:\n%s", view)
			}
		})
	}
}

func TestLogStream_TruncatesLongLines(t *testing.T) {
	t.Parallel()
	m := NewLogStreamModel()
	m.SetSize(20, 2)
	m.AppendLine(LogLine{Text: strings.Repeat("x", 100)})

	first := strings.Split(m.View(), "\n")[0]
	if !strings.Contains(first, "…") || strings.Count(first, "x") >= 100 {
		t.Errorf("long line not truncated: %q", first)
	}
}

// ============================================================
// Scrolling
// ============================================================

func TestLogStream_ScrollKeys(t *testing.T) {
	t.Parallel()
	m := filledStream(5, 20)

	m, _ = m.Update(key("g"))
	if m.pinned || m.top != 0 {
		t.Fatalf("after g: pinned=%v top=%d, want false/0", m.pinned, m.top)
	}
	if !strings.Contains(m.View(), "↓ 15 more") {
		t.Errorf("scrolled view should show the hidden count:\n%s", m.View())
	}

	// New lines do not move an unpinned view.
	m.AppendLine(LogLine{Text: "late"})
	if m.top != 0 {
		t.Errorf("top = %d after append while unpinned, want 0", m.top)
	}

	m, _ = m.Update(key("G"))
	if !m.pinned || m.top != 16 {
		t.Errorf("after G: pinned=%v top=%d, want true/16", m.pinned, m.top)
	}
}

func TestLogStream_PageKeys(t *testing.T) {
	t.Parallel()
	m := filledStream(5, 20)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	if m.pinned || m.top != 10 {
		t.Errorf("after pgup: pinned=%v top=%d, want false/10", m.pinned, m.top)
	}
	for i := 0; i < 3; i++ {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	}
	if m.top != 0 {
		t.Errorf("pgup past the start: top=%d, want 0", m.top)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	if m.pinned || m.top != 5 {
		t.Errorf("after pgdown: pinned=%v top=%d, want false/5", m.pinned, m.top)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	if !m.pinned || m.top != 15 {
		t.Errorf("pgdown to the end: pinned=%v top=%d, want true/15", m.pinned, m.top)
	}
}

func TestLogStream_VerboseToggle(t *testing.T) {
	t.Parallel()
	m := NewLogStreamModel()
	m.SetSize(80, 5)
	m.AppendLine(LogLine{Text: "🤖 Growth processing...", Type: LogInfo})
	m.AppendLine(LogLine{Text: "Saved workforce/growth.json", Type: LogDetail})
	m.AppendLine(LogLine{Text: "✅ Growth complete", Type: LogSuccess})

	if !strings.Contains(m.View(), "Saved workforce/growth.json") {
		t.Error("detail line hidden while verbose")
	}
	m, _ = m.Update(key("v"))
	if m.Verbose() {
		t.Fatal("v should turn verbose off")
	}
	view := m.View()
	if strings.Contains(view, "Saved workforce/growth.json") {
		t.Errorf("detail line shown while quiet:\n%s", view)
	}
	if !strings.Contains(view, "Growth complete") {
		t.Errorf("non-detail line missing:\n%s", view)
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
}
