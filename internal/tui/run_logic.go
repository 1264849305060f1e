package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/manasm11/workforce/internal/roles"
	"github.com/manasm11/workforce/internal/runner"
	"github.com/manasm11/workforce/internal/tui/components"
	"github.com/muesli/reflow/wordwrap"
)

// RunStatus represents the overall state of the run screen.
type RunStatus int

const (
	RunRunning   RunStatus = iota
	RunComplete            // every role completed
	RunPartial             // finished with failed or skipped roles
	RunCancelled           // user cancelled mid-run
	RunRejected            // run refused to start
)

// RoleProgress tracks live progress for one selected role.
type RoleProgress struct {
	RoleID    string
	Kind      string
	Status    components.RoleStatus
	StartedAt *time.Time
	Elapsed   time.Duration
	Preview   string // result payload or error text
	Path      string
	LogLines  []components.LogLine
}

const maxLogLines = 100

// BuildRoleProgress creates the progress list in execution order.
func BuildRoleProgress(reg *roles.Registry, ids []string) []RoleProgress {
	progress := make([]RoleProgress, 0, len(ids))
	for _, id := range ids {
		rp := RoleProgress{RoleID: id, Status: components.StatusPending}
		if reg != nil {
			if r, err := reg.Lookup(id); err == nil {
				rp.Kind = r.Kind.String()
			}
		}
		progress = append(progress, rp)
	}
	return progress
}

// ToRoleItems converts progress rows for the locked role list.
func ToRoleItems(progress []RoleProgress) []components.RoleItem {
	items := make([]components.RoleItem, len(progress))
	for i, rp := range progress {
		items[i] = components.RoleItem{
			ID:      rp.RoleID,
			Kind:    rp.Kind,
			Checked: true,
			Status:  rp.Status,
			Elapsed: rp.Elapsed,
			Detail:  rp.Preview,
		}
	}
	return items
}

// EventToLogLine converts a runner.Event into a displayable line. Run-level
// events return nil.
func EventToLogLine(event runner.Event) *components.LogLine {
	ts := time.Now()
	if event.Timestamp > 0 {
		ts = time.UnixMilli(event.Timestamp)
	}

	switch event.Type {
	case runner.EventRoleStart:
		return &components.LogLine{Text: "🤖 " + event.RoleID + " processing...", Type: components.LogInfo, Time: ts}
	case runner.EventRoleRequest:
		return &components.LogLine{Text: "Calling " + event.Message, Type: components.LogDetail, Time: ts}
	case runner.EventDecodeFallback:
		return &components.LogLine{Text: event.RoleID + ": " + event.Message, Type: components.LogWarning, Time: ts}
	case runner.EventArtifactWritten:
		return &components.LogLine{Text: "Saved " + event.Message, Type: components.LogDetail, Time: ts}
	case runner.EventRoleDone:
		return &components.LogLine{Text: "✅ " + event.RoleID + " complete", Type: components.LogSuccess, Time: ts}
	case runner.EventRoleFailed:
		text := "❌ " + event.RoleID + " error"
		if event.Detail != "" {
			text += ": " + event.Detail
		}
		return &components.LogLine{Text: text, Type: components.LogError, Time: ts}
	default:
		return nil
	}
}

// ApplyEventToProgress updates the matching row from a runner event.
func ApplyEventToProgress(progress []RoleProgress, event runner.Event) {
	var rp *RoleProgress
	for i := range progress {
		if progress[i].RoleID == event.RoleID {
			rp = &progress[i]
			break
		}
	}
	if rp == nil {
		return
	}

	now := time.Now()
	switch event.Type {
	case runner.EventRoleStart:
		rp.Status = components.StatusRunning
		rp.StartedAt = &now
	case runner.EventArtifactWritten:
		rp.Path = event.Message
	case runner.EventRoleDone:
		rp.Status = components.StatusComplete
		rp.Preview = event.Detail
	case runner.EventRoleFailed:
		rp.Status = components.StatusFailed
		rp.Preview = event.Detail
	}
	if rp.StartedAt != nil && (event.Type == runner.EventRoleDone || event.Type == runner.EventRoleFailed) {
		rp.Elapsed = now.Sub(*rp.StartedAt)
	}

	if line := EventToLogLine(event); line != nil {
		rp.LogLines = append(rp.LogLines, *line)
		if len(rp.LogLines) > maxLogLines {
			rp.LogLines = rp.LogLines[len(rp.LogLines)-maxLogLines:]
		}
	}
}

// MarkUnstartedSkipped flags rows that never started once the run is over.
func MarkUnstartedSkipped(progress []RoleProgress) {
	for i := range progress {
		if progress[i].Status == components.StatusPending {
			progress[i].Status = components.StatusSkipped
		}
	}
}

// CountProgress returns completed and failed rows.
func CountProgress(progress []RoleProgress) (done, failed int) {
	for _, rp := range progress {
		switch rp.Status {
		case components.StatusComplete:
			done++
		case components.StatusFailed:
			failed++
		}
	}
	return done, failed
}

// ComputeRunStatus derives the final status from the runner's result.
func ComputeRunStatus(summary *runner.Summary, err error) RunStatus {
	switch {
	case errors.Is(err, context.Canceled):
		return RunCancelled
	case err != nil && summary == nil:
		return RunRejected
	case summary == nil:
		return RunRunning
	case summary.Failed > 0 || summary.Skipped > 0:
		return RunPartial
	default:
		return RunComplete
	}
}

// FormatElapsed formats a duration as M:SS or H:MM:SS.
func FormatElapsed(d time.Duration) string {
	total := int(d.Seconds())
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatSummaryText produces the human-readable summary block.
func FormatSummaryText(summary runner.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d roles completed in %s", summary.Completed, FormatElapsed(summary.Duration))
	for _, o := range summary.Outcomes {
		if o.Status == runner.StatusFailed && o.Err != nil {
			fmt.Fprintf(&b, "\n❌ %s: %v", o.RoleID, unwrapRoleError(o.Err))
		}
	}
	if summary.Skipped > 0 {
		fmt.Fprintf(&b, "\n%d skipped", summary.Skipped)
	}
	if summary.OutputDir != "" {
		fmt.Fprintf(&b, "\nResults are in the %s/ folder.", strings.TrimSuffix(summary.OutputDir, "/"))
	}
	return b.String()
}

// FormatFileList names the artifacts found in the output folder.
func FormatFileList(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return "Files: " + strings.Join(names, ", ")
}

func unwrapRoleError(err error) error {
	var re *runner.RoleError
	if errors.As(err, &re) && re.Err != nil {
		return re.Err
	}
	return err
}

// FormatCompletionMessage returns the header message for the run screen.
func FormatCompletionMessage(status RunStatus, done, total int) string {
	switch status {
	case RunComplete:
		return "🏁 Workforce completed"
	case RunPartial:
		return fmt.Sprintf("Workforce finished · %d/%d roles complete", done, total)
	case RunCancelled:
		return fmt.Sprintf("Run cancelled · %d/%d roles complete", done, total)
	case RunRejected:
		return "Run could not start"
	default:
		return fmt.Sprintf("Running · %d/%d roles done", done, total)
	}
}

// PreviewText renders a result for display: JSON is re-indented, anything
// else is word-wrapped as is.
func PreviewText(payload string, width int) string {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return ""
	}
	if json.Valid([]byte(payload)) && (payload[0] == '{' || payload[0] == '[') {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(payload), "", "  "); err == nil {
			payload = buf.String()
		}
	}
	if width < 10 {
		width = 10
	}
	return wordwrap.String(payload, width)
}
