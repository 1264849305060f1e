package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/manasm11/workforce/internal/artifact"
	"github.com/manasm11/workforce/internal/history"
	"github.com/manasm11/workforce/internal/runner"
	"github.com/manasm11/workforce/internal/tui"
)

// runHeadless drives one run on plain stdout and returns the exit code:
// 0 when every role completed, 1 when the run was refused, 2 otherwise.
func runHeadless(ctx context.Context, w io.Writer, r *runner.Runner, vision string, selected []string) int {
	run, err := r.Start(vision, selected)
	if err != nil {
		fmt.Fprintf(w, "  ✗ %v\n", err)
		return 1
	}

	fmt.Fprintf(w, "🚀 %d roles: %s\n", len(selected), strings.Join(run.Roles(), " → "))
	for o := range run.Steps(ctx) {
		switch o.Status {
		case runner.StatusComplete:
			line := fmt.Sprintf("  ✅ %s complete (%s)", o.RoleID, o.Duration.Round(time.Millisecond))
			if o.Path != "" {
				line += " → " + o.Path
			}
			fmt.Fprintln(w, line)
		default:
			fmt.Fprintf(w, "  ❌ %s error: %v\n", o.RoleID, cause(o.Err))
		}
	}

	summary := run.Summary()
	fmt.Fprintln(w)
	if ctx.Err() != nil {
		fmt.Fprintln(w, "Run cancelled.")
	} else if summary.Failed == 0 && summary.Skipped == 0 {
		fmt.Fprintln(w, "🏁 Workforce completed")
	}
	fmt.Fprintln(w, tui.FormatSummaryText(summary))
	if files, err := artifact.NewStore(summary.OutputDir).List(); err == nil && len(files) > 0 {
		fmt.Fprintln(w, tui.FormatFileList(files))
	}

	if summary.Failed > 0 || summary.Skipped > 0 || ctx.Err() != nil {
		return 2
	}
	return 0
}

func cause(err error) error {
	var re *runner.RoleError
	if errors.As(err, &re) && re.Err != nil {
		return re.Err
	}
	return err
}

// printHistory lists the most recent runs from the ledger, then the role
// outcomes of the newest one.
func printHistory(ctx context.Context, w io.Writer, store *history.Store, limit int) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tMODE\tMODEL\tROLES\tDONE\tFAILED\tSKIPPED\tVISION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Mode,
			r.Model,
			strings.Join(r.Roles, ","),
			r.Completed,
			r.Failed,
			r.Skipped,
			clip(r.Vision, 40),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	latest := runs[0]
	outcomes, err := store.Outcomes(ctx, latest.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nLatest run %s:\n", latest.ID)
	for _, o := range outcomes {
		line := fmt.Sprintf("  %s %s %s (%s)", statusMark(o.Status), o.RoleID, o.Status, o.Duration.Round(time.Millisecond))
		if o.Path != "" {
			line += " → " + o.Path
		}
		if o.Error != "" {
			line += ": " + o.Error
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func statusMark(status string) string {
	if status == string(runner.StatusComplete) {
		return "✅"
	}
	return "❌"
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
