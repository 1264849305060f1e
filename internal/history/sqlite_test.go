package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/manasm11/workforce/internal/artifact"
	"github.com/manasm11/workforce/internal/roles"
	"github.com/manasm11/workforce/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordsRunLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.StartRun(ctx, runner.RunInfo{
		ID: "run-1", Vision: "recycling app", Roles: []string{"Optimizer", "Growth"},
		Mode: runner.ModeReal, Model: "gemini-2.0-flash", Policy: runner.PolicyPrevious, StartedAt: started,
	}))
	require.NoError(t, s.RecordOutcome(ctx, "run-1", runner.Outcome{
		RoleID: "Optimizer", Status: runner.StatusComplete, Result: runner.Structured(map[string]any{}),
		Path: "workforce/optimizer.json", Duration: 1500 * time.Millisecond,
	}))
	require.NoError(t, s.RecordOutcome(ctx, "run-1", runner.Outcome{
		RoleID: "Growth", Status: runner.StatusFailed, Result: runner.Absent(),
		Err: &runner.RoleError{RoleID: "Growth", Kind: runner.KindExternalCall, Err: errors.New("quota")},
	}))
	require.NoError(t, s.FinishRun(ctx, runner.Summary{RunID: "run-1", Completed: 1, Failed: 1, OutputDir: "workforce"}))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	r := runs[0]
	assert.Equal(t, "recycling app", r.Vision)
	assert.Equal(t, []string{"Optimizer", "Growth"}, r.Roles)
	assert.Equal(t, "real", r.Mode)
	assert.Equal(t, "previous", r.Policy)
	assert.True(t, r.StartedAt.Equal(started), "started_at = %v", r.StartedAt)
	assert.False(t, r.FinishedAt.IsZero())
	assert.Equal(t, 1, r.Completed)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, "workforce", r.OutputDir)

	outcomes, err := s.Outcomes(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "Optimizer", outcomes[0].RoleID)
	assert.Equal(t, "structured", outcomes[0].ResultKind)
	assert.Equal(t, 1500*time.Millisecond, outcomes[0].Duration)
	assert.Equal(t, "failed", outcomes[1].Status)
	assert.Equal(t, "absent", outcomes[1].ResultKind)
	assert.Contains(t, outcomes[1].Error, "quota")
}

func TestStore_ListRunsNewestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.StartRun(ctx, runner.RunInfo{ID: id, Vision: id, Mode: runner.ModeMock, StartedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.True(t, runs[0].FinishedAt.IsZero(), "unfinished run")
}

func TestStore_FinishUnknownRun(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	err := s.FinishRun(context.Background(), runner.Summary{RunID: "ghost"})
	assert.Error(t, err)
}

func TestOpen_CreatesParentDir(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), ".workforce", "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening keeps the schema.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.ListRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestNew_NilDB(t *testing.T) {
	t.Parallel()
	_, err := New(nil)
	assert.Error(t, err)
}

func TestStore_AsRunnerRecorder(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	crew, err := roles.Builtin("workforce")
	require.NoError(t, err)

	r := runner.NewRunner(runner.Config{
		Registry: crew.Registry,
		Store:    artifact.NewStore(t.TempDir()),
		Recorder: s,
	})
	run, err := r.Start("A recycling rewards app", []string{"Optimizer", "Growth", "Finance"})
	require.NoError(t, err)
	for range run.Steps(context.Background()) {
	}

	runs, err := s.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, 3, runs[0].Completed)

	outcomes, err := s.Outcomes(context.Background(), run.ID)
	require.NoError(t, err)
	var ids []string
	for _, o := range outcomes {
		ids = append(ids, o.RoleID)
	}
	assert.Equal(t, []string{"Optimizer", "Growth", "Finance"}, ids)
}
