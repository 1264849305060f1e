package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/manasm11/workforce/internal/artifact"
	"github.com/manasm11/workforce/internal/config"
	"github.com/manasm11/workforce/internal/history"
	"github.com/manasm11/workforce/internal/roles"
	"github.com/manasm11/workforce/internal/runner"
)

func mockRunner(t *testing.T, rec runner.Recorder) (*runner.Runner, roles.Crew, string) {
	t.Helper()
	crew, err := roles.Builtin("workforce")
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	dir := filepath.Join(t.TempDir(), "workforce")
	cfg := runner.Config{
		Registry:      crew.Registry,
		Store:         artifact.NewStore(dir),
		Mode:          runner.ModeMock,
		ContextPolicy: runner.PolicyPrevious,
	}
	if rec != nil {
		cfg.Recorder = rec
	}
	return runner.NewRunner(cfg), crew, dir
}

// ============================================================
// runHeadless
// ============================================================

func TestRunHeadless_Mock(t *testing.T) {
	t.Parallel()
	r, crew, dir := mockRunner(t, nil)

	var out bytes.Buffer
	code := runHeadless(context.Background(), &out, r, "A recycling rewards app", crew.Registry.IDs())
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\n%s", code, out.String())
	}
	got := out.String()
	for _, want := range []string{
		"Optimizer → Growth → Architect → Finance",
		"✅ Optimizer complete",
		"✅ Finance complete",
		"🏁 Workforce completed",
		"Results are in the " + dir + "/ folder.",
		"Files: architect.json, finance.json, growth.json, optimizer.json",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunHeadless_EmptyVisionRefused(t *testing.T) {
	t.Parallel()
	r, _, _ := mockRunner(t, nil)

	var out bytes.Buffer
	if code := runHeadless(context.Background(), &out, r, "  ", []string{"Optimizer"}); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out.String(), "vision is empty") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunHeadless_Cancelled(t *testing.T) {
	t.Parallel()
	r, _, _ := mockRunner(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	if code := runHeadless(ctx, &out, r, "app", []string{"Optimizer", "Growth"}); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(out.String(), "Run cancelled.") {
		t.Errorf("output = %q", out.String())
	}
}

// ============================================================
// printHistory
// ============================================================

func TestPrintHistory(t *testing.T) {
	t.Parallel()
	store, err := history.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	var out bytes.Buffer
	if err := printHistory(context.Background(), &out, store, 5); err != nil {
		t.Fatalf("printHistory: %v", err)
	}
	if !strings.Contains(out.String(), "No runs recorded yet.") {
		t.Errorf("empty ledger output = %q", out.String())
	}

	r, _, _ := mockRunner(t, store)
	if code := runHeadless(context.Background(), &bytes.Buffer{}, r, "A recycling rewards app", []string{"Optimizer", "Growth"}); code != 0 {
		t.Fatalf("runHeadless exit = %d", code)
	}

	out.Reset()
	if err := printHistory(context.Background(), &out, store, 5); err != nil {
		t.Fatalf("printHistory: %v", err)
	}
	got := out.String()
	runs, err := store.ListRuns(context.Background(), 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns = %v, %v", runs, err)
	}
	for _, want := range []string{
		"STARTED",
		"mock",
		"Optimizer,Growth",
		"A recycling rewards app",
		"Latest run " + runs[0].ID + ":",
		"✅ Optimizer complete",
		"✅ Growth complete",
		"optimizer.json",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("history missing %q:\n%s", want, got)
		}
	}
}

// ============================================================
// Flags
// ============================================================

func TestFlagsApply(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Run.Crew = "workforce"
	cfg.Run.RolesFile = "crew.yaml"
	cfg.Run.Mode = "mock"

	flags{crew: "builder", roles: " Optimizer, Coder ,,", mode: "REAL", model: "gemini-2.5-pro", outputDir: "out"}.apply(cfg)

	if cfg.Run.Crew != "builder" || cfg.Run.RolesFile != "" {
		t.Errorf("crew = %q, roles file = %q", cfg.Run.Crew, cfg.Run.RolesFile)
	}
	if len(cfg.Run.Roles) != 2 || cfg.Run.Roles[0] != "Optimizer" || cfg.Run.Roles[1] != "Coder" {
		t.Errorf("roles = %q", cfg.Run.Roles)
	}
	if cfg.Run.Mode != "real" {
		t.Errorf("mode = %q, want %q", cfg.Run.Mode, "real")
	}
	if cfg.Run.Model != "gemini-2.5-pro" || cfg.Output.Dir != "out" {
		t.Errorf("model = %q, out = %q", cfg.Run.Model, cfg.Output.Dir)
	}
}

func TestSelectedRoles(t *testing.T) {
	t.Parallel()
	crew, _ := roles.Builtin("advisors")
	cfg := &config.Config{}
	if got := selectedRoles(cfg, crew); strings.Join(got, ",") != "Growth,Architect,Finance" {
		t.Errorf("selectedRoles() = %v", got)
	}
	cfg.Run.Roles = []string{"Finance"}
	if got := selectedRoles(cfg, crew); len(got) != 1 || got[0] != "Finance" {
		t.Errorf("selectedRoles() = %v", got)
	}
}
