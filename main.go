package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/manasm11/workforce/internal/artifact"
	"github.com/manasm11/workforce/internal/config"
	"github.com/manasm11/workforce/internal/history"
	"github.com/manasm11/workforce/internal/llm"
	"github.com/manasm11/workforce/internal/preflight"
	"github.com/manasm11/workforce/internal/roles"
	"github.com/manasm11/workforce/internal/runner"
	"github.com/manasm11/workforce/internal/telemetry"
	"github.com/manasm11/workforce/internal/tui"
)

var version = "dev"

type flags struct {
	configPath string
	crew       string
	rolesFile  string
	roles      string
	mode       string
	model      string
	policy     string
	outputDir  string
	headless   bool
	vision     string
	history    int
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "config file (default "+config.DefaultPath()+" when present)")
	flag.StringVar(&f.crew, "crew", "", "built-in crew: "+strings.Join(roles.BuiltinNames(), ", "))
	flag.StringVar(&f.rolesFile, "roles-file", "", "YAML role table to use instead of a built-in crew")
	flag.StringVar(&f.roles, "roles", "", "comma-separated role ids to run, in order")
	flag.StringVar(&f.mode, "mode", "", "real or mock")
	flag.StringVar(&f.model, "model", "", "model name, e.g. "+llm.DefaultModel)
	flag.StringVar(&f.policy, "policy", "", "context policy: vision, previous or cumulative")
	flag.StringVar(&f.outputDir, "out", "", "output folder")
	flag.BoolVar(&f.headless, "headless", false, "run without the terminal UI")
	flag.StringVar(&f.vision, "vision", "", "project vision (headless mode)")
	flag.IntVar(&f.history, "history", 0, "list the N most recent runs and exit")
	flag.Parse()
	return f
}

func (f flags) apply(cfg *config.Config) {
	if f.crew != "" {
		cfg.Run.Crew = f.crew
		cfg.Run.RolesFile = ""
	}
	if f.rolesFile != "" {
		cfg.Run.RolesFile = f.rolesFile
	}
	if f.roles != "" {
		cfg.Run.Roles = splitList(f.roles)
	}
	if f.mode != "" {
		cfg.Run.Mode = strings.ToLower(f.mode)
	}
	if f.model != "" {
		cfg.Run.Model = f.model
	}
	if f.policy != "" {
		cfg.Run.Policy = f.policy
	}
	if f.outputDir != "" {
		cfg.Output.Dir = f.outputDir
	}
}

func main() {
	os.Exit(run(parseFlags()))
}

func run(f flags) int {
	// 1. Load .env, config file, environment, then flags
	if err := config.LoadDotenv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fail("Error loading config: %v", err)
	}
	f.apply(cfg)
	if problems := cfg.Validate(); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "  ✗ %s\n", p)
		}
		return 1
	}

	// 2. Logging goes to a file; the terminal belongs to the UI
	logFile, err := telemetry.OpenLogFile(cfg.Log.File)
	if err != nil {
		return fail("Error opening log file: %v", err)
	}
	defer logFile.Close()
	logger := telemetry.ConfigureSlog(logFile, cfg.Log.Level, cfg.Log.Format)

	shutdown, err := telemetry.InitTracing("workforce", version, telemetry.TracingConfig{
		Exporter: cfg.Telemetry.Exporter,
		File:     cfg.Telemetry.File,
	})
	if err != nil {
		return fail("Error starting tracing: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	// 3. Run history
	var store *history.Store
	if cfg.History.Enabled || f.history > 0 {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return fail("Error opening history: %v", err)
		}
		defer store.Close()
	}
	if f.history > 0 {
		if err := printHistory(context.Background(), os.Stdout, store, f.history); err != nil {
			return fail("Error reading history: %v", err)
		}
		return 0
	}

	// 4. Preflight checks
	results := preflight.RunAll(preflight.Options{
		APIKey:      cfg.Gemini.APIKey,
		Placeholder: config.PlaceholderKey,
		RealMode:    cfg.Run.Mode == string(runner.ModeReal),
		OutputDir:   cfg.Output.Dir,
		StateDir:    config.Dir,
	})
	for _, r := range results {
		if r.Found {
			fmt.Printf("  ✓ %s (%s)\n", r.Name, r.Detail)
		} else {
			fmt.Printf("  ✗ %s: %s\n", r.Name, r.Error)
		}
	}
	if preflight.Blocking(results) {
		fmt.Fprintln(os.Stderr, "\nFix the checks above or run with -mode mock.")
		return 1
	}
	fmt.Println()

	// 5. Crew and generation client
	crew, err := loadCrew(cfg)
	if err != nil {
		return fail("Error loading roles: %v", err)
	}
	policy, err := runner.ParseContextPolicy(firstNonEmpty(cfg.Run.Policy, crew.Policy))
	if err != nil {
		return fail("Error: %v", err)
	}
	failure, err := runner.ParseFailurePolicy(cfg.Run.FailurePolicy)
	if err != nil {
		return fail("Error: %v", err)
	}

	var gen llm.Generator
	if cfg.HasCredential() {
		client, err := llm.NewGeminiClient(context.Background(), llm.GeminiOptions{
			APIKey:     cfg.Gemini.APIKey,
			APIVersion: cfg.Gemini.APIVersion,
		})
		if err != nil {
			logger.Warn("gemini client unavailable", "error", err)
		} else {
			gen = client
		}
	}

	newRunner := func(mode runner.Mode, model string, onEvent runner.EventHandler) *runner.Runner {
		rc := runner.Config{
			Registry:      crew.Registry,
			Generator:     gen,
			Store:         artifact.NewStore(cfg.Output.Dir),
			Mode:          mode,
			Model:         model,
			Temperature:   cfg.Run.Temperature,
			Timeout:       cfg.Run.Timeout,
			MockDelay:     cfg.Run.MockDelay,
			ContextPolicy: policy,
			FailurePolicy: failure,
			HasCredential: gen != nil,
			OnEvent:       onEvent,
			Logger:        logger,
		}
		if store != nil {
			rc.Recorder = store
		}
		return runner.NewRunner(rc)
	}

	mode, err := runner.ParseMode(cfg.Run.Mode)
	if err != nil {
		return fail("Error: %v", err)
	}
	logger.Info("workforce starting", "version", version, "crew", crew.Name, "mode", mode, "model", cfg.Run.Model, "policy", policy)

	// 6. Headless or interactive
	if f.headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runHeadless(ctx, os.Stdout, newRunner(mode, cfg.Run.Model, nil), f.vision, selectedRoles(cfg, crew))
	}

	app := tui.NewAppModel(tui.Options{
		Crew:          crew,
		Selected:      cfg.Run.Roles,
		Mode:          mode,
		Model:         cfg.Run.Model,
		HasCredential: gen != nil,
		NewRunner:     newRunner,
	})
	p := tea.NewProgram(&app, tea.WithAltScreen())
	app.SetProgram(p)
	if _, err := p.Run(); err != nil {
		logger.Error("ui exited with error", "error", err)
		return fail("Error running application: %v", err)
	}
	return 0
}

func loadCrew(cfg *config.Config) (roles.Crew, error) {
	if cfg.Run.RolesFile != "" {
		return roles.LoadFile(cfg.Run.RolesFile)
	}
	return roles.Builtin(cfg.Run.Crew)
}

// selectedRoles is the configured selection, or the whole crew in registry
// order.
func selectedRoles(cfg *config.Config, crew roles.Crew) []string {
	if len(cfg.Run.Roles) > 0 {
		return cfg.Run.Roles
	}
	return crew.Registry.IDs()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func fail(format string, args ...any) int {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return 1
}
