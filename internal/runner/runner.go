package runner

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/manasm11/workforce/internal/artifact"
	"github.com/manasm11/workforce/internal/llm"
	"github.com/manasm11/workforce/internal/roles"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/manasm11/workforce/internal/runner"

// Runner executes selected roles one after another.
type Runner struct {
	cfg    Config
	tracer trace.Tracer
	log    *slog.Logger
}

// NewRunner creates a runner. Zero-value policies fall back to PolicyVision,
// FailContinue and ModeMock.
func NewRunner(cfg Config) *Runner {
	if cfg.Mode == "" {
		cfg.Mode = ModeMock
	}
	if cfg.ContextPolicy == "" {
		cfg.ContextPolicy = PolicyVision
	}
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = FailContinue
	}
	if cfg.Store == nil {
		cfg.Store = artifact.NewStore("")
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, tracer: tracer, log: logger}
}

// Run is one validated run. Its Steps sequence executes the roles lazily and
// can be consumed only once.
type Run struct {
	ID       string
	runner   *Runner
	vision   string
	selected []roles.Role
	context  *RunContext
	consumed atomic.Bool
	started  time.Time
	outcomes []Outcome
}

// Start validates the input and prepares a run. Nothing executes and nothing
// is written until Steps is ranged over. An empty vision, an empty or invalid
// selection, or a real-mode run without credentials is rejected here.
func (r *Runner) Start(vision string, selected []string) (*Run, error) {
	if strings.TrimSpace(vision) == "" {
		return nil, ErrEmptyVision
	}
	if r.cfg.Registry == nil || len(selected) == 0 {
		return nil, ErrNoRoles
	}
	if r.cfg.Mode == ModeReal {
		if !r.cfg.HasCredential {
			return nil, ErrMissingCredential
		}
		if r.cfg.Generator == nil {
			return nil, ErrNoGenerator
		}
	}

	seen := make(map[string]bool, len(selected))
	resolved := make([]roles.Role, 0, len(selected))
	for _, id := range selected {
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRole, id)
		}
		seen[id] = true
		if id == VisionKey {
			return nil, fmt.Errorf("role id %q is reserved", VisionKey)
		}
		role, err := r.cfg.Registry.Lookup(id)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, role)
	}

	return &Run{
		ID:       uuid.NewString(),
		runner:   r,
		vision:   vision,
		selected: resolved,
		context:  NewRunContext(vision),
	}, nil
}

// Run validates the input and returns the lazy sequence of outcomes.
func (r *Runner) Run(ctx context.Context, vision string, selected []string) (iter.Seq[Outcome], error) {
	run, err := r.Start(vision, selected)
	if err != nil {
		return nil, err
	}
	return run.Steps(ctx), nil
}

// RunAll drains a run and returns its summary. The error is non-nil only when
// the run could not start or ctx was cancelled.
func (r *Runner) RunAll(ctx context.Context, vision string, selected []string) (*Summary, error) {
	run, err := r.Start(vision, selected)
	if err != nil {
		return nil, err
	}
	for range run.Steps(ctx) {
	}
	s := run.Summary()
	return &s, ctx.Err()
}

// Context exposes the accumulated results.
func (run *Run) Context() *RunContext { return run.context }

// Roles returns the selected role ids in execution order.
func (run *Run) Roles() []string {
	ids := make([]string, len(run.selected))
	for i, role := range run.selected {
		ids[i] = role.ID
	}
	return ids
}

// Steps executes the selected roles in order, yielding one Outcome per
// started role. Stopping the range early leaves the remaining roles unstarted.
func (run *Run) Steps(ctx context.Context) iter.Seq[Outcome] {
	return func(yield func(Outcome) bool) {
		if !run.consumed.CompareAndSwap(false, true) {
			return
		}
		r := run.runner
		run.started = time.Now()
		r.recordStart(ctx, run)
		r.emit(Event{RunID: run.ID, Type: EventRunStart, Message: fmt.Sprintf("%d roles", len(run.selected))})
		r.log.InfoContext(ctx, "run started", "run_id", run.ID, "mode", r.cfg.Mode, "policy", r.cfg.ContextPolicy, "roles", run.Roles())

		defer func() {
			s := run.Summary()
			r.recordFinish(ctx, s)
			r.emit(Event{RunID: run.ID, Type: EventRunDone,
				Message: fmt.Sprintf("%d complete, %d failed, %d skipped", s.Completed, s.Failed, s.Skipped)})
			r.log.InfoContext(ctx, "run finished", "run_id", run.ID, "completed", s.Completed, "failed", s.Failed, "skipped", s.Skipped)
		}()

		for _, role := range run.selected {
			if ctx.Err() != nil {
				return
			}
			outcome := r.runRole(ctx, run, role)
			run.outcomes = append(run.outcomes, outcome)
			r.recordOutcome(ctx, run.ID, outcome)
			if !yield(outcome) {
				return
			}
			if outcome.Status == StatusFailed && r.cfg.FailurePolicy == FailAbort {
				return
			}
		}
	}
}

// Summary reports the outcomes produced so far.
func (run *Run) Summary() Summary {
	s := Summary{
		RunID:     run.ID,
		Outcomes:  append([]Outcome(nil), run.outcomes...),
		OutputDir: run.runner.cfg.Store.Dir,
	}
	for _, o := range run.outcomes {
		switch o.Status {
		case StatusComplete:
			s.Completed++
		case StatusFailed:
			s.Failed++
		}
	}
	s.Skipped = len(run.selected) - len(run.outcomes)
	if !run.started.IsZero() {
		s.Duration = time.Since(run.started)
	}
	return s
}

// runRole executes a single role: build payload, generate (or mock), decode,
// extend the context, persist.
func (r *Runner) runRole(ctx context.Context, run *Run, role roles.Role) Outcome {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "workforce.role", trace.WithAttributes(
		attribute.String("workforce.run_id", run.ID),
		attribute.String("workforce.role", role.ID),
		attribute.String("workforce.mode", string(r.cfg.Mode)),
		attribute.String("workforce.output_kind", role.Kind.String()),
	))
	defer span.End()

	r.emit(Event{RunID: run.ID, RoleID: role.ID, Type: EventRoleStart, Message: role.ID})

	payload, err := BuildPayload(r.cfg.ContextPolicy, run.context)
	if err != nil {
		return r.fail(ctx, span, run.ID, role.ID, KindPayload, err, start)
	}

	var (
		result Result
		usage  llm.Usage
	)
	if r.cfg.Mode == ModeMock {
		if err := sleepContext(ctx, r.cfg.MockDelay); err != nil {
			return r.fail(ctx, span, run.ID, role.ID, KindCancelled, err, start)
		}
		result = placeholderResult(role)
	} else {
		r.emit(Event{RunID: run.ID, RoleID: role.ID, Type: EventRoleRequest, Message: r.cfg.Model})
		resp, kind, err := r.generate(ctx, role, payload)
		if err != nil {
			return r.fail(ctx, span, run.ID, role.ID, kind, err, start)
		}
		usage = resp.Usage
		var fellBack bool
		result, fellBack = DecodeResult(role, resp.Text)
		if fellBack {
			r.emit(Event{RunID: run.ID, RoleID: role.ID, Type: EventDecodeFallback, Message: "response was not JSON; kept as text"})
			r.log.WarnContext(ctx, "structured decode failed, keeping raw text", "run_id", run.ID, "role", role.ID)
		}
	}

	run.context.Set(role.ID, result)

	path, err := r.persist(role, result)
	if err != nil {
		o := r.fail(ctx, span, run.ID, role.ID, KindFilesystem, err, start)
		o.Result = result
		return o
	}
	r.emit(Event{RunID: run.ID, RoleID: role.ID, Type: EventArtifactWritten, Message: path})

	span.SetAttributes(
		attribute.String("workforce.status", string(StatusComplete)),
		attribute.Int("workforce.prompt_tokens", usage.PromptTokens),
		attribute.Int("workforce.completion_tokens", usage.CompletionTokens),
		attribute.Int("workforce.total_tokens", usage.TotalTokens),
	)
	detail, _ := result.Payload()
	r.emit(Event{RunID: run.ID, RoleID: role.ID, Type: EventRoleDone, Message: "complete", Detail: detail})
	r.log.InfoContext(ctx, "role complete", "run_id", run.ID, "role", role.ID, "result", result.Kind.String(), "path", path,
		"prompt_tokens", usage.PromptTokens, "completion_tokens", usage.CompletionTokens, "total_tokens", usage.TotalTokens)

	return Outcome{
		RoleID:   role.ID,
		Status:   StatusComplete,
		Result:   result,
		Path:     path,
		Duration: time.Since(start),
		Usage:    usage,
	}
}

// generate performs the external call bounded by the per-role timeout.
func (r *Runner) generate(ctx context.Context, role roles.Role, payload string) (*llm.Response, ErrorKind, error) {
	callCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	encoding := llm.EncodingJSON
	if role.Kind == roles.FreeText {
		encoding = llm.EncodingText
	}

	resp, err := r.cfg.Generator.Generate(callCtx, llm.Request{
		Model:             r.cfg.Model,
		SystemInstruction: role.Instruction,
		Content:           payload,
		Encoding:          encoding,
		Temperature:       r.cfg.Temperature,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, KindCancelled, ctx.Err()
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, KindExternalCall, fmt.Errorf("timed out after %v: %w", r.cfg.Timeout, err)
		}
		return nil, KindExternalCall, err
	}
	if resp == nil {
		return nil, KindExternalCall, errors.New("empty response")
	}
	return resp, "", nil
}

func (r *Runner) persist(role roles.Role, result Result) (string, error) {
	name := roles.ArtifactName(role, result.Kind == ResultStructured)
	if result.Kind == ResultStructured {
		return r.cfg.Store.WriteJSON(name, result.Value)
	}
	return r.cfg.Store.WriteText(name, result.Text)
}

func (r *Runner) fail(ctx context.Context, span trace.Span, runID, roleID string, kind ErrorKind, err error, start time.Time) Outcome {
	roleErr := &RoleError{RoleID: roleID, Kind: kind, Err: err}
	span.RecordError(roleErr)
	span.SetStatus(codes.Error, string(kind))
	span.SetAttributes(attribute.String("workforce.status", string(StatusFailed)))
	r.emit(Event{RunID: runID, RoleID: roleID, Type: EventRoleFailed, Message: string(kind), Detail: err.Error()})
	r.log.ErrorContext(ctx, "role failed", "run_id", runID, "role", roleID, "kind", kind, "error", err)
	return Outcome{
		RoleID:   roleID,
		Status:   StatusFailed,
		Result:   Absent(),
		Err:      roleErr,
		Duration: time.Since(start),
	}
}

func (r *Runner) emit(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if r.cfg.OnEvent != nil {
		r.cfg.OnEvent(event)
	}
}

func (r *Runner) recordStart(ctx context.Context, run *Run) {
	if r.cfg.Recorder == nil {
		return
	}
	err := r.cfg.Recorder.StartRun(context.WithoutCancel(ctx), RunInfo{
		ID:        run.ID,
		Vision:    run.vision,
		Roles:     run.Roles(),
		Mode:      r.cfg.Mode,
		Model:     r.cfg.Model,
		Policy:    r.cfg.ContextPolicy,
		StartedAt: run.started,
	})
	if err != nil {
		r.log.WarnContext(ctx, "history: start run", "run_id", run.ID, "error", err)
	}
}

func (r *Runner) recordOutcome(ctx context.Context, runID string, o Outcome) {
	if r.cfg.Recorder == nil {
		return
	}
	if err := r.cfg.Recorder.RecordOutcome(context.WithoutCancel(ctx), runID, o); err != nil {
		r.log.WarnContext(ctx, "history: record outcome", "run_id", runID, "role", o.RoleID, "error", err)
	}
}

func (r *Runner) recordFinish(ctx context.Context, s Summary) {
	if r.cfg.Recorder == nil {
		return
	}
	if err := r.cfg.Recorder.FinishRun(context.WithoutCancel(ctx), s); err != nil {
		r.log.WarnContext(ctx, "history: finish run", "run_id", s.RunID, "error", err)
	}
}

// DecodeResult interprets a response for a role. Free-text roles keep the
// raw text. Structured roles decode as JSON and fall back to raw text;
// fellBack reports that fallback.
func DecodeResult(role roles.Role, text string) (result Result, fellBack bool) {
	if role.Kind == roles.FreeText {
		return Text(text), false
	}
	if v, ok := llm.DecodeStructured(text); ok {
		return Structured(v), false
	}
	return Text(text), true
}

func placeholderResult(role roles.Role) Result {
	switch v := roles.Placeholder(role).(type) {
	case string:
		return Text(v)
	default:
		return Structured(v)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
