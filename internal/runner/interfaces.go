package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/manasm11/workforce/internal/artifact"
	"github.com/manasm11/workforce/internal/llm"
	"github.com/manasm11/workforce/internal/roles"
	"go.opentelemetry.io/otel/trace"
)

// Mode selects between calling the generation service and synthesizing
// placeholder results.
type Mode string

const (
	ModeReal Mode = "real"
	ModeMock Mode = "mock"
)

// ContextPolicy decides what each role receives as its input payload.
type ContextPolicy string

const (
	// PolicyVision sends every role the raw vision.
	PolicyVision ContextPolicy = "vision"
	// PolicyPrevious sends the most recent present result, or the vision
	// when no role has produced one yet.
	PolicyPrevious ContextPolicy = "previous"
	// PolicyCumulative sends the whole RunContext serialized as JSON.
	PolicyCumulative ContextPolicy = "cumulative"
)

// FailurePolicy decides what happens after a role fails.
type FailurePolicy string

const (
	// FailContinue runs the remaining roles without the failed role's
	// contribution.
	FailContinue FailurePolicy = "continue"
	// FailAbort stops the run at the first failed role.
	FailAbort FailurePolicy = "abort"
)

// Status is how one role's attempt ended.
type Status string

const (
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// ParseMode accepts "real"/"mock" and the display labels "Real AI"/"Mock Mode".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "real", "real ai":
		return ModeReal, nil
	case "", "mock", "mock mode":
		return ModeMock, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want real or mock)", s)
	}
}

// ParseContextPolicy accepts the policy names; "singular" is an alias for vision.
func ParseContextPolicy(s string) (ContextPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vision", "singular":
		return PolicyVision, nil
	case "previous":
		return PolicyPrevious, nil
	case "cumulative":
		return PolicyCumulative, nil
	default:
		return "", fmt.Errorf("unknown context policy %q (want vision, previous or cumulative)", s)
	}
}

// ParseFailurePolicy accepts "continue" (default) and "abort".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continue":
		return FailContinue, nil
	case "abort":
		return FailAbort, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q (want continue or abort)", s)
	}
}

// Event represents something that happened during a run.
type Event struct {
	RunID     string
	RoleID    string
	Type      EventType
	Message   string
	Detail    string // longer detail (e.g., result preview, error text)
	Timestamp int64  // unix millis
}

// EventType classifies run events.
type EventType int

const (
	EventRunStart EventType = iota
	EventRoleStart
	EventRoleRequest
	EventDecodeFallback
	EventArtifactWritten
	EventRoleDone
	EventRoleFailed
	EventRunDone
)

func (t EventType) String() string {
	switch t {
	case EventRunStart:
		return "run_start"
	case EventRoleStart:
		return "role_start"
	case EventRoleRequest:
		return "role_request"
	case EventDecodeFallback:
		return "decode_fallback"
	case EventArtifactWritten:
		return "artifact_written"
	case EventRoleDone:
		return "role_done"
	case EventRoleFailed:
		return "role_failed"
	case EventRunDone:
		return "run_done"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// EventHandler receives run events for logging/display.
type EventHandler func(event Event)

// Recorder persists run history. Errors are logged and never fail a run.
type Recorder interface {
	StartRun(ctx context.Context, run RunInfo) error
	RecordOutcome(ctx context.Context, runID string, outcome Outcome) error
	FinishRun(ctx context.Context, summary Summary) error
}

// RunInfo describes a run as it starts.
type RunInfo struct {
	ID        string
	Vision    string
	Roles     []string
	Mode      Mode
	Model     string
	Policy    ContextPolicy
	StartedAt time.Time
}

// Config holds everything a Runner needs. There is no ambient state: the
// credential check, model and policies are passed in explicitly.
type Config struct {
	Registry  *roles.Registry
	Generator llm.Generator // required in ModeReal
	Store     *artifact.Store

	Mode          Mode
	Model         string
	Temperature   float64
	Timeout       time.Duration // per role call; 0 disables
	MockDelay     time.Duration
	ContextPolicy ContextPolicy
	FailurePolicy FailurePolicy
	HasCredential bool

	OnEvent  EventHandler
	Recorder Recorder
	Tracer   trace.Tracer
	Logger   *slog.Logger
}

// Outcome is the result of one role in a run.
type Outcome struct {
	RoleID   string
	Status   Status
	Result   Result
	Path     string // artifact path, empty if nothing was written
	Err      error
	Duration time.Duration
	Usage    llm.Usage // zero in mock mode or when the service reports none
}

// Summary is computed when a run finishes.
type Summary struct {
	RunID     string
	Outcomes  []Outcome
	Completed int
	Failed    int
	Skipped   int // selected but never started (abort or cancellation)
	Duration  time.Duration
	OutputDir string
}
