package runner

import (
	"errors"
	"fmt"
)

// Errors that prevent a run from starting.
var (
	ErrEmptyVision       = errors.New("vision is empty")
	ErrNoRoles           = errors.New("no roles selected")
	ErrDuplicateRole     = errors.New("role selected more than once")
	ErrMissingCredential = errors.New("no API key configured; real mode is unavailable")
	ErrNoGenerator       = errors.New("real mode requires a generator")
)

// ErrorKind classifies per-role failures.
type ErrorKind string

const (
	KindExternalCall ErrorKind = "external_call"
	KindFilesystem   ErrorKind = "filesystem"
	KindCancelled    ErrorKind = "cancelled"
	KindPayload      ErrorKind = "payload"
)

// RoleError is a failure contained to one role.
type RoleError struct {
	RoleID string
	Kind   ErrorKind
	Err    error
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.RoleID, e.Kind, e.Err)
}

func (e *RoleError) Unwrap() error { return e.Err }

// IsKind reports whether err is a RoleError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var re *RoleError
	return errors.As(err, &re) && re.Kind == kind
}
