package roles

import (
	"fmt"
	"strings"
	"unicode"
)

// OutputKind declares the shape a role is expected to answer in.
type OutputKind int

const (
	Structured OutputKind = iota // JSON
	FreeText                     // Markdown, code, prose
)

// String returns the config spelling of the kind.
func (k OutputKind) String() string {
	switch k {
	case Structured:
		return "structured"
	case FreeText:
		return "free_text"
	default:
		return fmt.Sprintf("OutputKind(%d)", int(k))
	}
}

// ParseOutputKind accepts the spellings used in role files.
// An empty string means Structured.
func ParseOutputKind(s string) (OutputKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "structured", "json":
		return Structured, nil
	case "free_text", "freetext", "text", "markdown":
		return FreeText, nil
	default:
		return 0, fmt.Errorf("unknown output kind %q", s)
	}
}

// Role is one named unit of work: a fixed instruction sent as the system
// directive and the output shape expected back.
type Role struct {
	ID          string
	Instruction string
	Kind        OutputKind
	// Artifact fixes the file name for free-text roles (e.g. "summary.md").
	// Empty means <slug>.md.
	Artifact string
	// Mock is the placeholder returned in mock mode. Nil means a generic
	// placeholder for the role's kind.
	Mock any
}

// Slug maps a role id to the stem of its artifact file: lower-cased,
// parentheses removed, whitespace runs collapsed to a single underscore.
func Slug(id string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(id) {
		switch {
		case r == '(' || r == ')':
			continue
		case unicode.IsSpace(r):
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSep = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// ArtifactName returns the file name a result of this role is written to.
// structured reports whether the result decoded as JSON.
func ArtifactName(r Role, structured bool) string {
	slug := Slug(r.ID)
	switch {
	case structured:
		return slug + ".json"
	case r.Kind == FreeText && r.Artifact != "":
		return r.Artifact
	case r.Kind == FreeText:
		return slug + ".md"
	default:
		// structured role whose answer was not JSON
		return slug + ".txt"
	}
}

// Placeholder returns the deterministic mock-mode value for the role.
func Placeholder(r Role) any {
	if r.Mock != nil {
		return r.Mock
	}
	if r.Kind == FreeText {
		return fmt.Sprintf("# %s\n\nMock output for %s.\n", r.ID, r.ID)
	}
	return map[string]any{"status": "success"}
}
