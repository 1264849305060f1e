package tui

import (
	"fmt"
	"strings"

	"github.com/manasm11/workforce/internal/llm"
	"github.com/manasm11/workforce/internal/roles"
	"github.com/manasm11/workforce/internal/runner"
	"github.com/manasm11/workforce/internal/tui/components"
)

// FormField identifies which form control has focus.
type FormField int

const (
	FieldVision FormField = iota
	FieldRoles
)

// NextField cycles focus.
func NextField(f FormField) FormField {
	if f == FieldVision {
		return FieldRoles
	}
	return FieldVision
}

// ToggleMode flips between real and mock.
func ToggleMode(m runner.Mode) runner.Mode {
	if m == runner.ModeReal {
		return runner.ModeMock
	}
	return runner.ModeReal
}

// ModeLabel is the human name shown in the status bar.
func ModeLabel(m runner.Mode) string {
	if m == runner.ModeReal {
		return "Real AI"
	}
	return "Mock Mode"
}

// ValidateStart returns the reason a run cannot start, or "" when it can.
func ValidateStart(vision string, selected []string, mode runner.Mode, hasCredential bool, model string) string {
	if strings.TrimSpace(vision) == "" {
		return "Please enter a vision."
	}
	if len(selected) == 0 {
		return "Select at least one role."
	}
	if mode == runner.ModeReal {
		if !hasCredential {
			return "No API key found. Set GOOGLE_API_KEY in .env or switch to Mock Mode (ctrl+t)."
		}
		if errs := llm.ValidateModel(model); len(errs) > 0 {
			return errs[0]
		}
	}
	return ""
}

// BuildRoleItems lists the crew's roles for the checklist. Roles named in
// selected come first in that order and are checked; the rest follow
// unchecked in registry order. An empty selection checks everything.
func BuildRoleItems(reg *roles.Registry, selected []string) []components.RoleItem {
	if reg == nil {
		return nil
	}
	checked := make(map[string]bool, len(selected))
	var items []components.RoleItem
	add := func(r roles.Role, on bool) {
		items = append(items, components.RoleItem{
			ID:      r.ID,
			Kind:    r.Kind.String(),
			Checked: on,
			Status:  components.StatusPending,
			Detail:  r.Instruction,
		})
	}
	for _, id := range selected {
		r, err := reg.Lookup(id)
		if err != nil || checked[id] {
			continue
		}
		checked[id] = true
		add(r, true)
	}
	for _, r := range reg.Roles() {
		if checked[r.ID] {
			continue
		}
		add(r, len(selected) == 0)
	}
	return items
}

// CredentialStatus is the one-line credential indicator.
func CredentialStatus(hasCredential bool) string {
	if hasCredential {
		return "✅ API key loaded"
	}
	return "⚠️  No API key"
}

// FormatStatusLine summarises mode, model and credential for the status bar.
func FormatStatusLine(mode runner.Mode, model string, hasCredential bool, crew string) string {
	return fmt.Sprintf("%s · %s · %s · crew %s", ModeLabel(mode), llm.FormatModelName(model), CredentialStatus(hasCredential), crew)
}
