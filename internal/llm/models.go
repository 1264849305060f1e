package llm

import (
	"fmt"
	"strings"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// KnownModels returns the models offered in the model picker. Other model
// names are accepted; the list is only a hint.
func KnownModels() []string {
	return []string{"gemini-2.0-flash", "gemini-1.5-flash-8b", "gemini-2.5-flash", "gemini-2.5-pro"}
}

// NextModel cycles through KnownModels, starting over after the last one.
// Unknown names jump to the first known model.
func NextModel(current string) string {
	models := KnownModels()
	for i, m := range models {
		if m == current {
			return models[(i+1)%len(models)]
		}
	}
	return models[0]
}

// FormatModelName strips the "models/" resource prefix the API sometimes
// reports.
func FormatModelName(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), "models/")
}

// ValidateModel checks that a model name is usable.
// Returns a slice of error messages (empty = valid).
func ValidateModel(name string) []string {
	var errs []string
	name = FormatModelName(name)
	if name == "" {
		errs = append(errs, "model is required")
		return errs
	}
	if strings.ContainsAny(name, " \t\n") {
		errs = append(errs, fmt.Sprintf("invalid model name: %q (must not contain whitespace)", name))
	}
	return errs
}
