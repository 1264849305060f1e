package roles

import (
	"fmt"
	"sort"
)

// Crew is a named role table plus the context policy it was designed for.
// Policy is one of "vision", "previous" or "cumulative".
type Crew struct {
	Name        string
	Description string
	Policy      string
	Registry    *Registry
}

// Instructions for the built-in roles.
const (
	OptimizerPrompt = "You are a Prompt Engineer. Return JSON: project_name, mission, focus."

	GrowthPrompt = "You are a Growth Hacker. Return JSON: aso_keywords, viral_loop."

	ArchitectPrompt = "You are a Software Architect. Return JSON: tech_stack, folder_structure."

	FinancePrompt = "You are a Financial Planner. Return JSON: startup_cost, burn_rate, revenue_model."

	CoderPrompt = `You are a Senior Software Engineer. Using the project brief and architecture you are given,
write the first working source file of the project. Answer in Markdown with one fenced code block
per file and a one-line caption above each block. Do not wrap the answer in JSON.`

	SummarizerPrompt = `You are a Technical Writer. Summarize everything the team produced so far into a short
Markdown brief with the sections: Overview, Growth, Architecture, Next Steps.`
)

func optimizer() Role {
	return Role{
		ID:          "Optimizer",
		Instruction: OptimizerPrompt,
		Kind:        Structured,
		Mock:        map[string]any{"project_name": "Eco-Quest", "mission": "Gamified recycling.", "focus": "Mobile-first UX"},
	}
}

func growth() Role {
	return Role{
		ID:          "Growth",
		Instruction: GrowthPrompt,
		Kind:        Structured,
		Mock:        map[string]any{"aso_keywords": []any{"ecology", "game", "green"}, "viral_loop": "Share stats for rewards"},
	}
}

func architect() Role {
	return Role{
		ID:          "Architect",
		Instruction: ArchitectPrompt,
		Kind:        Structured,
		Mock:        map[string]any{"tech": "Flutter & Firebase", "structure": "/lib, /assets, /models"},
	}
}

func finance() Role {
	return Role{
		ID:          "Finance",
		Instruction: FinancePrompt,
		Kind:        Structured,
		Mock:        map[string]any{"startup_cost": "$5,000", "burn_rate": "$200/mo", "revenue_model": "Freemium"},
	}
}

func coder() Role {
	return Role{
		ID:          "Coder",
		Instruction: CoderPrompt,
		Kind:        FreeText,
		Artifact:    "generated_code.md",
	}
}

func summarizer() Role {
	return Role{
		ID:          "Summarizer",
		Instruction: SummarizerPrompt,
		Kind:        FreeText,
		Artifact:    "summary.md",
	}
}

var builtinCrews = map[string]func() Crew{
	"workforce": func() Crew {
		return Crew{
			Name:        "workforce",
			Description: "Optimizer → Growth → Architect → Finance, each role sees the previous answer",
			Policy:      "previous",
			Registry:    MustRegistry(optimizer(), growth(), architect(), finance()),
		}
	},
	"builder": func() Crew {
		return Crew{
			Name:        "builder",
			Description: "Optimizer → Architect → Coder → Summarizer, each role sees everything so far",
			Policy:      "cumulative",
			Registry:    MustRegistry(optimizer(), architect(), coder(), summarizer()),
		}
	},
	"advisors": func() Crew {
		return Crew{
			Name:        "advisors",
			Description: "Growth, Architect and Finance each answer the raw vision independently",
			Policy:      "vision",
			Registry:    MustRegistry(growth(), architect(), finance()),
		}
	},
}

// DefaultCrew is used when no crew is configured.
const DefaultCrew = "workforce"

// Builtin returns a fresh copy of a built-in crew.
func Builtin(name string) (Crew, error) {
	build, ok := builtinCrews[name]
	if !ok {
		return Crew{}, fmt.Errorf("unknown crew %q (available: %v)", name, BuiltinNames())
	}
	return build(), nil
}

// BuiltinNames lists built-in crews alphabetically.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinCrews))
	for name := range builtinCrews {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
