package roles

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// crewFile models a YAML crew definition:
//
//	name: pitch
//	policy: cumulative
//	roles:
//	  - id: Optimizer
//	    instruction: "You are a Prompt Engineer. Return JSON: project_name, mission."
//	  - id: Pitch Writer
//	    kind: free_text
//	    artifact: pitch.md
//	    instruction: "Write a one-page investor pitch in Markdown."
type crewFile struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Policy      string     `yaml:"policy"`
	Roles       []roleFile `yaml:"roles"`
}

type roleFile struct {
	ID          string `yaml:"id"`
	Instruction string `yaml:"instruction"`
	Kind        string `yaml:"kind,omitempty"`
	Artifact    string `yaml:"artifact,omitempty"`
	Mock        any    `yaml:"mock,omitempty"`
}

// LoadFile reads a custom crew from a YAML file.
func LoadFile(path string) (Crew, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Crew{}, fmt.Errorf("reading crew file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML crew definition.
func Parse(data []byte) (Crew, error) {
	var cf crewFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return Crew{}, fmt.Errorf("parsing crew file: %w", err)
	}
	if len(cf.Roles) == 0 {
		return Crew{}, fmt.Errorf("crew file declares no roles")
	}

	reg := &Registry{roles: make(map[string]Role, len(cf.Roles))}
	for i, rf := range cf.Roles {
		kind, err := ParseOutputKind(rf.Kind)
		if err != nil {
			return Crew{}, fmt.Errorf("role %d (%s): %w", i, rf.ID, err)
		}
		// Mocks are written as JSON artifacts, so they must marshal.
		if rf.Mock != nil {
			if _, err := json.Marshal(rf.Mock); err != nil {
				return Crew{}, fmt.Errorf("role %d (%s): mock is not JSON-compatible: %w", i, rf.ID, err)
			}
		}
		if err := reg.Register(Role{
			ID:          rf.ID,
			Instruction: rf.Instruction,
			Kind:        kind,
			Artifact:    rf.Artifact,
			Mock:        rf.Mock,
		}); err != nil {
			return Crew{}, err
		}
	}

	name := cf.Name
	if name == "" {
		name = "custom"
	}
	return Crew{
		Name:        name,
		Description: cf.Description,
		Policy:      cf.Policy,
		Registry:    reg,
	}, nil
}
