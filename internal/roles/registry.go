package roles

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Lookup for ids that were never registered.
var ErrNotFound = errors.New("role not found")

// Registry is an ordered, read-only-after-setup table of roles.
type Registry struct {
	order []string
	roles map[string]Role
	files map[string]string // artifact name -> owning role id
}

// NewRegistry registers the given roles in order.
func NewRegistry(rs ...Role) (*Registry, error) {
	reg := &Registry{roles: make(map[string]Role, len(rs))}
	for _, r := range rs {
		if err := reg.Register(r); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// MustRegistry panics if any role is invalid. Used for the built-in crews.
func MustRegistry(rs ...Role) *Registry {
	reg, err := NewRegistry(rs...)
	if err != nil {
		panic(err)
	}
	return reg
}

// Register appends a role. Ids must be unique and non-empty, and no two roles
// may write the same artifact file.
func (r *Registry) Register(role Role) error {
	if role.ID == "" {
		return fmt.Errorf("roles: id is required")
	}
	if role.Instruction == "" {
		return fmt.Errorf("roles: instruction is required for %s", role.ID)
	}
	if role.Kind != Structured && role.Kind != FreeText {
		return fmt.Errorf("roles: %s has invalid output kind %v", role.ID, role.Kind)
	}
	if Slug(role.ID) == "" {
		return fmt.Errorf("roles: id %q has an empty slug", role.ID)
	}
	if _, exists := r.roles[role.ID]; exists {
		return fmt.Errorf("roles: %s already registered", role.ID)
	}
	names := []string{ArtifactName(role, true), ArtifactName(role, false)}
	for _, name := range names {
		if owner, taken := r.files[name]; taken {
			return fmt.Errorf("roles: %s and %s would both write %s", owner, role.ID, name)
		}
	}

	if r.roles == nil {
		r.roles = make(map[string]Role)
	}
	if r.files == nil {
		r.files = make(map[string]string)
	}
	for _, name := range names {
		r.files[name] = role.ID
	}
	r.roles[role.ID] = role
	r.order = append(r.order, role.ID)
	return nil
}

// Lookup returns the role registered under id.
func (r *Registry) Lookup(id string) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return role, nil
}

// IDs returns role ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Roles returns the roles in registration order.
func (r *Registry) Roles() []Role {
	out := make([]Role, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.roles[id])
	}
	return out
}

// Len is the number of registered roles.
func (r *Registry) Len() int {
	return len(r.order)
}
