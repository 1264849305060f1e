// Package artifact writes role results to the output folder. Every write
// replaces the previous file of the same name.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDir is the output folder used when none is configured.
const DefaultDir = "workforce"

// Store writes artifacts under Dir.
type Store struct {
	Dir string
}

// NewStore returns a store rooted at dir (DefaultDir if empty). The folder is
// created on first write.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{Dir: dir}
}

// WriteJSON writes v as indented JSON and returns the file path.
func (s *Store) WriteJSON(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshaling %s: %w", name, err)
	}
	return s.write(name, append(data, '\n'))
}

// WriteText writes text verbatim and returns the file path.
func (s *Store) WriteText(name, text string) (string, error) {
	return s.write(name, []byte(text))
}

func (s *Store) write(name string, data []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return path, nil
}

// List returns the artifact file names in the folder, sorted. A missing
// folder yields an empty list.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing output directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	return nil
}
