package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type CheckResult struct {
	Name   string
	Found  bool
	Detail string
	Error  string
	// Blocking marks a failed check that prevents the configured run.
	Blocking bool
}

// Options describes what the run is about to need.
type Options struct {
	APIKey      string
	Placeholder string // sample value that counts as no key
	RealMode    bool
	OutputDir   string
	StateDir    string
}

// RunAll checks the credential and the folders the run writes to.
// A missing credential only blocks when real mode is configured.
func RunAll(opts Options) []CheckResult {
	results := []CheckResult{checkCredential(opts.APIKey, opts.Placeholder, opts.RealMode)}
	results = append(results, checkWritable("output folder", opts.OutputDir))
	if opts.StateDir != "" {
		results = append(results, checkWritable("state folder", opts.StateDir))
	}
	return results
}

// Blocking reports whether any result prevents the run.
func Blocking(results []CheckResult) bool {
	for _, r := range results {
		if !r.Found && r.Blocking {
			return true
		}
	}
	return false
}

func checkCredential(key, placeholder string, realMode bool) CheckResult {
	key = strings.TrimSpace(key)
	if key != "" && key == placeholder {
		return CheckResult{
			Name:     "api key",
			Found:    false,
			Error:    "GOOGLE_API_KEY still holds the sample value; only mock mode is available",
			Blocking: realMode,
		}
	}
	if key == "" {
		return CheckResult{
			Name:     "api key",
			Found:    false,
			Error:    "GOOGLE_API_KEY not set; only mock mode is available",
			Blocking: realMode,
		}
	}
	return CheckResult{
		Name:   "api key",
		Found:  true,
		Detail: maskKey(key),
	}
}

// checkWritable verifies dir exists or can be created, and accepts a file.
func checkWritable(name, dir string) CheckResult {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return CheckResult{Name: name, Error: err.Error(), Blocking: true}
	}
	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return CheckResult{Name: name, Error: fmt.Sprintf("not writable: %v", err), Blocking: true}
	}
	f.Close()
	os.Remove(f.Name())

	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return CheckResult{Name: name, Found: true, Detail: abs}
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "…" + key[len(key)-4:]
}
