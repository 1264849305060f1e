// Package config loads workforce settings from defaults, an optional YAML
// file and WORKFORCE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Dir is the per-project folder holding config, logs and history.
const Dir = ".workforce"

// EnvPrefix namespaces environment overrides: WORKFORCE_RUN_MODEL -> run.model.
const EnvPrefix = "WORKFORCE_"

// PlaceholderKey is the value shipped in sample .env files. It counts as no key.
const PlaceholderKey = "your_actual_key_here"

type Config struct {
	Run       RunConfig       `koanf:"run"`
	Gemini    GeminiConfig    `koanf:"gemini"`
	Output    OutputConfig    `koanf:"output"`
	Log       LogConfig       `koanf:"log"`
	History   HistoryConfig   `koanf:"history"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type RunConfig struct {
	Mode          string        `koanf:"mode"` // real, mock
	Model         string        `koanf:"model"`
	Crew          string        `koanf:"crew"`
	RolesFile     string        `koanf:"roles_file"`
	Roles         []string      `koanf:"roles"`
	Policy        string        `koanf:"policy"`         // vision, previous, cumulative
	FailurePolicy string        `koanf:"failure_policy"` // continue, abort
	Temperature   float64       `koanf:"temperature"`
	Timeout       time.Duration `koanf:"timeout"`
	MockDelay     time.Duration `koanf:"mock_delay"`
}

type GeminiConfig struct {
	APIKey     string `koanf:"api_key"`
	APIVersion string `koanf:"api_version"`
}

type OutputConfig struct {
	Dir string `koanf:"dir"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
	File   string `koanf:"file"`
}

type HistoryConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

type TelemetryConfig struct {
	Exporter string `koanf:"exporter"` // none, stdout
	File     string `koanf:"file"`
}

func defaults() map[string]any {
	return map[string]any{
		"run.mode":           "mock",
		"run.model":          "gemini-2.0-flash",
		"run.crew":           "workforce",
		"run.policy":         "",
		"run.failure_policy": "continue",
		"run.temperature":    0.7,
		"run.timeout":        "60s",
		"run.mock_delay":     "1s",
		"gemini.api_version": "v1",
		"output.dir":         "workforce",
		"log.level":          "info",
		"log.format":         "text",
		"log.file":           filepath.Join(Dir, "logs", "workforce.log"),
		"history.enabled":    true,
		"history.path":       filepath.Join(Dir, "history.db"),
		"telemetry.exporter": "none",
		"telemetry.file":     filepath.Join(Dir, "logs", "traces.json"),
	}
}

// DefaultPath is the config file picked up when -config is not given.
func DefaultPath() string {
	return filepath.Join(Dir, "config.yaml")
}

// Load builds the configuration. An empty path falls back to DefaultPath when
// that file exists. An explicit path that does not exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	for key, v := range defaults() {
		if err := k.Set(key, v); err != nil {
			return nil, err
		}
	}

	if path == "" {
		if _, err := os.Stat(DefaultPath()); err == nil {
			path = DefaultPath()
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = APIKeyFromEnv()
	}
	return &cfg, nil
}

// envKey maps WORKFORCE_RUN_MOCK_DELAY to run.mock_delay. Only the first
// underscore after the prefix separates section from key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, key, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + key
}

// LoadDotenv reads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// APIKeyFromEnv returns GOOGLE_API_KEY or GEMINI_API_KEY, skipping the
// sample placeholder.
func APIKeyFromEnv() string {
	for _, name := range []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"} {
		if v := strings.TrimSpace(os.Getenv(name)); usableKey(v) {
			return v
		}
	}
	return ""
}

func usableKey(v string) bool {
	return v != "" && v != PlaceholderKey
}

// HasCredential reports whether a usable API key is configured.
func (c *Config) HasCredential() bool {
	return usableKey(strings.TrimSpace(c.Gemini.APIKey))
}

var (
	validModes      = []string{"real", "mock"}
	validPolicies   = []string{"", "vision", "singular", "previous", "cumulative"}
	validFailures   = []string{"continue", "abort"}
	validLogFormats = []string{"text", "json"}
	validExporters  = []string{"none", "stdout"}
)

// Validate returns every problem found. An empty slice means the config is
// usable.
func (c *Config) Validate() []string {
	var errs []string
	if !oneOf(c.Run.Mode, validModes) {
		errs = append(errs, fmt.Sprintf("run.mode %q must be one of %v", c.Run.Mode, validModes))
	}
	if strings.TrimSpace(c.Run.Model) == "" {
		errs = append(errs, "run.model is required")
	}
	if c.Run.Crew == "" && c.Run.RolesFile == "" {
		errs = append(errs, "run.crew or run.roles_file is required")
	}
	if !oneOf(c.Run.Policy, validPolicies) {
		errs = append(errs, fmt.Sprintf("run.policy %q is not a known context policy", c.Run.Policy))
	}
	if !oneOf(c.Run.FailurePolicy, validFailures) {
		errs = append(errs, fmt.Sprintf("run.failure_policy %q must be one of %v", c.Run.FailurePolicy, validFailures))
	}
	if c.Run.Temperature < 0 || c.Run.Temperature > 2 {
		errs = append(errs, fmt.Sprintf("run.temperature %v is outside [0, 2]", c.Run.Temperature))
	}
	if c.Run.Timeout < 0 {
		errs = append(errs, "run.timeout cannot be negative")
	}
	if c.Run.MockDelay < 0 {
		errs = append(errs, "run.mock_delay cannot be negative")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		errs = append(errs, "output.dir is required")
	}
	if !oneOf(c.Log.Format, validLogFormats) {
		errs = append(errs, fmt.Sprintf("log.format %q must be one of %v", c.Log.Format, validLogFormats))
	}
	if !oneOf(c.Telemetry.Exporter, validExporters) {
		errs = append(errs, fmt.Sprintf("telemetry.exporter %q must be one of %v", c.Telemetry.Exporter, validExporters))
	}
	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history is enabled")
	}
	return errs
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}
