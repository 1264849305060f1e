package runner

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// VisionKey is the reserved RunContext key holding the user's vision.
const VisionKey = "vision"

// ResultKind tags the variant held by a Result.
type ResultKind int

const (
	ResultAbsent ResultKind = iota
	ResultStructured
	ResultText
)

func (k ResultKind) String() string {
	switch k {
	case ResultStructured:
		return "structured"
	case ResultText:
		return "text"
	default:
		return "absent"
	}
}

// Result is what a role produced: a decoded JSON value, raw text, or nothing
// (the call failed).
type Result struct {
	Kind  ResultKind
	Value any    // set when Kind == ResultStructured
	Text  string // set when Kind == ResultText
}

// Structured wraps a decoded value.
func Structured(v any) Result { return Result{Kind: ResultStructured, Value: v} }

// Text wraps raw text.
func Text(s string) Result { return Result{Kind: ResultText, Text: s} }

// Absent is the result of a failed call.
func Absent() Result { return Result{} }

// Present reports whether the result carries a value.
func (r Result) Present() bool { return r.Kind != ResultAbsent }

// Payload renders the result as input for the next role: raw text as is,
// structured values as compact JSON.
func (r Result) Payload() (string, error) {
	switch r.Kind {
	case ResultText:
		return r.Text, nil
	case ResultStructured:
		data, err := json.Marshal(r.Value)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", nil
	}
}

// MarshalJSON encodes structured values as themselves and text as a JSON
// string. Absent encodes as null.
func (r Result) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ResultStructured:
		return json.Marshal(r.Value)
	case ResultText:
		return json.Marshal(r.Text)
	default:
		return []byte("null"), nil
	}
}

// RunContext is the insertion-ordered mapping role id -> result carried
// forward within one run. It starts with the vision under VisionKey and only
// grows.
type RunContext struct {
	keys    []string
	entries map[string]Result
}

// NewRunContext seeds a context with the vision.
func NewRunContext(vision string) *RunContext {
	c := &RunContext{entries: map[string]Result{}}
	c.keys = append(c.keys, VisionKey)
	c.entries[VisionKey] = Text(vision)
	return c
}

// Set records a present result. Absent results are not stored so later roles
// never see the failed role. Existing keys are not overwritten.
func (c *RunContext) Set(id string, r Result) bool {
	if !r.Present() {
		return false
	}
	if _, exists := c.entries[id]; exists {
		return false
	}
	c.keys = append(c.keys, id)
	c.entries[id] = r
	return true
}

// Get returns the result stored under id.
func (c *RunContext) Get(id string) (Result, bool) {
	r, ok := c.entries[id]
	return r, ok
}

// Keys returns keys in insertion order, starting with VisionKey.
func (c *RunContext) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len counts entries including the vision.
func (c *RunContext) Len() int { return len(c.keys) }

// Vision returns the seeded vision text.
func (c *RunContext) Vision() string { return c.entries[VisionKey].Text }

// Last returns the most recently added role result, or false when only the
// vision is present.
func (c *RunContext) Last() (string, Result, bool) {
	if len(c.keys) <= 1 {
		return "", Result{}, false
	}
	id := c.keys[len(c.keys)-1]
	return id, c.entries[id], true
}

// MarshalJSON writes a JSON object in insertion order.
func (c *RunContext) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(c.entries[k])
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
