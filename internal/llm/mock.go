package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// MockGenerator is a test double that returns queued responses.
type MockGenerator struct {
	// Responses is a queue of responses. Each call pops the next one.
	Responses []MockResponse
	// Calls records every request for assertion.
	Calls []Request

	mu      sync.Mutex
	callIdx int
}

// MockResponse defines the outcome of a single call.
type MockResponse struct {
	Text  string
	Usage Usage
	Err   error
	// Block makes the call wait for ctx to end, to exercise timeouts.
	Block bool
}

// Verify MockGenerator implements Generator at compile time.
var _ Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a mock with the given response queue.
func NewMockGenerator(responses ...MockResponse) *MockGenerator {
	return &MockGenerator{Responses: responses}
}

func (m *MockGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	var resp MockResponse
	if m.callIdx >= len(m.Responses) {
		resp = MockResponse{Err: fmt.Errorf("mock: no more responses (call %d)", m.callIdx)}
	} else {
		resp = m.Responses[m.callIdx]
	}
	m.callIdx++
	m.mu.Unlock()

	if resp.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return &Response{Text: resp.Text, Usage: resp.Usage}, nil
}

// AssertCallCount verifies the expected number of calls were made.
func (m *MockGenerator) AssertCallCount(t *testing.T, expected int) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) != expected {
		t.Errorf("MockGenerator: call count = %d, want %d", len(m.Calls), expected)
	}
}

// AssertCall verifies a call's system instruction and that its content
// contains a substring.
func (m *MockGenerator) AssertCall(t *testing.T, index int, instruction string, contentContains string) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if index >= len(m.Calls) {
		t.Fatalf("MockGenerator: call index %d out of range (have %d calls)", index, len(m.Calls))
	}
	call := m.Calls[index]
	if instruction != "" && call.SystemInstruction != instruction {
		t.Errorf("MockGenerator: call[%d].SystemInstruction = %q, want %q", index, call.SystemInstruction, instruction)
	}
	if contentContains != "" && !strings.Contains(call.Content, contentContains) {
		t.Errorf("MockGenerator: call[%d].Content does not contain %q\ngot: %s", index, contentContains, call.Content)
	}
}
