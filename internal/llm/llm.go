// Package llm is the boundary to the external generation service: the
// request/response types the runner speaks, the Gemini-backed client, and the
// lenient decoder for structured answers.
package llm

import "context"

// Encoding is the response encoding requested from the model.
type Encoding string

const (
	EncodingJSON Encoding = "application/json"
	EncodingText Encoding = "text/plain"
)

// Request is a single generation call.
type Request struct {
	Model             string
	SystemInstruction string
	Content           string
	Encoding          Encoding
	Temperature       float64
}

// Usage reports token accounting when the service provides it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the decoded text of a generation call.
type Response struct {
	Text  string
	Usage Usage
}

// Generator performs one generation call. Implementations must honour ctx
// cancellation and deadlines.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
