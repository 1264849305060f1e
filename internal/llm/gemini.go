package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiOptions configures NewGeminiClient.
type GeminiOptions struct {
	APIKey     string
	APIVersion string // e.g. "v1"; empty uses the SDK default
}

// GeminiClient calls the Gemini API through google.golang.org/genai.
type GeminiClient struct {
	client *genai.Client
}

// Verify GeminiClient implements Generator at compile time.
var _ Generator = (*GeminiClient)(nil)

// NewGeminiClient creates a client bound to an API key.
func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.APIVersion != "" {
		cfg.HTTPOptions = genai.HTTPOptions{APIVersion: opts.APIVersion}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Generate sends the role instruction as the system instruction and the
// payload as user content.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Model == "" {
		return nil, errors.New("gemini: model is required")
	}
	resp, err := c.client.Models.GenerateContent(ctx, req.Model, buildContents(req), buildConfig(req))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content failed: %w", err)
	}
	return convertResponse(resp)
}

func buildContents(req Request) []*genai.Content {
	return []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.Content}},
	}}
}

func buildConfig(req Request) *genai.GenerateContentConfig {
	temp := float32(req.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:      &temp,
		ResponseMIMEType: string(req.Encoding),
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		}
	}
	return config
}

// convertResponse concatenates the text parts of the first candidate.
func convertResponse(resp *genai.GenerateContentResponse) (*Response, error) {
	if resp == nil {
		return nil, errors.New("gemini: empty response")
	}
	out := &Response{}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini: response has no candidates")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	out.Text = b.String()
	return out, nil
}
