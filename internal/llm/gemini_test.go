package llm

import (
	"context"
	"testing"

	"google.golang.org/genai"
)

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	t.Parallel()
	if _, err := NewGeminiClient(context.Background(), GeminiOptions{}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()
	cfg := buildConfig(Request{
		SystemInstruction: "You are a Growth Hacker.",
		Encoding:          EncodingJSON,
		Temperature:       0.7,
	})

	if cfg.ResponseMIMEType != "application/json" {
		t.Errorf("ResponseMIMEType = %q", cfg.ResponseMIMEType)
	}
	if cfg.Temperature == nil || *cfg.Temperature != float32(0.7) {
		t.Errorf("Temperature = %v", cfg.Temperature)
	}
	if cfg.SystemInstruction == nil || len(cfg.SystemInstruction.Parts) != 1 ||
		cfg.SystemInstruction.Parts[0].Text != "You are a Growth Hacker." {
		t.Errorf("SystemInstruction = %+v", cfg.SystemInstruction)
	}
}

func TestBuildConfig_TextNoSystem(t *testing.T) {
	t.Parallel()
	cfg := buildConfig(Request{Encoding: EncodingText})
	if cfg.ResponseMIMEType != "text/plain" {
		t.Errorf("ResponseMIMEType = %q", cfg.ResponseMIMEType)
	}
	if cfg.SystemInstruction != nil {
		t.Error("SystemInstruction should be nil when empty")
	}
}

func TestBuildContents(t *testing.T) {
	t.Parallel()
	contents := buildContents(Request{Content: "A recycling rewards app"})
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	if contents[0].Role != "user" || contents[0].Parts[0].Text != "A recycling rewards app" {
		t.Errorf("content = %+v", contents[0])
	}
}

func TestConvertResponse(t *testing.T) {
	t.Parallel()
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: `{"a":`}, {Text: `1}`}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     5,
			CandidatesTokenCount: 3,
			TotalTokenCount:      8,
		},
	}

	out, err := convertResponse(resp)
	if err != nil {
		t.Fatalf("convertResponse() error: %v", err)
	}
	if out.Text != `{"a":1}` {
		t.Errorf("Text = %q", out.Text)
	}
	if out.Usage.TotalTokens != 8 || out.Usage.PromptTokens != 5 || out.Usage.CompletionTokens != 3 {
		t.Errorf("Usage = %+v", out.Usage)
	}
}

func TestConvertResponse_Empty(t *testing.T) {
	t.Parallel()
	if _, err := convertResponse(nil); err == nil {
		t.Error("nil response should error")
	}
	if _, err := convertResponse(&genai.GenerateContentResponse{}); err == nil {
		t.Error("response without candidates should error")
	}
}
