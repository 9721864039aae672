package advisor

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// GeminiNarrator generates narratives with Google's Gemini API.
type GeminiNarrator struct {
	client *genai.Client
	model  string
}

// NewGeminiNarrator creates a narrator authenticated with apiKey.
func NewGeminiNarrator(ctx context.Context, apiKey, model string) (*GeminiNarrator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("advisor: gemini api key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("advisor: create gemini client: %w", err)
	}
	return &GeminiNarrator{client: client, model: model}, nil
}

// Narrate implements Narrator.
func (g *GeminiNarrator) Narrate(ctx context.Context, s Summary) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(Prompt(s)),
		&genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.2)},
	)
	if err != nil {
		return "", fmt.Errorf("advisor: gemini generate: %w", err)
	}
	return resp.Text(), nil
}
