package analysis

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used for analysis.
const DefaultModel = "gemini-2.5-flash"

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	ModelName string
	Config    *genai.GenerateContentConfig
	client    *genai.Client
}

// NewGemini connects to the Gemini API. An empty apiKey lets the client read
// GEMINI_API_KEY (or GOOGLE_API_KEY) from the environment.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	var cfg *genai.ClientConfig
	if apiKey != "" {
		cfg = &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot initialize Gemini's client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{ModelName: model, client: client}, nil
}

// Generate implements Generator with a single turn chat.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	chat, err := g.client.Chats.Create(ctx, g.ModelName, g.Config, nil)
	if err != nil {
		return "", err
	}
	resp, err := chat.Send(ctx, &genai.Part{Text: prompt})
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from %s", g.ModelName)
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}
