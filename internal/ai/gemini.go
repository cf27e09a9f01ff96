package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-pro"

// Gemini answers messages with the Google Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGemini creates a Gemini-backed provider.
func NewGemini(ctx context.Context, apiKey, model, system string) (*Gemini, error) {
	return newGemini(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model, system)
}

func newGemini(ctx context.Context, cc *genai.ClientConfig, model, system string) (*Gemini, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		},
	}, nil
}

// Generate implements Provider.
func (g *Gemini) Generate(ctx context.Context, message string) (Reply, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(message), g.config)
	if err != nil {
		return Reply{}, fmt.Errorf("gemini generate content: %w", err)
	}
	return interpret(resp.Text())
}

// Name implements Provider.
func (g *Gemini) Name() string { return "gemini" }
