package llmadapter

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiAdapter asks questions through Google's Generative AI SDK,
// grounded on the teacher's internal/llm.GeminiClient.Complete — trimmed
// to the single-shot text path, since interview questions carry no tool
// calls or conversation history.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

func NewGeminiAdapter(ctx context.Context, apiKey, model string) (*GeminiAdapter, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiAdapter{client: client, model: model}, nil
}

func (a *GeminiAdapter) Name() string { return "gemini" }

func (a *GeminiAdapter) Ask(ctx context.Context, systemPrompt, question string) (string, error) {
	var systemInstruction *genai.Content
	if systemPrompt != "" {
		systemInstruction = genai.Text(systemPrompt)[0]
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(question), &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Temperature:       ptrFloat32(0.1),
	})
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func ptrFloat32(f float32) *float32 { return &f }
