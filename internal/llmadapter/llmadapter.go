// Package llmadapter gives the three interview-capable LLM backends one
// shape to ask questions through, grounded on forge-llm's adapter trio
// (Claude/Codex/Gemini behind a shared provider trait) and the teacher's
// own OpenAI and Gemini client wrappers for the request/response plumbing.
package llmadapter

import "context"

// Provider asks a single question against a system prompt and returns the
// model's answer text. Unlike the teacher's chat-completion clients, a
// Provider here never carries conversation history: each interview
// question about a gap-scored node is independent.
type Provider interface {
	Name() string
	Ask(ctx context.Context, systemPrompt, question string) (string, error)
}

// New constructs the Provider named by provider ("claude", "codex", or
// "gemini"; an empty name selects "claude"), returning an error for
// anything else.
func New(ctx context.Context, provider, apiKey, model string) (Provider, error) {
	switch provider {
	case "claude", "":
		return NewClaudeAdapter(apiKey, model), nil
	case "codex":
		return NewCodexAdapter(apiKey, model), nil
	case "gemini":
		return NewGeminiAdapter(ctx, apiKey, model)
	default:
		return nil, unsupportedProviderError(provider)
	}
}

type unsupportedProviderError string

func (e unsupportedProviderError) Error() string {
	return "llmadapter: unsupported provider " + string(e)
}
