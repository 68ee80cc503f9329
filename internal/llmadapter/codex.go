package llmadapter

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v3"
)

const defaultCodexModel = "gpt-4o"

// CodexAdapter asks questions through OpenAI's chat completions endpoint,
// grounded on the teacher's internal/agent.LLMClient wrapper around the
// same SDK.
type CodexAdapter struct {
	client openai.Client
	model  openai.ChatModel
}

func NewCodexAdapter(apiKey, model string) *CodexAdapter {
	if model == "" {
		model = defaultCodexModel
	}
	if apiKey != "" {
		os.Setenv("OPENAI_API_KEY", apiKey)
	}
	return &CodexAdapter{
		client: openai.NewClient(),
		model:  openai.ChatModel(model),
	}
}

func (a *CodexAdapter) Name() string { return "codex" }

func (a *CodexAdapter) Ask(ctx context.Context, systemPrompt, question string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(question))

	completion, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    a.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("codex: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("codex: empty response")
	}
	return completion.Choices[0].Message.Content, nil
}
