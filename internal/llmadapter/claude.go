package llmadapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultClaudeModel = "claude-3-5-sonnet-latest"

// ClaudeAdapter asks questions through the Anthropic Messages API.
// Mirrors forge-llm's ClaudeAdapter, minus its CLI-subprocess transport:
// forge talks to the API directly rather than shelling out to a `claude`
// binary, since interview questions run unattended during a survey.
type ClaudeAdapter struct {
	client anthropic.Client
	model  string
}

func NewClaudeAdapter(apiKey, model string) *ClaudeAdapter {
	if model == "" {
		model = defaultClaudeModel
	}
	return &ClaudeAdapter{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (a *ClaudeAdapter) Name() string { return "claude" }

func (a *ClaudeAdapter) Ask(ctx context.Context, systemPrompt, question string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(question)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude: %w", err)
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("claude: empty response")
	}
	return strings.TrimSpace(out.String()), nil
}
