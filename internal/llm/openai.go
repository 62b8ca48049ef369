// Package llm generates conversational replies from the call history.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/anazari96/voice-agent/internal/agent"
)

// OpenAIClient produces short spoken-style replies via the chat completions
// API.
type OpenAIClient struct {
	client openai.Client
	model  openai.ChatModel
	apiKey string
}

// NewOpenAIClient builds a responder. Extra request options are passed
// through to the underlying client.
func NewOpenAIClient(apiKey, model string, opts ...option.RequestOption) *OpenAIClient {
	chatModel := openai.ChatModelGPT4o
	if model != "" {
		chatModel = openai.ChatModel(model)
	}
	allOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIClient{
		client: openai.NewClient(allOpts...),
		model:  chatModel,
		apiKey: apiKey,
	}
}

// Generate maps the conversation history onto chat messages and returns the
// model's reply. A detected non-English language is passed as a trailing
// system hint so replies match the caller.
func (c *OpenAIClient) Generate(ctx context.Context, history []agent.Turn, lang string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("openai api key missing")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	for _, turn := range history {
		switch turn.Role {
		case agent.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Text))
		case agent.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		default:
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}
	if lang != "" && lang != "en" {
		messages = append(messages, openai.SystemMessage(
			fmt.Sprintf("Respond in the caller's language (ISO 639-1 code %q).", lang)))
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   openai.Int(150),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
