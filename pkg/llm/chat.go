package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// chatClient talks to one provider's chat completion endpoint.
type chatClient struct {
	provider Provider
	model    string
	client   openai.Client
}

func newChatClient(provider Provider, cfg clientConfig) *chatClient {
	return &chatClient{
		provider: provider,
		model:    cfg.model,
		client: openai.NewClient(
			option.WithAPIKey(cfg.apiKey),
			option.WithBaseURL(cfg.baseURL),
		),
	}
}

// Complete sends the conversation and returns the assistant's reply.
func (c *chatClient) Complete(ctx context.Context, messages []*Message) (*Message, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: toCompletionMessages(messages),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s completion failed: %w", c.provider, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", c.provider)
	}

	return NewAssistantMessage(resp.Choices[0].Message.Content), nil
}

func (c *chatClient) Model() string {
	return c.model
}

func (c *chatClient) ProviderName() string {
	return string(c.provider)
}

func toCompletionMessages(messages []*Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
