// Package llm provides the language-model integration used to drive browser
// tests. All supported providers speak the OpenAI-compatible chat completion
// API, so a single client implementation serves every provider through its
// own base URL.
package llm

import "context"

// MessageRole identifies who authored a message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single turn in a model conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// NewSystemMessage builds a system-role message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage builds a user-role message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage builds an assistant-role message.
func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content}
}

// Client is the narrow completion interface the agent layer depends on.
type Client interface {
	// Complete sends the conversation and returns the assistant's reply.
	Complete(ctx context.Context, messages []*Message) (*Message, error)

	// Model returns the model name in use.
	Model() string

	// ProviderName returns which provider the client talks to.
	ProviderName() string
}
