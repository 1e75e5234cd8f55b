package llm

import (
	"context"
)

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest carries the conversation and sampling parameters for one
// completion.
type CompletionRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// TokenUsage reports token accounting for a completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the model output for one completion.
type CompletionResponse struct {
	Content string
	Model   string
	Usage   TokenUsage
}

// CompletionClient generates chat completions. Implementations must honor
// context cancellation.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Config holds connection settings for a completion backend.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// Timeout bounds a single request in seconds. Zero selects the default.
	Timeout int
}
