package ai

import "context"

// Message is one prior exchange in a dialogue, passed back to the
// capability as conversation history.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Generator is the external generation capability. It is opaque,
// potentially slow, and potentially failing; callers bound every call
// with a context deadline.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, history []Message, userPrompt string) (string, error)
}

// LLMConfig holds configuration for LLM interactions.
type LLMConfig struct {
	Model       string
	MaxTokens   int
	Temperature float32
	MaxRetries  int
}

// DefaultLLMConfig returns standard LLM configuration.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Model:       "gpt-4o-mini",
		MaxTokens:   2048,
		Temperature: 0.7,
		MaxRetries:  2,
	}
}
