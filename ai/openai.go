package ai

import (
	"context"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mindmesh-labs/mindmesh/core"
)

// OpenAIGenerator implements Generator against the OpenAI chat
// completion API with bounded retries and exponential backoff.
type OpenAIGenerator struct {
	client *openai.Client
	config LLMConfig
}

// NewOpenAIGenerator creates a generator with the given API key.
func NewOpenAIGenerator(apiKey string, config LLMConfig) *OpenAIGenerator {
	if config.Model == "" {
		config = DefaultLLMConfig()
	}
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		config: config,
	}
}

// Generate sends the prompt with history to the API. On failure it
// retries up to MaxRetries times with doubling backoff, then surfaces
// a capability error. The caller's deadline is honored throughout.
func (g *OpenAIGenerator) Generate(ctx context.Context, systemPrompt string, history []Message, userPrompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	backoff := 500 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", core.CapabilityError(ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
			log.Printf("ai: retrying generation, attempt %d", attempt+1)
		}

		resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       g.config.Model,
			Messages:    messages,
			MaxTokens:   g.config.MaxTokens,
			Temperature: g.config.Temperature,
		})
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", core.CapabilityError(ctx.Err())
			}
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = core.ErrCapability
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", core.CapabilityError(lastErr)
}
