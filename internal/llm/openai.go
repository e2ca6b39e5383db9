package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient is a ChatClient backed by any OpenAI-compatible chat
// completions endpoint (OpenAI itself, DeepSeek, local gateways).
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-compatible chat client. An empty
// baseURL keeps the SDK default endpoint.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Chat sends the transcript as a streaming chat completion and drains
// the stream into one string. Low temperature keeps the JSON output
// stable.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: 0.1,
		Stream:      true,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	defer stream.Close()

	var b strings.Builder
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("openai stream: %w", err)
		}
		if len(response.Choices) > 0 {
			b.WriteString(response.Choices[0].Delta.Content)
		}
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("openai: empty response from model")
	}
	return b.String(), nil
}
