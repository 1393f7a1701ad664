// Package llm provides chat completions through any OpenAI-compatible API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// Config holds the LLM provider configuration.
type Config struct {
	BaseURL string
	APIKey  string
	// ChatModel is the default model for assistant conversations.
	ChatModel string
	// TitleModel is a cheap model used for session title generation.
	TitleModel  string
	MaxTokens   int
	Temperature float32
	MaxRetries  int
	Timeout     time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://api.openai.com/v1",
		ChatModel:   "gpt-4o-mini",
		TitleModel:  "gpt-4o-mini",
		MaxTokens:   2048,
		Temperature: 0.7,
		MaxRetries:  3,
		Timeout:     60 * time.Second,
	}
}

// ConfigFromEnv creates a provider config from environment variables. The
// endpoint, key, and chat model come from the server profile, not from here.
func ConfigFromEnv() *Config {
	config := DefaultConfig()

	if model := os.Getenv("ACODEADAY_AI_TITLE_MODEL"); model != "" {
		config.TitleModel = model
	}

	return config
}

// Message represents a chat message.
type Message struct {
	Role    string
	Content string
}

// Provider provides chat completions.
type Provider struct {
	client *openai.Client
	config *Config
}

// NewProvider creates a new LLM provider.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultConfig().ChatModel
	}
	if cfg.TitleModel == "" {
		cfg.TitleModel = cfg.ChatModel
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// DefaultModel returns the configured chat model.
func (p *Provider) DefaultModel() string {
	return p.config.ChatModel
}

// Chat performs a non-streaming chat completion.
func (p *Provider) Chat(ctx context.Context, model string, messages []Message) (string, error) {
	if model == "" {
		model = p.config.ChatModel
	}

	var result string
	err := p.doWithRetry(ctx, func() error {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       model,
			Messages:    toOpenAIMessages(messages),
			MaxTokens:   p.config.MaxTokens,
			Temperature: p.config.Temperature,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty chat response")
		}
		result = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to complete chat: %w", err)
	}
	return result, nil
}

// ChatStream performs a streaming chat completion, invoking onDelta for each
// content fragment, and returns the full assembled response.
func (p *Provider) ChatStream(ctx context.Context, model string, messages []Message, onDelta func(delta string) error) (string, error) {
	if model == "" {
		model = p.config.ChatModel
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
		Stream:      true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to open chat stream: %w", err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("chat stream failed: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onDelta != nil {
			if err := onDelta(delta); err != nil {
				return "", err
			}
		}
	}
	return full.String(), nil
}

// GenerateTitle produces a short conversation title from the first user
// message, using the cheap title model.
func (p *Provider) GenerateTitle(ctx context.Context, firstMessage string) (string, error) {
	if len(firstMessage) > 200 {
		firstMessage = firstMessage[:200]
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.config.TitleModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Generate a 3-5 word title for this conversation. Be concise and descriptive. Only return the title, nothing else.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: "Generate title for: " + firstMessage,
			},
		},
		MaxTokens:   20,
		Temperature: 0.5,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate title: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty title response")
	}

	title := strings.TrimSpace(resp.Choices[0].Message.Content)
	title = strings.Trim(title, `"'`)
	if len(title) > 50 {
		title = title[:47] + "..."
	}
	return title, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		converted[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return converted
}

// doWithRetry executes a function with exponential backoff retry.
func (p *Provider) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			if attempt < p.config.MaxRetries-1 {
				waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
				slog.Debug("llm request failed, retrying",
					"attempt", attempt+1,
					"wait_time", waitTime,
					"error", err)
				select {
				case <-time.After(waitTime):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return lastErr
}
