package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/propscribe/propscribe/internal/config"
	"github.com/propscribe/propscribe/pkg/models"
)

// OpenAIClient implements ChatClient using the OpenAI chat completions API.
type OpenAIClient struct {
	client       *openai.Client
	defaultModel string
}

func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		client:       openai.NewClient(cfg.APIKey),
		defaultModel: cfg.Model,
	}
}

func (c *OpenAIClient) Name() string { return "openai" }

func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, params ChatParams) (ChatResult, error) {
	model := params.Model
	if model == "" {
		model = c.defaultModel
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		User:        params.User,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	latency := time.Since(start)
	if err != nil {
		return ChatResult{}, classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return ChatResult{}, ErrEmptyResponse
	}

	return ChatResult{
		Text:                 resp.Choices[0].Message.Content,
		ProviderCompletionID: resp.ID,
		Usage: models.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Latency: latency,
	}, nil
}

// classifyOpenAIError maps SDK errors to the package sentinel errors.
func classifyOpenAIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}

// Compile-time check that OpenAIClient implements ChatClient.
var _ ChatClient = (*OpenAIClient)(nil)
