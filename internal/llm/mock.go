package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/propscribe/propscribe/pkg/models"
)

// MockClient is a deterministic ChatClient for development and tests.
// It echoes a canned description without any network call.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Name() string { return "mock" }

func (c *MockClient) Chat(_ context.Context, messages []Message, params ChatParams) (ChatResult, error) {
	var promptLen int
	for _, m := range messages {
		promptLen += len(m.Content)
	}

	return ChatResult{
		Text:                 "A charming property in a sought-after location, ready for its next owner.",
		ProviderCompletionID: fmt.Sprintf("mockcmpl-%d", time.Now().UnixNano()),
		Usage: models.TokenUsage{
			PromptTokens:     promptLen / 4,
			CompletionTokens: 18,
			TotalTokens:      promptLen/4 + 18,
		},
		Latency: time.Millisecond,
	}, nil
}

// Compile-time check that MockClient implements ChatClient.
var _ ChatClient = (*MockClient)(nil)
