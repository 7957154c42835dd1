// Package llm defines the chat-model client interface and its providers.
package llm

import (
	"context"
	"time"

	"github.com/propscribe/propscribe/pkg/models"
)

// Message roles understood by chat-style models.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one chat message sent to the model.
type Message struct {
	Role    string
	Content string
}

// ChatParams are per-call model options.
type ChatParams struct {
	Model       string
	MaxTokens   int
	Temperature float32
	// User attributes the call to an end principal for provider-side abuse
	// detection.
	User string
}

// ChatResult is the settled outcome of one chat call.
type ChatResult struct {
	Text                 string
	ProviderCompletionID string
	Usage                models.TokenUsage
	Latency              time.Duration
}

// ChatClient is the core interface all model integrations implement.
// Never call a specific vendor SDK directly — always inject this interface.
type ChatClient interface {
	Chat(ctx context.Context, messages []Message, params ChatParams) (ChatResult, error)
	// Name returns the provider identifier (e.g. "openai", "mock").
	Name() string
}
