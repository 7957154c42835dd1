package llm

import (
	"fmt"

	"github.com/propscribe/propscribe/internal/config"
)

// NewClient constructs the appropriate chat client based on config.
// Called once at server startup.
func NewClient(cfg config.LLMConfig) (ChatClient, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg.OpenAI), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q: must be one of openai, mock", cfg.Provider)
	}
}
