package llm

import (
	"context"
	"testing"

	"github.com/propscribe/propscribe/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_OpenAI(t *testing.T) {
	client, err := NewClient(config.LLMConfig{
		Provider: "openai",
		OpenAI:   config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-3.5-turbo"},
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", client.Name())
}

func TestNewClient_Mock(t *testing.T) {
	client, err := NewClient(config.LLMConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", client.Name())
}

func TestNewClient_Unknown(t *testing.T) {
	_, err := NewClient(config.LLMConfig{Provider: "abacus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "abacus")
}

func TestMockClient_Chat(t *testing.T) {
	client := NewMockClient()

	res, err := client.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "You are helpful."},
		{Role: RoleUser, Content: "Describe a house."},
	}, ChatParams{})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Text)
	assert.NotEmpty(t, res.ProviderCompletionID)
	assert.Positive(t, res.Usage.TotalTokens)
}
