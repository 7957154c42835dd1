package auth

import (
	"context"
	"encoding/json"

	"github.com/propscribe/propscribe/pkg/models"
)

// MockResolver treats the bearer token as a JSON identity document. It
// exists for local development and integration tests; configuration
// validation refuses to register it in production.
type MockResolver struct{}

// NewMockResolver creates the mock resolver.
func NewMockResolver() *MockResolver { return &MockResolver{} }

func (r *MockResolver) Name() string { return "mock" }

type mockToken struct {
	System      bool   `json:"system"`
	UserID      string `json:"user_id"`
	AccountID   string `json:"account_id"`
	PhoneNumber string `json:"phone_number"`
}

func (r *MockResolver) Resolve(_ context.Context, rawToken string) (models.Identity, error) {
	var tok mockToken
	if err := json.Unmarshal([]byte(rawToken), &tok); err != nil {
		return models.Identity{}, unauthorized("mock token is not valid json")
	}
	if tok.UserID == "" {
		return models.Identity{}, unauthorized("mock token missing user_id")
	}

	return models.Identity{
		System:      tok.System,
		UserID:      tok.UserID,
		AccountID:   tok.AccountID,
		PhoneNumber: tok.PhoneNumber,
	}, nil
}

var _ Resolver = (*MockResolver)(nil)
