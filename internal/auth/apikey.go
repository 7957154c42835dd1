package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/propscribe/propscribe/internal/apikeys"
	"github.com/propscribe/propscribe/internal/store"
	"github.com/propscribe/propscribe/pkg/models"
)

// APIKeyResolver authenticates API key secrets. The key acts as its own
// sub-principal: the key id becomes the user id, so audit trails
// distinguish keys of the same account.
type APIKeyResolver struct {
	keys *apikeys.Service
}

// NewAPIKeyResolver creates a resolver for API key secrets.
func NewAPIKeyResolver(keys *apikeys.Service) *APIKeyResolver {
	return &APIKeyResolver{keys: keys}
}

func (r *APIKeyResolver) Name() string { return "apikey" }

func (r *APIKeyResolver) Resolve(ctx context.Context, rawToken string) (models.Identity, error) {
	if !r.keys.LooksLikeKey(rawToken) {
		return models.Identity{}, unauthorized("credential is not an api key")
	}

	key, err := r.keys.GetActiveByToken(ctx, rawToken)
	if errors.Is(err, store.ErrNotFound) {
		return models.Identity{}, unauthorized("unknown or revoked api key")
	}
	if err != nil {
		return models.Identity{}, fmt.Errorf("resolving api key: %w", err)
	}

	return models.Identity{
		UserID:    key.ID,
		AccountID: key.AccountID,
	}, nil
}

var _ Resolver = (*APIKeyResolver)(nil)
