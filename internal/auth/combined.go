package auth

import (
	"context"

	"github.com/propscribe/propscribe/pkg/models"
)

// CombinedResolver accepts either an API key or an end-user token. The
// choice is structural and mutually exclusive: a credential shaped like
// one of this deployment's api keys is only ever tried against the key
// store, everything else only against the token verifier. No credential
// gets two chances.
type CombinedResolver struct {
	user   Resolver
	apiKey *APIKeyResolver
}

// NewCombinedResolver creates the user-or-apikey resolver.
func NewCombinedResolver(user Resolver, apiKey *APIKeyResolver) *CombinedResolver {
	return &CombinedResolver{user: user, apiKey: apiKey}
}

func (r *CombinedResolver) Name() string { return "user_or_apikey" }

func (r *CombinedResolver) Resolve(ctx context.Context, rawToken string) (models.Identity, error) {
	if r.apiKey.keys.LooksLikeKey(rawToken) {
		return r.apiKey.Resolve(ctx, rawToken)
	}
	return r.user.Resolve(ctx, rawToken)
}

var _ Resolver = (*CombinedResolver)(nil)
