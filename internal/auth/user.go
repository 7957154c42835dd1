package auth

import (
	"context"
	"log/slog"

	"github.com/propscribe/propscribe/internal/accounts"
	"github.com/propscribe/propscribe/internal/ids"
	"github.com/propscribe/propscribe/pkg/models"
)

// UserResolver authenticates end-user identity tokens. Verified tokens
// must carry a phone number; unonboarded users resolve with an empty
// account id and are caught later by the onboarding middleware.
type UserResolver struct {
	verifier  TokenVerifier
	accounts  *accounts.Service
	envPrefix string
	logger    *slog.Logger
}

// NewUserResolver creates a resolver for end-user tokens.
func NewUserResolver(verifier TokenVerifier, accts *accounts.Service, envPrefix string, logger *slog.Logger) *UserResolver {
	return &UserResolver{verifier: verifier, accounts: accts, envPrefix: envPrefix, logger: logger}
}

func (r *UserResolver) Name() string { return "user" }

func (r *UserResolver) Resolve(ctx context.Context, rawToken string) (models.Identity, error) {
	claims, err := r.verifier.Verify(ctx, rawToken)
	if err != nil {
		return models.Identity{}, unauthorized(err.Error())
	}

	if claims.PhoneNumber == "" {
		return models.Identity{}, unauthorized("missing_phone_number")
	}

	userID := ids.Qualify(r.envPrefix, ids.KindUser, claims.Subject)

	identity := models.Identity{
		UserID:      userID,
		PhoneNumber: claims.PhoneNumber,
	}

	// Account linkage is best effort here: a missing account is a normal
	// pre-onboarding state, and a store hiccup should not fail auth.
	account, err := r.accounts.TryGetByUserID(ctx, userID)
	if err != nil {
		r.logger.WarnContext(ctx, "account lookup failed during auth",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return identity, nil
	}
	if account != nil {
		identity.AccountID = account.ID
	}

	return identity, nil
}

var _ Resolver = (*UserResolver)(nil)
