// Package apikeys manages long-lived API key credentials: minting,
// lookup, and revocation.
package apikeys

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/propscribe/propscribe/internal/ids"
	"github.com/propscribe/propscribe/internal/store"
	"github.com/propscribe/propscribe/pkg/models"
)

const secretMarker = "sk"

// LooksLikeKey reports whether a raw credential is structurally one of
// this deployment's API key secrets ("sk_<rand>" with no env prefix,
// "<env>_sk_<rand>" otherwise) rather than a user token. Secrets minted
// for a different environment do not match, so they are rejected without
// a key-store lookup. It makes no statement about validity.
func LooksLikeKey(envPrefix, token string) bool {
	parts := strings.Split(token, "_")
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	if envPrefix == "" {
		return len(parts) == 2 && parts[0] == secretMarker
	}
	return len(parts) == 3 && parts[0] == envPrefix && parts[1] == secretMarker
}

// HashToken returns the deterministic storage hash of a raw secret.
// Deterministic hashing is what lets lookup be a single indexed query.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Service implements API key management on top of the store.
type Service struct {
	store     store.Store
	envPrefix string
	logger    *slog.Logger
}

// NewService creates a new API key service.
func NewService(st store.Store, envPrefix string, logger *slog.Logger) *Service {
	return &Service{store: st, envPrefix: envPrefix, logger: logger}
}

// LooksLikeKey reports whether token is shaped like a secret this
// service mints.
func (s *Service) LooksLikeKey(token string) bool {
	return LooksLikeKey(s.envPrefix, token)
}

// Create mints a new key for the account. The returned secret is shown
// exactly once; only its hash is persisted.
func (s *Service) Create(ctx context.Context, accountID, createdBy string) (*models.APIKeyWithSecret, error) {
	secret := ids.NewSecret(s.envPrefix)

	now := time.Now().UTC()
	key := &models.APIKey{
		ID:          ids.New(s.envPrefix, ids.KindKey),
		AccountID:   accountID,
		CreatedBy:   createdBy,
		HashedToken: HashToken(secret),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		return nil, fmt.Errorf("creating api key: %w", err)
	}

	s.logger.InfoContext(ctx, "api key created",
		slog.String("key_id", key.ID),
		slog.String("account_id", accountID))

	return &models.APIKeyWithSecret{Key: key, Secret: secret}, nil
}

// GetActiveByToken resolves a raw secret to its active key record.
// Revoked or unknown secrets return store.ErrNotFound.
func (s *Service) GetActiveByToken(ctx context.Context, token string) (*models.APIKey, error) {
	return s.store.GetActiveAPIKeyByHash(ctx, HashToken(token))
}

// ListActive returns the account's unrevoked keys, newest first.
func (s *Service) ListActive(ctx context.Context, accountID string) ([]*models.APIKey, error) {
	return s.store.ListActiveAPIKeys(ctx, accountID)
}

// Revoke marks a key revoked. The account check stops one account from
// revoking another's keys; a mismatch reads as store.ErrNotFound.
func (s *Service) Revoke(ctx context.Context, accountID, keyID string) error {
	if err := s.store.RevokeAPIKey(ctx, keyID, accountID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "api key revoked",
		slog.String("key_id", keyID),
		slog.String("account_id", accountID))
	return nil
}
