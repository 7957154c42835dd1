// Package accounts manages billing accounts and their terms-of-service
// state. Every authenticated end user is linked to exactly one account.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/propscribe/propscribe/internal/ids"
	"github.com/propscribe/propscribe/internal/store"
	"github.com/propscribe/propscribe/pkg/models"
)

// LatestRequiredTermsVersion is the terms version callers must have
// agreed to before using paid operations.
const LatestRequiredTermsVersion = "2023-05-01"

// ErrTermsNotAgreed is returned when the account has not accepted the
// current terms version.
var ErrTermsNotAgreed = errors.New("latest terms of service not agreed")

// Service implements account management on top of the store.
type Service struct {
	store     store.Store
	envPrefix string
	logger    *slog.Logger
}

// NewService creates a new accounts service.
func NewService(st store.Store, envPrefix string, logger *slog.Logger) *Service {
	return &Service{store: st, envPrefix: envPrefix, logger: logger}
}

// GetByID returns the account, or store.ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return s.store.GetAccount(ctx, id)
}

// TryGetByUserID returns the account linked to a user, or nil if the user
// has not been onboarded yet. Only genuine store failures are errors.
func (s *Service) TryGetByUserID(ctx context.Context, userID string) (*models.Account, error) {
	account, err := s.store.GetAccountByUserID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up account for user: %w", err)
	}
	return account, nil
}

// EnsureForUser returns the user's account, creating one on first touch.
// Concurrent first requests race on the unique index over the initial
// user linkage; the loser gets a duplicate-key error and re-reads the
// winner's row.
func (s *Service) EnsureForUser(ctx context.Context, userID string) (*models.Account, error) {
	account, err := s.TryGetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	now := time.Now().UTC()
	account = &models.Account{
		ID:             ids.New(s.envPrefix, ids.KindAccount),
		Users:          []string{userID},
		LastActiveAt:   now,
		LastActiveUser: userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return s.store.GetAccountByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("creating account: %w", err)
	}

	s.logger.InfoContext(ctx, "account created",
		slog.String("account_id", account.ID),
		slog.String("user_id", userID))

	return account, nil
}

// CheckTermsAgreed returns ErrTermsNotAgreed unless the account has
// accepted the current terms version.
func (s *Service) CheckTermsAgreed(account *models.Account) error {
	if account.TermsAgreedVersion == nil || *account.TermsAgreedVersion != LatestRequiredTermsVersion {
		return ErrTermsNotAgreed
	}
	return nil
}

// AgreeTerms records acceptance of the current terms version on behalf
// of the acting user.
func (s *Service) AgreeTerms(ctx context.Context, accountID, userID string) error {
	update := store.TermsUpdate{
		Version:  LatestRequiredTermsVersion,
		AgreedBy: userID,
	}
	if err := s.store.UpdateAccountTerms(ctx, accountID, update); err != nil {
		return fmt.Errorf("recording terms agreement: %w", err)
	}

	s.logger.InfoContext(ctx, "terms agreed",
		slog.String("account_id", accountID),
		slog.String("user_id", userID),
		slog.String("version", LatestRequiredTermsVersion))

	return nil
}
