package store

import (
	"context"
	"errors"

	"github.com/propscribe/propscribe/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrAlreadySettled is returned when a completion update loses the race
// against an earlier terminal transition. Settled completions are never
// overwritten.
var ErrAlreadySettled = errors.New("completion already settled")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountByUserID(ctx context.Context, userID string) (*models.Account, error)
	CreateAccount(ctx context.Context, account *models.Account) error
	UpdateAccountTerms(ctx context.Context, id string, update TermsUpdate) error

	GetActiveAPIKeyByHash(ctx context.Context, hashedToken string) (*models.APIKey, error)
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListActiveAPIKeys(ctx context.Context, accountID string) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id string, accountID string) error

	CreateCompletion(ctx context.Context, cmpl *models.Completion) error
	GetCompletion(ctx context.Context, id string) (*models.Completion, error)
	SettleCompletion(ctx context.Context, id string, status string, opts ...SettleOption) error
	ListRecentCompletions(ctx context.Context, accountID string, completionType string, limit int) ([]*models.Completion, error)
}

// TermsUpdate carries a terms-of-service agreement.
type TermsUpdate struct {
	Version  string
	AgreedBy string
}

// SettleParams are the terminal fields written by SettleCompletion.
// Exactly one of Result or FailureReason is set on a normal settle.
type SettleParams struct {
	Result        *models.CompletionResult
	FailureReason *string
}

// SettleOption configures the terminal fields written by SettleCompletion.
type SettleOption func(*SettleParams)

func WithResult(result models.CompletionResult) SettleOption {
	return func(p *SettleParams) {
		p.Result = &result
	}
}

func WithFailureReason(reason string) SettleOption {
	return func(p *SettleParams) {
		p.FailureReason = &reason
	}
}

// ApplySettleOptions folds opts into a SettleParams. Store
// implementations and test doubles share this.
func ApplySettleOptions(opts []SettleOption) SettleParams {
	var p SettleParams
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
