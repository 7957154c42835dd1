package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/propscribe/propscribe/internal/accounts"
	"github.com/propscribe/propscribe/internal/api/response"
	"github.com/propscribe/propscribe/internal/store"
)

// Onboarding gates paid routes behind a linked account with the current
// terms of service agreed.
type Onboarding struct {
	accounts *accounts.Service
	logger   *slog.Logger
}

// NewOnboarding creates the onboarding middleware.
func NewOnboarding(accts *accounts.Service, logger *slog.Logger) *Onboarding {
	return &Onboarding{accounts: accts, logger: logger}
}

// Require rejects requests whose identity has no account or whose
// account has not agreed to the current terms. System callers are
// exempt: they act on behalf of the platform, not a billed account.
func (o *Onboarding) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentity(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized,
				"UNAUTHORIZED", "Authentication failed", nil)
			return
		}

		if identity.System {
			next.ServeHTTP(w, r)
			return
		}

		if identity.AccountID == "" {
			response.Error(w, http.StatusForbidden,
				"ACCOUNT_REQUIRED", "No account is linked to this user", nil)
			return
		}

		account, err := o.accounts.GetByID(r.Context(), identity.AccountID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusForbidden,
					"ACCOUNT_REQUIRED", "No account is linked to this user", nil)
				return
			}
			o.logger.ErrorContext(r.Context(), "account load failed",
				slog.String("account_id", identity.AccountID),
				slog.String("error", err.Error()))
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		if err := o.accounts.CheckTermsAgreed(account); err != nil {
			response.Error(w, http.StatusForbidden,
				"TERMS_NOT_AGREED", "The current terms of service have not been agreed", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
