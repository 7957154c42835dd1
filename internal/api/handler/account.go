package handler

import (
	"net/http"

	"github.com/propscribe/propscribe/internal/accounts"
	mw "github.com/propscribe/propscribe/internal/api/middleware"
	"github.com/propscribe/propscribe/internal/api/response"
	"github.com/propscribe/propscribe/pkg/models"
)

type accountResponse struct {
	Account                    *models.Account `json:"account"`
	LatestRequiredTermsVersion string          `json:"latest_required_terms_version"`
	TermsCurrent               bool            `json:"terms_current"`
}

// NewGetAccountHandler returns the handler for GET /api/v1/account. A
// first call from an end user creates their account, which is what makes
// onboarding start here.
func NewGetAccountHandler(accts *accounts.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication failed", nil)
			return
		}
		if identity.System {
			response.Error(w, http.StatusForbidden, "ACCOUNT_REQUIRED",
				"System callers have no account", nil)
			return
		}

		account, err := accts.EnsureForUser(r.Context(), identity.UserID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, accountResponse{
			Account:                    account,
			LatestRequiredTermsVersion: accounts.LatestRequiredTermsVersion,
			TermsCurrent:               accts.CheckTermsAgreed(account) == nil,
		})
	}
}

// NewAgreeTermsHandler returns the handler for POST /api/v1/account/terms.
// Agreement is always for the latest required version; the body is empty.
func NewAgreeTermsHandler(accts *accounts.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication failed", nil)
			return
		}
		if identity.System {
			response.Error(w, http.StatusForbidden, "ACCOUNT_REQUIRED",
				"System callers have no account", nil)
			return
		}

		account, err := accts.EnsureForUser(r.Context(), identity.UserID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		if err := accts.AgreeTerms(r.Context(), account.ID, identity.UserID); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		account, err = accts.GetByID(r.Context(), account.ID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, accountResponse{
			Account:                    account,
			LatestRequiredTermsVersion: accounts.LatestRequiredTermsVersion,
			TermsCurrent:               true,
		})
	}
}
