package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/propscribe/propscribe/internal/apikeys"
	mw "github.com/propscribe/propscribe/internal/api/middleware"
	"github.com/propscribe/propscribe/internal/api/response"
	"github.com/propscribe/propscribe/internal/store"
)

type createdKeyResponse struct {
	ID        string    `json:"id"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCreateKeyHandler returns the handler for POST /api/v1/account/keys.
// The secret appears in this response and nowhere else, ever.
func NewCreateKeyHandler(keys *apikeys.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication failed", nil)
			return
		}

		created, err := keys.Create(r.Context(), identity.AccountID, identity.UserID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.Created(w, createdKeyResponse{
			ID:        created.Key.ID,
			Secret:    created.Secret,
			CreatedAt: created.Key.CreatedAt,
		})
	}
}

// NewListKeysHandler returns the handler for GET /api/v1/account/keys.
func NewListKeysHandler(keys *apikeys.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication failed", nil)
			return
		}

		active, err := keys.ListActive(r.Context(), identity.AccountID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, active)
	}
}

// NewRevokeKeyHandler returns the handler for
// DELETE /api/v1/account/keys/{keyID}.
func NewRevokeKeyHandler(keys *apikeys.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication failed", nil)
			return
		}

		keyID := chi.URLParam(r, "keyID")
		if err := keys.Revoke(r.Context(), identity.AccountID, keyID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "API key not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.NoContent(w)
	}
}
