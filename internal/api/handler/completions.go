package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	mw "github.com/propscribe/propscribe/internal/api/middleware"
	"github.com/propscribe/propscribe/internal/api/response"
	"github.com/propscribe/propscribe/internal/completion"
	"github.com/propscribe/propscribe/pkg/models"
)

// RecentLister defines the interface the recent-completions handler
// depends on.
type RecentLister interface {
	ListRecentForAccount(ctx context.Context, accountID, completionType string, limit int) ([]*models.Completion, error)
}

// NewRecentCompletionsHandler returns the handler for
// GET /api/v1/completions/recent.
func NewRecentCompletionsHandler(tracker RecentLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := mw.GetIdentity(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication failed", nil)
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"limit must be a positive integer", nil)
				return
			}
			limit = parsed
		}

		cmpls, err := tracker.ListRecentForAccount(r.Context(), identity.AccountID,
			models.CompletionTypeUKPropertyListingV1, limit)
		if err != nil {
			if errors.Is(err, completion.ErrLimitTooHigh) {
				response.Error(w, http.StatusBadRequest, "LIMIT_TOO_HIGH",
					err.Error(), nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		if cmpls == nil {
			cmpls = []*models.Completion{}
		}
		effectiveLimit := limit
		if effectiveLimit == 0 {
			effectiveLimit = completion.MaxRecentListLimit
		}

		response.Collection(w, cmpls, response.ListMeta{
			Limit: effectiveLimit,
			Count: len(cmpls),
		})
	}
}
