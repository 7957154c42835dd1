// Package api wires the HTTP surface: router, middleware stack, routes.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/propscribe/propscribe/internal/api/middleware"
	"github.com/propscribe/propscribe/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth       *mw.Auth
	Onboarding *mw.Onboarding
	RateLimit  *mw.RateLimit

	HealthHandler          http.HandlerFunc
	GenerateListingHandler http.HandlerFunc
	RecentCompletions      http.HandlerFunc
	GetAccountHandler      http.HandlerFunc
	AgreeTermsHandler      http.HandlerFunc
	CreateKeyHandler       http.HandlerFunc
	ListKeysHandler        http.HandlerFunc
	RevokeKeyHandler       http.HandlerFunc
}

// NewRouter builds the Chi router with the middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		// Onboarding itself: account read creates on first touch, terms
		// agreement unlocks the rest.
		r.Get("/api/v1/account", orNotImplemented(deps.GetAccountHandler))
		r.Post("/api/v1/account/terms", orNotImplemented(deps.AgreeTermsHandler))

		// Paid operations: linked account with current terms required.
		r.Group(func(r chi.Router) {
			r.Use(deps.Onboarding.Require)

			r.Post("/api/v1/listings/description", orNotImplemented(deps.GenerateListingHandler))
			r.Get("/api/v1/completions/recent", orNotImplemented(deps.RecentCompletions))

			r.Post("/api/v1/account/keys", orNotImplemented(deps.CreateKeyHandler))
			r.Get("/api/v1/account/keys", orNotImplemented(deps.ListKeysHandler))
			r.Delete("/api/v1/account/keys/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
