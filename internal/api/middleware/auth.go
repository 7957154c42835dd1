package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/propscribe/propscribe/internal/api/response"
	"github.com/propscribe/propscribe/internal/auth"
)

// Auth authenticates requests through the resolver dispatcher and
// publishes the resulting identity into the request context.
type Auth struct {
	dispatcher   *auth.Dispatcher
	resolverName string
	logger       *slog.Logger
}

// NewAuth creates the auth middleware. resolverName selects which
// resolver strategy these routes authenticate with.
func NewAuth(dispatcher *auth.Dispatcher, resolverName string, logger *slog.Logger) *Auth {
	return &Auth{dispatcher: dispatcher, resolverName: resolverName, logger: logger}
}

// Authenticate extracts the bearer credential, resolves it, and sets the
// identity in context. Failure causes are logged, never echoed back.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawToken := extractBearerToken(r)
		if rawToken == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_AUTH_HEADER", "Missing or invalid Authorization header", nil)
			return
		}

		identity, err := a.dispatcher.Authenticate(r.Context(), a.resolverName, rawToken)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				a.logger.InfoContext(r.Context(), "authentication rejected",
					slog.String("path", r.URL.Path),
					slog.String("cause", err.Error()))
				response.Error(w, http.StatusUnauthorized,
					"UNAUTHORIZED", "Authentication failed", nil)
				return
			}
			a.logger.ErrorContext(r.Context(), "authentication errored",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()))
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), identity)))
	})
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
