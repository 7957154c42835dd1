package middleware

import (
	"context"
	"net/http"

	"github.com/propscribe/propscribe/pkg/models"
)

type contextKey string

const identityKey contextKey = "identity"

// SetIdentity attaches the authenticated identity to the context. The
// auth middleware is the only writer.
func SetIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity returns the request's authenticated identity.
func GetIdentity(r *http.Request) (models.Identity, bool) {
	identity, ok := r.Context().Value(identityKey).(models.Identity)
	return identity, ok
}
