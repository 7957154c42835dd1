// Package auth resolves request credentials to identities. Each resolver
// strategy understands one credential shape; a dispatcher picks the
// strategy per deployment configuration.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/propscribe/propscribe/pkg/models"
)

// Sentinel errors for authentication outcomes. Responses carry only the
// sentinel; the wrapped cause is for logs.
var (
	ErrInvalidAuthHeader = errors.New("invalid authorization header")
	ErrUnauthorized      = errors.New("unauthorized")
)

// Resolver turns a raw bearer credential into an Identity.
type Resolver interface {
	// Resolve authenticates rawToken. Failures return ErrUnauthorized
	// (wrapping a cause for logging); other errors mean the resolver
	// itself could not run.
	Resolve(ctx context.Context, rawToken string) (models.Identity, error)
	Name() string
}

// TokenClaims is the verified content of an identity-provider token.
type TokenClaims struct {
	Subject       string
	Audience      []string
	Email         string
	EmailVerified bool
	PhoneNumber   string
}

// TokenVerifier checks a raw identity token's signature and standard
// claims and returns its payload.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*TokenClaims, error)
}

// unauthorized wraps a log-only cause into ErrUnauthorized.
func unauthorized(cause string) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, cause)
}
