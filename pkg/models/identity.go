// Package models contains shared data models used across the propscribe codebase.
package models

// Identity is the normalized result of authenticating a request. It is
// produced fresh per request by an auth resolver and never persisted.
type Identity struct {
	// System is true only for the inter-service principal.
	System bool
	// UserID is the namespaced principal id. For API-key callers this is
	// the key's own id (keys act as service-style sub-principals).
	UserID string
	// AccountID is empty until the user has been linked to an account.
	AccountID string
	// PhoneNumber is the verified phone number carried by end-user tokens.
	PhoneNumber string
}
