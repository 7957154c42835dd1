package models

import "time"

// APIKey is a long-lived credential bound to an account. Raw secrets are
// shown once at creation; only the deterministic SHA-256 hash is stored.
type APIKey struct {
	ID          string     `db:"id"           json:"id"`
	AccountID   string     `db:"account_id"   json:"account_id"`
	CreatedBy   string     `db:"created_by"   json:"created_by"`
	HashedToken string     `db:"hashed_token" json:"-"`
	RevokedAt   *time.Time `db:"revoked_at"   json:"revoked_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"   json:"updated_at"`
}

// APIKeyWithSecret pairs a freshly created key with its one-time secret.
type APIKeyWithSecret struct {
	Key    *APIKey
	Secret string
}
