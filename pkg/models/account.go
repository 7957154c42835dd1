package models

import "time"

// Account represents a billing/ownership unit. Multiple user principals
// may be linked to one account.
type Account struct {
	ID                 string     `db:"id"                   json:"id"`
	Users              []string   `db:"users"                json:"users"`
	TermsAgreedVersion *string    `db:"terms_agreed_version" json:"terms_agreed_version,omitempty"`
	TermsAgreedAt      *time.Time `db:"terms_agreed_at"      json:"terms_agreed_at,omitempty"`
	TermsAgreedBy      *string    `db:"terms_agreed_by"      json:"terms_agreed_by,omitempty"`
	LastActiveAt       time.Time  `db:"last_active_at"       json:"last_active_at"`
	LastActiveUser     string     `db:"last_active_user"     json:"last_active_user"`
	CreatedAt          time.Time  `db:"created_at"           json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"           json:"updated_at"`
}
