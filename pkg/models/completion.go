package models

import (
	"encoding/json"
	"time"
)

const (
	CompletionStatusPending = "pending"
	CompletionStatusSuccess = "success"
	CompletionStatusFailed  = "failed"
)

// CompletionTypeUKPropertyListingV1 is the workflow discriminator for UK
// property listing description generation.
const CompletionTypeUKPropertyListingV1 = "uk_property_listing_v1"

// Completion is the durable audit record of one generation attempt.
// Status moves pending -> success or pending -> failed, never back.
type Completion struct {
	ID                    string          `db:"id"                      json:"id"`
	AccountID             string          `db:"account_id"              json:"account_id"`
	UserID                string          `db:"user_id"                 json:"user_id"`
	Type                  string          `db:"type"                    json:"type"`
	Status                string          `db:"status"                  json:"status"`
	RequestParams         json.RawMessage `db:"request_params"          json:"request_params,omitempty"`
	LatencyMS             *int64          `db:"latency_ms"              json:"latency_ms,omitempty"`
	ProviderCompletionID  *string         `db:"provider_completion_id"  json:"provider_completion_id,omitempty"`
	Usage                 *TokenUsage     `db:"usage"                   json:"usage,omitempty"`
	Response              *string         `db:"response"                json:"response,omitempty"`
	FailureReason         *string         `db:"failure_reason"          json:"failure_reason,omitempty"`
	CreatedAt             time.Time       `db:"created_at"              json:"created_at"`
	UpdatedAt             time.Time       `db:"updated_at"              json:"updated_at"`
}

// TokenUsage mirrors the token accounting returned by the model provider.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResult holds the success fields written when a pending
// completion settles successfully.
type CompletionResult struct {
	LatencyMS            int64
	ProviderCompletionID string
	Usage                TokenUsage
	Response             string
}
