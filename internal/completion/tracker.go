// Package completion tracks generation attempts as durable records.
// Every attempt is written pending before any provider call and settled
// exactly once afterwards, so spend is auditable even across crashes.
package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/propscribe/propscribe/internal/cache"
	"github.com/propscribe/propscribe/internal/ids"
	"github.com/propscribe/propscribe/internal/store"
	"github.com/propscribe/propscribe/pkg/models"
)

// MaxRecentListLimit caps how many completions one list call may return.
const MaxRecentListLimit = 25

// statusCacheTTL bounds how long settled statuses linger in the cache.
const statusCacheTTL = 24 * time.Hour

var (
	// ErrUnknownType means a caller asked for a completion type this
	// service does not run. That is an integrity bug, not user error.
	ErrUnknownType = errors.New("unknown completion type")
	// ErrLimitTooHigh is returned before the store is touched.
	ErrLimitTooHigh = fmt.Errorf("list limit exceeds maximum of %d", MaxRecentListLimit)
)

var knownTypes = map[string]bool{
	models.CompletionTypeUKPropertyListingV1: true,
}

// Tracker owns the completion lifecycle.
type Tracker struct {
	store     store.Store
	cache     cache.Cache
	envPrefix string
	logger    *slog.Logger
}

// NewTracker creates a completion tracker.
func NewTracker(st store.Store, c cache.Cache, envPrefix string, logger *slog.Logger) *Tracker {
	return &Tracker{store: st, cache: c, envPrefix: envPrefix, logger: logger}
}

// CreatePending records a new attempt before any provider work starts.
// requestParams is stored verbatim for audit.
func (t *Tracker) CreatePending(ctx context.Context, accountID, userID, completionType string, requestParams any) (*models.Completion, error) {
	if !knownTypes[completionType] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, completionType)
	}

	params, err := json.Marshal(requestParams)
	if err != nil {
		return nil, fmt.Errorf("marshaling request params: %w", err)
	}

	now := time.Now().UTC()
	cmpl := &models.Completion{
		ID:            ids.New(t.envPrefix, ids.KindCompletion),
		AccountID:     accountID,
		UserID:        userID,
		Type:          completionType,
		Status:        models.CompletionStatusPending,
		RequestParams: params,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := t.store.CreateCompletion(ctx, cmpl); err != nil {
		return nil, fmt.Errorf("creating completion record: %w", err)
	}

	t.cacheStatus(ctx, cmpl.ID, models.CompletionStatusPending)

	t.logger.InfoContext(ctx, "completion created",
		slog.String("completion_id", cmpl.ID),
		slog.String("account_id", accountID),
		slog.String("type", completionType))

	return cmpl, nil
}

// UpdateSuccess settles a pending completion with its provider result.
// A completion that already settled returns store.ErrAlreadySettled.
func (t *Tracker) UpdateSuccess(ctx context.Context, id string, result models.CompletionResult) error {
	err := t.store.SettleCompletion(ctx, id, models.CompletionStatusSuccess, store.WithResult(result))
	if err != nil {
		return err
	}

	t.cacheStatus(ctx, id, models.CompletionStatusSuccess)

	t.logger.InfoContext(ctx, "completion settled",
		slog.String("completion_id", id),
		slog.String("status", models.CompletionStatusSuccess),
		slog.Int64("latency_ms", result.LatencyMS),
		slog.Int("total_tokens", result.Usage.TotalTokens))

	return nil
}

// UpdateFailed settles a pending completion with a failure reason.
func (t *Tracker) UpdateFailed(ctx context.Context, id, reason string) error {
	err := t.store.SettleCompletion(ctx, id, models.CompletionStatusFailed, store.WithFailureReason(reason))
	if err != nil {
		return err
	}

	t.cacheStatus(ctx, id, models.CompletionStatusFailed)

	t.logger.WarnContext(ctx, "completion settled",
		slog.String("completion_id", id),
		slog.String("status", models.CompletionStatusFailed),
		slog.String("reason", reason))

	return nil
}

// Get returns a completion by id.
func (t *Tracker) Get(ctx context.Context, id string) (*models.Completion, error) {
	return t.store.GetCompletion(ctx, id)
}

// Status returns a completion's current status, served from the cache
// when possible.
func (t *Tracker) Status(ctx context.Context, id string) (string, error) {
	status, ok, err := t.cache.GetCompletionStatus(ctx, id)
	if err == nil && ok {
		return status, nil
	}
	if err != nil {
		t.logger.WarnContext(ctx, "completion status cache read failed",
			slog.String("completion_id", id),
			slog.String("error", err.Error()))
	}

	cmpl, err := t.store.GetCompletion(ctx, id)
	if err != nil {
		return "", err
	}
	t.cacheStatus(ctx, id, cmpl.Status)
	return cmpl.Status, nil
}

// ListRecentForAccount returns the account's successful completions of
// the given type, newest first. The limit is validated before the store
// is touched.
func (t *Tracker) ListRecentForAccount(ctx context.Context, accountID, completionType string, limit int) ([]*models.Completion, error) {
	if !knownTypes[completionType] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, completionType)
	}
	if limit > MaxRecentListLimit {
		return nil, ErrLimitTooHigh
	}
	if limit <= 0 {
		limit = MaxRecentListLimit
	}

	return t.store.ListRecentCompletions(ctx, accountID, completionType, limit)
}

// cacheStatus mirrors a status into the cache. Failures are logged and
// swallowed; the store remains the source of truth.
func (t *Tracker) cacheStatus(ctx context.Context, id, status string) {
	if err := t.cache.SetCompletionStatus(ctx, id, status, statusCacheTTL); err != nil {
		t.logger.WarnContext(ctx, "completion status cache write failed",
			slog.String("completion_id", id),
			slog.String("error", err.Error()))
	}
}
