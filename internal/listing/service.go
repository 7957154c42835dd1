package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/propscribe/propscribe/internal/completion"
	"github.com/propscribe/propscribe/internal/llm"
	"github.com/propscribe/propscribe/internal/location"
	"github.com/propscribe/propscribe/internal/store"
	"github.com/propscribe/propscribe/pkg/models"
)

// Model options for listing generation. Fixed per completion type so
// stored records stay comparable.
const (
	generationMaxTokens   = 512
	generationTemperature = 0.5
)

// settleTimeout bounds the settlement write after the model call.
const settleTimeout = 5 * time.Second

// ErrGenerationFailed is the generic error callers see when the model
// call fails. The specific provider failure lives in the completion
// record and the logs, never in the response.
var ErrGenerationFailed = errors.New("listing generation failed")

// Service orchestrates listing description generation.
type Service struct {
	locations        *location.Service
	tracker          *completion.Tracker
	chat             llm.ChatClient
	model            string
	inferenceTimeout time.Duration
	logger           *slog.Logger
}

// NewService creates the generation orchestrator.
func NewService(locations *location.Service, tracker *completion.Tracker, chat llm.ChatClient, model string, inferenceTimeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		locations:        locations,
		tracker:          tracker,
		chat:             chat,
		model:            model,
		inferenceTimeout: inferenceTimeout,
		logger:           logger,
	}
}

// modelOptions is the audit snapshot of the per-call model parameters.
type modelOptions struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

// requestAudit is persisted verbatim on the pending completion so every
// attempt can be replayed and billed from its record alone.
type requestAudit struct {
	ModelOptions     modelOptions         `json:"model_options"`
	UKPropertyParams Params               `json:"uk_property_params"`
	Location         models.Location      `json:"location"`
	NearbyLocations  []models.NearbyPlace `json:"nearby_locations"`
}

// Generate produces a listing description for the given property. An
// unresolvable postcode fails fast before any record is created; once a
// pending record exists it is always settled, success or failure.
func (s *Service) Generate(ctx context.Context, accountID, userID string, params Params) (string, error) {
	loc, err := s.locations.Geocode(ctx, params.Postcode)
	if err != nil {
		return "", err
	}

	places, err := s.locations.NearbyPlaces(ctx, loc)
	if err != nil {
		return "", err
	}

	messages := ComposePrompt(params, places)

	opts := modelOptions{
		Model:       s.model,
		MaxTokens:   generationMaxTokens,
		Temperature: generationTemperature,
	}

	cmpl, err := s.tracker.CreatePending(ctx, accountID, userID, models.CompletionTypeUKPropertyListingV1, requestAudit{
		ModelOptions:     opts,
		UKPropertyParams: params,
		Location:         loc,
		NearbyLocations:  places,
	})
	if err != nil {
		return "", err
	}

	chatCtx, cancel := context.WithTimeout(ctx, s.inferenceTimeout)
	defer cancel()

	result, err := s.chat.Chat(chatCtx, messages, llm.ChatParams{
		Model:       opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		User:        accountID,
	})
	if err != nil {
		s.settleFailed(ctx, cmpl.ID, err)
		return "", fmt.Errorf("%w: %s", ErrGenerationFailed, "model call failed")
	}

	settleCtx, settleCancel := settleContext(ctx)
	defer settleCancel()

	if err := s.tracker.UpdateSuccess(settleCtx, cmpl.ID, models.CompletionResult{
		LatencyMS:            result.Latency.Milliseconds(),
		ProviderCompletionID: result.ProviderCompletionID,
		Usage:                result.Usage,
		Response:             result.Text,
	}); err != nil {
		// The text exists and the caller paid for it; a settlement problem
		// is logged, not surfaced.
		s.logger.ErrorContext(ctx, "settling successful completion failed",
			slog.String("completion_id", cmpl.ID),
			slog.String("error", err.Error()))
	}

	return result.Text, nil
}

// settleContext detaches settlement from the request context so a
// client disconnect cannot strand a pending record.
func settleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

// settleFailed records the failure reason best effort.
func (s *Service) settleFailed(ctx context.Context, completionID string, cause error) {
	s.logger.WarnContext(ctx, "listing generation failed",
		slog.String("completion_id", completionID),
		slog.String("provider", s.chat.Name()),
		slog.String("error", cause.Error()))

	settleCtx, cancel := settleContext(ctx)
	defer cancel()

	err := s.tracker.UpdateFailed(settleCtx, completionID, failureReason(cause))
	if err != nil && !errors.Is(err, store.ErrAlreadySettled) {
		s.logger.ErrorContext(ctx, "settling failed completion failed",
			slog.String("completion_id", completionID),
			slog.String("error", err.Error()))
	}
}

// failureReason collapses provider errors to the stable reason strings
// persisted on failed completions.
func failureReason(err error) string {
	switch {
	case errors.Is(err, llm.ErrInferenceTimeout) || errors.Is(err, context.DeadlineExceeded):
		return "inference_timeout"
	case errors.Is(err, llm.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, llm.ErrProviderUnavailable):
		return "provider_unavailable"
	default:
		return err.Error()
	}
}
