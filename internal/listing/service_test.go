package listing

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscribe/propscribe/internal/completion"
	"github.com/propscribe/propscribe/internal/llm"
	"github.com/propscribe/propscribe/internal/location"
	"github.com/propscribe/propscribe/internal/store"
	"github.com/propscribe/propscribe/pkg/models"
)

type mockStore struct {
	store.Store
	completions  map[string]*models.Completion
	settled      map[string]store.SettleParams
	settleCtxErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		completions: make(map[string]*models.Completion),
		settled:     make(map[string]store.SettleParams),
	}
}

func (s *mockStore) CreateCompletion(_ context.Context, cmpl *models.Completion) error {
	cp := *cmpl
	s.completions[cmpl.ID] = &cp
	return nil
}

func (s *mockStore) SettleCompletion(ctx context.Context, id string, status string, opts ...store.SettleOption) error {
	s.settleCtxErr = ctx.Err()
	c, ok := s.completions[id]
	if !ok {
		return store.ErrNotFound
	}
	if c.Status != models.CompletionStatusPending {
		return store.ErrAlreadySettled
	}
	c.Status = status
	s.settled[id] = store.ApplySettleOptions(opts)
	return nil
}

type mockCache struct {
	statuses map[string]string
}

func newMockCache() *mockCache { return &mockCache{statuses: make(map[string]string)} }

func (c *mockCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (c *mockCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (c *mockCache) Delete(context.Context, string) error                     { return nil }
func (c *mockCache) Ping(context.Context) error                               { return nil }
func (c *mockCache) SetCompletionStatus(_ context.Context, id, status string, _ time.Duration) error {
	c.statuses[id] = status
	return nil
}
func (c *mockCache) GetCompletionStatus(context.Context, string) (string, bool, error) {
	return "", false, nil
}
func (c *mockCache) IncrWithExpiry(context.Context, string, time.Duration) (int64, error) {
	return 0, nil
}

type fakePostcodes struct {
	coords location.Coordinates
	err    error
}

func (f *fakePostcodes) Lookup(context.Context, string) (location.Coordinates, error) {
	return f.coords, f.err
}

type fakePlaces struct {
	results map[string][]location.Place
	err     error
}

func (f *fakePlaces) Nearby(_ context.Context, _ location.Coordinates, _ int, keyword string) ([]location.Place, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results[keyword], nil
}

type fakeChat struct {
	result llm.ChatResult
	err    error
	calls  int
	onChat func(messages []llm.Message, params llm.ChatParams)
}

func (f *fakeChat) Chat(_ context.Context, messages []llm.Message, params llm.ChatParams) (llm.ChatResult, error) {
	f.calls++
	if f.onChat != nil {
		f.onChat(messages, params)
	}
	if f.err != nil {
		return llm.ChatResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeChat) Name() string { return "fake" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceFixture struct {
	svc   *Service
	store *mockStore
	chat  *fakeChat
}

func newFixture(postcodes *fakePostcodes, places *fakePlaces, chat *fakeChat) serviceFixture {
	st := newMockStore()
	tracker := completion.NewTracker(st, newMockCache(), "test", testLogger())
	locations := location.NewService(postcodes, places)
	svc := NewService(locations, tracker, chat, "gpt-3.5-turbo", 30*time.Second, testLogger())
	return serviceFixture{svc: svc, store: st, chat: chat}
}

func happyPostcodes() *fakePostcodes {
	return &fakePostcodes{coords: location.Coordinates{Lat: 51.514249, Lon: -0.073973}}
}

func happyPlaces() *fakePlaces {
	return &fakePlaces{results: map[string][]location.Place{
		"railway station": {{Name: "Aldgate East Station", Lat: 51.51522, Lon: -0.07225}},
	}}
}

func TestService_Generate_Success(t *testing.T) {
	chat := &fakeChat{result: llm.ChatResult{
		Text:                 "A charming terraced house moments from Aldgate East Station.",
		ProviderCompletionID: "chatcmpl-abc",
		Usage:                models.TokenUsage{PromptTokens: 100, CompletionTokens: 150, TotalTokens: 250},
		Latency:              420 * time.Millisecond,
	}}
	f := newFixture(happyPostcodes(), happyPlaces(), chat)

	chat.onChat = func(messages []llm.Message, params llm.ChatParams) {
		// The pending record must exist before the model is called.
		require.Len(t, f.store.completions, 1)
		for _, c := range f.store.completions {
			assert.Equal(t, models.CompletionStatusPending, c.Status)
		}

		assert.Equal(t, "gpt-3.5-turbo", params.Model)
		assert.Equal(t, 512, params.MaxTokens)
		assert.InDelta(t, 0.5, params.Temperature, 1e-6)
		assert.Equal(t, "acct_1", params.User)

		require.Len(t, messages, 2)
		assert.Contains(t, messages[1].Content, "Aldgate East Station")
	}

	text, err := f.svc.Generate(context.Background(), "acct_1", "usr_1", baseParams())
	require.NoError(t, err)
	assert.Equal(t, chat.result.Text, text)

	require.Len(t, f.store.completions, 1)
	for id, c := range f.store.completions {
		assert.Equal(t, models.CompletionStatusSuccess, c.Status)
		assert.Equal(t, models.CompletionTypeUKPropertyListingV1, c.Type)
		assert.Equal(t, "acct_1", c.AccountID)
		assert.Equal(t, "usr_1", c.UserID)

		// Audit snapshot covers model options, params and enrichment.
		body := string(c.RequestParams)
		assert.Contains(t, body, `"model":"gpt-3.5-turbo"`)
		assert.Contains(t, body, `"postcode":"E1 7JF"`)
		assert.Contains(t, body, "Aldgate East Station")

		settled := f.store.settled[id]
		require.NotNil(t, settled.Result)
		assert.Equal(t, int64(420), settled.Result.LatencyMS)
		assert.Equal(t, "chatcmpl-abc", settled.Result.ProviderCompletionID)
		assert.Equal(t, 250, settled.Result.Usage.TotalTokens)
	}
}

func TestService_Generate_InvalidPostcodeFailsFast(t *testing.T) {
	f := newFixture(&fakePostcodes{err: location.ErrInvalidPostcode}, happyPlaces(), &fakeChat{})

	_, err := f.svc.Generate(context.Background(), "acct_1", "usr_1", baseParams())
	assert.ErrorIs(t, err, location.ErrInvalidPostcode)

	// Nothing tracked, nothing called.
	assert.Empty(t, f.store.completions)
	assert.Zero(t, f.chat.calls)
}

func TestService_Generate_EnrichmentFailureFailsFast(t *testing.T) {
	f := newFixture(happyPostcodes(), &fakePlaces{err: location.ErrPlacesQueryError}, &fakeChat{})

	_, err := f.svc.Generate(context.Background(), "acct_1", "usr_1", baseParams())
	assert.ErrorIs(t, err, location.ErrPlacesQueryError)
	assert.Empty(t, f.store.completions)
	assert.Zero(t, f.chat.calls)
}

func TestService_Generate_ChatFailureSettlesFailed(t *testing.T) {
	chat := &fakeChat{err: llm.ErrProviderUnavailable}
	f := newFixture(happyPostcodes(), happyPlaces(), chat)

	_, err := f.svc.Generate(context.Background(), "acct_1", "usr_1", baseParams())
	require.ErrorIs(t, err, ErrGenerationFailed)
	// The provider error never leaks into the caller-facing error.
	assert.NotContains(t, err.Error(), llm.ErrProviderUnavailable.Error())

	require.Len(t, f.store.completions, 1)
	for id, c := range f.store.completions {
		assert.Equal(t, models.CompletionStatusFailed, c.Status)
		settled := f.store.settled[id]
		require.NotNil(t, settled.FailureReason)
		assert.Equal(t, "provider_unavailable", *settled.FailureReason)
	}
}

func TestService_Generate_TimeoutReason(t *testing.T) {
	chat := &fakeChat{err: llm.ErrInferenceTimeout}
	f := newFixture(happyPostcodes(), happyPlaces(), chat)

	_, err := f.svc.Generate(context.Background(), "acct_1", "usr_1", baseParams())
	require.ErrorIs(t, err, ErrGenerationFailed)

	for id := range f.store.completions {
		settled := f.store.settled[id]
		require.NotNil(t, settled.FailureReason)
		assert.Equal(t, "inference_timeout", *settled.FailureReason)
	}
}

func TestService_Generate_SettlesFailedAfterClientDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	chat := &fakeChat{err: context.Canceled}
	chat.onChat = func([]llm.Message, llm.ChatParams) { cancel() }
	f := newFixture(happyPostcodes(), happyPlaces(), chat)

	_, err := f.svc.Generate(ctx, "acct_1", "usr_1", baseParams())
	require.ErrorIs(t, err, ErrGenerationFailed)

	// The settlement write runs on a live context even though the
	// request context is gone, so the record reaches a terminal state.
	assert.NoError(t, f.store.settleCtxErr)
	require.Len(t, f.store.completions, 1)
	for _, c := range f.store.completions {
		assert.Equal(t, models.CompletionStatusFailed, c.Status)
	}
}

func TestService_Generate_SettlesSuccessAfterClientDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	chat := &fakeChat{result: llm.ChatResult{Text: "A bright first-floor flat."}}
	chat.onChat = func([]llm.Message, llm.ChatParams) { cancel() }
	f := newFixture(happyPostcodes(), happyPlaces(), chat)

	text, err := f.svc.Generate(ctx, "acct_1", "usr_1", baseParams())
	require.NoError(t, err)
	assert.Equal(t, "A bright first-floor flat.", text)

	assert.NoError(t, f.store.settleCtxErr)
	for _, c := range f.store.completions {
		assert.Equal(t, models.CompletionStatusSuccess, c.Status)
	}
}

func TestService_Generate_NoNearbyResultsStillGenerates(t *testing.T) {
	chat := &fakeChat{result: llm.ChatResult{Text: "A quiet rural home."}}
	chat.onChat = func(messages []llm.Message, _ llm.ChatParams) {
		assert.Contains(t, messages[1].Content, noNearbyFallback)
	}
	f := newFixture(happyPostcodes(), &fakePlaces{}, chat)

	text, err := f.svc.Generate(context.Background(), "acct_1", "usr_1", baseParams())
	require.NoError(t, err)
	assert.Equal(t, "A quiet rural home.", text)
	assert.Equal(t, 1, chat.calls)
}
