package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	mw "github.com/propscribe/propscribe/internal/api/middleware"
	"github.com/propscribe/propscribe/internal/completion"
	"github.com/propscribe/propscribe/pkg/models"
)

type fakeLister struct {
	cmpls     []*models.Completion
	err       error
	accountID string
	limit     int
	calls     int
}

func (f *fakeLister) ListRecentForAccount(_ context.Context, accountID, _ string, limit int) ([]*models.Completion, error) {
	f.calls++
	f.accountID = accountID
	f.limit = limit
	return f.cmpls, f.err
}

func recentRequest(query string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/completions/recent"+query, nil)
	return req.WithContext(mw.SetIdentity(req.Context(), models.Identity{
		UserID:    "usr_1",
		AccountID: "acct_1",
	}))
}

func TestRecentCompletionsHandler(t *testing.T) {
	t.Run("returns completions with meta", func(t *testing.T) {
		lister := &fakeLister{cmpls: []*models.Completion{
			{ID: "cmpl_1", Status: models.CompletionStatusSuccess},
		}}
		rec := httptest.NewRecorder()

		NewRecentCompletionsHandler(lister).ServeHTTP(rec, recentRequest("?limit=5"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "acct_1", lister.accountID)
		assert.Equal(t, 5, lister.limit)
		assert.Contains(t, rec.Body.String(), "cmpl_1")
		assert.Contains(t, rec.Body.String(), `"limit":5`)
		assert.Contains(t, rec.Body.String(), `"count":1`)
	})

	t.Run("empty history is an empty array", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewRecentCompletionsHandler(&fakeLister{}).ServeHTTP(rec, recentRequest(""))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"data":[]`)
	})

	t.Run("malformed limit", func(t *testing.T) {
		lister := &fakeLister{}
		rec := httptest.NewRecorder()
		NewRecentCompletionsHandler(lister).ServeHTTP(rec, recentRequest("?limit=abc"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, lister.calls)
	})

	t.Run("limit above maximum", func(t *testing.T) {
		lister := &fakeLister{err: completion.ErrLimitTooHigh}
		rec := httptest.NewRecorder()
		NewRecentCompletionsHandler(lister).ServeHTTP(rec, recentRequest("?limit=26"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "LIMIT_TOO_HIGH")
	})

	t.Run("tracker failure is a 500", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewRecentCompletionsHandler(&fakeLister{err: assert.AnError}).ServeHTTP(rec, recentRequest(""))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
