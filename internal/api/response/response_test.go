package response

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, map[string]string{"status": "ok"})

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"status":"ok"}}`, rec.Body.String())
}

func TestCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, map[string]string{"id": "key_1"})

	assert.Equal(t, 201, rec.Code)
	assert.JSONEq(t, `{"data":{"id":"key_1"}}`, rec.Body.String())
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)
	assert.Equal(t, 204, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestCollection(t *testing.T) {
	rec := httptest.NewRecorder()
	Collection(rec, []string{"a", "b"}, ListMeta{Limit: 25, Count: 2})

	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"data":["a","b"],"meta":{"limit":25,"count":2}}`, rec.Body.String())
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, 403, "TERMS_NOT_AGREED", "The current terms of service have not been agreed", nil)

	assert.Equal(t, 403, rec.Code)
	assert.JSONEq(t,
		`{"error":{"code":"TERMS_NOT_AGREED","message":"The current terms of service have not been agreed"}}`,
		rec.Body.String())
}
