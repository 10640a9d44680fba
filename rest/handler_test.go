package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ukane-philemon/transcripts/internal/transcript"
)

// Implements TranscriptDatabase.
var _ TranscriptDatabase = (*transcript.Store)(nil)

func newTestRouter(t *testing.T, opts Options) (http.Handler, *transcript.Store) {
	t.Helper()
	store, err := transcript.NewStore(transcript.DefaultGradeBounds)
	require.NoError(t, err)
	return NewHandler(store, zap.NewNop(), opts).Router(), store
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	h, store := newTestRouter(t, Options{})
	_, err := store.AddStudent(context.Background(), "Ada", nil)
	require.NoError(t, err)

	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 1, body["students"])
}

func TestRequestID(t *testing.T) {
	h, _ := newTestRouter(t, Options{})

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestRateLimit(t *testing.T) {
	h, _ := newTestRouter(t, Options{RateLimit: 2})

	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	h, _ := newTestRouter(t, Options{})

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPut, "/transcripts", "").Code)
}

// failingDB returns errors that are not user facing.
type failingDB struct {
	TranscriptDatabase
}

func (failingDB) Transcript(transcript.StudentID) (transcript.Transcript, error) {
	return nil, errors.New("connection reset by peer")
}

func (failingDB) Students() []*transcript.Student {
	panic("boom")
}

func TestServerErrorsAreHidden(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := NewHandler(failingDB{}, zap.New(core), Options{}).Router()

	rec := do(t, h, http.MethodGet, "/transcripts/1", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode[errorResponse](t, rec)
	assert.NotContains(t, body.Error, "connection reset")
	assert.Equal(t, 1, logs.FilterMessage("SERVER ERROR").Len())
}

func TestPanicRecovered(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := NewHandler(failingDB{}, zap.New(core), Options{}).Router()

	rec := do(t, h, http.MethodGet, "/transcripts", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, decode[errorResponse](t, rec).Error)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}
