package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"go.uber.org/zap"

	"github.com/ukane-philemon/transcripts/internal/db"
	customerror "github.com/ukane-philemon/transcripts/internal/errors"
	"github.com/ukane-philemon/transcripts/internal/transcript"
)

// maxBodyBytes caps the size of request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// handleError writes user facing errors as 400 responses. Any other error is
// logged and replaced with a generic 500 response.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, db.ErrorInvalidRequest) {
		writeJSON(w, http.StatusBadRequest, &errorResponse{Error: err.Error()})
		return
	}

	h.log.Error("SERVER ERROR",
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
	writeJSON(w, http.StatusInternalServerError, &errorResponse{Error: (&customerror.ErrorUnknown{}).Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readJSON decodes the request body into v.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", db.ErrorInvalidInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must contain a single JSON value", db.ErrorInvalidInput)
	}
	return nil
}

func studentIDParam(r *http.Request) (transcript.StudentID, error) {
	raw := chi.URLParam(r, "studentID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid student ID %q", db.ErrorInvalidInput, raw)
	}
	return transcript.StudentID(id), nil
}

// courseParam returns the decoded course. chi matches against RawPath when it
// is set, so only then is the parameter still escaped.
func courseParam(r *http.Request) (transcript.Course, error) {
	raw := chi.URLParam(r, "courseNumber")
	if r.URL.RawPath == "" {
		return transcript.Course(raw), nil
	}

	course, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid course %q", db.ErrorInvalidInput, raw)
	}
	return transcript.Course(course), nil
}
