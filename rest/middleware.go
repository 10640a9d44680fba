package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	customerror "github.com/ukane-philemon/transcripts/internal/errors"
)

const requestIDHeader = "X-Request-ID"

// requestID reuses the caller's request ID or assigns a new one, and stores it
// where middleware.GetReqID finds it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		res.Header().Set(requestIDHeader, id)
		req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, id))
		next.ServeHTTP(res, req)
	})
}

// requestLogger logs every request once it has been served.
func requestLogger(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(res, req.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				log.Info("http request",
					zap.String("method", req.Method),
					zap.String("path", req.URL.Path),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(req.Context())),
				)
			}()

			next.ServeHTTP(ww, req)
		})
	}
}

// recoverer turns a panicking handler into a 500 response.
func recoverer(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", req.URL.Path),
					zap.String("request_id", middleware.GetReqID(req.Context())),
					zap.Stack("stack"),
				)
				writeJSON(res, http.StatusInternalServerError, &errorResponse{Error: (&customerror.ErrorUnknown{}).Error()})
			}()

			next.ServeHTTP(res, req)
		})
	}
}
