package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/exception"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/logger"
)

const (
	requestIDHeader = "X-Request-Id"
	batchIDHeader   = "X-Batch-Id"
)

var ErrInternal = exception.ApplicationError{
	StatusCode: http.StatusInternalServerError,
	Message:    "internal server error",
}

type MiddlewareFunc func(http.Handler) http.Handler

// Recoverer answers a panicking handler with a JSON 500. The panic is logged
// with the request context, so request and batch ids come along.
func Recoverer(log *slog.Logger) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}

				if err, _ := rvr.(error); errors.Is(err, http.ErrAbortHandler) {
					// aborted responses are not recovered nor logged
					panic(rvr)
				}

				log.ErrorContext(req.Context(), "search handler panicked",
					slog.String("method", req.Method),
					slog.String("path", req.URL.Path),
					slog.Any("panic", rvr),
					slog.String("stack_trace", string(debug.Stack())))

				ErrorResponse(req.Context(), ErrInternal, respWriter)
			}()

			next.ServeHTTP(respWriter, req)
		})
	}
}

// CORSMiddleware set CORS related headers.
func CORSMiddleware() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:8444"}, // allow swagger
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Origin", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, batchIDHeader},
	})
}

// RequestID add request id to context and response header.
func RequestID() MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), logger.RequestIDKey, requestID)
			w.Header().Set(requestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BatchID tags the request context with the batch that is current when the
// request arrives. The id is also echoed in X-Batch-Id. Before the first
// batch nothing is tagged.
func BatchID(current func() string) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			batchID := current()
			if batchID == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set(batchIDHeader, batchID)
			next.ServeHTTP(w, r.WithContext(logger.WithBatchID(r.Context(), batchID)))
		})
	}
}
