package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/render"
	"github.com/ijalalfrz/flight-segment-search/internal/pkg/exception"
)

var ErrInvalidBody = exception.ApplicationError{
	StatusCode: http.StatusBadRequest,
	Message:    "invalid request body",
}

// DecodeRequest decodes an optional JSON body into a new T and lets T bind
// and validate the rest of the request. The endpoint receives a *T.
func DecodeRequest[T any](_ context.Context, r *http.Request) (interface{}, error) {
	var req T

	if r.Body != nil && r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			return nil, ErrInvalidBody.WithCause(err)
		}
	}

	if binder, ok := any(&req).(render.Binder); ok {
		if err := binder.Bind(r); err != nil {
			return nil, err
		}
	}

	return &req, nil
}
