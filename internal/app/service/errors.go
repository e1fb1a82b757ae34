package service

import (
	"net/http"

	"github.com/ijalalfrz/flight-segment-search/internal/pkg/exception"
)

var ErrNoActiveSearch = exception.ApplicationError{
	Message:    "no search batch has been started",
	StatusCode: http.StatusNotFound,
}
