package remotesearch

import (
	"net/http"

	"github.com/ijalalfrz/flight-segment-search/internal/pkg/exception"
)

var ErrConnectionTimeout = exception.ApplicationError{
	StatusCode: http.StatusGatewayTimeout,
	Message:    "remote search connection timeout",
}

var ErrRateLimited = exception.ApplicationError{
	StatusCode: http.StatusTooManyRequests,
	Message:    "remote search rate limit exceeded",
}

var ErrRemoteUnavailable = exception.ApplicationError{
	StatusCode: http.StatusBadGateway,
	Message:    "remote search internal error or temporary unavailable",
}

var ErrSearchNotFound = exception.ApplicationError{
	StatusCode: http.StatusNotFound,
	Message:    "remote search not found",
}

var ErrInvalidResponse = exception.ApplicationError{
	StatusCode: http.StatusBadGateway,
	Kind:       exception.KindInvalidResponse,
	Message:    "invalid remote search response",
}

var ErrSearchRejected = exception.ApplicationError{
	StatusCode: http.StatusBadRequest,
	Message:    "remote search rejected the request",
}
