package segment

import (
	"net/http"

	"github.com/ijalalfrz/flight-segment-search/internal/pkg/exception"
)

// Messages shown on a segment view.
const (
	MsgNoFlights              = "No flights found for this route and date."
	MsgNoFlightsAfterAttempts = "No flights found after multiple search attempts."
	MsgPartialResults         = "Some results may be missing. The search could not be completed."
	MsgFetchFailedNoResults   = "No flights found. The search could not be completed."
	MsgSubmitFailed           = "Unable to start the search. Please try again."
)

var ErrSubmissionFailed = exception.ApplicationError{
	StatusCode: http.StatusBadGateway,
	Kind:       exception.KindSubmissionFailure,
	Message:    "failed to start remote search",
}

var ErrFetchFailed = exception.ApplicationError{
	StatusCode: http.StatusBadGateway,
	Kind:       exception.KindFetchFailure,
	Message:    "failed to fetch remote search results",
}

var ErrNoResults = exception.ApplicationError{
	StatusCode: http.StatusNotFound,
	Kind:       exception.KindNoResults,
	Message:    "remote search reported no results",
}

var ErrStallTimeout = exception.ApplicationError{
	StatusCode: http.StatusGatewayTimeout,
	Kind:       exception.KindStallTimeout,
	Message:    "remote search stalled without completing",
}

var ErrSegmentNotFound = exception.ApplicationError{
	StatusCode: http.StatusNotFound,
	Message:    "segment not found",
}

var ErrOrchestratorClosed = exception.ApplicationError{
	StatusCode: http.StatusServiceUnavailable,
	Message:    "search orchestrator is closed",
}
