package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/etnz/tradesim"
	"github.com/etnz/tradesim/analysis"
	"github.com/etnz/tradesim/auth"
	"github.com/etnz/tradesim/logging"
	"github.com/etnz/tradesim/session"
)

// HTTPError is an error with the status code to answer.
type HTTPError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
}

func (e *HTTPError) Error() string { return e.Message }

func NewHTTPError(code int, message string) error {
	return &HTTPError{Code: code, Message: message}
}

func BadRequest(message string) error { return NewHTTPError(http.StatusBadRequest, message) }

func Unauthorized(message string) error { return NewHTTPError(http.StatusUnauthorized, message) }

func Unavailable(message string) error {
	return NewHTTPError(http.StatusServiceUnavailable, message)
}

// statusOf maps an error to the status code of its answer.
func statusOf(err error) int {
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case tradesim.IsDeclined(err), errors.Is(err, analysis.ErrNoHoldings):
		return http.StatusUnprocessableEntity
	case errors.Is(err, tradesim.ErrUnknownTicker):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrLoggedOut), errors.Is(err, auth.ErrInvalidCredential):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// HandleErrors answers err as {"error": "..."}.
func HandleErrors(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	log := logging.FromContext(r.Context()).WithError(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Debug("request refused")
	}
	respond(w, r, map[string]string{"error": err.Error()}, status)
}
