package supersethandler

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/pkg/errors"
)

type ErrorKind string

const (
	// KindUpstreamAuth: the broker's own admin login was rejected.
	KindUpstreamAuth ErrorKind = "upstream_auth"
	// KindUpstreamRequest: the guest token request was rejected.
	KindUpstreamRequest ErrorKind = "upstream_request"
	// KindUpstreamProtocol: a 2xx answer lacked an expected field or claim.
	KindUpstreamProtocol ErrorKind = "upstream_protocol"
	// KindUpstreamUnavailable: Superset could not be reached in time.
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
)

// Error is returned by every broker operation. StatusCode is the status the
// inbound caller should see.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	cause      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind ErrorKind, statusCode int, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:       kind,
		StatusCode: statusCode,
		Message:    fmt.Sprintf(format, args...),
		cause:      cause,
	}
}

func protocolError(cause error, message string) *Error {
	return newError(KindUpstreamProtocol, http.StatusInternalServerError, cause, "%s", message)
}

// transportError maps a failed round trip: timeouts become 504, anything else 503.
func transportError(err error, what string) *Error {
	if isTimeout(err) {
		return newError(KindUpstreamUnavailable, http.StatusGatewayTimeout, err,
			"Timeout connecting to Superset API %s.", what)
	}
	return newError(KindUpstreamUnavailable, http.StatusServiceUnavailable, err,
		"Could not connect to Superset API %s: %v", what, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// AsError extracts a broker error from err, if there is one.
func AsError(err error) (*Error, bool) {
	var brokerErr *Error
	if errors.As(err, &brokerErr) {
		return brokerErr, true
	}
	return nil, false
}
