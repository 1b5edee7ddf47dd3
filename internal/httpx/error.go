package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Ratio1/ipfs_api_go/internal/apiwire"
)

// ErrRateLimited is returned when the client-side limiter refuses to wait for
// a token (context done or deadline too close).
var ErrRateLimited = errors.New("httpx: rate limited")

// HTTPError represents a non-2xx HTTP response returned by the daemon.
type HTTPError struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	Daemon     *apiwire.DaemonError
}

func newHTTPError(resp *http.Response, body []byte) *HTTPError {
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Body:       body,
		Header:     resp.Header.Clone(),
		Daemon:     apiwire.ParseDaemonError(body),
	}
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Daemon != nil {
		return fmt.Sprintf("http error: status=%d message=%s", e.StatusCode, e.Daemon.Message)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, string(e.Body))
}

// Message returns the daemon's error message when one was decoded.
func (e *HTTPError) Message() string {
	if e == nil || e.Daemon == nil {
		return ""
	}
	return e.Daemon.Message
}
