package ipfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/url"
	"os"

	"github.com/Ratio1/ipfs_api_go/internal/httpx"
)

// Kind classifies the root cause of a failed call.
type Kind int

const (
	// KindOther covers failures that fit no other category, including
	// request construction errors.
	KindOther Kind = iota
	// KindTransport covers connection, protocol, timeout and non-2xx failures.
	KindTransport
	// KindIO covers local file and buffer read failures.
	KindIO
	// KindDecode covers invalid UTF-8, invalid JSON and shape mismatches.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindIO:
		return "io"
	case KindDecode:
		return "decode"
	default:
		return "other"
	}
}

var (
	// ErrInvalidURI reports a command/argument combination that does not form
	// a structurally valid request URI.
	ErrInvalidURI = errors.New("ipfs: invalid request URI")
	// ErrInvalidUTF8 reports a text response that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("ipfs: response is not valid UTF-8")
)

// Error is the single error type returned by every Client operation and
// decoder.
type Error struct {
	Kind Kind
	// Op names the failing step, e.g. "send version" or "decode add".
	Op string
	// Msg describes failures whose cause carries no useful structure.
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	detail := e.Msg
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("ipfs: %s error: %s", e.Kind, detail)
	}
	return fmt.Sprintf("ipfs: %s: %s error: %s", e.Op, e.Kind, detail)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindIO})
// tests the category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Msg == "" && t.Kind == e.Kind
}

// KindOf reports the category of err. Errors not produced by this package
// are classified with the same rules the client applies internally.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return classify(err)
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool { return err != nil && KindOf(err) == KindTransport }

// IsIO reports whether err is a local I/O failure.
func IsIO(err error) bool { return err != nil && KindOf(err) == KindIO }

// IsDecode reports whether err is a decode failure.
func IsDecode(err error) bool { return err != nil && KindOf(err) == KindDecode }

// wrap converts err into an *Error. Errors that already are *Error keep their
// kind; everything else goes through classify.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	kind := classify(err)
	out := &Error{Kind: kind, Op: op, Err: err}
	if kind == KindOther {
		out.Msg = fmt.Sprintf("%T: %v", err, err)
	}
	return out
}

func newError(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// readFailure labels a failed response body read. A read cut short by a
// timeout, cancellation or the network is Transport; anything else is IO.
func readFailure(ctx context.Context, op string, err error) error {
	kind := KindIO
	if classify(err) == KindTransport || ctx.Err() != nil {
		kind = KindTransport
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// classify holds the mapping rules. Order matters: a *url.Error from
// net/http wraps the dial error, and a decode error can wrap an io error.
func classify(err error) Kind {
	if err == nil {
		return KindOther
	}

	var (
		httpErr    *httpx.HTTPError
		urlErr     *url.Error
		netErr     net.Error
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
		validErr   *ValidationError
		pathErr    *fs.PathError
		syscallErr *os.SyscallError
		linkErr    *os.LinkError
	)
	switch {
	case errors.Is(err, ErrInvalidURI):
		return KindOther
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.As(err, &validErr),
		errors.Is(err, ErrInvalidUTF8):
		return KindDecode
	case errors.As(err, &httpErr), errors.Is(err, httpx.ErrRateLimited):
		return KindTransport
	case errors.As(err, &urlErr), errors.As(err, &netErr):
		return KindTransport
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindTransport
	case errors.As(err, &pathErr), errors.As(err, &syscallErr), errors.As(err, &linkErr):
		return KindIO
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.ErrShortBuffer),
		errors.Is(err, io.ErrClosedPipe), errors.Is(err, fs.ErrNotExist),
		errors.Is(err, fs.ErrPermission):
		return KindIO
	}
	return KindOther
}
