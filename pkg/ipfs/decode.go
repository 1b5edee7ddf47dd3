package ipfs

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/Ratio1/ipfs_api_go/internal/apiwire"
)

// ValidationError reports a JSON document that parsed but does not match the
// shape the result type requires.
type ValidationError struct {
	Type   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Reason)
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s: invalid field %q: %s", e.Type, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: missing required field %q", e.Type, e.Field)
}

// validator is implemented by result types with required fields.
type validator interface {
	Validate() error
}

// AsText interprets body as UTF-8 text.
func AsText(body []byte) (string, error) {
	if !utf8.Valid(body) {
		return "", newError(KindDecode, "decode text", ErrInvalidUTF8)
	}
	return string(body), nil
}

// AsJSON decodes body as a single JSON document into T.
func AsJSON[T any](body []byte) (T, error) {
	var out T
	if err := unmarshal(body, &out); err != nil {
		var zero T
		return zero, newError(KindDecode, "decode json", err)
	}
	return out, nil
}

// AsJSONStream decodes newline-delimited JSON. Empty lines are skipped. Any
// malformed line fails the whole call and no values are returned.
func AsJSONStream[T any](body []byte) ([]T, error) {
	lines := apiwire.SplitLines(body)
	out := make([]T, 0, len(lines))
	for i, line := range lines {
		var v T
		if err := unmarshal(line, &v); err != nil {
			return nil, newError(KindDecode, fmt.Sprintf("decode json stream record %d", i), err)
		}
		out = append(out, v)
	}
	return out, nil
}

func unmarshal[T any](data []byte, out *T) error {
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	if v, ok := any(out).(validator); ok {
		return v.Validate()
	}
	return nil
}

var jsonNull = []byte("null")

// decodeRequired rejects a null document and any document lacking one of
// fields (or carrying it as null), then decodes data into out.
func decodeRequired(data []byte, typ string, out any, fields ...string) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return &ValidationError{Type: typ, Reason: "document is null"}
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	for _, f := range fields {
		v, ok := keys[f]
		if !ok || bytes.Equal(bytes.TrimSpace(v), jsonNull) {
			return &ValidationError{Type: typ, Field: f}
		}
	}
	return json.Unmarshal(data, out)
}

// StreamDecoder reads newline-delimited JSON incrementally. Unlike
// AsJSONStream it hands out each record as soon as its line is complete, so
// records before a malformed line have already been delivered.
type StreamDecoder[T any] struct {
	r     *bufio.Reader
	index int
	err   error
}

// NewStreamDecoder wraps r. The caller keeps ownership of r.
func NewStreamDecoder[T any](r io.Reader) *StreamDecoder[T] {
	return &StreamDecoder[T]{r: bufio.NewReader(r)}
}

// Next returns the next record, or io.EOF once the stream is exhausted.
// After any other error the decoder keeps returning that error.
func (d *StreamDecoder[T]) Next() (T, error) {
	var zero T
	if d.err != nil {
		return zero, d.err
	}
	for {
		line, err := d.r.ReadBytes(apiwire.Newline)
		if err != nil && !errors.Is(err, io.EOF) {
			d.err = readFailure(context.Background(), "read json stream", err)
			return zero, d.err
		}
		trimmed := apiwire.TrimLine(line)
		if len(trimmed) == 0 {
			if err != nil {
				d.err = io.EOF
				return zero, io.EOF
			}
			continue
		}

		var v T
		if derr := unmarshal(trimmed, &v); derr != nil {
			d.err = newError(KindDecode, fmt.Sprintf("decode json stream record %d", d.index), derr)
			return zero, d.err
		}
		d.index++
		if err != nil {
			// Final record without a trailing newline.
			d.err = io.EOF
		}
		return v, nil
	}
}

// All drains the decoder and returns every record, stopping at the first
// error.
func (d *StreamDecoder[T]) All() ([]T, error) {
	var out []T
	for {
		v, err := d.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}
