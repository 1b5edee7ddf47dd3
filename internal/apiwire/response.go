// Package apiwire holds the byte-level conventions of the daemon's HTTP API
// that are shared by the transport helper and the response decoders.
package apiwire

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Newline separates documents in newline-delimited JSON responses.
const Newline = '\n'

// SplitLines splits body on every newline byte and drops empty segments.
// Returned slices alias body.
func SplitLines(body []byte) [][]byte {
	if len(body) == 0 {
		return nil
	}
	segments := bytes.Split(body, []byte{Newline})
	out := segments[:0]
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		out = append(out, seg)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// TrimLine strips the trailing newline from a line read off a stream.
func TrimLine(line []byte) []byte {
	return bytes.TrimSuffix(line, []byte{Newline})
}

// DaemonError is the JSON document the daemon returns alongside non-2xx
// statuses.
type DaemonError struct {
	Message string `json:"Message"`
	Code    int    `json:"Code"`
	Type    string `json:"Type"`
}

// ParseDaemonError decodes a daemon error document. It returns nil when body
// is empty or is not an error document.
func ParseDaemonError(body []byte) *DaemonError {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	var doc DaemonError
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil
	}
	if strings.TrimSpace(doc.Message) == "" {
		return nil
	}
	return &doc
}
