package ipfs

import (
	"fmt"
	"io"
	"net/url"
	"strings"
)

// File is one named byte source of a multipart upload. Name becomes the
// part's filename attribute.
type File struct {
	Name   string
	Reader io.Reader
}

// Request describes one call: the command, its positional arguments in
// order, and for uploads the files to send. Arguments must already be text.
type Request struct {
	Command string
	Args    []string
	Files   []File
}

// URI builds the request target against base.
func (r *Request) URI(base string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("%w: request is nil", ErrInvalidURI)
	}
	return BuildURI(base, r.Command, r.Args)
}

// BuildURI returns "{base}/{command}?arg={args[0]}&arg={args[1]}...".
// Arguments are inserted verbatim, so they must not contain characters that
// need escaping in a query. An empty argument list still ends in "?".
// A result that is not a structurally valid URI yields ErrInvalidURI.
func BuildURI(base, command string, args []string) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", fmt.Errorf("%w: command is required", ErrInvalidURI)
	}

	var b strings.Builder
	b.Grow(len(base) + len(command) + 2 + len(args)*8)
	b.WriteString(base)
	b.WriteByte('/')
	b.WriteString(command)
	b.WriteByte('?')
	for i, arg := range args {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString("arg=")
		b.WriteString(arg)
	}
	uri := b.String()

	if err := validateURI(uri); err != nil {
		return "", err
	}
	return uri, nil
}

func validateURI(uri string) error {
	for i := 0; i < len(uri); i++ {
		if !isURIByte(uri[i]) {
			return fmt.Errorf("%w: byte %q at offset %d in %q", ErrInvalidURI, uri[i], i, uri)
		}
	}
	if strings.IndexByte(uri, '#') >= 0 {
		return fmt.Errorf("%w: fragment in %q", ErrInvalidURI, uri)
	}
	u, err := url.ParseRequestURI(uri)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURI, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host in %q", ErrInvalidURI, uri)
	}
	return nil
}

// isURIByte accepts the RFC 3986 unreserved, reserved and '%' characters.
func isURIByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '_', '~',
		':', '/', '?', '#', '[', ']', '@',
		'!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=',
		'%':
		return true
	}
	return false
}
