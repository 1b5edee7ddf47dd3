package ipfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Ratio1/ipfs_api_go/internal/httpx"
)

// multipartField is the form field name every uploaded file is sent under.
const multipartField = "file"

// Option configures a Client.
type Option = httpx.Option

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option { return httpx.WithHTTPClient(h) }

// WithHeaders adds headers to every request.
func WithHeaders(h http.Header) Option { return httpx.WithHeaders(h) }

// WithTimeout bounds each exchange. Zero disables the timeout.
func WithTimeout(d time.Duration) Option { return httpx.WithTimeout(d) }

// WithRateLimit throttles the client to r requests per second.
func WithRateLimit(r float64, burst int) Option { return httpx.WithRateLimit(r, burst) }

// Client talks to the daemon's HTTP API. It is safe for concurrent use; each
// call performs exactly one exchange and never retries.
type Client struct {
	config Config
	base   string
	http   *httpx.Client
}

// New constructs a client for cfg.
func New(cfg Config, opts ...Option) *Client {
	cfg.APIPath = normalizeAPIPath(cfg.APIPath)
	all := make([]Option, 0, len(opts)+1)
	switch {
	case cfg.Timeout > 0:
		all = append(all, httpx.WithTimeout(cfg.Timeout))
	case cfg.Timeout < 0:
		all = append(all, httpx.WithTimeout(0))
	}
	all = append(all, opts...)
	return &Client{
		config: cfg,
		base:   cfg.Base(),
		http:   httpx.NewClient(all...),
	}
}

// NewDefault constructs a client for localhost:5001/api/v0.
func NewDefault(opts ...Option) *Client {
	return New(DefaultConfig(), opts...)
}

// Config returns the endpoint the client was built with.
func (c *Client) Config() Config {
	return c.config
}

// Base returns the API base URI.
func (c *Client) Base() string {
	return c.base
}

// NewRequest builds a descriptor for a payload-free command.
func (c *Client) NewRequest(command string, args ...string) *Request {
	return &Request{Command: command, Args: append([]string(nil), args...)}
}

// NewMultipartRequest builds a descriptor for an upload command.
func (c *Client) NewMultipartRequest(command string, args []string, files ...File) *Request {
	return &Request{
		Command: command,
		Args:    append([]string(nil), args...),
		Files:   append([]File(nil), files...),
	}
}

// Send POSTs req without a body and returns the complete response body.
func (c *Client) Send(ctx context.Context, req *Request) ([]byte, error) {
	rc, err := c.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := httpx.ReadAllAndClose(rc)
	if err != nil {
		return nil, readFailure(ctx, opName("read", req), err)
	}
	return data, nil
}

// Stream POSTs req without a body and returns the response body unread. The
// caller must close it.
func (c *Client) Stream(ctx context.Context, req *Request) (io.ReadCloser, error) {
	if c == nil || c.http == nil {
		return nil, &Error{Kind: KindOther, Op: "send", Msg: "client is nil"}
	}
	target, err := req.URI(c.base)
	if err != nil {
		return nil, wrap(opName("build", req), err)
	}
	resp, err := c.http.Do(ctx, &httpx.Request{
		Method: http.MethodPost,
		Target: target,
	})
	if err != nil {
		return nil, c.transportError(opName("send", req), err)
	}
	return resp.Body, nil
}

// SendMultipart encodes every file of req as one multipart/form-data part and
// POSTs the fully buffered body. Files are read before anything is sent, so a
// read failure never reaches the daemon.
func (c *Client) SendMultipart(ctx context.Context, req *Request) ([]byte, error) {
	if c == nil || c.http == nil {
		return nil, &Error{Kind: KindOther, Op: "send", Msg: "client is nil"}
	}
	target, err := req.URI(c.base)
	if err != nil {
		return nil, wrap(opName("build", req), err)
	}
	body, contentType, err := encodeMultipart(req.Files)
	if err != nil {
		return nil, wrap(opName("encode", req), err)
	}

	resp, err := c.http.Do(ctx, &httpx.Request{
		Method: http.MethodPost,
		Target: target,
		Header: http.Header{"Content-Type": []string{contentType}},
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return nil, c.transportError(opName("send", req), err)
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, readFailure(ctx, opName("read", req), err)
	}
	return data, nil
}

// transportError maps failures of the HTTP exchange. Everything here happened
// on the wire, so unclassifiable causes are still transport failures.
func (c *Client) transportError(op string, err error) error {
	if kind := classify(err); kind != KindOther {
		return &Error{Kind: kind, Op: op, Err: err}
	}
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

func encodeMultipart(files []File) ([]byte, string, error) {
	if len(files) == 0 {
		return nil, "", &Error{Kind: KindOther, Op: "encode multipart", Msg: "at least one file is required"}
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for i, f := range files {
		if f.Reader == nil {
			return nil, "", &Error{Kind: KindOther, Op: "encode multipart", Msg: fmt.Sprintf("file %d (%q) has no reader", i, f.Name)}
		}
		part, err := w.CreateFormFile(multipartField, f.Name)
		if err != nil {
			return nil, "", &Error{Kind: KindOther, Op: "encode multipart", Msg: fmt.Sprintf("create part %q: %v", f.Name, err), Err: err}
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, "", newError(KindIO, fmt.Sprintf("read file %q", f.Name), err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", &Error{Kind: KindOther, Op: "encode multipart", Msg: fmt.Sprintf("close writer: %v", err), Err: err}
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// OpenFiles reads every path into memory and returns upload sources named
// after each path's base name. Any unreadable path fails the whole call.
func OpenFiles(paths ...string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, newError(KindIO, fmt.Sprintf("open %q", p), err)
		}
		files = append(files, File{Name: filepath.Base(p), Reader: bytes.NewReader(data)})
	}
	return files, nil
}

func opName(step string, req *Request) string {
	if req == nil || req.Command == "" {
		return step
	}
	return step + " " + req.Command
}
