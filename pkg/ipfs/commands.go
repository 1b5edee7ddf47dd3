package ipfs

import (
	"context"
)

// call sends a payload-free command and decodes its body as one JSON value.
func call[T any](ctx context.Context, c *Client, command string, args ...string) (*T, error) {
	data, err := c.Send(ctx, c.NewRequest(command, args...))
	if err != nil {
		return nil, err
	}
	v, err := AsJSON[T](data)
	if err != nil {
		return nil, relabel(err, "decode "+command)
	}
	return &v, nil
}

func callText(ctx context.Context, c *Client, command string, args ...string) (string, error) {
	data, err := c.Send(ctx, c.NewRequest(command, args...))
	if err != nil {
		return "", err
	}
	s, err := AsText(data)
	if err != nil {
		return "", relabel(err, "decode "+command)
	}
	return s, nil
}

// relabel replaces the Op of a decoder error with the command-level step.
func relabel(err error, op string) error {
	if e, ok := err.(*Error); ok {
		cp := *e
		cp.Op = op
		return &cp
	}
	return wrap(op, err)
}

// Add uploads the files at paths and returns one AddInfo per file in upload
// order.
func (c *Client) Add(ctx context.Context, paths ...string) ([]AddInfo, error) {
	files, err := OpenFiles(paths...)
	if err != nil {
		return nil, err
	}
	return c.AddFiles(ctx, files...)
}

// AddFiles uploads in-memory or streamed sources.
func (c *Client) AddFiles(ctx context.Context, files ...File) ([]AddInfo, error) {
	data, err := c.SendMultipart(ctx, c.NewMultipartRequest("add", nil, files...))
	if err != nil {
		return nil, err
	}
	infos, err := AsJSONStream[AddInfo](data)
	if err != nil {
		return nil, relabel(err, "decode add")
	}
	return infos, nil
}

// Cat returns the raw contents addressed by path, e.g. "/ipfs/<cid>/readme".
func (c *Client) Cat(ctx context.Context, path string) ([]byte, error) {
	return c.Send(ctx, c.NewRequest("cat", path))
}

// BlockGet returns the raw block for cid as text.
func (c *Client) BlockGet(ctx context.Context, cid string) (string, error) {
	return callText(ctx, c, "block/get", cid)
}

// Commands returns the daemon's command tree.
func (c *Client) Commands(ctx context.Context) (*CommandInfo, error) {
	return call[CommandInfo](ctx, c, "commands")
}

// ConfigGet returns the raw response for one configuration key.
func (c *Client) ConfigGet(ctx context.Context, key string) (string, error) {
	return callText(ctx, c, "config", key)
}

// ConfigShow returns the full daemon configuration document.
func (c *Client) ConfigShow(ctx context.Context) (string, error) {
	return callText(ctx, c, "config/show")
}

// ID returns the node's identity.
func (c *Client) ID(ctx context.Context) (*IDInfo, error) {
	return call[IDInfo](ctx, c, "id")
}

// Version returns the daemon's version information.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	return call[VersionInfo](ctx, c, "version")
}

// ObjectGet returns the DAG node at key.
func (c *Client) ObjectGet(ctx context.Context, key string) (*ObjectInfo, error) {
	return call[ObjectInfo](ctx, c, "object/get", key)
}

// ObjectLinks returns the links of the DAG node at key.
func (c *Client) ObjectLinks(ctx context.Context, key string) (*ObjectLinksInfo, error) {
	return call[ObjectLinksInfo](ctx, c, "object/links", key)
}
