package formdata

import (
	"context"
	"fmt"
	"strings"
)

// ReadField returns the whitespace-trimmed value of the text part named name.
//
// Fields must be read in the order they appear in the body. Everything up to
// and including the part's closing delimiter is consumed, so earlier parts
// cannot be read afterwards.
func (c *Cursor) ReadField(ctx context.Context, name string) (string, error) {
	start, err := c.awaitHeader(ctx, name)
	if err != nil {
		return "", err
	}

	for {
		// The blank line's final '\n' doubles as the delimiter's when the value is empty.
		if d := c.index(c.delim, start-1); d >= 0 {
			value := string(c.buf[start:contentEnd(c.buf, start, d)])
			c.advance(d + len(c.delim))
			return strings.TrimSpace(value), nil
		}
		if len(c.buf) > c.window {
			return "", fmt.Errorf("%w: value of %q", ErrPartTooLarge, name)
		}
		if err := c.fill(ctx); err != nil {
			return "", eofAs(err, &MissingFieldError{Field: name})
		}
	}
}

// ReadFields reads names in order and returns their values keyed by name.
func (c *Cursor) ReadFields(ctx context.Context, names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	for _, name := range names {
		value, err := c.ReadField(ctx, name)
		if err != nil {
			return nil, err
		}
		values[name] = value
	}
	return values, nil
}
