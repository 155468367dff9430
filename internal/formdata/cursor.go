// Package formdata decodes multipart/form-data request bodies as a stream.
//
// A Cursor reads the body in small chunks and keeps only a bounded window of
// it in memory. Text fields are read one at a time in the order the client
// sent them, followed by a single binary file part. Boundary detection works
// on raw bytes, so file payloads are never passed through a text decoder.
package formdata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
)

const (
	DefaultWindow      = 4 << 10
	DefaultReadSize    = 1 << 10
	DefaultMaxFileSize = 2 << 20

	// SniffLen is how many leading payload bytes are kept for type sniffing.
	SniffLen = 32

	minWindow      = 256
	maxBoundaryLen = 70
)

var (
	ErrMissingField    = errors.New("missing multipart field")
	ErrInvalidBoundary = errors.New("invalid multipart boundary")
	ErrPartTooLarge    = errors.New("multipart part exceeds buffer window")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnexpectedEOF   = errors.New("multipart body ended inside a part")
	ErrBodyRead        = errors.New("failed to read multipart body")
)

// MissingFieldError names the field that never appeared in the body.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing multipart field %q", e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// Options bounds the memory a Cursor may use.
type Options struct {
	Window      int   // bytes retained while searching for a part; default 4 KiB
	ReadSize    int   // bytes requested from the source per read; default 1 KiB
	MaxFileSize int64 // payload ceiling for ReadFile; default 2 MiB
}

// Cursor is a forward-only reader over one multipart body.
// It is owned by a single request and must not be shared.
type Cursor struct {
	src         io.Reader
	buf         []byte
	chunk       []byte
	delim       []byte // "\n--" + boundary
	window      int
	maxFileSize int64
	eof         bool

	// prev is the stream byte just before buf[0]; dropped reports whether one exists.
	prev    byte
	dropped bool
}

// NewCursor creates a cursor over src using the given boundary token.
func NewCursor(src io.Reader, boundary string, opts Options) (*Cursor, error) {
	if boundary == "" || len(boundary) > maxBoundaryLen {
		return nil, ErrInvalidBoundary
	}

	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Window < minWindow {
		opts.Window = minWindow
	}
	if opts.ReadSize <= 0 {
		opts.ReadSize = DefaultReadSize
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}

	return &Cursor{
		src:         src,
		buf:         make([]byte, 0, opts.Window+opts.ReadSize),
		chunk:       make([]byte, opts.ReadSize),
		delim:       []byte("\n--" + boundary),
		window:      opts.Window,
		maxFileSize: opts.MaxFileSize,
	}, nil
}

// Boundary extracts the boundary token from a multipart/form-data Content-Type header.
func Boundary(contentType string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBoundary, err)
	}
	if mediaType != "multipart/form-data" {
		return "", fmt.Errorf("%w: unexpected media type %q", ErrInvalidBoundary, mediaType)
	}

	boundary := params["boundary"]
	if boundary == "" || len(boundary) > maxBoundaryLen {
		return "", ErrInvalidBoundary
	}
	return boundary, nil
}

// fill appends the next chunk from the source to the window.
// It returns io.EOF only when the source is exhausted and nothing was read.
func (c *Cursor) fill(ctx context.Context) error {
	if c.eof {
		return io.EOF
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	n, err := c.src.Read(c.chunk)
	c.buf = append(c.buf, c.chunk[:n]...)

	if errors.Is(err, io.EOF) {
		c.eof = true
		if n > 0 {
			return nil
		}
		return io.EOF
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBodyRead, err)
	}
	return nil
}

// index returns the position of pattern at or after from, or -1.
func (c *Cursor) index(pattern []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if from >= len(c.buf) {
		return -1
	}
	i := bytes.Index(c.buf[from:], pattern)
	if i < 0 {
		return -1
	}
	return from + i
}

// advance drops the first n bytes of the window.
func (c *Cursor) advance(n int) {
	if n <= 0 || len(c.buf) == 0 {
		return
	}
	if n >= len(c.buf) {
		c.prev, c.dropped = c.buf[len(c.buf)-1], true
		c.buf = c.buf[:0]
		return
	}
	c.prev, c.dropped = c.buf[n-1], true
	c.buf = append(c.buf[:0], c.buf[n:]...)
}

// trim discards leading bytes beyond the window. Only called while no part
// is matched, so the retained tail still holds any partially read marker.
func (c *Cursor) trim() {
	if over := len(c.buf) - c.window; over > 0 {
		c.advance(over)
	}
}

// awaitHeader finds the part named name and returns the offset of its first
// content byte. On return the part's name marker sits at the start of the window.
func (c *Cursor) awaitHeader(ctx context.Context, name string) (int, error) {
	marker := []byte(`name="` + name + `"`)

	for {
		if i := c.indexParam(marker); i >= 0 {
			c.advance(i)
			break
		}
		c.trim()
		if err := c.fill(ctx); err != nil {
			return 0, eofAs(err, &MissingFieldError{Field: name})
		}
	}

	for {
		if start := headerEnd(c.buf, len(marker)); start >= 0 {
			return start, nil
		}
		if len(c.buf) > c.window {
			return 0, fmt.Errorf("%w: headers of %q", ErrPartTooLarge, name)
		}
		if err := c.fill(ctx); err != nil {
			return 0, eofAs(err, &MissingFieldError{Field: name})
		}
	}
}

// indexParam finds marker where it starts a header parameter,
// so name="file" never matches inside filename="file". A match at the start
// of the window is checked against the last byte trimmed off.
func (c *Cursor) indexParam(marker []byte) int {
	from := 0
	for {
		i := c.index(marker, from)
		if i < 0 {
			return -1
		}
		before, ok := c.prev, c.dropped
		if i > 0 {
			before, ok = c.buf[i-1], true
		}
		if !ok || !isTokenByte(before) {
			return i
		}
		from = i + 1
	}
}

// headerEnd returns the offset just past the first blank line at or after from.
func headerEnd(buf []byte, from int) int {
	if from > len(buf) {
		return -1
	}
	crlf := bytes.Index(buf[from:], []byte("\r\n\r\n"))
	lf := bytes.Index(buf[from:], []byte("\n\n"))

	switch {
	case crlf < 0 && lf < 0:
		return -1
	case lf < 0 || (crlf >= 0 && crlf < lf):
		return from + crlf + 4
	default:
		return from + lf + 2
	}
}

// contentEnd trims the line break that belongs to the delimiter at d.
func contentEnd(buf []byte, start, d int) int {
	end := d
	if end > start && buf[end-1] == '\r' {
		end--
	}
	if end < start {
		end = start
	}
	return end
}

func isTokenByte(b byte) bool {
	return b == '_' || b == '-' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func eofAs(err, substitute error) error {
	if errors.Is(err, io.EOF) {
		return substitute
	}
	return err
}
