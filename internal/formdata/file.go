package formdata

import (
	"context"
	"fmt"
)

// ExtractedFile is a file payload read from a multipart body.
type ExtractedFile struct {
	ContentType string // declared by the client, not yet verified
	Bytes       []byte
	Size        int64
	SniffPrefix []byte // first SniffLen bytes of Bytes
}

type fileState int

const (
	awaitHeader fileState = iota
	streaming
	done
)

// ReadFile reads the binary part named name.
//
// The payload is copied out of the window as it streams in, keeping back only
// enough bytes to recognise a delimiter split across reads. Reading stops with
// ErrFileTooLarge as soon as the payload exceeds the configured ceiling.
func (c *Cursor) ReadFile(ctx context.Context, name, contentType string) (*ExtractedFile, error) {
	f := &ExtractedFile{ContentType: contentType}
	state := awaitHeader
	off := 0

	for state != done {
		switch state {
		case awaitHeader:
			start, err := c.awaitHeader(ctx, name)
			if err != nil {
				return nil, err
			}
			// Keep the blank line's '\n' so an empty payload still matches the delimiter.
			c.advance(start - 1)
			off = 1
			state = streaming

		case streaming:
			if d := c.index(c.delim, 0); d >= 0 {
				if err := f.write(c.buf[off:contentEnd(c.buf, off, d)], c.maxFileSize); err != nil {
					return nil, err
				}
				c.advance(d + len(c.delim))
				state = done
				continue
			}

			if safe := len(c.buf) - len(c.delim); safe > off {
				if err := f.write(c.buf[off:safe], c.maxFileSize); err != nil {
					return nil, err
				}
				c.advance(safe)
				off = 0
			}

			if err := c.fill(ctx); err != nil {
				return nil, eofAs(err, fmt.Errorf("%w: file %q", ErrUnexpectedEOF, name))
			}
		}
	}

	return f, nil
}

func (f *ExtractedFile) write(p []byte, limit int64) error {
	if len(p) == 0 {
		return nil
	}
	if f.Size+int64(len(p)) > limit {
		return fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, limit)
	}

	if need := SniffLen - len(f.SniffPrefix); need > 0 {
		if need > len(p) {
			need = len(p)
		}
		f.SniffPrefix = append(f.SniffPrefix, p[:need]...)
	}

	f.Bytes = append(f.Bytes, p...)
	f.Size += int64(len(p))
	return nil
}
