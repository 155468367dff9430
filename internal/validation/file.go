package validation

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/packvault/packvault/internal/model"
)

var (
	ErrFileTypeMismatch = errors.New("file content does not match declared content type")
	ErrInvalidFileName  = errors.New("invalid file name")
)

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47}

// Sniff reports whether the leading bytes of a payload match its declared type.
// The declared type is never trusted on its own: unsupported types always fail.
func Sniff(declared string, prefix []byte) bool {
	contentType, ok := model.ParseContentType(declared)
	if !ok {
		return false
	}

	switch contentType {
	case model.ContentTypePNG:
		// Full signature is 8 bytes; only the first four are compared
		return len(prefix) >= 8 && bytes.Equal(prefix[:4], pngMagic)
	case model.ContentTypeJSON:
		trimmed := bytes.TrimSpace(prefix)
		return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
	}
	return false
}

// ValidateSniff wraps Sniff with an error naming the declared type
func ValidateSniff(declared string, prefix []byte) error {
	if !Sniff(declared, prefix) {
		return fmt.Errorf("%w: declared %s", ErrFileTypeMismatch, declared)
	}
	return nil
}

// ValidateFileName checks the client supplied display name of a file
func ValidateFileName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidFileName)
	}

	if len(name) > 255 {
		return fmt.Errorf("%w: name is too long (max 255 bytes)", ErrInvalidFileName)
	}

	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name is not valid UTF-8", ErrInvalidFileName)
	}

	if strings.ContainsAny(name, "/\\\x00") || name == "." || name == ".." {
		return fmt.Errorf("%w: name must not contain path elements", ErrInvalidFileName)
	}

	return nil
}
