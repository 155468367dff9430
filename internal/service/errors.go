package service

import (
	"errors"

	"github.com/packvault/packvault/internal/formdata"
	"github.com/packvault/packvault/internal/repository"
	"github.com/packvault/packvault/internal/validation"
)

var (
	ErrResourceNotFound    = repository.ErrResourceNotFound
	ErrFileNotFound        = repository.ErrFileNotFound
	ErrForbiddenAction     = errors.New("forbidden action")
	ErrResourceMismatch    = errors.New("resource_uuid does not match the requested resource")
	ErrBlobWriteFailed     = errors.New("failed to write blob")
	ErrMetadataWriteFailed = errors.New("failed to write file metadata")
	ErrBlobDeleteFailed    = errors.New("failed to delete blob")
)

// Kind groups errors by who has to act on them.
type Kind int

const (
	KindUnknown Kind = iota
	KindClientInput
	KindAuthorization
	KindNotFound
	KindStore
)

var clientInputErrors = []error{
	formdata.ErrMissingField,
	formdata.ErrInvalidBoundary,
	formdata.ErrPartTooLarge,
	formdata.ErrUnexpectedEOF,
	formdata.ErrBodyRead,
	formdata.ErrFileTooLarge,
	validation.ErrFileTypeMismatch,
	validation.ErrInvalidFileName,
	validation.ErrUndefinedResourceType,
	validation.ErrForbiddenContentType,
	validation.ErrForbiddenFileDirectory,
	ErrResourceMismatch,
}

// KindOf classifies err; anything unrecognised is KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrForbiddenAction):
		return KindAuthorization
	case errors.Is(err, ErrResourceNotFound), errors.Is(err, ErrFileNotFound):
		return KindNotFound
	case errors.Is(err, ErrBlobWriteFailed), errors.Is(err, ErrMetadataWriteFailed), errors.Is(err, ErrBlobDeleteFailed):
		return KindStore
	}
	for _, target := range clientInputErrors {
		if errors.Is(err, target) {
			return KindClientInput
		}
	}
	return KindUnknown
}

func (k Kind) String() string {
	switch k {
	case KindClientInput:
		return "client_input"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindStore:
		return "store"
	}
	return "unknown"
}
