package keychain

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoding is returned when a value cannot be serialized.
	ErrEncoding = errors.New("encoding secret")

	// ErrDecoding is returned when stored bytes do not decode into the
	// requested type. It usually means the caller asked for the wrong type.
	ErrDecoding = errors.New("decoding secret")

	// ErrBackend matches every *BackendError.
	ErrBackend = errors.New("secret backend failure")
)

// BackendError carries the raw status of a failed backend call.
type BackendError struct {
	Op     string
	Status Status
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("keychain %s: %s (%d)", e.Op, e.Status, int32(e.Status))
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}
