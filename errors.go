package ltep

import (
	"fmt"

	"github.com/pkg/errors"
)

// Returned by the factory for an empty message. There's no room for even the extension ID.
var ErrMessageTooShort = errors.New("extension message too short")

// The peer sent a nonzero extension ID that isn't in its extension table. Usually this means it's
// using an ID that was never negotiated.
type UnknownExtensionIDError struct {
	ID ExtensionNumber
}

func (e *UnknownExtensionIDError) Error() string {
	return fmt.Sprintf("unknown extension message id %d", e.ID)
}

// The peer's extension table resolved the ID to a name that there is no decoder for.
type UnsupportedExtensionError struct {
	Name ExtensionName
}

func (e *UnsupportedExtensionError) Error() string {
	return fmt.Sprintf("unsupported extension %q", e.Name)
}

// The payload failed to decode, or a field was present with the wrong type or range. Field is
// empty when the payload as a whole was bad.
type MalformedPayloadError struct {
	Extension ExtensionName
	Field     string
	Err       error
}

func (e *MalformedPayloadError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed %q payload: %v", e.Extension, e.Err)
	}
	return fmt.Sprintf("malformed %q payload: field %q: %v", e.Extension, e.Field, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}

func malformed(ext ExtensionName, field string, err error) error {
	return &MalformedPayloadError{
		Extension: ext,
		Field:     field,
		Err:       err,
	}
}

func malformedf(ext ExtensionName, field string, format string, args ...any) error {
	return malformed(ext, field, fmt.Errorf(format, args...))
}

// Returns a short label for the kind of error, for counting.
func errorKind(err error) string {
	var (
		unknown     *UnknownExtensionIDError
		unsupported *UnsupportedExtensionError
		bad         *MalformedPayloadError
	)
	switch {
	case errors.Is(err, ErrMessageTooShort):
		return "too short"
	case errors.As(err, &unknown):
		return "unknown extension id"
	case errors.As(err, &unsupported):
		return "unsupported extension"
	case errors.As(err, &bad):
		return "malformed payload"
	default:
		return "other"
	}
}
