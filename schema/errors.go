package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrWidth means a fixed width field arrived with the wrong size.
	ErrWidth = errors.New("unexpected payload width")

	// ErrUTF8 means a string field isn't valid UTF-8.
	ErrUTF8 = errors.New("invalid utf-8 string")

	// ErrDiscriminant means an enumerated field carries a value outside
	// its set, or a variant tag is missing.
	ErrDiscriminant = errors.New("invalid discriminant")
)

// Error locates a field level failure within an object or expression.
type Error struct {
	Kind  string
	Field string
	Code  uint16
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("schema: %s.%s (attribute %d): %v", e.Kind, e.Field, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func widthError(got, want int) error {
	return fmt.Errorf("%w: got %d bytes; want %d", ErrWidth, got, want)
}
