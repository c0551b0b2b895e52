package frame

import (
	"errors"
	"fmt"
)

// ErrDecode is the sentinel matched by every DecodeError.
var ErrDecode = errors.New("frame: decode failed")

// DecodeError reports that a frame's bytes could not be interpreted
// under its declared pixel layout.
type DecodeError struct {
	// Format is the layout the frame claimed.
	Format Format

	// Reason is a short description of what did not fit.
	Reason string

	// Err is the underlying decoder error, if any.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("frame: decode %s: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("frame: decode %s: %s", e.Format, e.Reason)
}

// Unwrap returns the underlying decoder error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}
