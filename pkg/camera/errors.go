package camera

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching.
var (
	// ErrDeviceOpen matches every DeviceOpenError.
	ErrDeviceOpen = errors.New("camera: device open failed")

	// ErrCapture matches every CaptureError.
	ErrCapture = errors.New("camera: capture failed")

	// ErrNotOpened is returned when the driver accepted the index but the
	// stream never opened.
	ErrNotOpened = errors.New("camera: stream not opened")

	// ErrEmptyFrame is returned when a read produced no pixels.
	ErrEmptyFrame = errors.New("camera: empty frame")
)

// DeviceOpenError reports that the device is unavailable or rejected the
// requested format.
type DeviceOpenError struct {
	Index int
	Err   error
}

// Error implements the error interface.
func (e *DeviceOpenError) Error() string {
	return fmt.Sprintf("camera %d: open: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *DeviceOpenError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDeviceOpen.
func (e *DeviceOpenError) Is(target error) bool {
	return target == ErrDeviceOpen
}

// CaptureError reports that a frame could not be retrieved from an open
// device.
type CaptureError struct {
	Index int
	Err   error
}

// Error implements the error interface.
func (e *CaptureError) Error() string {
	return fmt.Sprintf("camera %d: capture: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *CaptureError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCapture.
func (e *CaptureError) Is(target error) bool {
	return target == ErrCapture
}
