package camera

import "github.com/teslashibe/framedigest/pkg/frame"

// FormatRequest describes the stream a device should be opened with.
type FormatRequest struct {
	Format    frame.Format
	Width     int
	Height    int
	Framerate int // 0 = highest available
}

// HighestFrameRate reports whether the request leaves the rate to the
// device's maximum.
func (r FormatRequest) HighestFrameRate() bool {
	return r.Framerate <= 0
}

// Device is an open capture handle.
type Device interface {
	// Capture blocks until one frame is available.
	Capture() (frame.Frame, error)

	// Close releases the handle.
	Close() error
}

// Opener acquires capture devices.
type Opener interface {
	// Open returns a handle to the device at index. Errors are
	// *DeviceOpenError.
	Open(index int, req FormatRequest) (Device, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(index int, req FormatRequest) (Device, error)

// Open calls f.
func (f OpenerFunc) Open(index int, req FormatRequest) (Device, error) {
	return f(index, req)
}
