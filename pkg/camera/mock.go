package camera

import (
	"sync"

	"github.com/teslashibe/framedigest/pkg/frame"
)

// Mock implements Opener for testing.
// Behavior can be customized via the function fields.
type Mock struct {
	// OpenFunc is called when Open is invoked.
	// If nil, Open succeeds.
	OpenFunc func(index int, req FormatRequest) error

	// CaptureFunc is called for every capture with a zero-based counter
	// that spans all devices opened from this mock.
	// If nil, returns a 2x2 black frame in the requested format.
	CaptureFunc func(n int) (frame.Frame, error)

	mu       sync.Mutex
	opens    int
	closes   int
	captures int
	requests []FormatRequest
}

// NewMock creates a mock that serves frames in order, then fails with
// ErrEmptyFrame once they run out.
func NewMock(frames ...frame.Frame) *Mock {
	return &Mock{
		CaptureFunc: func(n int) (frame.Frame, error) {
			if n >= len(frames) {
				return frame.Frame{}, ErrEmptyFrame
			}
			return frames[n], nil
		},
	}
}

// Open records the call and returns a mock device.
func (m *Mock) Open(index int, req FormatRequest) (Device, error) {
	m.mu.Lock()
	m.opens++
	m.requests = append(m.requests, req)
	open := m.OpenFunc
	m.mu.Unlock()

	if open != nil {
		if err := open(index, req); err != nil {
			return nil, &DeviceOpenError{Index: index, Err: err}
		}
	}
	return &mockDevice{mock: m, index: index, req: req}, nil
}

// Opens returns the number of Open calls.
func (m *Mock) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Closes returns the number of device Close calls.
func (m *Mock) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// Captures returns the number of Capture calls.
func (m *Mock) Captures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captures
}

// Requests returns a copy of every format request seen by Open.
func (m *Mock) Requests() []FormatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]FormatRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

type mockDevice struct {
	mock   *Mock
	index  int
	req    FormatRequest
	closed bool
}

func (d *mockDevice) Capture() (frame.Frame, error) {
	d.mock.mu.Lock()
	n := d.mock.captures
	d.mock.captures++
	capture := d.mock.CaptureFunc
	d.mock.mu.Unlock()

	if capture == nil {
		return frame.Frame{
			Data:   make([]byte, 4*max(d.req.Format.BytesPerPixel(), 1)),
			Width:  2,
			Height: 2,
			Format: d.req.Format,
		}, nil
	}

	f, err := capture(n)
	if err != nil {
		return frame.Frame{}, &CaptureError{Index: d.index, Err: err}
	}
	return f, nil
}

func (d *mockDevice) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.mock.mu.Lock()
	d.mock.closes++
	d.mock.mu.Unlock()
	return nil
}
