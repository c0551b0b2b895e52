// Package camera defines the capture device the frame digest samples
// from, along with its configuration and a scriptable mock.
// The OpenCV-backed implementation lives in camera/opencv.
package camera

import (
	"fmt"

	"github.com/teslashibe/framedigest/pkg/frame"
)

// Config holds the device selection and the format to ask it for.
type Config struct {
	// Index is the logical capture device index (0 is the first camera).
	Index int `json:"index"`

	// Format is the pixel layout frames should be delivered in.
	Format frame.Format `json:"format"`

	// Width and Height request a resolution. Zero leaves the driver default.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Framerate requests a rate in FPS. Zero asks for the highest the
	// device supports.
	Framerate int `json:"framerate"`
}

// Limits accepted by Validate.
const (
	MaxWidth     = 7680
	MaxHeight    = 4320
	MaxFramerate = 240
)

// DefaultConfig returns the first camera, RGB, highest frame rate.
func DefaultConfig() Config {
	return Config{
		Index:     0,
		Format:    frame.FormatRGB24,
		Width:     0,
		Height:    0,
		Framerate: 0, // highest available
	}
}

// Request converts the config into the format request handed to Open.
func (c Config) Request() FormatRequest {
	return FormatRequest{
		Format:    c.Format,
		Width:     c.Width,
		Height:    c.Height,
		Framerate: c.Framerate,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Index < 0 {
		errors = append(errors, "index must be >= 0")
	}

	switch c.Format {
	case frame.FormatRGB24, frame.FormatBGR24, frame.FormatGray8, frame.FormatMJPEG:
	default:
		errors = append(errors, fmt.Sprintf("format %s is not supported", c.Format))
	}

	if c.Width < 0 || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be 0 (driver default) or up to %d", MaxWidth))
	}
	if c.Height < 0 || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be 0 (driver default) or up to %d", MaxHeight))
	}
	if (c.Width == 0) != (c.Height == 0) {
		errors = append(errors, "width and height must be set together")
	}
	if c.Framerate < 0 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be 0 (highest) or up to %d", MaxFramerate))
	}

	return errors
}
