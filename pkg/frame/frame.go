// Package frame describes raw camera frames and reduces them to a
// brightness figure for diagnostic output.
package frame

import (
	"fmt"
	"strings"
)

// Format identifies the pixel layout of a frame's raw bytes.
type Format int

const (
	// FormatRGB24 is packed 8-bit R, G, B.
	FormatRGB24 Format = iota
	// FormatBGR24 is packed 8-bit B, G, R (OpenCV's native order).
	FormatBGR24
	// FormatGray8 is a single 8-bit luma channel.
	FormatGray8
	// FormatMJPEG is a single JPEG-compressed image.
	FormatMJPEG
)

// String returns the conventional name of the format.
func (f Format) String() string {
	switch f {
	case FormatRGB24:
		return "RGB24"
	case FormatBGR24:
		return "BGR24"
	case FormatGray8:
		return "GRAY8"
	case FormatMJPEG:
		return "MJPEG"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat accepts the names returned by String, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RGB24", "RGB":
		return FormatRGB24, nil
	case "BGR24", "BGR":
		return FormatBGR24, nil
	case "GRAY8", "GRAY":
		return FormatGray8, nil
	case "MJPEG", "JPEG":
		return FormatMJPEG, nil
	default:
		return 0, fmt.Errorf("frame: unknown format %q", s)
	}
}

// BytesPerPixel returns the packed size of one pixel, or 0 for
// compressed formats.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGB24, FormatBGR24:
		return 3
	case FormatGray8:
		return 1
	default:
		return 0
	}
}

// Frame is one capture result in its raw, undecoded form.
// Data is what gets folded into the digest; Width, Height and Format
// are only needed to decode it.
type Frame struct {
	Data   []byte
	Width  int
	Height int
	Format Format
}

// Pixels returns Width*Height.
func (f Frame) Pixels() int {
	return f.Width * f.Height
}
