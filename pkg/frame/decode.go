package frame

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
)

// Decode interprets the frame's bytes as a pixel grid.
//
// Packed formats are wrapped in place without copying, so the returned
// image aliases f.Data and must not outlive the frame.
func Decode(f Frame) (image.Image, error) {
	if f.Format == FormatMJPEG {
		return decodeJPEG(f)
	}

	bpp := f.Format.BytesPerPixel()
	if bpp == 0 {
		return nil, &DecodeError{Format: f.Format, Reason: "unsupported pixel format"}
	}
	if f.Width <= 0 || f.Height <= 0 {
		return nil, &DecodeError{Format: f.Format, Reason: "non-positive dimensions"}
	}
	if f.Width > math.MaxInt/f.Height/bpp {
		return nil, &DecodeError{Format: f.Format, Reason: "dimensions overflow"}
	}
	if want := f.Pixels() * bpp; len(f.Data) != want {
		return nil, &DecodeError{
			Format: f.Format,
			Reason: "buffer length does not match dimensions",
		}
	}

	switch f.Format {
	case FormatGray8:
		return &image.Gray{
			Pix:    f.Data,
			Stride: f.Width,
			Rect:   image.Rect(0, 0, f.Width, f.Height),
		}, nil
	case FormatBGR24:
		return &packed{pix: f.Data, w: f.Width, h: f.Height, r: 2, g: 1, b: 0}, nil
	default:
		return &packed{pix: f.Data, w: f.Width, h: f.Height, r: 0, g: 1, b: 2}, nil
	}
}

func decodeJPEG(f Frame) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil, &DecodeError{Format: f.Format, Reason: "invalid jpeg", Err: err}
	}
	if img.Bounds().Empty() {
		return nil, &DecodeError{Format: f.Format, Reason: "empty image"}
	}
	return img, nil
}

// packed is a read-only view over 3-byte-per-pixel data.
// r, g and b are the byte offsets of each channel within a pixel.
type packed struct {
	pix     []byte
	w, h    int
	r, g, b int
}

func (p *packed) ColorModel() color.Model { return color.RGBAModel }

func (p *packed) Bounds() image.Rectangle { return image.Rect(0, 0, p.w, p.h) }

func (p *packed) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= p.w || y >= p.h {
		return color.RGBA{}
	}
	i := (y*p.w + x) * 3
	return color.RGBA{R: p.pix[i+p.r], G: p.pix[i+p.g], B: p.pix[i+p.b], A: 0xff}
}
