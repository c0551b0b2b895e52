package frame

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
)

// BarWidth is the length of the bar rendered for a brightness of 1.0.
const BarWidth = 80

const barGlyph = "█"

// Brightness is the mean normalized luma of a frame, in [0, 1].
type Brightness float64

// String renders the brightness as a diagnostic line.
func (b Brightness) String() string {
	return Render(b)
}

// Reduce decodes the frame and returns its mean luma.
func Reduce(f Frame) (Brightness, error) {
	img, err := Decode(f)
	if err != nil {
		return 0, err
	}
	return Measure(img), nil
}

// Measure returns the mean luma of img over all its pixels, normalized by
// 255. Luma uses the Rec. 601 integer weights of color.GrayModel.
// An empty image measures 0.
func Measure(img image.Image) Brightness {
	bounds := img.Bounds()
	n := bounds.Dx() * bounds.Dy()
	if n <= 0 {
		return 0
	}

	var sum uint64
	switch m := img.(type) {
	case *packed:
		for i := 0; i+2 < len(m.pix); i += 3 {
			sum += luma(m.pix[i+m.r], m.pix[i+m.g], m.pix[i+m.b])
		}
	case *image.Gray:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := m.PixOffset(bounds.Min.X, y)
			for _, v := range m.Pix[off : off+bounds.Dx()] {
				sum += uint64(v)
			}
		}
	case *image.YCbCr:
		// JPEG luma is already Rec. 601.
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := m.YOffset(bounds.Min.X, y)
			for _, v := range m.Y[off : off+bounds.Dx()] {
				sum += uint64(v)
			}
		}
	case *image.RGBA:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			off := m.PixOffset(bounds.Min.X, y)
			row := m.Pix[off : off+bounds.Dx()*4]
			for i := 0; i < len(row); i += 4 {
				sum += luma(row[i], row[i+1], row[i+2])
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				sum += uint64(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
			}
		}
	}

	return Brightness(float64(sum) / (float64(n) * 255))
}

// luma maps 8-bit RGB to 8-bit Y. The weights sum to 1<<16, so pure
// white maps to exactly 255.
func luma(r, g, b uint8) uint64 {
	return (19595*uint64(r) + 38470*uint64(g) + 7471*uint64(b) + 1<<15) >> 16
}

// Bar returns floor(BarWidth*b) glyphs. b is clamped to [0, 1].
func Bar(b Brightness) string {
	v := float64(b)
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return strings.Repeat(barGlyph, int(math.Floor(BarWidth*v)))
}

// Render formats b to three decimals followed by its bar.
func Render(b Brightness) string {
	return fmt.Sprintf("Brightness: %.3f:\t%s", float64(b), Bar(b))
}
