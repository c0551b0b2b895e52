// Package opencv opens local capture devices through GoCV.
package opencv

import (
	"fmt"
	"log/slog"

	"github.com/teslashibe/framedigest/pkg/camera"
	"github.com/teslashibe/framedigest/pkg/frame"
	"gocv.io/x/gocv"
)

// highestFPS is written to the FPS property when the request leaves the
// rate open. V4L2 and AVFoundation clamp it to the fastest mode the
// sensor offers.
const highestFPS = 1000

// Opener opens V4L2/AVFoundation/DirectShow devices by index.
type Opener struct {
	Logger *slog.Logger
}

// NewOpener returns an Opener that logs negotiated formats to logger.
func NewOpener(logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{Logger: logger}
}

// Open implements camera.Opener.
func (o *Opener) Open(index int, req camera.FormatRequest) (camera.Device, error) {
	vc, err := gocv.VideoCaptureDevice(index)
	if err != nil {
		return nil, &camera.DeviceOpenError{Index: index, Err: err}
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, &camera.DeviceOpenError{Index: index, Err: camera.ErrNotOpened}
	}

	if req.Width > 0 && req.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(req.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(req.Height))
	}
	fps := float64(req.Framerate)
	if req.HighestFrameRate() {
		fps = highestFPS
	}
	vc.Set(gocv.VideoCaptureFPS, fps)
	vc.Set(gocv.VideoCaptureConvertRGB, 1)

	if o.Logger != nil {
		o.Logger.Debug("camera opened",
			"index", index,
			"width", vc.Get(gocv.VideoCaptureFrameWidth),
			"height", vc.Get(gocv.VideoCaptureFrameHeight),
			"fps", vc.Get(gocv.VideoCaptureFPS),
			"format", req.Format.String(),
		)
	}

	return &Device{
		vc:     vc,
		mat:    gocv.NewMat(),
		conv:   gocv.NewMat(),
		index:  index,
		format: req.Format,
	}, nil
}

// Device is an open GoCV capture. It is not safe for concurrent use.
type Device struct {
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	conv   gocv.Mat
	index  int
	format frame.Format
}

// Capture reads one frame and converts it to the requested format.
// OpenCV delivers BGR.
func (d *Device) Capture() (frame.Frame, error) {
	if ok := d.vc.Read(&d.mat); !ok || d.mat.Empty() {
		return frame.Frame{}, &camera.CaptureError{Index: d.index, Err: camera.ErrEmptyFrame}
	}
	if d.mat.Type() != gocv.MatTypeCV8UC3 {
		return frame.Frame{}, &camera.CaptureError{
			Index: d.index,
			Err:   fmt.Errorf("unexpected mat type %v", d.mat.Type()),
		}
	}

	w, h := d.mat.Cols(), d.mat.Rows()

	switch d.format {
	case frame.FormatBGR24:
		return frame.Frame{Data: d.mat.ToBytes(), Width: w, Height: h, Format: frame.FormatBGR24}, nil

	case frame.FormatRGB24:
		gocv.CvtColor(d.mat, &d.conv, gocv.ColorBGRToRGB)
		return frame.Frame{Data: d.conv.ToBytes(), Width: w, Height: h, Format: frame.FormatRGB24}, nil

	case frame.FormatGray8:
		gocv.CvtColor(d.mat, &d.conv, gocv.ColorBGRToGray)
		return frame.Frame{Data: d.conv.ToBytes(), Width: w, Height: h, Format: frame.FormatGray8}, nil

	case frame.FormatMJPEG:
		buf, err := gocv.IMEncode(gocv.JPEGFileExt, d.mat)
		if err != nil {
			return frame.Frame{}, &camera.CaptureError{Index: d.index, Err: fmt.Errorf("encode jpeg: %w", err)}
		}
		defer buf.Close()
		// GetBytes aliases C memory freed by Close.
		data := append([]byte(nil), buf.GetBytes()...)
		return frame.Frame{Data: data, Width: w, Height: h, Format: frame.FormatMJPEG}, nil

	default:
		return frame.Frame{}, &camera.CaptureError{
			Index: d.index,
			Err:   fmt.Errorf("unsupported format %s", d.format),
		}
	}
}

// Close releases the Mats and the capture handle.
func (d *Device) Close() error {
	d.mat.Close()
	d.conv.Close()
	return d.vc.Close()
}
