package camera

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Device is an opened video source that can produce JPEG stills.
type Device interface {
	ReadJPEG(quality int) (data []byte, width, height int, err error)
	Close() error
}

// Opener opens the video device at path, requesting width x height.
type Opener func(path string, width, height int) (Device, error)

type gocvDevice struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
	scaled  gocv.Mat
	width   int
	height  int
}

// OpenGoCV opens a V4L device through OpenCV.
func OpenGoCV(path string, width, height int) (Device, error) {
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, fmt.Errorf("open %s: device did not open", path)
	}
	capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
	return &gocvDevice{
		capture: capture,
		frame:   gocv.NewMat(),
		scaled:  gocv.NewMat(),
		width:   width,
		height:  height,
	}, nil
}

func (d *gocvDevice) ReadJPEG(quality int) ([]byte, int, int, error) {
	if ok := d.capture.Read(&d.frame); !ok || d.frame.Empty() {
		return nil, 0, 0, errors.New("no frame available from device")
	}

	img := d.frame
	// Drivers may ignore the requested size; scale so frames are always the target resolution.
	if d.frame.Cols() != d.width || d.frame.Rows() != d.height {
		gocv.Resize(d.frame, &d.scaled, image.Pt(d.width, d.height), 0, 0, gocv.InterpolationArea)
		img = d.scaled
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{int(gocv.IMWriteJpegQuality), quality})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()
	data := append([]byte(nil), buf.GetBytes()...)
	return data, img.Cols(), img.Rows(), nil
}

func (d *gocvDevice) Close() error {
	_ = d.frame.Close()
	_ = d.scaled.Close()
	return d.capture.Close()
}
