package camera

import (
	"encoding/base64"
	"time"
)

// Captures are always requested at this resolution.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

// Frame is one still image sampled from the live video source.
type Frame struct {
	ID         string
	Data       []byte
	Width      int
	Height     int
	CapturedAt time.Time
}

// DataURL encodes the frame the way the classification endpoint expects it.
func (f Frame) DataURL() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(f.Data)
}

// Empty reports whether the frame carries no image data.
func (f Frame) Empty() bool {
	return len(f.Data) == 0
}
