// Package camerafake provides an in-memory capture device for tests. It lives
// apart from testsupport so packages that never touch the camera do not link
// the OpenCV bindings.
package camerafake

import (
	"errors"
	"sync"

	"filingdesk/internal/camera"
)

// JPEG is the payload Camera returns for every frame.
var JPEG = []byte{0xff, 0xd8, 0xff, 0xe0, 'f', 'a', 'k', 'e', 0xff, 0xd9}

// Camera is an in-memory camera.Device with switchable failures.
type Camera struct {
	mu       sync.Mutex
	openErr  error
	readErr  error
	opens    int
	reads    int
	closes   int
	lastPath string
}

// New returns a working fake device.
func New() *Camera {
	return &Camera{}
}

// Opener returns a camera.Opener that hands out this fake.
func (f *Camera) Opener() camera.Opener {
	return func(path string, width, height int) (camera.Device, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.openErr != nil {
			return nil, f.openErr
		}
		f.opens++
		f.lastPath = path
		return &fakeDevice{cam: f, width: width, height: height}, nil
	}
}

// FailOpen makes subsequent opens fail; nil restores them.
func (f *Camera) FailOpen(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErr = err
}

// FailRead makes subsequent reads fail; nil restores them.
func (f *Camera) FailRead(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErr = err
}

// Opens reports how many times the device was opened.
func (f *Camera) Opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

// Reads reports how many frames were read.
func (f *Camera) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Closes reports how many times an opened device was closed.
func (f *Camera) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// LastPath returns the device path of the most recent open.
func (f *Camera) LastPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPath
}

type fakeDevice struct {
	cam    *Camera
	width  int
	height int
	closed bool
}

func (d *fakeDevice) ReadJPEG(int) ([]byte, int, int, error) {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	if d.closed {
		return nil, 0, 0, errors.New("device closed")
	}
	if d.cam.readErr != nil {
		return nil, 0, 0, d.cam.readErr
	}
	d.cam.reads++
	return append([]byte(nil), JPEG...), d.width, d.height, nil
}

func (d *fakeDevice) Close() error {
	d.cam.mu.Lock()
	defer d.cam.mu.Unlock()
	if !d.closed {
		d.closed = true
		d.cam.closes++
	}
	return nil
}
