package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"filingdesk/internal/config"
	"filingdesk/internal/logging"
	"filingdesk/internal/services"
)

const component = "camera"

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("camera engine closed")

// Engine owns the live video device for the lifetime of the process.
type Engine struct {
	device   string
	width    int
	height   int
	quality  int
	lockPath string
	hotplug  bool

	open   Opener
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	mu      sync.Mutex
	started bool
	closed  bool
	lock    *flock.Flock
	dev     Device
	monitor *hotplugMonitor
}

// Option customizes an Engine.
type Option func(*Engine)

// WithOpener replaces the OpenCV device opener.
func WithOpener(open Opener) Option {
	return func(e *Engine) {
		if open != nil {
			e.open = open
		}
	}
}

// WithClock overrides the capture timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine builds an engine for the configured device. Nothing is opened until Start.
func NewEngine(cfg *config.Config, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		device:   strings.TrimSpace(cfg.Camera.Device),
		width:    FrameWidth,
		height:   FrameHeight,
		quality:  cfg.Camera.JPEGQuality,
		lockPath: cfg.CameraLockPath(),
		hotplug:  cfg.Camera.Hotplug,
		open:     OpenGoCV,
		logger:   logging.NewComponentLogger(logger, component),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Device returns the configured device path.
func (e *Engine) Device() string {
	return e.device
}

// Start acquires the device and, when enabled, begins watching for hotplug
// events. A failed acquisition is returned as ErrCameraUnavailable; the engine
// stays usable and can pick the device up later through hotplug.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	first := !e.started
	e.started = true
	err := e.acquireLocked()
	if first && e.hotplug && e.monitor == nil {
		e.monitor = newHotplugMonitor(e.device, e.logger, e)
	}
	monitor := e.monitor
	e.mu.Unlock()

	if first {
		if startErr := monitor.Start(ctx); startErr != nil {
			e.logger.Debug("hotplug monitor not started", logging.Error(startErr))
		}
	}

	if err != nil {
		logging.WarnWithContext(e.logger, "camera unavailable", "camera_unavailable",
			logging.String("device", e.device),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the camera is connected and not used by another program"),
			logging.String(logging.FieldImpact, "capture disabled until the device is available"),
		)
		return err
	}
	e.logger.Info("camera acquired",
		logging.String(logging.FieldEventType, "camera_acquired"),
		logging.String("device", e.device),
		logging.Int("width", e.width),
		logging.Int("height", e.height),
	)
	return nil
}

// Available reports whether a frame can be captured right now.
func (e *Engine) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dev != nil && !e.closed
}

// CaptureFrame samples and JPEG-encodes the current video frame. It panics
// when called before Start.
func (e *Engine) CaptureFrame() (Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		panic("camera: CaptureFrame called before Start")
	}
	if e.closed || e.dev == nil {
		return Frame{}, services.Wrap(services.ErrCameraUnavailable, component, "capture", "device not acquired", nil)
	}

	data, width, height, err := e.dev.ReadJPEG(e.quality)
	if err != nil {
		e.releaseLocked()
		logging.WarnWithContext(e.logger, "camera read failed; releasing device", "camera_read_failed",
			logging.String("device", e.device),
			logging.Error(err),
			logging.String(logging.FieldImpact, "capture disabled until the device is available"),
		)
		return Frame{}, services.Wrap(services.ErrCameraUnavailable, component, "capture", "read frame", err)
	}
	return Frame{
		ID:         e.newID(),
		Data:       data,
		Width:      width,
		Height:     height,
		CapturedAt: e.now(),
	}, nil
}

// Close releases the device, the lock file and the hotplug monitor. It is safe
// to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	err := e.releaseLocked()
	monitor := e.monitor
	e.monitor = nil
	e.mu.Unlock()

	monitor.Stop()
	return err
}

func (e *Engine) deviceAdded() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.started || e.dev != nil {
		return
	}
	if err := e.acquireLocked(); err != nil {
		logging.WarnWithContext(e.logger, "camera re-acquire failed", "camera_reacquire_failed",
			logging.String("device", e.device),
			logging.Error(err),
		)
		return
	}
	e.logger.Info("camera re-acquired",
		logging.String(logging.FieldEventType, "camera_reacquired"),
		logging.String("device", e.device),
	)
}

func (e *Engine) deviceRemoved() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dev == nil {
		return
	}
	e.releaseLocked()
	logging.WarnWithContext(e.logger, "camera removed", "camera_removed",
		logging.String("device", e.device),
		logging.String(logging.FieldErrorHint, "reconnect the camera"),
		logging.String(logging.FieldImpact, "capture disabled until the device is available"),
	)
}

func (e *Engine) acquireLocked() error {
	if e.dev != nil {
		return nil
	}
	if e.device == "" {
		return services.Wrap(services.ErrCameraUnavailable, component, "acquire", "no camera device configured", nil)
	}
	if e.lock == nil {
		if err := os.MkdirAll(filepath.Dir(e.lockPath), 0o755); err != nil {
			return services.Wrap(services.ErrCameraUnavailable, component, "acquire", "create lock directory", err)
		}
		e.lock = flock.New(e.lockPath)
	}
	ok, err := e.lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrCameraUnavailable, component, "acquire", fmt.Sprintf("lock %s", e.lockPath), err)
	}
	if !ok {
		return services.Wrap(services.ErrCameraUnavailable, component, "acquire",
			fmt.Sprintf("%s is in use by another filingdesk process", e.device), nil)
	}
	dev, err := e.open(e.device, e.width, e.height)
	if err != nil {
		_ = e.lock.Unlock()
		return services.Wrap(services.ErrCameraUnavailable, component, "acquire", fmt.Sprintf("open %s", e.device), err)
	}
	e.dev = dev
	return nil
}

func (e *Engine) releaseLocked() error {
	var errs []error
	if e.dev != nil {
		errs = append(errs, e.dev.Close())
		e.dev = nil
	}
	if e.lock != nil && e.lock.Locked() {
		errs = append(errs, e.lock.Unlock())
	}
	return errors.Join(errs...)
}
