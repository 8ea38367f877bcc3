package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"filingdesk/internal/config"
	"filingdesk/internal/logging"
	"filingdesk/internal/notifications"
)

// Workflow drives one capture-classify-review-commit cycle at a time. All
// methods are safe for concurrent use; the state itself is the single-flight
// guard.
type Workflow struct {
	camera     Camera
	classifier Classifier
	store      Committer
	recorder   Recorder
	notifier   notifications.Service
	logger     *slog.Logger
	newID      func() string

	classifyTimeout time.Duration
	commitTimeout   time.Duration

	mu     sync.Mutex
	state  State
	review *Review
	gen    uint64
	cancel context.CancelFunc
	closed bool

	emitMu   sync.Mutex
	listener func(Event)

	// background tracks journal writes and notifications still in flight.
	background sync.WaitGroup
}

// Option configures optional Workflow collaborators.
type Option func(*Workflow)

// WithRecorder journals every finished cycle.
func WithRecorder(recorder Recorder) Option {
	return func(w *Workflow) {
		w.recorder = recorder
	}
}

// WithNotifier publishes filed folders and failures.
func WithNotifier(notifier notifications.Service) Option {
	return func(w *Workflow) {
		if notifier != nil {
			w.notifier = notifier
		}
	}
}

// WithListener registers the event listener at construction.
func WithListener(fn func(Event)) Option {
	return func(w *Workflow) {
		w.listener = fn
	}
}

// WithIDSource overrides capture ID generation.
func WithIDSource(fn func() string) Option {
	return func(w *Workflow) {
		if fn != nil {
			w.newID = fn
		}
	}
}

// New constructs an idle workflow. Classify and commit deadlines come from cfg.
func New(cfg *config.Config, cam Camera, cls Classifier, store Committer, logger *slog.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		camera:          cam,
		classifier:      cls,
		store:           store,
		notifier:        notifications.NewService(cfg),
		logger:          logging.NewComponentLogger(logger, "workflow"),
		newID:           uuid.NewString,
		classifyTimeout: cfg.ClassifyTimeout(),
		commitTimeout:   cfg.CommitTimeout(),
		state:           StateIdle,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// CanCapture reports whether the capture affordance should be enabled.
func (w *Workflow) CanCapture() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == StateIdle && !w.closed
}

// Review returns a copy of the dialog state while one exists.
func (w *Workflow) Review() (Review, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.review == nil {
		return Review{}, false
	}
	return *w.review, true
}

// Close cancels any in-flight operation, waits for background journal and
// notification work, and releases the camera.
func (w *Workflow) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	changed := w.resetLocked()
	w.mu.Unlock()

	if changed {
		w.emit(stateEvent(StateIdle))
	}
	w.background.Wait()
	if w.camera == nil {
		return nil
	}
	return w.camera.Close()
}

// resetLocked returns to Idle, cancelling and superseding any in-flight
// operation. It reports whether the state changed.
func (w *Workflow) resetLocked() bool {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.gen++
	w.review = nil
	changed := w.state != StateIdle
	w.state = StateIdle
	return changed
}

// beginLocked starts a new operation generation and returns its context.
func (w *Workflow) beginLocked(parent context.Context) (uint64, context.Context) {
	if w.cancel != nil {
		w.cancel()
	}
	w.gen++
	ctx, cancel := context.WithCancel(parent)
	w.cancel = cancel
	return w.gen, ctx
}

// currentLocked reports whether gen still owns the workflow in state.
func (w *Workflow) currentLocked(gen uint64, state State) bool {
	return !w.closed && w.gen == gen && w.state == state
}

// endLocked clears the cancel func owned by gen.
func (w *Workflow) endLocked(gen uint64) {
	if w.gen == gen && w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}
