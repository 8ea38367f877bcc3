package workflow

import (
	"context"
	"errors"

	"filingdesk/internal/camera"
	"filingdesk/internal/classifier"
	"filingdesk/internal/journal"
	"filingdesk/internal/locations"
)

// State is a position in the capture-confirm cycle.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateAwaitingClassification
	StateReviewing
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateAwaitingClassification:
		return "awaiting_classification"
	case StateReviewing:
		return "reviewing"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy rejects a capture while another cycle is in flight.
	ErrBusy = errors.New("capture already in progress")
	// ErrEmptyLabel rejects a confirm whose edited label is blank.
	ErrEmptyLabel = errors.New("label is empty")
	// ErrNoReview rejects edits and confirms outside the review step.
	ErrNoReview = errors.New("no capture under review")
	// ErrCanceled reports that the cycle was cancelled or superseded before it finished.
	ErrCanceled = errors.New("capture cycle cancelled")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("workflow closed")
)

// EmptyLabelMessage is shown when the operator confirms a blank label.
const EmptyLabelMessage = "Please enter a valid name."

// Review is the confirmation dialog's state.
type Review struct {
	CaptureID string
	Frame     camera.Frame
	Proposed  string
	Edited    string
	// Room and Drawer are the server's selection as reported during classification.
	Room   string
	Drawer string
}

// Camera is the capture source.
type Camera interface {
	Available() bool
	CaptureFrame() (camera.Frame, error)
	Close() error
}

// Classifier proposes a label for a frame.
type Classifier interface {
	Classify(ctx context.Context, frame camera.Frame) (classifier.Result, error)
}

// Committer files a confirmed label under the current selection.
type Committer interface {
	CommitFolder(ctx context.Context, label string) (locations.CommitResult, error)
	Selection() (locations.Selection, bool)
}

// Recorder persists finished cycles.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry) (journal.Entry, error)
}
