package workflow

import (
	"context"
	"fmt"
	"strings"

	"filingdesk/internal/journal"
	"filingdesk/internal/locations"
	"filingdesk/internal/logging"
	"filingdesk/internal/services"
)

const component = "workflow"

// Capture samples a frame and classifies it. On success the workflow is left
// in Reviewing with a fresh Review; on any failure it returns to Idle. It
// blocks for the duration of the capture and the classification request.
func (w *Workflow) Capture(ctx context.Context) (err error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.state != StateIdle {
		w.mu.Unlock()
		return ErrBusy
	}
	if w.camera == nil || !w.camera.Available() {
		w.mu.Unlock()
		err := services.Wrap(services.ErrCameraUnavailable, component, "capture", "", nil)
		w.emit(noticeEvent(LevelError, services.Message(err)))
		return err
	}
	gen, opCtx := w.beginLocked(ctx)
	captureID := w.newID()
	w.state = StateCapturing
	w.mu.Unlock()
	w.emit(stateEvent(StateCapturing))

	defer w.recoverCycle(gen, &err)
	defer w.end(gen)

	opCtx = services.WithCaptureID(opCtx, captureID)
	logger := logging.WithContext(opCtx, w.logger)

	frame, err := w.camera.CaptureFrame()
	if err != nil {
		w.fail(gen, StateCapturing, StateIdle, err)
		return err
	}

	w.mu.Lock()
	if !w.currentLocked(gen, StateCapturing) {
		w.mu.Unlock()
		return ErrCanceled
	}
	w.state = StateAwaitingClassification
	w.mu.Unlock()
	w.emit(stateEvent(StateAwaitingClassification))

	classifyCtx, cancel := context.WithTimeout(opCtx, w.classifyTimeout)
	result, err := w.classifier.Classify(classifyCtx, frame)
	cancel()
	if err != nil {
		if !w.fail(gen, StateAwaitingClassification, StateIdle, err) {
			logger.Debug("discarding late classification failure", logging.Error(err))
			return ErrCanceled
		}
		sel, _ := w.store.Selection()
		w.record(journal.Entry{
			CaptureID: captureID,
			Outcome:   journal.OutcomeClassifyFailed,
			Room:      sel.Room,
			Drawer:    sel.Drawer,
			Message:   services.Message(err),
			ErrorKind: services.Kind(err),
		})
		w.notifyError("classification", err)
		return err
	}

	w.mu.Lock()
	if !w.currentLocked(gen, StateAwaitingClassification) {
		w.mu.Unlock()
		logger.Debug("discarding late classification result", logging.String("label", result.Label))
		return ErrCanceled
	}
	w.review = &Review{
		CaptureID: captureID,
		Frame:     frame,
		Proposed:  result.Label,
		Edited:    result.Label,
		Room:      result.Room,
		Drawer:    result.Drawer,
	}
	w.state = StateReviewing
	w.mu.Unlock()
	w.emit(stateEvent(StateReviewing))

	logger.Info("capture ready for review",
		logging.String(logging.FieldEventType, "capture_reviewing"),
		logging.String("label", result.Label),
	)
	return nil
}

// Edit replaces the edited label of the open review.
func (w *Workflow) Edit(label string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateReviewing || w.review == nil {
		return ErrNoReview
	}
	w.review.Edited = label
	return nil
}

// Confirm files the trimmed edited label. A blank label is rejected locally
// and the review stays open. A failed commit returns to Reviewing with the
// review intact; a successful one returns to Idle.
func (w *Workflow) Confirm(ctx context.Context) (result locations.CommitResult, err error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return locations.CommitResult{}, ErrClosed
	}
	if w.state != StateReviewing || w.review == nil {
		w.mu.Unlock()
		return locations.CommitResult{}, ErrNoReview
	}
	label := strings.TrimSpace(w.review.Edited)
	if label == "" {
		w.mu.Unlock()
		w.emit(noticeEvent(LevelWarning, EmptyLabelMessage))
		return locations.CommitResult{}, services.Wrap(services.ErrInvalidLabel, component, "confirm", EmptyLabelMessage, ErrEmptyLabel)
	}
	review := *w.review
	gen, opCtx := w.beginLocked(ctx)
	w.state = StateCommitting
	w.mu.Unlock()
	w.emit(stateEvent(StateCommitting))

	defer w.recoverCycle(gen, &err)
	defer w.end(gen)

	opCtx = services.WithCaptureID(opCtx, review.CaptureID)
	logger := logging.WithContext(opCtx, w.logger)

	commitCtx, cancel := context.WithTimeout(opCtx, w.commitTimeout)
	result, err = w.store.CommitFolder(commitCtx, label)
	cancel()

	entry := journal.Entry{
		CaptureID:     review.CaptureID,
		ProposedLabel: review.Proposed,
		FinalLabel:    label,
		Room:          result.Room,
		Drawer:        result.Drawer,
	}

	if err != nil {
		current := w.fail(gen, StateCommitting, StateReviewing, err)
		if entry.Room == "" {
			sel, _ := w.store.Selection()
			entry.Room, entry.Drawer = sel.Room, sel.Drawer
		}
		entry.Outcome = journal.OutcomeCommitFailed
		entry.Message = services.Message(err)
		entry.ErrorKind = services.Kind(err)
		w.record(entry)
		w.notifyError("commit", err)
		if !current {
			logger.Debug("commit failed after cancellation", logging.Error(err))
		}
		return result, err
	}

	w.mu.Lock()
	current := w.currentLocked(gen, StateCommitting)
	if current {
		w.state = StateIdle
		w.review = nil
	}
	w.mu.Unlock()

	entry.Outcome = journal.OutcomeCommitted
	entry.Message = result.Message
	w.record(entry)
	w.notifyFiled(result)

	logger.Info("folder filed",
		logging.String(logging.FieldEventType, "folder_filed"),
		logging.String("label", label),
		logging.String(logging.FieldRoom, result.Room),
		logging.String(logging.FieldDrawer, result.Drawer),
		logging.Bool("superseded", !current),
	)

	events := make([]Event, 0, 3)
	if current {
		events = append(events, stateEvent(StateIdle))
	}
	events = append(events, noticeEvent(LevelSuccess, result.Message))
	if result.RefreshErr != nil {
		events = append(events, noticeEvent(LevelWarning,
			"Folder filed, but the location list could not be refreshed: "+services.Message(result.RefreshErr)))
	}
	w.emit(events...)
	return result, nil
}

// Cancel abandons the current cycle from any state. Nothing is sent to the
// backend; an in-flight request is cancelled and its late result ignored.
func (w *Workflow) Cancel() {
	w.discard("cancel")
}

// Retry discards the current capture so the operator can take another.
func (w *Workflow) Retry() {
	w.discard("retry")
}

func (w *Workflow) discard(reason string) {
	w.mu.Lock()
	review := w.review
	previous := w.state
	changed := w.resetLocked()
	w.mu.Unlock()

	if review != nil {
		sel, _ := w.store.Selection()
		w.record(journal.Entry{
			CaptureID:     review.CaptureID,
			Outcome:       journal.OutcomeDiscarded,
			ProposedLabel: review.Proposed,
			FinalLabel:    strings.TrimSpace(review.Edited),
			Room:          sel.Room,
			Drawer:        sel.Drawer,
			Message:       reason,
		})
	}
	if changed {
		w.logger.Debug("capture cycle discarded",
			logging.String("reason", reason),
			logging.String("from_state", previous.String()),
		)
		w.emit(stateEvent(StateIdle))
	}
}

// fail moves a current operation from expected to next and surfaces err. It
// reports false when the operation was superseded.
func (w *Workflow) fail(gen uint64, expected, next State, err error) bool {
	w.mu.Lock()
	if !w.currentLocked(gen, expected) {
		w.mu.Unlock()
		return false
	}
	w.state = next
	if next == StateIdle {
		w.review = nil
	}
	w.mu.Unlock()

	logging.WarnWithContext(w.logger, "capture cycle step failed", "workflow_step_failed",
		logging.String("step", expected.String()),
		logging.String("error_kind", services.Kind(err)),
		logging.Error(err),
		logging.String(logging.FieldImpact, "returned to "+next.String()),
	)
	w.emit(stateEvent(next), noticeEvent(LevelError, services.Message(err)))
	return true
}

func (w *Workflow) end(gen uint64) {
	w.mu.Lock()
	w.endLocked(gen)
	w.mu.Unlock()
}

func (w *Workflow) recoverCycle(gen uint64, err *error) {
	r := recover()
	if r == nil {
		return
	}
	logging.ErrorWithContext(w.logger, "capture cycle panicked", "workflow_panic",
		logging.String("panic", fmt.Sprint(r)),
		logging.String(logging.FieldErrorHint, "report this with the log file attached"),
	)
	w.mu.Lock()
	current := w.gen == gen
	if current {
		w.resetLocked()
	}
	w.mu.Unlock()

	*err = fmt.Errorf("capture cycle panicked: %v", r)
	if current {
		w.emit(stateEvent(StateIdle), noticeEvent(LevelError, "Unexpected error; ready to capture again."))
	}
}
