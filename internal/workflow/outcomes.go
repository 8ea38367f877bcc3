package workflow

import (
	"context"
	"errors"
	"time"

	"filingdesk/internal/journal"
	"filingdesk/internal/locations"
	"filingdesk/internal/logging"
	"filingdesk/internal/notifications"
	"filingdesk/internal/services"
)

const (
	recordTimeout = 5 * time.Second
	notifyTimeout = 15 * time.Second
)

func (w *Workflow) record(entry journal.Entry) {
	if w.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if _, err := w.recorder.Record(ctx, entry); err != nil {
		logging.WarnWithContext(w.logger, "failed to journal capture cycle", "journal_write_failed",
			logging.String(logging.FieldCaptureID, entry.CaptureID),
			logging.String("outcome", string(entry.Outcome)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state directory is writable"),
			logging.String(logging.FieldImpact, "history will miss this capture"),
		)
	}
}

func (w *Workflow) notifyFiled(result locations.CommitResult) {
	w.publish(notifications.EventFolderFiled, notifications.Payload{
		"label":  result.Label,
		"room":   result.Room,
		"drawer": result.Drawer,
	})
}

func (w *Workflow) notifyError(contextLabel string, err error) {
	w.publish(notifications.EventError, notifications.Payload{
		"context": contextLabel,
		"error":   services.Message(err),
	})
}

// publish sends in the background; Close waits for outstanding sends.
func (w *Workflow) publish(event notifications.Event, payload notifications.Payload) {
	if w.notifier == nil {
		return
	}
	send := func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := w.notifier.Publish(ctx, event, payload); err != nil {
			if errors.Is(err, context.Canceled) {
				w.logger.Debug("notification cancelled", logging.String("event", string(event)))
				return
			}
			w.logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
		}
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		send()
		return
	}
	w.background.Add(1)
	w.mu.Unlock()
	go func() {
		defer w.background.Done()
		send()
	}()
}
