package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"filingdesk/internal/backend"
	"filingdesk/internal/camera"
	"filingdesk/internal/classifier"
	"filingdesk/internal/config"
	"filingdesk/internal/journal"
	"filingdesk/internal/locations"
	"filingdesk/internal/logging"
	"filingdesk/internal/notifications"
	"filingdesk/internal/services"
	"filingdesk/internal/testsupport"
	"filingdesk/internal/testsupport/camerafake"
	"filingdesk/internal/workflow"
)

type eventLog struct {
	mu     sync.Mutex
	events []workflow.Event
}

func (l *eventLog) add(evt workflow.Event) {
	l.mu.Lock()
	l.events = append(l.events, evt)
	l.mu.Unlock()
}

func (l *eventLog) states() []workflow.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []workflow.State
	for _, evt := range l.events {
		if evt.Kind == workflow.EventStateChanged {
			out = append(out, evt.State)
		}
	}
	return out
}

func (l *eventLog) lastNotice() (workflow.Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Kind == workflow.EventNotice {
			return l.events[i], true
		}
	}
	return workflow.Event{}, false
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
	last   notifications.Payload
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.last = payload
	return nil
}

func (r *recordingNotifier) snapshot() ([]notifications.Event, notifications.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notifications.Event(nil), r.events...), r.last
}

type harness struct {
	cfg      *config.Config
	fake     *testsupport.FakeBackend
	cam      *camerafake.Camera
	engine   *camera.Engine
	store    *locations.Store
	journal  *journal.Store
	notifier *recordingNotifier
	events   *eventLog
	wf       *workflow.Workflow
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	fake := testsupport.NewFakeBackend(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(fake.URL()))
	for _, fn := range mutate {
		fn(cfg)
	}

	cam := camerafake.New()
	engine := camera.NewEngine(cfg, logging.NewNop(), camera.WithOpener(cam.Opener()))
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("engine.Start: %v", err)
	}

	client := backend.NewClient(fake.URL(), cfg.RequestTimeout())
	store := locations.NewStore(client, locations.NewLayout(cfg.Layout), logging.NewNop())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("store.Load: %v", err)
	}

	h := &harness{
		cfg:      cfg,
		fake:     fake,
		cam:      cam,
		engine:   engine,
		store:    store,
		journal:  testsupport.MustOpenJournal(t, cfg),
		notifier: &recordingNotifier{},
		events:   &eventLog{},
	}
	h.wf = workflow.New(cfg, engine, classifier.New(client, logging.NewNop()), store, logging.NewNop(),
		workflow.WithRecorder(h.journal),
		workflow.WithNotifier(h.notifier),
		workflow.WithListener(h.events.add),
	)
	t.Cleanup(func() { _ = h.wf.Close() })
	return h
}

func (h *harness) entries(t *testing.T) []journal.Entry {
	t.Helper()
	entries, err := h.journal.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("journal.Recent: %v", err)
	}
	return entries
}

func waitForState(t *testing.T, wf *workflow.Workflow, want workflow.State) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if wf.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s (current %s)", want, wf.State())
}

func TestCaptureOpensReview(t *testing.T) {
	h := newHarness(t)

	if err := h.wf.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if h.wf.State() != workflow.StateReviewing || h.wf.CanCapture() {
		t.Fatalf("expected Reviewing with capture disabled, got %s", h.wf.State())
	}
	review, ok := h.wf.Review()
	if !ok || review.Proposed != "Maria Silva" || review.Edited != "Maria Silva" {
		t.Fatalf("unexpected review: %+v", review)
	}
	if review.Frame.Empty() || review.CaptureID == "" {
		t.Fatalf("expected frame and capture id on review: %+v", review)
	}
	if review.Room != "Sala 1" || review.Drawer != "Gaveta 1" {
		t.Fatalf("expected echoed selection, got %s/%s", review.Room, review.Drawer)
	}

	want := []workflow.State{workflow.StateCapturing, workflow.StateAwaitingClassification, workflow.StateReviewing}
	got := h.events.states()
	if len(got) != len(want) {
		t.Fatalf("states = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("states = %v, want %v", got, want)
		}
	}
}

func TestCaptureRejectedWhileBusy(t *testing.T) {
	h := newHarness(t)
	if err := h.wf.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}

	if err := h.wf.Capture(context.Background()); !errors.Is(err, workflow.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if calls := h.fake.Calls(backend.PathProcessImage); calls != 1 {
		t.Fatalf("expected one classification request, got %d", calls)
	}
	if h.cam.Reads() != 1 {
		t.Fatalf("expected one frame read, got %d", h.cam.Reads())
	}
}

func TestClassificationFailureReturnsToIdle(t *testing.T) {
	h := newHarness(t)
	h.fake.SetClassifyError("timeout")

	err := h.wf.Capture(context.Background())
	if !errors.Is(err, services.ErrClassification) {
		t.Fatalf("expected classification error, got %v", err)
	}
	if !h.wf.CanCapture() {
		t.Fatal("expected capture to be re-enabled")
	}
	if _, ok := h.wf.Review(); ok {
		t.Fatal("expected no review after classification failure")
	}
	notice, ok := h.events.lastNotice()
	if !ok || notice.Level != workflow.LevelError || notice.Message != "Error processing image: timeout" {
		t.Fatalf("unexpected notice: %+v", notice)
	}

	entries := h.entries(t)
	if len(entries) != 1 || entries[0].Outcome != journal.OutcomeClassifyFailed || entries[0].ErrorKind != "classification" {
		t.Fatalf("unexpected journal: %+v", entries)
	}
	_ = h.wf.Close()
	events, _ := h.notifier.snapshot()
	if len(events) != 1 || events[0] != notifications.EventError {
		t.Fatalf("expected an error notification, got %v", events)
	}
}

func TestConfirmRejectsBlankLabelLocally(t *testing.T) {
	h := newHarness(t)
	h.fake.SetDetectedName("Alice")
	if err := h.wf.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}

	for _, blank := range []string{"", "   \t"} {
		if err := h.wf.Edit(blank); err != nil {
			t.Fatalf("Edit: %v", err)
		}
		_, err := h.wf.Confirm(context.Background())
		if !errors.Is(err, workflow.ErrEmptyLabel) || !errors.Is(err, services.ErrInvalidLabel) {
			t.Fatalf("expected empty label error, got %v", err)
		}
		if services.Message(err) != workflow.EmptyLabelMessage {
			t.Fatalf("unexpected message %q", services.Message(err))
		}
	}
	if h.wf.State() != workflow.StateReviewing {
		t.Fatalf("expected dialog to stay open, got %s", h.wf.State())
	}
	if review, ok := h.wf.Review(); !ok || review.Proposed != "Alice" {
		t.Fatalf("expected review preserved, got %+v", review)
	}
	if h.fake.Calls(backend.PathConfirmName) != 0 {
		t.Fatal("expected no confirm request for a blank label")
	}
	if notice, _ := h.events.lastNotice(); notice.Level != workflow.LevelWarning || notice.Message != workflow.EmptyLabelMessage {
		t.Fatalf("unexpected notice: %+v", notice)
	}
}

func TestConfirmFilesFolderAndRefreshes(t *testing.T) {
	h := newHarness(t)
	if err := h.wf.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if err := h.wf.Edit("  Maria S. Silva "); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	result, err := h.wf.Confirm(context.Background())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if result.Message != "Adicionado: Maria S. Silva -> Sala 1/Gaveta 1" {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if !h.wf.CanCapture() {
		t.Fatal("expected Idle after a successful commit")
	}
	if _, ok := h.wf.Review(); ok {
		t.Fatal("expected review to be destroyed")
	}

	snap, _ := h.store.Snapshot()
	if folders := snap.Folders(); len(folders) != 1 || folders[0] != "Maria S. Silva" {
		t.Fatalf("expected store to reflect the new folder, got %v", folders)
	}
	if h.fake.Calls(backend.PathLocations) != 2 {
		t.Fatalf("expected a reload after commit, got %d loads", h.fake.Calls(backend.PathLocations))
	}
	if notice, _ := h.events.lastNotice(); notice.Level != workflow.LevelSuccess || notice.Message != result.Message {
		t.Fatalf("unexpected notice: %+v", notice)
	}

	entries := h.entries(t)
	if len(entries) != 1 {
		t.Fatalf("expected one journal entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Outcome != journal.OutcomeCommitted || entry.ProposedLabel != "Maria Silva" || entry.FinalLabel != "Maria S. Silva" || entry.Location() != "Sala 1/Gaveta 1" {
		t.Fatalf("unexpected journal entry: %+v", entry)
	}

	_ = h.wf.Close()
	events, payload := h.notifier.snapshot()
	if len(events) != 1 || events[0] != notifications.EventFolderFiled || payload["label"] != "Maria S. Silva" {
		t.Fatalf("unexpected notifications %v %v", events, payload)
	}
}

func TestConfirmFailurePreservesReview(t *testing.T) {
	h := newHarness(t)
	h.fake.SetConfirmError("duplicate key value")
	if err := h.wf.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if err := h.wf.Edit("Maria Edited"); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	_, err := h.wf.Confirm(context.Background())
	if !errors.Is(err, services.ErrCommit) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if h.wf.State() != workflow.StateReviewing {
		t.Fatalf("expected Reviewing after failed commit, got %s", h.wf.State())
	}
	review, ok := h.wf.Review()
	if !ok || review.Edited != "Maria Edited" {
		t.Fatalf("expected edited label preserved, got %+v", review)
	}
	if notice, _ := h.events.lastNotice(); notice.Message != "Error confirming name: duplicate key value" {
		t.Fatalf("unexpected notice: %+v", notice)
	}
	if entries := h.entries(t); len(entries) != 1 || entries[0].Outcome != journal.OutcomeCommitFailed {
		t.Fatalf("unexpected journal: %+v", entries)
	}

	// The operator can fix the problem and confirm again from the same dialog.
	h.fake.SetConfirmError("")
	if _, err := h.wf.Confirm(context.Background()); err != nil {
		t.Fatalf("second Confirm: %v", err)
	}
	if got := h.fake.Folders("Sala 1", "Gaveta 1"); len(got) != 1 || got[0] != "Maria Edited" {
		t.Fatalf("unexpected server folders %v", got)
	}
}

func TestCommitUsesSelectionActiveAtCommitTime(t *testing.T) {
	h := newHarness(t)
	if err := h.store.SetSelection(context.Background(), "Sala 3", "Gaveta 4"); err != nil {
		t.Fatalf("SetSelection: %v", err)
	}
	if err := h.wf.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	result, err := h.wf.Confirm(context.Background())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if result.Room != "Sala 3" || result.Drawer != "Gaveta 4" {
		t.Fatalf("unexpected commit location %s/%s", result.Room, result.Drawer)
	}
	snap, _ := h.store.Snapshot()
	if got := snap.Tree.Folders("Sala 3", "Gaveta 4"); len(got) != 1 {
		t.Fatalf("expected folder under Sala 3/Gaveta 4, got %v", got)
	}
}

func TestCancelFromEveryState(t *testing.T) {
	tests := []struct {
		name  string
		reach func(t *testing.T, h *harness) <-chan error
		state workflow.State
	}{
		{
			name:  "idle",
			reach: func(*testing.T, *harness) <-chan error { return nil },
			state: workflow.StateIdle,
		},
		{
			name: "reviewing",
			reach: func(t *testing.T, h *harness) <-chan error {
				if err := h.wf.Capture(context.Background()); err != nil {
					t.Fatalf("Capture: %v", err)
				}
				return nil
			},
			state: workflow.StateReviewing,
		},
		{
			name: "awaiting classification",
			reach: func(t *testing.T, h *harness) <-chan error {
				h.fake.Block(backend.PathProcessImage)
				done := make(chan error, 1)
				go func() { done <- h.wf.Capture(context.Background()) }()
				waitForState(t, h.wf, workflow.StateAwaitingClassification)
				return done
			},
			state: workflow.StateAwaitingClassification,
		},
		{
			name: "committing",
			reach: func(t *testing.T, h *harness) <-chan error {
				if err := h.wf.Capture(context.Background()); err != nil {
					t.Fatalf("Capture: %v", err)
				}
				h.fake.Block(backend.PathConfirmName)
				done := make(chan error, 1)
				go func() {
					_, err := h.wf.Confirm(context.Background())
					done <- err
				}()
				waitForState(t, h.wf, workflow.StateCommitting)
				return done
			},
			state: workflow.StateCommitting,
		},
	}

	for _, tc := range tests {
		for _, op := range []string{"cancel", "retry"} {
			t.Run(tc.name+"/"+op, func(t *testing.T) {
				h := newHarness(t)
				done := tc.reach(t, h)
				if h.wf.State() != tc.state {
					t.Fatalf("setup reached %s, want %s", h.wf.State(), tc.state)
				}

				if op == "cancel" {
					h.wf.Cancel()
				} else {
					h.wf.Retry()
				}

				if !h.wf.CanCapture() {
					t.Fatalf("expected Idle after %s, got %s", op, h.wf.State())
				}
				if _, ok := h.wf.Review(); ok {
					t.Fatal("expected no review after cancel")
				}
				if done != nil {
					select {
					case <-done:
					case <-time.After(3 * time.Second):
						t.Fatal("in-flight operation did not finish after cancel")
					}
					if h.wf.State() != workflow.StateIdle {
						t.Fatalf("late completion changed state to %s", h.wf.State())
					}
				}
			})
		}
	}
}

func TestLateClassificationResultIsDiscarded(t *testing.T) {
	h := newHarness(t)
	release := h.fake.Block(backend.PathProcessImage)

	done := make(chan error, 1)
	go func() { done <- h.wf.Capture(context.Background()) }()
	waitForState(t, h.wf, workflow.StateAwaitingClassification)

	h.wf.Cancel()
	release()

	select {
	case err := <-done:
		if !errors.Is(err, workflow.ErrCanceled) {
			t.Fatalf("expected ErrCanceled, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("capture did not return")
	}
	if _, ok := h.wf.Review(); ok {
		t.Fatal("late classification must not open a dialog")
	}

	// A fresh cycle works normally afterwards.
	if err := h.wf.Capture(context.Background()); err != nil {
		t.Fatalf("Capture after cancel: %v", err)
	}
	if h.wf.State() != workflow.StateReviewing {
		t.Fatalf("expected Reviewing, got %s", h.wf.State())
	}
}

func TestClassificationDeadline(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Backend.ClassifyTimeoutSeconds = 1 })
	h.fake.Block(backend.PathProcessImage)

	started := time.Now()
	err := h.wf.Capture(context.Background())
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > 3*time.Second {
		t.Fatalf("deadline not enforced, took %s", elapsed)
	}
	if !h.wf.CanCapture() {
		t.Fatal("expected capture re-enabled after timeout")
	}
}

func TestSlowClassificationWithinDeadline(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Backend.RequestTimeoutSeconds = 1
		cfg.Backend.ClassifyTimeoutSeconds = 5
	})
	release := h.fake.Block(backend.PathProcessImage)
	timer := time.AfterFunc(1500*time.Millisecond, release)
	defer timer.Stop()

	if err := h.wf.Capture(context.Background()); err != nil {
		t.Fatalf("expected classification slower than the request timeout to succeed, got %v", err)
	}
	if h.wf.State() != workflow.StateReviewing {
		t.Fatalf("expected Reviewing, got %s", h.wf.State())
	}
	if review, ok := h.wf.Review(); !ok || review.Proposed != "Maria Silva" {
		t.Fatalf("unexpected review %+v ok=%v", review, ok)
	}
}

func TestCaptureWithoutCamera(t *testing.T) {
	h := newHarness(t)
	if err := h.engine.Close(); err != nil {
		t.Fatalf("engine.Close: %v", err)
	}

	err := h.wf.Capture(context.Background())
	if !errors.Is(err, services.ErrCameraUnavailable) {
		t.Fatalf("expected camera unavailable, got %v", err)
	}
	if !h.wf.CanCapture() {
		t.Fatal("expected state to remain Idle")
	}
	if h.fake.Calls(backend.PathProcessImage) != 0 {
		t.Fatal("expected no classification request without a camera")
	}
}

type panickingCamera struct{}

func (panickingCamera) Available() bool                     { return true }
func (panickingCamera) CaptureFrame() (camera.Frame, error) { panic("driver exploded") }
func (panickingCamera) Close() error                        { return nil }

func TestPanicRestoresCapture(t *testing.T) {
	fake := testsupport.NewFakeBackend(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(fake.URL()))
	client := backend.NewClient(fake.URL(), cfg.RequestTimeout())
	store := locations.NewStore(client, locations.NewLayout(cfg.Layout), logging.NewNop())
	wf := workflow.New(cfg, panickingCamera{}, classifier.New(client, logging.NewNop()), store, logging.NewNop())
	t.Cleanup(func() { _ = wf.Close() })

	if err := wf.Capture(context.Background()); err == nil {
		t.Fatal("expected an error from a panicking capture")
	}
	if !wf.CanCapture() {
		t.Fatalf("expected Idle after panic, got %s", wf.State())
	}
}

func TestEditOutsideReview(t *testing.T) {
	h := newHarness(t)
	if err := h.wf.Edit("x"); !errors.Is(err, workflow.ErrNoReview) {
		t.Fatalf("expected ErrNoReview, got %v", err)
	}
	if _, err := h.wf.Confirm(context.Background()); !errors.Is(err, workflow.ErrNoReview) {
		t.Fatalf("expected ErrNoReview, got %v", err)
	}
}

func TestCloseReleasesCamera(t *testing.T) {
	h := newHarness(t)
	if err := h.wf.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if err := h.wf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if h.engine.Available() {
		t.Fatal("expected camera released on Close")
	}
	if h.cam.Closes() != 1 {
		t.Fatalf("expected device closed once, got %d", h.cam.Closes())
	}
	if err := h.wf.Capture(context.Background()); !errors.Is(err, workflow.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestDiscardIsJournaled(t *testing.T) {
	h := newHarness(t)
	if err := h.wf.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	h.wf.Retry()

	entries := h.entries(t)
	if len(entries) != 1 || entries[0].Outcome != journal.OutcomeDiscarded || entries[0].Message != "retry" {
		t.Fatalf("unexpected journal: %+v", entries)
	}
}
