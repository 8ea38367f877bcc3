package console

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"filingdesk/internal/locations"
	"filingdesk/internal/services"
	"filingdesk/internal/stats"
	"filingdesk/internal/workflow"
)

// Workflow is the capture cycle the console drives.
type Workflow interface {
	Capture(ctx context.Context) error
	Edit(label string) error
	Confirm(ctx context.Context) (locations.CommitResult, error)
	Cancel()
	Retry()
	State() workflow.State
	CanCapture() bool
	Review() (workflow.Review, bool)
}

// Locations is the location store as seen by the pickers and stats panel.
type Locations interface {
	Load(ctx context.Context) error
	SetSelection(ctx context.Context, room, drawer string) error
	Snapshot() (locations.Snapshot, bool)
	RoomOptions() []string
	DrawerOptions(room, recorded string) ([]string, string)
}

// CameraStatus reports whether a capture device is held.
type CameraStatus interface {
	Available() bool
}

// Params holds parameters for creating a new App.
type Params struct {
	Context  context.Context
	Workflow Workflow
	Store    Locations
	Camera   CameraStatus // optional
	Warnings []string     // shown until the first notice replaces them
	Keys     *KeyMap      // optional, uses default if nil
	Styles   *Styles      // optional, uses default if nil
}

type notice struct {
	level   workflow.Level
	message string
}

// App is the bubbletea model for the operator console.
type App struct {
	ctx    context.Context
	wf     Workflow
	store  Locations
	camera CameraStatus
	keys   KeyMap
	styles Styles

	state     workflow.State
	review    workflow.Review
	hasReview bool
	input     textinput.Model

	summary     stats.Summary
	haveSummary bool
	selection   locations.Selection
	picker      picker

	loading  bool
	applying bool
	notice   notice
	warnings []string

	width  int
	height int
}

// NewApp creates a console model. Call Init to trigger the first load.
func NewApp(params Params) App {
	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}
	styles := DefaultStyles()
	if params.Styles != nil {
		styles = *params.Styles
	}
	ctx := params.Context
	if ctx == nil {
		ctx = context.Background()
	}

	input := textinput.New()
	input.Placeholder = "Folder name"
	input.CharLimit = 200
	input.Width = 40
	input.Prompt = "› "

	app := App{
		ctx:      ctx,
		wf:       params.Workflow,
		store:    params.Store,
		camera:   params.Camera,
		keys:     keys,
		styles:   styles,
		input:    input,
		warnings: append([]string(nil), params.Warnings...),
		width:    80,
		height:   24,
	}
	if app.store != nil {
		app.picker.sync(app.store, locations.Selection{})
	}
	app.refreshFromStore()
	app.syncWorkflow()
	app.loading = !app.haveSummary
	return app
}

// State returns the workflow state as last observed by the console.
func (a App) State() workflow.State {
	return a.state
}

// Notice returns the current notice line.
func (a App) Notice() (workflow.Level, string) {
	return a.notice.level, a.notice.message
}

// PickerSelection returns the highlighted (room, drawer) and whether it has
// not been applied yet.
func (a App) PickerSelection() (locations.Selection, bool) {
	return locations.Selection{Room: a.picker.Room(), Drawer: a.picker.Drawer()}, a.picker.differs(a.selection)
}

// InputValue returns the review dialog's text field.
func (a App) InputValue() string {
	return a.input.Value()
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return a.loadCmd()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case workflowEventMsg:
		a.applyEvent(msg.event)
		return a, nil

	case summaryMsg:
		a.summary = msg.summary
		a.haveSummary = true
		a.selection = msg.summary.Selection
		a.syncPicker()
		return a, nil

	case loadDoneMsg:
		a.loading = false
		if msg.err != nil {
			a.setNotice(workflow.LevelError, "Could not load locations: "+services.Message(msg.err))
			return a, nil
		}
		a.refreshFromStore()
		return a, nil

	case selectionDoneMsg:
		a.applying = false
		if msg.err != nil {
			a.setNotice(workflow.LevelError, services.Message(msg.err))
			return a, nil
		}
		a.refreshFromStore()
		a.setNotice(workflow.LevelInfo, "Filing into "+msg.room+" / "+msg.drawer)
		return a, nil

	case captureDoneMsg:
		a.syncWorkflow()
		if msg.err != nil && !errors.Is(msg.err, workflow.ErrBusy) && !errors.Is(msg.err, workflow.ErrCanceled) {
			a.setNotice(workflow.LevelError, services.Message(msg.err))
		}
		return a, a.focusCmd()

	case confirmDoneMsg:
		a.syncWorkflow()
		switch {
		case errors.Is(msg.err, workflow.ErrEmptyLabel):
			a.setNotice(workflow.LevelWarning, workflow.EmptyLabelMessage)
		case errors.Is(msg.err, workflow.ErrCanceled), errors.Is(msg.err, workflow.ErrNoReview):
		case msg.err != nil:
			a.setNotice(workflow.LevelError, services.Message(msg.err))
		default:
			a.refreshFromStore()
			a.setNotice(workflow.LevelSuccess, msg.result.Message)
		}
		return a, a.focusCmd()

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	if a.state == workflow.StateReviewing {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.ForceQuit) {
		return a, tea.Quit
	}

	switch a.state {
	case workflow.StateReviewing:
		return a.updateReview(msg)
	case workflow.StateCapturing, workflow.StateAwaitingClassification, workflow.StateCommitting:
		if key.Matches(msg, a.keys.Cancel) {
			a.wf.Cancel()
			a.syncWorkflow()
			a.setNotice(workflow.LevelInfo, "Cancelled.")
		}
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Capture):
		if !a.wf.CanCapture() {
			return a, nil
		}
		a.state = workflow.StateCapturing
		return a, a.captureCmd()

	case key.Matches(msg, a.keys.PrevRoom):
		a.picker.moveRoom(a.store, -1, a.selection.Drawer)

	case key.Matches(msg, a.keys.NextRoom):
		a.picker.moveRoom(a.store, 1, a.selection.Drawer)

	case key.Matches(msg, a.keys.PrevDraw):
		a.picker.moveDrawer(-1)

	case key.Matches(msg, a.keys.NextDraw):
		a.picker.moveDrawer(1)

	case key.Matches(msg, a.keys.Apply):
		if a.applying {
			return a, nil
		}
		room, drawer := a.picker.Room(), a.picker.Drawer()
		if room == "" || drawer == "" {
			a.setNotice(workflow.LevelWarning, "No location to apply.")
			return a, nil
		}
		a.applying = true
		return a, a.selectCmd(room, drawer)

	case key.Matches(msg, a.keys.Reload):
		if a.loading {
			return a, nil
		}
		a.loading = true
		return a, a.loadCmd()
	}
	return a, nil
}

// updateReview handles keys while the review dialog is open.
func (a App) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Cancel):
		a.wf.Cancel()
		a.syncWorkflow()
		a.setNotice(workflow.LevelInfo, "Capture discarded.")
		return a, nil

	case key.Matches(msg, a.keys.Retry):
		a.wf.Retry()
		a.syncWorkflow()
		a.setNotice(workflow.LevelInfo, "Capture discarded; ready to capture again.")
		return a, nil

	case key.Matches(msg, a.keys.Confirm):
		if err := a.wf.Edit(a.input.Value()); err != nil {
			a.syncWorkflow()
			return a, nil
		}
		return a, a.confirmCmd()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	_ = a.wf.Edit(a.input.Value())
	return a, cmd
}

func (a *App) applyEvent(evt workflow.Event) {
	switch evt.Kind {
	case workflow.EventStateChanged:
		a.syncWorkflow()
	case workflow.EventNotice:
		a.setNotice(evt.Level, evt.Message)
	}
}

// syncWorkflow pulls state and review from the workflow. Opening a review
// seeds the text field; a failed commit keeps what the operator typed.
func (a *App) syncWorkflow() {
	if a.wf == nil {
		return
	}
	previous := a.state
	a.state = a.wf.State()
	a.review, a.hasReview = a.wf.Review()

	switch a.state {
	case workflow.StateReviewing:
		if previous != workflow.StateReviewing && previous != workflow.StateCommitting && a.hasReview {
			a.input.SetValue(a.review.Edited)
			a.input.CursorEnd()
			a.notice = notice{}
		}
		a.input.Focus()
	case workflow.StateCommitting:
		a.input.Blur()
	default:
		a.input.Blur()
		a.input.Reset()
	}
}

func (a *App) refreshFromStore() {
	if a.store == nil {
		return
	}
	snap, ok := a.store.Snapshot()
	if !ok {
		return
	}
	a.summary = stats.Compute(snap)
	a.haveSummary = true
	a.selection = snap.Selection
	a.syncPicker()
}

func (a *App) syncPicker() {
	if a.store == nil {
		return
	}
	if a.picker.dirty && a.picker.differs(a.selection) {
		a.picker.refresh(a.store)
		return
	}
	a.picker.sync(a.store, a.selection)
}

func (a *App) setNotice(level workflow.Level, message string) {
	if message == "" {
		return
	}
	a.notice = notice{level: level, message: message}
	a.warnings = nil
}

func (a App) focusCmd() tea.Cmd {
	if a.state == workflow.StateReviewing {
		return textinput.Blink
	}
	return nil
}

func (a App) loadCmd() tea.Cmd {
	store, ctx := a.store, a.ctx
	return func() tea.Msg {
		return loadDoneMsg{err: store.Load(ctx)}
	}
}

func (a App) selectCmd(room, drawer string) tea.Cmd {
	store, ctx := a.store, a.ctx
	return func() tea.Msg {
		return selectionDoneMsg{room: room, drawer: drawer, err: store.SetSelection(ctx, room, drawer)}
	}
}

func (a App) captureCmd() tea.Cmd {
	wf, ctx := a.wf, a.ctx
	return func() tea.Msg {
		return captureDoneMsg{err: wf.Capture(ctx)}
	}
}

func (a App) confirmCmd() tea.Cmd {
	wf, ctx := a.wf, a.ctx
	return func() tea.Msg {
		result, err := wf.Confirm(ctx)
		return confirmDoneMsg{result: result, err: err}
	}
}
