package console

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"filingdesk/internal/camera"
	"filingdesk/internal/locations"
	"filingdesk/internal/logging"
	"filingdesk/internal/stats"
	"filingdesk/internal/workflow"
)

const eventBuffer = 256

// Options configures Run.
type Options struct {
	Workflow *workflow.Workflow
	Store    *locations.Store
	Camera   *camera.Engine
	Warnings []string
	Logger   *slog.Logger
	// ProgramOptions are appended after the defaults (alt screen, ctx).
	ProgramOptions []tea.ProgramOption
}

// Run starts the console and blocks until the operator quits or ctx ends.
// The caller owns the workflow and closes it afterwards.
func Run(ctx context.Context, opts Options) error {
	if opts.Workflow == nil || opts.Store == nil {
		return errors.New("console requires a workflow and a location store")
	}
	logger := logging.NewComponentLogger(opts.Logger, "console")

	done := make(chan struct{})
	msgs := make(chan tea.Msg, eventBuffer)
	forward := func(msg tea.Msg) {
		select {
		case msgs <- msg:
		case <-done:
		}
	}

	opts.Workflow.SetListener(func(evt workflow.Event) {
		forward(workflowEventMsg{event: evt})
	})
	defer opts.Workflow.SetListener(nil)
	stats.NewView(opts.Store, func(summary stats.Summary) {
		forward(summaryMsg{summary: summary})
	})

	params := Params{
		Context:  ctx,
		Workflow: opts.Workflow,
		Store:    opts.Store,
		Warnings: opts.Warnings,
	}
	if opts.Camera != nil {
		params.Camera = opts.Camera
	}
	app := NewApp(params)

	programOpts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts.ProgramOptions...)
	program := tea.NewProgram(app, programOpts...)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case msg := <-msgs:
				program.Send(msg)
			case <-done:
				return
			}
		}
	}()

	logger.Info("console started", logging.String(logging.FieldEventType, "console_started"))
	_, err := program.Run()
	close(done)
	wg.Wait()

	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	logger.Info("console stopped", logging.String(logging.FieldEventType, "console_stopped"))
	return err
}
