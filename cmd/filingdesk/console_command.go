package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"filingdesk/internal/classifier"
	"filingdesk/internal/console"
	"filingdesk/internal/journal"
	"filingdesk/internal/logging"
	"filingdesk/internal/preflight"
	"filingdesk/internal/services"
	"filingdesk/internal/workflow"
)

func newConsoleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Run the interactive capture console",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.fileLogger()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Checks run before the camera is acquired so the lock check
			// does not see our own lock.
			var warnings []string
			cameraReported := false
			for _, r := range preflight.Failed(preflight.RunAll(runCtx, cfg)) {
				warnings = append(warnings, fmt.Sprintf("%s: %s", r.Name, r.Detail))
				cameraReported = cameraReported || isCameraCheck(r.Name)
			}

			engine := ctx.newEngine(cfg)
			if err := engine.Start(runCtx); err != nil && !cameraReported {
				warnings = append(warnings, services.Message(err))
			}

			client := ctx.newClient(cfg)
			store := ctx.newStore(cfg, client)

			// workflow.New builds the ntfy notifier from cfg.
			var opts []workflow.Option
			if cfg.Journal.Enabled {
				j, err := journal.Open(cfg)
				if err != nil {
					logging.WarnWithContext(logger, "capture journal unavailable", "journal_open_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "history will not record this session"),
					)
					warnings = append(warnings, "Capture journal unavailable: "+err.Error())
				} else {
					defer j.Close()
					opts = append(opts, workflow.WithRecorder(j))
				}
			}

			wf := workflow.New(cfg, engine, classifier.New(client, logger), store, logger, opts...)
			defer wf.Close()

			return console.Run(runCtx, console.Options{
				Workflow: wf,
				Store:    store,
				Camera:   engine,
				Warnings: warnings,
				Logger:   logger,
			})
		},
	}
}
