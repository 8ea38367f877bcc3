package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"filingdesk/internal/camera"
	"filingdesk/internal/config"
	"filingdesk/internal/journal"
	"filingdesk/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the backend, camera and local state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Configuration", colorize)
			lines = append(lines,
				renderStatusLine("Backend", statusInfo, cfg.Backend.BaseURL, colorize),
				renderStatusLine("Camera", statusInfo, fmt.Sprintf("%s (%dx%d, quality %d)",
					cfg.Camera.Device, camera.FrameWidth, camera.FrameHeight, cfg.Camera.JPEGQuality), colorize),
				renderStatusLine("Notifications", statusInfo, notificationsDetail(cfg.Notifications.NtfyTopic), colorize),
			)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			lines = append(lines, checkLines(preflight.RunAll(cmd.Context(), cfg), colorize)...)

			probe := preflight.ProbeCamera(cmd.Context(), cfg.Camera.Device)
			probeKind := statusOK
			if !probe.Detected {
				probeKind = statusWarn
			}
			lines = append(lines, renderStatusLine("Camera hardware", probeKind, probe.CameraDetail(), colorize))

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Journal", colorize)...)
			lines = append(lines, journalLine(cmd, cfg, colorize))

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func journalLine(cmd *cobra.Command, cfg *config.Config, colorize bool) string {
	if !cfg.Journal.Enabled {
		return renderStatusLine("Capture journal", statusInfo, "disabled", colorize)
	}
	store, err := journal.Open(cfg)
	if err != nil {
		return renderStatusLine("Capture journal", statusError, err.Error(), colorize)
	}
	defer store.Close()
	counts, err := store.Counts(cmd.Context())
	if err != nil {
		return renderStatusLine("Capture journal", statusError, err.Error(), colorize)
	}
	return renderStatusLine("Capture journal", statusOK, fmt.Sprintf("%d filed, %d failed, %d discarded",
		counts[journal.OutcomeCommitted],
		counts[journal.OutcomeCommitFailed]+counts[journal.OutcomeClassifyFailed],
		counts[journal.OutcomeDiscarded],
	), colorize)
}

func notificationsDetail(topic string) string {
	if strings.TrimSpace(topic) == "" {
		return "disabled"
	}
	return topic
}
