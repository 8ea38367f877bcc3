package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"filingdesk/internal/camera"
)

func newSnapshotCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture one frame to a JPEG file to check the camera",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			engine := ctx.newEngine(cfg)
			defer engine.Close()
			if err := engine.Start(cmd.Context()); err != nil {
				return err
			}
			frame, err := engine.CaptureFrame()
			if err != nil {
				return err
			}

			target := strings.TrimSpace(outPath)
			if target == "" {
				target = fmt.Sprintf("snapshot-%s.jpg", frame.CapturedAt.Format("20060102-150405"))
			}
			if dir := filepath.Dir(target); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory %q: %w", dir, err)
				}
			}
			if err := os.WriteFile(target, frame.Data, 0o644); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %dx%d frame (%.1f KB) from %s to %s\n",
				frame.Width, frame.Height, float64(len(frame.Data))/1024, engine.Device(), target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination JPEG path (default snapshot-<time>.jpg)")
	return cmd
}

// listDevices is swapped out by tests.
var listDevices = camera.ListDevices

func newCamerasCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cameras",
		Short: "List video capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			enumCtx, cancel := contextWithTimeout(cmd, 5*time.Second)
			defer cancel()

			devices, err := listDevices(enumCtx)
			if err != nil {
				return fmt.Errorf("enumerate video devices: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(devices) == 0 {
				fmt.Fprintln(out, "No video devices found")
				return nil
			}
			rows := make([][]string, 0, len(devices))
			for _, dev := range devices {
				rows = append(rows, []string{dev.Path, dev.Name, yesNo(dev.Path == cfg.Camera.Device)})
			}
			fmt.Fprintln(out, renderTable([]string{"Device", "Name", "Configured"}, rows, nil))
			return nil
		},
	}
}
