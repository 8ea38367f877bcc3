package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"filingdesk/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var grep []string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the filingdesk log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if lines < 0 {
				return fmt.Errorf("--lines must be zero or positive")
			}
			path := cfg.LogPath()
			match := logs.Contains(grep...)
			out := cmd.OutOrStdout()

			tail, offset, err := logs.Last(path, lines, match)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(tail) == 0 && lines > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "No log lines in %s\n", path)
				}
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, 250*time.Millisecond, match, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as they are written")
	cmd.Flags().StringSliceVar(&grep, "grep", nil, "Only show lines containing these terms (repeatable)")
	return cmd
}
