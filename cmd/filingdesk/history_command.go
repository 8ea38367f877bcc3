package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"filingdesk/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent capture cycles from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if limit < 0 {
				return fmt.Errorf("--limit must be zero or positive")
			}
			store, err := journal.Open(cfg)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if entries == nil {
					entries = []journal.Entry{}
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No captures recorded yet")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					formatEntryTime(e.CreatedAt),
					string(e.Outcome),
					entryLabel(e),
					e.Location(),
					e.Message,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"When", "Outcome", "Label", "Location", "Message"}, rows, nil))

			counts, err := store.Counts(cmd.Context())
			if err != nil {
				return err
			}
			parts := make([]string, 0, len(journal.Outcomes()))
			for _, outcome := range journal.Outcomes() {
				parts = append(parts, fmt.Sprintf("%s %d", outcome, counts[outcome]))
			}
			fmt.Fprintf(out, "Totals: %s\n", strings.Join(parts, ", "))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func entryLabel(e journal.Entry) string {
	switch {
	case e.FinalLabel != "" && e.ProposedLabel != "" && e.FinalLabel != e.ProposedLabel:
		return fmt.Sprintf("%s (detected %s)", e.FinalLabel, e.ProposedLabel)
	case e.FinalLabel != "":
		return e.FinalLabel
	default:
		return e.ProposedLabel
	}
}

func formatEntryTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Local().Format("2006-01-02 15:04:05")
}
