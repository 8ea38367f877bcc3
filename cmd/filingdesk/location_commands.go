package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"filingdesk/internal/stats"
)

type statsJSON struct {
	Room          string          `json:"room"`
	Drawer        string          `json:"drawer"`
	FilledDrawers int             `json:"filled_drawers"`
	TotalDrawers  int             `json:"total_drawers"`
	Folders       []string        `json:"folders"`
	Rooms         []stats.RoomRow `json:"rooms"`
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show drawer fill and the folders in the current drawer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.loadStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			snap, _ := store.Snapshot()
			summary := stats.Compute(snap)
			rooms := stats.Breakdown(snap, store.Order())

			if asJSON {
				return writeJSON(cmd, statsJSON{
					Room:          summary.Selection.Room,
					Drawer:        summary.Selection.Drawer,
					FilledDrawers: summary.FilledDrawers,
					TotalDrawers:  summary.TotalDrawers,
					Folders:       append([]string{}, summary.Folders...),
					Rooms:         rooms,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Filled:    %s\n", summary.Aggregate())
			fmt.Fprintf(out, "Selection: %s / %s (%s)\n", summary.Selection.Room, summary.Selection.Drawer, summary.Detail())
			for _, entry := range summary.Entries() {
				fmt.Fprintf(out, "  %s\n", entry)
			}
			fmt.Fprintln(out)

			rows := make([][]string, 0, len(rooms))
			var drawers, filled, folders int
			for _, row := range rooms {
				rows = append(rows, []string{
					row.Room,
					strconv.Itoa(row.Drawers),
					strconv.Itoa(row.Filled),
					strconv.Itoa(row.Folders),
				})
				drawers += row.Drawers
				filled += row.Filled
				folders += row.Folders
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Room", "Drawers", "Filled", "Folders"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
				"Total", strconv.Itoa(drawers), strconv.Itoa(filled), strconv.Itoa(folders),
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newSelectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select ROOM DRAWER",
		Short: "Set the room and drawer new folders are filed into",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.loadStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := store.SetSelection(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			sel, _ := store.Selection()
			fmt.Fprintf(cmd.OutOrStdout(), "Filing into %s / %s\n", sel.Room, sel.Drawer)
			return nil
		},
	}
}
