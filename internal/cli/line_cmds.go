package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newAddLineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-line",
		Short: "Append an empty line to the timeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			timelineID, err := resolveTimelineID()
			if err != nil {
				return err
			}

			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := context.Background()
			tl, err := app.service.Load(ctx, timelineID)
			if err != nil {
				return err
			}
			if err := app.service.AddLine(ctx, tl); err != nil {
				return err
			}

			added := tl.Lines[tl.LineCount()-1]
			if flagJSON {
				fmt.Fprintf(os.Stdout, "{\"line_id\":%q,\"position\":%d}\n", added.ID, added.Position)
				return nil
			}
			fmt.Fprintf(os.Stdout, "added line %s at position %d\n", added.ID, added.Position)
			return nil
		},
	}
}

func newDeleteLineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-line <line-id>",
		Short: "Delete a line and all its events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timelineID, err := resolveTimelineID()
			if err != nil {
				return err
			}

			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := context.Background()
			tl, err := app.service.Load(ctx, timelineID)
			if err != nil {
				return err
			}
			if err := app.service.DeleteLine(ctx, tl, args[0]); err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "deleted line %s (%d lines remain)\n", args[0], tl.LineCount())
			return nil
		},
	}
}
