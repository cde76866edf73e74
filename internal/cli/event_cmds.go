package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracevall/chronline/internal/models"
	"github.com/tracevall/chronline/internal/timeline"
)

func newAddEventCmd() *cobra.Command {
	var (
		icon        string
		date        string
		timeOfDay   string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add-event <line-id>",
		Short: "Add an event to the front of a line",
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

			input := timeline.EventInput{
				Icon:        icon,
				Date:        date,
				Time:        timeOfDay,
				Description: description,
			}
			if err := app.service.AddEvent(ctx, tl, args[0], input); err != nil {
				return err
			}

			line := tl.LineByID(args[0])
			added := line.Events[0]
			fmt.Fprintf(os.Stdout, "added event %s (%s %s, %s)\n",
				added.ID, added.Icon, added.Date, string(added.Position))
			return nil
		},
	}

	cmd.Flags().StringVar(&icon, "icon", "note", "event icon")
	cmd.Flags().StringVar(&date, "date", models.UnsetDate, "event date (DD/MM, DD/MM/YYYY or --/--)")
	cmd.Flags().StringVar(&timeOfDay, "time", "", "event time (HH:MM)")
	cmd.Flags().StringVar(&description, "desc", "", "event description")
	return cmd
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <line-id> <event-id>",
		Short: "Advance an event's status one step around the cycle",
		Args:  cobra.ExactArgs(2),
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
			if err := app.service.ToggleStatus(ctx, tl, args[0], args[1]); err != nil {
				return err
			}

			for _, ev := range tl.LineByID(args[0]).Events {
				if ev.ID == args[1] {
					fmt.Fprintf(os.Stdout, "%s is now %s (%s)\n", ev.ID, string(ev.Status), string(ev.Position))
					break
				}
			}
			return nil
		},
	}
}

func newDeleteEventCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-event <line-id> <event-id>",
		Short: "Delete an event, consolidating the line if it empties",
		Args:  cobra.ExactArgs(2),
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

			before := tl.LineCount()
			if err := app.service.DeleteEvent(ctx, tl, args[0], args[1]); err != nil {
				return err
			}

			if tl.LineCount() < before {
				fmt.Fprintf(os.Stdout, "deleted event %s; line %s merged away (%d lines remain)\n",
					args[1], args[0], tl.LineCount())
				return nil
			}
			fmt.Fprintf(os.Stdout, "deleted event %s\n", args[1])
			return nil
		},
	}
}
