package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracevall/chronline/internal/models"
	"github.com/tracevall/chronline/internal/timeline"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the timeline's lines and events",
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

			if flagJSON {
				data, err := app.exporter.Export(context.Background(), timelineID)
				if err != nil {
					return err
				}
				fmt.Fprintln(os.Stdout, string(data))
				return nil
			}

			tl, err := app.service.Load(context.Background(), timelineID)
			if err != nil {
				return err
			}
			return renderTimeline(os.Stdout, tl)
		},
	}
}

func renderTimeline(w io.Writer, tl *models.Timeline) error {
	fmt.Fprintf(w, "timeline %s (%d/%d lines)\n", tl.ID, tl.LineCount(), models.MaxLines)
	if tl.LineCount() == 0 {
		fmt.Fprintln(w, "  (no lines)")
		return nil
	}

	now := time.Now()
	for _, line := range tl.Lines {
		fmt.Fprintf(w, "\nline %d  %s\n", line.Position, line.ID)
		if len(line.Events) == 0 {
			fmt.Fprintln(w, "  (empty)")
			continue
		}

		segments := timeline.Segments(line.Events, now)
		headers := []string{"#", "id", "date", "time", "icon", "status", "pos", "", "description"}
		rows := make([][]string, 0, len(line.Events))
		for i, ev := range line.Events {
			link := ""
			if i > 0 && segments[i-1] == timeline.SegmentSameDay {
				link = "="
			}
			rows = append(rows, []string{
				strconv.Itoa(ev.Order),
				ev.ID,
				ev.Date,
				ev.Time,
				ev.Icon,
				string(ev.Status),
				string(ev.Position),
				link,
				ev.Description,
			})
		}
		if err := writeTable(w, headers, rows); err != nil {
			return err
		}
	}
	return nil
}
