package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tracevall/chronline/internal/feed"
	chronsync "github.com/tracevall/chronline/internal/sync"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the timeline and print it after each change",
		Long:  "Runs a sync controller against the database file, reloading and re-rendering the timeline whenever another process writes to it. Stops on Ctrl-C.",
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

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reload := func(ctx context.Context) error {
				tl, err := app.service.Load(ctx, timelineID)
				if err != nil {
					return err
				}
				return renderTimeline(os.Stdout, tl)
			}

			controller, err := chronsync.NewController(app.publisher, reload, chronsync.Config{
				TimelineID:        timelineID,
				Origin:            app.origin,
				SuppressionWindow: app.cfg.Sync.SuppressionWindow,
				DebounceInterval:  app.cfg.Sync.DebounceInterval,
			})
			if err != nil {
				return err
			}
			defer controller.Close()

			if app.cfg.Database.WatchFile {
				watcher := feed.NewFileWatcher(app.cfg.DatabasePath(), app.publisher, app.cfg.Sync.SuppressionWindow)
				if err := watcher.Start(ctx); err != nil {
					return err
				}
				defer watcher.Stop()
			}

			// Initial render, then follow.
			if err := controller.ReloadNow(ctx); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "watching for changes (Ctrl-C to stop)")

			<-ctx.Done()
			return nil
		},
	}
}
