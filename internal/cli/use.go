package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracevall/chronline/internal/config"
)

func newUseCmd() *cobra.Command {
	var name string
	var scope string

	cmd := &cobra.Command{
		Use:   "use <timeline-id>",
		Short: "Select the working timeline",
		Long:  "Selects the timeline subsequent commands operate on, creating it on first use.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			timelineID := args[0]
			if err := app.timelines.Ensure(context.Background(), timelineID, scope); err != nil {
				return err
			}

			store := config.NewContextStore("")
			cliCtx, err := store.Load()
			if err != nil {
				return err
			}
			cliCtx.SetTimeline(timelineID, name)
			if err := store.Save(cliCtx); err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "using %s\n", cliCtx.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name for the client")
	cmd.Flags().StringVar(&scope, "scope", "", "organization scope of the timeline")
	return cmd
}
