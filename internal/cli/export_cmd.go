package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the timeline as a JSON snapshot",
		Long:  "Exports a read-only JSON snapshot of the timeline for downstream consumers such as report generators.",
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

			data, err := app.exporter.Export(context.Background(), timelineID)
			if err != nil {
				return err
			}

			if outPath == "" {
				fmt.Fprintln(os.Stdout, string(data))
				return nil
			}
			if err := os.WriteFile(outPath, data, 0644); err != nil {
				return fmt.Errorf("failed to write snapshot: %w", err)
			}
			fmt.Fprintf(os.Stderr, "wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the snapshot to a file instead of stdout")
	return cmd
}
