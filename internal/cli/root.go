// Package cli implements the chronline command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagTimeline string
	flagJSON     bool
)

// Execute runs the CLI.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chronline",
		Short:         "Per-client collections timeline",
		Long:          "chronline maintains per-client contact timelines: parallel lines of dated events with resolution status tracking.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path")
	cmd.PersistentFlags().StringVarP(&flagTimeline, "timeline", "t", "", "timeline id (defaults to the selected context)")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "JSON output")

	cmd.AddCommand(
		newUseCmd(),
		newShowCmd(),
		newAddLineCmd(),
		newDeleteLineCmd(),
		newAddEventCmd(),
		newToggleCmd(),
		newDeleteEventCmd(),
		newExportCmd(),
		newWatchCmd(),
	)

	return cmd
}
