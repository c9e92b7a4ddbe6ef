package main

import (
	"fmt"

	"guild/internal/appversion"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root guild command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "guild",
		Short:         "Guild specialist agent pool",
		Long:          "guild manages a pool of long-lived specialist agents.\nEach specialist runs one persistent claude process inside a tmux session.",
		Version:       fmt.Sprintf("guild %s", appversion.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newInitCmd(),
		newWakeCmd(),
		newDispatchCmd(),
		newIdleCmd(),
		newStopCmd(),
		newStatusCmd(),
		newQueueCmd(),
		newFeedbackCmd(),
		newHandoffCmd(),
		newHealthCmd(),
	)

	return cmd
}
