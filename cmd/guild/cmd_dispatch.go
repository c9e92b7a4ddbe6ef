package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"guild/pkg/dispatcher"
	"guild/pkg/protocol"

	"github.com/spf13/cobra"
)

// dispatchConfig holds flags for the dispatch command.
type dispatchConfig struct {
	priority string
	source   string
}

// newDispatchCmd creates the "guild dispatch" subcommand.
func newDispatchCmd() *cobra.Command {
	var cfg dispatchConfig

	cmd := &cobra.Command{
		Use:   "dispatch <specialist> <task>...",
		Short: "Hand a task to a specialist, or queue it if busy",
		Long: "Claims the specialist and wakes it with the task when it is\n" +
			"available. A busy specialist gets the task queued instead;\n" +
			"queued tasks drain highest priority first via 'guild idle --drain'.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := protocol.ParseSpecialist(args[0])
			if err != nil {
				return err
			}
			pri, err := protocol.ParsePriority(cfg.priority)
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			q, err := a.openQueue()
			if err != nil {
				return err
			}
			defer q.Close()

			task := strings.Join(args[1:], " ")
			return runDispatch(cmd.Context(), cmd.OutOrStdout(), a.dispatcher(q), t, task, pri, cfg.source)
		},
	}

	cmd.Flags().StringVar(&cfg.priority, "priority", string(protocol.PriorityNormal), "priority band: urgent, high, normal, or low")
	cmd.Flags().StringVar(&cfg.source, "source", "cli", "identifier for where the task came from")

	return cmd
}

// runDispatch submits one task and reports whether it ran or queued.
func runDispatch(ctx context.Context, w io.Writer, d *dispatcher.Dispatcher, t protocol.SpecialistType, task string, pri protocol.Priority, source string) error {
	res, err := d.DispatchOrQueue(ctx, t, task, pri, source)
	if err != nil {
		return err
	}

	if res.Queued {
		fmt.Fprintf(w, "%s is busy; task %s queued (%s, depth %d)\n", t, res.TaskID, pri, res.QueueDepth)
		return nil
	}
	fmt.Fprintf(w, "task %s dispatched to %s (session %s)\n", res.TaskID, t, res.Wake.SessionID)
	return nil
}
