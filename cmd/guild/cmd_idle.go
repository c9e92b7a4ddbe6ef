package main

import (
	"context"
	"fmt"
	"io"

	"guild/pkg/dispatcher"
	"guild/pkg/protocol"

	"github.com/spf13/cobra"
)

// newIdleCmd creates the "guild idle" subcommand.
func newIdleCmd() *cobra.Command {
	var drain bool

	cmd := &cobra.Command{
		Use:   "idle <specialist>",
		Short: "Mark a specialist idle after task completion",
		Long: "Releases the specialist's active claim so the dispatcher can hand\n" +
			"it new work. Completion is signaled by whoever observes it; guild\n" +
			"never guesses. With --drain the next queued task is dispatched.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := protocol.ParseSpecialist(args[0])
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

			return runIdle(cmd.Context(), cmd.OutOrStdout(), a.dispatcher(q), t, drain)
		},
	}

	cmd.Flags().BoolVar(&drain, "drain", false, "dispatch the next queued task after marking idle")

	return cmd
}

// runIdle releases the specialist and optionally drains one queued task.
func runIdle(ctx context.Context, w io.Writer, d *dispatcher.Dispatcher, t protocol.SpecialistType, drain bool) error {
	if err := d.MarkIdle(t); err != nil {
		return fmt.Errorf("mark %s idle: %w", t, err)
	}
	fmt.Fprintf(w, "%s marked idle\n", t)

	if !drain {
		return nil
	}

	res, err := d.DrainOne(ctx, t)
	if err != nil {
		return err
	}
	switch {
	case res == nil:
		fmt.Fprintf(w, "queue for %s is empty\n", t)
	case res.Queued:
		fmt.Fprintf(w, "task %s requeued (specialist claimed elsewhere)\n", res.TaskID)
	default:
		fmt.Fprintf(w, "task %s dispatched to %s\n", res.TaskID, t)
	}
	return nil
}
