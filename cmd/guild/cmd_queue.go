package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"guild/pkg/hook"
	"guild/pkg/protocol"

	"github.com/spf13/cobra"
)

// newQueueCmd creates the "guild queue" subcommand.
func newQueueCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "queue <specialist>",
		Short: "Show a specialist's pending tasks",
		Long:  "Lists queued tasks for a specialist in pop order:\nstrict priority bands, FIFO within a band.",
		Args:  cobra.ExactArgs(1),
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

			return runQueue(cmd.Context(), cmd.OutOrStdout(), q, t, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of tasks to show")

	return cmd
}

// runQueue prints the depth and the pending tasks in pop order.
func runQueue(ctx context.Context, w io.Writer, q *hook.SQLiteQueue, t protocol.SpecialistType, limit int) error {
	depth, err := q.Check(ctx, t)
	if err != nil {
		return err
	}
	if depth == 0 {
		fmt.Fprintf(w, "queue for %s is empty\n", t)
		return nil
	}

	items, err := q.Peek(ctx, t, limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%d task(s) queued for %s\n", depth, t)
	fmt.Fprintf(w, "%-38s %-8s %-12s %-22s %s\n", "ID", "Priority", "Source", "Created", "Task")
	for _, item := range items {
		payload := item.Payload
		if len(payload) > 60 {
			payload = payload[:60] + "..."
		}
		fmt.Fprintf(w, "%-38s %-8s %-12s %-22s %s\n",
			item.ID, item.Priority, item.Source,
			item.CreatedAt.UTC().Format(time.RFC3339), payload)
	}
	return nil
}
