package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"guild/pkg/protocol"
	"guild/pkg/registry"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// liveChecker reports session liveness; tests substitute a fake.
type liveChecker interface {
	IsLive(t protocol.SpecialistType) bool
}

// depthChecker reports queue depth; tests substitute a fake.
type depthChecker interface {
	Check(ctx context.Context, t protocol.SpecialistType) (int, error)
}

// statusRow is one rendered line of the status table.
type statusRow struct {
	Name     protocol.SpecialistType
	State    protocol.SpecialistState
	TaskID   string
	Live     bool
	Depth    int
	LastWake time.Time
}

// newStatusCmd creates the "guild status" subcommand.
func newStatusCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of every enabled specialist",
		Long: "Displays each enabled specialist's runtime state, session\n" +
			"liveness, bound task, queue depth, and last wake time.\n" +
			"With --watch the table re-renders when the registry file changes.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			q, err := a.openQueue()
			if err != nil {
				return err
			}
			defer q.Close()

			w := cmd.OutOrStdout()
			color := isatty.IsTerminal(os.Stdout.Fd())

			render := func() {
				rows := collectStatus(cmd.Context(), a.reg, a.states, a.ctl, q)
				renderStatus(w, rows, color)
			}
			render()

			if !watch {
				return nil
			}
			watcher, err := a.reg.Watch(render)
			if err != nil {
				return fmt.Errorf("watch registry: %w", err)
			}
			defer watcher.Close()
			<-cmd.Context().Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "re-render when the registry changes")

	return cmd
}

// collectStatus gathers one row per enabled specialist. Queue depth errors
// degrade to -1 rather than aborting the view.
func collectStatus(ctx context.Context, reg *registry.Store, states *registry.StateStore, ctl liveChecker, q depthChecker) []statusRow {
	var rows []statusRow
	for _, m := range reg.ListEnabled() {
		st := states.Read(m.Name)
		depth, err := q.Check(ctx, m.Name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: check queue depth for %s: %v\n", m.Name, err)
			depth = -1
		}
		rows = append(rows, statusRow{
			Name:     m.Name,
			State:    st.State,
			TaskID:   st.CurrentTaskID,
			Live:     ctl.IsLive(m.Name),
			Depth:    depth,
			LastWake: m.LastWake,
		})
	}
	return rows
}

// stateStyle maps a specialist state to its display color.
func stateStyle(s protocol.SpecialistState) lipgloss.Style {
	switch s {
	case protocol.StateActive:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // Yellow
	case protocol.StateIdle:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // Green
	case protocol.StateSuspended:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // Blue
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("240")) // Gray
}

// renderStatus writes the status table. Color is applied only when stdout is
// a terminal.
func renderStatus(w io.Writer, rows []statusRow, color bool) {
	fmt.Fprintf(w, "%-10s %-14s %-8s %-7s %-38s %s\n", "Specialist", "State", "Session", "Queued", "Task", "Last wake")

	for _, r := range rows {
		state := string(r.State)
		if color {
			state = stateStyle(r.State).Render(state)
			// Pad manually: ANSI escapes break %-14s width math.
			for n := len(r.State); n < 14; n++ {
				state += " "
			}
		} else {
			state = fmt.Sprintf("%-14s", state)
		}

		live := "dead"
		if r.Live {
			live = "live"
		}
		depth := fmt.Sprintf("%d", r.Depth)
		if r.Depth < 0 {
			depth = "?"
		}
		task := r.TaskID
		if task == "" {
			task = "-"
		}
		lastWake := "never"
		if !r.LastWake.IsZero() {
			lastWake = r.LastWake.UTC().Format(time.RFC3339)
		}

		fmt.Fprintf(w, "%-10s %s %-8s %-7s %-38s %s\n", r.Name, state, live, depth, task, lastWake)
	}
}
