package main

import (
	"fmt"
	"io"

	"guild/pkg/protocol"
	"guild/pkg/registry"
	"guild/pkg/session"

	"github.com/spf13/cobra"
)

// stopper is the controller capability stop needs; tests substitute a fake.
type stopper interface {
	IsLive(t protocol.SpecialistType) bool
	Kill(t protocol.SpecialistType) error
}

// newStopCmd creates the "guild stop" subcommand.
func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <specialist>",
		Short: "Suspend a specialist and kill its session",
		Long: "Kills the specialist's tmux session and marks it suspended.\n" +
			"Its continuity identifier is kept, so the next wake resumes the\n" +
			"same conversation.",
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
			return runStop(cmd.OutOrStdout(), a.ctl, a.states, t)
		},
	}
}

// runStop kills the session and records the suspended state.
func runStop(w io.Writer, ctl stopper, states *registry.StateStore, t protocol.SpecialistType) error {
	if !ctl.IsLive(t) {
		return &protocol.NotRunningError{Specialist: t}
	}
	if err := ctl.Kill(t); err != nil {
		return err
	}
	if err := states.Suspend(t); err != nil {
		return fmt.Errorf("record suspended state for %s: %w", t, err)
	}
	fmt.Fprintf(w, "%s suspended (continuity kept)\n", t)
	return nil
}

var _ stopper = (*session.Controller)(nil)
