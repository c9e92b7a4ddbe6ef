package main

import (
	"errors"
	"fmt"
	"io"

	"guild/pkg/protocol"
	"guild/pkg/registry"
	"guild/pkg/session"

	"github.com/spf13/cobra"
)

// initializer is the controller capability init needs; tests substitute a fake.
type initializer interface {
	Initialize(t protocol.SpecialistType) error
}

// newInitCmd creates the "guild init" subcommand.
func newInitCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "init [specialist]",
		Short: "Bring a specialist up for the first time",
		Long: "Writes the specialist's role identity, starts a fresh claude session\n" +
			"inside tmux, and records its continuity identifier.\n" +
			"Use --all to initialize every enabled specialist.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			if all {
				if len(args) != 0 {
					return fmt.Errorf("--all takes no specialist argument")
				}
				return runInitAll(cmd.OutOrStdout(), a.ctl, a.reg)
			}
			if len(args) != 1 {
				return fmt.Errorf("specialist argument required (or --all)")
			}
			t, err := protocol.ParseSpecialist(args[0])
			if err != nil {
				return err
			}
			return runInit(cmd.OutOrStdout(), a.ctl, t)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "initialize every enabled specialist")

	return cmd
}

// runInit initializes one specialist and reports the outcome.
func runInit(w io.Writer, ctl initializer, t protocol.SpecialistType) error {
	err := ctl.Initialize(t)
	if err == nil {
		fmt.Fprintf(w, "%s initialized (session %s)\n", t, t.SessionName())
		return nil
	}

	var already *protocol.AlreadyInitializedError
	if errors.As(err, &already) {
		return fmt.Errorf("%s was already initialized (continuity %s); use 'guild wake %s' to resume", t, already.SessionID, t)
	}
	var running *protocol.AlreadyRunningError
	if errors.As(err, &running) {
		return fmt.Errorf("%s is already running; use 'guild wake %s' to send it work", t, t)
	}
	return err
}

// runInitAll initializes every enabled specialist, continuing past
// already-initialized ones.
func runInitAll(w io.Writer, ctl initializer, reg *registry.Store) error {
	var failed int
	for _, m := range reg.ListEnabled() {
		if err := runInit(w, ctl, m.Name); err != nil {
			fmt.Fprintf(w, "%s: %v\n", m.Name, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d specialist(s) not initialized", failed)
	}
	return nil
}

var _ initializer = (*session.Controller)(nil)
