package main

import (
	"fmt"
	"io"
	"strings"

	"guild/pkg/protocol"
	"guild/pkg/session"

	"github.com/spf13/cobra"
)

// waker is the controller capability wake needs; tests substitute a fake.
type waker interface {
	Wake(t protocol.SpecialistType, prompt string, opts session.WakeOptions) (*session.WakeResult, error)
}

// wakeConfig holds flags for the wake command.
type wakeConfig struct {
	noStart bool
	noWait  bool
}

// newWakeCmd creates the "guild wake" subcommand.
func newWakeCmd() *cobra.Command {
	var cfg wakeConfig

	cmd := &cobra.Command{
		Use:   "wake <specialist> <prompt>...",
		Short: "Wake a specialist and deliver a task prompt",
		Long: "Ensures the specialist's session is live (resuming its stored\n" +
			"continuity identifier when one exists) and delivers the prompt.\n" +
			"Oversized prompts are routed through a task file automatically.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := protocol.ParseSpecialist(args[0])
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			prompt := strings.Join(args[1:], " ")
			return runWake(cmd.OutOrStdout(), a.ctl, t, prompt, session.WakeOptions{
				WaitForReady:      !cfg.noWait,
				StartIfNotRunning: !cfg.noStart,
			})
		},
	}

	cmd.Flags().BoolVar(&cfg.noStart, "no-start", false, "fail instead of starting a dead session")
	cmd.Flags().BoolVar(&cfg.noWait, "no-wait", false, "skip the post-start settle wait")

	return cmd
}

// runWake wakes one specialist and reports what happened.
func runWake(w io.Writer, ctl waker, t protocol.SpecialistType, prompt string, opts session.WakeOptions) error {
	res, err := ctl.Wake(t, prompt, opts)
	if err != nil {
		return err
	}

	verb := "started"
	if res.WasRunning {
		verb = "already running"
	}
	fmt.Fprintf(w, "%s %s (session %s)\n", t, verb, res.SessionID)
	if res.TaskFile != "" {
		fmt.Fprintf(w, "prompt written to %s\n", res.TaskFile)
	}
	return nil
}

var _ waker = (*session.Controller)(nil)
