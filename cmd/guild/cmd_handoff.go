package main

import (
	"fmt"
	"io"
	"time"

	"guild/pkg/handoff"
	"guild/pkg/protocol"

	"github.com/spf13/cobra"
)

// newHandoffCmd creates the "guild handoff" subcommand group.
func newHandoffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "handoff",
		Short: "Record and analyze cross-agent handoffs",
		Long: "The handoff log separates two judgments: whether the handoff\n" +
			"operation completed (fixed at record time) and whether the\n" +
			"receiving side actually recovered (verified later). The two are\n" +
			"reported as distinct rates.",
	}

	cmd.AddCommand(
		newHandoffRecordCmd(),
		newHandoffLogCmd(),
		newHandoffVerifyCmd(),
		newHandoffPendingCmd(),
		newHandoffStatsCmd(),
	)

	return cmd
}

// handoffRecordConfig holds flags for "handoff record".
type handoffRecordConfig struct {
	agent       string
	task        string
	fromModel   string
	fromRuntime string
	fromSession string
	toModel     string
	toRuntime   string
	toSession   string
	trigger     string
	reason      string
	failed      bool
}

// newHandoffRecordCmd creates the "guild handoff record" subcommand.
func newHandoffRecordCmd() *cobra.Command {
	var cfg handoffRecordConfig

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Append one handoff event to the log",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			e := protocol.HandoffEvent{
				Timestamp: time.Now().UTC(),
				AgentID:   cfg.agent,
				TaskID:    cfg.task,
				From:      protocol.Endpoint{Model: cfg.fromModel, Runtime: cfg.fromRuntime, SessionID: cfg.fromSession},
				To:        protocol.Endpoint{Model: cfg.toModel, Runtime: cfg.toRuntime, SessionID: cfg.toSession},
				Trigger:   cfg.trigger,
				Reason:    cfg.reason,
				Success:   !cfg.failed,
			}
			return runHandoffRecord(cmd.OutOrStdout(), a.handoffLogger(), e)
		},
	}

	cmd.Flags().StringVar(&cfg.agent, "agent", "", "agent identifier (required)")
	cmd.Flags().StringVar(&cfg.task, "task", "", "task identifier")
	cmd.Flags().StringVar(&cfg.fromModel, "from-model", "", "model handing off (required)")
	cmd.Flags().StringVar(&cfg.fromRuntime, "from-runtime", "tmux", "runtime handing off")
	cmd.Flags().StringVar(&cfg.fromSession, "from-session", "", "session handing off")
	cmd.Flags().StringVar(&cfg.toModel, "to-model", "", "model taking over (required)")
	cmd.Flags().StringVar(&cfg.toRuntime, "to-runtime", "tmux", "runtime taking over")
	cmd.Flags().StringVar(&cfg.toSession, "to-session", "", "session taking over")
	cmd.Flags().StringVar(&cfg.trigger, "trigger", "", "what forced the handoff, e.g. context_exhaustion")
	cmd.Flags().StringVar(&cfg.reason, "reason", "", "free-form explanation")
	cmd.Flags().BoolVar(&cfg.failed, "failed", false, "the handoff operation itself did not complete")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("from-model")
	_ = cmd.MarkFlagRequired("to-model")

	return cmd
}

// runHandoffRecord appends one event and echoes its identity for later
// verification.
func runHandoffRecord(w io.Writer, l *handoff.Logger, e protocol.HandoffEvent) error {
	if err := l.Record(e); err != nil {
		return err
	}
	fmt.Fprintf(w, "handoff recorded for %s at %s\n", e.AgentID, e.Timestamp.Format(time.RFC3339Nano))
	if e.Success {
		fmt.Fprintln(w, "verify recovery later with 'guild handoff verify'")
	}
	return nil
}

// handoffLogConfig holds flags for "handoff log".
type handoffLogConfig struct {
	agent   string
	task    string
	trigger string
	limit   int
}

// newHandoffLogCmd creates the "guild handoff log" subcommand.
func newHandoffLogCmd() *cobra.Command {
	var cfg handoffLogConfig

	cmd := &cobra.Command{
		Use:   "log",
		Short: "List handoff events, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			f := handoff.Filter{AgentID: cfg.agent, TaskID: cfg.task, Trigger: cfg.trigger, Limit: cfg.limit}
			return runHandoffLog(cmd.OutOrStdout(), a.handoffLogger(), f)
		},
	}

	cmd.Flags().StringVar(&cfg.agent, "agent", "", "filter by agent identifier")
	cmd.Flags().StringVar(&cfg.task, "task", "", "filter by task identifier")
	cmd.Flags().StringVar(&cfg.trigger, "trigger", "", "filter by trigger")
	cmd.Flags().IntVar(&cfg.limit, "limit", 20, "maximum number of events to show")

	return cmd
}

// runHandoffLog prints matching events.
func runHandoffLog(w io.Writer, l *handoff.Logger, f handoff.Filter) error {
	events, err := l.Read(f)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(w, "no handoff events")
		return nil
	}
	for _, e := range events {
		fmt.Fprintf(w, "%s  %-10s %s -> %s  %-20s %s\n",
			e.Timestamp.UTC().Format(time.RFC3339), e.AgentID,
			e.From.Model, e.To.Model, e.Trigger, handoffOutcomeLabel(e))
	}
	return nil
}

// handoffOutcomeLabel renders the two-phase status of one event.
func handoffOutcomeLabel(e protocol.HandoffEvent) string {
	if !e.Success {
		return "operation failed"
	}
	if e.Outcome == nil || !e.Outcome.Verified {
		return "pending verification"
	}
	if e.Outcome.Recovered {
		return "recovered"
	}
	return "not recovered"
}

// handoffVerifyConfig holds flags for "handoff verify".
type handoffVerifyConfig struct {
	agent     string
	at        string
	recovered bool
	method    string
	notes     string
}

// newHandoffVerifyCmd creates the "guild handoff verify" subcommand.
func newHandoffVerifyCmd() *cobra.Command {
	var cfg handoffVerifyConfig

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Attach a recovery judgment to a recorded handoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := time.Parse(time.RFC3339Nano, cfg.at)
			if err != nil {
				return fmt.Errorf("parse --at timestamp: %w", err)
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			v := handoff.Verification{Recovered: cfg.recovered, Method: cfg.method, Notes: cfg.notes}
			if err := a.handoffLogger().VerifyOutcome(cfg.agent, ts, v); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "handoff for %s at %s verified (recovered=%v)\n", cfg.agent, cfg.at, cfg.recovered)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.agent, "agent", "", "agent identifier of the recorded event (required)")
	cmd.Flags().StringVar(&cfg.at, "at", "", "timestamp of the recorded event, RFC3339 (required)")
	cmd.Flags().BoolVar(&cfg.recovered, "recovered", false, "the receiving side actually recovered")
	cmd.Flags().StringVar(&cfg.method, "method", "", "how recovery was judged")
	cmd.Flags().StringVar(&cfg.notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

// newHandoffPendingCmd creates the "guild handoff pending" subcommand.
func newHandoffPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List successful handoffs still awaiting verification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			events, err := a.handoffLogger().PendingVerification()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(w, "no handoffs pending verification")
				return nil
			}
			for _, e := range events {
				fmt.Fprintf(w, "%s  %-10s %s -> %s  %s\n",
					e.Timestamp.UTC().Format(time.RFC3339Nano), e.AgentID,
					e.From.Model, e.To.Model, e.Trigger)
			}
			return nil
		},
	}
}

// newHandoffStatsCmd creates the "guild handoff stats" subcommand.
func newHandoffStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize handoff success and recovery rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			stats, err := a.handoffLogger().Summarize()
			if err != nil {
				return err
			}
			return runHandoffStats(cmd.OutOrStdout(), stats)
		},
	}
}

// runHandoffStats prints the summary, keeping the two rates visibly apart.
func runHandoffStats(w io.Writer, stats *handoff.Stats) error {
	fmt.Fprintf(w, "total handoffs:        %d\n", stats.Total)
	fmt.Fprintf(w, "operation success:     %.0f%%\n", stats.OperationSuccessRate*100)
	fmt.Fprintf(w, "recovery success:      %.0f%% (of %d verified)\n", stats.RecoverySuccessRate*100, stats.VerifiedCount)
	fmt.Fprintf(w, "pending verification:  %d\n", stats.PendingVerificationCount)
	if len(stats.ByTrigger) > 0 {
		fmt.Fprintln(w, "by trigger:")
		for trigger, n := range stats.ByTrigger {
			fmt.Fprintf(w, "  %-22s %d\n", trigger, n)
		}
	}
	if len(stats.ByModel) > 0 {
		fmt.Fprintln(w, "by receiving model:")
		for model, n := range stats.ByModel {
			fmt.Fprintf(w, "  %-22s %d\n", model, n)
		}
	}
	return nil
}
