package main

import (
	"fmt"
	"io"
	"time"

	"guild/pkg/feedback"
	"guild/pkg/protocol"

	"github.com/spf13/cobra"
)

// newFeedbackCmd creates the "guild feedback" subcommand group.
func newFeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Send and inspect specialist feedback",
		Long: "Feedback flows from a specialist back to the caller that\n" +
			"originated its task. Every record is logged durably before any\n" +
			"live delivery attempt, so nothing is lost when the caller is away.",
	}

	cmd.AddCommand(
		newFeedbackSendCmd(),
		newFeedbackPendingCmd(),
	)

	return cmd
}

// feedbackSendConfig holds flags for "feedback send".
type feedbackSendConfig struct {
	from        string
	owner       string
	kind        string
	category    string
	summary     string
	details     string
	actionItems []string
	patterns    []string
	suggestions []string
}

// newFeedbackSendCmd creates the "guild feedback send" subcommand.
func newFeedbackSendCmd() *cobra.Command {
	var cfg feedbackSendConfig

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Record a feedback item and deliver it if the owner is live",
		RunE: func(cmd *cobra.Command, args []string) error {
			fb, err := cfg.build()
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			return runFeedbackSend(cmd.OutOrStdout(), a.feedbackChannel(), fb)
		},
	}

	cmd.Flags().StringVar(&cfg.from, "from", "", "originating specialist: merge, review, or test")
	cmd.Flags().StringVar(&cfg.owner, "owner", "", "task owner session the feedback is addressed to")
	cmd.Flags().StringVar(&cfg.kind, "type", string(protocol.FeedbackInsight), "feedback type: success, failure, warning, or insight")
	cmd.Flags().StringVar(&cfg.category, "category", "", "free-form category label")
	cmd.Flags().StringVar(&cfg.summary, "summary", "", "one-line summary (required)")
	cmd.Flags().StringVar(&cfg.details, "details", "", "longer explanation")
	cmd.Flags().StringArrayVar(&cfg.actionItems, "action", nil, "action item (repeatable)")
	cmd.Flags().StringArrayVar(&cfg.patterns, "pattern", nil, "observed pattern (repeatable)")
	cmd.Flags().StringArrayVar(&cfg.suggestions, "suggest", nil, "suggestion (repeatable)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("summary")

	return cmd
}

// build validates the flags into a feedback record.
func (cfg *feedbackSendConfig) build() (protocol.Feedback, error) {
	from, err := protocol.ParseSpecialist(cfg.from)
	if err != nil {
		return protocol.Feedback{}, err
	}
	switch protocol.FeedbackType(cfg.kind) {
	case protocol.FeedbackSuccess, protocol.FeedbackFailure, protocol.FeedbackWarning, protocol.FeedbackInsight:
	default:
		return protocol.Feedback{}, fmt.Errorf("unknown feedback type %q (expected success, failure, warning, or insight)", cfg.kind)
	}
	return protocol.Feedback{
		FromSpecialist: from,
		ToTaskOwner:    cfg.owner,
		Type:           protocol.FeedbackType(cfg.kind),
		Category:       cfg.category,
		Summary:        cfg.summary,
		Details:        cfg.details,
		ActionItems:    cfg.actionItems,
		Patterns:       cfg.patterns,
		Suggestions:    cfg.suggestions,
	}, nil
}

// runFeedbackSend logs one record and reports whether it was delivered live.
func runFeedbackSend(w io.Writer, ch *feedback.Channel, fb protocol.Feedback) error {
	delivered, err := ch.Send(fb)
	if err != nil {
		return err
	}
	if delivered {
		fmt.Fprintf(w, "feedback logged and delivered to %s\n", fb.ToTaskOwner)
	} else {
		fmt.Fprintln(w, "feedback logged (owner not reachable; retrievable via 'guild feedback pending')")
	}
	return nil
}

// newFeedbackPendingCmd creates the "guild feedback pending" subcommand.
func newFeedbackPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending <task-owner>",
		Short: "List logged feedback addressed to a task owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return runFeedbackPending(cmd.OutOrStdout(), a.feedbackChannel(), args[0])
		},
	}
}

// runFeedbackPending prints all logged feedback for one owner, oldest first.
func runFeedbackPending(w io.Writer, ch *feedback.Channel, owner string) error {
	records, err := ch.Pending(owner)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(w, "no feedback for %s\n", owner)
		return nil
	}
	for _, fb := range records {
		fmt.Fprintf(w, "%s  %s\n", fb.Timestamp.UTC().Format(time.RFC3339), feedback.Format(fb))
	}
	return nil
}
