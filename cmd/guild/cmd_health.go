package main

import (
	"fmt"
	"io"

	"guild/pkg/health"

	"github.com/spf13/cobra"
)

// newHealthCmd creates the "guild health" subcommand.
func newHealthCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "health [transcripts-dir]",
		Short: "Scan session transcripts for stuck or corrupted sessions",
		Long: "Analyzes every session transcript for warmup loops, runaway\n" +
			"message counts, command retry loops, and oversized files.\n" +
			"With --fix, critically broken transcripts are removed.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			} else {
				dir, err = a.cfg.ResolveTranscriptsDir()
				if err != nil {
					return err
				}
			}
			return runHealth(cmd.OutOrStdout(), dir, fix)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "remove critically broken transcripts")

	return cmd
}

// runHealth scans one directory and reports per-transcript findings.
func runHealth(w io.Writer, dir string, fix bool) error {
	reports, err := health.Scan(dir)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Fprintf(w, "no transcripts under %s\n", dir)
		return nil
	}

	bad := health.Problematic(reports)
	fmt.Fprintf(w, "%d transcript(s) scanned, %d with issues\n", len(reports), len(bad))

	for _, r := range bad {
		fmt.Fprintf(w, "\n%s (%.0fKB, %d messages)\n", r.Name, r.SizeKB, r.MessageCount)
		for _, issue := range r.Issues {
			fmt.Fprintf(w, "  %s\n", issue)
		}
	}

	if !fix {
		return nil
	}

	removed, errs := health.RemoveCritical(bad)
	for _, path := range removed {
		fmt.Fprintf(w, "removed %s\n", path)
	}
	for _, rerr := range errs {
		fmt.Fprintf(w, "  error: %v\n", rerr)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d transcript(s) could not be removed", len(errs))
	}
	return nil
}
