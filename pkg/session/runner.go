// Package session controls the tmux-hosted specialist sessions: liveness,
// first-time initialization, pre-task reset, and waking with task
// delivery. All tmux access goes through the CmdRunner seam so tests run
// without real sessions.
package session

import (
	"context"
	"os/exec"
	"strings"
)

// CmdRunner abstracts command execution for testability.
type CmdRunner interface {
	Run(name string, args ...string) (string, error)
}

// ExecRunner implements CmdRunner using os/exec.
type ExecRunner struct{}

// Run executes a command and returns its combined output.
func (e *ExecRunner) Run(name string, args ...string) (string, error) {
	cmd := exec.CommandContext(context.Background(), name, args...)
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}
