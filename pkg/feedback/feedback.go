// Package feedback carries specialist findings back to the callers that
// originated their tasks. Every record is appended to a durable JSONL log
// before any delivery attempt, so feedback is never lost; live delivery
// into the owner's session is best-effort on top.
package feedback

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"guild/pkg/protocol"

	"github.com/google/uuid"
)

// Sessions is the delivery capability the channel needs. Satisfied by
// *session.Controller.
type Sessions interface {
	SessionExists(name string) bool
	SendTo(name, text string) error
}

// Channel appends feedback to the durable log and attempts live delivery.
type Channel struct {
	path     string
	sessions Sessions

	mu      sync.Mutex
	nowFunc func() time.Time
	idFunc  func() string
}

// NewChannel creates a feedback channel over the given log path and
// session capability.
func NewChannel(path string, sessions Sessions) *Channel {
	return &Channel{
		path:     path,
		sessions: sessions,
		nowFunc:  time.Now,
		idFunc:   func() string { return uuid.New().String() },
	}
}

// Send appends the feedback record to the log, then attempts delivery into
// the owner's session. Returns whether live delivery happened. A dead or
// unreachable destination is not an error — the record stays retrievable
// via Pending. Only a log write failure is returned as an error.
func (c *Channel) Send(fb protocol.Feedback) (bool, error) {
	if fb.ID == "" {
		fb.ID = c.idFunc()
	}
	if fb.Timestamp.IsZero() {
		fb.Timestamp = c.nowFunc().UTC()
	}

	if err := c.append(fb); err != nil {
		return false, err
	}

	if fb.ToTaskOwner == "" || !c.sessions.SessionExists(fb.ToTaskOwner) {
		return false, nil
	}
	if err := c.sessions.SendTo(fb.ToTaskOwner, Format(fb)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: deliver feedback %s to %s: %v\n", fb.ID, fb.ToTaskOwner, err)
		return false, nil
	}
	return true, nil
}

// append writes one JSONL line. The log is append-only: never truncated or
// rewritten.
func (c *Channel) append(fb protocol.Feedback) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open feedback log: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("marshal feedback %s: %w", fb.ID, err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append feedback %s: %w", fb.ID, err)
	}
	return nil
}

// Pending returns all logged feedback addressed to the given task owner,
// oldest first.
func (c *Channel) Pending(taskOwner string) ([]protocol.Feedback, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open feedback log: %w", err)
	}
	defer f.Close()

	var out []protocol.Feedback
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var fb protocol.Feedback
		if err := json.Unmarshal([]byte(line), &fb); err != nil {
			// One bad line must not hide the rest of the log.
			fmt.Fprintf(os.Stderr, "warning: skip malformed feedback line: %v\n", err)
			continue
		}
		if fb.ToTaskOwner == taskOwner {
			out = append(out, fb)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read feedback log: %w", err)
	}
	return out, nil
}

// Format renders a feedback record as the structured text delivered into
// the owner's session.
func Format(fb protocol.Feedback) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[GUILD-FEEDBACK] %s from %s", strings.ToUpper(string(fb.Type)), fb.FromSpecialist)
	if fb.Category != "" {
		fmt.Fprintf(&b, " (%s)", fb.Category)
	}
	fmt.Fprintf(&b, ": %s", fb.Summary)
	if fb.Details != "" {
		fmt.Fprintf(&b, " — %s", fb.Details)
	}
	if len(fb.ActionItems) > 0 {
		fmt.Fprintf(&b, " Action items: %s.", strings.Join(fb.ActionItems, "; "))
	}
	if len(fb.Suggestions) > 0 {
		fmt.Fprintf(&b, " Suggestions: %s.", strings.Join(fb.Suggestions, "; "))
	}
	return b.String()
}
