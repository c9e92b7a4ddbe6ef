// Package handoff keeps the durable record of cross-agent and cross-model
// handoff attempts. Success is two-phase: the operation outcome is fixed
// at record time, while recovery is judged later by an explicit
// verification call. The two are reported as distinct rates and never
// conflated.
package handoff

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
)

// Logger appends handoff events to a JSONL log. Append is the only write
// path except for VerifyOutcome, which rewrites the file to populate
// exactly one historical record's outcome.
type Logger struct {
	path string

	mu      sync.Mutex
	nowFunc func() time.Time
}

// NewLogger creates a handoff logger over the given log path.
func NewLogger(path string) *Logger {
	return &Logger{path: path, nowFunc: time.Now}
}

// Record appends one immutable event line.
func (l *Logger) Record(e protocol.HandoffEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open handoff log: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal handoff event: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append handoff event: %w", err)
	}
	return nil
}

// Filter restricts Read results. Zero values match everything.
type Filter struct {
	AgentID string
	TaskID  string
	Trigger string
	Limit   int // 0 = no limit
}

func (f Filter) matches(e protocol.HandoffEvent) bool {
	if f.AgentID != "" && e.AgentID != f.AgentID {
		return false
	}
	if f.TaskID != "" && e.TaskID != f.TaskID {
		return false
	}
	if f.Trigger != "" && e.Trigger != f.Trigger {
		return false
	}
	return true
}

// Read returns matching events, most recent first.
func (l *Logger) Read(f Filter) ([]protocol.HandoffEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.readAll()
	if err != nil {
		return nil, err
	}

	var out []protocol.HandoffEvent
	for i := len(events) - 1; i >= 0; i-- {
		if !f.matches(events[i]) {
			continue
		}
		out = append(out, events[i])
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// Verification is the later-applied recovery judgment.
type Verification struct {
	Recovered bool
	Method    string
	Notes     string
}

// VerifyOutcome locates the event with the given agent and timestamp and
// rewrites the log with that one record's outcome populated. The original
// Success flag is untouched. Fails when no record matches.
func (l *Logger) VerifyOutcome(agentID string, ts time.Time, v Verification) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.readAll()
	if err != nil {
		return err
	}

	idx := -1
	for i, e := range events {
		if e.AgentID == agentID && e.Timestamp.Equal(ts) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("no handoff event for agent %s at %s", agentID, ts.Format(time.RFC3339Nano))
	}

	events[idx].Outcome = &protocol.HandoffOutcome{
		Verified:   true,
		Recovered:  v.Recovered,
		VerifiedAt: l.nowFunc().UTC(),
		Method:     v.Method,
		Notes:      v.Notes,
	}
	return l.rewrite(events)
}

// PendingVerification returns events whose operation succeeded but whose
// outcome has not been verified yet, most recent first.
func (l *Logger) PendingVerification() ([]protocol.HandoffEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.readAll()
	if err != nil {
		return nil, err
	}
	var out []protocol.HandoffEvent
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if e.Success && (e.Outcome == nil || !e.Outcome.Verified) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Stats summarizes the log. OperationSuccessRate is the fraction of all
// events with Success=true. RecoverySuccessRate is the fraction of
// verified events with Recovered=true — unverified events are excluded
// from the denominator, not counted as failures.
type Stats struct {
	Total                    int
	OperationSuccessRate     float64
	RecoverySuccessRate      float64
	PendingVerificationCount int
	VerifiedCount            int
	ByTrigger                map[string]int
	ByModel                  map[string]int
}

// Summarize computes statistics over the whole log.
func (l *Logger) Summarize() (*Stats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.readAll()
	if err != nil {
		return nil, err
	}

	s := &Stats{
		ByTrigger: make(map[string]int),
		ByModel:   make(map[string]int),
	}
	var opSuccess, verified, recovered int
	for _, e := range events {
		s.Total++
		if e.Success {
			opSuccess++
		}
		if e.Outcome != nil && e.Outcome.Verified {
			verified++
			if e.Outcome.Recovered {
				recovered++
			}
		} else if e.Success {
			s.PendingVerificationCount++
		}
		s.ByTrigger[e.Trigger]++
		s.ByModel[e.To.Model]++
	}
	s.VerifiedCount = verified
	if s.Total > 0 {
		s.OperationSuccessRate = float64(opSuccess) / float64(s.Total)
	}
	if verified > 0 {
		s.RecoverySuccessRate = float64(recovered) / float64(verified)
	}
	return s, nil
}

// readAll parses the log in file order. Malformed lines are skipped with a
// warning so one bad record cannot hide the rest.
func (l *Logger) readAll() ([]protocol.HandoffEvent, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open handoff log: %w", err)
	}
	defer f.Close()

	var events []protocol.HandoffEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e protocol.HandoffEvent
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			fmt.Fprintf(os.Stderr, "warning: skip malformed handoff line: %v\n", err)
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read handoff log: %w", err)
	}
	return events, nil
}

// rewrite replaces the log contents atomically. Only VerifyOutcome uses
// this path.
func (l *Logger) rewrite(events []protocol.HandoffEvent) error {
	var b strings.Builder
	for _, e := range events {
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal handoff event: %w", err)
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write handoff log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace handoff log: %w", err)
	}
	return nil
}
