// Package protocol defines the shared types for the guild specialist pool:
// specialist identities, runtime states, queued tasks, feedback records,
// and handoff events. It has no dependencies so every other package can
// import it freely.
package protocol

import (
	"fmt"
	"time"
)

// SpecialistType identifies one specialist slot. The set is closed:
// exactly one registry record and one runtime-state record exist per type.
type SpecialistType string

// Specialist type constants.
const (
	SpecialistMerge  SpecialistType = "merge"
	SpecialistReview SpecialistType = "review"
	SpecialistTest   SpecialistType = "test"
)

// AllSpecialists returns every known specialist type in stable order.
func AllSpecialists() []SpecialistType {
	return []SpecialistType{SpecialistMerge, SpecialistReview, SpecialistTest}
}

// ParseSpecialist validates a specialist name from user input.
func ParseSpecialist(s string) (SpecialistType, error) {
	t := SpecialistType(s)
	for _, known := range AllSpecialists() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown specialist %q (expected merge, review, or test)", s)
}

// SessionName returns the tmux session name hosting this specialist.
func (t SpecialistType) SessionName() string {
	return SessionPrefix + string(t)
}

// SpecialistState represents the runtime state of a specialist.
type SpecialistState string

// Specialist state constants.
const (
	StateUninitialized SpecialistState = "uninitialized"
	StateIdle          SpecialistState = "idle"
	StateActive        SpecialistState = "active"
	StateSuspended     SpecialistState = "suspended"
)

// RuntimeState is the per-specialist record the dispatcher claims before
// waking. It is the only contended structure in the subsystem.
type RuntimeState struct {
	State         SpecialistState `json:"state"`
	LastActivity  time.Time       `json:"last_activity"`
	CurrentTaskID string          `json:"current_task_id,omitempty"`
}

// Available reports whether a dispatcher may claim this specialist.
// Idle, Suspended, and Uninitialized all count as available; only Active
// forces the queue path.
func (r RuntimeState) Available() bool {
	return r.State != StateActive
}

// Priority orders queued tasks. Bands are strictly ordered; FIFO within
// a band.
type Priority string

// Priority band constants.
const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Rank returns the sort rank of a priority band (lower sorts first).
// Unknown priorities rank after low so malformed rows never jump the queue.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// ParsePriority validates a priority band from user input.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q (expected urgent, high, normal, or low)", s)
}

// TaskItem is one queued unit of work for a specialist.
type TaskItem struct {
	ID         string         `json:"id"`
	Specialist SpecialistType `json:"specialist"`
	Priority   Priority       `json:"priority"`
	Source     string         `json:"source"`
	Payload    string         `json:"payload"`
	CreatedAt  time.Time      `json:"created_at"`
}

// FeedbackType classifies a feedback record.
type FeedbackType string

// Feedback type constants.
const (
	FeedbackSuccess FeedbackType = "success"
	FeedbackFailure FeedbackType = "failure"
	FeedbackWarning FeedbackType = "warning"
	FeedbackInsight FeedbackType = "insight"
)

// Feedback is one finding a specialist sends back to the caller that
// originated its task. Append-only; never mutated after creation.
type Feedback struct {
	ID             string         `json:"id"`
	Timestamp      time.Time      `json:"timestamp"`
	FromSpecialist SpecialistType `json:"from_specialist"`
	ToTaskOwner    string         `json:"to_task_owner"`
	Type           FeedbackType   `json:"feedback_type"`
	Category       string         `json:"category,omitempty"`
	Summary        string         `json:"summary"`
	Details        string         `json:"details,omitempty"`
	ActionItems    []string       `json:"action_items,omitempty"`
	Patterns       []string       `json:"patterns,omitempty"`
	Suggestions    []string       `json:"suggestions,omitempty"`
}

// Endpoint identifies one side of a handoff: which model ran under which
// runtime, and the session it ran in when known.
type Endpoint struct {
	Model     string `json:"model"`
	Runtime   string `json:"runtime"`
	SessionID string `json:"session_id,omitempty"`
}

// HandoffOutcome is the later-verified recovery judgment attached to a
// handoff event. Verified stays false until an explicit verification call.
type HandoffOutcome struct {
	Verified   bool      `json:"verified"`
	Recovered  bool      `json:"recovered"`
	VerifiedAt time.Time `json:"verified_at,omitempty"`
	Method     string    `json:"verification_method,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

// HandoffEvent records one cross-agent or cross-model handoff attempt.
// Success is set once at creation (did the handoff operation complete) and
// is never reinterpreted; Outcome is added later by a separate call.
type HandoffEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	AgentID   string            `json:"agent_id"`
	TaskID    string            `json:"task_id"`
	From      Endpoint          `json:"from"`
	To        Endpoint          `json:"to"`
	Trigger   string            `json:"trigger"`
	Reason    string            `json:"reason,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
	Success   bool              `json:"success"`
	Outcome   *HandoffOutcome   `json:"outcome,omitempty"`
}

// Validate checks that a handoff event has the fields verification will
// later need to locate it.
func (e *HandoffEvent) Validate() error {
	if e.AgentID == "" {
		return fmt.Errorf("handoff event: agent_id is required")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("handoff event: timestamp is required")
	}
	if e.From.Model == "" || e.To.Model == "" {
		return fmt.Errorf("handoff event: from.model and to.model are required")
	}
	return nil
}
