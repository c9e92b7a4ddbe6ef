package feedback

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"guild/pkg/protocol"
)

// fakeSessions simulates session liveness and records deliveries.
type fakeSessions struct {
	live      map[string]bool
	delivered []string // "target: text"
	sendErr   error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{live: make(map[string]bool)}
}

func (f *fakeSessions) SessionExists(name string) bool { return f.live[name] }

func (f *fakeSessions) SendTo(name, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.delivered = append(f.delivered, name+": "+text)
	return nil
}

func testChannel(t *testing.T) (*Channel, *fakeSessions) {
	t.Helper()
	sessions := newFakeSessions()
	ch := NewChannel(filepath.Join(t.TempDir(), "feedback.jsonl"), sessions)
	return ch, sessions
}

func sample(owner string) protocol.Feedback {
	return protocol.Feedback{
		FromSpecialist: protocol.SpecialistReview,
		ToTaskOwner:    owner,
		Type:           protocol.FeedbackWarning,
		Category:       "style",
		Summary:        "error strings start with capitals",
		ActionItems:    []string{"lowercase error strings"},
	}
}

func TestSendDeliversToLiveSession(t *testing.T) {
	ch, sessions := testChannel(t)
	sessions.live["task-42"] = true

	delivered, err := ch.Send(sample("task-42"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !delivered {
		t.Fatal("delivered = false with a live destination")
	}
	if len(sessions.delivered) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(sessions.delivered))
	}
	if !strings.Contains(sessions.delivered[0], "[GUILD-FEEDBACK] WARNING from review") {
		t.Errorf("delivered text = %q", sessions.delivered[0])
	}
}

func TestSendDurableWhenDestinationDead(t *testing.T) {
	ch, _ := testChannel(t)

	delivered, err := ch.Send(sample("task-dead"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if delivered {
		t.Fatal("delivered = true with no live destination")
	}

	// The record must remain retrievable from the log.
	pending, err := ch.Pending("task-dead")
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d records, want 1", len(pending))
	}
	fb := pending[0]
	if fb.ID == "" || fb.Timestamp.IsZero() {
		t.Errorf("stored record missing id/timestamp: %+v", fb)
	}
	if fb.Summary != "error strings start with capitals" {
		t.Errorf("stored summary = %q", fb.Summary)
	}
}

func TestSendDeliveryErrorIsNotEscalated(t *testing.T) {
	ch, sessions := testChannel(t)
	sessions.live["task-7"] = true
	sessions.sendErr = fmt.Errorf("pane vanished mid-send")

	delivered, err := ch.Send(sample("task-7"))
	if err != nil {
		t.Fatalf("Send escalated a delivery failure: %v", err)
	}
	if delivered {
		t.Error("delivered = true despite send failure")
	}
	if pending, _ := ch.Pending("task-7"); len(pending) != 1 {
		t.Error("record lost after delivery failure")
	}
}

func TestPendingFiltersByOwner(t *testing.T) {
	ch, _ := testChannel(t)
	for _, owner := range []string{"task-a", "task-b", "task-a"} {
		if _, err := ch.Send(sample(owner)); err != nil {
			t.Fatal(err)
		}
	}

	a, err := ch.Pending("task-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 2 {
		t.Errorf("Pending(task-a) = %d records, want 2", len(a))
	}
	if pending, _ := ch.Pending("task-c"); len(pending) != 0 {
		t.Error("Pending(task-c) returned records for an unknown owner")
	}
}

func TestPendingMissingLogIsEmpty(t *testing.T) {
	ch, _ := testChannel(t)
	pending, err := ch.Pending("anyone")
	if err != nil {
		t.Fatalf("Pending on missing log: %v", err)
	}
	if pending != nil {
		t.Errorf("Pending = %v, want nil", pending)
	}
}

func TestFormatIncludesActionItems(t *testing.T) {
	text := Format(sample("task-1"))
	if !strings.Contains(text, "Action items: lowercase error strings.") {
		t.Errorf("Format = %q", text)
	}
	if !strings.Contains(text, "(style)") {
		t.Errorf("Format missing category: %q", text)
	}
}
