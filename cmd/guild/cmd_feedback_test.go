package main

import (
	"path/filepath"
	"strings"
	"testing"

	"guild/pkg/feedback"
	"guild/pkg/protocol"
)

// fakeDelivery satisfies feedback.Sessions for send tests.
type fakeDelivery struct {
	live map[string]bool
	sent []string
}

func (f *fakeDelivery) SessionExists(name string) bool { return f.live[name] }

func (f *fakeDelivery) SendTo(name, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func TestFeedbackSendConfigBuild(t *testing.T) {
	cfg := &feedbackSendConfig{
		from:        "review",
		owner:       "task-1",
		kind:        "warning",
		summary:     "missing error wrap",
		actionItems: []string{"wrap with %w"},
	}
	fb, err := cfg.build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if fb.FromSpecialist != protocol.SpecialistReview || fb.Type != protocol.FeedbackWarning {
		t.Errorf("built record = %+v", fb)
	}

	cfg.kind = "rant"
	if _, err := cfg.build(); err == nil {
		t.Fatal("build accepted unknown feedback type")
	}
	cfg.kind = "warning"
	cfg.from = "manager"
	if _, err := cfg.build(); err == nil {
		t.Fatal("build accepted unknown specialist")
	}
}

func TestRunFeedbackSendDeadOwnerStaysRetrievable(t *testing.T) {
	sessions := &fakeDelivery{live: map[string]bool{}}
	ch := feedback.NewChannel(filepath.Join(t.TempDir(), "feedback.jsonl"), sessions)
	fb := protocol.Feedback{
		FromSpecialist: protocol.SpecialistTest,
		ToTaskOwner:    "task-gone",
		Type:           protocol.FeedbackFailure,
		Summary:        "suite broken on main",
	}

	var out strings.Builder
	if err := runFeedbackSend(&out, ch, fb); err != nil {
		t.Fatalf("runFeedbackSend: %v", err)
	}
	if !strings.Contains(out.String(), "owner not reachable") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := runFeedbackPending(&out, ch, "task-gone"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "suite broken on main") {
		t.Errorf("pending output = %q", out.String())
	}
}

func TestRunFeedbackSendLiveOwnerDelivers(t *testing.T) {
	sessions := &fakeDelivery{live: map[string]bool{"task-2": true}}
	ch := feedback.NewChannel(filepath.Join(t.TempDir(), "feedback.jsonl"), sessions)
	fb := protocol.Feedback{
		FromSpecialist: protocol.SpecialistMerge,
		ToTaskOwner:    "task-2",
		Type:           protocol.FeedbackSuccess,
		Summary:        "branch landed",
	}

	var out strings.Builder
	if err := runFeedbackSend(&out, ch, fb); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "delivered to task-2") {
		t.Errorf("output = %q", out.String())
	}
	if len(sessions.sent) != 1 || !strings.Contains(sessions.sent[0], "branch landed") {
		t.Errorf("sent = %v", sessions.sent)
	}
}

func TestRunFeedbackPendingEmpty(t *testing.T) {
	ch := feedback.NewChannel(filepath.Join(t.TempDir(), "feedback.jsonl"), &fakeDelivery{})
	var out strings.Builder
	if err := runFeedbackPending(&out, ch, "nobody"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "no feedback for nobody") {
		t.Errorf("output = %q", out.String())
	}
}
