package protocol

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseSpecialist(t *testing.T) {
	for _, name := range []string{"merge", "review", "test"} {
		got, err := ParseSpecialist(name)
		if err != nil {
			t.Fatalf("ParseSpecialist(%q) returned error: %v", name, err)
		}
		if string(got) != name {
			t.Errorf("ParseSpecialist(%q) = %q", name, got)
		}
	}

	if _, err := ParseSpecialist("janitor"); err == nil {
		t.Error("ParseSpecialist accepted unknown specialist")
	}
}

func TestSessionName(t *testing.T) {
	if got := SpecialistReview.SessionName(); got != "guild-review" {
		t.Errorf("SessionName = %q, want guild-review", got)
	}
}

func TestPriorityRankOrdering(t *testing.T) {
	order := []Priority{PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("%s should rank before %s", order[i-1], order[i])
		}
	}
	// Malformed rows must never jump the queue.
	if Priority("bogus").Rank() <= PriorityLow.Rank() {
		t.Error("unknown priority ranked at or above low")
	}
}

func TestParsePriority(t *testing.T) {
	if _, err := ParsePriority("high"); err != nil {
		t.Errorf("ParsePriority(high) returned error: %v", err)
	}
	if _, err := ParsePriority("critical"); err == nil {
		t.Error("ParsePriority accepted unknown band")
	}
}

func TestRuntimeStateAvailable(t *testing.T) {
	cases := []struct {
		state SpecialistState
		want  bool
	}{
		{StateUninitialized, true},
		{StateIdle, true},
		{StateSuspended, true},
		{StateActive, false},
	}
	for _, c := range cases {
		r := RuntimeState{State: c.state}
		if r.Available() != c.want {
			t.Errorf("Available() for %s = %v, want %v", c.state, r.Available(), c.want)
		}
	}
}

func TestHandoffEventValidate(t *testing.T) {
	valid := HandoffEvent{
		Timestamp: time.Now(),
		AgentID:   "review",
		From:      Endpoint{Model: "opus", Runtime: "tmux"},
		To:        Endpoint{Model: "sonnet", Runtime: "tmux"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate rejected valid event: %v", err)
	}

	missing := valid
	missing.AgentID = ""
	if err := missing.Validate(); err == nil {
		t.Error("Validate accepted event without agent_id")
	}
}

func TestHandoffOutcomeOmittedWhenNil(t *testing.T) {
	e := HandoffEvent{
		Timestamp: time.Now(),
		AgentID:   "merge",
		From:      Endpoint{Model: "a", Runtime: "tmux"},
		To:        Endpoint{Model: "b", Runtime: "tmux"},
		Success:   true,
	}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, present := raw["outcome"]; present {
		t.Error("outcome key serialized for unverified event; want omitted")
	}
}

func TestTypedErrorsDiscriminate(t *testing.T) {
	var err error = &NotRunningError{Specialist: SpecialistTest}
	var nr *NotRunningError
	if !errors.As(err, &nr) {
		t.Fatal("errors.As failed to match NotRunningError")
	}
	if nr.Specialist != SpecialistTest {
		t.Errorf("Specialist = %s, want test", nr.Specialist)
	}
}
