package main

import (
	"context"
	"strings"
	"testing"

	"guild/pkg/protocol"
)

func TestRunIdleReleasesSpecialist(t *testing.T) {
	d, states, _ := testDispatcher(t)
	if _, err := states.Claim(protocol.SpecialistTest, "task-1"); err != nil {
		t.Fatal(err)
	}
	var out strings.Builder

	if err := runIdle(context.Background(), &out, d, protocol.SpecialistTest, false); err != nil {
		t.Fatalf("runIdle: %v", err)
	}
	if !strings.Contains(out.String(), "test marked idle") {
		t.Errorf("output = %q", out.String())
	}
	if st := states.Read(protocol.SpecialistTest); st.State != protocol.StateIdle || st.CurrentTaskID != "" {
		t.Errorf("state after idle = %+v", st)
	}
}

func TestRunIdleDrainEmptyQueue(t *testing.T) {
	d, _, _ := testDispatcher(t)
	var out strings.Builder

	if err := runIdle(context.Background(), &out, d, protocol.SpecialistTest, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "queue for test is empty") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunIdleDrainDispatchesQueuedTask(t *testing.T) {
	d, states, ctl := testDispatcher(t)

	// Occupy the specialist, queue a task behind it, then complete.
	ctx := context.Background()
	if _, err := d.DispatchOrQueue(ctx, protocol.SpecialistTest, "first", protocol.PriorityNormal, "cli"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.DispatchOrQueue(ctx, protocol.SpecialistTest, "second", protocol.PriorityNormal, "cli"); err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	if err := runIdle(ctx, &out, d, protocol.SpecialistTest, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "dispatched to test") {
		t.Errorf("output = %q", out.String())
	}
	if ctl.lastPrompt != "second" {
		t.Errorf("drained prompt = %q, want %q", ctl.lastPrompt, "second")
	}
	if st := states.Read(protocol.SpecialistTest); st.State != protocol.StateActive {
		t.Errorf("state after drain = %+v", st)
	}
}
