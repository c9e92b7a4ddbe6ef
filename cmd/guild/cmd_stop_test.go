package main

import (
	"errors"
	"strings"
	"testing"

	"guild/pkg/protocol"
	"guild/pkg/registry"
)

// fakeStopper simulates session liveness and records kills.
type fakeStopper struct {
	live   map[protocol.SpecialistType]bool
	killed []protocol.SpecialistType
}

func (f *fakeStopper) IsLive(t protocol.SpecialistType) bool { return f.live[t] }

func (f *fakeStopper) Kill(t protocol.SpecialistType) error {
	f.killed = append(f.killed, t)
	return nil
}

func TestRunStopKillsAndSuspends(t *testing.T) {
	states := registry.NewStateStore(t.TempDir())
	ctl := &fakeStopper{live: map[protocol.SpecialistType]bool{protocol.SpecialistMerge: true}}
	var out strings.Builder

	if err := runStop(&out, ctl, states, protocol.SpecialistMerge); err != nil {
		t.Fatalf("runStop: %v", err)
	}
	if len(ctl.killed) != 1 || ctl.killed[0] != protocol.SpecialistMerge {
		t.Errorf("killed = %v", ctl.killed)
	}
	if st := states.Read(protocol.SpecialistMerge); st.State != protocol.StateSuspended {
		t.Errorf("state = %+v, want suspended", st)
	}
	if !strings.Contains(out.String(), "merge suspended") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunStopDeadSessionFails(t *testing.T) {
	states := registry.NewStateStore(t.TempDir())
	ctl := &fakeStopper{live: map[protocol.SpecialistType]bool{}}

	err := runStop(&strings.Builder{}, ctl, states, protocol.SpecialistTest)
	var notRunning *protocol.NotRunningError
	if !errors.As(err, &notRunning) {
		t.Fatalf("err = %v, want NotRunningError", err)
	}
	if len(ctl.killed) != 0 {
		t.Error("Kill issued against a dead session")
	}
}
