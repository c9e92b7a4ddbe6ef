package main

import (
	"path/filepath"
	"strings"
	"testing"

	"guild/pkg/protocol"
	"guild/pkg/registry"
)

// fakeInitializer records Initialize calls and returns canned errors.
type fakeInitializer struct {
	calls []protocol.SpecialistType
	errs  map[protocol.SpecialistType]error
}

func (f *fakeInitializer) Initialize(t protocol.SpecialistType) error {
	f.calls = append(f.calls, t)
	return f.errs[t]
}

func TestRunInitReportsSession(t *testing.T) {
	var out strings.Builder
	ctl := &fakeInitializer{}

	if err := runInit(&out, ctl, protocol.SpecialistReview); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	if !strings.Contains(out.String(), "review initialized (session guild-review)") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunInitAlreadyInitializedSuggestsWake(t *testing.T) {
	ctl := &fakeInitializer{errs: map[protocol.SpecialistType]error{
		protocol.SpecialistMerge: &protocol.AlreadyInitializedError{Specialist: protocol.SpecialistMerge, SessionID: "abc-123"},
	}}

	err := runInit(&strings.Builder{}, ctl, protocol.SpecialistMerge)
	if err == nil {
		t.Fatal("runInit succeeded against an initialized specialist")
	}
	if !strings.Contains(err.Error(), "guild wake merge") {
		t.Errorf("error = %v, want wake suggestion", err)
	}
	if !strings.Contains(err.Error(), "abc-123") {
		t.Errorf("error = %v, want continuity id", err)
	}
}

func TestRunInitAllContinuesPastFailures(t *testing.T) {
	reg := registry.NewStore(filepath.Join(t.TempDir(), "registry.yaml"))
	ctl := &fakeInitializer{errs: map[protocol.SpecialistType]error{
		protocol.SpecialistMerge: &protocol.AlreadyRunningError{Specialist: protocol.SpecialistMerge},
	}}

	var out strings.Builder
	err := runInitAll(&out, ctl, reg)
	if err == nil {
		t.Fatal("runInitAll swallowed a failure")
	}
	// All three defaults are enabled; the merge failure must not stop the rest.
	if len(ctl.calls) != 3 {
		t.Errorf("Initialize called %d times, want 3", len(ctl.calls))
	}
	if !strings.Contains(out.String(), "review initialized") || !strings.Contains(out.String(), "test initialized") {
		t.Errorf("output = %q", out.String())
	}
}
