package registry

import (
	"testing"

	"guild/pkg/protocol"
)

func TestContinuityRoundTrip(t *testing.T) {
	c := NewContinuityStore(t.TempDir())

	if _, ok := c.Get(protocol.SpecialistReview); ok {
		t.Fatal("Get returned a session id before Set")
	}

	if err := c.Set(protocol.SpecialistReview, "  sess-0192aefb  \n"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	id, ok := c.Get(protocol.SpecialistReview)
	if !ok {
		t.Fatal("Get found nothing after Set")
	}
	if id != "sess-0192aefb" {
		t.Errorf("Get = %q, want trimmed sess-0192aefb", id)
	}
}

func TestContinuityPerSpecialistIsolation(t *testing.T) {
	c := NewContinuityStore(t.TempDir())
	if err := c.Set(protocol.SpecialistMerge, "m-1"); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(protocol.SpecialistTest, "t-1"); err != nil {
		t.Fatal(err)
	}
	if id, _ := c.Get(protocol.SpecialistMerge); id != "m-1" {
		t.Errorf("merge id = %q", id)
	}
	if id, _ := c.Get(protocol.SpecialistTest); id != "t-1" {
		t.Errorf("test id = %q", id)
	}
}

func TestContinuityClear(t *testing.T) {
	c := NewContinuityStore(t.TempDir())

	if c.Clear(protocol.SpecialistMerge) {
		t.Error("Clear reported true with no record present")
	}

	if err := c.Set(protocol.SpecialistMerge, "sess-1"); err != nil {
		t.Fatal(err)
	}
	if !c.Clear(protocol.SpecialistMerge) {
		t.Error("Clear reported false with a record present")
	}
	if _, ok := c.Get(protocol.SpecialistMerge); ok {
		t.Error("Get found a session id after Clear")
	}
}
