package registry

import (
	"sync"
	"testing"

	"guild/pkg/protocol"
)

func TestReadDefaultsToUninitialized(t *testing.T) {
	s := NewStateStore(t.TempDir())
	st := s.Read(protocol.SpecialistMerge)
	if st.State != protocol.StateUninitialized {
		t.Errorf("state = %s, want uninitialized", st.State)
	}
}

func TestWriteSurvivesNewStore(t *testing.T) {
	dir := t.TempDir()
	s := NewStateStore(dir)
	if err := s.Write(protocol.SpecialistTest, protocol.RuntimeState{
		State:         protocol.StateActive,
		CurrentTaskID: "task-7",
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// A fresh store over the same directory reads the persisted record.
	fresh := NewStateStore(dir)
	st := fresh.Read(protocol.SpecialistTest)
	if st.State != protocol.StateActive || st.CurrentTaskID != "task-7" {
		t.Errorf("persisted state = %+v", st)
	}
}

func TestClaimRefusesActive(t *testing.T) {
	s := NewStateStore(t.TempDir())

	ok, err := s.Claim(protocol.SpecialistReview, "task-1")
	if err != nil || !ok {
		t.Fatalf("first Claim = (%v, %v), want success", ok, err)
	}
	ok, err = s.Claim(protocol.SpecialistReview, "task-2")
	if err != nil {
		t.Fatalf("second Claim error: %v", err)
	}
	if ok {
		t.Fatal("second Claim succeeded against an Active specialist")
	}

	st := s.Read(protocol.SpecialistReview)
	if st.CurrentTaskID != "task-1" {
		t.Errorf("bound task = %q, want task-1", st.CurrentTaskID)
	}
}

func TestClaimAfterRelease(t *testing.T) {
	s := NewStateStore(t.TempDir())
	if ok, _ := s.Claim(protocol.SpecialistReview, "task-1"); !ok {
		t.Fatal("initial claim failed")
	}
	if err := s.Release(protocol.SpecialistReview); err != nil {
		t.Fatalf("Release: %v", err)
	}

	st := s.Read(protocol.SpecialistReview)
	if st.State != protocol.StateIdle || st.CurrentTaskID != "" {
		t.Fatalf("after Release state = %+v, want idle with no task", st)
	}
	if ok, _ := s.Claim(protocol.SpecialistReview, "task-2"); !ok {
		t.Error("Claim failed after Release — permanent lock-out")
	}
}

func TestSuspendedStillClaimable(t *testing.T) {
	s := NewStateStore(t.TempDir())
	if err := s.Suspend(protocol.SpecialistMerge); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Claim(protocol.SpecialistMerge, "task-1"); !ok {
		t.Error("suspended specialist refused a claim")
	}
}

func TestConcurrentClaimsExactlyOneWinner(t *testing.T) {
	s := NewStateStore(t.TempDir())

	const callers = 16
	var wg sync.WaitGroup
	wins := make(chan string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			taskID := string(rune('a' + id))
			ok, err := s.Claim(protocol.SpecialistTest, taskID)
			if err != nil {
				t.Errorf("Claim: %v", err)
				return
			}
			if ok {
				wins <- taskID
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	if len(winners) != 1 {
		t.Fatalf("%d concurrent claims won, want exactly 1", len(winners))
	}
	st := s.Read(protocol.SpecialistTest)
	if st.CurrentTaskID != winners[0] {
		t.Errorf("bound task %q does not match winner %q", st.CurrentTaskID, winners[0])
	}
}
