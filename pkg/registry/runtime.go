package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"guild/pkg/protocol"
)

// StateStore tracks the runtime state of each specialist. States live in a
// process-local map guarded by a mutex and are written through to one JSON
// file per specialist, so Claim is atomic within a process. Across
// processes the claim remains optimistic read-then-write: two commands
// racing from separate processes can still both observe "available". The
// eager claim narrows that window; it does not close it.
type StateStore struct {
	dir string

	mu      sync.Mutex
	cache   map[protocol.SpecialistType]protocol.RuntimeState
	nowFunc func() time.Time
}

// NewStateStore creates a runtime-state store rooted at dir. One file per
// specialist: <dir>/<type>.json.
func NewStateStore(dir string) *StateStore {
	return &StateStore{
		dir:     dir,
		cache:   make(map[protocol.SpecialistType]protocol.RuntimeState),
		nowFunc: time.Now,
	}
}

func (s *StateStore) path(t protocol.SpecialistType) string {
	return filepath.Join(s.dir, string(t)+".json")
}

// Read returns the current runtime state. Absent records default to
// Uninitialized.
func (s *StateStore) Read(t protocol.SpecialistType) protocol.RuntimeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(t)
}

func (s *StateStore) readLocked(t protocol.SpecialistType) protocol.RuntimeState {
	if st, ok := s.cache[t]; ok {
		return st
	}
	st := protocol.RuntimeState{State: protocol.StateUninitialized}
	data, err := os.ReadFile(s.path(t))
	if err == nil {
		var parsed protocol.RuntimeState
		if json.Unmarshal(data, &parsed) == nil && parsed.State != "" {
			st = parsed
		}
	}
	s.cache[t] = st
	return st
}

// Write replaces the runtime state. Persistence failures are propagated;
// on failure the in-memory cache is left at the previous value.
func (s *StateStore) Write(t protocol.SpecialistType, st protocol.RuntimeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(t, st)
}

func (s *StateStore) writeLocked(t protocol.SpecialistType, st protocol.RuntimeState) error {
	if err := s.persist(t, st); err != nil {
		return err
	}
	s.cache[t] = st
	return nil
}

func (s *StateStore) persist(t protocol.SpecialistType, st protocol.RuntimeState) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state for %s: %w", t, err)
	}
	if err := os.WriteFile(s.path(t), data, 0o644); err != nil {
		return fmt.Errorf("write state for %s: %w", t, err)
	}
	return nil
}

// Claim marks a specialist Active with the given task bound, but only if it
// is not Active already. Returns false (and writes nothing) when the
// specialist is busy. Read-check-write happens under one lock, which is
// what makes the dispatcher's claim-before-wake discipline race-free within
// this process.
func (s *StateStore) Claim(t protocol.SpecialistType, taskID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.readLocked(t)
	if !cur.Available() {
		return false, nil
	}
	next := protocol.RuntimeState{
		State:         protocol.StateActive,
		LastActivity:  s.nowFunc().UTC(),
		CurrentTaskID: taskID,
	}
	if err := s.writeLocked(t, next); err != nil {
		return false, err
	}
	return true, nil
}

// Release transitions a specialist back to Idle with the bound task
// cleared. Used both for dispatch rollback and by the external completion
// signal.
func (s *StateStore) Release(t protocol.SpecialistType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := protocol.RuntimeState{
		State:        protocol.StateIdle,
		LastActivity: s.nowFunc().UTC(),
	}
	return s.writeLocked(t, next)
}

// Suspend marks a specialist Suspended, keeping any bound task cleared.
// Suspended specialists still count as available to the dispatcher.
func (s *StateStore) Suspend(t protocol.SpecialistType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := protocol.RuntimeState{
		State:        protocol.StateSuspended,
		LastActivity: s.nowFunc().UTC(),
	}
	return s.writeLocked(t, next)
}
