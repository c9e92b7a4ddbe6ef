package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"guild/pkg/protocol"
)

// ContinuityStore persists one opaque session identifier per specialist,
// independently of the registry document (different update cadence). The
// identifier enables resume semantics across wake cycles; absence means the
// specialist was never initialized.
type ContinuityStore struct {
	dir string
}

// NewContinuityStore creates a continuity store rooted at dir. One file per
// specialist: <dir>/<type>.session.
func NewContinuityStore(dir string) *ContinuityStore {
	return &ContinuityStore{dir: dir}
}

func (c *ContinuityStore) path(t protocol.SpecialistType) string {
	return filepath.Join(c.dir, string(t)+".session")
}

// Get returns the stored session identifier, or false if none exists.
func (c *ContinuityStore) Get(t protocol.SpecialistType) (string, bool) {
	data, err := os.ReadFile(c.path(t))
	if err != nil {
		return "", false
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", false
	}
	return id, true
}

// Set stores a session identifier, trimming surrounding whitespace. The
// identifier's shape is opaque to this subsystem.
func (c *ContinuityStore) Set(t protocol.SpecialistType, id string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create sessions dir: %w", err)
	}
	id = strings.TrimSpace(id)
	if err := os.WriteFile(c.path(t), []byte(id+"\n"), 0o644); err != nil {
		return fmt.Errorf("write session id for %s: %w", t, err)
	}
	return nil
}

// Clear removes the stored session identifier. Returns true if a record
// existed.
func (c *ContinuityStore) Clear(t protocol.SpecialistType) bool {
	err := os.Remove(c.path(t))
	return err == nil
}
