// Package registry owns the durable per-specialist stores: the metadata
// registry document, the session continuity records, and the runtime-state
// store the dispatcher claims specialists through.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"guild/pkg/protocol"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk registry shape. The file is meant to be safe to
// hand-edit; malformed content falls back to defaults rather than erroring.
type Document struct {
	Version     int        `yaml:"version"`
	Specialists []Metadata `yaml:"specialists"`
	LastUpdated time.Time  `yaml:"last_updated"`
}

// DocumentVersion is the current registry document version.
const DocumentVersion = 1

// Metadata is the durable record for one specialist. Name is immutable
// after creation; everything else is mutated through Store.Update.
type Metadata struct {
	Name              protocol.SpecialistType `yaml:"name"`
	DisplayName       string                  `yaml:"display_name"`
	Description       string                  `yaml:"description"`
	Enabled           bool                    `yaml:"enabled"`
	AutoWake          bool                    `yaml:"auto_wake"`
	SessionID         string                  `yaml:"session_id,omitempty"`
	LastWake          time.Time               `yaml:"last_wake,omitempty"`
	CachedContextSize int                     `yaml:"cached_context_size,omitempty"`
}

// Update is a partial metadata update. Nil fields are left unchanged.
// There is deliberately no Name field: the specialist name cannot change.
type Update struct {
	DisplayName       *string
	Description       *string
	Enabled           *bool
	AutoWake          *bool
	SessionID         *string
	LastWake          *time.Time
	CachedContextSize *int
}

// DefaultDocument returns the built-in registry seeded with all specialist
// types. Used on first access and whenever the on-disk document cannot be
// parsed.
func DefaultDocument() *Document {
	return &Document{
		Version: DocumentVersion,
		Specialists: []Metadata{
			{
				Name:        protocol.SpecialistMerge,
				DisplayName: "Merge Specialist",
				Description: "Resolves merge conflicts and lands branches",
				Enabled:     true,
				AutoWake:    false,
			},
			{
				Name:        protocol.SpecialistReview,
				DisplayName: "Review Specialist",
				Description: "Reviews diffs against acceptance criteria",
				Enabled:     true,
				AutoWake:    true,
			},
			{
				Name:        protocol.SpecialistTest,
				DisplayName: "Test Specialist",
				Description: "Writes and repairs tests",
				Enabled:     true,
				AutoWake:    true,
			},
		},
	}
}

// Store reads and writes the registry document at a fixed path.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a registry store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the registry document path.
func (s *Store) Path() string { return s.path }

// Load reads the registry document. A missing or malformed file yields the
// built-in defaults — registry reads favor availability over strictness and
// never fail the caller.
func (s *Store) Load() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() *Document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return DefaultDocument()
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "warning: registry %s is malformed, using defaults: %v\n", s.path, err)
		return DefaultDocument()
	}
	if len(doc.Specialists) == 0 {
		return DefaultDocument()
	}
	return &doc
}

// Save writes the registry document. Write failures are propagated —
// callers must know persistence did not happen.
func (s *Store) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(doc)
}

func (s *Store) saveLocked(doc *Document) error {
	doc.Version = DocumentVersion
	doc.LastUpdated = time.Now().UTC()

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename registry: %w", err)
	}
	return nil
}

// Metadata returns the record for one specialist, or false if the type is
// not in the registry.
func (s *Store) Metadata(t protocol.SpecialistType) (Metadata, bool) {
	doc := s.Load()
	for _, m := range doc.Specialists {
		if m.Name == t {
			return m, true
		}
	}
	return Metadata{}, false
}

// Update applies a partial update to one specialist's record and saves the
// document. Returns a NotFoundError for unknown types. The specialist name
// is never touched.
func (s *Store) Update(t protocol.SpecialistType, u Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadLocked()
	idx := -1
	for i, m := range doc.Specialists {
		if m.Name == t {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &protocol.NotFoundError{Specialist: t}
	}

	m := &doc.Specialists[idx]
	if u.DisplayName != nil {
		m.DisplayName = *u.DisplayName
	}
	if u.Description != nil {
		m.Description = *u.Description
	}
	if u.Enabled != nil {
		m.Enabled = *u.Enabled
	}
	if u.AutoWake != nil {
		m.AutoWake = *u.AutoWake
	}
	if u.SessionID != nil {
		m.SessionID = *u.SessionID
	}
	if u.LastWake != nil {
		m.LastWake = *u.LastWake
	}
	if u.CachedContextSize != nil {
		m.CachedContextSize = *u.CachedContextSize
	}

	return s.saveLocked(doc)
}

// ListEnabled returns the records for all enabled specialists.
func (s *Store) ListEnabled() []Metadata {
	doc := s.Load()
	var out []Metadata
	for _, m := range doc.Specialists {
		if m.Enabled {
			out = append(out, m)
		}
	}
	return out
}
