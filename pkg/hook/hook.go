// Package hook provides the per-specialist priority task queue ("the
// hook"). The dispatcher depends only on the narrow Queue contract;
// the SQLite implementation in this package is what production runs on.
package hook

import (
	"context"

	"guild/pkg/protocol"
)

// Queue is the push/check/pop contract the dispatcher consumes. Items are
// strictly ordered by priority band (urgent > high > normal > low) and
// FIFO within a band.
type Queue interface {
	// Push enqueues a task for its specialist.
	Push(ctx context.Context, item protocol.TaskItem) error

	// Check returns the number of tasks pending for a specialist.
	Check(ctx context.Context, t protocol.SpecialistType) (int, error)

	// Pop removes and returns the highest-priority task for a specialist,
	// or nil when the queue is empty.
	Pop(ctx context.Context, t protocol.SpecialistType) (*protocol.TaskItem, error)
}
