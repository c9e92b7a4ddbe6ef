// Package dispatcher is the wake-or-queue decision core. For each
// submission it either claims the target specialist and wakes it, or
// queues the task when the specialist is busy. The claim is written before
// any slow operation and rolled back when the wake fails, so a failed
// dispatch never locks a specialist out.
package dispatcher

import (
	"context"
	"fmt"
	"os"
	"time"

	"guild/pkg/hook"
	"guild/pkg/protocol"
	"guild/pkg/registry"
	"guild/pkg/session"

	"github.com/google/uuid"
)

// Waker is the session capability the dispatcher composes. Satisfied by
// *session.Controller; tests substitute a fake.
type Waker interface {
	Wake(t protocol.SpecialistType, prompt string, opts session.WakeOptions) (*session.WakeResult, error)
}

// Result reports the outcome of one dispatch decision. Queued=true means
// backpressure, not failure: the specialist was busy and the task is in
// its queue.
type Result struct {
	// Queued is true when the task was deferred to the specialist's queue.
	Queued bool

	// TaskID identifies the task whether dispatched or queued.
	TaskID string

	// QueueDepth is the specialist's queue depth after a queued submission.
	QueueDepth int

	// Wake carries the session outcome for a direct dispatch.
	Wake *session.WakeResult
}

// Dispatcher composes the runtime-state store, the task queue, and the
// session controller.
type Dispatcher struct {
	States *registry.StateStore
	Queue  hook.Queue
	Waker  Waker

	idFunc  func() string
	nowFunc func() time.Time
}

// New creates a dispatcher over the given collaborators.
func New(states *registry.StateStore, queue hook.Queue, waker Waker) *Dispatcher {
	return &Dispatcher{
		States:  states,
		Queue:   queue,
		Waker:   waker,
		idFunc:  func() string { return uuid.New().String() },
		nowFunc: time.Now,
	}
}

// DispatchOrQueue hands a task to a specialist immediately when it is
// available, or queues it when the specialist is Active. The Active claim
// is written eagerly — before the wake — and rolled back to Idle when the
// wake fails, which is surfaced to the caller as an error. On success the
// specialist stays Active until an external completion signal calls
// MarkIdle.
func (d *Dispatcher) DispatchOrQueue(ctx context.Context, t protocol.SpecialistType, task string, pri protocol.Priority, source string) (*Result, error) {
	taskID := d.idFunc()

	claimed, err := d.States.Claim(t, taskID)
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", t, err)
	}

	if !claimed {
		// Busy: never wake a specialist already marked Active.
		item := protocol.TaskItem{
			ID:         taskID,
			Specialist: t,
			Priority:   pri,
			Source:     source,
			Payload:    task,
			CreatedAt:  d.nowFunc().UTC(),
		}
		if err := d.Queue.Push(ctx, item); err != nil {
			return nil, fmt.Errorf("queue task for busy %s: %w", t, err)
		}
		depth, err := d.Queue.Check(ctx, t)
		if err != nil {
			// The push already succeeded; depth is informational.
			fmt.Fprintf(os.Stderr, "warning: check queue depth for %s: %v\n", t, err)
		}
		return &Result{Queued: true, TaskID: taskID, QueueDepth: depth}, nil
	}

	wake, err := d.Waker.Wake(t, task, session.WakeOptions{
		WaitForReady:      true,
		StartIfNotRunning: true,
	})
	if err != nil {
		// Roll back the claim so the specialist stays dispatchable.
		if relErr := d.States.Release(t); relErr != nil {
			fmt.Fprintf(os.Stderr, "warning: rollback claim for %s: %v\n", t, relErr)
		}
		return nil, fmt.Errorf("wake %s: %w", t, err)
	}

	return &Result{TaskID: taskID, Wake: wake}, nil
}

// MarkIdle transitions a specialist back to Idle with its bound task
// cleared. The trigger lives outside this subsystem — whatever observes
// task completion calls this; the dispatcher never guesses at completion
// itself.
func (d *Dispatcher) MarkIdle(t protocol.SpecialistType) error {
	return d.States.Release(t)
}

// DrainOne pops the highest-priority queued task for a specialist and
// dispatches it through the same claim discipline. Returns nil when the
// queue is empty. Meant to be called by external drain logic after
// MarkIdle.
func (d *Dispatcher) DrainOne(ctx context.Context, t protocol.SpecialistType) (*Result, error) {
	item, err := d.Queue.Pop(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("pop queue for %s: %w", t, err)
	}
	if item == nil {
		return nil, nil
	}

	claimed, err := d.States.Claim(t, item.ID)
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", t, err)
	}
	if !claimed {
		// Someone dispatched directly between Pop and Claim; put the task
		// back rather than losing it.
		if pushErr := d.Queue.Push(ctx, *item); pushErr != nil {
			return nil, fmt.Errorf("requeue %s after lost claim: %w", item.ID, pushErr)
		}
		return &Result{Queued: true, TaskID: item.ID}, nil
	}

	wake, err := d.Waker.Wake(t, item.Payload, session.WakeOptions{
		WaitForReady:      true,
		StartIfNotRunning: true,
	})
	if err != nil {
		if relErr := d.States.Release(t); relErr != nil {
			fmt.Fprintf(os.Stderr, "warning: rollback claim for %s: %v\n", t, relErr)
		}
		if pushErr := d.Queue.Push(ctx, *item); pushErr != nil {
			fmt.Fprintf(os.Stderr, "warning: requeue %s after failed wake: %v\n", item.ID, pushErr)
		}
		return nil, fmt.Errorf("wake %s: %w", t, err)
	}
	return &Result{TaskID: item.ID, Wake: wake}, nil
}
