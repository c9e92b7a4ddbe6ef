package hook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"guild/pkg/protocol"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteQueue is the durable Queue implementation backed by the guild
// state database.
type SQLiteQueue struct {
	db *sql.DB
}

// Open opens (or creates) the task queue database at path with
// production-safe defaults: WAL journal mode and a 5-second busy timeout.
// The schema is applied before returning.
func Open(path string) (*SQLiteQueue, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, SchemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply queue schema: %w", err)
	}

	return &SQLiteQueue{db: db}, nil
}

// Close releases the database connection. Safe to call multiple times.
func (q *SQLiteQueue) Close() error {
	if q.db != nil {
		return q.db.Close()
	}
	return nil
}

// Push enqueues a task. A missing ID gets a generated UUID; a missing
// timestamp gets the current time.
func (q *SQLiteQueue) Push(ctx context.Context, item protocol.TaskItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO tasks (id, specialist, priority, source, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, string(item.Specialist), string(item.Priority),
		item.Source, item.Payload, item.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("push task %s: %w", item.ID, err)
	}
	return nil
}

// Check returns the number of tasks pending for a specialist.
func (q *SQLiteQueue) Check(ctx context.Context, t protocol.SpecialistType) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks WHERE specialist = ?", string(t)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("check queue for %s: %w", t, err)
	}
	return n, nil
}

// Pop removes and returns the highest-priority task for a specialist, or
// nil when the queue is empty. Select and delete run in one transaction so
// concurrent poppers never return the same row.
func (q *SQLiteQueue) Pop(ctx context.Context, t protocol.SpecialistType) (*protocol.TaskItem, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin pop tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		seq       int64
		item      protocol.TaskItem
		createdAt string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT seq, id, specialist, priority, source, payload, created_at
		 FROM tasks WHERE specialist = ? ORDER BY `+popOrder+` LIMIT 1`,
		string(t),
	).Scan(&seq, &item.ID, &item.Specialist, &item.Priority, &item.Source, &item.Payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop task for %s: %w", t, err)
	}

	if ts, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
		item.CreatedAt = ts
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE seq = ?", seq); err != nil {
		return nil, fmt.Errorf("delete popped task %s: %w", item.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit pop: %w", err)
	}
	return &item, nil
}

// Peek returns up to limit pending tasks for a specialist in pop order
// without removing them. Used by the queue status view.
func (q *SQLiteQueue) Peek(ctx context.Context, t protocol.SpecialistType, limit int) ([]protocol.TaskItem, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, specialist, priority, source, payload, created_at
		 FROM tasks WHERE specialist = ? ORDER BY `+popOrder+` LIMIT ?`,
		string(t), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("peek queue for %s: %w", t, err)
	}
	defer rows.Close()

	var items []protocol.TaskItem
	for rows.Next() {
		var (
			item      protocol.TaskItem
			createdAt string
		)
		if err := rows.Scan(&item.ID, &item.Specialist, &item.Priority, &item.Source, &item.Payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan queued task: %w", err)
		}
		if ts, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
			item.CreatedAt = ts
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue for %s: %w", t, err)
	}
	return items, nil
}
