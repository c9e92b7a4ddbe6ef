package hook

// SchemaDDL defines the SQLite schema for the task queue.
// Execute against a SQLite database with: db.Exec(SchemaDDL)
//
// seq is the monotonic FIFO tiebreaker within a priority band; id is the
// caller-visible task identifier. Popped rows are deleted, not flagged.
const SchemaDDL = `
CREATE TABLE IF NOT EXISTS tasks (
    seq INTEGER PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    specialist TEXT NOT NULL,
    priority TEXT NOT NULL,
    source TEXT,
    payload TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS tasks_by_specialist ON tasks(specialist);
`

// popOrder ranks priority bands in SQL so Pop needs no second query.
// Unknown bands rank last, matching protocol.Priority.Rank.
const popOrder = `
CASE priority
    WHEN 'urgent' THEN 0
    WHEN 'high'   THEN 1
    WHEN 'normal' THEN 2
    WHEN 'low'    THEN 3
    ELSE 4
END, seq`
