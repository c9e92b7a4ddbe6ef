package protocol

// Directory and path constants used throughout guild.
const (
	// GuildDir is the user-level state directory (e.g., ~/.guild).
	GuildDir = ".guild"

	// SessionPrefix prefixes every specialist tmux session name.
	SessionPrefix = "guild-"

	// RegistryFile is the hand-editable specialist registry document.
	RegistryFile = "registry.yaml"

	// StateDBFile is the SQLite database backing the task queue.
	StateDBFile = "state.db"

	// FeedbackLogFile is the append-only feedback log.
	FeedbackLogFile = "feedback.jsonl"

	// HandoffLogFile is the append-only handoff log.
	HandoffLogFile = "handoffs.jsonl"
)
