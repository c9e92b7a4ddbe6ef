package main

import (
	"fmt"
	"os"
	"path/filepath"

	"guild/pkg/protocol"
)

// Paths holds all resolved guild state file paths.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	GuildHome       string // ~/.guild or GUILD_HOME
	ConfigPath      string // config.toml or GUILD_CONFIG_PATH
	RegistryPath    string // registry.yaml or GUILD_REGISTRY_PATH
	StateDBPath     string // state.db or GUILD_DB_PATH
	SessionsDir     string // sessions/ (respects GUILD_HOME)
	StateDir        string // state/ (respects GUILD_HOME)
	FeedbackLogPath string // logs/feedback.jsonl or GUILD_FEEDBACK_LOG
	HandoffLogPath  string // logs/handoffs.jsonl or GUILD_HANDOFF_LOG
}

// ResolvePaths returns all guild paths, respecting env var overrides.
// Environment variables:
//   - GUILD_HOME: base directory for all guild state (default: ~/.guild)
//   - GUILD_CONFIG_PATH: config file (default: $GUILD_HOME/config.toml)
//   - GUILD_REGISTRY_PATH: specialist registry (default: $GUILD_HOME/registry.yaml)
//   - GUILD_DB_PATH: task queue database (default: $GUILD_HOME/state.db)
//   - GUILD_FEEDBACK_LOG: feedback log (default: $GUILD_HOME/logs/feedback.jsonl)
//   - GUILD_HANDOFF_LOG: handoff log (default: $GUILD_HOME/logs/handoffs.jsonl)
//
// If GUILD_HOME is set, it becomes the base for all default paths.
// Specific env vars (GUILD_DB_PATH, etc.) override both the default and GUILD_HOME base.
func ResolvePaths() (*Paths, error) {
	guildHome, err := resolveGuildHome()
	if err != nil {
		return nil, err
	}

	paths := &Paths{
		GuildHome:       guildHome,
		ConfigPath:      resolvePathWithEnv("GUILD_CONFIG_PATH", guildHome, "config.toml"),
		RegistryPath:    resolvePathWithEnv("GUILD_REGISTRY_PATH", guildHome, protocol.RegistryFile),
		StateDBPath:     resolvePathWithEnv("GUILD_DB_PATH", guildHome, protocol.StateDBFile),
		SessionsDir:     filepath.Join(guildHome, "sessions"),
		StateDir:        filepath.Join(guildHome, "state"),
		FeedbackLogPath: resolvePathWithEnv("GUILD_FEEDBACK_LOG", guildHome, filepath.Join("logs", protocol.FeedbackLogFile)),
		HandoffLogPath:  resolvePathWithEnv("GUILD_HANDOFF_LOG", guildHome, filepath.Join("logs", protocol.HandoffLogFile)),
	}

	return paths, nil
}

// resolveGuildHome returns the guild home directory from GUILD_HOME env var or ~/.guild.
func resolveGuildHome() (string, error) {
	if v := os.Getenv("GUILD_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, protocol.GuildDir), nil
}

// resolvePathWithEnv returns the path from envKey if set, otherwise joins base + suffix.
func resolvePathWithEnv(envKey, base, suffix string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return filepath.Join(base, suffix)
}
