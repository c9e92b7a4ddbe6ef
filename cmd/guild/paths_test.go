package main

import (
	"path/filepath"
	"testing"
)

func TestResolvePathsDefaultsUnderGuildHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("GUILD_HOME", home)

	paths, err := ResolvePaths()
	if err != nil {
		t.Fatalf("ResolvePaths: %v", err)
	}
	if paths.GuildHome != home {
		t.Errorf("GuildHome = %q, want %q", paths.GuildHome, home)
	}
	if want := filepath.Join(home, "registry.yaml"); paths.RegistryPath != want {
		t.Errorf("RegistryPath = %q, want %q", paths.RegistryPath, want)
	}
	if want := filepath.Join(home, "state.db"); paths.StateDBPath != want {
		t.Errorf("StateDBPath = %q, want %q", paths.StateDBPath, want)
	}
	if want := filepath.Join(home, "sessions"); paths.SessionsDir != want {
		t.Errorf("SessionsDir = %q, want %q", paths.SessionsDir, want)
	}
	if want := filepath.Join(home, "logs", "feedback.jsonl"); paths.FeedbackLogPath != want {
		t.Errorf("FeedbackLogPath = %q, want %q", paths.FeedbackLogPath, want)
	}
}

func TestResolvePathsEnvOverridesWinOverHome(t *testing.T) {
	t.Setenv("GUILD_HOME", t.TempDir())
	t.Setenv("GUILD_DB_PATH", "/elsewhere/queue.db")
	t.Setenv("GUILD_HANDOFF_LOG", "/elsewhere/h.jsonl")

	paths, err := ResolvePaths()
	if err != nil {
		t.Fatalf("ResolvePaths: %v", err)
	}
	if paths.StateDBPath != "/elsewhere/queue.db" {
		t.Errorf("StateDBPath = %q", paths.StateDBPath)
	}
	if paths.HandoffLogPath != "/elsewhere/h.jsonl" {
		t.Errorf("HandoffLogPath = %q", paths.HandoffLogPath)
	}
}

func TestResolvePathsFallsBackToUserHome(t *testing.T) {
	t.Setenv("GUILD_HOME", "")
	t.Setenv("HOME", t.TempDir())

	paths, err := ResolvePaths()
	if err != nil {
		t.Fatalf("ResolvePaths: %v", err)
	}
	if filepath.Base(paths.GuildHome) != ".guild" {
		t.Errorf("GuildHome = %q, want ~/.guild", paths.GuildHome)
	}
}
