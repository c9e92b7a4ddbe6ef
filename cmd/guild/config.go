package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the optional operator configuration at $GUILD_HOME/config.toml.
// Zero values mean "use the built-in default".
type Config struct {
	// SettleDelaySeconds overrides the wait after starting claude before
	// input is delivered.
	SettleDelaySeconds int `toml:"settle_delay_seconds"`

	// PromptByteLimit / PromptLineLimit override the thresholds beyond
	// which a task prompt is routed through a task file.
	PromptByteLimit int `toml:"prompt_byte_limit"`
	PromptLineLimit int `toml:"prompt_line_limit"`

	// TranscriptsDir overrides where the health scanner looks for session
	// transcripts (default: ~/.claude/projects).
	TranscriptsDir string `toml:"transcripts_dir"`
}

// LoadConfig reads the config file at path. A missing file yields an empty
// config; a malformed file is an error, since silently ignoring a config the
// operator wrote would be worse than failing.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// SettleDelay returns the configured settle delay, or 0 when unset.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelaySeconds) * time.Second
}

// ResolveTranscriptsDir returns the transcripts directory, falling back to
// ~/.claude/projects.
func (c *Config) ResolveTranscriptsDir() (string, error) {
	if c.TranscriptsDir != "" {
		return c.TranscriptsDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".claude", "projects"), nil
}
