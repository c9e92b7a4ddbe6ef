package main

import (
	"fmt"

	"guild/pkg/dispatcher"
	"guild/pkg/feedback"
	"guild/pkg/handoff"
	"guild/pkg/hook"
	"guild/pkg/registry"
	"guild/pkg/session"
)

// app bundles the wired stores and the session controller. Every subcommand
// builds one at the top of RunE so dependency construction stays in one
// place and the core packages never reach for globals.
type app struct {
	paths  *Paths
	cfg    *Config
	reg    *registry.Store
	cont   *registry.ContinuityStore
	states *registry.StateStore
	ctl    *session.Controller
}

// newApp resolves paths, loads the config, and wires the stores.
func newApp() (*app, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	cfg, err := LoadConfig(paths.ConfigPath)
	if err != nil {
		return nil, err
	}

	reg := registry.NewStore(paths.RegistryPath)
	cont := registry.NewContinuityStore(paths.SessionsDir)
	ctl := session.NewController(paths.GuildHome, reg, cont)
	ctl.SettleDelay = cfg.SettleDelay()
	ctl.PromptByteLimit = cfg.PromptByteLimit
	ctl.PromptLineLimit = cfg.PromptLineLimit

	return &app{
		paths:  paths,
		cfg:    cfg,
		reg:    reg,
		cont:   cont,
		states: registry.NewStateStore(paths.StateDir),
		ctl:    ctl,
	}, nil
}

// openQueue opens the durable task queue. Callers own the Close.
func (a *app) openQueue() (*hook.SQLiteQueue, error) {
	q, err := hook.Open(a.paths.StateDBPath)
	if err != nil {
		return nil, fmt.Errorf("open task queue: %w", err)
	}
	return q, nil
}

// dispatcher wires the wake-or-queue core over an open queue.
func (a *app) dispatcher(q hook.Queue) *dispatcher.Dispatcher {
	return dispatcher.New(a.states, q, a.ctl)
}

// feedbackChannel wires the feedback log with live delivery through the
// session controller.
func (a *app) feedbackChannel() *feedback.Channel {
	return feedback.NewChannel(a.paths.FeedbackLogPath, a.ctl)
}

// handoffLogger wires the durable handoff log.
func (a *app) handoffLogger() *handoff.Logger {
	return handoff.NewLogger(a.paths.HandoffLogPath)
}
