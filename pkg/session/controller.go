package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"guild/pkg/protocol"
	"guild/pkg/registry"

	"github.com/google/uuid"
)

// defaultSettleDelay is the fixed wait after starting claude before any
// input is delivered. Not signaled — claude exposes no ready handshake, so
// this is a timed wait.
const defaultSettleDelay = 5 * time.Second

// sendKeysDebounce is the delay between pasting text and pressing Enter.
// Claude's Ink TUI needs time to process pasted text before Enter.
const sendKeysDebounce = 2 * time.Second

// Prompt size thresholds. Prompts beyond either limit are routed through a
// task file instead of raw terminal input, since tmux paste truncates and
// mangles long multi-line text.
const (
	defaultPromptByteLimit = 500
	defaultPromptLineLimit = 3
)

// roleFile is the role-identity script name written into each specialist's
// working directory.
const roleFile = "ROLE.md"

// WakeOptions controls Wake behavior.
type WakeOptions struct {
	// WaitForReady inserts the settle delay after starting a session.
	WaitForReady bool

	// StartIfNotRunning allows Wake to start a dead session. When false,
	// waking a dead session fails with NotRunningError.
	StartIfNotRunning bool
}

// WakeResult reports what Wake did.
type WakeResult struct {
	// WasRunning is true when the session was already live before the call.
	WasRunning bool

	// SessionID is the continuity identifier recorded for this wake.
	SessionID string

	// TaskFile is the path the prompt was written to when it exceeded the
	// inline delivery thresholds; empty for direct delivery.
	TaskFile string
}

// Controller manages the tmux session behind each specialist.
type Controller struct {
	Runner     CmdRunner
	Registry   *registry.Store
	Continuity *registry.ContinuityStore

	// Home is the guild state directory; specialist workdirs live under
	// Home/specialists/<type>.
	Home string

	// Sleeper overrides time.Sleep for testing.
	Sleeper func(time.Duration)

	// SettleDelay overrides the post-start settle wait; 0 means default.
	SettleDelay time.Duration

	// PromptByteLimit / PromptLineLimit override the task-file routing
	// thresholds; 0 means defaults.
	PromptByteLimit int
	PromptLineLimit int

	nowFunc func() time.Time
	idFunc  func() string
}

// NewController creates a session controller with the default ExecRunner.
func NewController(home string, reg *registry.Store, cont *registry.ContinuityStore) *Controller {
	return &Controller{
		Runner:     &ExecRunner{},
		Registry:   reg,
		Continuity: cont,
		Home:       home,
	}
}

// Workdir returns the specialist's working directory.
func (c *Controller) Workdir(t protocol.SpecialistType) string {
	return filepath.Join(c.Home, "specialists", string(t))
}

// TasksDir returns the directory oversized task prompts are written to.
func (c *Controller) TasksDir(t protocol.SpecialistType) string {
	return filepath.Join(c.Workdir(t), "tasks")
}

// SessionExists reports whether any tmux session with the given name
// exists. Used for delivery to sessions outside the specialist pool, such
// as task owners.
func (c *Controller) SessionExists(name string) bool {
	_, err := c.Runner.Run("tmux", "has-session", "-t", name)
	return err == nil
}

// SendTo delivers text into an arbitrary live session using the same paced
// keystroke discipline as task delivery.
func (c *Controller) SendTo(name, text string) error {
	return c.sendKeys(name, text)
}

// IsLive reports whether the specialist's tmux session currently exists.
func (c *Controller) IsLive(t protocol.SpecialistType) bool {
	_, err := c.Runner.Run("tmux", "has-session", "-t", t.SessionName())
	return err == nil
}

// Initialize brings a specialist up for the first time: fails with
// AlreadyRunningError if the session is live and AlreadyInitializedError
// if a continuity record already exists (use Wake to resume). Otherwise it
// writes the role-identity script, starts claude in a fresh detached tmux
// session, and records the wake timestamp. No task is sent.
func (c *Controller) Initialize(t protocol.SpecialistType) error {
	if c.IsLive(t) {
		return &protocol.AlreadyRunningError{Specialist: t}
	}
	if id, ok := c.Continuity.Get(t); ok {
		return &protocol.AlreadyInitializedError{Specialist: t, SessionID: id}
	}

	workdir := c.Workdir(t)
	if err := os.MkdirAll(c.TasksDir(t), 0o755); err != nil {
		return fmt.Errorf("create workdir for %s: %w", t, err)
	}
	if err := os.WriteFile(filepath.Join(workdir, roleFile), []byte(roleIdentity(t)), 0o644); err != nil {
		return fmt.Errorf("write role script for %s: %w", t, err)
	}

	id := c.newSessionID()
	if err := c.start(t, id, false); err != nil {
		return err
	}
	return c.recordWake(t, id)
}

// Reset clears leaked state before a new task: interrupts any in-flight
// command, restores the working directory when the pane fell back to a
// shell, and clears the input buffer. Best-effort — errors are logged, not
// returned. Always run immediately before delivering a task.
func (c *Controller) Reset(t protocol.SpecialistType) {
	if !c.IsLive(t) {
		return
	}
	pane := t.SessionName()

	if _, err := c.Runner.Run("tmux", "send-keys", "-t", pane, "C-c"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: reset %s: interrupt: %v\n", t, err)
	}
	c.sleep(200 * time.Millisecond)

	// A shell in the pane means claude exited; put the shell back in the
	// specialist workdir so a restart lands in the right place.
	out, err := c.Runner.Run("tmux", "display-message", "-p", "-t", pane, "#{pane_current_command}")
	if err == nil && isShell(strings.TrimSpace(out)) {
		if _, err := c.Runner.Run("tmux", "send-keys", "-t", pane, "-l", "cd "+c.Workdir(t)); err == nil {
			_, _ = c.Runner.Run("tmux", "send-keys", "-t", pane, "Enter")
		} else {
			fmt.Fprintf(os.Stderr, "warning: reset %s: restore workdir: %v\n", t, err)
		}
	}

	if _, err := c.Runner.Run("tmux", "send-keys", "-t", pane, "C-u"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: reset %s: clear input: %v\n", t, err)
	}
}

// Wake ensures the specialist's session is live and delivers a task
// prompt. Dead sessions are started (resuming the stored continuity id
// when one exists) only when opts.StartIfNotRunning allows it. Short
// prompts are sent as terminal input; oversized ones are written to a task
// file and a pointer message is sent instead. The wake timestamp and
// session identifier are recorded afterward.
func (c *Controller) Wake(t protocol.SpecialistType, prompt string, opts WakeOptions) (*WakeResult, error) {
	res := &WakeResult{WasRunning: c.IsLive(t)}

	id, hasID := c.Continuity.Get(t)
	if !res.WasRunning {
		if !opts.StartIfNotRunning {
			return nil, &protocol.NotRunningError{Specialist: t}
		}
		if !hasID {
			id = c.newSessionID()
		}
		if err := c.start(t, id, hasID); err != nil {
			return nil, err
		}
		if opts.WaitForReady {
			c.sleep(c.settleDelay())
		}
	}
	res.SessionID = id

	c.Reset(t)

	message := prompt
	if c.oversized(prompt) {
		path, err := c.writeTaskFile(t, prompt)
		if err != nil {
			return nil, err
		}
		res.TaskFile = path
		message = "You have a new task. Read " + path + " and execute it."
	}
	if err := c.sendKeys(t.SessionName(), message); err != nil {
		return nil, err
	}

	if err := c.recordWake(t, id); err != nil {
		return nil, err
	}
	return res, nil
}

// start launches claude inside a fresh detached tmux session, resuming the
// given continuity id when resume is set. exec replaces the shell so
// claude is the pane's initial process.
func (c *Controller) start(t protocol.SpecialistType, id string, resume bool) error {
	workdir := c.Workdir(t)
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return fmt.Errorf("create workdir for %s: %w", t, err)
	}

	flag := "--session-id"
	if resume {
		flag = "--resume"
	}
	launch := fmt.Sprintf("exec env GUILD_ROLE=%s claude %s %s", t, flag, id)
	if _, err := c.Runner.Run("tmux", "new-session", "-d", "-s", t.SessionName(), "-c", workdir, launch); err != nil {
		return fmt.Errorf("tmux new-session for %s: %w", t, err)
	}
	return nil
}

// Kill destroys the specialist's tmux session.
func (c *Controller) Kill(t protocol.SpecialistType) error {
	if _, err := c.Runner.Run("tmux", "kill-session", "-t", t.SessionName()); err != nil {
		return fmt.Errorf("tmux kill-session for %s: %w", t, err)
	}
	return nil
}

// sendKeys delivers text to a pane and presses Enter. Literal mode handles
// special characters; the debounce gives the TUI time to process the paste;
// Escape exits any vim-mode INSERT state before Enter (harmless when vim
// mode is off). Enter is retried because it is the submission keystroke.
func (c *Controller) sendKeys(pane, text string) error {
	if _, err := c.Runner.Run("tmux", "send-keys", "-t", pane, "-l", text); err != nil {
		return fmt.Errorf("tmux send-keys -l to %s: %w", pane, err)
	}
	c.sleep(sendKeysDebounce)

	_, _ = c.Runner.Run("tmux", "send-keys", "-t", pane, "Escape")
	c.sleep(100 * time.Millisecond)

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			c.sleep(200 * time.Millisecond)
		}
		if _, err := c.Runner.Run("tmux", "send-keys", "-t", pane, "Enter"); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("failed to send Enter to %s after 3 attempts: %w", pane, lastErr)
}

// oversized reports whether a prompt must be routed through a task file.
func (c *Controller) oversized(prompt string) bool {
	byteLimit := c.PromptByteLimit
	if byteLimit == 0 {
		byteLimit = defaultPromptByteLimit
	}
	lineLimit := c.PromptLineLimit
	if lineLimit == 0 {
		lineLimit = defaultPromptLineLimit
	}
	return len(prompt) > byteLimit || strings.Count(prompt, "\n")+1 > lineLimit
}

// writeTaskFile stores an oversized prompt under the specialist's tasks
// directory, named with the type and a timestamp.
func (c *Controller) writeTaskFile(t protocol.SpecialistType, prompt string) (string, error) {
	dir := c.TasksDir(t)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create tasks dir for %s: %w", t, err)
	}
	name := fmt.Sprintf("%s-%s.md", t, c.now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(prompt), 0o644); err != nil {
		return "", fmt.Errorf("write task file for %s: %w", t, err)
	}
	return path, nil
}

// recordWake stamps the registry and continuity stores after a successful
// bring-up or wake.
func (c *Controller) recordWake(t protocol.SpecialistType, id string) error {
	if id != "" {
		if err := c.Continuity.Set(t, id); err != nil {
			return err
		}
	}
	now := c.now()
	u := registry.Update{LastWake: &now}
	if id != "" {
		u.SessionID = &id
	}
	if err := c.Registry.Update(t, u); err != nil {
		return fmt.Errorf("record wake for %s: %w", t, err)
	}
	return nil
}

func (c *Controller) settleDelay() time.Duration {
	if c.SettleDelay != 0 {
		return c.SettleDelay
	}
	return defaultSettleDelay
}

func (c *Controller) sleep(d time.Duration) {
	if c.Sleeper != nil {
		c.Sleeper(d)
		return
	}
	time.Sleep(d)
}

func (c *Controller) now() time.Time {
	if c.nowFunc != nil {
		return c.nowFunc()
	}
	return time.Now().UTC()
}

func (c *Controller) newSessionID() string {
	if c.idFunc != nil {
		return c.idFunc()
	}
	return uuid.New().String()
}

// isShell returns true if cmd matches a known shell process name.
func isShell(cmd string) bool {
	switch cmd {
	case "zsh", "bash", "sh", "fish":
		return true
	}
	return false
}
