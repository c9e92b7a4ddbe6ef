// Package health scans session transcripts for stuck or corrupted
// sessions: warmup sidechain loops, runaway message counts, commands
// retried in a tight loop, and oversized transcript files.
package health

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Detection thresholds.
const (
	warmupErrorLimit = 10   // warmup tool errors before the session counts as looping
	messageLimit     = 500  // messages before the transcript counts as runaway
	repeatLimit      = 50   // identical commands before it counts as a retry loop
	sizeLimitKB      = 2000 // transcript size before it counts as oversized
)

// CommandCount pairs a tool command with how often it ran.
type CommandCount struct {
	Command string
	Count   int
}

// Report summarizes one transcript's health.
type Report struct {
	Path         string
	Name         string
	SizeKB       float64
	MessageCount int
	WarmupErrors int
	Sidechain    bool
	TopCommands  []CommandCount
	Issues       []string
}

// Critical reports whether the transcript is broken badly enough that
// removal is the sane fix (currently: a warmup loop).
func (r *Report) Critical() bool {
	for _, issue := range r.Issues {
		if strings.HasPrefix(issue, "CRITICAL") {
			return true
		}
	}
	return false
}

// transcriptLine is the subset of a transcript record health inspects.
type transcriptLine struct {
	Type        string `json:"type"`
	IsSidechain bool   `json:"isSidechain"`
	Message     struct {
		Content []contentItem `json:"content"`
	} `json:"message"`
}

type contentItem struct {
	Type    string          `json:"type"`
	Name    string          `json:"name"`
	Content json.RawMessage `json:"content"`
	IsError bool            `json:"is_error"`
	Input   struct {
		Command string `json:"command"`
	} `json:"input"`
}

// Analyze inspects a single transcript file.
func Analyze(path string) (*Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat transcript: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	r := &Report{
		Path:   path,
		Name:   filepath.Base(path),
		SizeKB: float64(info.Size()) / 1024,
	}
	commands := make(map[string]int)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		r.MessageCount++

		var line transcriptLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			continue
		}
		if line.IsSidechain {
			r.Sidechain = true
		}

		switch line.Type {
		case "user":
			for _, item := range line.Message.Content {
				var text string
				if item.IsError && json.Unmarshal(item.Content, &text) == nil && text == "Warmup" {
					r.WarmupErrors++
				}
			}
		case "assistant":
			for _, item := range line.Message.Content {
				if item.Type != "tool_use" {
					continue
				}
				cmd := item.Input.Command
				if cmd == "" {
					cmd = item.Name
				}
				if cmd != "" {
					commands[cmd]++
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		r.Issues = append(r.Issues, fmt.Sprintf("Error reading file: %v", err))
		return r, nil
	}

	r.TopCommands = topCommands(commands, 5)
	r.Issues = append(r.Issues, detect(r)...)
	return r, nil
}

// detect applies the thresholds to a populated report.
func detect(r *Report) []string {
	var issues []string
	if r.WarmupErrors > warmupErrorLimit {
		issues = append(issues, fmt.Sprintf("CRITICAL: warmup loop detected (%d warmup errors)", r.WarmupErrors))
	}
	if r.MessageCount > messageLimit {
		issues = append(issues, fmt.Sprintf("WARNING: excessive messages (%d)", r.MessageCount))
	}
	for _, cc := range r.TopCommands {
		if cc.Count > repeatLimit {
			cmd := cc.Command
			if len(cmd) > 50 {
				cmd = cmd[:50] + "..."
			}
			issues = append(issues, fmt.Sprintf("WARNING: command repeated %dx: %s", cc.Count, cmd))
		}
	}
	if r.SizeKB > sizeLimitKB {
		issues = append(issues, fmt.Sprintf("WARNING: large session file (%.0fKB)", r.SizeKB))
	}
	return issues
}

func topCommands(commands map[string]int, n int) []CommandCount {
	out := make([]CommandCount, 0, len(commands))
	for cmd, count := range commands {
		out = append(out, CommandCount{Command: cmd, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Command < out[j].Command
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Scan analyzes every .jsonl transcript under root. Unreadable files are
// reported as issues, not errors — one broken transcript must not abort
// the sweep.
func Scan(root string) ([]*Report, error) {
	var reports []*Report
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".jsonl") {
			return nil
		}
		r, aerr := Analyze(path)
		if aerr != nil {
			r = &Report{
				Path:   path,
				Name:   filepath.Base(path),
				Issues: []string{fmt.Sprintf("Error reading file: %v", aerr)},
			}
		}
		reports = append(reports, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return reports, nil
}

// Problematic filters a scan down to transcripts with issues.
func Problematic(reports []*Report) []*Report {
	var out []*Report
	for _, r := range reports {
		if len(r.Issues) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// RemoveCritical deletes critically broken transcripts and returns the
// paths removed. Removal failures are reported per file.
func RemoveCritical(reports []*Report) (removed []string, errs []error) {
	for _, r := range reports {
		if !r.Critical() {
			continue
		}
		if err := os.Remove(r.Path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", r.Name, err))
			continue
		}
		removed = append(removed, r.Path)
	}
	return removed, errs
}
