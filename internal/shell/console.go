// Package shell runs interactive device shell commands and keeps their
// history.
package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"adboss/internal/adb"
)

const DefaultHistoryMax = 100

// ErrEmptyCommand is returned by Console.Run for blank input.
var ErrEmptyCommand = errors.New("empty command")

// History is a bounded command history with cursor recall. Consecutive
// duplicates are stored once.
type History struct {
	max     int
	entries []string
	cursor  int
}

// NewHistory returns an empty history holding at most limit commands.
// limit <= 0 uses DefaultHistoryMax.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryMax
	}
	return &History{max: limit}
}

// Add records cmd and moves the cursor past the newest entry.
func (h *History) Add(cmd string) {
	if n := len(h.entries); n == 0 || h.entries[n-1] != cmd {
		h.entries = append(h.entries, cmd)
		if len(h.entries) > h.max {
			h.entries = h.entries[len(h.entries)-h.max:]
		}
	}
	h.cursor = len(h.entries)
}

// Prev moves the cursor towards older entries. It stops at the oldest.
func (h *History) Prev() (string, bool) { return h.move(-1) }

// Next moves the cursor towards newer entries. It stops at the newest.
func (h *History) Next() (string, bool) { return h.move(1) }

func (h *History) move(step int) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	h.cursor = min(max(h.cursor+step, 0), len(h.entries)-1)
	return h.entries[h.cursor], true
}

func (h *History) Len() int { return len(h.entries) }

// Entries returns the history, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

// Entry is the outcome of one console command.
type Entry struct {
	Command string
	Output  string
	Success bool
	Time    time.Time
}

// Console runs shell commands on the gateway's bound device. Run may be
// called from any goroutine; history navigation is meant for the UI thread
// but is locked as well.
type Console struct {
	gw  *adb.Gateway
	log zerolog.Logger

	mu      sync.Mutex
	history *History
}

func NewConsole(gw *adb.Gateway, historyMax int, log zerolog.Logger) *Console {
	return &Console{gw: gw, log: log, history: NewHistory(historyMax)}
}

// reboot shortcuts accepted in place of a shell command
var rebootCommands = map[string]string{
	"__reboot__":            "",
	"__reboot_bootloader__": "bootloader",
	"__reboot_recovery__":   "recovery",
}

// Run records line in the history and executes it. A failed command is not
// an error; a short reason is returned as the entry output.
func (c *Console) Run(ctx context.Context, line string) (Entry, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Entry{}, ErrEmptyCommand
	}
	c.mu.Lock()
	c.history.Add(line)
	c.mu.Unlock()

	e := Entry{Command: line, Time: time.Now()}
	if mode, ok := rebootCommands[line]; ok {
		e.Command = strings.TrimSpace("reboot " + mode)
		res := c.gw.Reboot(ctx, mode)
		e.Success = res.Success
		e.Output = "Rebooting device..."
		if mode != "" {
			e.Output = "Rebooting to " + mode + "..."
		}
		return e, nil
	}

	res := c.gw.Shell(ctx, line)
	e.Success = res.Success
	switch {
	case res.Success:
		e.Output = strings.TrimRight(res.Stdout, "\n")
	case res.Failure == adb.FailureNonZeroExit:
		e.Output = fmt.Sprintf("exit status %d", res.ExitCode)
	default:
		e.Output = "error: " + res.Failure.String()
	}
	c.log.Debug().Str("cmd", line).Bool("ok", e.Success).Msg("shell command")
	return e, nil
}

func (c *Console) Prev() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Prev()
}

func (c *Console) Next() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Next()
}

func (c *Console) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Entries()
}
