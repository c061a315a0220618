package logcat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"adboss/internal/parse"
)

const (
	DefaultCapacity      = 5000
	DefaultCeilingFactor = 4
)

// Buffer is the bounded history shown by a viewer. While suspended (the
// viewer is scrolled away from the newest line) it grows past its capacity
// up to CeilingFactor times capacity, so lines do not vanish from under the
// reader. It is safe for concurrent use.
type Buffer struct {
	mu        sync.Mutex
	lines     []parse.LogLine
	capacity  int
	factor    int
	suspended bool
}

// NewBuffer returns an empty buffer. Values < 1 fall back to the defaults.
func NewBuffer(capacity, ceilingFactor int) *Buffer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if ceilingFactor < 1 {
		ceilingFactor = DefaultCeilingFactor
	}
	return &Buffer{capacity: capacity, factor: ceilingFactor}
}

// limit is the length the buffer is trimmed to. Callers hold mu.
func (b *Buffer) limit() int {
	if b.suspended {
		return b.capacity * b.factor
	}
	return b.capacity
}

// trim drops the oldest lines beyond limit. Callers hold mu.
func (b *Buffer) trim() {
	n := len(b.lines) - b.limit()
	if n <= 0 {
		return
	}
	// copy so the dropped prefix can be collected
	kept := make([]parse.LogLine, len(b.lines)-n, b.limit())
	copy(kept, b.lines[n:])
	b.lines = kept
}

// Append adds a batch in order and trims.
func (b *Buffer) Append(lines []parse.LogLine) {
	if len(lines) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, lines...)
	b.trim()
}

// SetSuspended stops (true) or resumes (false) trimming to capacity.
// Resuming trims immediately.
func (b *Buffer) SetSuspended(suspended bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suspended = suspended
	b.trim()
}

func (b *Buffer) Suspended() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.suspended
}

// SetCapacity changes the capacity and trims.
func (b *Buffer) SetCapacity(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.capacity = capacity
	b.trim()
}

func (b *Buffer) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

// Ceiling is the hard bound that applies while suspended.
func (b *Buffer) Ceiling() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity * b.factor
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// At returns line i, oldest first.
func (b *Buffer) At(i int) (parse.LogLine, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.lines) {
		return parse.LogLine{}, false
	}
	return b.lines[i], true
}

// Range copies lines [from, to), clamped to the current contents.
func (b *Buffer) Range(from, to int) []parse.LogLine {
	b.mu.Lock()
	defer b.mu.Unlock()
	from = max(from, 0)
	to = min(to, len(b.lines))
	if from >= to {
		return nil
	}
	out := make([]parse.LogLine, to-from)
	copy(out, b.lines[from:to])
	return out
}

func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
}

// ExportAll returns a copy of every line, regardless of suspension.
func (b *Buffer) ExportAll() []parse.LogLine {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]parse.LogLine, len(b.lines))
	copy(out, b.lines)
	return out
}

// WriteTo writes the raw text of every line, newline separated.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	return writeLines(w, b.ExportAll())
}

func writeLines(w io.Writer, lines []parse.LogLine) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for i, l := range lines {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return n, err
			}
			n++
		}
		m, err := bw.WriteString(l.Raw)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Export writes the buffer to path and returns the number of lines written.
func (b *Buffer) Export(path string) (int, error) {
	lines := b.ExportAll()
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("export logcat: %w", err)
	}
	if _, err := writeLines(f, lines); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("export logcat: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("export logcat: %w", err)
	}
	return len(lines), nil
}
