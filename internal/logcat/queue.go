package logcat

import (
	"sync"

	"adboss/internal/parse"
)

// Queue holds lines accepted by the Reader until the Flusher drains them.
type Queue struct {
	mu    sync.Mutex
	lines []parse.LogLine
}

func (q *Queue) Push(l parse.LogLine) {
	q.mu.Lock()
	q.lines = append(q.lines, l)
	q.mu.Unlock()
}

// Drain removes and returns everything queued, in arrival order. It returns
// nil when the queue is empty.
func (q *Queue) Drain() []parse.LogLine {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.lines) == 0 {
		return nil
	}
	out := q.lines
	q.lines = nil
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lines)
}
