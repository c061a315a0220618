package logcat

import (
	"sync"
	"time"

	"adboss/internal/parse"
)

// DefaultFlushInterval is how often pending lines are handed to the viewer.
const DefaultFlushInterval = 50 * time.Millisecond

// Flusher drains a Queue on a fixed tick and hands each non-empty batch to
// deliver. The whole queue is drained every tick, so a slow consumer sees
// bigger batches rather than a growing backlog.
type Flusher struct {
	queue    *Queue
	interval time.Duration
	deliver  func([]parse.LogLine)

	mu      sync.Mutex // serializes deliveries
	stop    chan struct{}
	done    chan struct{}
	started bool
	once    sync.Once
}

// NewFlusher returns a stopped flusher. interval <= 0 uses
// DefaultFlushInterval.
func NewFlusher(queue *Queue, interval time.Duration, deliver func([]parse.LogLine)) *Flusher {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &Flusher{
		queue:    queue,
		interval: interval,
		deliver:  deliver,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (f *Flusher) Interval() time.Duration { return f.interval }

// Start begins ticking. It must be called at most once.
func (f *Flusher) Start() {
	f.started = true
	go func() {
		defer close(f.done)
		t := time.NewTicker(f.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				f.Flush()
			case <-f.stop:
				return
			}
		}
	}()
}

// Flush drains the queue now and returns how many lines were delivered.
func (f *Flusher) Flush() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := f.queue.Drain()
	if len(batch) == 0 {
		return 0
	}
	f.deliver(batch)
	return len(batch)
}

// Stop ends the ticker and performs one final flush so nothing queued before
// the call is lost. It is idempotent.
func (f *Flusher) Stop() {
	f.once.Do(func() {
		close(f.stop)
		if f.started {
			<-f.done
		}
		f.Flush()
	})
}
