package logcat

import (
	"sync"
	"testing"
	"time"

	"adboss/internal/parse"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]parse.LogLine
}

func (r *recorder) AppendBatch(lines []parse.LogLine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, lines)
}

func (r *recorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.batches {
		n += len(b)
	}
	return n
}

func TestFlusherBurstIsOneDelivery(t *testing.T) {
	q := &Queue{}
	for _, l := range lines(0, 10000) {
		q.Push(l)
	}
	rec := &recorder{}
	f := NewFlusher(q, 10*time.Millisecond, rec.AppendBatch)
	f.Start()
	time.Sleep(80 * time.Millisecond)
	f.Stop()

	if rec.calls() != 1 {
		t.Fatalf("deliveries = %d, want 1", rec.calls())
	}
	if rec.total() != 10000 {
		t.Errorf("delivered %d lines, want 10000", rec.total())
	}
	if rec.batches[0][9999].Message != "9999" {
		t.Error("batch out of order")
	}
}

func TestFlusherNoEmptyDeliveries(t *testing.T) {
	rec := &recorder{}
	f := NewFlusher(&Queue{}, 5*time.Millisecond, rec.AppendBatch)
	f.Start()
	time.Sleep(50 * time.Millisecond)
	f.Stop()
	if rec.calls() != 0 {
		t.Errorf("deliveries = %d, want 0", rec.calls())
	}
}

func TestFlusherStopDrains(t *testing.T) {
	q := &Queue{}
	rec := &recorder{}
	f := NewFlusher(q, time.Hour, rec.AppendBatch)
	f.Start()
	for _, l := range lines(0, 3) {
		q.Push(l)
	}
	f.Stop()
	f.Stop()
	if rec.total() != 3 || rec.calls() != 1 {
		t.Errorf("after Stop: %d lines in %d calls", rec.total(), rec.calls())
	}
}

func TestFlusherDefaultInterval(t *testing.T) {
	f := NewFlusher(&Queue{}, 0, func([]parse.LogLine) {})
	if f.Interval() != DefaultFlushInterval {
		t.Errorf("Interval = %v", f.Interval())
	}
	// stopping a flusher that never started must not block
	f.Stop()
}
