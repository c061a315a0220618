package logcat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"adboss/internal/adb"
	"adboss/internal/parse"
)

// ErrRunning is returned by Session.Start while a stream is active.
var ErrRunning = errors.New("logcat session already running")

// Sink receives flushed batches, oldest line first. AppendBatch is called from
// the flusher goroutine; implementations marshal to their UI thread.
type Sink interface {
	AppendBatch(lines []parse.LogLine)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func([]parse.LogLine)

func (f SinkFunc) AppendBatch(lines []parse.LogLine) { f(lines) }

// Session ties a Reader, its Queue, a Flusher and a Buffer to one viewer.
// The filter, pause state and buffer survive restarts.
type Session struct {
	gw       *adb.Gateway
	buf      *Buffer
	sink     Sink
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	queue   *Queue
	reader  *Reader
	flusher *Flusher
	filter  Filter
	paused  bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

func WithFlushInterval(d time.Duration) SessionOption {
	return func(s *Session) { s.interval = d }
}

func WithLogger(l zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// NewSession returns an idle session. sink may be nil.
func NewSession(gw *adb.Gateway, buf *Buffer, sink Sink, opts ...SessionOption) *Session {
	s := &Session{
		gw:       gw,
		buf:      buf,
		sink:     sink,
		interval: DefaultFlushInterval,
		log:      zerolog.Nop(),
		queue:    &Queue{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Buffer() *Buffer { return s.buf }

func (s *Session) deliver(batch []parse.LogLine) {
	s.buf.Append(batch)
	if s.sink != nil {
		s.sink.AppendBatch(batch)
	}
}

// Start spawns logcat for the gateway's current device. extraArgs are passed
// to logcat after "-v threadtime".
func (s *Session) Start(ctx context.Context, extraArgs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader != nil && s.reader.State() == StateRunning {
		return ErrRunning
	}
	s.stopLocked()

	r := NewReader(s.gw, s.queue, s.log, extraArgs...)
	r.SetFilter(s.filter)
	r.SetPaused(s.paused)
	if err := r.Start(ctx); err != nil {
		return err
	}
	f := NewFlusher(s.queue, s.interval, s.deliver)
	f.Start()
	s.reader, s.flusher = r, f
	s.log.Info().Str("serial", s.gw.Serial()).Msg("logcat started")
	return nil
}

// Stop ends the stream and flushes whatever was read before it. Stopping an
// idle session does nothing.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	if s.reader != nil {
		s.reader.Stop()
	}
	if s.flusher != nil {
		s.flusher.Stop()
	}
	s.reader, s.flusher = nil, nil
}

// Running reports whether a stream is active.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader != nil && s.reader.State() == StateRunning
}

// Done is closed when the current stream ends, or is nil when idle.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader == nil {
		return nil
	}
	return s.reader.Done()
}

// Err reports why the current stream ended on its own, if it did.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader == nil {
		return nil
	}
	return s.reader.Err()
}

// SetFilter applies f to lines read from now on.
func (s *Session) SetFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	if s.reader != nil {
		s.reader.SetFilter(f)
	}
}

func (s *Session) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetPaused discards incoming lines while paused.
func (s *Session) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
	if s.reader != nil {
		s.reader.SetPaused(paused)
	}
}

func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// SetLiveEdge is the viewer's scroll signal: false while the user looks at
// older lines, which suspends trimming.
func (s *Session) SetLiveEdge(atLiveEdge bool) {
	s.buf.SetSuspended(!atLiveEdge)
}

// Clear drops queued and buffered lines.
func (s *Session) Clear() {
	s.queue.Drain()
	s.buf.Clear()
}

// Export writes the buffer to path.
func (s *Session) Export(path string) (int, error) {
	n, err := s.buf.Export(path)
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("path", path).Int("lines", n).Msg("logcat exported")
	return n, nil
}
