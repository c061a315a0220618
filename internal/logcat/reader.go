package logcat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"adboss/internal/adb"
	"adboss/internal/parse"
)

// maxLineSize bounds a single logcat line. The rest of a longer line is
// discarded and the kept prefix is queued as an unparsed line.
const maxLineSize = 1 << 20

// ErrNotIdle is returned by Start on a reader that has already been started.
var ErrNotIdle = errors.New("logcat reader already started")

// State is the lifecycle of a Reader.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Reader runs one `adb logcat` process, parses each line, applies the
// current filter and pushes accepted lines onto a Queue. A Reader is started
// at most once.
type Reader struct {
	gw    *adb.Gateway
	queue *Queue
	args  []string
	log   zerolog.Logger

	filter atomic.Pointer[Filter]
	paused atomic.Bool
	read   atomic.Int64

	mu       sync.Mutex
	state    State
	proc     *adb.Process
	err      error
	done     chan struct{}
	loopDone chan struct{} // closed when the reading goroutine returns
}

// NewReader returns an idle reader. extraArgs are appended after
// "logcat -v threadtime" (for example "-b", "crash").
func NewReader(gw *adb.Gateway, queue *Queue, log zerolog.Logger, extraArgs ...string) *Reader {
	r := &Reader{
		gw:       gw,
		queue:    queue,
		args:     append([]string{"logcat", "-v", "threadtime"}, extraArgs...),
		log:      log,
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	r.filter.Store(&Filter{})
	return r
}

// SetFilter replaces the filter. Lines already queued are not re-checked.
func (r *Reader) SetFilter(f Filter) { r.filter.Store(&f) }

func (r *Reader) Filter() Filter { return *r.filter.Load() }

// SetPaused makes the reader discard lines while keeping the process alive.
func (r *Reader) SetPaused(paused bool) { r.paused.Store(paused) }

func (r *Reader) Paused() bool { return r.paused.Load() }

// LinesRead counts every line read from the process, accepted or not.
func (r *Reader) LinesRead() int64 { return r.read.Load() }

func (r *Reader) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err describes why the stream ended on its own (spawn failure or process
// exit). It is nil while running and after Stop.
func (r *Reader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Done is closed when the reader reaches Stopped.
func (r *Reader) Done() <-chan struct{} { return r.done }

// Start spawns logcat and the reading goroutine. A spawn failure leaves the
// reader Stopped with Err set and is also returned.
func (r *Reader) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateIdle {
		return ErrNotIdle
	}
	proc, err := r.gw.Spawn(ctx, adb.CommandSpec{Name: "logcat", Args: r.args, Device: true}, false)
	if err != nil {
		r.state = StateStopped
		r.err = err
		close(r.done)
		return err
	}
	r.proc = proc
	r.state = StateRunning
	go r.loop(proc)
	return nil
}

func (r *Reader) loop(proc *adb.Process) {
	defer close(r.loopDone)
	br := bufio.NewReaderSize(proc.Output(), 64*1024)
	var readErr error
	for {
		text, truncated, err := readLine(br, maxLineSize)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
		r.read.Add(1)
		if r.paused.Load() {
			continue
		}
		line := parse.LogcatLine(text)
		if truncated {
			r.log.Debug().Int("kept", len(text)).Msg("logcat line truncated")
			line = parse.LogLine{Level: parse.LevelUnknown, Message: text, Raw: text}
		}
		if r.filter.Load().Match(line) {
			r.queue.Push(line)
		}
	}
	if readErr != nil {
		// logcat may still be blocked writing to the pipe
		proc.Stop()
	}
	waitErr := proc.Wait()

	r.mu.Lock()
	if r.state == StateRunning {
		switch {
		case readErr != nil && !errors.Is(readErr, os.ErrClosed):
			r.err = fmt.Errorf("logcat read: %w", readErr)
		case waitErr != nil:
			r.err = fmt.Errorf("logcat exited: %w", waitErr)
		default:
			r.err = errors.New("logcat exited")
		}
		r.state = StateStopped
		r.log.Warn().Err(r.err).Int64("lines", r.read.Load()).Msg("logcat stream ended")
		proc.Stop()
		close(r.done)
	}
	r.mu.Unlock()
}

// readLine returns the next line without its terminator, keeping at most limit
// bytes of it. The bool reports whether anything was dropped. A final line
// without a newline is returned before io.EOF.
func readLine(br *bufio.Reader, limit int) (string, bool, error) {
	var (
		buf       []byte
		truncated bool
	)
	for {
		frag, more, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(buf) > 0 || truncated) {
				return string(buf), truncated, nil
			}
			return "", false, err
		}
		if room := limit - len(buf); len(frag) > room {
			frag = frag[:room]
			truncated = true
		}
		buf = append(buf, frag...)
		if !more {
			return string(buf), truncated, nil
		}
	}
}

// Stop kills logcat and waits for the reading goroutine. It is a no-op
// unless the reader is running.
func (r *Reader) Stop() {
	r.mu.Lock()
	if r.state != StateRunning {
		r.mu.Unlock()
		return
	}
	r.state = StateStopping
	proc := r.proc
	r.mu.Unlock()

	proc.Stop()
	<-r.loopDone

	r.mu.Lock()
	r.state = StateStopped
	r.mu.Unlock()
	r.log.Debug().Int64("lines", r.read.Load()).Msg("logcat stopped")
	close(r.done)
}
