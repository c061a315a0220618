// Package transfer runs adb push and pull as background jobs with progress
// reporting.
package transfer

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"adboss/internal/adb"
	"adboss/internal/parse"
)

// DefaultUpdateInterval is the minimum spacing of progress-only updates.
const DefaultUpdateInterval = 100 * time.Millisecond

// keep at most this many output lines for the failure message
const maxMessageLines = 20

type Direction string

const (
	Push Direction = "push"
	Pull Direction = "pull"
)

type State int

const (
	StateRunning State = iota
	StateSucceeded
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether no further updates follow.
func (s State) Terminal() bool { return s != StateRunning }

// Update is a snapshot of a job.
type Update struct {
	ID        string
	Direction Direction
	Local     string
	Remote    string
	Percent   int
	Bytes     int64
	State     State
	Message   string
}

// Runner starts transfer jobs against one gateway. Jobs are independent;
// starting the same transfer twice runs it twice.
type Runner struct {
	gw       *adb.Gateway
	interval time.Duration
	log      zerolog.Logger
}

type Option func(*Runner)

func WithUpdateInterval(d time.Duration) Option {
	return func(r *Runner) { r.interval = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

func NewRunner(gw *adb.Gateway, opts ...Option) *Runner {
	r := &Runner{gw: gw, interval: DefaultUpdateInterval, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Job is one running or finished transfer.
type Job struct {
	onUpdate func(Update)
	limiter  *rate.Limiter
	log      zerolog.Logger
	done     chan struct{}

	mu        sync.Mutex
	snap      Update
	proc      *adb.Process
	cancelled bool
}

// Start spawns `adb push local remote` or `adb pull remote local` for the
// bound device. onUpdate, which may be nil, is called from the job goroutine
// with throttled progress and always with the terminal state. A spawn failure
// yields an already failed job.
func (r *Runner) Start(ctx context.Context, dir Direction, local, remote string, onUpdate func(Update)) *Job {
	j := &Job{
		onUpdate: onUpdate,
		limiter:  rate.NewLimiter(rate.Every(r.interval), 1),
		log:      r.log,
		done:     make(chan struct{}),
		snap: Update{
			ID:        uuid.New().String(),
			Direction: dir,
			Local:     local,
			Remote:    remote,
			State:     StateRunning,
		},
	}
	j.log = r.log.With().Str("job", j.snap.ID[:8]).Str("dir", string(dir)).Logger()

	args := []string{string(Push), local, remote}
	if dir == Pull {
		args = []string{string(Pull), remote, local}
	}
	proc, err := r.gw.Spawn(ctx, adb.CommandSpec{Name: string(dir), Args: args, Device: true}, true)
	if err != nil {
		j.finish(StateFailed, err.Error(), 0)
		return j
	}
	j.proc = proc
	j.log.Info().Str("local", local).Str("remote", remote).Msg("transfer started")
	j.emit(j.Snapshot(), true)
	go j.run(ctx)
	return j
}

func (j *Job) ID() string { return j.snap.ID }

// Done is closed once the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} { return j.done }

func (j *Job) Snapshot() Update {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snap
}

// Wait blocks until the job ends and returns its final snapshot.
func (j *Job) Wait() Update {
	<-j.done
	return j.Snapshot()
}

// Cancel kills a running transfer. It is a no-op once the job has ended.
func (j *Job) Cancel() {
	j.mu.Lock()
	if j.snap.State.Terminal() || j.cancelled {
		j.mu.Unlock()
		return
	}
	j.cancelled = true
	proc := j.proc
	j.mu.Unlock()
	if proc != nil {
		proc.Stop()
	}
}

func (j *Job) emit(u Update, force bool) {
	if j.onUpdate == nil {
		return
	}
	if !force && !j.limiter.Allow() {
		return
	}
	j.onUpdate(u)
}

func (j *Job) run(ctx context.Context) {
	var (
		tail []string
		sent int64
	)
	sc := bufio.NewScanner(j.proc.Output())
	sc.Split(scanProgressLines)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if p, ok := parse.ParseProgress(line); ok {
			j.mu.Lock()
			changed := p != j.snap.Percent
			j.snap.Percent = p
			u := j.snap
			j.mu.Unlock()
			if changed {
				j.emit(u, p == 100)
			}
			continue
		}
		if n, ok := parse.ParseTransferBytes(line); ok {
			sent = n
		}
		tail = append(tail, line)
		if len(tail) > maxMessageLines {
			tail = tail[1:]
		}
	}
	if err := sc.Err(); err != nil {
		// keep the pipe drained so adb can finish and report its own status
		j.log.Warn().Err(err).Msg("transfer output unreadable")
		_, _ = io.Copy(io.Discard, j.proc.Output())
	}
	waitErr := j.proc.Wait()
	j.proc.Stop()

	j.mu.Lock()
	cancelled := j.cancelled
	j.mu.Unlock()

	msg := strings.Join(tail, "\n")
	switch {
	case cancelled || ctx.Err() != nil:
		j.finish(StateCancelled, "cancelled", sent)
	case waitErr == nil:
		j.finish(StateSucceeded, msg, sent)
	default:
		if msg == "" {
			msg = waitErr.Error()
		}
		j.finish(StateFailed, msg, sent)
	}
}

func (j *Job) finish(state State, msg string, n int64) {
	j.mu.Lock()
	j.snap.State = state
	j.snap.Message = msg
	if n > 0 {
		j.snap.Bytes = n
	}
	if state == StateSucceeded {
		j.snap.Percent = 100
	}
	u := j.snap
	j.mu.Unlock()

	ev := j.log.Info()
	if state == StateFailed {
		ev = j.log.Warn()
	}
	ev.Str("state", state.String()).Int64("bytes", u.Bytes).Str("message", firstLine(msg)).Msg("transfer finished")
	j.emit(u, true)
	close(j.done)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// scanProgressLines splits on '\n' or '\r'; adb redraws its progress line
// with carriage returns.
func scanProgressLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
