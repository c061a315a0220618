// Package adb runs the external adb tool. Every invocation goes through a
// Gateway, which applies a timeout, targets the selected device and turns any
// failure into an empty, unsuccessful CommandResult.
package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultTimeout = 10 * time.Second
	MaxTimeout     = 600 * time.Second

	// Bounds how long Wait keeps draining pipes after the process is gone.
	waitDelay = 2 * time.Second
)

var (
	// ErrToolMissing means the adb binary could not be found or executed.
	ErrToolMissing = errors.New("adb binary not found")
	// ErrSpawn wraps every failure to start a long-lived process.
	ErrSpawn = errors.New("failed to start adb process")
)

// Failure classifies why a command did not succeed.
type Failure int

const (
	FailureNone Failure = iota
	FailureToolMissing
	FailureTimeout
	FailureNonZeroExit
	FailureSpawn
	FailureCancelled
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureToolMissing:
		return "tool-missing"
	case FailureTimeout:
		return "timeout"
	case FailureNonZeroExit:
		return "non-zero-exit"
	case FailureSpawn:
		return "spawn"
	case FailureCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("failure(%d)", int(f))
}

// CommandSpec describes one invocation. Args exclude the binary and the
// "-s <serial>" prefix, which is added when Device is set and a serial is
// bound.
type CommandSpec struct {
	Name    string
	Args    []string
	Timeout time.Duration // 0 means DefaultTimeout
	Device  bool
}

func (s CommandSpec) timeout() time.Duration {
	switch {
	case s.Timeout <= 0:
		return DefaultTimeout
	case s.Timeout > MaxTimeout:
		return MaxTimeout
	}
	return s.Timeout
}

// CommandResult is the outcome of Execute. When Success is false, Stdout,
// Stderr and Raw are empty and Failure says why.
type CommandResult struct {
	Success  bool
	Stdout   string
	Stderr   string
	Raw      []byte // stdout bytes as produced, for binary output
	ExitCode int
	Duration time.Duration
	Failure  Failure
}

// Text returns Stdout with surrounding whitespace removed.
func (r CommandResult) Text() string { return strings.TrimSpace(r.Stdout) }

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for per-call diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// WithSerial binds a device serial at construction.
func WithSerial(serial string) Option {
	return func(g *Gateway) { g.SetDevice(serial) }
}

// Gateway is the single entry point for adb invocations. It is safe for
// concurrent use. SetDevice and SetPath only affect calls started afterwards.
type Gateway struct {
	path   atomic.Pointer[string]
	serial atomic.Pointer[string]
	log    zerolog.Logger

	recMu sync.Mutex
	rec   *Process
}

// NewGateway returns a gateway for the adb binary at path. An empty path is
// auto-detected, falling back to "adb" on PATH.
func NewGateway(path string, opts ...Option) *Gateway {
	g := &Gateway{log: zerolog.Nop()}
	g.SetPath(path)
	g.SetDevice("")
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetPath changes the adb binary. Empty means auto-detect.
func (g *Gateway) SetPath(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = AutoDetect()
	}
	if path == "" {
		path = executableName()
	}
	g.path.Store(&path)
}

// Path returns the binary used for new invocations.
func (g *Gateway) Path() string { return *g.path.Load() }

// SetDevice binds the serial used for device-bound commands. Empty unbinds.
func (g *Gateway) SetDevice(serial string) {
	serial = strings.TrimSpace(serial)
	g.serial.Store(&serial)
}

// Serial returns the currently bound serial, or "".
func (g *Gateway) Serial() string { return *g.serial.Load() }

// Available reports whether the adb binary resolves.
func (g *Gateway) Available() bool {
	p := g.Path()
	if fileExists(p) {
		return true
	}
	_, err := exec.LookPath(p)
	return err == nil
}

func (g *Gateway) argv(spec CommandSpec) []string {
	args := make([]string, 0, len(spec.Args)+2)
	if spec.Device {
		if s := g.Serial(); s != "" {
			args = append(args, "-s", s)
		}
	}
	return append(args, spec.Args...)
}

func (g *Gateway) command(ctx context.Context, spec CommandSpec) *exec.Cmd {
	cmd := exec.CommandContext(ctx, g.Path(), g.argv(spec)...)
	cmd.Env = os.Environ()
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)
	return cmd
}

// Execute runs spec to completion and never returns an error: missing tool,
// timeout, non-zero exit, spawn errors and caller cancellation all yield
// Success=false with empty output. On timeout the whole process group is
// killed before Execute returns.
func (g *Gateway) Execute(ctx context.Context, spec CommandSpec) CommandResult {
	runCtx, cancel := context.WithTimeout(ctx, spec.timeout())
	defer cancel()

	cmd := g.command(runCtx, spec)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := CommandResult{Duration: time.Since(start), ExitCode: -1}

	var exitErr *exec.ExitError
	switch {
	case err == nil, errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success():
		res.Success = true
		res.ExitCode = 0
		res.Raw = stdout.Bytes()
		res.Stdout = strings.ToValidUTF8(stdout.String(), "�")
		res.Stderr = strings.ToValidUTF8(stderr.String(), "�")
	case ctx.Err() != nil:
		res.Failure = FailureCancelled
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Failure = FailureTimeout
	case isMissing(err):
		res.Failure = FailureToolMissing
	case errors.As(err, &exitErr):
		res.Failure = FailureNonZeroExit
		res.ExitCode = exitErr.ExitCode()
	default:
		res.Failure = FailureSpawn
	}

	ev := g.log.Debug()
	switch res.Failure {
	case FailureNonZeroExit:
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			ev = g.log.Warn().Str("stderr", msg)
		}
	case FailureToolMissing, FailureTimeout, FailureSpawn:
		ev = g.log.Warn().AnErr("error", err)
	}
	ev.Str("op", spec.Name).
		Strs("args", cmd.Args[1:]).
		Dur("duration", res.Duration).
		Bool("success", res.Success).
		Stringer("failure", res.Failure).
		Int("exit", res.ExitCode).
		Msg("adb call")
	return res
}

func isMissing(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}

// Process is a long-lived adb child such as logcat or a transfer. Its output
// is read through Output until EOF.
type Process struct {
	cmd    *exec.Cmd
	out    *os.File
	cancel context.CancelFunc
	done   chan struct{}
	err    error
	once   sync.Once
}

// Spawn starts spec without a timeout. The process runs until it exits, ctx
// ends or Stop is called. With mergeStderr both streams share one pipe.
func (g *Gateway) Spawn(ctx context.Context, spec CommandSpec, mergeStderr bool) (*Process, error) {
	runCtx, cancel := context.WithCancel(ctx)
	cmd := g.command(runCtx, spec)

	r, w, err := os.Pipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrSpawn, err)
	}
	cmd.Stdout = w
	if mergeStderr {
		cmd.Stderr = w
	}
	if err := cmd.Start(); err != nil {
		cancel()
		_ = r.Close()
		_ = w.Close()
		g.log.Warn().Str("op", spec.Name).Err(err).Msg("spawn failed")
		if isMissing(err) {
			return nil, fmt.Errorf("%w: %w: %v", ErrSpawn, ErrToolMissing, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	// the child holds its own copy
	_ = w.Close()

	p := &Process{cmd: cmd, out: r, cancel: cancel, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	g.log.Debug().Str("op", spec.Name).Strs("args", cmd.Args[1:]).Int("pid", cmd.Process.Pid).Msg("adb spawned")
	return p, nil
}

// Output is the child's stdout (and stderr when merged).
func (p *Process) Output() io.Reader { return p.out }

// Pid returns the child's process id.
func (p *Process) Pid() int { return p.cmd.Process.Pid }

// Done is closed once the child has exited.
func (p *Process) Done() <-chan struct{} { return p.done }

// Wait blocks until the child exits and returns its exit error.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// ExitCode is valid after Done is closed; -1 when killed or unknown.
func (p *Process) ExitCode() int {
	select {
	case <-p.done:
	default:
		return -1
	}
	if p.cmd.ProcessState == nil {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

// Stop kills the process group, waits for the child and closes the output
// pipe. It is safe to call more than once and after the child has exited.
func (p *Process) Stop() {
	p.once.Do(func() {
		p.cancel()
		<-p.done
		_ = p.out.Close()
	})
}
