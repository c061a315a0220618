package adb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"adboss/internal/parse"
)

// ErrRecording is returned by StartScreenRecord while a recording runs.
var ErrRecording = errors.New("screen recording already running")

// ListDir lists a directory on the device. It tries `ls -la` first and falls
// back to a names-only listing on toolboxes without -l.
func (g *Gateway) ListDir(ctx context.Context, dir string) []parse.RemoteFile {
	if strings.TrimSpace(dir) == "" {
		dir = "/"
	}
	res := g.shell(ctx, "ls", 0, "ls", "-la", dir)
	if res.Success && !strings.Contains(res.Stdout, "Unknown option") {
		return parse.ParseLsLong(res.Stdout)
	}
	res = g.shell(ctx, "ls-names", 0, "ls", "-1p", dir)
	return parse.ParseLsLong(res.Stdout)
}

// Screenshot captures the screen as PNG into local.
func (g *Gateway) Screenshot(ctx context.Context, local string) error {
	res := g.Execute(ctx, CommandSpec{
		Name:   "screencap",
		Args:   []string{"exec-out", "screencap", "-p"},
		Device: true,
	})
	if !res.Success || len(res.Raw) == 0 {
		return fmt.Errorf("screenshot: %s", res.Failure)
	}
	if err := os.WriteFile(local, res.Raw, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

// StartScreenRecord begins `screenrecord` writing to remote on the device.
// Only one recording runs at a time.
func (g *Gateway) StartScreenRecord(ctx context.Context, remote string) error {
	if remote == "" {
		remote = "/sdcard/record.mp4"
	}
	g.recMu.Lock()
	defer g.recMu.Unlock()
	if g.rec != nil {
		select {
		case <-g.rec.Done():
			g.rec.Stop()
			g.rec = nil
		default:
			return ErrRecording
		}
	}
	p, err := g.Spawn(ctx, CommandSpec{
		Name:   "screenrecord",
		Args:   []string{"shell", "screenrecord", remote},
		Device: true,
	}, true)
	if err != nil {
		return err
	}
	go func() { _, _ = io.Copy(io.Discard, p.Output()) }()
	g.rec = p
	return nil
}

// StopScreenRecord interrupts the recorder on the device so the file is
// finalized, then stops the local process.
func (g *Gateway) StopScreenRecord(ctx context.Context) {
	g.recMu.Lock()
	p := g.rec
	g.rec = nil
	g.recMu.Unlock()

	g.shell(ctx, "screenrecord-stop", 5*time.Second, "pkill", "-2", "screenrecord")
	if p == nil {
		return
	}
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
	case <-ctx.Done():
	}
	p.Stop()
}

// Recording reports whether a screen recording started here is running.
func (g *Gateway) Recording() bool {
	g.recMu.Lock()
	defer g.recMu.Unlock()
	if g.rec == nil {
		return false
	}
	select {
	case <-g.rec.Done():
		return false
	default:
		return true
	}
}
