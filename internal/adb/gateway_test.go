//go:build !windows

package adb

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"adboss/internal/adbtest"
)

func TestCommandSpecTimeout(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"zero uses default", 0, DefaultTimeout},
		{"negative uses default", -time.Second, DefaultTimeout},
		{"explicit", 30 * time.Second, 30 * time.Second},
		{"backup maximum", 600 * time.Second, 600 * time.Second},
		{"clamped", time.Hour, MaxTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (CommandSpec{Timeout: tt.in}).timeout(); got != tt.want {
				t.Errorf("timeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExecuteSuccess(t *testing.T) {
	g := NewGateway(adbtest.Script(t, `echo "out:$*"; echo "err" >&2`))
	res := g.Execute(context.Background(), CommandSpec{Name: "probe", Args: []string{"shell", "id"}})
	if !res.Success || res.Failure != FailureNone {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Text() != "out:shell id" {
		t.Errorf("Stdout = %q", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "err" {
		t.Errorf("Stderr = %q", res.Stderr)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d", res.ExitCode)
	}
}

func TestExecuteDeviceTargeting(t *testing.T) {
	g := NewGateway(adbtest.Echo(t))
	ctx := context.Background()

	tests := []struct {
		name   string
		serial string
		device bool
		want   string
	}{
		{"no serial bound", "", true, "shell ls"},
		{"serial bound", "ABC123", true, "-s ABC123 shell ls"},
		{"unbound command ignores serial", "ABC123", false, "shell ls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.SetDevice(tt.serial)
			res := g.Execute(ctx, CommandSpec{Name: "ls", Args: []string{"shell", "ls"}, Device: tt.device})
			if got := res.Text(); got != tt.want {
				t.Errorf("args = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecuteNonZeroExit(t *testing.T) {
	g := NewGateway(adbtest.Script(t, `echo partial; echo "error: device offline" >&2; exit 3`))
	res := g.Execute(context.Background(), CommandSpec{Name: "fail"})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Failure != FailureNonZeroExit || res.ExitCode != 3 {
		t.Errorf("Failure = %v, ExitCode = %d", res.Failure, res.ExitCode)
	}
	if res.Stdout != "" || res.Stderr != "" {
		t.Errorf("failed result must be empty, got %q / %q", res.Stdout, res.Stderr)
	}
}

func TestExecuteToolMissing(t *testing.T) {
	for _, path := range []string{
		filepath.Join(t.TempDir(), "no-such-adb"),
		"adboss-definitely-not-on-path",
	} {
		g := NewGateway(path)
		res := g.Execute(context.Background(), CommandSpec{Name: "devices", Args: []string{"devices"}})
		if res.Success || res.Failure != FailureToolMissing {
			t.Errorf("%s: got %+v, want tool-missing", path, res)
		}
		if res.Stdout != "" {
			t.Errorf("%s: Stdout = %q", path, res.Stdout)
		}
	}
}

func TestExecuteTimeoutKillsProcessGroup(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "child.pid")
	g := NewGateway(adbtest.Script(t, `
sleep 30 &
echo $! > `+pidFile+`
echo started
wait
`))

	start := time.Now()
	res := g.Execute(context.Background(), CommandSpec{Name: "hang", Timeout: 300 * time.Millisecond})
	elapsed := time.Since(start)

	if res.Success || res.Failure != FailureTimeout {
		t.Fatalf("got %+v, want timeout", res)
	}
	if res.Stdout != "" {
		t.Errorf("Stdout = %q, want empty", res.Stdout)
	}
	if elapsed > 300*time.Millisecond+waitDelay+time.Second {
		t.Errorf("Execute took %v", elapsed)
	}

	data, err := os.ReadFile(pidFile)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("bad pid %q", data)
	}
	waitGone(t, pid)
}

func TestExecuteCancelled(t *testing.T) {
	g := NewGateway(adbtest.Script(t, `sleep 30`))
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)
	res := g.Execute(ctx, CommandSpec{Name: "hang", Timeout: 20 * time.Second})
	if res.Success || res.Failure != FailureCancelled {
		t.Fatalf("got %+v, want cancelled", res)
	}
}

func TestExecuteInvalidUTF8(t *testing.T) {
	g := NewGateway(adbtest.Script(t, `printf 'ok\377\376done'`))
	res := g.Execute(context.Background(), CommandSpec{Name: "bytes"})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if !strings.HasPrefix(res.Stdout, "ok") || !strings.HasSuffix(res.Stdout, "done") {
		t.Errorf("Stdout = %q", res.Stdout)
	}
	if len(res.Raw) != 8 {
		t.Errorf("Raw has %d bytes, want 8", len(res.Raw))
	}
}

func TestSetDeviceAffectsLaterCalls(t *testing.T) {
	g := NewGateway(adbtest.Echo(t), WithSerial("first"))
	if g.Serial() != "first" {
		t.Fatalf("Serial() = %q", g.Serial())
	}
	g.SetDevice("  second ")
	res := g.Execute(context.Background(), CommandSpec{Args: []string{"get-state"}, Device: true})
	if res.Text() != "-s second get-state" {
		t.Errorf("got %q", res.Text())
	}
}

func TestSpawnStreamsAndStops(t *testing.T) {
	g := NewGateway(adbtest.Script(t, `
echo one
echo two >&2
exec sleep 30
`))
	p, err := g.Spawn(context.Background(), CommandSpec{Name: "stream"}, true)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	buf := make([]byte, 64)
	var got strings.Builder
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(got.String(), "two") && time.Now().Before(deadline) {
		n, err := p.Output().Read(buf)
		got.Write(buf[:n])
		if err != nil {
			break
		}
	}
	if !strings.Contains(got.String(), "one") || !strings.Contains(got.String(), "two") {
		t.Fatalf("merged output = %q", got.String())
	}

	pid := p.Pid()
	p.Stop()
	p.Stop()
	select {
	case <-p.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
	waitGone(t, pid)
}

func TestSpawnNaturalExit(t *testing.T) {
	g := NewGateway(adbtest.Script(t, `echo bye; exit 2`))
	p, err := g.Spawn(context.Background(), CommandSpec{Name: "short"}, false)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	data, _ := io.ReadAll(p.Output())
	if strings.TrimSpace(string(data)) != "bye" {
		t.Errorf("output = %q", data)
	}
	if err := p.Wait(); err == nil {
		t.Error("Wait() = nil, want exit error")
	}
	if p.ExitCode() != 2 {
		t.Errorf("ExitCode() = %d", p.ExitCode())
	}
	p.Stop()
}

func TestSpawnMissingTool(t *testing.T) {
	g := NewGateway(filepath.Join(t.TempDir(), "nope"))
	_, err := g.Spawn(context.Background(), CommandSpec{Name: "logcat"}, true)
	if !errors.Is(err, ErrSpawn) || !errors.Is(err, ErrToolMissing) {
		t.Fatalf("err = %v, want ErrSpawn and ErrToolMissing", err)
	}
}

func TestValidatePath(t *testing.T) {
	fake := adbtest.Echo(t)
	if got, err := ValidatePath(fake); err != nil || got != fake {
		t.Errorf("ValidatePath(%q) = %q, %v", fake, got, err)
	}
	if _, err := ValidatePath(""); err == nil {
		t.Error("empty path accepted")
	}
	if _, err := ValidatePath(filepath.Join(t.TempDir(), "adb")); !errors.Is(err, ErrToolMissing) {
		t.Errorf("missing path: err = %v", err)
	}
	if _, err := ValidatePath(t.TempDir()); err == nil {
		t.Error("directory accepted")
	}
}

func TestAvailable(t *testing.T) {
	if !NewGateway(adbtest.Echo(t)).Available() {
		t.Error("fake adb not available")
	}
	if NewGateway(filepath.Join(t.TempDir(), "adb")).Available() {
		t.Error("missing adb reported available")
	}
}

// waitGone fails the test if pid is still running (zombies count as gone).
func waitGone(t *testing.T, pid int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if !alive(pid) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("process %d still running", pid)
}

func alive(pid int) bool {
	if err := syscall.Kill(pid, 0); err != nil {
		return false
	}
	stat, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		// no procfs; trust kill(0)
		return !os.IsNotExist(err) || !procfs()
	}
	if i := strings.LastIndexByte(string(stat), ')'); i >= 0 && i+2 < len(stat) {
		return stat[i+2] != 'Z'
	}
	return true
}

func procfs() bool {
	_, err := os.Stat("/proc/self/stat")
	return err == nil
}
