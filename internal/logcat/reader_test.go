//go:build !windows

package logcat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"adboss/internal/adb"
	"adboss/internal/adbtest"
	"adboss/internal/parse"
)

const sample = `01-15 10:23:45.123  1234  5678 I ActivityManager: Start proc com.example
01-15 10:23:45.200  1234  5679 D Chatty: noise
01-15 10:23:46.001   999   999 E AndroidRuntime: FATAL EXCEPTION: main
`

// streaming prints sample then stays alive until killed.
func streaming(t *testing.T) *adb.Gateway {
	t.Helper()
	return adb.NewGateway(adbtest.Script(t, "cat <<'EOF'\n"+sample+"EOF\nsleep 30\n"))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReaderFiltersAndStops(t *testing.T) {
	q := &Queue{}
	r := NewReader(streaming(t), q, zerolog.Nop())
	r.SetFilter(Filter{MinLevel: parse.LevelInfo})
	if r.State() != StateIdle {
		t.Fatalf("State = %v", r.State())
	}
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(context.Background()); !errors.Is(err, ErrNotIdle) {
		t.Errorf("second Start = %v, want ErrNotIdle", err)
	}
	waitFor(t, "lines", func() bool { return r.LinesRead() == 3 })

	got := q.Drain()
	if len(got) != 2 {
		t.Fatalf("queued %d lines, want 2", len(got))
	}
	if got[0].Tag != "ActivityManager" || got[1].Level != parse.LevelError {
		t.Errorf("queued %+v", got)
	}

	r.Stop()
	r.Stop()
	if r.State() != StateStopped {
		t.Errorf("State = %v after Stop", r.State())
	}
	if r.Err() != nil {
		t.Errorf("Err = %v after Stop", r.Err())
	}
	select {
	case <-r.Done():
	default:
		t.Error("Done not closed")
	}
}

func TestReaderArgs(t *testing.T) {
	args := filepath.Join(t.TempDir(), "args")
	gw := adb.NewGateway(adbtest.Script(t, `echo "$@" > `+args), adb.WithSerial("emu-1"))
	r := NewReader(gw, &Queue{}, zerolog.Nop(), "-b", "crash")
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-r.Done()
	data := readFile(t, args)
	if strings.TrimSpace(data) != "-s emu-1 logcat -v threadtime -b crash" {
		t.Errorf("args = %q", data)
	}
}

func TestReaderNaturalExit(t *testing.T) {
	q := &Queue{}
	r := NewReader(adb.NewGateway(adbtest.Script(t, "cat <<'EOF'\n"+sample+"EOF\nexit 1\n")), q, zerolog.Nop())
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("reader did not stop after the process exited")
	}
	if r.State() != StateStopped {
		t.Errorf("State = %v", r.State())
	}
	if r.Err() == nil || !strings.Contains(r.Err().Error(), "logcat exited") {
		t.Errorf("Err = %v", r.Err())
	}
	if q.Len() != 3 {
		t.Errorf("queued %d lines, want 3", q.Len())
	}
	// Stop after a natural end is a no-op
	r.Stop()
}

func TestReaderSpawnFailure(t *testing.T) {
	gw := adb.NewGateway(filepath.Join(t.TempDir(), "no-such-adb"))
	r := NewReader(gw, &Queue{}, zerolog.Nop())
	err := r.Start(context.Background())
	if !errors.Is(err, adb.ErrSpawn) {
		t.Fatalf("Start = %v, want ErrSpawn", err)
	}
	if r.State() != StateStopped || r.Err() == nil {
		t.Errorf("State = %v Err = %v", r.State(), r.Err())
	}
	<-r.Done()
	r.Stop()
}

func TestReaderPaused(t *testing.T) {
	q := &Queue{}
	r := NewReader(streaming(t), q, zerolog.Nop())
	r.SetPaused(true)
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()
	waitFor(t, "lines", func() bool { return r.LinesRead() == 3 })
	if q.Len() != 0 {
		t.Errorf("paused reader queued %d lines", q.Len())
	}
}

func TestReaderKeepsGoingAfterOversizedLine(t *testing.T) {
	script := "head -c 3000000 /dev/zero | tr '\\0' x\necho\ncat <<'EOF'\n" + sample + "EOF\nsleep 30\n"
	q := &Queue{}
	r := NewReader(adb.NewGateway(adbtest.Script(t, script)), q, zerolog.Nop())
	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()
	waitFor(t, "lines", func() bool { return r.LinesRead() == 4 })
	if r.State() != StateRunning || r.Err() != nil {
		t.Errorf("State = %v Err = %v", r.State(), r.Err())
	}

	got := q.Drain()
	if len(got) != 4 {
		t.Fatalf("queued %d lines, want 4", len(got))
	}
	if got[0].Level != parse.LevelUnknown || len(got[0].Raw) != maxLineSize {
		t.Errorf("oversized line kept as %v with %d bytes", got[0].Level, len(got[0].Raw))
	}
	if got[1].Tag != "ActivityManager" || got[3].Level != parse.LevelError {
		t.Errorf("lines after the long one = %+v", got[1:])
	}
}

func TestReadLine(t *testing.T) {
	br := bufio.NewReaderSize(strings.NewReader("abcdefghijklmnopqrstuvwxyz\r\nshort\ntail"), 16)
	want := []struct {
		line      string
		truncated bool
	}{
		{"abcdefgh", true},
		{"short", false},
		{"tail", false},
	}
	for _, w := range want {
		line, truncated, err := readLine(br, 8)
		if err != nil {
			t.Fatal(err)
		}
		if line != w.line || truncated != w.truncated {
			t.Errorf("readLine = %q, %v; want %q, %v", line, truncated, w.line, w.truncated)
		}
	}
	if _, _, err := readLine(br, 8); !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want EOF", err)
	}
}

func TestSessionBurstIsOneDelivery(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10000; i++ {
		fmt.Fprintf(&b, "01-15 10:23:45.123  1234  5678 I Burst: %d\n", i)
	}
	path := filepath.Join(t.TempDir(), "burst.txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	s := NewSession(adb.NewGateway(adbtest.Script(t, "cat "+path+"\nsleep 30\n")), NewBuffer(20000, 4), rec, WithFlushInterval(300*time.Millisecond))
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()
	waitFor(t, "delivery", func() bool { return rec.total() == 10000 })
	time.Sleep(400 * time.Millisecond)

	if rec.calls() != 1 {
		t.Errorf("deliveries = %d, want 1", rec.calls())
	}
	if s.Buffer().Len() != 10000 {
		t.Errorf("buffer holds %d lines", s.Buffer().Len())
	}
	if rec.batches[0][9999].Message != "9999" {
		t.Error("batch out of order")
	}
}

func TestSessionDeliversToBufferAndSink(t *testing.T) {
	rec := &recorder{}
	s := NewSession(streaming(t), NewBuffer(100, 4), rec, WithFlushInterval(10*time.Millisecond))
	s.SetFilter(Filter{Tag: "activitymanager", IgnoreCase: true})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start = %v", err)
	}
	if !s.Running() {
		t.Error("Running = false")
	}
	waitFor(t, "delivery", func() bool { return rec.total() == 1 })
	s.Stop()
	s.Stop()
	if s.Running() {
		t.Error("Running after Stop")
	}
	if s.Buffer().Len() != 1 {
		t.Errorf("buffer holds %d lines", s.Buffer().Len())
	}
	if f := s.Filter(); f.Tag != "activitymanager" {
		t.Errorf("Filter = %+v", f)
	}

	path := filepath.Join(t.TempDir(), "out.txt")
	n, err := s.Export(path)
	if err != nil || n != 1 {
		t.Fatalf("Export = %d, %v", n, err)
	}
	if !strings.Contains(readFile(t, path), "Start proc com.example") {
		t.Error("export missing line")
	}

	s.Clear()
	if s.Buffer().Len() != 0 {
		t.Error("Clear left lines")
	}
}

func TestSessionRestartAfterExit(t *testing.T) {
	gw := adb.NewGateway(adbtest.Script(t, "cat <<'EOF'\n"+sample+"EOF\n"))
	s := NewSession(gw, NewBuffer(100, 4), nil, WithFlushInterval(5*time.Millisecond))
	for i := 0; i < 2; i++ {
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		<-s.Done()
		if s.Err() == nil {
			t.Errorf("run %d: Err = nil after exit", i)
		}
	}
	s.Stop()
	if s.Buffer().Len() != 6 {
		t.Errorf("buffer holds %d lines, want 6", s.Buffer().Len())
	}
	if s.Done() != nil {
		t.Error("Done non-nil when idle")
	}
}

func TestSessionLiveEdge(t *testing.T) {
	s := NewSession(adb.NewGateway("adb"), NewBuffer(2, 3), nil)
	s.Buffer().Append(lines(0, 2))
	s.SetLiveEdge(false)
	s.Buffer().Append(lines(2, 3))
	if s.Buffer().Len() != 5 {
		t.Fatalf("Len = %d while browsing", s.Buffer().Len())
	}
	s.SetLiveEdge(true)
	if s.Buffer().Len() != 2 {
		t.Errorf("Len = %d at live edge", s.Buffer().Len())
	}
	s.SetPaused(true)
	if !s.Paused() {
		t.Error("Paused = false")
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
