//go:build !windows

package shell

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"adboss/internal/adb"
	"adboss/internal/adbtest"
)

func TestHistoryBoundAndDuplicates(t *testing.T) {
	h := NewHistory(3)
	for _, cmd := range []string{"ls", "ls", "pwd", "id", "id", "date"} {
		h.Add(cmd)
	}
	got := h.Entries()
	want := []string{"pwd", "id", "date"}
	if len(got) != len(want) {
		t.Fatalf("Entries = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], want[i])
		}
	}

	// non-consecutive repeats are kept
	h.Add("pwd")
	if h.Entries()[2] != "pwd" {
		t.Errorf("Entries = %q", h.Entries())
	}
}

func TestHistoryDefaultBound(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < 150; i++ {
		h.Add("cmd " + strconv.Itoa(i))
	}
	if h.Len() != DefaultHistoryMax {
		t.Errorf("Len = %d", h.Len())
	}
	if h.Entries()[0] != "cmd 50" {
		t.Errorf("oldest = %q", h.Entries()[0])
	}
}

func TestHistoryRecall(t *testing.T) {
	h := NewHistory(10)
	if _, ok := h.Prev(); ok {
		t.Fatal("Prev on empty history")
	}
	h.Add("a")
	h.Add("b")
	h.Add("c")
	steps := []struct {
		prev bool
		want string
	}{
		{true, "c"},
		{true, "b"},
		{true, "a"},
		{true, "a"},
		{false, "b"},
		{false, "c"},
		{false, "c"},
	}
	for i, s := range steps {
		var got string
		if s.prev {
			got, _ = h.Prev()
		} else {
			got, _ = h.Next()
		}
		if got != s.want {
			t.Errorf("step %d = %q, want %q", i, got, s.want)
		}
	}
	h.Add("d")
	if got, _ := h.Prev(); got != "d" {
		t.Errorf("Prev after Add = %q", got)
	}
}

func TestConsoleRun(t *testing.T) {
	gw := adb.NewGateway(adbtest.Script(t, `
if [ "$1" = "-s" ]; then shift 2; fi
case "$2" in
  fail) echo "boom" >&2; exit 3 ;;
esac
echo "ran: $*"
`), adb.WithSerial("emu-1"))
	c := NewConsole(gw, 5, zerolog.Nop())
	ctx := context.Background()

	e, err := c.Run(ctx, "  getprop ro.product.model ")
	if err != nil {
		t.Fatal(err)
	}
	if !e.Success || e.Output != "ran: shell getprop ro.product.model" {
		t.Errorf("entry = %+v", e)
	}

	e, _ = c.Run(ctx, "fail")
	if e.Success || e.Output != "exit status 3" {
		t.Errorf("failed entry = %+v", e)
	}

	e, _ = c.Run(ctx, "__reboot_recovery__")
	if e.Command != "reboot recovery" || e.Output != "Rebooting to recovery..." {
		t.Errorf("reboot entry = %+v", e)
	}

	if _, err := c.Run(ctx, "   "); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("blank Run = %v", err)
	}
	if got := c.History(); len(got) != 3 || got[0] != "getprop ro.product.model" {
		t.Errorf("History = %q", got)
	}
	if prev, _ := c.Prev(); prev != "__reboot_recovery__" {
		t.Errorf("Prev = %q", prev)
	}
	if next, _ := c.Next(); next != "__reboot_recovery__" {
		t.Errorf("Next = %q", next)
	}
}

func TestConsoleToolMissing(t *testing.T) {
	c := NewConsole(adb.NewGateway(filepath.Join(t.TempDir(), "adb")), 0, zerolog.Nop())
	e, err := c.Run(context.Background(), "ls")
	if err != nil {
		t.Fatal(err)
	}
	if e.Success || e.Output != "error: tool-missing" {
		t.Errorf("entry = %+v", e)
	}
}
