package logcat

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"adboss/internal/parse"
)

func lines(from, n int) []parse.LogLine {
	out := make([]parse.LogLine, n)
	for i := range out {
		out[i] = parse.LogLine{Message: strconv.Itoa(from + i), Raw: "line " + strconv.Itoa(from+i)}
	}
	return out
}

func TestBufferTrimsToCapacity(t *testing.T) {
	b := NewBuffer(10, 4)
	for i := 0; i < 5; i++ {
		b.Append(lines(i*7, 7))
	}
	if b.Len() != 10 {
		t.Fatalf("Len = %d, want 10", b.Len())
	}
	// oldest lines go first; order is kept
	for i := 0; i < 10; i++ {
		l, ok := b.At(i)
		if !ok || l.Message != strconv.Itoa(25+i) {
			t.Fatalf("At(%d) = %q, %v", i, l.Message, ok)
		}
	}
}

func TestBufferSuspendedGrowsToCeiling(t *testing.T) {
	b := NewBuffer(10, 4)
	b.Append(lines(0, 10))
	b.SetSuspended(true)
	b.Append(lines(10, 15))
	if b.Len() != 25 {
		t.Fatalf("Len while suspended = %d, want 25", b.Len())
	}
	b.Append(lines(25, 100))
	if b.Len() != b.Ceiling() || b.Ceiling() != 40 {
		t.Fatalf("Len = %d, Ceiling = %d, want 40", b.Len(), b.Ceiling())
	}
	if l, _ := b.At(0); l.Message != "85" {
		t.Errorf("oldest = %q, want 85", l.Message)
	}

	b.SetSuspended(false)
	if b.Len() != 10 {
		t.Fatalf("Len after resume = %d, want 10", b.Len())
	}
	if l, _ := b.At(9); l.Message != "124" {
		t.Errorf("newest = %q, want 124", l.Message)
	}
}

func TestBufferSetCapacity(t *testing.T) {
	b := NewBuffer(0, 0)
	if b.Capacity() != DefaultCapacity || b.Ceiling() != DefaultCapacity*DefaultCeilingFactor {
		t.Fatalf("defaults = %d/%d", b.Capacity(), b.Ceiling())
	}
	b.Append(lines(0, 50))
	b.SetCapacity(20)
	if b.Len() != 20 {
		t.Errorf("Len = %d, want 20", b.Len())
	}
	b.SetCapacity(-3)
	if b.Capacity() != 1 || b.Len() != 1 {
		t.Errorf("Capacity = %d Len = %d, want 1/1", b.Capacity(), b.Len())
	}
}

func TestBufferRangeAndClear(t *testing.T) {
	b := NewBuffer(100, 4)
	b.Append(lines(0, 10))
	got := b.Range(-5, 3)
	if len(got) != 3 || got[2].Message != "2" {
		t.Errorf("Range(-5, 3) = %v", got)
	}
	if got := b.Range(8, 50); len(got) != 2 {
		t.Errorf("Range(8, 50) len = %d", len(got))
	}
	if got := b.Range(6, 6); got != nil {
		t.Errorf("empty range = %v", got)
	}
	if _, ok := b.At(10); ok {
		t.Error("At past end succeeded")
	}
	b.Clear()
	if b.Len() != 0 || len(b.ExportAll()) != 0 {
		t.Error("Clear left lines behind")
	}
}

func TestBufferExportAllIgnoresSuspension(t *testing.T) {
	b := NewBuffer(5, 2)
	b.SetSuspended(true)
	b.Append(lines(0, 8))
	all := b.ExportAll()
	if len(all) != 8 {
		t.Fatalf("ExportAll len = %d, want 8", len(all))
	}
	all[0].Message = "changed"
	if l, _ := b.At(0); l.Message != "0" {
		t.Error("ExportAll shares storage with the buffer")
	}
}

func TestBufferWriteTo(t *testing.T) {
	b := NewBuffer(10, 4)
	b.Append(lines(0, 3))
	var out bytes.Buffer
	n, err := b.WriteTo(&out)
	if err != nil {
		t.Fatal(err)
	}
	want := "line 0\nline 1\nline 2"
	if out.String() != want || n != int64(len(want)) {
		t.Errorf("WriteTo = %q (%d)", out.String(), n)
	}
}

func TestBufferExport(t *testing.T) {
	b := NewBuffer(10, 4)
	b.Append(lines(0, 4))
	path := filepath.Join(t.TempDir(), "logcat.txt")
	n, err := b.Export(path)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("Export = %d lines, want 4", n)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Split(string(data), "\n"); len(got) != 4 || got[3] != "line 3" {
		t.Errorf("exported %q", data)
	}

	if _, err := b.Export(filepath.Join(t.TempDir(), "missing", "x.txt")); err == nil {
		t.Error("export into a missing directory succeeded")
	}
}

func TestQueueDrain(t *testing.T) {
	var q Queue
	if q.Drain() != nil {
		t.Fatal("empty queue returned a batch")
	}
	for _, l := range lines(0, 3) {
		q.Push(l)
	}
	if q.Len() != 3 {
		t.Fatalf("Len = %d", q.Len())
	}
	got := q.Drain()
	if len(got) != 3 || got[0].Message != "0" || got[2].Message != "2" {
		t.Errorf("Drain = %v", got)
	}
	if q.Len() != 0 {
		t.Error("Drain left lines queued")
	}
}

func TestFilterMatch(t *testing.T) {
	line := parse.LogLine{PID: 1234, Level: parse.LevelWarning, Tag: "ActivityManager", Message: "Start proc com.example"}
	tests := []struct {
		name string
		f    Filter
		want bool
	}{
		{"zero matches", Filter{}, true},
		{"level at min", Filter{MinLevel: parse.LevelWarning}, true},
		{"level below min", Filter{MinLevel: parse.LevelError}, false},
		{"pid match", Filter{PID: 1234}, true},
		{"pid mismatch", Filter{PID: 99}, false},
		{"negative pid unset", Filter{PID: -1}, true},
		{"tag substring", Filter{Tag: "Activity"}, true},
		{"tag case sensitive", Filter{Tag: "activity"}, false},
		{"tag ignore case", Filter{Tag: "activity", IgnoreCase: true}, true},
		{"text substring", Filter{Text: "com.example"}, true},
		{"text mismatch", Filter{Text: "crash"}, false},
		{"all criteria", Filter{MinLevel: parse.LevelInfo, Tag: "Manager", PID: 1234, Text: "proc"}, true},
		{"one criterion fails", Filter{MinLevel: parse.LevelInfo, Tag: "Manager", PID: 1234, Text: "nope"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Match(line); got != tt.want {
				t.Errorf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterZeroMatchesUnknownLevel(t *testing.T) {
	raw := parse.LogcatLine("--------- beginning of main")
	if !(Filter{}).Match(raw) {
		t.Error("zero filter rejected an unparsed line")
	}
	if (Filter{MinLevel: parse.LevelVerbose}).Match(raw) {
		t.Error("level filter accepted an unparsed line")
	}
	if !(Filter{}).IsZero() || (Filter{Text: "x"}).IsZero() {
		t.Error("IsZero wrong")
	}
}
