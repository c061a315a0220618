//go:build !windows

// Package adbtest writes stand-in adb executables for tests.
package adbtest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Script writes an executable /bin/sh script named adb into a temporary
// directory and returns its path. body receives the adb arguments in "$@".
func Script(t testing.TB, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adb")
	src := "#!/bin/sh\n" + strings.TrimLeft(body, "\n")
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	if err := os.WriteFile(path, []byte(src), 0o755); err != nil {
		t.Fatalf("write fake adb: %v", err)
	}
	return path
}

// Echo returns a fake adb that prints its arguments on one line.
func Echo(t testing.TB) string {
	return Script(t, `echo "$@"`)
}

// Dispatch returns a fake adb that prints out[key] when the space-joined
// arguments (after an optional "-s <serial>") contain key, and exits 1 when no
// key matches. Keys are tried in no particular order, so they should not
// overlap.
func Dispatch(t testing.TB, out map[string]string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("if [ \"$1\" = \"-s\" ]; then shift 2; fi\n")
	b.WriteString("args=\"$*\"\n")
	b.WriteString("case \"$args\" in\n")
	for key, text := range out {
		b.WriteString("*" + shellQuote(key) + "*)\ncat <<'__ADBTEST_EOF__'\n")
		b.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("__ADBTEST_EOF__\n;;\n")
	}
	b.WriteString("*) exit 1 ;;\nesac\n")
	return Script(t, b.String())
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
