// Package logcat streams `adb logcat`, filters and batches the lines and keeps
// a bounded history for the viewer.
package logcat

import (
	"strings"

	"adboss/internal/parse"
)

// Filter selects log lines. Every set criterion must hold; the zero value
// matches everything, including lines of unknown level.
type Filter struct {
	MinLevel parse.Level
	Tag      string // substring of the tag
	PID      int    // exact; <= 0 means any
	Text     string // substring of the message
	// IgnoreCase compares Tag and Text case-insensitively.
	IgnoreCase bool
}

// IsZero reports whether f matches every line.
func (f Filter) IsZero() bool {
	return f.MinLevel <= parse.LevelUnknown && f.Tag == "" && f.PID <= 0 && f.Text == ""
}

// Match reports whether l passes the filter.
func (f Filter) Match(l parse.LogLine) bool {
	if l.Level < f.MinLevel {
		return false
	}
	if f.PID > 0 && l.PID != f.PID {
		return false
	}
	if f.Tag != "" && !contains(l.Tag, f.Tag, f.IgnoreCase) {
		return false
	}
	if f.Text != "" && !contains(l.Message, f.Text, f.IgnoreCase) {
		return false
	}
	return true
}

func contains(s, sub string, fold bool) bool {
	if fold {
		return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	}
	return strings.Contains(s, sub)
}
