package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// Level is a logcat priority. Levels are ordered so that a filter can compare
// them with >=; Unknown sorts below Verbose.
type Level int

const (
	LevelUnknown Level = iota
	LevelVerbose
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

var levelNames = [...]string{"Unknown", "Verbose", "Debug", "Info", "Warning", "Error", "Fatal"}

func (l Level) String() string {
	if l < LevelUnknown || l > LevelFatal {
		return levelNames[LevelUnknown]
	}
	return levelNames[l]
}

// Char returns the single-letter form used by logcat ("?" for Unknown).
func (l Level) Char() string {
	switch l {
	case LevelVerbose:
		return "V"
	case LevelDebug:
		return "D"
	case LevelInfo:
		return "I"
	case LevelWarning:
		return "W"
	case LevelError:
		return "E"
	case LevelFatal:
		return "F"
	}
	return "?"
}

// LevelFromChar maps a logcat priority letter to a Level. "A" (assert) is
// reported as Fatal.
func LevelFromChar(c string) Level {
	switch strings.ToUpper(strings.TrimSpace(c)) {
	case "V":
		return LevelVerbose
	case "D":
		return LevelDebug
	case "I":
		return LevelInfo
	case "W":
		return LevelWarning
	case "E":
		return LevelError
	case "F", "A":
		return LevelFatal
	}
	return LevelUnknown
}

// ParseLevel accepts either a letter ("W") or a name ("warning", "warn").
// Empty or unrecognised input yields LevelUnknown.
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return LevelUnknown
	case "verbose":
		return LevelVerbose
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarning
	case "error":
		return LevelError
	case "fatal", "assert":
		return LevelFatal
	}
	if len(s) == 1 {
		return LevelFromChar(s)
	}
	return LevelUnknown
}

// LogLine is one parsed line of a logcat stream.
type LogLine struct {
	Timestamp string // "MM-DD hh:mm:ss.mmm" as printed by the device
	PID       int
	TID       int
	Level     Level
	Tag       string
	Message   string
	Raw       string
}

var (
	// threadtime: "01-01 00:00:00.000  1234  5678 E MyTag: boom"
	threadtimePattern = regexp.MustCompile(`^(\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}\.\d+)\s+(\d+)\s+(\d+)\s+([VDIWEFA])\s+(.*?)\s*:\s*(.*)$`)
	// time: "01-04 12:34:56.789 D/Tag( 1234): message"
	timePattern = regexp.MustCompile(`^(\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}\.\d+)\s+([VDIWEFA])/([^(]*)\(\s*(\d+)\):\s?(.*)$`)
)

// LogcatLine parses one line of `logcat -v threadtime` (or `-v time`) output.
// Lines in any other shape are kept as LevelUnknown with the whole text as the
// message, so nothing read from the stream is dropped.
func LogcatLine(line string) LogLine {
	line = strings.TrimRight(line, "\r\n")
	if m := threadtimePattern.FindStringSubmatch(line); m != nil {
		pid, _ := strconv.Atoi(m[2])
		tid, _ := strconv.Atoi(m[3])
		return LogLine{
			Timestamp: collapseSpaces(m[1]),
			PID:       pid,
			TID:       tid,
			Level:     LevelFromChar(m[4]),
			Tag:       strings.TrimSpace(m[5]),
			Message:   m[6],
			Raw:       line,
		}
	}
	if m := timePattern.FindStringSubmatch(line); m != nil {
		pid, _ := strconv.Atoi(m[4])
		return LogLine{
			Timestamp: collapseSpaces(m[1]),
			PID:       pid,
			Level:     LevelFromChar(m[2]),
			Tag:       strings.TrimSpace(m[3]),
			Message:   m[5],
			Raw:       line,
		}
	}
	return LogLine{Level: LevelUnknown, Message: line, Raw: line}
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
