package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestForTagsModule(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "debug", Console: true, NoColor: true, Out: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Close()

	log := For("gateway")
	log.Debug().Msg("hello")
	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "module=gateway") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLevelFiltersConsole(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: "warn", Console: true, NoColor: true, Out: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Close()

	log := For("x")
	log.Info().Msg("quiet")
	log.Warn().Msg("loud")
	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info line leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "adboss.log")
	if err := Init(Config{Level: "info", FilePath: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	log := For("file")
	log.Info().Str("k", "v").Msg("persisted")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"message":"persisted"`) {
		t.Fatalf("log file missing entry: %s", data)
	}
}

func TestNopBeforeInit(t *testing.T) {
	Close()
	// must not panic
	log := For("none")
	log.Error().Msg("dropped")
}
