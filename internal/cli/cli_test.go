//go:build !windows

package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"adboss/internal/adbtest"
)

// run executes the command tree with a private config file and returns
// stdout.
func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand("test")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--config", configPath, "--log-level", "error", "--no-color"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

const twoDevices = `List of devices attached
emulator-5554          device product:sdk_gphone64 model:sdk_phone64 transport_id:1
R58M123ABC             unauthorized transport_id:2
`

func fakeADB(t *testing.T, devices string) string {
	return adbtest.Script(t, `
if [ "$1" = "-s" ]; then shift 2; fi
case "$1" in
devices) cat <<'EOF'
`+devices+`EOF
;;
start-server) ;;
shell) shift; echo "ran: $*" ;;
*) exit 1 ;;
esac
`)
}

func TestDevicesCommand(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.json")
	out, err := run(t, cfg, "--adb", fakeADB(t, twoDevices), "devices")
	if err != nil {
		t.Fatalf("devices: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "SERIAL") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "emulator-5554") || !strings.Contains(lines[1], "sdk_phone64") {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.Contains(lines[2], "unauthorized") {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestShellAutoBindsSingleOnlineDevice(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.json")
	out, err := run(t, cfg, "--adb", fakeADB(t, twoDevices), "shell", "getprop", "ro.product.model")
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	if got := strings.TrimSpace(out); got != "ran: getprop ro.product.model" {
		t.Errorf("output = %q", got)
	}
}

func TestDeviceCommandsNeedAnOnlineDevice(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.json")
	offline := "List of devices attached\nemulator-5554\toffline\n"
	_, err := run(t, cfg, "--adb", fakeADB(t, offline), "packages")
	if !errors.Is(err, errNoDevice) {
		t.Fatalf("err = %v, want errNoDevice", err)
	}

	many := "List of devices attached\nemulator-5554\tdevice\nemulator-5556\tdevice\n"
	_, err = run(t, cfg, "--adb", fakeADB(t, many), "packages")
	if !errors.Is(err, errManyDevices) {
		t.Fatalf("err = %v, want errManyDevices", err)
	}
}

func TestConfigSetThenGet(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.json")
	if _, err := run(t, cfg, "config", "set", "logcat_max_lines", "200"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	out, err := run(t, cfg, "config", "get", "logcat_max_lines")
	if err != nil {
		t.Fatalf("config get: %v", err)
	}
	if got := strings.TrimSpace(out); got != "200" {
		t.Errorf("logcat_max_lines = %q, want 200", got)
	}

	out, err = run(t, cfg, "config", "get", "shell_history_max")
	if err != nil {
		t.Fatalf("config get: %v", err)
	}
	if got := strings.TrimSpace(out); got != "100" {
		t.Errorf("default shell_history_max = %q, want 100", got)
	}

	out, err = run(t, cfg, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if got := strings.TrimSpace(out); got != cfg {
		t.Errorf("path = %q, want %q", got, cfg)
	}
}

func TestFailedFormatsExitStatus(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.json")
	_, err := run(t, cfg, "--adb", fakeADB(t, twoDevices), "-s", "emulator-5554", "reboot", "recovery")
	if err == nil || !strings.Contains(err.Error(), "exit status 1") {
		t.Fatalf("err = %v, want exit status 1", err)
	}
}
