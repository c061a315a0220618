//go:build !windows

package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"adboss/internal/adb"
	"adboss/internal/adbtest"
	"adboss/internal/parse"
)

func TestCalculateBackoff(t *testing.T) {
	base := 3 * time.Second
	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 3 * time.Second},
		{"negative failures", -1, 3 * time.Second},
		{"one failure", 1, 6 * time.Second},
		{"two failures", 2, 12 * time.Second},
		{"three failures", 3, 24 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 60, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateBackoff(tt.failures, base); got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, base, got, tt.want)
			}
		})
	}
}

func writeDevices(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("List of devices attached\n"+body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoveryReportsOnlyChanges(t *testing.T) {
	list := filepath.Join(t.TempDir(), "devices")
	writeDevices(t, list, "emulator-5554\tdevice product:sdk model:sdk_phone transport_id:1\n")
	gw := adb.NewGateway(adbtest.Script(t, `cat `+list))

	var reports [][]parse.Device
	d := NewDiscovery(gw, 0, func(devs []parse.Device) { reports = append(reports, devs) }, zerolog.Nop())
	ctx := context.Background()

	devs, changed, err := d.Poll(ctx)
	if err != nil || !changed || len(devs) != 1 {
		t.Fatalf("first poll = %v, %v, %v", devs, changed, err)
	}
	if _, changed, _ = d.Poll(ctx); changed {
		t.Error("unchanged list reported")
	}

	writeDevices(t, list, "emulator-5554\toffline transport_id:1\n")
	if _, changed, _ = d.Poll(ctx); !changed {
		t.Error("state change not reported")
	}

	writeDevices(t, list, "emulator-5554\toffline transport_id:1\nR58M123\tunauthorized transport_id:3\n")
	if _, changed, _ = d.Poll(ctx); !changed {
		t.Error("new device not reported")
	}
	// same set in another order
	writeDevices(t, list, "R58M123\tunauthorized transport_id:3\nemulator-5554\toffline transport_id:1\n")
	if _, changed, _ = d.Poll(ctx); changed {
		t.Error("reordering reported as a change")
	}

	if len(reports) != 3 {
		t.Errorf("reports = %d, want 3", len(reports))
	}
}

func TestDiscoveryWithBoundGateway(t *testing.T) {
	args := filepath.Join(t.TempDir(), "args")
	gw := adb.NewGateway(adbtest.Script(t, `echo "$@" > `+args+`
printf 'List of devices attached\nemulator-5554\tdevice\nemulator-5556\tdevice\n'`), adb.WithSerial("emulator-5554"))
	d := NewDiscovery(gw, 0, nil, zerolog.Nop())
	devs, _, err := d.Poll(context.Background())
	if err != nil || len(devs) != 2 {
		t.Fatalf("Poll = %v, %v", devs, err)
	}
	data, err := os.ReadFile(args)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "devices -l\n" {
		t.Errorf("args = %q, want no serial", got)
	}
}

func TestDiscoveryToolMissing(t *testing.T) {
	gw := adb.NewGateway(filepath.Join(t.TempDir(), "adb"))
	d := NewDiscovery(gw, time.Second, nil, zerolog.Nop())
	for i := 1; i <= 3; i++ {
		devs, _, err := d.Poll(context.Background())
		if !errors.Is(err, adb.ErrToolMissing) || devs != nil {
			t.Fatalf("poll %d = %v, %v", i, devs, err)
		}
		if d.Failures() != i {
			t.Errorf("Failures = %d, want %d", d.Failures(), i)
		}
	}
}

func TestDiscoveryServerError(t *testing.T) {
	gw := adb.NewGateway(adbtest.Script(t, `echo "error: protocol fault" >&2; exit 1`))
	d := NewDiscovery(gw, time.Second, nil, zerolog.Nop())
	if _, _, err := d.Poll(context.Background()); !errors.Is(err, ErrDevicesUnavailable) {
		t.Errorf("err = %v", err)
	}
}

func TestDiscoveryRunStops(t *testing.T) {
	gw := adb.NewGateway(adbtest.Script(t, `echo "List of devices attached"`))
	var mu sync.Mutex
	calls := 0
	d := NewDiscovery(gw, 10*time.Millisecond, func([]parse.Device) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("empty list reported %d times, want 1", calls)
	}
}

func dashboardGateway(t *testing.T) *adb.Gateway {
	return adb.NewGateway(adbtest.Dispatch(t, map[string]string{
		"getprop":         "[ro.product.model]: [Pixel 6]\n[ro.build.version.release]: [14]\n",
		"/proc/uptime":    "120.00 50.00\n",
		"dumpsys battery": "  level: 42\n  status: 3\n",
		"/proc/meminfo":   "MemTotal: 4000000 kB\nMemFree: 1000000 kB\nMemAvailable: 2000000 kB\n",
		"df /data":        "Filesystem 1K-blocks Used Available Use% Mounted on\n/dev/block/dm-5 100000 40000 60000 40% /data\n",
		"top -n 1 -b":     "800%cpu 10%user 0%nice 22%sys 768%idle 0%iow 0%irq 0%sirq 0%host\n",
		"wm size":         "Physical size: 1080x2400\n",
		"wm density":      "Physical density: 420\n",
		"dumpsys wifi":    "mWifiInfo SSID: \"home\", RSSI: -55\n",
		"addr show wlan0": "    inet 192.168.1.20/24 brd 192.168.1.255 scope global wlan0\n",
	}), adb.WithSerial("emu-1"))
}

func TestCollect(t *testing.T) {
	snap, err := Collect(context.Background(), dashboardGateway(t))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Serial != "emu-1" || snap.Info.Model != "Pixel 6" {
		t.Errorf("identity = %q %+v", snap.Serial, snap.Info)
	}
	if snap.Battery.Level != 42 || snap.Memory.UsedKB != 2000000 {
		t.Errorf("battery/memory = %+v %+v", snap.Battery, snap.Memory)
	}
	if snap.Display.Resolution() != "1080x2400" || snap.Display.DPI != 420 {
		t.Errorf("display = %+v", snap.Display)
	}
	if snap.CPU.UsagePercent != 4 {
		t.Errorf("cpu = %v", snap.CPU.UsagePercent)
	}
	if snap.Taken.IsZero() {
		t.Error("Taken not set")
	}
}

func TestCollectNotResponding(t *testing.T) {
	gw := adb.NewGateway(adbtest.Script(t, `echo "error: device offline" >&2; exit 1`), adb.WithSerial("gone"))
	snap, err := Collect(context.Background(), gw)
	if !errors.Is(err, ErrNotResponding) {
		t.Fatalf("err = %v", err)
	}
	if snap.Battery.Level != 0 || snap.Serial != "gone" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestPollerDelivers(t *testing.T) {
	got := make(chan error, 10)
	p := NewPoller(dashboardGateway(t), 20*time.Millisecond, func(_ Snapshot, err error) { got <- err }, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)
	for i := 0; i < 2; i++ {
		select {
		case err := <-got:
			if err != nil {
				t.Fatalf("refresh %d: %v", i, err)
			}
		case <-time.After(10 * time.Second):
			t.Fatalf("refresh %d never delivered", i)
		}
	}
}
