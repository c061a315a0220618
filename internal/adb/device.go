package adb

import (
	"context"
	"strconv"
	"strings"
	"time"

	"adboss/internal/parse"
)

func (g *Gateway) shell(ctx context.Context, name string, timeout time.Duration, args ...string) CommandResult {
	return g.Execute(ctx, CommandSpec{
		Name:    name,
		Args:    append([]string{"shell"}, args...),
		Timeout: timeout,
		Device:  true,
	})
}

// Version returns the first line of `adb version`.
func (g *Gateway) Version(ctx context.Context) string {
	res := g.Execute(ctx, CommandSpec{Name: "version", Args: []string{"version"}})
	first, _, _ := strings.Cut(res.Text(), "\n")
	return strings.TrimSpace(first)
}

// StartServer makes sure the adb server is running so the first device list
// is not empty.
func (g *Gateway) StartServer(ctx context.Context) bool {
	return g.Execute(ctx, CommandSpec{Name: "start-server", Args: []string{"start-server"}}).Success
}

// Devices lists attached devices. It never targets a serial.
func (g *Gateway) Devices(ctx context.Context) ([]parse.Device, CommandResult) {
	res := g.Execute(ctx, CommandSpec{Name: "devices", Args: []string{"devices", "-l"}})
	return parse.ParseDevices(res.Stdout), res
}

// Props returns all system properties.
func (g *Gateway) Props(ctx context.Context) map[string]string {
	return parse.ParseProps(g.shell(ctx, "getprop", 0, "getprop").Stdout)
}

// DeviceInfo reads identity properties and uptime. An empty Model means the
// device did not answer.
func (g *Gateway) DeviceInfo(ctx context.Context) parse.DeviceInfo {
	props := g.Props(ctx)
	uptime := parse.ParseUptime(g.shell(ctx, "uptime", 0, "cat", "/proc/uptime").Stdout)
	return parse.NewDeviceInfo(props, uptime)
}

func (g *Gateway) Battery(ctx context.Context) parse.Battery {
	return parse.ParseBattery(g.shell(ctx, "battery", 0, "dumpsys", "battery").Stdout)
}

// SetBatteryLevel fakes the reported battery level until ResetBattery.
func (g *Gateway) SetBatteryLevel(ctx context.Context, level int) CommandResult {
	return g.shell(ctx, "battery-set", 0, "dumpsys", "battery", "set", "level", strconv.Itoa(level))
}

func (g *Gateway) ResetBattery(ctx context.Context) CommandResult {
	return g.shell(ctx, "battery-reset", 0, "dumpsys", "battery", "reset")
}

func (g *Gateway) Memory(ctx context.Context) parse.MemInfo {
	return parse.ParseMemInfo(g.shell(ctx, "meminfo", 0, "cat", "/proc/meminfo").Stdout)
}

func (g *Gateway) Storage(ctx context.Context) parse.Storage {
	return parse.ParseStorage(g.shell(ctx, "storage", 0, "df", "/data").Stdout)
}

// CPU samples one frame of top; it can take several seconds on busy devices.
func (g *Gateway) CPU(ctx context.Context) parse.CPU {
	return parse.ParseCPU(g.shell(ctx, "cpu", 15*time.Second, "top", "-n", "1", "-b").Stdout)
}

func (g *Gateway) Display(ctx context.Context) parse.Display {
	size := g.shell(ctx, "wm-size", 0, "wm", "size").Stdout
	density := g.shell(ctx, "wm-density", 0, "wm", "density").Stdout
	return parse.ParseDisplay(size, density)
}

func (g *Gateway) Network(ctx context.Context) parse.Network {
	wifi := g.shell(ctx, "wifi", 0, "dumpsys", "wifi").Stdout
	ip := g.shell(ctx, "ip", 0, "ip", "addr", "show", "wlan0").Stdout
	return parse.ParseNetwork(wifi, ip)
}

// Reboot restarts the device; mode is "", "bootloader" or "recovery".
func (g *Gateway) Reboot(ctx context.Context, mode string) CommandResult {
	args := []string{"reboot"}
	if mode != "" {
		args = append(args, mode)
	}
	return g.Execute(ctx, CommandSpec{Name: "reboot", Args: args, Timeout: 5 * time.Second, Device: true})
}

// Shell runs an arbitrary shell command line on the device.
func (g *Gateway) Shell(ctx context.Context, command string) CommandResult {
	return g.shell(ctx, "shell", 30*time.Second, command)
}

// Backup writes a full `adb backup` archive to path.
func (g *Gateway) Backup(ctx context.Context, path string, includeAPKs bool) CommandResult {
	args := []string{"backup", "-all"}
	if includeAPKs {
		args = append(args, "-apk")
	}
	args = append(args, "-f", path)
	return g.Execute(ctx, CommandSpec{Name: "backup", Args: args, Timeout: MaxTimeout, Device: true})
}
