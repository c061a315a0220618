package adb

import (
	"context"
	"strconv"
	"strings"
)

// Volume streams accepted by SetVolume.
const (
	StreamRing  = 2
	StreamMedia = 3
	StreamAlarm = 4
)

// SetBrightness switches to manual brightness and sets value (0-255).
func (g *Gateway) SetBrightness(ctx context.Context, value int) CommandResult {
	value = min(max(value, 0), 255)
	if res := g.shell(ctx, "brightness-mode", 0, "settings", "put", "system", "screen_brightness_mode", "0"); !res.Success {
		return res
	}
	return g.shell(ctx, "brightness", 0, "settings", "put", "system", "screen_brightness", strconv.Itoa(value))
}

func (g *Gateway) SetVolume(ctx context.Context, stream, value int) CommandResult {
	return g.shell(ctx, "volume", 0, "media", "volume", "--stream", strconv.Itoa(stream), "--set", strconv.Itoa(value), "--show")
}

func enableWord(on bool) string {
	if on {
		return "enable"
	}
	return "disable"
}

func (g *Gateway) SetWifi(ctx context.Context, on bool) CommandResult {
	return g.shell(ctx, "wifi-toggle", 0, "svc", "wifi", enableWord(on))
}

func (g *Gateway) SetBluetooth(ctx context.Context, on bool) CommandResult {
	return g.shell(ctx, "bluetooth-toggle", 0, "svc", "bluetooth", enableWord(on))
}

// SetAirplaneMode writes the setting and broadcasts the change so the radios
// follow it.
func (g *Gateway) SetAirplaneMode(ctx context.Context, on bool) CommandResult {
	val := "0"
	if on {
		val = "1"
	}
	if res := g.shell(ctx, "airplane-setting", 0, "settings", "put", "global", "airplane_mode_on", val); !res.Success {
		return res
	}
	return g.shell(ctx, "airplane-broadcast", 0, "am", "broadcast", "-a", "android.intent.action.AIRPLANE_MODE",
		"--ez", "state", strconv.FormatBool(on))
}

// SetDoNotDisturb toggles zen mode (2 = total silence).
func (g *Gateway) SetDoNotDisturb(ctx context.Context, on bool) CommandResult {
	val := "0"
	if on {
		val = "2"
	}
	return g.shell(ctx, "dnd", 0, "settings", "put", "global", "zen_mode", val)
}

func (g *Gateway) KeyEvent(ctx context.Context, keycode string) CommandResult {
	return g.shell(ctx, "keyevent", 0, "input", "keyevent", keycode)
}

func (g *Gateway) ScreenOn(ctx context.Context) CommandResult {
	return g.KeyEvent(ctx, "KEYCODE_WAKEUP")
}

func (g *Gateway) ScreenOff(ctx context.Context) CommandResult {
	return g.KeyEvent(ctx, "KEYCODE_SLEEP")
}

func (g *Gateway) LockScreen(ctx context.Context) CommandResult {
	return g.KeyEvent(ctx, "KEYCODE_POWER")
}

// SetScreenTimeout sets the screen-off timeout in milliseconds.
func (g *Gateway) SetScreenTimeout(ctx context.Context, ms int) CommandResult {
	return g.shell(ctx, "screen-timeout", 0, "settings", "put", "system", "screen_off_timeout", strconv.Itoa(ms))
}

// SetLayoutBounds toggles the developer "show layout bounds" overlay.
func (g *Gateway) SetLayoutBounds(ctx context.Context, on bool) CommandResult {
	if res := g.shell(ctx, "layout-bounds", 0, "setprop", "debug.layout", strconv.FormatBool(on)); !res.Success {
		return res
	}
	// pokes SystemProperties so running apps pick the change up
	return g.shell(ctx, "layout-bounds-poke", 0, "service", "call", "activity", "1599295570")
}

func (g *Gateway) SetGPUOverdraw(ctx context.Context, on bool) CommandResult {
	val := "false"
	if on {
		val = "show"
	}
	return g.shell(ctx, "gpu-overdraw", 0, "setprop", "debug.hwui.overdraw", val)
}

func (g *Gateway) Tap(ctx context.Context, x, y int) CommandResult {
	return g.shell(ctx, "tap", 0, "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
}

func (g *Gateway) Swipe(ctx context.Context, x1, y1, x2, y2, durationMS int) CommandResult {
	if durationMS <= 0 {
		durationMS = 300
	}
	return g.shell(ctx, "swipe", 0, "input", "swipe",
		strconv.Itoa(x1), strconv.Itoa(y1), strconv.Itoa(x2), strconv.Itoa(y2), strconv.Itoa(durationMS))
}

// InputText types text on the device. Spaces are sent as %s, which is what
// `input text` expects.
func (g *Gateway) InputText(ctx context.Context, text string) CommandResult {
	escaped := strings.ReplaceAll(text, " ", "%s")
	escaped = strings.ReplaceAll(escaped, "'", `\'`)
	return g.shell(ctx, "input-text", 0, "input", "text", "'"+escaped+"'")
}
