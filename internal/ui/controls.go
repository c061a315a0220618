package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"adboss/internal/adb"
)

// screen timeouts offered in the controls tab
var screenTimeouts = []time.Duration{
	15 * time.Second,
	30 * time.Second,
	time.Minute,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
	30 * time.Minute,
}

var keyEvents = []string{
	"KEYCODE_HOME",
	"KEYCODE_BACK",
	"KEYCODE_APP_SWITCH",
	"KEYCODE_MENU",
	"KEYCODE_POWER",
	"KEYCODE_VOLUME_UP",
	"KEYCODE_VOLUME_DOWN",
	"KEYCODE_VOLUME_MUTE",
	"KEYCODE_CAMERA",
	"KEYCODE_MEDIA_PLAY_PAUSE",
}

// buildControlsTab gathers device settings, input injection and reboot.
func buildControlsTab(p *panel) fyne.CanvasObject {
	return container.NewVScroll(container.NewVBox(
		widget.NewCard(T("settings"), "", buildSettingsControls(p)),
		widget.NewCard(T("screen"), "", buildScreenControls(p)),
		widget.NewCard(T("input"), "", buildInputControls(p)),
		widget.NewCard(T("system"), "", buildSystemControls(p)),
	))
}

// slider applies its value once the drag ends.
func slider(p *panel, title string, lo, hi, start float64, apply func(ctx context.Context, v int) adb.CommandResult) fyne.CanvasObject {
	s := widget.NewSlider(lo, hi)
	s.Step = 1
	s.SetValue(start)
	value := widget.NewLabel(strconv.Itoa(int(start)))
	s.OnChanged = func(v float64) { value.SetText(strconv.Itoa(int(v))) }
	s.OnChangeEnded = func(v float64) {
		n := int(v)
		p.command(title, func(ctx context.Context) adb.CommandResult { return apply(ctx, n) }, nil)
	}
	return container.NewBorder(nil, nil, widget.NewLabel(title), value, s)
}

// toggle sends on or off; the check state is not read back from the device.
func toggle(p *panel, title string, apply func(ctx context.Context, on bool) adb.CommandResult) *widget.Check {
	return widget.NewCheck(title, func(on bool) {
		p.command(title, func(ctx context.Context) adb.CommandResult { return apply(ctx, on) }, nil)
	})
}

func buildSettingsControls(p *panel) fyne.CanvasObject {
	volume := func(stream int) func(ctx context.Context, v int) adb.CommandResult {
		return func(ctx context.Context, v int) adb.CommandResult { return p.gw.SetVolume(ctx, stream, v) }
	}
	toggles := container.NewGridWithColumns(4,
		toggle(p, "Wi-Fi", p.gw.SetWifi),
		toggle(p, "Bluetooth", p.gw.SetBluetooth),
		toggle(p, T("airplane_mode"), p.gw.SetAirplaneMode),
		toggle(p, T("do_not_disturb"), p.gw.SetDoNotDisturb),
	)
	return container.NewVBox(
		slider(p, T("brightness"), 0, 255, 128, p.gw.SetBrightness),
		slider(p, T("media_volume"), 0, 15, 7, volume(adb.StreamMedia)),
		slider(p, T("ring_volume"), 0, 7, 5, volume(adb.StreamRing)),
		slider(p, T("alarm_volume"), 0, 7, 5, volume(adb.StreamAlarm)),
		toggles,
	)
}

func buildScreenControls(p *panel) fyne.CanvasObject {
	labels := make([]string, len(screenTimeouts))
	for i, d := range screenTimeouts {
		labels[i] = d.String()
	}
	timeout := widget.NewSelect(labels, func(choice string) {
		d, err := time.ParseDuration(choice)
		if err != nil {
			return
		}
		p.command(T("screen_timeout"), func(ctx context.Context) adb.CommandResult {
			return p.gw.SetScreenTimeout(ctx, int(d.Milliseconds()))
		}, nil)
	})
	timeout.PlaceHolder = T("screen_timeout")

	return container.NewVBox(
		container.NewGridWithColumns(3,
			widget.NewButton(T("screen_on"), func() { p.command(T("screen_on"), p.gw.ScreenOn, nil) }),
			widget.NewButton(T("screen_off"), func() { p.command(T("screen_off"), p.gw.ScreenOff, nil) }),
			widget.NewButton(T("lock_screen"), func() { p.command(T("lock_screen"), p.gw.LockScreen, nil) }),
		),
		timeout,
		container.NewGridWithColumns(2,
			toggle(p, T("layout_bounds"), p.gw.SetLayoutBounds),
			toggle(p, T("gpu_overdraw"), p.gw.SetGPUOverdraw),
		),
	)
}

func buildInputControls(p *panel) fyne.CanvasObject {
	key := widget.NewSelectEntry(keyEvents)
	key.SetPlaceHolder("KEYCODE_HOME")
	sendKey := widget.NewButton(T("send"), func() {
		code := strings.TrimSpace(key.Text)
		if code == "" {
			return
		}
		p.command(code, func(ctx context.Context) adb.CommandResult { return p.gw.KeyEvent(ctx, code) }, nil)
	})

	tapEntry := widget.NewEntry()
	tapEntry.SetPlaceHolder("x y")
	tapBtn := widget.NewButton(T("tap"), func() {
		xy, err := ints(tapEntry.Text, 2)
		if err != nil {
			dialog.ShowError(err, p.w)
			return
		}
		p.command(T("tap"), func(ctx context.Context) adb.CommandResult { return p.gw.Tap(ctx, xy[0], xy[1]) }, nil)
	})

	swipeEntry := widget.NewEntry()
	swipeEntry.SetPlaceHolder("x1 y1 x2 y2 ms")
	swipeBtn := widget.NewButton(T("swipe"), func() {
		v, err := ints(swipeEntry.Text, 5)
		if err != nil {
			dialog.ShowError(err, p.w)
			return
		}
		p.command(T("swipe"), func(ctx context.Context) adb.CommandResult {
			return p.gw.Swipe(ctx, v[0], v[1], v[2], v[3], v[4])
		}, nil)
	})

	textEntry := widget.NewEntry()
	textEntry.SetPlaceHolder(T("text_to_type"))
	textBtn := widget.NewButton(T("type_text"), func() {
		text := textEntry.Text
		if text == "" {
			return
		}
		p.command(T("type_text"), func(ctx context.Context) adb.CommandResult { return p.gw.InputText(ctx, text) }, nil)
	})

	row := func(entry fyne.CanvasObject, btn *widget.Button) fyne.CanvasObject {
		return container.NewBorder(nil, nil, nil, btn, entry)
	}
	return container.NewVBox(row(key, sendKey), row(tapEntry, tapBtn), row(swipeEntry, swipeBtn), row(textEntry, textBtn))
}

func buildSystemControls(p *panel) fyne.CanvasObject {
	reboot := func(title, mode string) *widget.Button {
		return widget.NewButton(title, func() {
			if !p.requireDevice() {
				return
			}
			dialog.ShowConfirm(title, T("confirm_reboot"), func(ok bool) {
				if !ok {
					return
				}
				p.command(title, func(ctx context.Context) adb.CommandResult { return p.gw.Reboot(ctx, mode) }, nil)
			}, p.w)
		})
	}

	includeAPKs := widget.NewCheck(T("include_apks"), nil)
	backup := widget.NewButton(T("backup"), func() {
		if !p.requireDevice() {
			return
		}
		name := "backup-" + time.Now().Format("20060102-150405") + ".ab"
		saveTo(p, name, func(local string) {
			apks := includeAPKs.Checked
			p.setStatus(T("backup_confirm_on_device"))
			p.command(T("backup"), func(ctx context.Context) adb.CommandResult {
				return p.gw.Backup(ctx, local, apks)
			}, nil)
		})
	})

	return container.NewVBox(
		container.NewGridWithColumns(3,
			reboot(T("reboot"), ""),
			reboot(T("reboot_bootloader"), "bootloader"),
			reboot(T("reboot_recovery"), "recovery"),
		),
		container.NewHBox(backup, includeAPKs),
	)
}

// ints parses exactly n whitespace separated integers.
func ints(s string, n int) ([]int, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d numbers, got %d", n, len(fields))
	}
	out := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", f)
		}
		out[i] = v
	}
	return out, nil
}
