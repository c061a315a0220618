// Package ui is the fyne desktop window: a device list on the left and one
// tab per tool on the right.
package ui

import (
	"context"
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"adboss/internal/adb"
	"adboss/internal/config"
	"adboss/internal/logging"
	"adboss/internal/monitor"
	"adboss/internal/parse"
	"adboss/internal/task"
)

// concurrent one-shot adb calls started from the window
const taskLimit = 4

// DefaultWindowSize returns the preferred initial window size.
func DefaultWindowSize() fyne.Size {
	return fyne.NewSize(1200, 760)
}

// panel holds what every tab needs. Its fields are only touched on the fyne
// goroutine, except gw, cfg and tasks which are safe for concurrent use.
type panel struct {
	ctx   context.Context
	w     fyne.Window
	gw    *adb.Gateway
	cfg   *config.Store
	tasks *task.Runner
	log   zerolog.Logger

	status binding.String
	serial binding.String // selected device, "" when none

	// called on the fyne goroutine after the selected device changes
	deviceListeners []func(serial string)
}

// submit runs fn on the task runner and hands its result to done on the
// fyne goroutine.
func submit[T any](p *panel, name string, fn func(context.Context) (T, error), done func(T, error)) {
	task.Submit(p.tasks, p.ctx, name, fn, func(r task.Result[T]) {
		if p.ctx.Err() != nil {
			return
		}
		fyne.Do(func() { done(r.Value, r.Err) })
	})
}

// command runs a gateway call and reports failures in a dialog. ok, if
// non-nil, is called after success.
func (p *panel) command(title string, call func(context.Context) adb.CommandResult, ok func(adb.CommandResult)) {
	if !p.requireDevice() {
		return
	}
	submit(p, title, func(ctx context.Context) (adb.CommandResult, error) {
		return call(ctx), nil
	}, func(res adb.CommandResult, _ error) {
		if !res.Success {
			p.log.Warn().Str("op", title).Str("failure", res.Failure.String()).Int("exit", res.ExitCode).Msg("command failed")
			dialog.ShowError(fmt.Errorf("%s: %s", title, failureText(res)), p.w)
			return
		}
		p.setStatus(title + ": " + T("done"))
		if ok != nil {
			ok(res)
		}
	})
}

func failureText(res adb.CommandResult) string {
	switch res.Failure {
	case adb.FailureToolMissing:
		return T("adb_not_detected")
	case adb.FailureTimeout:
		return T("timed_out")
	case adb.FailureNonZeroExit:
		return fmt.Sprintf("%s (%d)", T("command_failed"), res.ExitCode)
	}
	return res.Failure.String()
}

func (p *panel) requireDevice() bool {
	if strings.TrimSpace(mustGet(p.serial)) == "" {
		dialog.ShowInformation(T("no_device"), T("please_select_device"), p.w)
		return false
	}
	return true
}

func (p *panel) setStatus(s string) { _ = p.status.Set(s) }

func (p *panel) onDeviceChange(fn func(serial string)) {
	p.deviceListeners = append(p.deviceListeners, fn)
}

// BuildUI constructs the main window content and starts device discovery.
// The returned function stops background work; call it after the window
// closes.
func BuildUI(ctx context.Context, w fyne.Window, gw *adb.Gateway, cfg *config.Store) func() {
	ctx, cancel := context.WithCancel(ctx)
	p := &panel{
		ctx:    ctx,
		w:      w,
		gw:     gw,
		cfg:    cfg,
		tasks:  task.NewRunner(taskLimit, logging.For("task")),
		log:    logging.For("ui"),
		status: binding.NewString(),
		serial: binding.NewString(),
	}
	w.SetMainMenu(buildMainMenu(p))

	leftPanel, onDevices := buildDevicesPanel(p)

	dashTab, stopDash := buildDashboardTab(p)
	logcatTab, stopLogcat := buildLogcatTab(p)
	tabs := container.NewAppTabs(
		container.NewTabItem(T("dashboard"), dashTab),
		container.NewTabItem(T("logcat"), logcatTab),
		container.NewTabItem(T("shell"), buildShellTab(p)),
		container.NewTabItem(T("files"), buildFilesTab(p)),
		container.NewTabItem(T("applications"), buildApplicationsTab(p)),
		container.NewTabItem(T("controls"), buildControlsTab(p)),
	)
	tabs.SetTabLocation(container.TabLocationTop)

	split := container.NewHSplit(leftPanel, tabs)
	split.Offset = 0.22

	statusBar := widget.NewLabelWithData(p.status)
	w.SetContent(container.NewBorder(nil, statusBar, nil, nil, split))

	if !gw.Available() {
		dialog.ShowInformation(T("adb_not_found"), T("adb_not_detected"), w)
	}

	disc := monitor.NewDiscovery(gw, cfg.Millis(config.KeyDevicePollInterval), func(devs []parse.Device) {
		fyne.Do(func() { onDevices(devs) })
	}, logging.For("discovery"))
	go func() {
		gw.StartServer(ctx)
		disc.Run(ctx)
	}()

	submit(p, "version", func(ctx context.Context) (string, error) {
		return gw.Version(ctx), nil
	}, func(ver string, _ error) {
		if ver != "" {
			p.setStatus(ver)
		}
	})

	return func() {
		cancel()
		stopDash()
		stopLogcat()
		gw.StopScreenRecord(context.Background())
	}
}

func buildMainMenu(p *panel) *fyne.MainMenu {
	settings := fyne.NewMenuItem(T("settings"), func() {
		openSettingsDialog(p)
	})
	about := fyne.NewMenuItem(T("about"), func() {
		dialog.ShowInformation(T("about"), T("about_description"), p.w)
	})
	return fyne.NewMainMenu(
		fyne.NewMenu(T("file"), settings),
		fyne.NewMenu(T("help"), about),
	)
}

// buildDevicesPanel returns the device list and the callback discovery uses
// to replace its contents.
func buildDevicesPanel(p *panel) (fyne.CanvasObject, func([]parse.Device)) {
	var devices []parse.Device
	header := widget.NewLabelWithStyle(T("devices"), fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	count := widget.NewLabel("")

	list := widget.NewList(
		func() int { return len(devices) },
		func() fyne.CanvasObject {
			return container.NewVBox(
				widget.NewLabelWithStyle("model", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
				widget.NewLabel("serial"),
			)
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i < 0 || i >= len(devices) {
				return
			}
			d := devices[i]
			box := o.(*fyne.Container)
			title := box.Objects[0].(*widget.Label)
			title.Truncation = fyne.TextTruncateEllipsis
			title.SetText(strings.ReplaceAll(d.Model, "_", " "))
			sub := box.Objects[1].(*widget.Label)
			sub.Truncation = fyne.TextTruncateEllipsis
			sub.SetText(fmt.Sprintf("%s · %s", d.Serial, d.RawState))
		},
	)

	selectSerial := func(serial string) {
		if serial == mustGet(p.serial) {
			return
		}
		p.gw.SetDevice(serial)
		_ = p.serial.Set(serial)
		if serial != "" {
			_ = p.cfg.Set(config.KeyLastDevice, serial)
		}
		for _, fn := range p.deviceListeners {
			fn(serial)
		}
	}
	list.OnSelected = func(id widget.ListItemID) {
		if id < 0 || id >= len(devices) {
			return
		}
		d := devices[id]
		if !d.Online() {
			dialog.ShowInformation(d.Label(), T("device_not_ready")+" ("+d.RawState+")", p.w)
			list.UnselectAll()
			return
		}
		selectSerial(d.Serial)
	}

	update := func(devs []parse.Device) {
		devices = devs
		list.Refresh()
		count.SetText(fmt.Sprintf("%s: %d", T("devices"), len(devs)))

		cur := mustGet(p.serial)
		idx := -1
		for i, d := range devs {
			if d.Serial == cur && d.Online() {
				idx = i
			}
		}
		if idx < 0 {
			// keep the last used device, else the first online one
			want := p.cfg.String(config.KeyLastDevice)
			for i, d := range devs {
				if d.Online() && (idx < 0 || d.Serial == want) {
					idx = i
				}
			}
		}
		if idx < 0 {
			list.UnselectAll()
			selectSerial("")
			return
		}
		list.Select(idx)
	}

	return container.NewBorder(container.NewVBox(header, count), nil, nil, nil, list), update
}

// mustGet returns the current value of a binding.String (empty on error).
func mustGet(b binding.String) string {
	v, _ := b.Get()
	return v
}
