package ui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"

	"adboss/internal/adb"
	"adboss/internal/config"
	"adboss/internal/logging"
	"adboss/internal/monitor"
	"adboss/internal/parse"
)

// buildDashboardTab shows the monitor snapshot of the selected device and
// refreshes it on the configured interval while a device is selected.
func buildDashboardTab(p *panel) (fyne.CanvasObject, func()) {
	model := widget.NewLabelWithStyle("-", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	android := widget.NewLabel("")
	uptime := widget.NewLabel("")
	updated := widget.NewLabel("")

	battery := widget.NewProgressBar()
	batteryInfo := widget.NewLabel("")
	memory := widget.NewProgressBar()
	memoryInfo := widget.NewLabel("")
	storage := widget.NewProgressBar()
	storageInfo := widget.NewLabel("")
	cpu := widget.NewProgressBar()
	display := widget.NewLabel("")
	network := widget.NewLabel("")

	var top []parse.Process
	topList := widget.NewList(
		func() int { return len(top) },
		func() fyne.CanvasObject {
			return widget.NewLabelWithStyle("pid cpu name", fyne.TextAlignLeading, fyne.TextStyle{Monospace: true})
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && i < len(top) {
				o.(*widget.Label).SetText(fmt.Sprintf("%6d %5.1f%%  %s", top[i].PID, top[i].CPU, top[i].Name))
			}
		},
	)

	for _, pb := range []*widget.ProgressBar{battery, memory, storage, cpu} {
		pb.Max = 100
	}

	show := func(s monitor.Snapshot, err error) {
		if err != nil {
			model.SetText(T("device_not_responding"))
			return
		}
		model.SetText(s.Info.Manufacturer + " " + s.Info.Model)
		android.SetText(fmt.Sprintf("Android %s (SDK %s) · %s", s.Info.AndroidVersion, s.Info.SDKVersion, s.Info.BuildID))
		uptime.SetText(T("uptime") + ": " + parse.FormatUptime(s.Info.Uptime))
		updated.SetText(T("updated") + " " + humanize.Time(s.Taken))

		battery.SetValue(float64(s.Battery.Level))
		batteryInfo.SetText(fmt.Sprintf("%s · %.1f°C · %s", s.Battery.Status, s.Battery.Temperature, s.Battery.Health))
		if s.Memory.TotalKB > 0 {
			memory.SetValue(float64(s.Memory.UsedKB) * 100 / float64(s.Memory.TotalKB))
		}
		memoryInfo.SetText(parse.FormatKB(s.Memory.UsedKB) + " / " + parse.FormatKB(s.Memory.TotalKB))
		storage.SetValue(s.Storage.UsedPercent())
		storageInfo.SetText(parse.FormatKB(s.Storage.UsedKB) + " / " + parse.FormatKB(s.Storage.TotalKB))
		cpu.SetValue(s.CPU.UsagePercent)
		display.SetText(fmt.Sprintf("%s @ %d dpi", s.Display.Resolution(), s.Display.DPI))
		network.SetText(fmt.Sprintf("%s · %s · %d dBm", s.Network.SSID, s.Network.IP, s.Network.RSSI))
		top = s.CPU.Top
		topList.Refresh()
	}

	var stop context.CancelFunc = func() {}
	p.onDeviceChange(func(serial string) {
		stop()
		stop = func() {}
		if serial == "" {
			model.SetText("-")
			return
		}
		ctx, cancel := context.WithCancel(p.ctx)
		stop = cancel
		poller := monitor.NewPoller(p.gw, p.cfg.Millis(config.KeyRefreshInterval), func(s monitor.Snapshot, err error) {
			// a late result for a previous device is dropped
			if s.Serial != serial || ctx.Err() != nil {
				return
			}
			fyne.Do(func() { show(s, err) })
		}, logging.For("dashboard"))
		go poller.Run(ctx)
	})

	batteryBtn := widget.NewButton(T("set_battery"), func() { openBatteryDialog(p) })

	form := widget.NewForm(
		widget.NewFormItem(T("battery"), container.NewVBox(battery, batteryInfo)),
		widget.NewFormItem(T("memory"), container.NewVBox(memory, memoryInfo)),
		widget.NewFormItem(T("storage"), container.NewVBox(storage, storageInfo)),
		widget.NewFormItem("CPU", cpu),
		widget.NewFormItem(T("display"), display),
		widget.NewFormItem(T("network"), network),
	)
	header := container.NewVBox(model, android, container.NewHBox(uptime, updated), form, batteryBtn,
		widget.NewLabelWithStyle(T("top_processes"), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
	return container.NewBorder(header, nil, nil, nil, topList), func() { stop() }
}

func openBatteryDialog(p *panel) {
	if !p.requireDevice() {
		return
	}
	level := widget.NewSlider(0, 100)
	level.Step = 1
	level.SetValue(50)
	value := widget.NewLabel("50%")
	level.OnChanged = func(v float64) { value.SetText(fmt.Sprintf("%.0f%%", v)) }

	var d dialog.Dialog
	apply := widget.NewButton(T("apply"), func() {
		n := int(level.Value)
		p.command(T("set_battery"), func(ctx context.Context) adb.CommandResult {
			return p.gw.SetBatteryLevel(ctx, n)
		}, nil)
		d.Hide()
	})
	reset := widget.NewButton(T("reset"), func() {
		p.command(T("reset_battery"), p.gw.ResetBattery, nil)
		d.Hide()
	})
	d = dialog.NewCustom(T("set_battery"), T("close"),
		container.NewVBox(container.NewBorder(nil, nil, nil, value, level), container.NewHBox(apply, reset)), p.w)
	d.Resize(fyne.NewSize(360, 160))
	d.Show()
}
