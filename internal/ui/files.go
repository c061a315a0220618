package ui

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"

	"adboss/internal/config"
	"adboss/internal/logging"
	"adboss/internal/parse"
	"adboss/internal/transfer"
)

// buildFilesTab browses the device file system and moves files both ways.
func buildFilesTab(p *panel) fyne.CanvasObject {
	runner := transfer.NewRunner(p.gw, transfer.WithLogger(logging.For("transfer")))

	var (
		files    []parse.RemoteFile
		selected = -1
		job      *transfer.Job
	)
	pathEntry := widget.NewEntry()
	pathEntry.SetText(p.cfg.String(config.KeyLastRemotePath))

	list := widget.NewList(
		func() int { return len(files) },
		func() fyne.CanvasObject {
			name := canvas.NewText("name", textColor(currentVariant()))
			return container.NewBorder(nil, nil, nil, widget.NewLabel("size"), name)
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i < 0 || i >= len(files) {
				return
			}
			f := files[i]
			box := o.(*fyne.Container)
			name := box.Objects[0].(*canvas.Text)
			name.Text = f.Name
			if f.IsDir {
				name.Text += "/"
			}
			name.Color = fileColor(f.IsDir, currentVariant())
			name.Refresh()
			size := ""
			if !f.IsDir {
				size = humanize.IBytes(uint64(f.Size))
			}
			box.Objects[1].(*widget.Label).SetText(size)
		},
	)

	load := func(dir string) {
		if !p.requireDevice() {
			return
		}
		dir = strings.TrimSpace(dir)
		if dir == "" {
			dir = "/"
		}
		pathEntry.SetText(dir)
		_ = p.cfg.Set(config.KeyLastRemotePath, dir)
		submit(p, "ls", func(ctx context.Context) ([]parse.RemoteFile, error) {
			return p.gw.ListDir(ctx, dir), nil
		}, func(entries []parse.RemoteFile, _ error) {
			files = entries
			selected = -1
			list.UnselectAll()
			list.Refresh()
			p.setStatus(fmt.Sprintf("%s: %d %s", dir, len(entries), T("items")))
		})
	}
	pathEntry.OnSubmitted = load
	list.OnSelected = func(id widget.ListItemID) { selected = id }

	open := func() {
		if selected < 0 || selected >= len(files) || !files[selected].IsDir {
			return
		}
		load(path.Join(pathEntry.Text, files[selected].Name))
	}
	up := func() { load(path.Dir(strings.TrimSuffix(pathEntry.Text, "/"))) }

	progress := widget.NewProgressBar()
	progress.Max = 100
	progressLabel := widget.NewLabel("")
	cancelBtn := widget.NewButton(T("cancel"), func() {
		if job != nil {
			job.Cancel()
		}
	})
	cancelBtn.Disable()

	startTransfer := func(dir transfer.Direction, local, remote string) {
		if job != nil && job.Snapshot().State == transfer.StateRunning {
			dialog.ShowInformation(T("busy"), T("transfer_running"), p.w)
			return
		}
		_ = p.cfg.Set(config.KeyLastLocalPath, filepath.Dir(local))
		progress.SetValue(0)
		cancelBtn.Enable()
		started := time.Now()
		job = runner.Start(p.ctx, dir, local, remote, func(u transfer.Update) {
			fyne.Do(func() {
				progress.SetValue(float64(u.Percent))
				progressLabel.SetText(fmt.Sprintf("%s %s %d%%", u.Direction, path.Base(u.Remote), u.Percent))
				if !u.State.Terminal() {
					return
				}
				cancelBtn.Disable()
				switch u.State {
				case transfer.StateSucceeded:
					p.setStatus(fmt.Sprintf("%s %s: %s", u.Direction, T("done"), time.Since(started).Round(time.Millisecond)))
					if u.Direction == transfer.Push {
						load(pathEntry.Text)
					}
				case transfer.StateFailed:
					dialog.ShowError(fmt.Errorf("%s: %s", u.Direction, u.Message), p.w)
				default:
					p.setStatus(fmt.Sprintf("%s %s", u.Direction, u.State))
				}
			})
		})
	}

	pushBtn := widget.NewButton(T("upload"), func() {
		if !p.requireDevice() {
			return
		}
		dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			local := rc.URI().Path()
			_ = rc.Close()
			startTransfer(transfer.Push, local, path.Join(pathEntry.Text, filepath.Base(local)))
		}, p.w)
	})
	pullBtn := widget.NewButton(T("download"), func() {
		if !p.requireDevice() {
			return
		}
		if selected < 0 || selected >= len(files) {
			dialog.ShowInformation(T("download"), T("please_select_files"), p.w)
			return
		}
		name := files[selected].Name
		remote := path.Join(pathEntry.Text, name)
		saveTo(p, name, func(local string) { startTransfer(transfer.Pull, local, remote) })
	})

	shotBtn := widget.NewButton(T("screenshot"), func() {
		if !p.requireDevice() {
			return
		}
		name := "screenshot-" + time.Now().Format("20060102-150405") + ".png"
		saveTo(p, name, func(local string) {
			submit(p, "screenshot", func(ctx context.Context) (string, error) {
				return local, p.gw.Screenshot(ctx, local)
			}, func(local string, err error) {
				if err != nil {
					dialog.ShowError(err, p.w)
					return
				}
				p.setStatus(T("screenshot_saved") + " " + local)
			})
		})
	})

	var recording string
	recordBtn := widget.NewButton(T("start_recording"), nil)
	recordBtn.OnTapped = func() {
		if !p.requireDevice() {
			return
		}
		if p.gw.Recording() {
			recordBtn.Disable()
			submit(p, "screenrecord-stop", func(ctx context.Context) (struct{}, error) {
				p.gw.StopScreenRecord(ctx)
				return struct{}{}, nil
			}, func(struct{}, error) {
				recordBtn.Enable()
				recordBtn.SetText(T("start_recording"))
				p.setStatus(T("recording_saved") + " " + recording)
			})
			return
		}
		remote := path.Join(pathEntry.Text, "record-"+time.Now().Format("20060102-150405")+".mp4")
		if err := p.gw.StartScreenRecord(p.ctx, remote); err != nil {
			dialog.ShowError(err, p.w)
			return
		}
		recording = remote
		recordBtn.SetText(T("stop_recording"))
	}

	p.onDeviceChange(func(serial string) {
		files = nil
		list.Refresh()
		if serial != "" {
			load(pathEntry.Text)
		}
	})

	nav := container.NewBorder(nil, nil, widget.NewLabel(T("path")),
		container.NewHBox(
			widget.NewButton(T("up"), up),
			widget.NewButton(T("open"), open),
			widget.NewButton(T("refresh"), func() { load(pathEntry.Text) }),
		), pathEntry)
	actions := container.NewHBox(pushBtn, pullBtn, shotBtn, recordBtn)
	status := container.NewBorder(nil, nil, nil, cancelBtn, container.NewVBox(progressLabel, progress))
	return container.NewBorder(container.NewVBox(nav, actions), status, nil, nil, list)
}

// saveTo asks for a local destination, starting in the last used folder.
func saveTo(p *panel, name string, then func(local string)) {
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		local := wc.URI().Path()
		_ = wc.Close()
		then(local)
	}, p.w)
	d.SetFileName(name)
	if dir := p.cfg.String(config.KeyLastLocalPath); dir != "" {
		if uri, err := storage.ListerForURI(storage.NewFileURI(dir)); err == nil {
			d.SetLocation(uri)
		}
	}
	d.Show()
}
