package ui

import (
	"image/color"
	"strconv"
	"strings"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"adboss/internal/config"
	"adboss/internal/logcat"
	"adboss/internal/logging"
	"adboss/internal/parse"
)

// logRow is one monospaced line of the logcat view, colored by level.
type logRow struct {
	widget.BaseWidget
	text  string
	color color.Color
}

func newLogRow() *logRow {
	r := &logRow{}
	r.ExtendBaseWidget(r)
	return r
}

func (r *logRow) set(text string, c color.Color) {
	r.text, r.color = text, c
	r.Refresh()
}

func (r *logRow) CreateRenderer() fyne.WidgetRenderer {
	text := canvas.NewText(r.text, r.color)
	text.TextStyle = fyne.TextStyle{Monospace: true}
	return &logRowRenderer{row: r, text: text}
}

type logRowRenderer struct {
	row  *logRow
	text *canvas.Text
}

func (r *logRowRenderer) Layout(size fyne.Size) { r.text.Resize(size) }

func (r *logRowRenderer) MinSize() fyne.Size { return r.text.MinSize() }

func (r *logRowRenderer) Refresh() {
	r.text.Text = r.row.text
	r.text.Color = r.row.color
	r.text.Refresh()
}

func (r *logRowRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.text} }

func (r *logRowRenderer) Destroy() {}

// logView is the Sink for the logcat session. Batches arrive on the flusher
// goroutine; the list reads the buffer on the fyne goroutine.
type logView struct {
	list    *widget.List
	count   *widget.Label
	buf     *logcat.Buffer
	follow  atomic.Bool
	pending atomic.Bool
}

func (v *logView) AppendBatch([]parse.LogLine) {
	// coalesce: one refresh is enough for any number of queued batches
	if !v.pending.CompareAndSwap(false, true) {
		return
	}
	fyne.Do(func() {
		v.pending.Store(false)
		v.list.Refresh()
		v.count.SetText(strconv.Itoa(v.buf.Len()) + " " + T("lines"))
		if v.follow.Load() {
			v.list.ScrollToBottom()
		}
	})
}

func formatLogLine(l parse.LogLine) string {
	if l.Level == parse.LevelUnknown {
		return l.Raw
	}
	return l.Timestamp + " " + strconv.Itoa(l.PID) + " " + l.Level.Char() + " " + l.Tag + ": " + l.Message
}

var logLevels = []string{"Verbose", "Debug", "Info", "Warning", "Error", "Fatal"}

func buildLogcatTab(p *panel) (fyne.CanvasObject, func()) {
	buf := logcat.NewBuffer(p.cfg.Int(config.KeyLogcatMaxLines), p.cfg.Int(config.KeyLogcatCeiling))
	view := &logView{buf: buf, count: widget.NewLabel("")}
	view.follow.Store(true)

	view.list = widget.NewList(
		func() int { return buf.Len() },
		func() fyne.CanvasObject { return newLogRow() },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			l, ok := buf.At(i)
			if !ok {
				return
			}
			o.(*logRow).set(formatLogLine(l), levelColor(l.Level, currentVariant()))
		},
	)

	session := logcat.NewSession(p.gw, buf, view,
		logcat.WithFlushInterval(p.cfg.Millis(config.KeyLogcatFlushInterval)),
		logcat.WithLogger(logging.For("logcat")))

	levelSelect := widget.NewSelect(logLevels, nil)
	levelSelect.PlaceHolder = T("min_level")
	tagEntry := widget.NewEntry()
	tagEntry.SetPlaceHolder(T("tag"))
	pidEntry := widget.NewEntry()
	pidEntry.SetPlaceHolder("PID")
	textEntry := widget.NewEntry()
	textEntry.SetPlaceHolder(T("search"))

	applyFilter := func() {
		pid, _ := strconv.Atoi(strings.TrimSpace(pidEntry.Text))
		session.SetFilter(logcat.Filter{
			MinLevel:   parse.ParseLevel(levelSelect.Selected),
			Tag:        strings.TrimSpace(tagEntry.Text),
			PID:        pid,
			Text:       textEntry.Text,
			IgnoreCase: true,
		})
	}
	levelSelect.OnChanged = func(string) { applyFilter() }
	tagEntry.OnChanged = func(string) { applyFilter() }
	pidEntry.OnChanged = func(string) { applyFilter() }
	textEntry.OnChanged = func(string) { applyFilter() }

	var startBtn *widget.Button
	setRunning := func(running bool) {
		if running {
			startBtn.SetText(T("stop"))
		} else {
			startBtn.SetText(T("start"))
		}
	}
	watchEnd := func() {
		done := session.Done()
		if done == nil {
			return
		}
		go func() {
			<-done
			err := session.Err()
			fyne.Do(func() {
				setRunning(session.Running())
				if err != nil {
					p.setStatus("logcat: " + err.Error())
				}
			})
		}()
	}
	start := func() {
		if !p.requireDevice() {
			return
		}
		if err := session.Start(p.ctx); err != nil {
			dialog.ShowError(err, p.w)
			return
		}
		setRunning(true)
		watchEnd()
	}
	startBtn = widget.NewButton(T("start"), func() {
		if session.Running() {
			session.Stop()
			setRunning(false)
			return
		}
		start()
	})

	pauseCheck := widget.NewCheck(T("pause"), session.SetPaused)
	followCheck := widget.NewCheck(T("auto_scroll"), func(on bool) {
		view.follow.Store(on)
		// browsing older lines suspends trimming until the view follows again
		session.SetLiveEdge(on)
		if on {
			view.list.Refresh()
			view.list.ScrollToBottom()
		}
	})
	followCheck.SetChecked(true)

	clearBtn := widget.NewButton(T("clear"), func() {
		session.Clear()
		view.list.Refresh()
		view.count.SetText("0 " + T("lines"))
	})
	exportBtn := widget.NewButton(T("export"), func() {
		dialog.ShowFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil || wc == nil {
				return
			}
			path := wc.URI().Path()
			_ = wc.Close()
			n, err := session.Export(path)
			if err != nil {
				dialog.ShowError(err, p.w)
				return
			}
			p.setStatus(strconv.Itoa(n) + " " + T("lines_exported") + " " + path)
		}, p.w)
	})

	p.onDeviceChange(func(serial string) {
		wasRunning := session.Running()
		session.Stop()
		setRunning(false)
		if wasRunning && serial != "" {
			start()
		}
	})

	filters := container.NewGridWithColumns(4, levelSelect, tagEntry, pidEntry, textEntry)
	actions := container.NewHBox(startBtn, pauseCheck, followCheck, clearBtn, exportBtn, view.count)
	return container.NewBorder(container.NewVBox(filters, actions), nil, nil, nil, view.list), session.Stop
}
