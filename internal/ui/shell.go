package ui

import (
	"context"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"adboss/internal/config"
	"adboss/internal/logging"
	"adboss/internal/shell"
)

// shell output kept in the transcript view
const transcriptMax = 2000

// historyEntry is a single-line entry that walks the command history with
// the arrow keys.
type historyEntry struct {
	widget.Entry
	prev func() (string, bool)
	next func() (string, bool)
}

func newHistoryEntry(prev, next func() (string, bool)) *historyEntry {
	e := &historyEntry{prev: prev, next: next}
	e.ExtendBaseWidget(e)
	return e
}

func (e *historyEntry) TypedKey(key *fyne.KeyEvent) {
	var recall func() (string, bool)
	switch key.Name {
	case fyne.KeyUp:
		recall = e.prev
	case fyne.KeyDown:
		recall = e.next
	default:
		e.Entry.TypedKey(key)
		return
	}
	if cmd, ok := recall(); ok {
		e.SetText(cmd)
		e.CursorColumn = len([]rune(cmd))
		e.Refresh()
	}
}

func buildShellTab(p *panel) fyne.CanvasObject {
	console := shell.NewConsole(p.gw, p.cfg.Int(config.KeyShellHistoryMax), logging.For("shell"))

	var transcript []string
	out := widget.NewTextGrid()
	scroll := container.NewScroll(out)
	appendOutput := func(lines ...string) {
		transcript = append(transcript, lines...)
		if len(transcript) > transcriptMax {
			transcript = transcript[len(transcript)-transcriptMax:]
		}
		out.SetText(strings.Join(transcript, "\n"))
		scroll.ScrollToBottom()
	}

	input := newHistoryEntry(console.Prev, console.Next)
	input.SetPlaceHolder(T("shell_placeholder"))

	run := func(line string) {
		if strings.TrimSpace(line) == "" || !p.requireDevice() {
			return
		}
		input.SetText("")
		serial := mustGet(p.serial)
		appendOutput(serial + " $ " + strings.TrimSpace(line))
		submit(p, "shell", func(ctx context.Context) (shell.Entry, error) {
			return console.Run(ctx, line)
		}, func(e shell.Entry, err error) {
			if err != nil {
				return
			}
			if e.Output != "" {
				appendOutput(e.Output)
			}
		})
	}
	input.OnSubmitted = run

	runBtn := widget.NewButton(T("run"), func() { run(input.Text) })
	clearBtn := widget.NewButton(T("clear"), func() {
		transcript = nil
		out.SetText("")
	})
	reboot := widget.NewSelect([]string{T("reboot"), T("reboot_bootloader"), T("reboot_recovery")}, nil)
	reboot.PlaceHolder = T("reboot")
	reboot.OnChanged = func(choice string) {
		if choice == "" {
			return
		}
		reboot.ClearSelected()
		switch choice {
		case T("reboot_bootloader"):
			run("__reboot_bootloader__")
		case T("reboot_recovery"):
			run("__reboot_recovery__")
		default:
			run("__reboot__")
		}
	}

	bottom := container.NewBorder(nil, nil, nil, container.NewHBox(runBtn, clearBtn, reboot), input)
	return container.NewBorder(nil, bottom, nil, nil, scroll)
}
