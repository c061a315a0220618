package ui

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"adboss/internal/adb"
	"adboss/internal/config"
)

// numeric settings edited in the dialog, in display order
var numericSettings = []struct {
	key   string
	label string
}{
	{config.KeyRefreshInterval, "refresh_interval"},
	{config.KeyDevicePollInterval, "device_poll_interval"},
	{config.KeyLogcatMaxLines, "logcat_max_lines"},
	{config.KeyLogcatFlushInterval, "logcat_flush_interval"},
	{config.KeyLogcatCeiling, "logcat_ceiling_factor"},
	{config.KeyShellHistoryMax, "shell_history_max"},
}

// openSettingsDialog edits the adb location, the theme, the language and
// the refresh and buffer settings.
func openSettingsDialog(p *panel) {
	w := p.w
	pathEntry := widget.NewEntry()
	initial := p.cfg.String(config.KeyADBPath)
	if strings.TrimSpace(initial) == "" {
		initial = p.gw.Path()
	}
	pathEntry.SetText(initial)
	pathEntry.SetPlaceHolder(T("adb_path_placeholder"))

	themeSelect := widget.NewSelect(translated(ThemeModes), nil)
	themeSelect.SetSelected(T(p.cfg.String(config.KeyThemeMode)))
	langSelect := widget.NewSelect([]string{"English", "中文"}, nil)
	if Language(p.cfg.String(config.KeyLanguage)) == Chinese {
		langSelect.SetSelected("中文")
	} else {
		langSelect.SetSelected("English")
	}

	form := widget.NewForm(
		widget.NewFormItem(T("adb_path"), pathEntry),
		widget.NewFormItem(T("theme_mode"), themeSelect),
		widget.NewFormItem(T("language"), langSelect),
	)
	numbers := make(map[string]*widget.Entry, len(numericSettings))
	for _, s := range numericSettings {
		e := widget.NewEntry()
		e.SetText(strconv.Itoa(p.cfg.Int(s.key)))
		numbers[s.key] = e
		form.Append(T(s.label), e)
	}

	detectBtn := widget.NewButton(T("detect"), func() {
		found := adb.AutoDetect()
		if found == "" {
			dialog.ShowInformation(T("detect"), T("could_not_auto_detect_adb"), w)
			return
		}
		pathEntry.SetText(found)
	})
	browseBtn := widget.NewButton(T("browse"), func() {
		dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if rc == nil {
				return
			}
			defer rc.Close()
			pathEntry.SetText(rc.URI().Path())
		}, w)
	})
	saveBtn := widget.NewButton(T("save"), func() {
		valid, err := adb.ValidatePath(strings.TrimSpace(pathEntry.Text))
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		values := map[string]any{config.KeyADBPath: valid}
		for _, s := range numericSettings {
			n, err := strconv.Atoi(strings.TrimSpace(numbers[s.key].Text))
			if err != nil || n <= 0 {
				dialog.ShowError(fmt.Errorf("%s: %s", T(s.label), T("invalid_number")), w)
				return
			}
			values[s.key] = n
		}
		mode := "system"
		for _, m := range ThemeModes {
			if T(m) == themeSelect.Selected {
				mode = m
			}
		}
		values[config.KeyThemeMode] = mode
		lang := English
		if langSelect.Selected == "中文" {
			lang = Chinese
		}
		values[config.KeyLanguage] = string(lang)

		for k, v := range values {
			if err := p.cfg.Set(k, v); err != nil {
				dialog.ShowError(err, w)
				return
			}
		}
		p.gw.SetPath(valid)
		ApplyThemeMode(mode)
		SetLanguage(lang)
		dialog.ShowInformation(T("saved"), T("settings_saved"), w)
	})

	content := container.NewVBox(form, container.NewHBox(detectBtn, browseBtn, saveBtn))
	d := dialog.NewCustom(T("settings"), T("close"), content, w)
	d.Resize(fyne.NewSize(520, 0))
	d.Show()
}

func translated(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = T(k)
	}
	return out
}
