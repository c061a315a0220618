package ui

import (
	"os"
	"os/exec"
	"runtime"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// ThemeModes are the values accepted for the theme_mode setting.
var ThemeModes = []string{"system", "light", "dark"}

// detectSystemDark asks the desktop whether it prefers a dark palette.
// known is false when the platform gives no answer.
func detectSystemDark() (dark, known bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("FYNE_THEME"))) {
	case "dark":
		return true, true
	case "light":
		return false, true
	}

	switch runtime.GOOS {
	case "darwin":
		// the key only exists while dark mode is on
		out, err := exec.Command("defaults", "read", "-g", "AppleInterfaceStyle").CombinedOutput()
		return err == nil && strings.Contains(strings.ToLower(string(out)), "dark"), true
	case "linux":
		out, err := exec.Command("gsettings", "get", "org.gnome.desktop.interface", "color-scheme").CombinedOutput()
		if err == nil {
			s := strings.ToLower(string(out))
			switch {
			case strings.Contains(s, "prefer-dark"):
				return true, true
			case strings.Contains(s, "default"), strings.Contains(s, "prefer-light"):
				return false, true
			}
		}
		out, err = exec.Command("gsettings", "get", "org.gnome.desktop.interface", "gtk-theme").CombinedOutput()
		if err == nil && strings.Contains(strings.ToLower(string(out)), "dark") {
			return true, true
		}
	}
	return false, false
}

// ApplyThemeMode installs the adaptive theme for "light", "dark" or
// "system". Unknown values behave like "system".
func ApplyThemeMode(mode string) {
	a := fyne.CurrentApp()
	if a == nil {
		return
	}
	var t *adaptiveTheme
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "dark":
		t = newAdaptiveTheme(true, theme.VariantDark)
	case "light":
		t = newAdaptiveTheme(true, theme.VariantLight)
	default:
		if dark, known := detectSystemDark(); known {
			variant := theme.VariantLight
			if dark {
				variant = theme.VariantDark
			}
			t = newAdaptiveTheme(true, variant)
		} else {
			t = newAdaptiveTheme(false, theme.VariantLight)
		}
	}
	a.Settings().SetTheme(t)
}
