package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"adboss/internal/parse"
)

// adaptiveTheme softens the stock palettes: neutral greys for surfaces and
// near-black or near-white text. A fixed variant overrides the desktop one.
type adaptiveTheme struct {
	base    fyne.Theme
	fixed   bool
	variant fyne.ThemeVariant
}

var _ fyne.Theme = (*adaptiveTheme)(nil)

func newAdaptiveTheme(fixed bool, variant fyne.ThemeVariant) *adaptiveTheme {
	return &adaptiveTheme{base: theme.DefaultTheme(), fixed: fixed, variant: variant}
}

func (t *adaptiveTheme) resolve(variant fyne.ThemeVariant) fyne.ThemeVariant {
	if t.fixed {
		return t.variant
	}
	return variant
}

func grey(v uint8) color.Color { return color.NRGBA{R: v, G: v, B: v, A: 255} }

// pick returns light for the light variant and dark otherwise.
func pick(variant fyne.ThemeVariant, light, dark color.Color) color.Color {
	if variant == theme.VariantLight {
		return light
	}
	return dark
}

func (t *adaptiveTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	variant = t.resolve(variant)
	switch name {
	case theme.ColorNameForeground:
		return textColor(variant)
	case theme.ColorNameBackground:
		return pick(variant, grey(250), grey(40))
	case theme.ColorNameButton:
		return pick(variant, grey(240), grey(60))
	case theme.ColorNameHover:
		return pick(variant, grey(220), grey(80))
	case theme.ColorNamePressed:
		return pick(variant, grey(200), grey(100))
	case theme.ColorNameInputBackground:
		return pick(variant, color.White, grey(50))
	case theme.ColorNamePlaceHolder:
		return pick(variant, grey(150), grey(180))
	case theme.ColorNameScrollBar:
		return pick(variant, grey(180), grey(120))
	case theme.ColorNameShadow:
		return pick(variant, color.NRGBA{A: 30}, color.NRGBA{R: 255, G: 255, B: 255, A: 30})
	}
	return t.base.Color(name, variant)
}

func (t *adaptiveTheme) Font(style fyne.TextStyle) fyne.Resource { return t.base.Font(style) }

func (t *adaptiveTheme) Icon(name fyne.ThemeIconName) fyne.Resource { return t.base.Icon(name) }

func (t *adaptiveTheme) Size(name fyne.ThemeSizeName) float32 { return t.base.Size(name) }

func textColor(variant fyne.ThemeVariant) color.Color {
	return pick(variant, grey(33), grey(245))
}

// fileColor colors directory rows blue and files like plain text.
func fileColor(isDir bool, variant fyne.ThemeVariant) color.Color {
	if isDir {
		return pick(variant, color.NRGBA{R: 0, G: 100, B: 200, A: 255}, color.NRGBA{R: 100, G: 150, B: 255, A: 255})
	}
	return textColor(variant)
}

// levelColor is the logcat row color for a severity.
func levelColor(l parse.Level, variant fyne.ThemeVariant) color.Color {
	switch l {
	case parse.LevelVerbose:
		return pick(variant, grey(130), grey(150))
	case parse.LevelDebug:
		return pick(variant, color.NRGBA{R: 0, G: 90, B: 180, A: 255}, color.NRGBA{R: 110, G: 170, B: 255, A: 255})
	case parse.LevelWarning:
		return pick(variant, color.NRGBA{R: 170, G: 110, B: 0, A: 255}, color.NRGBA{R: 240, G: 190, B: 60, A: 255})
	case parse.LevelError:
		return pick(variant, color.NRGBA{R: 200, G: 30, B: 30, A: 255}, color.NRGBA{R: 255, G: 100, B: 100, A: 255})
	case parse.LevelFatal:
		return pick(variant, color.NRGBA{R: 150, G: 0, B: 120, A: 255}, color.NRGBA{R: 255, G: 90, B: 220, A: 255})
	}
	return textColor(variant)
}

// currentVariant reports the variant the running app renders with.
func currentVariant() fyne.ThemeVariant {
	a := fyne.CurrentApp()
	if a == nil {
		return theme.VariantLight
	}
	if t, ok := a.Settings().Theme().(*adaptiveTheme); ok {
		return t.resolve(a.Settings().ThemeVariant())
	}
	return a.Settings().ThemeVariant()
}
