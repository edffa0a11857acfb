package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// allocTheme keeps the default look with a teal primary and tighter text.
type allocTheme struct{}

func (t *allocTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameButton:
		return color.NRGBA{R: 0x00, G: 0x7F, B: 0x86, A: 0xFF}
	case theme.ColorNameSuccess:
		return color.NRGBA{R: 0x2E, G: 0x7D, B: 0x32, A: 0xFF}
	case theme.ColorNameError:
		return color.NRGBA{R: 0xC6, G: 0x28, B: 0x28, A: 0xFF}
	case theme.ColorNameWarning:
		return color.NRGBA{R: 0xEF, G: 0x6C, B: 0x00, A: 0xFF}
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *allocTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *allocTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *allocTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 13
	case theme.SizeNameHeadingText:
		return 18
	default:
		return theme.DefaultTheme().Size(name)
	}
}
