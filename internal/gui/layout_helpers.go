package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// VerticalSpacer creates a fixed-height transparent gap between sections.
func VerticalSpacer(height float32) fyne.CanvasObject {
	spacer := canvas.NewRectangle(nil)
	spacer.SetMinSize(fyne.NewSize(0, height))
	return spacer
}

// HorizontalSpacer creates a fixed-width transparent gap.
func HorizontalSpacer(width float32) fyne.CanvasObject {
	spacer := canvas.NewRectangle(nil)
	spacer.SetMinSize(fyne.NewSize(width, 0))
	return spacer
}

// NewPrimaryButtonWithIcon creates a button drawn in the theme's primary color.
// Fyne only uses ColorNameForegroundOnPrimary for HighImportance buttons.
func NewPrimaryButtonWithIcon(label string, icon fyne.Resource, tapped func()) *widget.Button {
	btn := widget.NewButtonWithIcon(label, icon, tapped)
	btn.Importance = widget.HighImportance
	return btn
}
