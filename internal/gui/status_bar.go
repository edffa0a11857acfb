package gui

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/pminternship/alloc-admin/internal/events"
)

// StatusLevel picks the icon shown next to a status message.
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusSuccess
	StatusWarning
	StatusError
	// StatusProgress swaps the icon for a spinner while a workflow runs.
	StatusProgress
)

var statusIcons = map[StatusLevel]fyne.Resource{
	StatusInfo:    theme.InfoIcon(),
	StatusSuccess: theme.ConfirmIcon(),
	StatusWarning: theme.WarningIcon(),
	StatusError:   theme.ErrorIcon(),
}

// StatusBar is the one-line footer of the dashboard. It carries the last
// workflow message and the time it was shown.
type StatusBar struct {
	widget.BaseWidget

	mu      sync.RWMutex
	level   StatusLevel
	message string
	shownAt time.Time

	icon     *widget.Icon
	activity *widget.Activity
	text     *widget.Label
	clock    *widget.Label
}

func NewStatusBar() *StatusBar {
	sb := &StatusBar{
		icon:     widget.NewIcon(nil),
		activity: widget.NewActivity(),
		text:     widget.NewLabel(""),
		clock:    widget.NewLabel(""),
	}
	sb.text.TextStyle = fyne.TextStyle{Italic: true}
	sb.text.Truncation = fyne.TextTruncateEllipsis
	sb.clock.Importance = widget.LowImportance
	sb.ExtendBaseWidget(sb)
	sb.SetStatus("Ready", StatusInfo)
	return sb
}

// SetStatus must run on the fyne main goroutine.
func (sb *StatusBar) SetStatus(message string, level StatusLevel) {
	now := time.Now()

	sb.mu.Lock()
	sb.level, sb.message, sb.shownAt = level, message, now
	sb.mu.Unlock()

	sb.text.SetText(message)
	sb.clock.SetText(now.Format("15:04:05"))

	if level == StatusProgress {
		sb.icon.Hide()
		sb.activity.Show()
		sb.activity.Start()
		return
	}
	sb.activity.Stop()
	sb.activity.Hide()
	sb.icon.SetResource(statusIcons[level])
	sb.icon.Show()
}

// StatusLevelFor translates a store status into a footer level. A running
// workflow always shows the spinner.
func StatusLevelFor(level events.Level, busy bool) StatusLevel {
	switch {
	case busy:
		return StatusProgress
	case level == events.LevelSuccess:
		return StatusSuccess
	case level == events.LevelError:
		return StatusError
	}
	return StatusInfo
}

func (sb *StatusBar) SetInfo(message string)    { sb.SetStatus(message, StatusInfo) }
func (sb *StatusBar) SetWarning(message string) { sb.SetStatus(message, StatusWarning) }
func (sb *StatusBar) SetError(message string)   { sb.SetStatus(message, StatusError) }

func (sb *StatusBar) GetMessage() string {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.message
}

func (sb *StatusBar) GetLevel() StatusLevel {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.level
}

// ShownAt reports when the current message was set.
func (sb *StatusBar) ShownAt() time.Time {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.shownAt
}

func (sb *StatusBar) CreateRenderer() fyne.WidgetRenderer {
	left := container.NewHBox(sb.icon, sb.activity)
	return widget.NewSimpleRenderer(container.NewBorder(nil, nil, left, sb.clock, sb.text))
}
