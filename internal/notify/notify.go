// Package notify raises a desktop notification when a dashboard workflow
// settles, through github.com/gen2brain/beeep.
package notify

import (
	"sync/atomic"

	"github.com/gen2brain/beeep"

	"github.com/pminternship/alloc-admin/internal/logging"
)

const maxMessageRunes = 160

// Notifier satisfies core.Notifier.
type Notifier struct {
	logger  *logging.Logger
	enabled atomic.Bool

	// send and alert are swapped out in tests.
	send  func(title, message string) error
	alert func(title, message string) error
}

func NewNotifier(enabled bool, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	n := &Notifier{
		logger: logger,
		send:   func(title, message string) error { return beeep.Notify(title, message, "") },
		alert:  func(title, message string) error { return beeep.Alert(title, message, "") },
	}
	n.enabled.Store(enabled)
	return n
}

func (n *Notifier) SetEnabled(enabled bool) { n.enabled.Store(enabled) }

func (n *Notifier) IsEnabled() bool { return n.enabled.Load() }

// Notify shows a settled workflow. Failures try the louder alert first and
// fall back to a plain notification when the platform has no alert style.
func (n *Notifier) Notify(title, message string, isError bool) {
	if !n.IsEnabled() {
		return
	}

	message = truncate(message, maxMessageRunes)
	if isError && n.alert(title, message) == nil {
		return
	}
	if err := n.send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("title", title).Msg("Failed to send desktop notification")
	}
}

// truncate cuts s to at most limit runes, ending in "..." when shortened.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}
