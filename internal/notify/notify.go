// Package notify shows desktop notifications.
package notify

import (
	"sync/atomic"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

const appName = "Hotkey Tray"

const maxMessage = 100

// Notifier sends desktop notifications. Delivery failures are logged and
// otherwise ignored.
type Notifier struct {
	enabled atomic.Bool
	log     zerolog.Logger

	notify func(title, message, icon string) error
	alert  func(title, message, icon string) error
}

// New creates a Notifier.
func New(enabled bool, log zerolog.Logger) *Notifier {
	n := &Notifier{
		log:    log,
		notify: beeep.Notify,
		alert:  beeep.Alert,
	}
	n.enabled.Store(enabled)
	return n
}

// SetEnabled turns notifications on or off.
func (n *Notifier) SetEnabled(enabled bool) { n.enabled.Store(enabled) }

// Enabled reports whether notifications are shown.
func (n *Notifier) Enabled() bool { return n.enabled.Load() }

// Info shows an informational notification.
func (n *Notifier) Info(title, message string) {
	n.send(n.notify, title, message)
}

// Error shows an error notification with the platform alert sound.
func (n *Notifier) Error(title, message string) {
	n.send(n.alert, title, message)
}

func (n *Notifier) send(fn func(string, string, string) error, title, message string) {
	if !n.enabled.Load() {
		return
	}
	if len(message) > maxMessage {
		message = message[:maxMessage] + "..."
	}
	if title != "" {
		title = appName + ": " + title
	} else {
		title = appName
	}
	if err := fn(title, message, ""); err != nil {
		n.log.Debug().Err(err).Str("title", title).Msg("Notification not delivered")
	}
}
