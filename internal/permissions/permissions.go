// Package permissions checks the OS permissions global hotkeys need.
package permissions

import "errors"

// ErrAccessibility is returned when the process is not trusted for
// accessibility.
var ErrAccessibility = errors.New("accessibility permission not granted")

const settingsHint = "System Settings → Privacy & Security → Accessibility"
