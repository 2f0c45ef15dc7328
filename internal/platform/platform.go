// Package platform provides the native global hotkey facility behind
// hotkey.OS.
//
// Backends deliver fired hotkeys to a Sink from their own goroutine; the
// sink is expected to forward the id onto the UI thread.
package platform

import (
	"github.com/petems/hotkey-tray/hotkey"
)

// Sink receives the registry id of a fired hotkey.
type Sink func(id int32)

// Backend is an OS hotkey facility that owns native resources.
type Backend interface {
	hotkey.OS
	// Name identifies the implementation in logs.
	Name() string
	// Close unregisters everything still registered and releases the
	// backend. The backend must not be used afterwards.
	Close() error
}
