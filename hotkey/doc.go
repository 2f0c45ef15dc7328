// Package hotkey keeps a table of global hotkeys in sync with the native OS
// hotkey registry.
//
// A Registry maps the identity of a (Modifier, VKey) pair to a Handler. It is
// attached to a host window through the Host interface; registrations made
// before the window exists are queued and replayed by Attach. When the OS
// reports a WMHotkey message for a live id, the bound Handler is invoked.
//
// The Registry is not safe for concurrent use. Like the window it is attached
// to, it belongs to the host UI thread.
package hotkey
