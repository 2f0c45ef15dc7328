package hotkey

// WMHotkey is the window message delivered when a registered hotkey fires.
// wParam carries the registry id.
const WMHotkey uint32 = 0x0312

// Handle identifies the host window that owns the OS registrations.
type Handle uintptr

// HookID identifies an installed hook on a MessageSource.
type HookID int

// HookFunc receives window messages. Returning true marks the message handled.
type HookFunc func(h Handle, msg uint32, wParam, lParam uintptr) (handled bool)

// OS is the native global-hotkey facility.
type OS interface {
	RegisterHotKey(h Handle, id int32, mods Modifier, key VKey) bool
	UnregisterHotKey(h Handle, id int32) bool
}

// Host is the GUI environment that owns the top-level window.
type Host interface {
	// Window returns the current top-level window. ok is false while the
	// window does not exist yet.
	Window() (h Handle, ok bool)
	// Source returns the message stream of window h.
	Source(h Handle) (MessageSource, error)
}

// MessageSource is a window message stream that accepts hooks.
type MessageSource interface {
	AddHook(fn HookFunc) HookID
	RemoveHook(id HookID)
	Close() error
}
