// Package hotkeytest provides in-memory OS and Host fakes for code built on
// the hotkey registry.
package hotkeytest

import (
	"errors"
	"slices"

	"github.com/petems/hotkey-tray/hotkey"
)

// Call records one OS call.
type Call struct {
	Op   string // "register" or "unregister"
	ID   int32
	Mods hotkey.Modifier
	Key  hotkey.VKey
}

// FakeOS is an in-memory hotkey.OS.
type FakeOS struct {
	Calls      []Call
	Registered map[int32]bool
	// Reject makes RegisterHotKey fail for the listed ids.
	Reject map[int32]bool
}

func NewOS() *FakeOS {
	return &FakeOS{
		Registered: make(map[int32]bool),
		Reject:     make(map[int32]bool),
	}
}

func (f *FakeOS) RegisterHotKey(_ hotkey.Handle, id int32, mods hotkey.Modifier, key hotkey.VKey) bool {
	f.Calls = append(f.Calls, Call{Op: "register", ID: id, Mods: mods, Key: key})
	if f.Reject[id] || f.Registered[id] {
		return false
	}
	f.Registered[id] = true
	return true
}

func (f *FakeOS) UnregisterHotKey(_ hotkey.Handle, id int32) bool {
	f.Calls = append(f.Calls, Call{Op: "unregister", ID: id})
	if !f.Registered[id] {
		return false
	}
	delete(f.Registered, id)
	return true
}

// Ops returns the recorded operations in order, e.g. ["unregister", "register"].
func (f *FakeOS) Ops() []string {
	ops := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		ops = append(ops, c.Op)
	}
	return ops
}

// Reset forgets recorded calls but keeps registrations.
func (f *FakeOS) Reset() { f.Calls = nil }

// FakeHost is an in-memory hotkey.Host with a single window.
type FakeHost struct {
	Handle    hotkey.Handle
	HasWindow bool
	SourceErr error

	source *FakeSource
}

// NewHost returns a host whose window already exists.
func NewHost() *FakeHost {
	return &FakeHost{Handle: 0x1001, HasWindow: true}
}

func (h *FakeHost) Window() (hotkey.Handle, bool) {
	if !h.HasWindow {
		return 0, false
	}
	return h.Handle, true
}

func (h *FakeHost) Source(handle hotkey.Handle) (hotkey.MessageSource, error) {
	if h.SourceErr != nil {
		return nil, h.SourceErr
	}
	if handle != h.Handle {
		return nil, errors.New("unknown window")
	}
	if h.source == nil || h.source.closed {
		h.source = &FakeSource{handle: handle}
	}
	return h.source, nil
}

// Current returns the last source handed out, or nil.
func (h *FakeHost) Current() *FakeSource { return h.source }

// Send delivers a message to the current source and reports whether a hook
// handled it.
func (h *FakeHost) Send(msg uint32, wParam uintptr) bool {
	if h.source == nil {
		return false
	}
	return h.source.Send(msg, wParam, 0)
}

// FakeSource is an in-memory hotkey.MessageSource.
type FakeSource struct {
	handle hotkey.Handle
	next   hotkey.HookID
	hooks  []hook
	closed bool
	Closes int
}

type hook struct {
	id hotkey.HookID
	fn hotkey.HookFunc
}

func (s *FakeSource) AddHook(fn hotkey.HookFunc) hotkey.HookID {
	s.next++
	s.hooks = append(s.hooks, hook{id: s.next, fn: fn})
	return s.next
}

func (s *FakeSource) RemoveHook(id hotkey.HookID) {
	s.hooks = slices.DeleteFunc(s.hooks, func(h hook) bool { return h.id == id })
}

func (s *FakeSource) Close() error {
	s.closed = true
	s.Closes++
	return nil
}

// Hooks returns the number of installed hooks.
func (s *FakeSource) Hooks() int { return len(s.hooks) }

// Send runs the hooks in order until one handles the message.
func (s *FakeSource) Send(msg uint32, wParam, lParam uintptr) bool {
	for _, h := range slices.Clone(s.hooks) {
		if h.fn(s.handle, msg, wParam, lParam) {
			return true
		}
	}
	return false
}
