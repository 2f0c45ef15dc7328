package hotkey

import (
	"github.com/rs/zerolog"
)

type pendingFunc struct {
	mods      Modifier
	key       VKey
	callbacks []Callback
}

type pendingHandler struct {
	mods    Modifier
	key     VKey
	handler Handler
}

// Registry binds hotkey identities to handlers and keeps the OS registry in
// sync. All methods must be called from the host UI thread.
type Registry struct {
	os   OS
	host Host
	log  zerolog.Logger

	window   Handle
	source   MessageSource
	hookID   HookID
	attached bool

	live      map[int32]Handler
	invisible []pendingFunc
	visual    []pendingHandler
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registry diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// New creates a detached registry.
func New(os OS, host Host, opts ...Option) *Registry {
	r := &Registry{
		os:   os,
		host: host,
		log:  zerolog.Nop(),
		live: make(map[int32]Handler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsAttached reports whether the registry is attached to a window.
func (r *Registry) IsAttached() bool { return r.attached }

// Attach hooks the registry to the host window and replays queued
// registrations. It does nothing while the window does not exist; callers
// retry once it does.
func (r *Registry) Attach() {
	if r.attached {
		return
	}

	h, ok := r.host.Window()
	if !ok {
		r.log.Debug().Msg("Attach deferred: no window yet")
		return
	}
	src, err := r.host.Source(h)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to open window message source")
		return
	}

	r.window = h
	r.source = src
	r.hookID = src.AddHook(r.hook)
	r.attached = true
	r.log.Debug().
		Int("queued_funcs", len(r.invisible)).
		Int("queued_handlers", len(r.visual)).
		Msg("Attached")

	invisible := r.invisible
	r.invisible = nil
	for _, p := range invisible {
		r.RegisterFunc(p.mods, p.key, p.callbacks...)
	}

	visual := r.visual
	r.visual = nil
	for _, p := range visual {
		r.register(p.mods, p.key, p.handler)
	}
}

// Detach unregisters every live hotkey and unhooks the window.
func (r *Registry) Detach() {
	if !r.attached {
		return
	}

	for id := range r.live {
		if !r.os.UnregisterHotKey(r.window, id) {
			r.log.Debug().Int32("id", id).Msg("UnregisterHotKey failed during detach")
		}
	}
	clear(r.live)

	r.source.RemoveHook(r.hookID)
	if err := r.source.Close(); err != nil {
		r.log.Warn().Err(err).Msg("Failed to release message source")
	}
	r.source = nil
	r.window = 0
	r.attached = false
	r.log.Debug().Msg("Detached")
}

// Register binds h under its current modifiers and key. It returns the live
// id, Deferred when queued for Attach, or Invalid.
func (r *Registry) Register(h Handler) int32 {
	if h == nil {
		return Invalid
	}
	return r.register(h.Modifiers(), h.Key(), h)
}

func (r *Registry) register(mods Modifier, key VKey, h Handler) int32 {
	if !registrable(mods, key) {
		return Invalid
	}
	if !r.attached {
		r.visual = append(r.visual, pendingHandler{mods: mods, key: key, handler: h})
		return Deferred
	}

	id := r.claim(mods, key)
	if !r.os.RegisterHotKey(r.window, id, mods, key) {
		r.log.Warn().Str("hotkey", formatBinding(mods, key)).Int32("id", id).Msg("RegisterHotKey rejected")
		return Invalid
	}
	r.live[id] = h
	return id
}

// RegisterFunc binds callbacks to (mods, key) through a Component.
func (r *Registry) RegisterFunc(mods Modifier, key VKey, callbacks ...Callback) int32 {
	if !registrable(mods, key) {
		return Invalid
	}
	if !r.attached {
		r.invisible = append(r.invisible, pendingFunc{mods: mods, key: key, callbacks: callbacks})
		return Deferred
	}

	id := r.claim(mods, key)
	if !r.os.RegisterHotKey(r.window, id, mods, key) {
		r.log.Warn().Str("hotkey", formatBinding(mods, key)).Int32("id", id).Msg("RegisterHotKey rejected")
		return Invalid
	}
	r.live[id] = NewComponent(mods, key, callbacks...)
	return id
}

// registrable reports whether (mods, key) can be registered: both must be
// set and the id must not collide with a result sentinel, which only
// out-of-range key codes can produce.
func registrable(mods Modifier, key VKey) bool {
	if mods == 0 || key == 0 {
		return false
	}
	id := ID(mods, key)
	return id != Invalid && id != Deferred
}

// claim frees the id of (mods, key) both in the OS and in the live map,
// notifying a displaced handler.
func (r *Registry) claim(mods Modifier, key VKey) int32 {
	id := ID(mods, key)
	r.os.UnregisterHotKey(r.window, id)
	if old, ok := r.live[id]; ok {
		delete(r.live, id)
		r.log.Debug().Int32("id", id).Msg("Hotkey covered by new registration")
		old.Covered()
	}
	return id
}

// Unregister removes the (mods, key) hotkey. The result is what the OS
// reported; the live entry is dropped either way. Queued registrations are
// not affected.
func (r *Registry) Unregister(mods Modifier, key VKey) bool {
	id := ID(mods, key)
	ok := r.os.UnregisterHotKey(r.window, id)
	delete(r.live, id)
	return ok
}

// Lookup returns the live handler bound to id.
func (r *Registry) Lookup(id int32) (Handler, bool) {
	h, ok := r.live[id]
	return h, ok
}

// Len returns the number of live hotkeys.
func (r *Registry) Len() int { return len(r.live) }

// Pending returns the number of registrations waiting for Attach.
func (r *Registry) Pending() int { return len(r.invisible) + len(r.visual) }

func (r *Registry) hook(_ Handle, msg uint32, wParam, _ uintptr) bool {
	if msg != WMHotkey {
		return false
	}
	if h, ok := r.live[int32(wParam)]; ok {
		h.Invoke()
	}
	return true
}
