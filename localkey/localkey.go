// Package localkey tracks window-scoped key chords from raw key-down and
// key-up events.
//
// Unlike global hotkeys a local chord is any set of keys, modifiers included,
// that must be held together while the target has focus. Trackers are fed by
// the owner of the target; they never touch the OS.
package localkey

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/petems/hotkey-tray/hotkey"
)

// Chord is the key set of a local hotkey.
type Chord []hotkey.VKey

func (c Chord) String() string {
	names := make([]string, len(c))
	for i, k := range c {
		names[i] = hotkey.KeyName(k)
	}
	return strings.Join(names, "+")
}

var modifierKeys = map[string]hotkey.VKey{
	"CTRL":    hotkey.VKControl,
	"CONTROL": hotkey.VKControl,
	"SHIFT":   hotkey.VKShift,
	"ALT":     hotkey.VKMenu,
	"WIN":     hotkey.VKLWin,
	"SUPER":   hotkey.VKLWin,
}

// ParseChord parses "Ctrl+Shift+P" into its keys. Unlike a global binding a
// chord may consist of a single key and may contain only modifiers.
func ParseChord(spec string) (Chord, error) {
	raw := strings.TrimSpace(spec)
	if raw == "" {
		return nil, fmt.Errorf("chord is empty")
	}
	var chord Chord
	for _, token := range strings.Split(raw, "+") {
		name := strings.ToUpper(strings.TrimSpace(token))
		if k, ok := modifierKeys[name]; ok {
			chord = append(chord, k)
			continue
		}
		k, err := hotkey.ParseKey(name)
		if err != nil {
			return nil, fmt.Errorf("chord %q: %w", raw, err)
		}
		chord = append(chord, k)
	}
	return chord, nil
}

// Func is called when a chord fires.
type Func func(Chord)

type entry struct {
	keys  map[hotkey.VKey]struct{}
	chord Chord
	fn    Func
	fired bool
}

// Tracker tracks pressed keys for one target.
type Tracker struct {
	mu      sync.Mutex
	pressed map[hotkey.VKey]struct{}
	entries []*entry
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{pressed: make(map[hotkey.VKey]struct{})}
}

// Register adds a chord. Duplicate keys are ignored; an empty chord is never
// registered.
func (t *Tracker) Register(keys []hotkey.VKey, fn Func) {
	if len(keys) == 0 || fn == nil {
		return
	}
	set := make(map[hotkey.VKey]struct{}, len(keys))
	var chord Chord
	for _, k := range keys {
		if _, dup := set[k]; dup {
			continue
		}
		set[k] = struct{}{}
		chord = append(chord, k)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, &entry{keys: set, chord: chord, fn: fn})
}

// Unregister removes every chord whose keys are all among keys.
// It reports how many chords were removed.
func (t *Tracker) Unregister(keys ...hotkey.VKey) int {
	given := make(map[hotkey.VKey]struct{}, len(keys))
	for _, k := range keys {
		given[k] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	before := len(t.entries)
	t.entries = slices.DeleteFunc(t.entries, func(e *entry) bool {
		for k := range e.keys {
			if _, ok := given[k]; !ok {
				return false
			}
		}
		return true
	})
	return before - len(t.entries)
}

// UnregisterAll removes every chord.
func (t *Tracker) UnregisterAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}

// Len returns the number of registered chords.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// KeyDown records k as pressed and fires every chord whose key set now
// equals the pressed set. A chord fires once per press.
func (t *Tracker) KeyDown(k hotkey.VKey) {
	t.mu.Lock()
	t.pressed[k] = struct{}{}
	var due []*entry
	for _, e := range t.entries {
		if !e.fired && sameSet(e.keys, t.pressed) {
			e.fired = true
			due = append(due, e)
		}
	}
	t.mu.Unlock()

	for _, e := range due {
		e.fn(e.chord)
	}
}

// KeyUp records k as released and re-arms chords that contain it.
func (t *Tracker) KeyUp(k hotkey.VKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pressed, k)
	for _, e := range t.entries {
		if _, ok := e.keys[k]; ok {
			e.fired = false
		}
	}
}

// Reset forgets the pressed state, e.g. when the target loses focus or the
// pointer leaves it.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.pressed)
	for _, e := range t.entries {
		e.fired = false
	}
}

// Tap presses keys in order and releases them in reverse. Sources that only
// report whole chords, such as terminals, feed trackers this way.
func (t *Tracker) Tap(keys ...hotkey.VKey) {
	for _, k := range keys {
		t.KeyDown(k)
	}
	for i := len(keys) - 1; i >= 0; i-- {
		t.KeyUp(keys[i])
	}
}

func sameSet(a, b map[hotkey.VKey]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// Set groups trackers by target.
type Set[T comparable] struct {
	mu       sync.Mutex
	trackers map[T]*Tracker
}

// NewSet returns an empty set.
func NewSet[T comparable]() *Set[T] {
	return &Set[T]{trackers: make(map[T]*Tracker)}
}

// Register adds a chord on target, creating its tracker on first use.
func (s *Set[T]) Register(target T, keys []hotkey.VKey, fn Func) *Tracker {
	s.mu.Lock()
	tr, ok := s.trackers[target]
	if !ok {
		tr = NewTracker()
		s.trackers[target] = tr
	}
	s.mu.Unlock()

	tr.Register(keys, fn)
	return tr
}

// Unregister removes chords on target whose keys are all among keys. The
// tracker is dropped once it has no chords left.
func (s *Set[T]) Unregister(target T, keys ...hotkey.VKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.trackers[target]
	if !ok {
		return
	}
	tr.Unregister(keys...)
	if tr.Len() == 0 {
		delete(s.trackers, target)
	}
}

// UnregisterTarget drops every chord on target.
func (s *Set[T]) UnregisterTarget(target T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tr, ok := s.trackers[target]; ok {
		tr.UnregisterAll()
		delete(s.trackers, target)
	}
}

// Tracker returns the tracker of target, if any.
func (s *Set[T]) Tracker(target T) (*Tracker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.trackers[target]
	return tr, ok
}
