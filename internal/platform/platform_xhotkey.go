//go:build darwin || linux

package platform

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	xhotkey "golang.design/x/hotkey"

	"github.com/petems/hotkey-tray/hotkey"
)

const unregisterTimeout = 500 * time.Millisecond

type grab struct {
	hk   *xhotkey.Hotkey
	stop chan struct{}
	done chan struct{}
}

// xBackend registers hotkeys through golang.design/x/hotkey (Carbon on
// macOS, XGrabKey on X11).
type xBackend struct {
	log  zerolog.Logger
	sink Sink

	mu     sync.Mutex
	grabs  map[int32]*grab
	closed bool
}

// New returns the golang.design/x/hotkey backend. On macOS the caller must
// run the application through mainthread.Init or an equivalent Cocoa loop.
func New(sink Sink, log zerolog.Logger) (Backend, error) {
	if sink == nil {
		return nil, errors.New("platform: sink is required")
	}
	return &xBackend{
		log:   log.With().Str("component", "platform").Logger(),
		sink:  sink,
		grabs: make(map[int32]*grab),
	}, nil
}

func (b *xBackend) Name() string { return "x/hotkey" }

func (b *xBackend) RegisterHotKey(_ hotkey.Handle, id int32, mods hotkey.Modifier, key hotkey.VKey) bool {
	xmods, err := translateModifiers(mods)
	if err != nil {
		b.log.Debug().Err(err).Int32("id", id).Msg("Cannot translate hotkey")
		return false
	}
	xkey, ok := keyTable[key]
	if !ok {
		b.log.Debug().Str("key", hotkey.KeyName(key)).Int32("id", id).Msg("Key not supported on this platform")
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	if _, taken := b.grabs[id]; taken {
		return false
	}

	hk := xhotkey.New(xmods, xkey)
	if err := hk.Register(); err != nil {
		b.log.Debug().Err(err).Int32("id", id).Msg("Register failed")
		return false
	}
	g := &grab{hk: hk, stop: make(chan struct{}), done: make(chan struct{})}
	b.grabs[id] = g
	go b.listen(id, g)
	return true
}

func (b *xBackend) listen(id int32, g *grab) {
	defer close(g.done)
	for {
		select {
		case <-g.stop:
			return
		case _, ok := <-g.hk.Keydown():
			if !ok {
				return
			}
			b.sink(id)
		}
	}
}

func (b *xBackend) UnregisterHotKey(_ hotkey.Handle, id int32) bool {
	b.mu.Lock()
	g, ok := b.grabs[id]
	delete(b.grabs, id)
	b.mu.Unlock()
	if !ok {
		return false
	}
	return b.release(id, g) == nil
}

// release stops the listener and drops the native grab. Unregister can hang
// when the platform event loop is not running, so it is bounded.
func (b *xBackend) release(id int32, g *grab) error {
	close(g.stop)
	<-g.done

	errc := make(chan error, 1)
	go func() { errc <- g.hk.Unregister() }()
	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("unregister hotkey %d: %w", id, err)
		}
		return nil
	case <-time.After(unregisterTimeout):
		b.log.Warn().Int32("id", id).Msg("Unregister timed out")
		return fmt.Errorf("unregister hotkey %d: timed out", id)
	}
}

func (b *xBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	grabs := b.grabs
	b.grabs = nil
	b.mu.Unlock()

	var errs []error
	for id, g := range grabs {
		if err := b.release(id, g); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// translateModifiers maps a Win32 modifier mask onto platform modifiers.
// ModNoRepeat has no equivalent and is ignored.
func translateModifiers(mods hotkey.Modifier) ([]xhotkey.Modifier, error) {
	rest := mods &^ hotkey.ModNoRepeat
	var out []xhotkey.Modifier
	for _, bit := range []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift, hotkey.ModAlt, hotkey.ModWin} {
		if rest&bit == 0 {
			continue
		}
		rest &^= bit
		out = append(out, modifierMap[bit])
	}
	if rest != 0 {
		return nil, fmt.Errorf("unsupported modifier bits %#x", uint32(rest))
	}
	if len(out) == 0 {
		return nil, errors.New("no modifiers")
	}
	return out, nil
}
