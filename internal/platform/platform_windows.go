//go:build windows

package platform

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"

	"github.com/petems/hotkey-tray/hotkey"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procRegisterHotKey     = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32.NewProc("UnregisterHotKey")
	procGetMessageW        = user32.NewProc("GetMessageW")
	procPeekMessageW       = user32.NewProc("PeekMessageW")
	procPostThreadMessageW = user32.NewProc("PostThreadMessageW")
)

const (
	wmHotkey   = 0x0312
	wmQuit     = 0x0012
	wmApp      = 0x8000
	pmNoRemove = 0x0000

	stopTimeout = 2 * time.Second
)

type point struct {
	x int32
	y int32
}

// msg mirrors the Win32 MSG struct.
type msg struct {
	hWnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

// win32 owns a thread with a message queue. RegisterHotKey binds hotkeys to
// the calling thread, so every register and unregister runs there too.
type win32 struct {
	log  zerolog.Logger
	sink Sink

	threadID uint32
	calls    chan func()
	done     chan struct{}

	mu     sync.Mutex
	closed bool
	ids    map[int32]struct{}
}

// New starts the Win32 hotkey thread.
func New(sink Sink, log zerolog.Logger) (Backend, error) {
	if sink == nil {
		return nil, errors.New("platform: sink is required")
	}
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("user32.dll is unavailable: %w", err)
	}

	b := &win32{
		log:   log.With().Str("component", "platform").Logger(),
		sink:  sink,
		calls: make(chan func(), 16),
		done:  make(chan struct{}),
		ids:   make(map[int32]struct{}),
	}
	ready := make(chan uint32, 1)
	go b.run(ready)
	b.threadID = <-ready
	return b, nil
}

func (b *win32) Name() string { return "win32" }

func (b *win32) run(ready chan<- uint32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(b.done)

	// The thread has no message queue until it first touches one.
	var m msg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmNoRemove)
	ready <- windows.GetCurrentThreadId()

	defer func() {
		for id := range b.ids {
			procUnregisterHotKey.Call(0, uintptr(id))
		}
	}()

	for {
		var m msg
		ret, _, err := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			b.log.Error().Err(err).Msg("GetMessageW failed, hotkey thread exiting")
			return
		case 0:
			return
		}

		switch m.message {
		case wmHotkey:
			b.sink(int32(m.wParam))
		case wmApp:
			b.drain()
		}
	}
}

func (b *win32) drain() {
	for {
		select {
		case fn := <-b.calls:
			fn()
		default:
			return
		}
	}
}

// do runs fn on the hotkey thread and waits for it.
func (b *win32) do(fn func()) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	b.mu.Unlock()

	finished := make(chan struct{})
	select {
	case b.calls <- func() {
		defer close(finished)
		fn()
	}:
	case <-b.done:
		return false
	}
	if ret, _, err := procPostThreadMessageW.Call(uintptr(b.threadID), wmApp, 0, 0); ret == 0 {
		b.log.Error().Err(err).Msg("PostThreadMessageW failed")
		return false
	}
	select {
	case <-finished:
		return true
	case <-b.done:
		return false
	}
}

func (b *win32) RegisterHotKey(_ hotkey.Handle, id int32, mods hotkey.Modifier, key hotkey.VKey) bool {
	ok := false
	b.do(func() {
		ret, _, err := procRegisterHotKey.Call(0, uintptr(id), uintptr(mods), uintptr(key))
		if ret == 0 {
			b.log.Debug().Err(err).Int32("id", id).Msg("RegisterHotKey failed")
			return
		}
		b.ids[id] = struct{}{}
		ok = true
	})
	return ok
}

func (b *win32) UnregisterHotKey(_ hotkey.Handle, id int32) bool {
	ok := false
	b.do(func() {
		ret, _, _ := procUnregisterHotKey.Call(0, uintptr(id))
		delete(b.ids, id)
		ok = ret != 0
	})
	return ok
}

func (b *win32) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	var errs []error
	if ret, _, err := procPostThreadMessageW.Call(uintptr(b.threadID), wmQuit, 0, 0); ret == 0 {
		errs = append(errs, fmt.Errorf("post WM_QUIT: %w", err))
	}

	timer := time.NewTimer(stopTimeout)
	defer timer.Stop()
	select {
	case <-b.done:
	case <-timer.C:
		errs = append(errs, errors.New("hotkey thread did not stop in time"))
	}
	return errors.Join(errs...)
}
