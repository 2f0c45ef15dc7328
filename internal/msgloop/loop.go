// Package msgloop runs the host UI thread: a single goroutine locked to an OS
// thread that owns the top-level window, delivers window messages to hooks,
// and executes work marshalled onto it with Call and Go.
package msgloop

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/petems/hotkey-tray/hotkey"
)

var (
	// ErrLoopStopped is returned for work submitted to a loop that is not
	// running.
	ErrLoopStopped = errors.New("message loop is not running")
	// ErrNoWindow is returned when a source is requested for a window that
	// is not open.
	ErrNoWindow = errors.New("window is not open")
	// ErrQueueFull is returned by Post when the message queue is saturated.
	ErrQueueFull = errors.New("message queue is full")
)

const queueSize = 64

// Message is a window message.
type Message struct {
	Window hotkey.Handle
	Type   uint32
	WParam uintptr
	LParam uintptr
}

// Loop is the UI thread.
type Loop struct {
	log zerolog.Logger

	work chan func()
	msgs chan Message
	quit chan struct{}
	done chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once

	mu      sync.Mutex
	running bool
	window  hotkey.Handle
	opened  uint32
	source  *Source
}

// New returns a loop that has not been started.
func New(log zerolog.Logger) *Loop {
	return &Loop{
		log:  log.With().Str("component", "msgloop").Logger(),
		work: make(chan func()),
		msgs: make(chan Message, queueSize),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start launches the loop goroutine and waits until it is ready.
func (l *Loop) Start() error {
	started := false
	l.startOnce.Do(func() {
		started = true
		ready := make(chan struct{})
		go l.run(ready)
		<-ready
	})
	if !started {
		return fmt.Errorf("message loop already started")
	}
	return nil
}

// Stop ends the loop. Queued messages are dropped; Stop waits for work that
// is already running.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.quit)
	})
	l.mu.Lock()
	running := l.running
	l.mu.Unlock()
	if running {
		<-l.done
	}
}

func (l *Loop) run(ready chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l.mu.Lock()
	l.running = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
		close(l.done)
	}()
	close(ready)
	l.log.Debug().Msg("Message loop started")

	for {
		select {
		case <-l.quit:
			l.log.Debug().Msg("Message loop stopped")
			return
		case fn := <-l.work:
			l.safely(fn)
		case m := <-l.msgs:
			l.safely(func() { l.dispatch(m) })
		}
	}
}

func (l *Loop) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Recovered panic on UI thread")
		}
	}()
	fn()
}

// Call runs fn on the loop and waits for it to return. It must not be called
// from the loop itself.
func (l *Loop) Call(fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}
	if err := l.Go(wrapped); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		// The loop may have finished fn right before exiting.
		select {
		case <-finished:
			return nil
		default:
			return ErrLoopStopped
		}
	}
}

// Go hands fn to the loop without waiting for it to run.
func (l *Loop) Go(fn func()) error {
	if !l.isRunning() {
		return ErrLoopStopped
	}
	select {
	case l.work <- fn:
		return nil
	case <-l.done:
		return ErrLoopStopped
	}
}

// Post queues a window message.
func (l *Loop) Post(m Message) error {
	if !l.isRunning() {
		return ErrLoopStopped
	}
	select {
	case l.msgs <- m:
		return nil
	default:
		return ErrQueueFull
	}
}

// Sink posts a WMHotkey message for id to the open window. OS backends use it
// to forward fired hotkeys onto the UI thread.
func (l *Loop) Sink(id int32) {
	h, ok := l.Window()
	if !ok {
		l.log.Debug().Int32("id", id).Msg("Dropping hotkey, no window")
		return
	}
	if err := l.Post(Message{Window: h, Type: hotkey.WMHotkey, WParam: uintptr(id)}); err != nil {
		l.log.Warn().Err(err).Int32("id", id).Msg("Dropping hotkey")
	}
}

func (l *Loop) isRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// OpenWindow creates the top-level window if it does not exist and returns
// its handle.
func (l *Loop) OpenWindow() hotkey.Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.window == 0 {
		l.opened++
		l.window = hotkey.Handle(0x10000 + uintptr(l.opened))
		l.log.Debug().Uint64("window", uint64(l.window)).Msg("Window opened")
	}
	return l.window
}

// CloseWindow destroys the window. Hooks installed on it are dropped.
func (l *Loop) CloseWindow() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.window == 0 {
		return
	}
	if l.source != nil {
		l.source.release()
		l.source = nil
	}
	l.log.Debug().Uint64("window", uint64(l.window)).Msg("Window closed")
	l.window = 0
}

// Window implements hotkey.Host.
func (l *Loop) Window() (hotkey.Handle, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.window, l.window != 0
}

// Source implements hotkey.Host. Every call for the open window returns the
// same source until it is closed.
func (l *Loop) Source(h hotkey.Handle) (hotkey.MessageSource, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h == 0 || h != l.window {
		return nil, fmt.Errorf("source for window %#x: %w", uintptr(h), ErrNoWindow)
	}
	if l.source == nil || l.source.isClosed() {
		l.source = &Source{window: h}
	}
	return l.source, nil
}

func (l *Loop) dispatch(m Message) {
	l.mu.Lock()
	src := l.source
	window := l.window
	l.mu.Unlock()

	if src == nil || m.Window != window {
		l.log.Trace().Uint32("msg", m.Type).Msg("Message for closed window dropped")
		return
	}
	if !src.deliver(m) {
		l.log.Trace().Uint32("msg", m.Type).Msg("Message not handled")
	}
}

type hookEntry struct {
	id hotkey.HookID
	fn hotkey.HookFunc
}

// Source is the message stream of one window.
type Source struct {
	window hotkey.Handle

	mu     sync.Mutex
	next   hotkey.HookID
	hooks  []hookEntry
	closed bool
}

// AddHook installs fn after the existing hooks.
func (s *Source) AddHook(fn hotkey.HookFunc) hotkey.HookID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.hooks = append(s.hooks, hookEntry{id: s.next, fn: fn})
	return s.next
}

// RemoveHook uninstalls the hook with id. Unknown ids are ignored.
func (s *Source) RemoveHook(id hotkey.HookID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = slices.DeleteFunc(s.hooks, func(e hookEntry) bool { return e.id == id })
}

// Close releases the source. Closing twice is an error.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("source for window %#x already closed", uintptr(s.window))
	}
	s.closed = true
	s.hooks = nil
	return nil
}

// Hooks returns the number of installed hooks.
func (s *Source) Hooks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hooks)
}

func (s *Source) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = nil
}

func (s *Source) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// deliver runs hooks in install order until one handles m.
func (s *Source) deliver(m Message) bool {
	s.mu.Lock()
	hooks := slices.Clone(s.hooks)
	s.mu.Unlock()

	for _, e := range hooks {
		if e.fn(m.Window, m.Type, m.WParam, m.LParam) {
			return true
		}
	}
	return false
}
