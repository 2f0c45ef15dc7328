package app

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/petems/hotkey-tray/hotkey"
	"github.com/petems/hotkey-tray/internal/action"
	"github.com/petems/hotkey-tray/internal/audio"
	"github.com/petems/hotkey-tray/internal/config"
)

// actionTimeout bounds a single action run.
const actionTimeout = 30 * time.Second

type State string

const (
	StatePending   State = "pending"
	StateActive    State = "active"
	StateFailed    State = "failed"
	StateDisplaced State = "displaced"
	StateInvalid   State = "invalid"
	StateDisabled  State = "disabled"
	StatePaused    State = "paused"
)

// Status is a snapshot of one configured binding.
type Status struct {
	Name      string
	Hotkey    string
	Action    string
	State     State
	ID        int32
	Hits      int
	LastFired time.Time
	Err       string
}

// Observer is told about state changes, e.g. by the tray menu. Fired is
// called on the UI thread; the others on whichever goroutine made the change.
// None may block.
type Observer interface {
	BindingsChanged(bindings []Status)
	Fired(binding Status)
	PausedChanged(paused bool)
}

// UI is the host UI thread.
type UI interface {
	Call(fn func()) error
	OpenWindow() hotkey.Handle
	CloseWindow()
}

// ActionBuilder turns a config binding into its action.
type ActionBuilder interface {
	Build(b config.Binding) (action.Action, error)
}

// Notifier shows desktop notifications.
type Notifier interface {
	Info(title, message string)
	Error(title, message string)
	SetEnabled(enabled bool)
}

type Config struct {
	Registry *hotkey.Registry
	UI       UI
	Actions  ActionBuilder
	Notifier Notifier
	Player   audio.Player // Optional
	Config   *config.Config
	Logger   zerolog.Logger
}

type entry struct {
	binding config.Binding
	parsed  hotkey.Binding
	action  action.Action
	handler *hotkey.Component
	status  Status
}

type App struct {
	reg     *hotkey.Registry
	ui      UI
	actions ActionBuilder
	notify  Notifier
	player  audio.Player
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	cfg       *config.Config
	entries   []*entry
	paused    bool
	observers []Observer
}

func New(cfg Config) *App {
	ctx, cancel := context.WithCancel(context.Background())
	player := cfg.Player
	if player == nil {
		player = audio.Nop{}
	}
	return &App{
		reg:     cfg.Registry,
		ui:      cfg.UI,
		actions: cfg.Actions,
		notify:  cfg.Notifier,
		player:  player,
		log:     cfg.Logger,
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg.Config,
	}
}

// AddObserver subscribes o to state changes.
func (a *App) AddObserver(o Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, o)
}

// Start registers the configured bindings and attaches the registry.
// The bindings are registered before the window exists and go live when
// Attach replays them.
func (a *App) Start() error {
	var err error
	callErr := a.ui.Call(func() {
		a.mu.Lock()
		cfg := a.cfg
		a.mu.Unlock()

		a.notify.SetEnabled(cfg.Notifications)
		a.setEntries(a.build(cfg))
		a.registerAll()

		a.ui.OpenWindow()
		err = a.attach()
	})
	if callErr != nil {
		return fmt.Errorf("start: %w", callErr)
	}
	if err != nil {
		return err
	}
	a.publish()
	return nil
}

func (a *App) attach() error {
	a.reg.Attach()
	if !a.reg.IsAttached() {
		return errors.New("hotkey registry could not attach to the window")
	}
	a.reconcile()
	return nil
}

// Apply replaces the bindings with those of cfg.
func (a *App) Apply(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		a.log.Warn().Err(err).Msg("Config has invalid bindings, they are skipped")
	}
	for _, c := range cfg.Conflicts() {
		a.log.Warn().Str("conflict", c).Msg("Duplicate hotkey")
	}

	err := a.ui.Call(func() {
		a.unregisterAll()

		a.mu.Lock()
		a.cfg = cfg
		a.mu.Unlock()

		a.notify.SetEnabled(cfg.Notifications)
		a.setEntries(a.build(cfg))
		if !a.isPaused() {
			a.registerAll()
			return
		}
		a.mu.Lock()
		for _, e := range a.entries {
			if e.handler != nil {
				e.status.State = StatePaused
			}
		}
		a.mu.Unlock()
	})
	if err != nil {
		return fmt.Errorf("apply config: %w", err)
	}
	a.log.Info().Int("bindings", len(cfg.Bindings)).Msg("Config applied")
	a.publish()
	return nil
}

// Reload reads the config file again and applies it.
func (a *App) Reload() error {
	a.mu.Lock()
	path := a.cfg.Path()
	a.mu.Unlock()

	cfg, err := config.Load(path)
	if err != nil {
		a.notify.Error("Reload failed", err.Error())
		return err
	}
	return a.Apply(cfg)
}

// Pause detaches the registry, releasing every OS hotkey.
func (a *App) Pause() error {
	err := a.ui.Call(func() {
		if a.isPaused() {
			return
		}
		a.reg.Detach()

		a.mu.Lock()
		a.paused = true
		for _, e := range a.entries {
			if e.status.State == StateActive || e.status.State == StatePending || e.status.State == StateDisplaced {
				e.status.State = StatePaused
				e.status.ID = 0
			}
		}
		a.mu.Unlock()
	})
	if err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	a.log.Info().Msg("Hotkeys paused")
	a.publishPaused(true)
	a.publish()
	return nil
}

// Resume queues the bindings again and re-attaches.
func (a *App) Resume() error {
	var attachErr error
	err := a.ui.Call(func() {
		if !a.isPaused() {
			return
		}
		a.mu.Lock()
		a.paused = false
		a.mu.Unlock()

		a.registerAll()
		attachErr = a.attach()
	})
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	if attachErr != nil {
		return attachErr
	}
	a.log.Info().Msg("Hotkeys resumed")
	a.publishPaused(false)
	a.publish()
	return nil
}

// TogglePause pauses or resumes and reports the new paused state.
func (a *App) TogglePause() (bool, error) {
	if a.IsPaused() {
		return false, a.Resume()
	}
	return true, a.Pause()
}

func (a *App) IsPaused() bool {
	return a.isPaused()
}

func (a *App) isPaused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paused
}

// Bindings returns a snapshot of every configured binding.
func (a *App) Bindings() []Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Status, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.status
	}
	return out
}

// ConfigPath is the file the current config came from.
func (a *App) ConfigPath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.Path()
}

// Shutdown releases every hotkey, closes the window and waits for running
// actions until ctx is done.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.ui.Call(func() {
		a.reg.Detach()
		a.ui.CloseWindow()
	})
	a.cancel()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		err = errors.Join(err, fmt.Errorf("actions still running: %w", ctx.Err()))
	}
	return err
}

// build turns config bindings into entries. It does not touch the registry.
func (a *App) build(cfg *config.Config) []*entry {
	entries := make([]*entry, 0, len(cfg.Bindings))
	for _, b := range cfg.Bindings {
		e := &entry{
			binding: b,
			status: Status{
				Name:   b.Label(),
				Hotkey: b.PlatformHotkey(),
				Action: b.Action,
			},
		}
		entries = append(entries, e)

		if b.Disabled {
			e.status.State = StateDisabled
			continue
		}
		parsed, err := b.Parse()
		if err != nil {
			e.status.State = StateInvalid
			e.status.Err = err.Error()
			continue
		}
		act, err := a.actions.Build(b)
		if err != nil {
			e.status.State = StateInvalid
			e.status.Err = err.Error()
			continue
		}

		e.parsed = parsed
		e.action = act
		e.status.Hotkey = parsed.String()
		e.status.Action = act.Describe()
		e.handler = hotkey.NewComponent(parsed.Modifiers(), parsed.Key(), a.fired(e))
		e.handler.OnCovered = func() { a.covered(e) }
	}
	return entries
}

func (a *App) setEntries(entries []*entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = entries
}

func (a *App) registerable() []*entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*entry
	for _, e := range a.entries {
		if e.handler != nil {
			out = append(out, e)
		}
	}
	return out
}

// registerAll hands every valid entry to the registry. Runs on the UI thread.
func (a *App) registerAll() {
	for _, e := range a.registerable() {
		id := a.reg.Register(e.handler)

		a.mu.Lock()
		e.status.Err = ""
		switch id {
		case hotkey.Deferred:
			e.status.State = StatePending
			e.status.ID = 0
		case hotkey.Invalid:
			e.status.State = StateFailed
			e.status.ID = 0
		default:
			e.status.State = StateActive
			e.status.ID = id
		}
		a.mu.Unlock()

		if id == hotkey.Invalid {
			a.rejected(e)
		}
	}
}

// reconcile resolves pending entries after Attach replayed them.
func (a *App) reconcile() {
	for _, e := range a.registerable() {
		a.mu.Lock()
		pending := e.status.State == StatePending
		a.mu.Unlock()
		if !pending {
			continue
		}

		id := e.parsed.ID()
		h, live := a.reg.Lookup(id)
		a.mu.Lock()
		if live && h == hotkey.Handler(e.handler) {
			e.status.State = StateActive
			e.status.ID = id
		} else {
			e.status.State = StateFailed
		}
		a.mu.Unlock()

		if !live || h != hotkey.Handler(e.handler) {
			a.rejected(e)
		}
	}
}

func (a *App) unregisterAll() {
	for _, e := range a.registerable() {
		a.mu.Lock()
		live := e.status.State == StateActive
		a.mu.Unlock()
		if !live {
			continue
		}
		if !a.reg.Unregister(e.parsed.Modifiers(), e.parsed.Key()) {
			a.log.Debug().Str("hotkey", e.parsed.String()).Msg("OS reported hotkey was not registered")
		}
	}
}

func (a *App) rejected(e *entry) {
	a.mu.Lock()
	e.status.Err = "rejected by the OS, it may be in use by another program"
	a.mu.Unlock()

	a.log.Warn().Str("hotkey", e.parsed.String()).Str("binding", e.binding.Label()).Msg("Hotkey registration failed")
	a.notify.Error("Hotkey unavailable", fmt.Sprintf("%s (%s) could not be registered", e.parsed, e.binding.Label()))
}

func (a *App) covered(e *entry) {
	a.mu.Lock()
	e.status.State = StateDisplaced
	e.status.ID = 0
	e.status.Err = "replaced by a later binding with the same hotkey"
	a.mu.Unlock()

	a.log.Warn().Str("hotkey", e.parsed.String()).Str("binding", e.binding.Label()).Msg("Hotkey displaced by a later registration")
}

// fired runs on the UI thread; the action itself runs on its own goroutine.
func (a *App) fired(e *entry) hotkey.Callback {
	return func(b hotkey.Binding) {
		a.mu.Lock()
		e.status.Hits++
		e.status.LastFired = time.Now()
		st := e.status
		beep := a.cfg.Beep && e.binding.Action != config.ActionBeep
		observers := append([]Observer(nil), a.observers...)
		a.mu.Unlock()

		a.log.Info().Str("hotkey", b.String()).Str("binding", st.Name).Int("hits", st.Hits).Msg("Hotkey fired")
		for _, o := range observers {
			o.Fired(st)
		}

		a.wg.Add(1)
		go a.run(e, beep)
	}
}

func (a *App) run(e *entry, beep bool) {
	defer a.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Str("binding", e.binding.Label()).
				Msg("Action panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(a.ctx, actionTimeout)
	defer cancel()

	if beep {
		if err := a.player.Beep(ctx); err != nil {
			a.log.Debug().Err(err).Msg("Beep failed")
		}
	}

	start := time.Now()
	if err := e.action.Run(ctx); err != nil {
		a.log.Error().Err(err).Str("binding", e.binding.Label()).Msg("Action failed")
		a.notify.Error(e.binding.Label(), err.Error())
		return
	}
	a.log.Debug().
		Str("binding", e.binding.Label()).
		Str("action", e.action.Describe()).
		Dur("took", time.Since(start)).
		Msg("Action done")
}

func (a *App) publish() {
	bindings := a.Bindings()
	a.mu.Lock()
	observers := append([]Observer(nil), a.observers...)
	a.mu.Unlock()
	for _, o := range observers {
		o.BindingsChanged(bindings)
	}
}

func (a *App) publishPaused(paused bool) {
	a.mu.Lock()
	observers := append([]Observer(nil), a.observers...)
	a.mu.Unlock()
	for _, o := range observers {
		o.PausedChanged(paused)
	}
}
