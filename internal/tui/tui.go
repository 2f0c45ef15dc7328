// Package tui is a terminal monitor for the running hotkeys, an alternative
// to the tray menu for headless sessions and debugging.
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/petems/hotkey-tray/internal/app"
	"github.com/petems/hotkey-tray/localkey"
)

const (
	maxFires = 8
	queueLen = 64
)

// Controller is the part of the app the shortcuts drive.
type Controller interface {
	TogglePause() (bool, error)
	Reload() error
	Bindings() []app.Status
	IsPaused() bool
}

// TUI message types
type bindingsMsg struct{ Bindings []app.Status }
type firedMsg struct{ Status app.Status }
type pausedMsg struct{ Paused bool }
type errMsg struct{ Err error }
type reloadedMsg struct{}

type fire struct {
	at     time.Time
	name   string
	hotkey string
}

// UI runs the bubbletea program and implements app.Observer.
type UI struct {
	program *tea.Program
	log     zerolog.Logger

	msgs     chan tea.Msg
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	running bool
	quit    bool
}

func New(ctl Controller, version string, log zerolog.Logger) *UI {
	u := &UI{
		log:  log,
		msgs: make(chan tea.Msg, queueLen),
		done: make(chan struct{}),
	}
	u.program = tea.NewProgram(newModel(ctl, version), tea.WithAltScreen())
	go u.forward()
	return u
}

// Run blocks until the user quits or Quit is called. After a Quit it
// returns at once without taking over the terminal.
func (u *UI) Run() error {
	defer u.stop()

	u.mu.Lock()
	if u.quit {
		u.mu.Unlock()
		return nil
	}
	u.running = true
	u.mu.Unlock()

	_, err := u.program.Run()

	u.mu.Lock()
	u.running = false
	u.mu.Unlock()
	return err
}

// Quit ends the program. It may be called before Run, which then does not
// start.
func (u *UI) Quit() {
	u.mu.Lock()
	u.quit = true
	running := u.running
	u.mu.Unlock()

	// Program.Quit blocks until Run reads it.
	if running {
		u.program.Quit()
	}
}

func (u *UI) stop() {
	u.stopOnce.Do(func() { close(u.done) })
}

// forward feeds observer events to the program in order. Observers are
// called on the UI thread, so they only enqueue.
func (u *UI) forward() {
	for {
		select {
		case <-u.done:
			return
		case msg := <-u.msgs:
			u.program.Send(msg)
		}
	}
}

func (u *UI) send(msg tea.Msg) {
	select {
	case <-u.done:
	case u.msgs <- msg:
	default:
		u.log.Warn().Msg("TUI queue full, dropping update")
	}
}

// BindingsChanged implements app.Observer.
func (u *UI) BindingsChanged(bindings []app.Status) { u.send(bindingsMsg{bindings}) }

// Fired implements app.Observer.
func (u *UI) Fired(s app.Status) { u.send(firedMsg{s}) }

// PausedChanged implements app.Observer.
func (u *UI) PausedChanged(paused bool) { u.send(pausedMsg{paused}) }

// shortcuts routes terminal key presses through a chord tracker. It is shared
// by every copy of the model.
type shortcuts struct {
	tracker *localkey.Tracker
	pending []tea.Cmd
}

func newShortcuts(ctl Controller) *shortcuts {
	s := &shortcuts{tracker: localkey.NewTracker()}
	bind := func(spec string, cmd tea.Cmd) {
		chord, err := localkey.ParseChord(spec)
		if err != nil {
			panic(err)
		}
		s.tracker.Register(chord, func(localkey.Chord) { s.pending = append(s.pending, cmd) })
	}
	bind("Ctrl+P", func() tea.Msg {
		paused, err := ctl.TogglePause()
		if err != nil {
			return errMsg{err}
		}
		return pausedMsg{paused}
	})
	bind("Ctrl+R", func() tea.Msg {
		if err := ctl.Reload(); err != nil {
			return errMsg{err}
		}
		return reloadedMsg{}
	})
	bind("Q", tea.Quit)
	bind("Ctrl+C", tea.Quit)
	return s
}

// handle taps the chord for key and returns the commands it triggered.
func (s *shortcuts) handle(key tea.KeyMsg) tea.Cmd {
	chord, err := localkey.ParseChord(key.String())
	if err != nil {
		return nil
	}
	s.pending = nil
	s.tracker.Tap(chord...)
	cmds := s.pending
	s.pending = nil
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	}
	return tea.Batch(cmds...)
}

type model struct {
	keys    *shortcuts
	version string

	bindings []app.Status
	paused   bool
	fires    []fire
	status   string
	err      string

	width, height int
}

func newModel(ctl Controller, version string) model {
	return model{
		keys:     newShortcuts(ctl),
		version:  version,
		bindings: ctl.Bindings(),
		paused:   ctl.IsPaused(),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m, m.keys.handle(msg)

	case bindingsMsg:
		m.bindings = msg.Bindings

	case firedMsg:
		for i := range m.bindings {
			if m.bindings[i].Name == msg.Status.Name && m.bindings[i].Hotkey == msg.Status.Hotkey {
				m.bindings[i] = msg.Status
			}
		}
		at := msg.Status.LastFired
		if at.IsZero() {
			at = time.Now()
		}
		m.fires = append([]fire{{at: at, name: msg.Status.Name, hotkey: msg.Status.Hotkey}}, m.fires...)
		if len(m.fires) > maxFires {
			m.fires = m.fires[:maxFires]
		}

	case pausedMsg:
		m.paused = msg.Paused
		m.err = ""

	case reloadedMsg:
		m.status = "config reloaded"
		m.err = ""

	case errMsg:
		m.err = msg.Err.Error()
	}
	return m, nil
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	panelStyle  = lipgloss.NewStyle().PaddingLeft(1)

	stateColors = map[app.State]lipgloss.Color{
		app.StateActive:    "42",
		app.StatePending:   "220",
		app.StateDisplaced: "208",
		app.StateFailed:    "196",
		app.StateInvalid:   "196",
		app.StateDisabled:  "241",
		app.StatePaused:    "245",
	}
)

func (m model) View() string {
	var b strings.Builder

	status := "● LISTENING"
	if m.paused {
		status = "○ PAUSED"
	}
	b.WriteString(titleStyle.Render("Hotkey Tray") + "  " + dimStyle.Render(status) + "\n\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-18s %-24s %-10s %5s", "HOTKEY", "NAME", "STATE", "HITS")) + "\n")
	if len(m.bindings) == 0 {
		b.WriteString(dimStyle.Render("No bindings configured") + "\n")
	}
	for _, s := range m.bindings {
		state := lipgloss.NewStyle().Foreground(stateColors[s.State]).Render(fmt.Sprintf("%-10s", s.State))
		fmt.Fprintf(&b, "%-18s %-24s %s %5d\n", truncate(s.Hotkey, 18), truncate(s.Name, 24), state, s.Hits)
		if s.Err != "" {
			b.WriteString(dimStyle.Render("  "+s.Err) + "\n")
		}
	}

	b.WriteString("\n" + headerStyle.Render("Recent") + "\n")
	if len(m.fires) == 0 {
		b.WriteString(dimStyle.Render("Nothing fired yet") + "\n")
	}
	for _, f := range m.fires {
		fmt.Fprintf(&b, "%s  %s  %s\n", dimStyle.Render(f.at.Format("15:04:05")), f.hotkey, f.name)
	}

	b.WriteString("\n")
	if m.err != "" {
		b.WriteString(errStyle.Render("✗ "+m.err) + "\n")
	} else if m.status != "" {
		b.WriteString(dimStyle.Render(m.status) + "\n")
	}
	b.WriteString(helpStyle.Render("ctrl+p pause  ctrl+r reload  q quit  ") + helpStyle.Render(m.version))

	return panelStyle.Render(b.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
