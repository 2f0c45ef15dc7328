package tray

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/petems/hotkey-tray/internal/app"
	"github.com/petems/hotkey-tray/internal/logging"
)

// Controller is the part of the app the menu drives.
type Controller interface {
	TogglePause() (bool, error)
	Reload() error
	Bindings() []app.Status
	IsPaused() bool
	ConfigPath() string
}

const maxBindingItems = 24

type UI struct {
	ctl     Controller
	version string
	commit  string
	log     zerolog.Logger

	mu       sync.Mutex
	ready    bool
	quit     bool
	bindings []app.Status
	paused   bool

	// Menu items
	mStatus   *systray.MenuItem
	mBindings []*systray.MenuItem
	mPause    *systray.MenuItem
	mReload   *systray.MenuItem
}

func New(ctl Controller, version, commit string, log zerolog.Logger) *UI {
	return &UI{
		ctl:     ctl,
		version: version,
		commit:  commit,
		log:     log,
	}
}

// Run shows the tray icon and blocks until Quit. It must be called from the
// main goroutine. onStart runs on its own goroutine once the platform event
// loop is up.
func (u *UI) Run(onStart, onExit func()) {
	systray.Run(func() {
		u.onReady()
		if u.quitRequested() {
			systray.Quit()
			return
		}
		if onStart != nil {
			go onStart()
		}
	}, onExit)
}

// Quit removes the tray icon and makes Run return. Called before the tray
// is up, it makes Run return as soon as it is.
func (u *UI) Quit() {
	u.mu.Lock()
	u.quit = true
	ready := u.ready
	u.mu.Unlock()
	if ready {
		systray.Quit()
	}
}

func (u *UI) quitRequested() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.quit
}

func (u *UI) onReady() {
	systray.SetTooltip("Global hotkeys")

	u.mStatus = systray.AddMenuItem("", "")
	u.mStatus.Disable()
	systray.AddSeparator()

	// systray cannot insert or remove items, so binding rows come from a
	// fixed pool that is shown and hidden as the config changes.
	for range maxBindingItems {
		item := systray.AddMenuItem("", "")
		item.Disable()
		item.Hide()
		u.mBindings = append(u.mBindings, item)
	}

	systray.AddSeparator()
	u.mPause = systray.AddMenuItemCheckbox("Pause Hotkeys", "Release every global hotkey", u.ctl.IsPaused())
	u.mReload = systray.AddMenuItem("Reload Config", "Read the config file again")
	mConfig := systray.AddMenuItem("Open Config Folder", "Edit bindings")
	mLogs := systray.AddMenuItem("Open Logs", "View application logs")
	systray.AddSeparator()
	mAbout := systray.AddMenuItem(fmt.Sprintf("Hotkey Tray %s", u.version), u.commit)
	mAbout.Disable()
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	u.mu.Lock()
	u.ready = true
	if u.bindings == nil {
		u.bindings = u.ctl.Bindings()
	}
	u.paused = u.ctl.IsPaused()
	bindings := u.bindings
	u.mu.Unlock()

	u.renderBindings(bindings)
	u.updateTitle()

	// Event loop
	go u.handleEvents(mConfig, mLogs, mQuit)
}

func (u *UI) handleEvents(mConfig, mLogs, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mPause.ClickedCh:
			u.togglePause()
		case <-u.mReload.ClickedCh:
			if err := u.ctl.Reload(); err != nil {
				u.log.Error().Err(err).Msg("Reload failed")
			}
		case <-mConfig.ClickedCh:
			u.open(filepath.Dir(u.ctl.ConfigPath()))
		case <-mLogs.ClickedCh:
			u.open(logging.LogPath())
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (u *UI) togglePause() {
	paused, err := u.ctl.TogglePause()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to toggle pause")
		return
	}
	u.log.Info().Bool("paused", paused).Msg("Toggled hotkeys from tray")
}

// BindingsChanged implements app.Observer.
func (u *UI) BindingsChanged(bindings []app.Status) {
	u.mu.Lock()
	u.bindings = bindings
	ready := u.ready
	u.mu.Unlock()
	if !ready {
		return
	}
	u.renderBindings(bindings)
	u.updateTitle()
}

// Fired implements app.Observer.
func (u *UI) Fired(s app.Status) {
	u.mu.Lock()
	for i := range u.bindings {
		if u.bindings[i].Name == s.Name && u.bindings[i].Hotkey == s.Hotkey {
			u.bindings[i] = s
		}
	}
	ready := u.ready
	bindings := append([]app.Status(nil), u.bindings...)
	u.mu.Unlock()
	if ready {
		u.renderBindings(bindings)
	}
}

// PausedChanged implements app.Observer.
func (u *UI) PausedChanged(paused bool) {
	u.mu.Lock()
	u.paused = paused
	ready := u.ready
	u.mu.Unlock()
	if !ready {
		return
	}
	if paused {
		u.mPause.Check()
	} else {
		u.mPause.Uncheck()
	}
	u.updateTitle()
}

func (u *UI) renderBindings(bindings []app.Status) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(bindings) > len(u.mBindings) {
		u.log.Warn().Int("bindings", len(bindings)).Msg("Too many bindings to list in the tray menu")
	}
	for i, item := range u.mBindings {
		if i >= len(bindings) {
			item.Hide()
			continue
		}
		item.SetTitle(itemLabel(bindings[i]))
		item.SetTooltip(bindings[i].Err)
		item.Show()
	}
}

func (u *UI) updateTitle() {
	u.mu.Lock()
	title := statusTitle(u.bindings, u.paused)
	u.mu.Unlock()
	systray.SetTitle(title)
	if u.mStatus != nil {
		u.mStatus.SetTitle(statusLine(u.snapshot()))
	}
}

func (u *UI) snapshot() ([]app.Status, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.bindings, u.paused
}

func (u *UI) open(path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		u.log.Error().Err(err).Str("path", path).Msg("Failed to open")
		return
	}
	go cmd.Wait()
}

// statusTitle sets the tray title with a keyboard and status indicator
func statusTitle(bindings []app.Status, paused bool) string {
	return fmt.Sprintf("⌨ %s", emojiForStatus(overall(bindings, paused)))
}

func statusLine(bindings []app.Status, paused bool) string {
	if paused {
		return "Paused"
	}
	active := 0
	for _, b := range bindings {
		if b.State == app.StateActive {
			active++
		}
	}
	return fmt.Sprintf("%d of %d hotkeys active", active, len(bindings))
}

func overall(bindings []app.Status, paused bool) string {
	if paused {
		return "paused"
	}
	status := "idle"
	for _, b := range bindings {
		switch b.State {
		case app.StateFailed, app.StateInvalid:
			return "error"
		case app.StateDisplaced:
			status = "warning"
		}
	}
	return status
}

// emojiForStatus returns the appropriate status emoji
func emojiForStatus(status string) string {
	switch status {
	case "paused":
		return "⏸"
	case "warning":
		return "🟡" // Yellow - a binding was displaced
	case "error":
		return "🔴" // Red - a binding could not be registered
	default:
		return "🟢" // Green - ready
	}
}

func itemLabel(s app.Status) string {
	label := fmt.Sprintf("%s  %s", s.Hotkey, s.Name)
	switch s.State {
	case app.StateActive:
		if s.Hits > 0 {
			label += fmt.Sprintf(" (%d)", s.Hits)
		}
	default:
		label += fmt.Sprintf(" [%s]", s.State)
	}
	return label
}
