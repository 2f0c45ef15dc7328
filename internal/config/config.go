package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/petems/hotkey-tray/hotkey"
	"github.com/petems/hotkey-tray/localkey"
)

// Action kinds.
const (
	ActionClipboard = "clipboard"
	ActionKeys      = "keys"
	ActionCommand   = "command"
	ActionNotify    = "notify"
	ActionBeep      = "beep"
)

type Config struct {
	LogLevel      string    `yaml:"log_level"`
	Beep          bool      `yaml:"beep"`
	Notifications bool      `yaml:"notifications"`
	Bindings      []Binding `yaml:"bindings"`

	path string
}

type Binding struct {
	Name         string   `yaml:"name"`
	Hotkey       string   `yaml:"hotkey"`
	HotkeyDarwin string   `yaml:"hotkey_darwin,omitempty"` // Cmd/Option layout override
	Action       string   `yaml:"action"`
	Text         string   `yaml:"text,omitempty"`    // clipboard text or notification body
	Keys         string   `yaml:"keys,omitempty"`    // chord to send, e.g. "Ctrl+Shift+V"
	Command      []string `yaml:"command,omitempty"` // argv
	Disabled     bool     `yaml:"disabled,omitempty"`
}

// Default returns the configuration written on first run.
func Default() *Config {
	return &Config{
		LogLevel:      "info",
		Beep:          false,
		Notifications: true,
		Bindings: []Binding{
			{
				Name:   "Say hello",
				Hotkey: "Ctrl+Alt+H",
				Action: ActionNotify,
				Text:   "Hotkeys are working",
			},
			{
				Name:         "Paste signature",
				Hotkey:       "Ctrl+Shift+F12",
				HotkeyDarwin: "Cmd+Shift+F12",
				Action:       ActionClipboard,
				Text:         "Sent from my keyboard",
			},
		},
	}
}

// Load reads the config at path, or at DefaultPath when path is empty.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	// Bindings in the file replace the default list rather than merging.
	cfg.Bindings = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string { return c.path }

// Save writes the config back to the file it was loaded from.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = DefaultPath()
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("save config: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save config: mkdir: %w", err)
	}

	// temp file + rename so a watcher never sees a half-written file
	tmp, err := os.CreateTemp(dir, ".config.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("save config: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("save config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("save config: close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("save config: rename: %w", err)
	}
	c.path = path
	return nil
}

// Validate checks every binding and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	for i, b := range c.Bindings {
		if b.Disabled {
			continue
		}
		if _, err := b.Parse(); err != nil {
			errs = append(errs, fmt.Errorf("binding %d (%s): %w", i, b.Label(), err))
			continue
		}
		if err := b.validateAction(); err != nil {
			errs = append(errs, fmt.Errorf("binding %d (%s): %w", i, b.Label(), err))
		}
	}
	return errors.Join(errs...)
}

// Conflicts lists enabled bindings that share a hotkey identity with an
// earlier one. The later binding wins when both are registered.
func (c *Config) Conflicts() []string {
	var out []string
	seen := make(map[int32]string)
	for _, b := range c.Bindings {
		if b.Disabled {
			continue
		}
		parsed, err := b.Parse()
		if err != nil {
			continue
		}
		if prev, dup := seen[parsed.ID()]; dup {
			out = append(out, fmt.Sprintf("%s (%s) replaces %s", b.Label(), parsed, prev))
		}
		seen[parsed.ID()] = b.Label()
	}
	return out
}

func (b Binding) validateAction() error {
	switch b.Action {
	case ActionClipboard:
		if b.Text == "" {
			return errors.New("clipboard action needs text")
		}
	case ActionKeys:
		if _, err := localkey.ParseChord(b.Keys); err != nil {
			return fmt.Errorf("keys action: %w", err)
		}
	case ActionCommand:
		if len(b.Command) == 0 || b.Command[0] == "" {
			return errors.New("command action needs a program")
		}
	case ActionNotify, ActionBeep:
	default:
		return fmt.Errorf("unknown action %q", b.Action)
	}
	return nil
}

// PlatformHotkey returns the hotkey for the current platform.
func (b Binding) PlatformHotkey() string {
	if runtime.GOOS == "darwin" && b.HotkeyDarwin != "" {
		return b.HotkeyDarwin
	}
	return b.Hotkey
}

// Parse parses the platform hotkey.
func (b Binding) Parse() (hotkey.Binding, error) {
	return hotkey.ParseBinding(b.PlatformHotkey())
}

// Label is the display name of the binding.
func (b Binding) Label() string {
	if b.Name != "" {
		return b.Name
	}
	return b.PlatformHotkey()
}

// DefaultPath returns the platform-specific config file path.
func DefaultPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "hotkey-tray", "config.yaml")
}
