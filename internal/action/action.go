// Package action runs what a binding asks for when its hotkey fires.
package action

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/petems/hotkey-tray/internal/config"
	"github.com/petems/hotkey-tray/localkey"
)

// describeLen caps the clipboard text shown in descriptions, in runes.
const describeLen = 24

// ErrUnknownAction is returned by Build for an action kind it cannot make.
var ErrUnknownAction = errors.New("unknown action")

// Action is the work bound to a hotkey.
type Action interface {
	Run(ctx context.Context) error
	Describe() string
}

// Clipboard writes the system clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// KeySender synthesizes a key chord.
type KeySender interface {
	Send(chord localkey.Chord) error
}

// Runner starts an external program.
type Runner interface {
	Run(ctx context.Context, argv []string) error
}

// Notifier shows a desktop notification.
type Notifier interface {
	Info(title, message string)
}

// Beeper plays an audible cue.
type Beeper interface {
	Beep(ctx context.Context) error
}

// Deps are the side-effecting collaborators of actions. Nil fields get the
// system implementations; Notifier and Beeper have none and must be set for
// notify and beep actions.
type Deps struct {
	Clipboard Clipboard
	Keys      KeySender
	Runner    Runner
	Notifier  Notifier
	Beeper    Beeper
	Logger    zerolog.Logger
}

// Factory builds actions from config bindings.
type Factory struct {
	deps Deps
}

func NewFactory(deps Deps) *Factory {
	if deps.Clipboard == nil {
		deps.Clipboard = SystemClipboard{}
	}
	if deps.Keys == nil {
		deps.Keys = NewKeybdSender()
	}
	if deps.Runner == nil {
		deps.Runner = ExecRunner{Logger: deps.Logger}
	}
	return &Factory{deps: deps}
}

// Build returns the action of b.
func (f *Factory) Build(b config.Binding) (Action, error) {
	switch b.Action {
	case config.ActionClipboard:
		return &clipboardAction{clip: f.deps.Clipboard, text: b.Text}, nil
	case config.ActionKeys:
		chord, err := localkey.ParseChord(b.Keys)
		if err != nil {
			return nil, err
		}
		if _, err := planChord(chord); err != nil {
			return nil, fmt.Errorf("keys action: %w", err)
		}
		return &keysAction{keys: f.deps.Keys, chord: chord}, nil
	case config.ActionCommand:
		if len(b.Command) == 0 {
			return nil, errors.New("command action needs a program")
		}
		return &commandAction{runner: f.deps.Runner, argv: b.Command}, nil
	case config.ActionNotify:
		if f.deps.Notifier == nil {
			return nil, errors.New("notify action: notifications are unavailable")
		}
		return &notifyAction{notifier: f.deps.Notifier, title: b.Label(), text: b.Text}, nil
	case config.ActionBeep:
		if f.deps.Beeper == nil {
			return nil, errors.New("beep action: audio is unavailable")
		}
		return &beepAction{beeper: f.deps.Beeper}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownAction, b.Action)
	}
}

type clipboardAction struct {
	clip Clipboard
	text string
}

func (a *clipboardAction) Run(context.Context) error {
	if err := a.clip.WriteAll(a.text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

func (a *clipboardAction) Describe() string {
	text := a.text
	if r := []rune(text); len(r) > describeLen {
		text = string(r[:describeLen]) + "..."
	}
	return fmt.Sprintf("copy %q", text)
}

type keysAction struct {
	keys  KeySender
	chord localkey.Chord
}

func (a *keysAction) Run(context.Context) error {
	if err := a.keys.Send(a.chord); err != nil {
		return fmt.Errorf("failed to send %s: %w", a.chord, err)
	}
	return nil
}

func (a *keysAction) Describe() string { return "send " + a.chord.String() }

type commandAction struct {
	runner Runner
	argv   []string
}

func (a *commandAction) Run(ctx context.Context) error {
	return a.runner.Run(ctx, a.argv)
}

func (a *commandAction) Describe() string { return "run " + strings.Join(a.argv, " ") }

type notifyAction struct {
	notifier Notifier
	title    string
	text     string
}

func (a *notifyAction) Run(context.Context) error {
	a.notifier.Info(a.title, a.text)
	return nil
}

func (a *notifyAction) Describe() string { return "notify" }

type beepAction struct {
	beeper Beeper
}

func (a *beepAction) Run(ctx context.Context) error { return a.beeper.Beep(ctx) }

func (a *beepAction) Describe() string { return "beep" }
