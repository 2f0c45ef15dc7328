package audio

import "context"

// Player plays the audible cue for a fired hotkey.
type Player interface {
	Beep(ctx context.Context) error
	Close() error
}

// OutputDevice represents an audio output device
type OutputDevice struct {
	ID      string
	Name    string
	Default bool
}

// Nop is a Player that stays silent.
type Nop struct{}

func (Nop) Beep(context.Context) error { return nil }
func (Nop) Close() error { return nil }
