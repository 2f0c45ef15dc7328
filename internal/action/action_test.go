package action

import (
	"context"
	"errors"
	"testing"

	"github.com/micmonay/keybd_event"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petems/hotkey-tray/hotkey"
	"github.com/petems/hotkey-tray/internal/config"
	"github.com/petems/hotkey-tray/localkey"
)

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

type fakeKeys struct{ sent []localkey.Chord }

func (f *fakeKeys) Send(c localkey.Chord) error {
	f.sent = append(f.sent, c)
	return nil
}

type fakeRunner struct{ argv [][]string }

func (f *fakeRunner) Run(_ context.Context, argv []string) error {
	f.argv = append(f.argv, argv)
	return nil
}

type fakeNotifier struct{ titles, texts []string }

func (f *fakeNotifier) Info(title, message string) {
	f.titles = append(f.titles, title)
	f.texts = append(f.texts, message)
}

type fakeBeeper struct{ n int }

func (f *fakeBeeper) Beep(context.Context) error {
	f.n++
	return nil
}

type fixture struct {
	clip     *fakeClipboard
	keys     *fakeKeys
	runner   *fakeRunner
	notifier *fakeNotifier
	beeper   *fakeBeeper
	factory  *Factory
}

func newFixture() *fixture {
	f := &fixture{
		clip:     &fakeClipboard{},
		keys:     &fakeKeys{},
		runner:   &fakeRunner{},
		notifier: &fakeNotifier{},
		beeper:   &fakeBeeper{},
	}
	f.factory = NewFactory(Deps{
		Clipboard: f.clip,
		Keys:      f.keys,
		Runner:    f.runner,
		Notifier:  f.notifier,
		Beeper:    f.beeper,
		Logger:    zerolog.Nop(),
	})
	return f
}

func TestBuildAndRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	a, err := f.factory.Build(config.Binding{Action: config.ActionClipboard, Text: "hello"})
	require.NoError(t, err)
	require.NoError(t, a.Run(ctx))
	assert.Equal(t, "hello", f.clip.text)
	assert.Equal(t, `copy "hello"`, a.Describe())

	a, err = f.factory.Build(config.Binding{Action: config.ActionKeys, Keys: "Ctrl+Shift+V"})
	require.NoError(t, err)
	require.NoError(t, a.Run(ctx))
	assert.Equal(t, []localkey.Chord{{hotkey.VKControl, hotkey.VKShift, 'V'}}, f.keys.sent)
	assert.Equal(t, "send CTRL+SHIFT+V", a.Describe())

	a, err = f.factory.Build(config.Binding{Action: config.ActionCommand, Command: []string{"xterm", "-e", "top"}})
	require.NoError(t, err)
	require.NoError(t, a.Run(ctx))
	assert.Equal(t, [][]string{{"xterm", "-e", "top"}}, f.runner.argv)
	assert.Equal(t, "run xterm -e top", a.Describe())

	a, err = f.factory.Build(config.Binding{Name: "Hello", Action: config.ActionNotify, Text: "world"})
	require.NoError(t, err)
	require.NoError(t, a.Run(ctx))
	assert.Equal(t, []string{"Hello"}, f.notifier.titles)
	assert.Equal(t, []string{"world"}, f.notifier.texts)

	a, err = f.factory.Build(config.Binding{Action: config.ActionBeep})
	require.NoError(t, err)
	require.NoError(t, a.Run(ctx))
	assert.Equal(t, 1, f.beeper.n)
	assert.Equal(t, "beep", a.Describe())
}

func TestBuildErrors(t *testing.T) {
	f := newFixture()

	_, err := f.factory.Build(config.Binding{Action: "launch"})
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = f.factory.Build(config.Binding{Action: config.ActionKeys, Keys: ""})
	assert.Error(t, err)

	_, err = f.factory.Build(config.Binding{Action: config.ActionCommand})
	assert.Error(t, err)

	_, err = f.factory.Build(config.Binding{Action: config.ActionKeys, Keys: "Ctrl+0x5D"})
	assert.ErrorContains(t, err, "cannot be sent")

	_, err = f.factory.Build(config.Binding{Action: config.ActionKeys, Keys: "Ctrl+Shift"})
	assert.ErrorContains(t, err, "no key besides modifiers")

	bare := NewFactory(Deps{Clipboard: f.clip, Keys: f.keys, Runner: f.runner})
	_, err = bare.Build(config.Binding{Action: config.ActionNotify})
	assert.Error(t, err)
	_, err = bare.Build(config.Binding{Action: config.ActionBeep})
	assert.Error(t, err)
}

func TestClipboardErrorIsWrapped(t *testing.T) {
	f := newFixture()
	f.clip.err = errors.New("no display")
	a, err := f.factory.Build(config.Binding{Action: config.ActionClipboard, Text: "x"})
	require.NoError(t, err)
	assert.ErrorContains(t, a.Run(context.Background()), "no display")
}

func TestDescribeTruncatesLongText(t *testing.T) {
	a := &clipboardAction{text: "abcdefghijklmnopqrstuvwxyz"}
	assert.Equal(t, `copy "abcdefghijklmnopqrstuvwx..."`, a.Describe())

	a = &clipboardAction{text: "ääääääääääääääääääääääääää"}
	assert.Equal(t, `copy "ääääääääääääääääääääääää..."`, a.Describe())
}

func TestBuildSendableChords(t *testing.T) {
	f := newFixture()
	for _, keys := range []string{"Ctrl+Enter", "Alt+Left", "Escape", "Ctrl+Delete"} {
		a, err := f.factory.Build(config.Binding{Action: config.ActionKeys, Keys: keys})
		require.NoError(t, err, keys)
		require.NoError(t, a.Run(context.Background()), keys)
	}
	assert.Len(t, f.keys.sent, 4)
}

func TestPlanChord(t *testing.T) {
	p, err := planChord(localkey.Chord{hotkey.VKControl, hotkey.VKShift, 'V'})
	require.NoError(t, err)
	assert.Equal(t, []int{keybd_event.VK_V}, p.keys)
	assert.True(t, p.ctrl)
	assert.True(t, p.shift)
	assert.False(t, p.alt)
	assert.False(t, p.super)

	p, err = planChord(localkey.Chord{hotkey.VKLWin, hotkey.VKMenu, hotkey.VKF1 + 4})
	require.NoError(t, err)
	assert.Equal(t, []int{keybd_event.VK_F5}, p.keys)
	assert.True(t, p.alt)
	assert.True(t, p.super)

	_, err = planChord(localkey.Chord{hotkey.VKControl})
	assert.ErrorContains(t, err, "no key besides modifiers")

	_, err = planChord(localkey.Chord{hotkey.VKControl, 0x5D})
	assert.ErrorContains(t, err, "cannot be sent")
}

func TestPlanChordNamedKeys(t *testing.T) {
	tests := []struct {
		chord string
		want  int
	}{
		{"Ctrl+Enter", keybd_event.VK_ENTER},
		{"Escape", keybd_event.VK_ESC},
		{"Alt+Left", keybd_event.VK_LEFT},
		{"Alt+Right", keybd_event.VK_RIGHT},
		{"Shift+Up", keybd_event.VK_UP},
		{"Shift+Down", keybd_event.VK_DOWN},
		{"Ctrl+Home", keybd_event.VK_HOME},
		{"Ctrl+End", keybd_event.VK_END},
		{"Ctrl+PageUp", keybd_event.VK_PAGEUP},
		{"Ctrl+PageDown", keybd_event.VK_PAGEDOWN},
		{"Ctrl+F13", keybd_event.VK_F13},
		{"Ctrl+F20", keybd_event.VK_F20},
		{"Ctrl+Delete", platformKeyCodes[hotkey.VKDelete]},
		{"Backspace", platformKeyCodes[hotkey.VKBack]},
		{"Ctrl+`", platformKeyCodes[hotkey.VKOem3]},
	}
	for _, tt := range tests {
		t.Run(tt.chord, func(t *testing.T) {
			chord, err := localkey.ParseChord(tt.chord)
			require.NoError(t, err)
			p, err := planChord(chord)
			require.NoError(t, err)
			assert.Equal(t, []int{tt.want}, p.keys)
		})
	}
}

// Every key the parser knows by name must be sendable, except those the
// platform has no key code for.
func TestKeyCodesCoverParser(t *testing.T) {
	for _, name := range []string{
		"SPACE", "TAB", "ENTER", "ESC", "BACKSPACE", "DELETE", "HOME", "END",
		"PAGEUP", "PAGEDOWN", "LEFT", "RIGHT", "UP", "DOWN", "`",
		"F1", "F12", "F13", "F20", "A", "Z", "0", "9",
	} {
		k, err := hotkey.ParseKey(name)
		require.NoError(t, err, name)
		_, ok := keyCodes[k]
		assert.True(t, ok, name)
	}
}

func TestExecRunnerErrors(t *testing.T) {
	r := ExecRunner{Logger: zerolog.Nop()}
	assert.Error(t, r.Run(context.Background(), nil))
	assert.ErrorContains(t, r.Run(context.Background(), []string{"definitely-not-a-real-program-4711"}), "failed to find")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx, []string{"true"}), context.Canceled)
}
