package action

import (
	"fmt"
	"sync"

	"github.com/micmonay/keybd_event"

	"github.com/petems/hotkey-tray/hotkey"
	"github.com/petems/hotkey-tray/localkey"
)

// keyCodes maps virtual keys to keybd_event codes. keybd_event constants are
// per platform; keys whose names differ between platforms, or that a platform
// lacks, live in platformKeyCodes.
var keyCodes = map[hotkey.VKey]int{
	'A': keybd_event.VK_A,
	'B': keybd_event.VK_B,
	'C': keybd_event.VK_C,
	'D': keybd_event.VK_D,
	'E': keybd_event.VK_E,
	'F': keybd_event.VK_F,
	'G': keybd_event.VK_G,
	'H': keybd_event.VK_H,
	'I': keybd_event.VK_I,
	'J': keybd_event.VK_J,
	'K': keybd_event.VK_K,
	'L': keybd_event.VK_L,
	'M': keybd_event.VK_M,
	'N': keybd_event.VK_N,
	'O': keybd_event.VK_O,
	'P': keybd_event.VK_P,
	'Q': keybd_event.VK_Q,
	'R': keybd_event.VK_R,
	'S': keybd_event.VK_S,
	'T': keybd_event.VK_T,
	'U': keybd_event.VK_U,
	'V': keybd_event.VK_V,
	'W': keybd_event.VK_W,
	'X': keybd_event.VK_X,
	'Y': keybd_event.VK_Y,
	'Z': keybd_event.VK_Z,
	'0': keybd_event.VK_0,
	'1': keybd_event.VK_1,
	'2': keybd_event.VK_2,
	'3': keybd_event.VK_3,
	'4': keybd_event.VK_4,
	'5': keybd_event.VK_5,
	'6': keybd_event.VK_6,
	'7': keybd_event.VK_7,
	'8': keybd_event.VK_8,
	'9': keybd_event.VK_9,

	hotkey.VKF1:      keybd_event.VK_F1,
	hotkey.VKF1 + 1:  keybd_event.VK_F2,
	hotkey.VKF1 + 2:  keybd_event.VK_F3,
	hotkey.VKF1 + 3:  keybd_event.VK_F4,
	hotkey.VKF1 + 4:  keybd_event.VK_F5,
	hotkey.VKF1 + 5:  keybd_event.VK_F6,
	hotkey.VKF1 + 6:  keybd_event.VK_F7,
	hotkey.VKF1 + 7:  keybd_event.VK_F8,
	hotkey.VKF1 + 8:  keybd_event.VK_F9,
	hotkey.VKF1 + 9:  keybd_event.VK_F10,
	hotkey.VKF1 + 10: keybd_event.VK_F11,
	hotkey.VKF1 + 11: keybd_event.VK_F12,
	hotkey.VKF1 + 12: keybd_event.VK_F13,
	hotkey.VKF1 + 13: keybd_event.VK_F14,
	hotkey.VKF1 + 14: keybd_event.VK_F15,
	hotkey.VKF1 + 15: keybd_event.VK_F16,
	hotkey.VKF1 + 16: keybd_event.VK_F17,
	hotkey.VKF1 + 17: keybd_event.VK_F18,
	hotkey.VKF1 + 18: keybd_event.VK_F19,
	hotkey.VKF1 + 19: keybd_event.VK_F20,

	hotkey.VKSpace:  keybd_event.VK_SPACE,
	hotkey.VKTab:    keybd_event.VK_TAB,
	hotkey.VKReturn: keybd_event.VK_ENTER,
	hotkey.VKEscape: keybd_event.VK_ESC,
	hotkey.VKHome:   keybd_event.VK_HOME,
	hotkey.VKEnd:    keybd_event.VK_END,
	hotkey.VKPrior:  keybd_event.VK_PAGEUP,
	hotkey.VKNext:   keybd_event.VK_PAGEDOWN,
	hotkey.VKLeft:   keybd_event.VK_LEFT,
	hotkey.VKRight:  keybd_event.VK_RIGHT,
	hotkey.VKUp:     keybd_event.VK_UP,
	hotkey.VKDown:   keybd_event.VK_DOWN,
}

func init() {
	for k, code := range platformKeyCodes {
		keyCodes[k] = code
	}
}

// press is a chord split the way keybd_event wants it.
type press struct {
	keys                    []int
	ctrl, shift, alt, super bool
}

func planChord(chord localkey.Chord) (press, error) {
	var p press
	for _, k := range chord {
		switch k {
		case hotkey.VKControl:
			p.ctrl = true
		case hotkey.VKShift:
			p.shift = true
		case hotkey.VKMenu:
			p.alt = true
		case hotkey.VKLWin:
			p.super = true
		default:
			code, ok := keyCodes[k]
			if !ok {
				return press{}, fmt.Errorf("key %s cannot be sent", hotkey.KeyName(k))
			}
			p.keys = append(p.keys, code)
		}
	}
	if len(p.keys) == 0 {
		return press{}, fmt.Errorf("chord %s has no key besides modifiers", chord)
	}
	return p, nil
}

// KeybdSender sends chords through keybd_event. The key bonding is created
// on first use; on Linux that needs write access to /dev/uinput.
type KeybdSender struct {
	mu   sync.Mutex
	once sync.Once
	kb   keybd_event.KeyBonding
	err  error
}

func NewKeybdSender() *KeybdSender { return &KeybdSender{} }

func (s *KeybdSender) Send(chord localkey.Chord) error {
	p, err := planChord(chord)
	if err != nil {
		return err
	}

	s.once.Do(func() {
		s.kb, s.err = keybd_event.NewKeyBonding()
	})
	if s.err != nil {
		return fmt.Errorf("keyboard emulation unavailable: %w", s.err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.kb.Clear()
	s.kb.SetKeys(p.keys...)
	s.kb.HasCTRL(p.ctrl)
	s.kb.HasSHIFT(p.shift)
	s.kb.HasALT(p.alt)
	s.kb.HasSuper(p.super)
	return s.kb.Launching()
}
