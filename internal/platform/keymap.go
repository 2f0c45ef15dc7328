//go:build darwin || linux

package platform

import (
	xhotkey "golang.design/x/hotkey"

	"github.com/petems/hotkey-tray/hotkey"
)

var keyTable = map[hotkey.VKey]xhotkey.Key{
	// Letters and digits share their ASCII codes.
	'A': xhotkey.KeyA,
	'B': xhotkey.KeyB,
	'C': xhotkey.KeyC,
	'D': xhotkey.KeyD,
	'E': xhotkey.KeyE,
	'F': xhotkey.KeyF,
	'G': xhotkey.KeyG,
	'H': xhotkey.KeyH,
	'I': xhotkey.KeyI,
	'J': xhotkey.KeyJ,
	'K': xhotkey.KeyK,
	'L': xhotkey.KeyL,
	'M': xhotkey.KeyM,
	'N': xhotkey.KeyN,
	'O': xhotkey.KeyO,
	'P': xhotkey.KeyP,
	'Q': xhotkey.KeyQ,
	'R': xhotkey.KeyR,
	'S': xhotkey.KeyS,
	'T': xhotkey.KeyT,
	'U': xhotkey.KeyU,
	'V': xhotkey.KeyV,
	'W': xhotkey.KeyW,
	'X': xhotkey.KeyX,
	'Y': xhotkey.KeyY,
	'Z': xhotkey.KeyZ,
	'0': xhotkey.Key0,
	'1': xhotkey.Key1,
	'2': xhotkey.Key2,
	'3': xhotkey.Key3,
	'4': xhotkey.Key4,
	'5': xhotkey.Key5,
	'6': xhotkey.Key6,
	'7': xhotkey.Key7,
	'8': xhotkey.Key8,
	'9': xhotkey.Key9,

	hotkey.VKF1:      xhotkey.KeyF1,
	hotkey.VKF1 + 1:  xhotkey.KeyF2,
	hotkey.VKF1 + 2:  xhotkey.KeyF3,
	hotkey.VKF1 + 3:  xhotkey.KeyF4,
	hotkey.VKF1 + 4:  xhotkey.KeyF5,
	hotkey.VKF1 + 5:  xhotkey.KeyF6,
	hotkey.VKF1 + 6:  xhotkey.KeyF7,
	hotkey.VKF1 + 7:  xhotkey.KeyF8,
	hotkey.VKF1 + 8:  xhotkey.KeyF9,
	hotkey.VKF1 + 9:  xhotkey.KeyF10,
	hotkey.VKF1 + 10: xhotkey.KeyF11,
	hotkey.VKF1 + 11: xhotkey.KeyF12,

	hotkey.VKSpace:  xhotkey.KeySpace,
	hotkey.VKReturn: xhotkey.KeyReturn,
	hotkey.VKEscape: xhotkey.KeyEscape,
	hotkey.VKTab:    xhotkey.KeyTab,
	hotkey.VKDelete: xhotkey.KeyDelete,
	hotkey.VKLeft:   xhotkey.KeyLeft,
	hotkey.VKRight:  xhotkey.KeyRight,
	hotkey.VKUp:     xhotkey.KeyUp,
	hotkey.VKDown:   xhotkey.KeyDown,
}
