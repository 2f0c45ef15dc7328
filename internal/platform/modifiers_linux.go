//go:build linux

package platform

import (
	xhotkey "golang.design/x/hotkey"

	"github.com/petems/hotkey-tray/hotkey"
)

// On X11 Alt is Mod1 and Super is Mod4.
var modifierMap = map[hotkey.Modifier]xhotkey.Modifier{
	hotkey.ModCtrl:  xhotkey.ModCtrl,
	hotkey.ModShift: xhotkey.ModShift,
	hotkey.ModAlt:   xhotkey.Mod1,
	hotkey.ModWin:   xhotkey.Mod4,
}
