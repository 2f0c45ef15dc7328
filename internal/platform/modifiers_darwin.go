//go:build darwin

package platform

import (
	xhotkey "golang.design/x/hotkey"

	"github.com/petems/hotkey-tray/hotkey"
)

var modifierMap = map[hotkey.Modifier]xhotkey.Modifier{
	hotkey.ModCtrl:  xhotkey.ModCtrl,
	hotkey.ModShift: xhotkey.ModShift,
	hotkey.ModAlt:   xhotkey.ModOption,
	hotkey.ModWin:   xhotkey.ModCmd,
}
