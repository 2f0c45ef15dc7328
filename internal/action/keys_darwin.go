package action

import (
	"github.com/micmonay/keybd_event"

	"github.com/petems/hotkey-tray/hotkey"
)

var platformKeyCodes = map[hotkey.VKey]int{
	hotkey.VKBack:   keybd_event.VK_DELETE,
	hotkey.VKDelete: keybd_event.VK_ForwardDelete,
	hotkey.VKOem3:   keybd_event.VK_SP12,
}
