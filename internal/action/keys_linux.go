package action

import (
	"github.com/micmonay/keybd_event"

	"github.com/petems/hotkey-tray/hotkey"
)

var platformKeyCodes = map[hotkey.VKey]int{
	hotkey.VKBack:    keybd_event.VK_BACKSPACE,
	hotkey.VKInsert:  keybd_event.VK_INSERT,
	hotkey.VKDelete:  keybd_event.VK_DELETE,
	hotkey.VKOem3:    keybd_event.VK_SP1,
	hotkey.VKF24 - 3: keybd_event.VK_F21,
	hotkey.VKF24 - 2: keybd_event.VK_F22,
	hotkey.VKF24 - 1: keybd_event.VK_F23,
	hotkey.VKF24:     keybd_event.VK_F24,
}
