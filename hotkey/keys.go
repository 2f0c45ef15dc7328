package hotkey

import (
	"fmt"
	"strconv"
	"strings"
)

// Modifier is a Win32-style hotkey modifier bitmask.
type Modifier uint32

// VKey is a Win32 virtual-key code.
type VKey uint32

const (
	ModAlt      Modifier = 0x0001
	ModCtrl     Modifier = 0x0002
	ModShift    Modifier = 0x0004
	ModWin      Modifier = 0x0008
	ModNoRepeat Modifier = 0x4000
)

const (
	VKBack   VKey = 0x08
	VKTab    VKey = 0x09
	VKReturn VKey = 0x0D
	VKEscape VKey = 0x1B
	VKSpace  VKey = 0x20
	VKPrior  VKey = 0x21
	VKNext   VKey = 0x22
	VKEnd    VKey = 0x23
	VKHome   VKey = 0x24
	VKLeft   VKey = 0x25
	VKUp     VKey = 0x26
	VKRight  VKey = 0x27
	VKDown   VKey = 0x28
	VKInsert VKey = 0x2D
	VKDelete VKey = 0x2E
	VKF1     VKey = 0x70
	VKF24    VKey = 0x87
	VKOem3   VKey = 0xC0

	// Modifier keys as plain keys. Only meaningful for local chords; global
	// bindings express them through Modifier bits.
	VKShift   VKey = 0x10
	VKControl VKey = 0x11
	VKMenu    VKey = 0x12
	VKLWin    VKey = 0x5B
)

var modifierByName = map[string]Modifier{
	"CTRL":    ModCtrl,
	"CONTROL": ModCtrl,
	"SHIFT":   ModShift,
	"ALT":     ModAlt,
	"OPTION":  ModAlt,
	"WIN":     ModWin,
	"SUPER":   ModWin,
	"CMD":     ModWin,
}

var keyByName = map[string]VKey{
	"SPACE":     VKSpace,
	"TAB":       VKTab,
	"ENTER":     VKReturn,
	"RETURN":    VKReturn,
	"ESC":       VKEscape,
	"ESCAPE":    VKEscape,
	"BACKSPACE": VKBack,
	"DELETE":    VKDelete,
	"INSERT":    VKInsert,
	"HOME":      VKHome,
	"END":       VKEnd,
	"PAGEUP":    VKPrior,
	"PAGEDOWN":  VKNext,
	"LEFT":      VKLeft,
	"RIGHT":     VKRight,
	"UP":        VKUp,
	"DOWN":      VKDown,
}

var nameByKey = func() map[VKey]string {
	m := map[VKey]string{
		VKSpace:   "SPACE",
		VKTab:     "TAB",
		VKReturn:  "ENTER",
		VKEscape:  "ESC",
		VKBack:    "BACKSPACE",
		VKDelete:  "DELETE",
		VKInsert:  "INSERT",
		VKHome:    "HOME",
		VKEnd:     "END",
		VKPrior:   "PAGEUP",
		VKNext:    "PAGEDOWN",
		VKLeft:    "LEFT",
		VKRight:   "RIGHT",
		VKUp:      "UP",
		VKDown:    "DOWN",
		VKOem3:    "`",
		VKShift:   "SHIFT",
		VKControl: "CTRL",
		VKMenu:    "ALT",
		VKLWin:    "WIN",
	}
	for k := VKF1; k <= VKF24; k++ {
		m[k] = fmt.Sprintf("F%d", k-VKF1+1)
	}
	return m
}()

// Binding describes a global hotkey: modifiers plus a trigger key.
// Construct via NewBinding or ParseBinding.
type Binding struct {
	modifiers  Modifier
	key        VKey
	normalized string
}

// NewBinding builds a Binding from raw values.
func NewBinding(mods Modifier, key VKey) Binding {
	return Binding{modifiers: mods, key: key, normalized: formatBinding(mods, key)}
}

// Modifiers returns the modifier bitmask.
func (b Binding) Modifiers() Modifier { return b.modifiers }

// Key returns the virtual-key code.
func (b Binding) Key() VKey { return b.key }

// ID returns the registry identity of the binding.
func (b Binding) ID() int32 { return ID(b.modifiers, b.key) }

// String returns the canonical human-readable form, e.g. "Ctrl+Shift+F12".
func (b Binding) String() string { return b.normalized }

// ParseBinding parses a binding like "Ctrl+Shift+F12".
func ParseBinding(spec string) (Binding, error) {
	raw := strings.TrimSpace(spec)
	if raw == "" {
		return Binding{}, fmt.Errorf("hotkey spec is empty")
	}

	parts := strings.Split(raw, "+")
	if len(parts) < 2 {
		return Binding{}, fmt.Errorf("hotkey must include modifiers and key: %s", raw)
	}

	var modifiers Modifier
	for _, token := range parts[:len(parts)-1] {
		name := strings.ToUpper(strings.TrimSpace(token))
		mod, ok := modifierByName[name]
		if !ok {
			return Binding{}, fmt.Errorf("unknown modifier %q in hotkey %q", token, raw)
		}
		modifiers |= mod
	}

	key, err := ParseKey(parts[len(parts)-1])
	if err != nil {
		return Binding{}, err
	}
	if modifiers == 0 {
		return Binding{}, fmt.Errorf("at least one modifier is required: %q", raw)
	}
	return NewBinding(modifiers, key), nil
}

// ParseKey parses a single key token: a letter, digit, F1-F24, a named key
// or a hex virtual-key code such as 0x41.
func ParseKey(raw string) (VKey, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return 0, fmt.Errorf("missing hotkey key token")
	}

	if key, ok := keyByName[token]; ok {
		return key, nil
	}

	if len(token) == 1 {
		ch := token[0]
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			return VKey(ch), nil
		case ch == '`':
			return VKOem3, nil
		}
	}

	switch token {
	case "BACKQUOTE", "GRAVE":
		return VKOem3, nil
	}

	if len(token) >= 2 && token[0] == 'F' {
		if n, err := strconv.Atoi(token[1:]); err == nil && n >= 1 && n <= 24 {
			return VKF1 + VKey(n-1), nil
		}
	}

	if strings.HasPrefix(token, "0X") {
		value, err := strconv.ParseUint(token[2:], 16, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid hex key %q", raw)
		}
		if value == 0 {
			return 0, fmt.Errorf("key code 0x0000 is not a valid virtual key")
		}
		return VKey(value), nil
	}

	return 0, fmt.Errorf("unknown key %q in hotkey spec", raw)
}

// KeyName returns the display name of a virtual key.
func KeyName(key VKey) string {
	if name, ok := nameByKey[key]; ok {
		return name
	}
	if (key >= 'A' && key <= 'Z') || (key >= '0' && key <= '9') {
		return string(rune(key))
	}
	return fmt.Sprintf("0X%02X", uint32(key))
}

func formatBinding(mods Modifier, key VKey) string {
	var parts []string
	if mods&ModCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if mods&ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if mods&ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if mods&ModWin != 0 {
		parts = append(parts, "Win")
	}
	return strings.Join(append(parts, KeyName(key)), "+")
}
