package hotkey

import (
	"strings"
	"testing"
)

func TestParseBindingSuccess(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		wantNorm string
		wantMods Modifier
		wantKey  VKey
	}{
		{
			name:     "Ctrl+Shift+F12",
			spec:     "Ctrl+Shift+F12",
			wantNorm: "Ctrl+Shift+F12",
			wantMods: ModCtrl | ModShift,
			wantKey:  VKF1 + 11,
		},
		{
			name:     "modifier order is canonical",
			spec:     "shift+ctrl+f12",
			wantNorm: "Ctrl+Shift+F12",
			wantMods: ModCtrl | ModShift,
			wantKey:  VKF1 + 11,
		},
		{
			name:     "Ctrl+backtick",
			spec:     "Ctrl+`",
			wantNorm: "Ctrl+`",
			wantMods: ModCtrl,
			wantKey:  VKOem3,
		},
		{
			name:     "letter",
			spec:     "Ctrl+a",
			wantNorm: "Ctrl+A",
			wantMods: ModCtrl,
			wantKey:  VKey('A'),
		},
		{
			name:     "digit",
			spec:     "Alt+3",
			wantNorm: "Alt+3",
			wantMods: ModAlt,
			wantKey:  VKey('3'),
		},
		{
			name:     "named key",
			spec:     "Ctrl+Space",
			wantNorm: "Ctrl+SPACE",
			wantMods: ModCtrl,
			wantKey:  VKSpace,
		},
		{
			name:     "return alias",
			spec:     "Ctrl+Return",
			wantNorm: "Ctrl+ENTER",
			wantMods: ModCtrl,
			wantKey:  VKReturn,
		},
		{
			name:     "arrow",
			spec:     "Win+Left",
			wantNorm: "Win+LEFT",
			wantMods: ModWin,
			wantKey:  VKLeft,
		},
		{
			name:     "hex code",
			spec:     "Ctrl+0x41",
			wantNorm: "Ctrl+A",
			wantMods: ModCtrl,
			wantKey:  VKey(0x41),
		},
		{
			name:     "cmd alias",
			spec:     "Cmd+Option+K",
			wantNorm: "Alt+Win+K",
			wantMods: ModWin | ModAlt,
			wantKey:  VKey('K'),
		},
		{
			name:     "F24",
			spec:     "Ctrl+F24",
			wantNorm: "Ctrl+F24",
			wantMods: ModCtrl,
			wantKey:  VKF24,
		},
		{
			name:     "duplicate modifier",
			spec:     "Ctrl+Ctrl+X",
			wantNorm: "Ctrl+X",
			wantMods: ModCtrl,
			wantKey:  VKey('X'),
		},
		{
			name:     "whitespace",
			spec:     "  Ctrl + Alt + Delete ",
			wantNorm: "Ctrl+Alt+DELETE",
			wantMods: ModCtrl | ModAlt,
			wantKey:  VKDelete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseBinding(tt.spec)
			if err != nil {
				t.Fatalf("ParseBinding(%q) error: %v", tt.spec, err)
			}
			if b.String() != tt.wantNorm {
				t.Errorf("String() = %q, want %q", b.String(), tt.wantNorm)
			}
			if b.Modifiers() != tt.wantMods {
				t.Errorf("Modifiers() = 0x%X, want 0x%X", b.Modifiers(), tt.wantMods)
			}
			if b.Key() != tt.wantKey {
				t.Errorf("Key() = 0x%X, want 0x%X", b.Key(), tt.wantKey)
			}
			if b.ID() != ID(tt.wantMods, tt.wantKey) {
				t.Errorf("ID() = %d, want %d", b.ID(), ID(tt.wantMods, tt.wantKey))
			}
		})
	}
}

func TestParseBindingErrors(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr string
	}{
		{name: "empty", spec: "", wantErr: "empty"},
		{name: "whitespace only", spec: "   ", wantErr: "empty"},
		{name: "key only", spec: "F12", wantErr: "must include modifiers"},
		{name: "unknown modifier", spec: "Hyper+A", wantErr: "unknown modifier"},
		{name: "unknown key", spec: "Ctrl+Banana", wantErr: "unknown key"},
		{name: "missing key", spec: "Ctrl+", wantErr: "missing hotkey key"},
		{name: "zero hex", spec: "Ctrl+0x0", wantErr: "not a valid virtual key"},
		{name: "bad hex", spec: "Ctrl+0xZZ", wantErr: "invalid hex"},
		{name: "F25", spec: "Ctrl+F25", wantErr: "unknown key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBinding(tt.spec)
			if err == nil {
				t.Fatalf("ParseBinding(%q) expected error", tt.spec)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestKeyName(t *testing.T) {
	tests := map[VKey]string{
		'Q':        "Q",
		'7':        "7",
		VKF1:       "F1",
		VKEscape:   "ESC",
		VKey(0xAD): "0XAD",
	}
	for key, want := range tests {
		if got := KeyName(key); got != want {
			t.Errorf("KeyName(0x%X) = %q, want %q", key, got, want)
		}
	}
}

func TestNewBindingRoundTripsThroughParse(t *testing.T) {
	b := NewBinding(ModCtrl|ModAlt, VKHome)
	parsed, err := ParseBinding(b.String())
	if err != nil {
		t.Fatalf("ParseBinding(%q): %v", b.String(), err)
	}
	if parsed != b {
		t.Errorf("round trip = %+v, want %+v", parsed, b)
	}
}
