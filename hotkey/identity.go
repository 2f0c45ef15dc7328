package hotkey

// Offset keeps registry ids clear of small ids the OS or the host may use.
const Offset int32 = 2025

// Register results that are not live ids.
const (
	Invalid  int32 = -1
	Deferred int32 = 0
)

// ID returns the identity of a (modifiers, key) pair. Equal pairs always map
// to the same id; (a, b) and (b, a) generally do not. The arithmetic wraps,
// so key codes far outside the virtual-key range can produce Invalid or
// Deferred; the registry refuses those pairs.
func ID(mods Modifier, key VKey) int32 {
	return Offset + combine(uint32(mods), uint32(key))
}

func combine(h1, h2 uint32) int32 {
	rol5 := (h1 << 5) | (h1 >> 27)
	return (int32(rol5) + int32(h1)) ^ int32(h2)
}
