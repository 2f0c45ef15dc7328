package hotkey_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petems/hotkey-tray/hotkey"
	"github.com/petems/hotkey-tray/hotkey/hotkeytest"
)

func newAttached(t *testing.T) (*hotkey.Registry, *hotkeytest.FakeOS, *hotkeytest.FakeHost) {
	t.Helper()
	os := hotkeytest.NewOS()
	host := hotkeytest.NewHost()
	r := hotkey.New(os, host)
	r.Attach()
	require.True(t, r.IsAttached())
	return r, os, host
}

func TestRegisterFuncCtrlAExample(t *testing.T) {
	r, os, host := newAttached(t)

	var got []string
	c1 := func(hotkey.Binding) { got = append(got, "C1") }
	c2 := func(hotkey.Binding) { got = append(got, "C2") }

	id := r.RegisterFunc(hotkey.ModCtrl, 0x41, c1)
	require.Equal(t, hotkey.ID(hotkey.ModCtrl, 0x41), id)
	require.Equal(t, int32(2028), id)
	first, ok := r.Lookup(id)
	require.True(t, ok)
	comp, ok := first.(*hotkey.Component)
	require.True(t, ok)
	covered := 0
	comp.OnCovered = func() { covered++ }

	id2 := r.RegisterFunc(hotkey.ModCtrl, 0x41, c2)
	require.Equal(t, id, id2)
	assert.Equal(t, 1, covered)
	assert.True(t, os.Registered[id])

	require.True(t, host.Send(hotkey.WMHotkey, uintptr(id)))
	assert.Equal(t, []string{"C2"}, got)
}

func TestRegisterRejectsZeroValues(t *testing.T) {
	tests := []struct {
		name string
		mods hotkey.Modifier
		key  hotkey.VKey
	}{
		{name: "zero modifiers", mods: 0, key: 0x41},
		{name: "zero key", mods: hotkey.ModCtrl, key: 0},
		{name: "both zero", mods: 0, key: 0},
		{name: "id wraps to deferred", mods: hotkey.ModAlt, key: 0xFFFFF836},
		{name: "id wraps to invalid", mods: hotkey.ModAlt, key: 0xFFFFF837},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, attached := range []bool{true, false} {
				os := hotkeytest.NewOS()
				r := hotkey.New(os, hotkeytest.NewHost())
				if attached {
					r.Attach()
				}

				assert.Equal(t, hotkey.Invalid, r.RegisterFunc(tt.mods, tt.key, func(hotkey.Binding) {}))
				assert.Equal(t, hotkey.Invalid, r.Register(hotkey.NewComponent(tt.mods, tt.key)))
				assert.Empty(t, os.Calls)
				assert.Zero(t, r.Len())
				assert.Zero(t, r.Pending())
			}
		})
	}
}

func TestIDCanHitSentinels(t *testing.T) {
	assert.Equal(t, hotkey.Deferred, hotkey.ID(hotkey.ModAlt, 0xFFFFF836))
	assert.Equal(t, hotkey.Invalid, hotkey.ID(hotkey.ModAlt, 0xFFFFF837))
}

func TestRegisterNilHandler(t *testing.T) {
	r, os, _ := newAttached(t)
	assert.Equal(t, hotkey.Invalid, r.Register(nil))
	assert.Empty(t, os.Calls)
}

func TestRegisterThenUnregisterLeavesNoEntry(t *testing.T) {
	pairs := []struct {
		mods hotkey.Modifier
		key  hotkey.VKey
	}{
		{hotkey.ModCtrl, 'A'},
		{hotkey.ModAlt | hotkey.ModShift, hotkey.VKF1 + 11},
		{hotkey.ModWin, hotkey.VKSpace},
		{hotkey.ModCtrl | hotkey.ModNoRepeat, '9'},
	}

	for _, p := range pairs {
		r, os, _ := newAttached(t)
		id := r.RegisterFunc(p.mods, p.key)
		require.Greater(t, id, hotkey.Deferred)

		assert.True(t, r.Unregister(p.mods, p.key))
		_, ok := r.Lookup(id)
		assert.False(t, ok)
		assert.False(t, os.Registered[id])
		assert.Zero(t, r.Len())
	}
}

func TestSecondRegistrationCoversFirstBeforeReRegistering(t *testing.T) {
	r, os, _ := newAttached(t)

	first := hotkey.NewComponent(hotkey.ModCtrl|hotkey.ModShift, 'K')
	var opsAtCover []string
	coverCount := 0
	first.OnCovered = func() {
		coverCount++
		opsAtCover = os.Ops()
	}
	id := r.Register(first)
	require.Greater(t, id, hotkey.Deferred)
	os.Reset()

	second := hotkey.NewComponent(hotkey.ModCtrl|hotkey.ModShift, 'K')
	require.Equal(t, id, r.Register(second))

	assert.Equal(t, 1, coverCount)
	assert.Equal(t, []string{"unregister"}, opsAtCover)
	assert.Equal(t, []string{"unregister", "register"}, os.Ops())

	h, ok := r.Lookup(id)
	require.True(t, ok)
	assert.Same(t, second, h)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterAlwaysUnregistersFirst(t *testing.T) {
	r, os, _ := newAttached(t)
	id := r.RegisterFunc(hotkey.ModAlt, 'Q')
	require.Equal(t, []hotkeytest.Call{
		{Op: "unregister", ID: id},
		{Op: "register", ID: id, Mods: hotkey.ModAlt, Key: 'Q'},
	}, os.Calls)
}

func TestOSRejectionAfterDisplacementLeavesIDUnbound(t *testing.T) {
	r, os, host := newAttached(t)

	covered := 0
	first := hotkey.NewComponent(hotkey.ModCtrl, 'J')
	first.OnCovered = func() { covered++ }
	id := r.Register(first)
	require.Greater(t, id, hotkey.Deferred)

	os.Reject[id] = true
	fired := 0
	assert.Equal(t, hotkey.Invalid, r.RegisterFunc(hotkey.ModCtrl, 'J', func(hotkey.Binding) { fired++ }))
	assert.Equal(t, 1, covered)
	_, ok := r.Lookup(id)
	assert.False(t, ok)
	assert.False(t, os.Registered[id])

	assert.True(t, host.Send(hotkey.WMHotkey, uintptr(id)))
	assert.Zero(t, fired)
}

func TestUnregisterDoesNotCover(t *testing.T) {
	r, _, _ := newAttached(t)
	c := hotkey.NewComponent(hotkey.ModShift, hotkey.VKF1)
	covered := false
	c.OnCovered = func() { covered = true }
	r.Register(c)

	assert.True(t, r.Unregister(hotkey.ModShift, hotkey.VKF1))
	assert.False(t, covered)
}

func TestUnregisterReportsOSResult(t *testing.T) {
	r, _, _ := newAttached(t)
	assert.False(t, r.Unregister(hotkey.ModCtrl, 'Z'))
}

func TestUnregisterLeavesQueueAlone(t *testing.T) {
	os := hotkeytest.NewOS()
	host := hotkeytest.NewHost()
	host.HasWindow = false
	r := hotkey.New(os, host)

	require.Equal(t, hotkey.Deferred, r.RegisterFunc(hotkey.ModCtrl, 'A'))
	r.Unregister(hotkey.ModCtrl, 'A')
	assert.Equal(t, 1, r.Pending())

	host.HasWindow = true
	r.Attach()
	_, ok := r.Lookup(hotkey.ID(hotkey.ModCtrl, 'A'))
	assert.True(t, ok)
}

func TestDeferredRegistrationsReplayInvisibleFirst(t *testing.T) {
	os := hotkeytest.NewOS()
	host := hotkeytest.NewHost()
	host.HasWindow = false
	r := hotkey.New(os, host)

	v1 := hotkey.NewComponent(hotkey.ModAlt, 'V')
	require.Equal(t, hotkey.Deferred, r.Register(v1))
	require.Equal(t, hotkey.Deferred, r.RegisterFunc(hotkey.ModCtrl, '1'))
	v2 := hotkey.NewComponent(hotkey.ModAlt, 'W')
	require.Equal(t, hotkey.Deferred, r.Register(v2))
	require.Equal(t, hotkey.Deferred, r.RegisterFunc(hotkey.ModCtrl, '2'))
	assert.Empty(t, os.Calls)
	assert.Equal(t, 4, r.Pending())

	r.Attach()
	require.False(t, r.IsAttached(), "attach without a window must stay detached")

	host.HasWindow = true
	r.Attach()
	require.True(t, r.IsAttached())
	assert.Zero(t, r.Pending())

	var order []int32
	for _, c := range os.Calls {
		if c.Op == "register" {
			order = append(order, c.ID)
		}
	}
	assert.Equal(t, []int32{
		hotkey.ID(hotkey.ModCtrl, '1'),
		hotkey.ID(hotkey.ModCtrl, '2'),
		hotkey.ID(hotkey.ModAlt, 'V'),
		hotkey.ID(hotkey.ModAlt, 'W'),
	}, order)

	assert.Equal(t, 4, r.Len())
	h, ok := r.Lookup(hotkey.ID(hotkey.ModAlt, 'V'))
	require.True(t, ok)
	assert.Same(t, v1, h)
}

func TestReplayRejectedByOSIsNotLive(t *testing.T) {
	os := hotkeytest.NewOS()
	host := hotkeytest.NewHost()
	host.HasWindow = false
	r := hotkey.New(os, host)

	r.RegisterFunc(hotkey.ModCtrl, 'R')
	r.RegisterFunc(hotkey.ModCtrl, 'S')
	os.Reject[hotkey.ID(hotkey.ModCtrl, 'R')] = true

	host.HasWindow = true
	r.Attach()

	_, ok := r.Lookup(hotkey.ID(hotkey.ModCtrl, 'R'))
	assert.False(t, ok)
	_, ok = r.Lookup(hotkey.ID(hotkey.ModCtrl, 'S'))
	assert.True(t, ok)
}

func TestVisualReplayUsesQueuedKeys(t *testing.T) {
	os := hotkeytest.NewOS()
	host := hotkeytest.NewHost()
	host.HasWindow = false
	r := hotkey.New(os, host)

	c := hotkey.NewComponent(hotkey.ModCtrl, 'A')
	r.Register(c)
	c.SetKey('B')

	host.HasWindow = true
	r.Attach()

	_, ok := r.Lookup(hotkey.ID(hotkey.ModCtrl, 'A'))
	assert.True(t, ok)
	_, ok = r.Lookup(hotkey.ID(hotkey.ModCtrl, 'B'))
	assert.False(t, ok)
}

func TestAttachIsIdempotent(t *testing.T) {
	r, _, host := newAttached(t)
	r.Attach()
	assert.Equal(t, 1, host.Current().Hooks())
}

func TestAttachSourceError(t *testing.T) {
	host := hotkeytest.NewHost()
	host.SourceErr = errors.New("no hwnd source")
	r := hotkey.New(hotkeytest.NewOS(), host)
	r.Attach()
	assert.False(t, r.IsAttached())
}

func TestDetachThenAttachStartsEmpty(t *testing.T) {
	r, os, host := newAttached(t)
	a := r.RegisterFunc(hotkey.ModCtrl, 'A')
	b := r.RegisterFunc(hotkey.ModCtrl, 'B')
	src := host.Current()

	r.Detach()
	assert.False(t, r.IsAttached())
	assert.Zero(t, r.Len())
	assert.False(t, os.Registered[a])
	assert.False(t, os.Registered[b])
	assert.Zero(t, src.Hooks())
	assert.Equal(t, 1, src.Closes)

	r.Detach()
	assert.Equal(t, 1, src.Closes)

	r.Attach()
	require.True(t, r.IsAttached())
	assert.Zero(t, r.Len())
	assert.Equal(t, 1, host.Current().Hooks())
}

func TestDispatch(t *testing.T) {
	r, _, host := newAttached(t)

	var calls []string
	id := r.RegisterFunc(hotkey.ModWin, 'E',
		func(b hotkey.Binding) { calls = append(calls, "first:"+b.String()) },
		func(b hotkey.Binding) { calls = append(calls, "second:"+b.String()) },
	)

	assert.True(t, host.Send(hotkey.WMHotkey, uintptr(id)))
	assert.Equal(t, []string{"first:Win+E", "second:Win+E"}, calls)

	calls = nil
	assert.True(t, host.Send(hotkey.WMHotkey, uintptr(id+1)), "unknown ids are still handled")
	assert.Empty(t, calls)

	assert.False(t, host.Send(0x0100, uintptr(id)), "other messages pass through")
	assert.Empty(t, calls)
}

func TestDispatchAfterUnsubscribe(t *testing.T) {
	r, _, host := newAttached(t)
	c := hotkey.NewComponent(hotkey.ModCtrl, hotkey.VKSpace)
	n := 0
	unsubscribe := c.Event().Subscribe(func(hotkey.Binding) { n++ })
	id := r.Register(c)

	host.Send(hotkey.WMHotkey, uintptr(id))
	unsubscribe()
	host.Send(hotkey.WMHotkey, uintptr(id))
	assert.Equal(t, 1, n)
}
