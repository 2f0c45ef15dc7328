package hotkey

// Callback is run when a hotkey fires.
type Callback func(Binding)

type subscriber struct {
	id int
	fn Callback
}

// Event is a multicast slot. Subscribers run in subscription order.
type Event struct {
	next int
	subs []subscriber
}

// Subscribe appends fn and returns a func that removes it again.
func (e *Event) Subscribe(fn Callback) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	e.next++
	id := e.next
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	return func() { e.remove(id) }
}

func (e *Event) remove(id int) {
	for i, s := range e.subs {
		if s.id == id {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return
		}
	}
}

// Fire runs every subscriber once.
func (e *Event) Fire(b Binding) {
	// Copy so a callback that unsubscribes does not skip its neighbour.
	subs := append([]subscriber(nil), e.subs...)
	for _, s := range subs {
		s.fn(b)
	}
}

// Len returns the number of subscribers.
func (e *Event) Len() int { return len(e.subs) }

// Handler is anything the registry can bind to a hotkey.
type Handler interface {
	Modifiers() Modifier
	Key() VKey
	Event() *Event
	// Invoke runs every callback attached to Event.
	Invoke()
	// Covered is called when a later registration with the same identity
	// displaced this handler.
	Covered()
}

// Component is the default Handler.
type Component struct {
	mods  Modifier
	key   VKey
	event Event

	// OnCovered, when set, runs from Covered.
	OnCovered func()
}

// NewComponent returns a Component with callbacks already subscribed.
func NewComponent(mods Modifier, key VKey, callbacks ...Callback) *Component {
	c := &Component{mods: mods, key: key}
	for _, cb := range callbacks {
		c.event.Subscribe(cb)
	}
	return c
}

func (c *Component) Modifiers() Modifier     { return c.mods }
func (c *Component) Key() VKey               { return c.key }
func (c *Component) SetModifiers(m Modifier) { c.mods = m }
func (c *Component) SetKey(k VKey)           { c.key = k }
func (c *Component) Event() *Event           { return &c.event }
func (c *Component) Binding() Binding        { return NewBinding(c.mods, c.key) }

func (c *Component) Invoke() { c.event.Fire(c.Binding()) }

func (c *Component) Covered() {
	if c.OnCovered != nil {
		c.OnCovered()
	}
}
