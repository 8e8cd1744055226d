package pktmem

// Event tells a callback why it is running.
type Event uint8

const (
	EventReset Event = iota + 1
	EventDestroy
)

func (e Event) String() string {
	switch e {
	case EventReset:
		return "reset"
	case EventDestroy:
		return "destroy"
	}
	return "unknown"
}

// Callback runs when the pool it is registered with is reset or destroyed,
// before any memory is reclaimed, so it may still read pool memory.
type Callback func(p *Pool, ev Event, ctx any)

// CallbackID identifies a registration for UnregisterCallback.
type CallbackID uint32

type callback struct {
	id  CallbackID
	fn  Callback
	ctx any
}

// RegisterCallback pushes fn onto the pool's finalizer stack. On the next
// Reset or Destroy, callbacks run exactly once, newest first, and are then
// cleared; structures that outlive a reset must register again.
func (p *Pool) RegisterCallback(fn Callback, ctx any) CallbackID {
	p.live()
	p.nextCB++
	p.callbacks = append(p.callbacks, callback{id: p.nextCB, fn: fn, ctx: ctx})
	return p.nextCB
}

// UnregisterCallback removes a registration that has not run yet.
func (p *Pool) UnregisterCallback(id CallbackID) {
	p.live()
	for i := range p.callbacks {
		if p.callbacks[i].id == id {
			p.callbacks = append(p.callbacks[:i], p.callbacks[i+1:]...)
			return
		}
	}
}

// runCallbacks pops and invokes the stack. Registrations made while it
// runs belong to the next cycle.
func (p *Pool) runCallbacks(ev Event) {
	cbs := p.callbacks
	p.callbacks = nil
	for i := len(cbs) - 1; i >= 0; i-- {
		cbs[i].fn(p, ev, cbs[i].ctx)
	}
}
