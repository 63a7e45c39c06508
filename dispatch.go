package windowkit

import (
	"log"
	"runtime/debug"
)

// ============================================================================
// Frame Callback Queue
// ============================================================================
//
// Every native-origin notification funnels through this queue: append now,
// drain at the next tick boundary. Application code therefore runs at a
// single well-defined point, never on an arbitrary native call stack.

type callbackQueue struct {
	pending []func()
}

// push appends a deferred callback. Safe to call while draining; callbacks
// appended during a drain run on the next drain, not the current one.
func (q *callbackQueue) push(fn func()) {
	q.pending = append(q.pending, fn)
}

// drain runs and clears the callbacks queued so far. Panics in a callback
// are contained so the platform event loop stays intact.
func (q *callbackQueue) drain() {
	if len(q.pending) == 0 {
		return
	}
	batch := q.pending
	q.pending = nil
	for _, fn := range batch {
		safeInvoke(fn)
	}
}

func (q *callbackQueue) len() int { return len(q.pending) }

// safeInvoke runs fn, converting a panic into a logged no-op. An unwind
// crossing into native code is undefined behavior, so the recovery happens
// on our side of the boundary.
func safeInvoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dispatch: recovered panic in callback: %v\n%s", r, debug.Stack())
		}
	}()
	fn()
}

// safeVeto runs the should-close veto. A panicking veto is treated as no
// veto at all, so a buggy callback cannot wedge the close protocol.
func safeVeto(fn func() bool) (allow bool) {
	allow = true
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dispatch: recovered panic in close veto: %v\n%s", r, debug.Stack())
			allow = true
		}
	}()
	return fn()
}

// ============================================================================
// Input Dispatch
// ============================================================================

// DispatchPhase indicates where in the propagation cycle a handler is being
// invoked.
type DispatchPhase uint8

const (
	// PhaseCapture travels from the root down towards the target;
	// ancestors can intercept before the target sees the event.
	PhaseCapture DispatchPhase = iota

	// PhaseTarget is the focused target itself.
	PhaseTarget

	// PhaseBubble travels from the target back up to the root. Most
	// handlers act here.
	PhaseBubble
)

// InputHandler consumes one normalized event during one phase. Returning
// true stops further propagation.
type InputHandler func(Event, DispatchPhase) bool

// WindowInputHandler is the application-level fallback; it sees events no
// focus handler consumed and reports whether it handled them.
type WindowInputHandler func(Event) bool

// Dispatcher routes normalized events through the focus path: capture from
// the root down to the focused target, then bubble back up. Handlers are a
// table keyed by focus identity, so dispatch is a lookup plus call rather
// than stashed raw closures.
type Dispatcher struct {
	registry *FocusRegistry
	handlers map[FocusID]InputHandler
	focused  FocusID

	// fallback sees events no focus handler consumed (the window's
	// application-level on_input callback).
	fallback WindowInputHandler
}

// NewDispatcher returns a dispatcher over the given registry.
func NewDispatcher(registry *FocusRegistry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		handlers: make(map[FocusID]InputHandler),
	}
}

// SetHandler registers the input handler for a focus identity.
func (d *Dispatcher) SetHandler(id FocusID, h InputHandler) {
	if h == nil {
		delete(d.handlers, id)
		return
	}
	d.handlers[id] = h
}

// RemoveHandler drops the handler for a focus identity.
func (d *Dispatcher) RemoveHandler(id FocusID) {
	delete(d.handlers, id)
}

// SetFallback registers the handler of last resort.
func (d *Dispatcher) SetFallback(h WindowInputHandler) {
	d.fallback = h
}

// Focus moves keyboard focus to id. A dead identifier clears focus. Each
// focus change also sweeps handler entries whose identity has died, so the
// table does not grow across focus churn.
func (d *Dispatcher) Focus(id FocusID) {
	d.sweepDead()
	if !d.registry.IsLive(id) {
		d.focused = FocusID{}
		return
	}
	d.focused = id
}

func (d *Dispatcher) sweepDead() {
	for id := range d.handlers {
		if !d.registry.IsLive(id) {
			delete(d.handlers, id)
		}
	}
}

// Focused returns the current focus target, which may have died since.
func (d *Dispatcher) Focused() FocusID {
	if !d.registry.IsLive(d.focused) {
		return FocusID{}
	}
	return d.focused
}

// Dispatch routes one event. Reports whether any handler consumed it.
func (d *Dispatcher) Dispatch(e Event) bool {
	path := d.registry.PathTo(d.Focused())

	// Capture phase: root towards target, target excluded.
	for i := 0; i < len(path)-1; i++ {
		if d.invoke(path[i], e, PhaseCapture) {
			return true
		}
	}

	// Target phase.
	if len(path) > 0 {
		if d.invoke(path[len(path)-1], e, PhaseTarget) {
			return true
		}
	}

	// Bubble phase: back towards the root, target excluded.
	for i := len(path) - 2; i >= 0; i-- {
		if d.invoke(path[i], e, PhaseBubble) {
			return true
		}
	}

	if d.fallback != nil {
		return safeFallback(d.fallback, e)
	}
	return false
}

func (d *Dispatcher) invoke(id FocusID, e Event, phase DispatchPhase) bool {
	h, ok := d.handlers[id]
	if !ok {
		return false
	}
	// Liveness can change while handlers run (a handler may release its
	// own focus handle); check before each call.
	if !d.registry.IsLive(id) {
		return false
	}
	return safeHandle(h, e, phase)
}

// safeHandle invokes an application handler, converting a panic into
// "not handled" so the native event loop survives.
func safeHandle(h InputHandler, e Event, phase DispatchPhase) (handled bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dispatch: recovered panic in input handler: %v\n%s", r, debug.Stack())
			handled = false
		}
	}()
	return h(e, phase)
}

func safeFallback(h WindowInputHandler, e Event) (handled bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dispatch: recovered panic in input handler: %v\n%s", r, debug.Stack())
			handled = false
		}
	}()
	return h(e)
}
