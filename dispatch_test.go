package windowkit

import "testing"

func TestDispatchPhaseOrder(t *testing.T) {
	r := NewFocusRegistry()
	d := NewDispatcher(r)

	root := r.NewHandle(0, false)
	leaf := r.NewHandle(0, true)
	r.SetParent(leaf.ID(), root.ID())

	type call struct {
		who   string
		phase DispatchPhase
	}
	var calls []call
	d.SetHandler(root.ID(), func(_ Event, p DispatchPhase) bool {
		calls = append(calls, call{"root", p})
		return false
	})
	d.SetHandler(leaf.ID(), func(_ Event, p DispatchPhase) bool {
		calls = append(calls, call{"leaf", p})
		return false
	})
	d.Focus(leaf.ID())

	handled := d.Dispatch(KeyDownEvent{Key: "a"})
	if handled {
		t.Fatalf("nothing consumed yet Dispatch reported handled")
	}

	want := []call{
		{"root", PhaseCapture},
		{"leaf", PhaseTarget},
		{"root", PhaseBubble},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls[%d] = %v, want %v", i, calls[i], want[i])
		}
	}
}

func TestCaptureInterceptStopsPropagation(t *testing.T) {
	r := NewFocusRegistry()
	d := NewDispatcher(r)

	root := r.NewHandle(0, false)
	leaf := r.NewHandle(0, true)
	r.SetParent(leaf.ID(), root.ID())

	leafSaw := false
	d.SetHandler(root.ID(), func(_ Event, p DispatchPhase) bool {
		return p == PhaseCapture
	})
	d.SetHandler(leaf.ID(), func(Event, DispatchPhase) bool {
		leafSaw = true
		return false
	})
	d.Focus(leaf.ID())

	if !d.Dispatch(KeyDownEvent{Key: "a"}) {
		t.Fatalf("capture intercept not reported as handled")
	}
	if leafSaw {
		t.Fatalf("target saw an event intercepted during capture")
	}
}

func TestFallbackSeesUnconsumedEvents(t *testing.T) {
	r := NewFocusRegistry()
	d := NewDispatcher(r)

	var fell []Event
	d.SetFallback(func(e Event) bool {
		fell = append(fell, e)
		return true
	})

	if !d.Dispatch(ScrollEvent{Delta: Point{Y: 1}}) {
		t.Fatalf("fallback consumption not reported")
	}
	if len(fell) != 1 {
		t.Fatalf("fallback saw %d events, want 1", len(fell))
	}
}

func TestHandlerPanicIsNotHandled(t *testing.T) {
	r := NewFocusRegistry()
	d := NewDispatcher(r)

	h := r.NewHandle(0, true)
	d.SetHandler(h.ID(), func(Event, DispatchPhase) bool {
		panic("application bug")
	})
	d.Focus(h.ID())

	reachedFallback := false
	d.SetFallback(func(Event) bool {
		reachedFallback = true
		return false
	})

	if d.Dispatch(KeyDownEvent{Key: "a"}) {
		t.Fatalf("panicking handler reported as handled")
	}
	if !reachedFallback {
		t.Fatalf("event did not continue to the fallback after the panic")
	}
}

func TestFocusOnDeadTargetClears(t *testing.T) {
	r := NewFocusRegistry()
	d := NewDispatcher(r)

	h := r.NewHandle(0, true)
	d.Focus(h.ID())
	h.Release()

	if got := d.Focused(); !got.IsZero() {
		t.Fatalf("focused = %+v, want zero after release", got)
	}
}

func TestCallbackQueueAppendDuringDrain(t *testing.T) {
	var q callbackQueue

	order := []string{}
	q.push(func() {
		order = append(order, "first")
		q.push(func() { order = append(order, "second") })
	})

	q.drain()
	if len(order) != 1 || order[0] != "first" {
		t.Fatalf("first drain ran %v", order)
	}
	if q.len() != 1 {
		t.Fatalf("callback queued during drain was lost")
	}

	q.drain()
	if len(order) != 2 || order[1] != "second" {
		t.Fatalf("second drain ran %v", order)
	}
}

func TestCallbackQueuePanicContained(t *testing.T) {
	var q callbackQueue
	ran := false
	q.push(func() { panic("boom") })
	q.push(func() { ran = true })
	q.drain()
	if !ran {
		t.Fatalf("panic in one callback starved the rest of the batch")
	}
}

func TestFocusSweepsDeadHandlerEntries(t *testing.T) {
	reg := NewFocusRegistry()
	d := NewDispatcher(reg)

	h1 := reg.NewHandle(0, true)
	h2 := reg.NewHandle(1, true)
	d.SetHandler(h1.ID(), func(Event, DispatchPhase) bool { return false })
	d.SetHandler(h2.ID(), func(Event, DispatchPhase) bool { return false })

	h1.Release()
	d.Focus(h2.ID())

	if len(d.handlers) != 1 {
		t.Fatalf("handler table has %d entries, want dead ones swept", len(d.handlers))
	}
	if _, ok := d.handlers[h2.ID()]; !ok {
		t.Fatalf("sweep dropped a live handler")
	}
}
