package windowkit

import (
	"errors"
	"testing"
	"time"
)

func TestPacerInvokesOncePerTick(t *testing.T) {
	a := newFakeAdapter()
	p := NewFramePacer(a, 1, nil)

	frames := 0
	p.SetOnFrame(func() { frames++ })

	if err := p.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	a.tick()
	a.tick()
	a.tick()

	if frames != 3 {
		t.Fatalf("frames = %d, want 3", frames)
	}
	if p.FrameCount() != 3 {
		t.Fatalf("FrameCount = %d, want 3", p.FrameCount())
	}
}

func TestPacerReentrantRequestIsDropped(t *testing.T) {
	a := newFakeAdapter()
	p := NewFramePacer(a, 1, nil)

	frames := 0
	p.SetOnFrame(func() {
		frames++
		// Reentrant synchronous request while this frame is in flight:
		// the slot is empty, so it must not recurse.
		p.RequestFrame()
	})

	if err := p.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	a.tick()

	if frames != 1 {
		t.Fatalf("frames = %d, want 1", frames)
	}

	// The callback must be restored for the next tick.
	a.tick()
	if frames != 2 {
		t.Fatalf("frames after second tick = %d, want 2", frames)
	}
}

func TestPacerRestartOnNewDisplayCancelsOldSubscription(t *testing.T) {
	a := newFakeAdapter()
	p := NewFramePacer(a, 1, nil)
	p.SetOnFrame(func() {})

	if err := p.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first := a.sub

	if err := p.Start(3); err != nil {
		t.Fatalf("Start on new display: %v", err)
	}
	if first.cancels != 1 {
		t.Fatalf("old subscription cancels = %d, want 1", first.cancels)
	}

	// Restarting on the same display is a no-op.
	second := a.sub
	if err := p.Start(3); err != nil {
		t.Fatalf("redundant Start: %v", err)
	}
	if second.cancels != 0 {
		t.Fatalf("same-display restart cancelled the subscription")
	}
}

func TestPacerDegradesWhenSubscriptionRefused(t *testing.T) {
	a := newFakeAdapter()
	a.refuseRefresh = true
	p := NewFramePacer(a, 1, nil)

	frames := 0
	p.SetOnFrame(func() { frames++ })

	err := p.Start(0)
	if !errors.Is(err, ErrNoRefreshSource) {
		t.Fatalf("Start error = %v, want ErrNoRefreshSource", err)
	}
	if !p.Degraded() {
		t.Fatalf("pacer not degraded after refused subscription")
	}

	// Forced frames still work.
	p.RequestFrame()
	if frames != 1 {
		t.Fatalf("forced frame did not run")
	}
}

func TestPacerTimerFallback(t *testing.T) {
	a := newFakeAdapter()
	a.refuseRefresh = true

	// Drain posted ticks on the test goroutine, as the window's UI
	// goroutine would.
	posts := make(chan func(), 16)
	p := NewFramePacer(a, 1, func(fn func()) { posts <- fn })
	p.SetFallbackInterval(5 * time.Millisecond)

	frames := 0
	p.SetOnFrame(func() { frames++ })

	if err := p.Start(0); err != nil {
		t.Fatalf("Start with fallback: %v", err)
	}

	select {
	case fn := <-posts:
		fn()
	case <-time.After(time.Second):
		t.Fatalf("fallback timer produced no frame")
	}
	if frames != 1 {
		t.Fatalf("frames = %d, want 1", frames)
	}
	if !p.Degraded() {
		t.Fatalf("fallback pacing should still report degraded")
	}
	p.Close()
}

func TestPacerStopDropsLateTick(t *testing.T) {
	a := newFakeAdapter()
	p := NewFramePacer(a, 1, nil)

	frames := 0
	p.SetOnFrame(func() { frames++ })

	if err := p.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tick := a.tick
	p.Stop()

	// A tick that raced Stop must not produce a frame.
	tick()
	if frames != 0 {
		t.Fatalf("frame produced after Stop")
	}
}

func TestPacerCloseIsTerminal(t *testing.T) {
	a := newFakeAdapter()
	p := NewFramePacer(a, 1, nil)
	p.SetOnFrame(func() { t.Fatalf("frame after Close") })
	if err := p.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Close()

	p.RequestFrame()
	if err := p.Start(0); !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("Start after Close = %v, want ErrWindowClosed", err)
	}
	if a.sub.cancels == 0 {
		t.Fatalf("Close did not cancel the subscription")
	}
}
