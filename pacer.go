package windowkit

import (
	"errors"
	"log"
	"time"

	"github.com/Obsydian-HQ/windowkit/internal/platform"
)

// ============================================================================
// Frame Pacer
// ============================================================================
//
// The pacer wraps the platform's display-refresh notification and invokes a
// "produce frame" callback at most once per tick on the UI goroutine. The
// callback is taken out of its slot before invocation and restored after, so
// a nested tick (a reentrant synchronous frame request during activation)
// can never invoke the same callback twice concurrently.

// FramePacer paces frame production against one display's refresh interval.
type FramePacer struct {
	adapter platform.Adapter
	window  platform.WindowHandle

	// post marshals a function onto the UI goroutine. Refresh ticks may
	// originate on a display-link thread.
	post func(func())

	onFrame func()

	sub      platform.RefreshSubscription
	display  platform.DisplayID
	running  bool
	closed   bool
	degraded bool

	// Timer fallback for platforms with no refresh source. Zero disables
	// automatic ticking entirely when the subscription fails.
	fallbackInterval time.Duration
	fallbackStop     chan struct{}

	frameCount uint64
	dropped    uint64
}

// NewFramePacer returns a stopped pacer for the given window. post must
// execute functions on the UI goroutine; a nil post runs ticks inline.
func NewFramePacer(adapter platform.Adapter, window platform.WindowHandle, post func(func())) *FramePacer {
	if post == nil {
		post = func(fn func()) { fn() }
	}
	return &FramePacer{
		adapter: adapter,
		window:  window,
		post:    post,
	}
}

// SetOnFrame registers the produce-frame callback. Passing nil unregisters;
// ticks with no registered callback are counted as dropped.
func (p *FramePacer) SetOnFrame(fn func()) {
	p.onFrame = fn
}

// SetFallbackInterval enables a timer-paced fallback used when the platform
// refuses a refresh subscription. Zero disables the fallback.
func (p *FramePacer) SetFallbackInterval(d time.Duration) {
	p.fallbackInterval = d
}

// Degraded reports whether the pacer is running without a real refresh
// source.
func (p *FramePacer) Degraded() bool { return p.degraded }

// FrameCount returns the number of frames produced so far.
func (p *FramePacer) FrameCount() uint64 { return p.frameCount }

// Start begins receiving refresh ticks from the given display. Restarting
// against a different display (the window moved) cancels the old
// subscription first. A subscription failure degrades to the timer fallback,
// or to forced frames only when no fallback is configured.
func (p *FramePacer) Start(display platform.DisplayID) error {
	if p.closed {
		return ErrWindowClosed
	}
	if p.running && p.display == display {
		return nil
	}
	p.stopSources()

	p.display = display
	p.running = true

	sub, err := p.adapter.SubscribeRefresh(p.window, display, p.tick)
	if err == nil {
		p.sub = sub
		p.degraded = false
		return nil
	}

	p.degraded = true
	if p.fallbackInterval <= 0 {
		log.Printf("pacer: no refresh source for display %d: %v", display, err)
		return errors.Join(ErrNoRefreshSource, err)
	}

	stop := make(chan struct{})
	p.fallbackStop = stop
	go func() {
		ticker := time.NewTicker(p.fallbackInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.tick()
			}
		}
	}()
	return nil
}

// Stop unsubscribes from the refresh source. Used on occlusion; Start
// resumes when the window becomes visible again or changes displays.
func (p *FramePacer) Stop() {
	p.stopSources()
	p.running = false
}

// Close permanently shuts the pacer down as part of window teardown.
func (p *FramePacer) Close() {
	p.Stop()
	p.closed = true
	p.onFrame = nil
}

func (p *FramePacer) stopSources() {
	if p.sub != nil {
		p.sub.Cancel()
		p.sub = nil
	}
	if p.fallbackStop != nil {
		close(p.fallbackStop)
		p.fallbackStop = nil
	}
}

// tick may arrive on a display-link thread; the actual frame runs on the UI
// goroutine.
func (p *FramePacer) tick() {
	p.post(func() {
		// A tick posted just before Stop may land after it; drop it.
		if p.running && !p.closed {
			p.produceFrame()
		}
	})
}

// RequestFrame forces one synchronous frame on the calling (UI) goroutine,
// regardless of pacing state. Used on window activation to avoid visible
// flicker when switching between native tabs. A request arriving while a
// frame is already in flight is dropped by the slot guard.
func (p *FramePacer) RequestFrame() {
	if p.closed {
		return
	}
	p.produceFrame()
}

func (p *FramePacer) produceFrame() {
	cb := p.onFrame
	if cb == nil {
		p.dropped++
		return
	}

	// Take before invoking: a nested tick finds an empty slot.
	p.onFrame = nil
	p.frameCount++
	cb()

	// Restore only if still live and not replaced mid-frame.
	if p.closed {
		return
	}
	if p.onFrame == nil {
		p.onFrame = cb
	}
}
