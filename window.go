package windowkit

import (
	"fmt"
	"time"

	"github.com/Obsydian-HQ/windowkit/internal/platform"
)

// ============================================================================
// Window
// ============================================================================
//
// The window owns everything scoped to one native window: the frame pacer,
// the event normalizer, the focus registry, the input dispatcher, the render
// surfaces, and the native-control bridge. All of it runs on the UI
// goroutine; raw platform notifications are marshaled there on arrival.

// WindowKind selects the window's role and level.
type WindowKind uint8

const (
	WindowNormal WindowKind = iota
	WindowFloating
	WindowPopup
	WindowSheet
)

// BackgroundMode selects how the window composites with what is behind it.
type BackgroundMode uint8

const (
	BackgroundOpaque BackgroundMode = iota
	BackgroundTransparent
	BackgroundBlurred
)

// Platform-reported appearance and cursor styles, re-exported for consumers.
type (
	Appearance = platform.Appearance
	Cursor     = platform.Cursor
)

const (
	AppearanceLight = platform.AppearanceLight
	AppearanceDark  = platform.AppearanceDark

	CursorArrow           = platform.CursorArrow
	CursorIBeam           = platform.CursorIBeam
	CursorPointingHand    = platform.CursorPointingHand
	CursorResizeLeftRight = platform.CursorResizeLeftRight
	CursorResizeUpDown    = platform.CursorResizeUpDown
	CursorCrosshair       = platform.CursorCrosshair
)

// WindowOptions are the creation-time parameters for Open. Kind is immutable
// after creation; everything else has a setter.
type WindowOptions struct {
	Title      string
	Kind       WindowKind
	Background BackgroundMode

	// Bounds positions the window; a zero origin lets the platform place
	// it.
	Bounds Bounds

	MinSize Size
	MaxSize Size

	Decorations         bool
	Resizable           bool
	AlwaysOnTop         bool
	TransparentTitlebar bool
	CornerRadius        float64

	// TargetFPS paces the timer fallback on platforms with no display
	// refresh source. 0 disables the fallback.
	TargetFPS int
}

// WindowState is the window's visibility state.
type WindowState uint8

const (
	// WindowCreated: allocated but never shown, or hidden again.
	WindowCreated WindowState = iota

	// WindowVisible: on screen and receiving refresh ticks.
	WindowVisible

	// WindowOccluded: fully covered or minimized; frame production is
	// stopped until the window is revealed.
	WindowOccluded
)

// FrameOptions is passed to the frame callback each tick.
type FrameOptions struct {
	// ForceRender requests a draw even for clean surfaces: the first frame
	// after Show, after a reveal, and after activation.
	ForceRender bool
}

// Window is one native window driven by the portable core.
type Window struct {
	adapter platform.Adapter
	handle  platform.WindowHandle
	opts    WindowOptions

	state        WindowState
	fullscreen   bool
	closePending bool
	closed       bool
	active       bool

	size       Size
	origin     Point
	scale      float64
	appearance Appearance

	// Bounds to restore when leaving fullscreen.
	restoreBounds Bounds

	// inFrame defers reentrant structural changes (resize, scale change,
	// close) until the current frame has been fully consumed.
	inFrame       bool
	pendingResize *Size
	pendingScale  float64

	forceNextRender bool

	pacer       *FramePacer
	normalizer  *EventNormalizer
	queue       callbackQueue
	focus       *FocusRegistry
	dispatcher  *Dispatcher
	composition *CompositionBridge
	surfaces    *SurfaceRegistry
	bridge      *ControlBridge
	icons       *IconLoader
	arena       *FrameArena

	toolbar *toolbarState
	popover *popoverState
	panel   *popoverState

	onFrame       func(FrameOptions)
	onResize      func(Size, float64)
	onMoved       func(Point)
	onShouldClose func() bool
	onClose       func()
	onActive      func(bool)
	onAppearance  func(Appearance)
}

// Open creates a hidden window. Call Show to put it on screen.
func Open(adapter platform.Adapter, opts WindowOptions) (*Window, error) {
	handle, err := adapter.CreateWindow(platformOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	w := &Window{
		adapter: adapter,
		handle:  handle,
		opts:    opts,
		state:   WindowCreated,
		size:    opts.Bounds.Size,
		origin:  opts.Bounds.Origin,
		scale:   adapter.ScaleFactor(handle),
		arena:   NewFrameArena(),
	}
	if w.scale <= 0 {
		w.scale = 1
	}
	w.appearance = adapter.Appearance(handle)

	post := adapter.PostToUIThread
	w.focus = NewFocusRegistry()
	w.dispatcher = NewDispatcher(w.focus)
	w.normalizer = NewEventNormalizer(post)
	w.normalizer.SetSyntheticSink(func(e PointerMoveEvent) {
		w.dispatcher.Dispatch(e)
	})

	w.pacer = NewFramePacer(adapter, handle, post)
	w.pacer.SetOnFrame(w.frame)
	if opts.TargetFPS > 0 {
		w.pacer.SetFallbackInterval(time.Second / time.Duration(opts.TargetFPS))
	}

	w.surfaces = NewSurfaceRegistry(adapter.SurfaceView(handle))
	w.bridge = NewControlBridge(adapter, handle)
	w.bridge.NoteFirstResponder(w.surfaces.Primary().View())
	w.icons = NewIconLoader(post, w.scale)

	adapter.SetEventHandler(handle, w.handleRaw)
	return w, nil
}

func platformOptions(opts WindowOptions) platform.WindowOptions {
	return platform.WindowOptions{
		Title:               opts.Title,
		Kind:                platform.WindowKind(opts.Kind),
		Background:          platform.BackgroundMode(opts.Background),
		Bounds:              rawFromBounds(opts.Bounds),
		MinWidth:            opts.MinSize.Width,
		MinHeight:           opts.MinSize.Height,
		MaxWidth:            opts.MaxSize.Width,
		MaxHeight:           opts.MaxSize.Height,
		Decorations:         opts.Decorations,
		Resizable:           opts.Resizable,
		AlwaysOnTop:         opts.AlwaysOnTop,
		TransparentTitlebar: opts.TransparentTitlebar,
		CornerRadius:        opts.CornerRadius,
	}
}

// ----------------------------------------------------------------------------
// Accessors
// ----------------------------------------------------------------------------

// State returns the current visibility state.
func (w *Window) State() WindowState { return w.state }

// Closed reports whether teardown has completed.
func (w *Window) Closed() bool { return w.closed }

// Active reports whether the window holds key focus.
func (w *Window) Active() bool { return w.active }

// Fullscreen reports whether the window is fullscreen.
func (w *Window) Fullscreen() bool { return w.fullscreen }

// Size returns the content size in logical pixels.
func (w *Window) Size() Size { return w.size }

// ScaleFactor returns the current backing-store scale.
func (w *Window) ScaleFactor() float64 { return w.scale }

// Appearance returns the last platform-reported appearance.
func (w *Window) Appearance() Appearance { return w.appearance }

// Bounds returns the window rectangle in logical pixels.
func (w *Window) Bounds() Bounds {
	if w.closed {
		return Bounds{Origin: w.origin, Size: w.size}
	}
	return boundsFromRaw(w.adapter.WindowBounds(w.handle))
}

// Focus returns the window's focus registry.
func (w *Window) Focus() *FocusRegistry { return w.focus }

// Input returns the window's input dispatcher.
func (w *Window) Input() *Dispatcher { return w.dispatcher }

// Surfaces returns the window's render-surface registry.
func (w *Window) Surfaces() *SurfaceRegistry { return w.surfaces }

// Controls returns the window's native-control bridge.
func (w *Window) Controls() *ControlBridge { return w.bridge }

// Pacer returns the window's frame pacer.
func (w *Window) Pacer() *FramePacer { return w.pacer }

// ----------------------------------------------------------------------------
// Callbacks
// ----------------------------------------------------------------------------

// OnFrame registers the per-tick frame callback, invoked before surfaces are
// drawn.
func (w *Window) OnFrame(fn func(FrameOptions)) { w.onFrame = fn }

// OnInput registers the application-level input fallback: it sees every
// normalized event no focus handler consumed.
func (w *Window) OnInput(fn WindowInputHandler) { w.dispatcher.SetFallback(fn) }

// OnResize registers the content-size observer. Fires with the new logical
// size and scale, including when only the scale changed.
func (w *Window) OnResize(fn func(Size, float64)) { w.onResize = fn }

// OnMoved registers the window-origin observer.
func (w *Window) OnMoved(fn func(Point)) { w.onMoved = fn }

// OnShouldClose registers the close veto. Returning false keeps the window
// open.
func (w *Window) OnShouldClose(fn func() bool) { w.onShouldClose = fn }

// OnClose registers the teardown observer, fired exactly once after the
// platform window is destroyed.
func (w *Window) OnClose(fn func()) { w.onClose = fn }

// OnActiveStatusChange registers the key-focus observer.
func (w *Window) OnActiveStatusChange(fn func(bool)) { w.onActive = fn }

// OnAppearanceChanged registers the light/dark appearance observer.
func (w *Window) OnAppearanceChanged(fn func(Appearance)) { w.onAppearance = fn }

// OnNextFrame queues fn to run at the start of the next frame tick. Safe to
// call from within a frame: the callback runs on the following tick, never
// the current one.
func (w *Window) OnNextFrame(fn func()) {
	w.queue.push(fn)
	w.surfaces.Primary().MarkDirty()
}

// ----------------------------------------------------------------------------
// Lifecycle operations
// ----------------------------------------------------------------------------

// Show puts the window on screen and starts frame pacing. The first frame is
// forced so the window never appears blank.
func (w *Window) Show() {
	if w.closed || w.state == WindowVisible {
		return
	}
	w.adapter.ShowWindow(w.handle)
	w.state = WindowVisible
	w.forceNextRender = true
	if err := w.pacer.Start(w.adapter.Display(w.handle)); err != nil {
		// Degraded: no automatic ticking, draw what we can now.
		w.pacer.RequestFrame()
		return
	}
	w.pacer.RequestFrame()
}

// Hide removes the window from screen without destroying it.
func (w *Window) Hide() {
	if w.closed || w.state == WindowCreated {
		return
	}
	w.adapter.HideWindow(w.handle)
	w.pacer.Stop()
	w.state = WindowCreated
}

// SetTitle updates the titlebar text.
func (w *Window) SetTitle(title string) {
	if w.closed {
		return
	}
	w.opts.Title = title
	w.adapter.SetWindowTitle(w.handle, title)
}

// SetBounds moves and resizes the window.
func (w *Window) SetBounds(b Bounds) {
	if w.closed {
		return
	}
	w.adapter.SetWindowBounds(w.handle, rawFromBounds(b))
}

// SetCursor requests a cursor style while the pointer is over the window.
func (w *Window) SetCursor(c Cursor) {
	if w.closed {
		return
	}
	w.adapter.SetCursor(w.handle, c)
}

// Minimize miniaturizes the window.
func (w *Window) Minimize() {
	if w.closed {
		return
	}
	w.adapter.Minimize(w.handle)
}

// ToggleMaximize zooms the window.
func (w *Window) ToggleMaximize() {
	if w.closed {
		return
	}
	w.adapter.ToggleMaximize(w.handle)
}

// SetFullscreen enters or leaves fullscreen. The pre-fullscreen bounds are
// cached and restored on exit.
func (w *Window) SetFullscreen(enabled bool) error {
	if w.closed {
		return ErrWindowClosed
	}
	if enabled == w.fullscreen {
		return nil
	}
	if enabled {
		w.restoreBounds = w.Bounds()
	}
	if err := w.adapter.SetFullscreen(w.handle, enabled); err != nil {
		return err
	}
	w.fullscreen = enabled
	if !enabled && !w.restoreBounds.IsEmpty() {
		w.adapter.SetWindowBounds(w.handle, rawFromBounds(w.restoreBounds))
	}
	return nil
}

// RequestFrame forces one synchronous frame regardless of pacing, for
// applications that need content on screen before the next tick.
func (w *Window) RequestFrame() {
	if w.closed {
		return
	}
	w.forceNextRender = true
	w.pacer.RequestFrame()
}

// ----------------------------------------------------------------------------
// Close protocol
// ----------------------------------------------------------------------------

// RequestClose runs the close protocol: the should-close veto first, then
// teardown. Called for the platform close button and programmatic closes
// alike.
func (w *Window) RequestClose() {
	if w.closed || w.closePending {
		return
	}
	if w.onShouldClose != nil && !safeVeto(w.onShouldClose) {
		return
	}
	w.closePending = true
	if w.inFrame {
		// Mid-frame close request: the frame in flight finishes first,
		// then frame() runs the teardown.
		return
	}
	w.performClose()
}

// Close tears the window down unconditionally, skipping the veto.
func (w *Window) Close() {
	if w.closed {
		return
	}
	w.closePending = true
	if w.inFrame {
		return
	}
	w.performClose()
}

// performClose releases everything exactly once: owned native
// configurations, then the bridge's stragglers, then the pacer, then the
// platform window itself.
func (w *Window) performClose() {
	if w.closed {
		return
	}
	w.closed = true
	w.state = WindowCreated

	if w.popover != nil {
		w.popover.release(w.bridge)
		w.popover = nil
	}
	if w.panel != nil {
		w.panel.release(w.bridge)
		w.panel = nil
	}
	if w.toolbar != nil {
		w.toolbar.release(w.bridge)
		w.toolbar = nil
	}
	w.bridge.close()

	w.pacer.Close()
	w.adapter.DestroyWindow(w.handle)

	if w.onClose != nil {
		safeInvoke(w.onClose)
	}
}

// ----------------------------------------------------------------------------
// Text input
// ----------------------------------------------------------------------------

// SetTextDelegate wires a text-input delegate into the platform IME. A nil
// delegate disconnects.
func (w *Window) SetTextDelegate(d TextInputDelegate) {
	host, ok := w.adapter.(platform.TextInputHost)
	if d == nil {
		w.composition = nil
		if ok {
			host.SetTextInputClient(w.handle, nil)
		}
		return
	}
	w.composition = NewCompositionBridge(d)
	if ok {
		host.SetTextInputClient(w.handle, w.composition)
	}
}

// Composition returns the active composition bridge, nil without a delegate.
func (w *Window) Composition() *CompositionBridge { return w.composition }

// ----------------------------------------------------------------------------
// Native configurations
// ----------------------------------------------------------------------------

// SetToolbar installs cfg as the window's toolbar, replacing any previous
// one. The old toolbar's native resources are released wholesale before the
// new ones are created.
func (w *Window) SetToolbar(cfg ToolbarConfig) error {
	if w.closed {
		return ErrWindowClosed
	}
	if w.toolbar != nil {
		w.toolbar.release(w.bridge)
		w.toolbar = nil
	}
	state, err := installToolbar(w.bridge, w.icons, cfg)
	if err != nil {
		return err
	}
	w.toolbar = state
	return nil
}

// ClearToolbar removes the installed toolbar, releasing its resources.
func (w *Window) ClearToolbar() {
	if w.toolbar == nil {
		return
	}
	w.toolbar.release(w.bridge)
	w.toolbar = nil
}

// ShowPopover presents a popover anchored per anchor, replacing any popover
// already showing.
func (w *Window) ShowPopover(cfg PopoverConfig, anchor Anchor) error {
	if w.closed {
		return ErrWindowClosed
	}
	w.DismissPopover()
	state, err := presentPopover(w.bridge, cfg, anchor, false)
	if err != nil {
		return err
	}
	w.popover = state
	return nil
}

// DismissPopover dismisses the showing popover, if any.
func (w *Window) DismissPopover() {
	if w.popover == nil {
		return
	}
	w.popover.release(w.bridge)
	w.popover = nil
}

// ShowPanel presents a utility panel, replacing any panel already showing.
func (w *Window) ShowPanel(cfg PopoverConfig, anchor Anchor) error {
	if w.closed {
		return ErrWindowClosed
	}
	w.DismissPanel()
	state, err := presentPopover(w.bridge, cfg, anchor, true)
	if err != nil {
		return err
	}
	w.panel = state
	return nil
}

// DismissPanel dismisses the showing panel, if any.
func (w *Window) DismissPanel() {
	if w.panel == nil {
		return
	}
	w.panel.release(w.bridge)
	w.panel = nil
}

// ShowAlert presents a modal alert sheet. The returned channel delivers the
// clicked button index once, on the UI goroutine's schedule.
func (w *Window) ShowAlert(cfg AlertConfig) (<-chan int, error) {
	if w.closed {
		return nil, ErrWindowClosed
	}
	host, ok := w.adapter.(platform.ControlHost)
	if !ok {
		return nil, ErrNoControlHost
	}
	result := make(chan int, 1)
	spec := platform.AlertSpec{Title: cfg.Title, Message: cfg.Message, Buttons: cfg.Buttons}
	if err := host.PresentAlertSheet(w.handle, spec, func(idx int) {
		result <- idx
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// ----------------------------------------------------------------------------
// Frame production
// ----------------------------------------------------------------------------

// frame is the pacer's produce-frame callback. It drains the deferred
// callback queue, runs the application frame callback, draws dirty surfaces,
// and clears the frame arena, then applies any resize that arrived while
// the frame was in flight.
func (w *Window) frame() {
	w.inFrame = true

	w.queue.drain()

	force := w.forceNextRender
	w.forceNextRender = false
	if force {
		for _, s := range w.surfaces.All() {
			s.MarkDirty()
		}
	}

	if w.onFrame != nil {
		opts := FrameOptions{ForceRender: force}
		safeInvoke(func() { w.onFrame(opts) })
	}
	w.surfaces.drawAll(w.arena)
	w.arena.Reset()

	w.inFrame = false

	if w.closePending && !w.closed {
		w.performClose()
		return
	}
	if w.pendingResize != nil || w.pendingScale > 0 {
		size, scale := w.size, w.scale
		if w.pendingResize != nil {
			size = *w.pendingResize
			w.pendingResize = nil
		}
		if w.pendingScale > 0 {
			scale = w.pendingScale
			w.pendingScale = 0
		}
		w.applyResize(size, scale)
	}
}

// applyResize propagates a new content size and scale to every surface and
// the observer.
func (w *Window) applyResize(size Size, scale float64) {
	w.size = size
	w.scale = scale
	w.surfaces.resizeAll(size, scale)
	if w.onResize != nil {
		safeInvoke(func() { w.onResize(size, scale) })
	}
}

// ----------------------------------------------------------------------------
// Raw event routing
// ----------------------------------------------------------------------------

// handleRaw is the adapter's event sink. Notifications may arrive on a
// non-UI thread; everything is marshaled before the core touches state.
func (w *Window) handleRaw(raw platform.RawEvent) {
	w.adapter.PostToUIThread(func() {
		w.processRaw(raw)
	})
}

func (w *Window) processRaw(raw platform.RawEvent) {
	if w.closed {
		return
	}

	switch raw.Kind {
	case platform.RawResized:
		size := Size{Width: raw.X, Height: raw.Y}
		if w.inFrame {
			// Applied after the current frame has been consumed.
			w.pendingResize = &size
			return
		}
		w.applyResize(size, w.scale)
		return

	case platform.RawScaleChanged:
		if raw.ScaleFactor > 0 && raw.ScaleFactor != w.scale {
			if w.inFrame {
				// Mutating drawable sizes mid-draw is the same hazard
				// as a mid-frame resize; applied once the frame has
				// been consumed.
				w.pendingScale = raw.ScaleFactor
				return
			}
			// Reissue the resize so drawable sizes track the new
			// backing scale even though the logical size is unchanged.
			w.applyResize(w.size, raw.ScaleFactor)
			w.pacer.RequestFrame()
		}
		return

	case platform.RawMoved:
		w.origin = Point{X: raw.X, Y: raw.Y}
		if w.onMoved != nil {
			origin := w.origin
			safeInvoke(func() { w.onMoved(origin) })
		}
		return

	case platform.RawDisplayChanged:
		if w.state == WindowVisible {
			if err := w.pacer.Start(raw.Display); err != nil {
				w.pacer.RequestFrame()
			}
		}
		return

	case platform.RawAppearanceChanged:
		if raw.Appearance != w.appearance {
			w.appearance = raw.Appearance
			if w.onAppearance != nil {
				appearance := raw.Appearance
				safeInvoke(func() { w.onAppearance(appearance) })
			}
			w.surfaces.Primary().MarkDirty()
		}
		return

	case platform.RawActivated:
		w.active = true
		if w.onActive != nil {
			safeInvoke(func() { w.onActive(true) })
		}
		// Redraw promptly so switching to this window never shows a
		// stale frame. The surfaces are dirtied instead of forcing the
		// render flag, which stays reserved for the first frame and the
		// reveal edge.
		for _, s := range w.surfaces.All() {
			s.MarkDirty()
		}
		w.pacer.RequestFrame()
		return

	case platform.RawDeactivated:
		w.active = false
		if w.onActive != nil {
			safeInvoke(func() { w.onActive(false) })
		}
		return

	case platform.RawOccluded:
		if w.state == WindowVisible {
			w.state = WindowOccluded
			w.pacer.Stop()
		}
		return

	case platform.RawRevealed:
		if w.state == WindowOccluded {
			w.state = WindowVisible
			w.forceNextRender = true
			if err := w.pacer.Start(w.adapter.Display(w.handle)); err != nil {
				w.pacer.RequestFrame()
			}
		}
		return

	case platform.RawCloseRequested:
		w.RequestClose()
		return

	case platform.RawCharInput:
		// Committed text on platforms that deliver it apart from key
		// events.
		if w.composition != nil && raw.Rune != 0 {
			w.composition.InsertText(string(raw.Rune))
		}
		return
	}

	e, ok := w.normalizer.Normalize(raw)
	if !ok {
		return
	}
	w.dispatchNormalized(e)
}

func (w *Window) dispatchNormalized(e Event) {
	switch ev := e.(type) {
	case PointerDownEvent:
		// Hit test moves keyboard focus before the event dispatches,
		// except for the click that raised the window.
		if !ev.FocusingClick {
			if target, hit := w.surfaces.Primary().HitTest(ev.Position); hit {
				w.dispatcher.Focus(target)
			}
		}
		w.dispatcher.Dispatch(ev)
		w.surfaces.Primary().MarkDirty()
		return

	case KeyDownEvent:
		if w.composition != nil && w.composition.RoutesKey(ev) {
			// Composition input is delivered through the IME client
			// protocol, not the key path.
			return
		}
		if ev.KeyEquivalent {
			handled := w.dispatcher.Dispatch(ev)
			w.normalizer.NoteKeyEquivalentHandled(ev.Keycode, ev.Modifiers, handled)
			return
		}
		if !w.dispatcher.Dispatch(ev) && ev.Key == "Tab" {
			w.cycleFocus(ev.Modifiers.Shift())
		}
		return

	case PointerMoveEvent:
		w.surfaces.Primary().HitTest(ev.Position)
		w.dispatcher.Dispatch(ev)
		return
	}

	w.dispatcher.Dispatch(e)
}

// cycleFocus advances keyboard focus through the registered tab stops.
func (w *Window) cycleFocus(backwards bool) {
	var next FocusID
	var ok bool
	if backwards {
		next, ok = w.focus.PrevTabStop(w.dispatcher.Focused())
	} else {
		next, ok = w.focus.NextTabStop(w.dispatcher.Focused())
	}
	if ok {
		w.dispatcher.Focus(next)
		w.surfaces.Primary().MarkDirty()
	}
}
