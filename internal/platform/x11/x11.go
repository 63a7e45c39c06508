//go:build linux

// Package x11 implements the platform adapter for X11 via xgb/xgbutil. The
// backend has no display-refresh source and no native-control hosting; the
// core degrades both affordances.
package x11

import (
	"fmt"
	"log"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xcursor"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/Obsydian-HQ/windowkit/internal/platform"
)

const iconicState = 3 // ICCCM WM_CHANGE_STATE

// Adapter implements platform.Adapter over one X11 connection. It does not
// implement platform.ControlHost or platform.TextInputHost.
type Adapter struct {
	xu *xgbutil.XUtil

	mu      sync.Mutex
	windows map[xproto.Window]*x11Window

	// posted carries PostToUIThread functions into the event loop.
	posted chan func()
}

type x11Window struct {
	win     *xwindow.Window
	handler func(platform.RawEvent)

	width, height int
	occluded      bool
}

// New connects to the X server.
func New() (*Adapter, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	keybind.Initialize(xu)

	return &Adapter{
		xu:      xu,
		windows: make(map[xproto.Window]*x11Window),
		posted:  make(chan func(), 64),
	}, nil
}

// Run is the UI goroutine's event loop: X events interleaved with posted
// functions. Blocks until Quit.
func (a *Adapter) Run() {
	before, after, quit := xevent.MainPing(a.xu)
	for {
		select {
		case fn := <-a.posted:
			fn()
		case <-before:
			<-after
		case <-quit:
			return
		}
	}
}

// Quit stops the event loop.
func (a *Adapter) Quit() {
	xevent.Quit(a.xu)
}

// ----------------------------------------------------------------------------
// platform.Adapter
// ----------------------------------------------------------------------------

func (a *Adapter) CreateWindow(opts platform.WindowOptions) (platform.WindowHandle, error) {
	win, err := xwindow.Generate(a.xu)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate window id: %w", err)
	}

	x, y := int(opts.Bounds.X), int(opts.Bounds.Y)
	w, h := int(opts.Bounds.Width), int(opts.Bounds.Height)
	if w <= 0 {
		w = 800
	}
	if h <= 0 {
		h = 600
	}

	err = win.CreateChecked(a.xu.RootWin(), x, y, w, h,
		xproto.CwBackPixel|xproto.CwEventMask,
		0xffffff,
		xproto.EventMaskKeyPress|xproto.EventMaskKeyRelease|
			xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease|
			xproto.EventMaskPointerMotion|xproto.EventMaskStructureNotify|
			xproto.EventMaskFocusChange|xproto.EventMaskVisibilityChange|
			xproto.EventMaskExposure)
	if err != nil {
		return 0, fmt.Errorf("failed to create window: %w", err)
	}

	if opts.Title != "" {
		if err := ewmh.WmNameSet(a.xu, win.Id, opts.Title); err != nil {
			log.Printf("x11: set title failed: %v", err)
		}
	}
	if opts.AlwaysOnTop {
		ewmh.WmStateReq(a.xu, win.Id, ewmh.StateAdd, "_NET_WM_STATE_ABOVE")
	}

	state := &x11Window{win: win, width: w, height: h}
	a.mu.Lock()
	a.windows[win.Id] = state
	a.mu.Unlock()

	a.connectEvents(state)
	return platform.WindowHandle(win.Id), nil
}

func (a *Adapter) lookup(h platform.WindowHandle) *x11Window {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.windows[xproto.Window(h)]
}

func (a *Adapter) ShowWindow(h platform.WindowHandle) {
	if s := a.lookup(h); s != nil {
		s.win.Map()
	}
}

func (a *Adapter) HideWindow(h platform.WindowHandle) {
	if s := a.lookup(h); s != nil {
		s.win.Unmap()
	}
}

func (a *Adapter) DestroyWindow(h platform.WindowHandle) {
	s := a.lookup(h)
	if s == nil {
		return
	}
	a.mu.Lock()
	delete(a.windows, xproto.Window(h))
	a.mu.Unlock()
	xevent.Detach(a.xu, s.win.Id)
	s.win.Destroy()
}

func (a *Adapter) WindowBounds(h platform.WindowHandle) platform.RawBounds {
	s := a.lookup(h)
	if s == nil {
		return platform.RawBounds{}
	}
	geom, err := s.win.DecorGeometry()
	if err != nil {
		return platform.RawBounds{Width: float64(s.width), Height: float64(s.height)}
	}
	return platform.RawBounds{
		X: float64(geom.X()), Y: float64(geom.Y()),
		Width: float64(geom.Width()), Height: float64(geom.Height()),
	}
}

func (a *Adapter) SetWindowBounds(h platform.WindowHandle, b platform.RawBounds) {
	s := a.lookup(h)
	if s == nil {
		return
	}
	// EWMH move-resize plays better with window managers; fall back to a
	// direct configure when the WM does not support it.
	err := ewmh.MoveresizeWindow(a.xu, s.win.Id,
		int(b.X), int(b.Y), int(b.Width), int(b.Height))
	if err != nil {
		s.win.MoveResize(int(b.X), int(b.Y), int(b.Width), int(b.Height))
	}
}

func (a *Adapter) SetWindowTitle(h platform.WindowHandle, title string) {
	if s := a.lookup(h); s != nil {
		if err := ewmh.WmNameSet(a.xu, s.win.Id, title); err != nil {
			log.Printf("x11: set title failed: %v", err)
		}
	}
}

// ScaleFactor is 1 on X11; HiDPI scaling is the compositor's concern.
func (a *Adapter) ScaleFactor(platform.WindowHandle) float64 { return 1 }

func (a *Adapter) Display(platform.WindowHandle) platform.DisplayID { return 0 }

func (a *Adapter) Appearance(platform.WindowHandle) platform.Appearance {
	return platform.AppearanceLight
}

func (a *Adapter) SetFullscreen(h platform.WindowHandle, enabled bool) error {
	s := a.lookup(h)
	if s == nil {
		return fmt.Errorf("x11: unknown window %d", h)
	}
	action := ewmh.StateRemove
	if enabled {
		action = ewmh.StateAdd
	}
	return ewmh.WmStateReq(a.xu, s.win.Id, action, "_NET_WM_STATE_FULLSCREEN")
}

func (a *Adapter) Minimize(h platform.WindowHandle) {
	if s := a.lookup(h); s != nil {
		ewmh.ClientEvent(a.xu, s.win.Id, "WM_CHANGE_STATE", iconicState)
	}
}

func (a *Adapter) ToggleMaximize(h platform.WindowHandle) {
	if s := a.lookup(h); s != nil {
		ewmh.WmStateReqExtra(a.xu, s.win.Id, ewmh.StateToggle,
			"_NET_WM_STATE_MAXIMIZED_VERT", "_NET_WM_STATE_MAXIMIZED_HORZ", 1)
	}
}

func (a *Adapter) SetCursor(h platform.WindowHandle, c platform.Cursor) {
	s := a.lookup(h)
	if s == nil {
		return
	}
	name := cursorName(c)
	cursor, err := xcursor.CreateCursor(a.xu, name)
	if err != nil {
		return
	}
	xproto.ChangeWindowAttributes(a.xu.Conn(), s.win.Id,
		xproto.CwCursor, []uint32{uint32(cursor)})
}

func cursorName(c platform.Cursor) uint16 {
	switch c {
	case platform.CursorIBeam:
		return xcursor.XTerm
	case platform.CursorPointingHand:
		return xcursor.Hand2
	case platform.CursorResizeLeftRight:
		return xcursor.SBHDoubleArrow
	case platform.CursorResizeUpDown:
		return xcursor.SBVDoubleArrow
	case platform.CursorCrosshair:
		return xcursor.Crosshair
	default:
		return xcursor.LeftPtr
	}
}

func (a *Adapter) SurfaceView(h platform.WindowHandle) platform.ViewRef {
	// The window itself is the drawable surface on X11.
	return platform.ViewRef(h)
}

// SubscribeRefresh always fails: core X11 exposes no vsync notification. The
// core's pacer degrades to its timer fallback or forced frames.
func (a *Adapter) SubscribeRefresh(platform.WindowHandle, platform.DisplayID, func()) (platform.RefreshSubscription, error) {
	return nil, fmt.Errorf("x11: no display refresh source")
}

func (a *Adapter) SetEventHandler(h platform.WindowHandle, fn func(platform.RawEvent)) {
	if s := a.lookup(h); s != nil {
		s.handler = fn
	}
}

func (a *Adapter) PostToUIThread(fn func()) {
	a.posted <- fn
}
