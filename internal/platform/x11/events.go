//go:build linux

package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/Obsydian-HQ/windowkit/internal/platform"
)

const scrollStep = 40 // logical pixels per wheel detent

// connectEvents hooks the X event stream for one window and translates into
// raw platform events.
func (a *Adapter) connectEvents(s *x11Window) {
	xu, id := a.xu, s.win.Id

	xevent.ButtonPressFun(func(_ *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		a.deliverButton(s, ev.Detail, ev.State, float64(ev.EventX), float64(ev.EventY), true)
	}).Connect(xu, id)

	xevent.ButtonReleaseFun(func(_ *xgbutil.XUtil, ev xevent.ButtonReleaseEvent) {
		// Wheel events arrive as press/release pairs; only the press
		// produces a scroll.
		if ev.Detail >= 4 && ev.Detail <= 7 {
			return
		}
		a.deliverButton(s, ev.Detail, ev.State, float64(ev.EventX), float64(ev.EventY), false)
	}).Connect(xu, id)

	xevent.MotionNotifyFun(func(_ *xgbutil.XUtil, ev xevent.MotionNotifyEvent) {
		s.deliver(platform.RawEvent{
			Kind:      platform.RawPointerMove,
			X:         float64(ev.EventX),
			Y:         float64(ev.EventY),
			Button:    heldButton(ev.State),
			Modifiers: convertState(ev.State),
		})
	}).Connect(xu, id)

	xevent.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		str := keybind.LookupString(xu, ev.State, ev.Detail)
		var r rune
		if len(str) == 1 {
			r = rune(str[0])
		}
		s.deliver(platform.RawEvent{
			Kind:      platform.RawKeyDown,
			Keycode:   uint32(ev.Detail),
			Rune:      r,
			Modifiers: convertState(ev.State),
		})
	}).Connect(xu, id)

	xevent.KeyReleaseFun(func(xu *xgbutil.XUtil, ev xevent.KeyReleaseEvent) {
		str := keybind.LookupString(xu, ev.State, ev.Detail)
		var r rune
		if len(str) == 1 {
			r = rune(str[0])
		}
		s.deliver(platform.RawEvent{
			Kind:      platform.RawKeyUp,
			Keycode:   uint32(ev.Detail),
			Rune:      r,
			Modifiers: convertState(ev.State),
		})
	}).Connect(xu, id)

	xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		w, h := int(ev.Width), int(ev.Height)
		if w != s.width || h != s.height {
			s.width, s.height = w, h
			s.deliver(platform.RawEvent{
				Kind: platform.RawResized,
				X:    float64(w),
				Y:    float64(h),
			})
		} else {
			s.deliver(platform.RawEvent{
				Kind: platform.RawMoved,
				X:    float64(ev.X),
				Y:    float64(ev.Y),
			})
		}
	}).Connect(xu, id)

	xevent.FocusInFun(func(_ *xgbutil.XUtil, ev xevent.FocusInEvent) {
		s.deliver(platform.RawEvent{Kind: platform.RawActivated})
	}).Connect(xu, id)

	xevent.FocusOutFun(func(_ *xgbutil.XUtil, ev xevent.FocusOutEvent) {
		s.deliver(platform.RawEvent{Kind: platform.RawDeactivated})
	}).Connect(xu, id)

	xevent.VisibilityNotifyFun(func(_ *xgbutil.XUtil, ev xevent.VisibilityNotifyEvent) {
		obscured := ev.State == xproto.VisibilityFullyObscured
		if obscured == s.occluded {
			return
		}
		s.occluded = obscured
		kind := platform.RawRevealed
		if obscured {
			kind = platform.RawOccluded
		}
		s.deliver(platform.RawEvent{Kind: kind})
	}).Connect(xu, id)

	// Route the WM close button through the close protocol instead of
	// letting the connection drop the window.
	s.win.WMGracefulClose(func(w *xwindow.Window) {
		s.deliver(platform.RawEvent{Kind: platform.RawCloseRequested})
	})
}

func (a *Adapter) deliverButton(s *x11Window, detail xproto.Button, state uint16, x, y float64, press bool) {
	mods := convertState(state)

	// Buttons 4..7 encode the scroll wheel.
	if detail >= 4 && detail <= 7 {
		if !press {
			return
		}
		var dx, dy float64
		switch detail {
		case 4:
			dy = scrollStep
		case 5:
			dy = -scrollStep
		case 6:
			dx = scrollStep
		case 7:
			dx = -scrollStep
		}
		s.deliver(platform.RawEvent{
			Kind:      platform.RawScroll,
			X:         x,
			Y:         y,
			DeltaX:    dx,
			DeltaY:    dy,
			Modifiers: mods,
		})
		return
	}

	kind := platform.RawPointerUp
	if press {
		kind = platform.RawPointerDown
	}
	s.deliver(platform.RawEvent{
		Kind:      kind,
		X:         x,
		Y:         y,
		Button:    convertXButton(detail),
		Modifiers: mods,
	})
}

func (s *x11Window) deliver(raw platform.RawEvent) {
	if s.handler != nil {
		s.handler(raw)
	}
}

func convertXButton(detail xproto.Button) int {
	switch detail {
	case 1:
		return platform.RawButtonPrimary
	case 2:
		return platform.RawButtonMiddle
	case 3:
		return platform.RawButtonSecondary
	default:
		return platform.RawButtonNone
	}
}

// heldButton extracts the pressed button from a motion event's state mask.
func heldButton(state uint16) int {
	switch {
	case state&xproto.ButtonMask1 != 0:
		return platform.RawButtonPrimary
	case state&xproto.ButtonMask2 != 0:
		return platform.RawButtonMiddle
	case state&xproto.ButtonMask3 != 0:
		return platform.RawButtonSecondary
	default:
		return platform.RawButtonNone
	}
}

func convertState(state uint16) platform.RawModifiers {
	var m platform.RawModifiers
	if state&xproto.ModMaskShift != 0 {
		m |= platform.RawModShift
	}
	if state&xproto.ModMaskControl != 0 {
		m |= platform.RawModControl
	}
	if state&xproto.ModMask1 != 0 {
		m |= platform.RawModAlt
	}
	if state&xproto.ModMask4 != 0 {
		m |= platform.RawModCommand
	}
	return m
}
