//go:build darwin || windows

package native

import (
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/Obsydian-HQ/windowkit/internal/platform"
)

// ============================================================================
// Text input callbacks
// ============================================================================
//
// The shim drives the platform IME protocol and calls back into the core's
// text-input client. One static table serves every window; the handle routes
// to the right client.

type textInputCallbacksC struct {
	SetMarkedText uintptr
	InsertText    uintptr
	UnmarkText    uintptr
	MarkedRange   uintptr
	SelectedRange uintptr
	FirstRect     uintptr
	CharIndex     uintptr
}

type rangeC struct {
	Start, Length int64
}

type pointC struct {
	X, Y float64
}

var textCallbacks textInputCallbacksC

func installTextInputCallbacks() {
	textCallbacks = textInputCallbacksC{
		SetMarkedText: purego.NewCallback(onSetMarkedText),
		InsertText:    purego.NewCallback(onInsertText),
		UnmarkText:    purego.NewCallback(onUnmarkText),
		MarkedRange:   purego.NewCallback(onMarkedRange),
		SelectedRange: purego.NewCallback(onSelectedRange),
		FirstRect:     purego.NewCallback(onFirstRect),
		CharIndex:     purego.NewCallback(onCharIndex),
	}
	fnTextInputSetCallbacks(uintptr(unsafe.Pointer(&textCallbacks)))
}

func clientFor(win uintptr) platform.TextInputClient {
	regMu.Lock()
	defer regMu.Unlock()
	return clients[win]
}

func onSetMarkedText(win uintptr, text uintptr, selStart uintptr, selEnd uintptr) uintptr {
	if c := clientFor(win); c != nil {
		c.SetMarkedText(goString(text), int(selStart), int(selEnd))
	}
	return 0
}

func onInsertText(win uintptr, text uintptr) uintptr {
	if c := clientFor(win); c != nil {
		c.InsertText(goString(text))
	}
	return 0
}

func onUnmarkText(win uintptr) uintptr {
	if c := clientFor(win); c != nil {
		c.UnmarkText()
	}
	return 0
}

func onMarkedRange(win uintptr, outPtr uintptr) uintptr {
	c := clientFor(win)
	if c == nil || outPtr == 0 {
		return 0
	}
	start, length, ok := c.MarkedRange()
	if !ok {
		return 0
	}
	out := (*rangeC)(unsafe.Pointer(outPtr))
	out.Start = int64(start)
	out.Length = int64(length)
	return 1
}

func onSelectedRange(win uintptr, outPtr uintptr) uintptr {
	c := clientFor(win)
	if c == nil || outPtr == 0 {
		return 0
	}
	start, length := c.SelectedRange()
	out := (*rangeC)(unsafe.Pointer(outPtr))
	out.Start = int64(start)
	out.Length = int64(length)
	return 1
}

func onFirstRect(win uintptr, start uintptr, length uintptr, outPtr uintptr) uintptr {
	c := clientFor(win)
	if c == nil || outPtr == 0 {
		return 0
	}
	x, y, w, h, ok := c.FirstRectForRange(int(start), int(length))
	if !ok {
		return 0
	}
	out := (*boundsC)(unsafe.Pointer(outPtr))
	out.X, out.Y, out.Width, out.Height = x, y, w, h
	return 1
}

func onCharIndex(win uintptr, pointPtr uintptr) uintptr {
	c := clientFor(win)
	if c == nil || pointPtr == 0 {
		return 0
	}
	p := (*pointC)(unsafe.Pointer(pointPtr))
	idx := c.CharacterIndexForPoint(p.X, p.Y)
	if idx < 0 {
		idx = 0
	}
	return uintptr(idx)
}
