package windowkit

import (
	"log"
	"runtime/debug"
)

// ============================================================================
// Text Composition (IME) Bridge
// ============================================================================
//
// Mirrors the platform text-input-client protocol: Idle → Composing → Idle,
// with a marked (uncommitted) range and a selected sub-range within it.
// While composing, printable key-downs route here instead of the normal key
// path. Application-supplied text handling runs behind a recover so a panic
// never unwinds into native code.

// CompositionState is the bridge's state.
type CompositionState uint8

const (
	CompositionIdle CompositionState = iota
	CompositionComposing
)

// TextInputDelegate is the application's text storage and measurement
// surface consumed by the bridge.
type TextInputDelegate interface {
	// InsertText commits text at the current selection, replacing it.
	InsertText(text string)

	// SelectedRange returns the current selection in document character
	// offsets.
	SelectedRange() (start, length int)

	// RectForRange returns the window-space bounds of a character range,
	// used to position composition candidate windows.
	RectForRange(start, length int) (Bounds, bool)

	// IndexForPoint returns the character index under a window point,
	// used for click-to-position during composition.
	IndexForPoint(p Point) int

	// CompositionChanged observes marked-text progress. Text is empty
	// when composition ends.
	CompositionChanged(text string, selStart, selEnd int)
}

// CompositionBridge adapts a TextInputDelegate to the platform IME
// protocol. It implements platform.TextInputClient.
type CompositionBridge struct {
	state    CompositionState
	delegate TextInputDelegate

	// Marked (uncommitted) text and the selected sub-range within it,
	// in characters relative to the marked text's start.
	markedText string
	selStart   int
	selEnd     int

	// Document position where the marked range begins, captured when
	// composition starts.
	markedDocStart int
}

// NewCompositionBridge returns an idle bridge for the given delegate.
func NewCompositionBridge(delegate TextInputDelegate) *CompositionBridge {
	return &CompositionBridge{delegate: delegate}
}

// State returns the current composition state.
func (b *CompositionBridge) State() CompositionState { return b.state }

// MarkedText returns the uncommitted text, empty while idle.
func (b *CompositionBridge) MarkedText() string { return b.markedText }

// Composing reports whether an IME composition is in progress.
func (b *CompositionBridge) Composing() bool { return b.state == CompositionComposing }

// RoutesKey reports whether a key-down should be routed through the bridge
// rather than the normal key path. Only printable characters with no command
// chord are composition input; control keys and modified chords bypass.
func (b *CompositionBridge) RoutesKey(e KeyDownEvent) bool {
	if b.state != CompositionComposing {
		return false
	}
	if e.Rune == 0 {
		return false
	}
	if e.Modifiers.Control() || e.Modifiers.Command() {
		return false
	}
	return true
}

// ----------------------------------------------------------------------------
// platform.TextInputClient
// ----------------------------------------------------------------------------

// SetMarkedText begins or replaces the marked text. selStart/selEnd select a
// sub-range within the new marked text, in characters.
func (b *CompositionBridge) SetMarkedText(text string, selStart, selEnd int) {
	defer b.recoverBoundary("SetMarkedText")

	if b.state == CompositionIdle {
		start, _ := b.delegate.SelectedRange()
		b.markedDocStart = start
		b.state = CompositionComposing
	}

	runes := len([]rune(text))
	b.markedText = text
	b.selStart = clampInt(selStart, 0, runes)
	b.selEnd = clampInt(selEnd, b.selStart, runes)

	b.delegate.CompositionChanged(text, b.selStart, b.selEnd)
}

// InsertText commits text and clears any marking. Delivered to the delegate
// exactly once per commit.
func (b *CompositionBridge) InsertText(text string) {
	defer b.recoverBoundary("InsertText")

	wasComposing := b.state == CompositionComposing
	b.clearMarked()

	b.delegate.InsertText(text)
	if wasComposing {
		b.delegate.CompositionChanged("", 0, 0)
	}
}

// UnmarkText abandons the composition without committing.
func (b *CompositionBridge) UnmarkText() {
	defer b.recoverBoundary("UnmarkText")

	if b.state == CompositionIdle {
		return
	}
	b.clearMarked()
	b.delegate.CompositionChanged("", 0, 0)
}

// MarkedRange returns the marked range in document offsets.
func (b *CompositionBridge) MarkedRange() (start, length int, ok bool) {
	if b.state != CompositionComposing {
		return 0, 0, false
	}
	return b.markedDocStart, len([]rune(b.markedText)), true
}

// SelectedRange returns the selection in document offsets. While composing
// this is the selected sub-range within the marked text.
func (b *CompositionBridge) SelectedRange() (start, length int) {
	defer b.recoverBoundary("SelectedRange")

	if b.state == CompositionComposing {
		return b.markedDocStart + b.selStart, b.selEnd - b.selStart
	}
	return b.delegate.SelectedRange()
}

// FirstRectForRange returns the window-space bounds of a character range.
func (b *CompositionBridge) FirstRectForRange(start, length int) (x, y, w, h float64, ok bool) {
	defer b.recoverBoundary("FirstRectForRange")

	bounds, found := b.delegate.RectForRange(start, length)
	if !found {
		return 0, 0, 0, 0, false
	}
	return bounds.Origin.X, bounds.Origin.Y, bounds.Size.Width, bounds.Size.Height, true
}

// CharacterIndexForPoint returns the character index under a window point.
func (b *CompositionBridge) CharacterIndexForPoint(x, y float64) int {
	defer b.recoverBoundary("CharacterIndexForPoint")

	return b.delegate.IndexForPoint(Point{X: x, Y: y})
}

func (b *CompositionBridge) clearMarked() {
	b.state = CompositionIdle
	b.markedText = ""
	b.selStart = 0
	b.selEnd = 0
	b.markedDocStart = 0
}

// recoverBoundary contains delegate panics at the native callback boundary.
func (b *CompositionBridge) recoverBoundary(op string) {
	if r := recover(); r != nil {
		log.Printf("composition: recovered panic in %s: %v\n%s", op, r, debug.Stack())
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
