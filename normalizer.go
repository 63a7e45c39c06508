package windowkit

import (
	"time"

	"github.com/Obsydian-HQ/windowkit/internal/platform"
)

// ============================================================================
// Event Normalizer
// ============================================================================
//
// Translates raw platform notifications into the normalized union in
// events.go. Zero or one event per notification; platform-specific input
// quirks are resolved here so consumers never see them.

// syntheticRepeatInterval is the redelivery cadence for held-button pointer
// moves, supporting drag-scroll of long content without hardware input.
const syntheticRepeatInterval = time.Second / 60

// EventNormalizer holds the cross-notification state the input policies
// need: the secondary-click rewrite in flight, the last emitted modifier
// set, the synthetic-repeat timer, and the key-equivalent dedup cache.
type EventNormalizer struct {
	// post marshals timer fires onto the UI goroutine.
	post func(func())

	// Secondary-click emulation: a primary down with the control modifier
	// is rewritten to secondary, and the matching up must follow even if
	// the modifier was released in between.
	secondaryEmulation bool

	// Modifier dedup state.
	modsEmitted bool
	lastMods    Modifiers
	lastCaps    bool

	// Click counting (used when the platform does not count for us).
	lastClickTime time.Time
	lastClickPos  Point
	clickCount    int

	// Synthetic pointer repeat.
	heldButton  PointerButton
	lastMove    PointerMoveEvent
	repeatStop  chan struct{}
	dragActive  bool
	onSynthetic func(PointerMoveEvent)

	// Key-equivalent dedup, keyed by keystroke (keycode + modifiers).
	handledEquivalents map[uint64]struct{}
}

// NewEventNormalizer returns a normalizer. post must execute functions on
// the UI goroutine; nil runs them inline (tests).
func NewEventNormalizer(post func(func())) *EventNormalizer {
	if post == nil {
		post = func(fn func()) { fn() }
	}
	return &EventNormalizer{
		post:               post,
		handledEquivalents: make(map[uint64]struct{}),
	}
}

// SetSyntheticSink registers the consumer of timer-driven pointer repeats.
// Real events flow through Normalize's return value; only synthetic repeats
// use the sink.
func (n *EventNormalizer) SetSyntheticSink(fn func(PointerMoveEvent)) {
	n.onSynthetic = fn
}

// Normalize translates one raw notification. ok is false when the
// notification produces no event (deduplicated, suppressed, or lifecycle
// handled elsewhere).
func (n *EventNormalizer) Normalize(raw platform.RawEvent) (Event, bool) {
	switch raw.Kind {
	case platform.RawPointerDown:
		return n.pointerDown(raw)
	case platform.RawPointerUp:
		return n.pointerUp(raw)
	case platform.RawPointerMove:
		return n.pointerMove(raw)
	case platform.RawScroll:
		return ScrollEvent{
			Position:  Point{X: raw.X, Y: raw.Y},
			Delta:     Point{X: raw.DeltaX, Y: raw.DeltaY},
			Modifiers: convertModifiers(raw.Modifiers),
		}, true
	case platform.RawKeyEquivalent:
		return n.keyEquivalent(raw)
	case platform.RawKeyDown:
		return n.keyDown(raw)
	case platform.RawKeyUp:
		delete(n.handledEquivalents, keystroke(raw.Keycode, raw.Modifiers))
		return KeyUpEvent{
			Keycode:   raw.Keycode,
			Key:       keyName(raw.Keycode, raw.Rune),
			Modifiers: convertModifiers(raw.Modifiers),
		}, true
	case platform.RawModifiersChanged:
		return n.modifiersChanged(raw)
	case platform.RawFileDrop:
		return FileDropEvent{
			Position:  Point{X: raw.X, Y: raw.Y},
			Paths:     raw.Paths,
			Operation: convertDropOperation(raw.DropOperation),
		}, true
	case platform.RawDragEntered:
		// A native drag owns pointer repetition exclusively.
		n.stopSyntheticRepeat()
		n.dragActive = true
		return nil, false
	case platform.RawDragExited:
		n.dragActive = false
		return nil, false
	}
	return nil, false
}

// ----------------------------------------------------------------------------
// Pointer policies
// ----------------------------------------------------------------------------

func (n *EventNormalizer) pointerDown(raw platform.RawEvent) (Event, bool) {
	button := convertButton(raw.Button)
	mods := convertModifiers(raw.Modifiers)

	// Secondary-click emulation: control+primary becomes a secondary
	// click with the modifier cleared, and stays secondary for the whole
	// down/up sequence.
	if button == PointerPrimary && mods.Control() {
		button = PointerSecondary
		mods &^= ModControl
		n.secondaryEmulation = true
	}

	pos := Point{X: raw.X, Y: raw.Y}
	count := raw.ClickCount
	if count == 0 {
		count = n.countClick(pos)
	}

	e := PointerDownEvent{
		Position:      pos,
		Button:        button,
		Modifiers:     mods,
		ClickCount:    count,
		FocusingClick: raw.FirstMouse && button == PointerPrimary,
	}
	return e, true
}

func (n *EventNormalizer) pointerUp(raw platform.RawEvent) (Event, bool) {
	button := convertButton(raw.Button)
	mods := convertModifiers(raw.Modifiers)

	if n.secondaryEmulation && button == PointerPrimary {
		button = PointerSecondary
		mods &^= ModControl
		n.secondaryEmulation = false
	}

	// A real pointer-up cancels any synthetic repeat immediately.
	n.stopSyntheticRepeat()

	count := raw.ClickCount
	if count == 0 {
		count = n.clickCount
	}

	return PointerUpEvent{
		Position:   Point{X: raw.X, Y: raw.Y},
		Button:     button,
		Modifiers:  mods,
		ClickCount: count,
	}, true
}

func (n *EventNormalizer) pointerMove(raw platform.RawEvent) (Event, bool) {
	pressed := PointerNone
	if raw.Button >= 0 {
		pressed = convertButton(raw.Button)
	}

	e := PointerMoveEvent{
		Position:  Point{X: raw.X, Y: raw.Y},
		Pressed:   pressed,
		Modifiers: convertModifiers(raw.Modifiers),
	}

	if pressed != PointerNone {
		n.lastMove = e
		n.heldButton = pressed
		n.startSyntheticRepeat()
	} else {
		n.stopSyntheticRepeat()
	}
	return e, true
}

// countClick reproduces double/triple-click detection for platforms that do
// not report a count.
func (n *EventNormalizer) countClick(pos Point) int {
	const (
		doubleClickTime = 500 * time.Millisecond
		doubleClickDist = 5.0
	)
	now := time.Now()
	dx := pos.X - n.lastClickPos.X
	dy := pos.Y - n.lastClickPos.Y
	if now.Sub(n.lastClickTime) <= doubleClickTime && dx*dx+dy*dy <= doubleClickDist*doubleClickDist {
		n.clickCount++
	} else {
		n.clickCount = 1
	}
	n.lastClickTime = now
	n.lastClickPos = pos
	return n.clickCount
}

// ----------------------------------------------------------------------------
// Synthetic pointer repeat
// ----------------------------------------------------------------------------

func (n *EventNormalizer) startSyntheticRepeat() {
	if n.repeatStop != nil || n.dragActive || n.onSynthetic == nil {
		return
	}
	stop := make(chan struct{})
	n.repeatStop = stop
	go func() {
		ticker := time.NewTicker(syntheticRepeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				n.post(func() {
					// The stop channel may have closed between the
					// tick and this landing on the UI goroutine.
					if n.repeatStop != stop {
						return
					}
					e := n.lastMove
					e.Synthetic = true
					n.onSynthetic(e)
				})
			}
		}
	}()
}

func (n *EventNormalizer) stopSyntheticRepeat() {
	if n.repeatStop != nil {
		close(n.repeatStop)
		n.repeatStop = nil
	}
	n.heldButton = PointerNone
}

// ----------------------------------------------------------------------------
// Keyboard policies
// ----------------------------------------------------------------------------

// NoteKeyEquivalentHandled records the dispatch outcome of a key-equivalent
// so the redelivered normal key-down for the same keystroke is suppressed.
func (n *EventNormalizer) NoteKeyEquivalentHandled(keycode uint32, mods Modifiers, handled bool) {
	ks := keystrokeNorm(keycode, mods)
	if handled {
		n.handledEquivalents[ks] = struct{}{}
	} else {
		delete(n.handledEquivalents, ks)
	}
}

func (n *EventNormalizer) keyEquivalent(raw platform.RawEvent) (Event, bool) {
	return KeyDownEvent{
		Keycode:       raw.Keycode,
		Key:           keyName(raw.Keycode, raw.Rune),
		Rune:          raw.Rune,
		Modifiers:     convertModifiers(raw.Modifiers),
		Repeat:        raw.Repeat,
		KeyEquivalent: true,
	}, true
}

func (n *EventNormalizer) keyDown(raw platform.RawEvent) (Event, bool) {
	ks := keystroke(raw.Keycode, raw.Modifiers)
	if _, done := n.handledEquivalents[ks]; done {
		// Already dispatched through the key-equivalent path.
		delete(n.handledEquivalents, ks)
		return nil, false
	}
	return KeyDownEvent{
		Keycode:   raw.Keycode,
		Key:       keyName(raw.Keycode, raw.Rune),
		Rune:      raw.Rune,
		Modifiers: convertModifiers(raw.Modifiers),
		Repeat:    raw.Repeat,
	}, true
}

func (n *EventNormalizer) modifiersChanged(raw platform.RawEvent) (Event, bool) {
	mods := convertModifiers(raw.Modifiers)
	if n.modsEmitted && mods == n.lastMods && raw.CapsLock == n.lastCaps {
		return nil, false
	}
	n.modsEmitted = true
	n.lastMods = mods
	n.lastCaps = raw.CapsLock
	return ModifiersChangedEvent{Modifiers: mods, CapsLock: raw.CapsLock}, true
}

// ----------------------------------------------------------------------------
// Conversions
// ----------------------------------------------------------------------------

func convertButton(button int) PointerButton {
	switch button {
	case platform.RawButtonPrimary:
		return PointerPrimary
	case platform.RawButtonSecondary:
		return PointerSecondary
	case platform.RawButtonMiddle:
		return PointerMiddle
	default:
		return PointerNone
	}
}

func convertDropOperation(op platform.RawDropOperation) DropOperation {
	switch op {
	case platform.RawDropCopy:
		return DropCopy
	case platform.RawDropLink:
		return DropLink
	default:
		return DropGeneric
	}
}

func convertModifiers(raw platform.RawModifiers) Modifiers {
	var m Modifiers
	if raw&platform.RawModShift != 0 {
		m |= ModShift
	}
	if raw&platform.RawModControl != 0 {
		m |= ModControl
	}
	if raw&platform.RawModAlt != 0 {
		m |= ModAlt
	}
	if raw&platform.RawModCommand != 0 {
		m |= ModCommand
	}
	if raw&platform.RawModFunction != 0 {
		m |= ModFunction
	}
	return m
}

func keystroke(keycode uint32, mods platform.RawModifiers) uint64 {
	return uint64(keycode)<<32 | uint64(mods)
}

func keystrokeNorm(keycode uint32, mods Modifiers) uint64 {
	var raw platform.RawModifiers
	if mods.Shift() {
		raw |= platform.RawModShift
	}
	if mods.Control() {
		raw |= platform.RawModControl
	}
	if mods.Alt() {
		raw |= platform.RawModAlt
	}
	if mods.Command() {
		raw |= platform.RawModCommand
	}
	if mods.Function() {
		raw |= platform.RawModFunction
	}
	return keystroke(keycode, raw)
}
