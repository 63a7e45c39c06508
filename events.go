package windowkit

// ============================================================================
// Normalized Event Model
// ============================================================================
//
// One platform notification produces zero or one of these. Applications see
// only this union; platform quirks (secondary-click emulation, key-equivalent
// double delivery, modifier chatter) are resolved by the normalizer before
// an event is emitted.

// PointerButton identifies which pointer button an event refers to.
type PointerButton uint8

const (
	PointerNone PointerButton = iota
	PointerPrimary
	PointerSecondary
	PointerMiddle
)

// Modifiers is the normalized modifier-key bitmask.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModCommand
	ModFunction
)

func (m Modifiers) Shift() bool    { return m&ModShift != 0 }
func (m Modifiers) Control() bool  { return m&ModControl != 0 }
func (m Modifiers) Alt() bool      { return m&ModAlt != 0 }
func (m Modifiers) Command() bool  { return m&ModCommand != 0 }
func (m Modifiers) Function() bool { return m&ModFunction != 0 }

// Event is the tagged union of normalized input events.
type Event interface {
	isEvent()
}

// PointerDownEvent is a pointer button press.
type PointerDownEvent struct {
	Position  Point
	Button    PointerButton
	Modifiers Modifiers

	// ClickCount is 1 for a single click, 2 for the second click of a
	// double click, and so on.
	ClickCount int

	// FocusingClick marks the primary click that also gave the window
	// keyboard focus, so activation-sensitive consumers can ignore it.
	FocusingClick bool
}

// PointerUpEvent is a pointer button release.
type PointerUpEvent struct {
	Position   Point
	Button     PointerButton
	Modifiers  Modifiers
	ClickCount int
}

// PointerMoveEvent is pointer motion, with or without a held button.
type PointerMoveEvent struct {
	Position  Point
	Pressed   PointerButton // PointerNone when no button is held
	Modifiers Modifiers

	// Synthetic marks a repeat delivered by the drag-repeat timer rather
	// than real hardware input.
	Synthetic bool
}

// ScrollEvent is wheel or trackpad scrolling in logical pixels.
type ScrollEvent struct {
	Position  Point
	Delta     Point
	Modifiers Modifiers
}

// KeyDownEvent is a key press.
type KeyDownEvent struct {
	Keycode   uint32
	Key       string // logical key name, e.g. "a", "Enter", "Escape"
	Rune      rune   // typed character, 0 for non-printable keys
	Modifiers Modifiers
	Repeat    bool

	// KeyEquivalent marks the shortcut-path delivery tried before normal
	// key handling.
	KeyEquivalent bool
}

// KeyUpEvent is a key release.
type KeyUpEvent struct {
	Keycode   uint32
	Key       string
	Modifiers Modifiers
}

// ModifiersChangedEvent reports a change in the held modifier set. Emitted
// only when the state actually differs from the previous emission.
type ModifiersChangedEvent struct {
	Modifiers Modifiers
	CapsLock  bool
}

// CompositionEvent reports IME marked-text progress to observers. The text
// itself is committed through the composition bridge's insert path.
type CompositionEvent struct {
	Text     string
	SelStart int
	SelEnd   int
}

// DropOperation is the operation the drag source proposed for a file drop.
type DropOperation uint8

const (
	DropGeneric DropOperation = iota
	DropCopy
	DropLink
)

// FileDropEvent is a native drag depositing files on the window.
type FileDropEvent struct {
	Position  Point
	Paths     []string
	Operation DropOperation
}

func (PointerDownEvent) isEvent()      {}
func (PointerUpEvent) isEvent()        {}
func (PointerMoveEvent) isEvent()      {}
func (ScrollEvent) isEvent()           {}
func (KeyDownEvent) isEvent()          {}
func (KeyUpEvent) isEvent()            {}
func (ModifiersChangedEvent) isEvent() {}
func (CompositionEvent) isEvent()      {}
func (FileDropEvent) isEvent()         {}

// keyName maps a platform keycode to a logical key name. Unmapped codes
// return the empty string and consumers fall back to the keycode.
func keyName(keycode uint32, r rune) string {
	switch keycode {
	case 36:
		return "Enter"
	case 48:
		return "Tab"
	case 49:
		return "Space"
	case 51:
		return "Backspace"
	case 53:
		return "Escape"
	case 117:
		return "Delete"
	case 123:
		return "ArrowLeft"
	case 124:
		return "ArrowRight"
	case 125:
		return "ArrowDown"
	case 126:
		return "ArrowUp"
	case 115:
		return "Home"
	case 119:
		return "End"
	case 116:
		return "PageUp"
	case 121:
		return "PageDown"
	}
	if r != 0 {
		return string(r)
	}
	return ""
}
