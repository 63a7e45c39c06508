package platform

// RawEventKind discriminates raw platform notifications before the core
// normalizes them.
type RawEventKind uint8

const (
	RawNone RawEventKind = iota

	// Input
	RawPointerDown
	RawPointerUp
	RawPointerMove
	RawScroll
	RawKeyDown
	RawKeyUp
	RawKeyEquivalent
	RawModifiersChanged
	RawCharInput
	RawFileDrop

	// Lifecycle
	RawResized
	RawMoved
	RawScaleChanged
	RawAppearanceChanged
	RawActivated
	RawDeactivated
	RawOccluded
	RawRevealed
	RawDisplayChanged
	RawCloseRequested
	RawDragEntered
	RawDragExited
)

// RawModifiers is the platform modifier bitmask at the adapter boundary.
type RawModifiers uint32

const (
	RawModShift RawModifiers = 1 << iota
	RawModControl
	RawModAlt
	RawModCommand
	RawModFunction
)

// Raw pointer button numbering follows the platform convention: 0 primary,
// 1 secondary, 2 middle. RawButtonNone marks pointer moves with no button
// held.
const (
	RawButtonNone      = -1
	RawButtonPrimary   = 0
	RawButtonSecondary = 1
	RawButtonMiddle    = 2
)

// RawDropOperation is the drag operation the source proposed for a file
// drop.
type RawDropOperation uint8

const (
	RawDropGeneric RawDropOperation = iota
	RawDropCopy
	RawDropLink
)

// RawEvent is one platform notification. Fields are meaningful per kind;
// unused fields are zero.
type RawEvent struct {
	Kind RawEventKind

	// Pointer position in window-local logical pixels, or window origin
	// for RawMoved, or window size for RawResized.
	X, Y float64

	// Scroll deltas in logical pixels (natural direction).
	DeltaX, DeltaY float64

	Button     int
	ClickCount int

	Keycode   uint32
	Rune      rune
	Repeat    bool
	Modifiers RawModifiers
	CapsLock  bool

	// FirstMouse marks a pointer-down that also gave the window keyboard
	// focus (the click that raised the window).
	FirstMouse bool

	ScaleFactor float64
	Display     DisplayID
	Appearance  Appearance

	// File drop payload.
	Paths         []string
	DropOperation RawDropOperation
}

// HasShift reports whether shift was held.
func (e RawEvent) HasShift() bool { return e.Modifiers&RawModShift != 0 }

// HasControl reports whether control was held.
func (e RawEvent) HasControl() bool { return e.Modifiers&RawModControl != 0 }

// HasAlt reports whether alt/option was held.
func (e RawEvent) HasAlt() bool { return e.Modifiers&RawModAlt != 0 }

// HasCommand reports whether command/super was held.
func (e RawEvent) HasCommand() bool { return e.Modifiers&RawModCommand != 0 }
