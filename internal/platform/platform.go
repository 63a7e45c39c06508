// Package platform defines the primitive operations a platform backend must
// supply to the portable window core. The core owns all state machines and
// invariants; adapters implement only creation, geometry, input delivery, and
// (where the platform supports it) native-control hosting.
package platform

// DisplayID identifies a physical display as reported by the platform.
type DisplayID uint32

// WindowHandle is an opaque reference to a platform window object.
// Zero is never a valid handle.
type WindowHandle uintptr

// ViewRef is an opaque reference to a platform view that can host a rendered
// surface (the drawable's backing view).
type ViewRef uintptr

// ContainerRef is an opaque reference to a native container a surface view
// can be embedded into (sidebar pane, toolbar accessory, popover content).
type ContainerRef uintptr

// ControlRef is an opaque reference to a native control object.
type ControlRef uintptr

// TargetRef is an opaque reference to the callback-dispatch target object
// created alongside a control. May be zero for controls with no callbacks.
type TargetRef uintptr

// Appearance is the platform-reported light/dark appearance.
type Appearance uint8

const (
	AppearanceLight Appearance = iota
	AppearanceDark
)

// WindowKind mirrors the portable window kinds at the adapter boundary.
type WindowKind uint8

const (
	KindNormal WindowKind = iota
	KindFloating
	KindPopup
	KindSheet
)

// BackgroundMode selects how the window composites with what is behind it.
type BackgroundMode uint8

const (
	BackgroundOpaque BackgroundMode = iota
	BackgroundTransparent
	BackgroundBlurred
)

// Cursor enumerates the cursor styles the core may request.
type Cursor uint8

const (
	CursorArrow Cursor = iota
	CursorIBeam
	CursorPointingHand
	CursorResizeLeftRight
	CursorResizeUpDown
	CursorCrosshair
)

// RawBounds is a window rectangle in logical pixels, origin top-left.
type RawBounds struct {
	X, Y          float64
	Width, Height float64
}

// SafeAreaInsets are the distances from a container's edges within which
// content is not covered by floating chrome (titlebars, toolbars, notches).
type SafeAreaInsets struct {
	Top, Left, Bottom, Right float64
}

// WindowOptions carries the creation-time window parameters. The kind is
// immutable after creation; everything else can change through setters.
type WindowOptions struct {
	Title      string
	Kind       WindowKind
	Background BackgroundMode
	Bounds     RawBounds

	MinWidth, MinHeight float64
	MaxWidth, MaxHeight float64

	Decorations         bool
	Resizable           bool
	AlwaysOnTop         bool
	TransparentTitlebar bool
	CornerRadius        float64
}

// RefreshSubscription is a live display-refresh source. Cancel must be safe
// to call more than once.
type RefreshSubscription interface {
	Cancel()
}

// Adapter is the primitive-operations surface a backend implements. All
// methods are called on the UI goroutine unless noted otherwise.
type Adapter interface {
	// CreateWindow allocates and returns a hidden platform window.
	CreateWindow(opts WindowOptions) (WindowHandle, error)

	// ShowWindow makes the window visible and orders it front.
	ShowWindow(h WindowHandle)

	// HideWindow removes the window from screen without destroying it.
	HideWindow(h WindowHandle)

	// DestroyWindow releases the platform window object. The handle is
	// invalid afterwards.
	DestroyWindow(h WindowHandle)

	WindowBounds(h WindowHandle) RawBounds
	SetWindowBounds(h WindowHandle, b RawBounds)
	SetWindowTitle(h WindowHandle, title string)

	// ScaleFactor reports the backing-store scale of the display the
	// window currently occupies.
	ScaleFactor(h WindowHandle) float64

	// Display reports which display the window currently occupies.
	Display(h WindowHandle) DisplayID

	Appearance(h WindowHandle) Appearance

	SetFullscreen(h WindowHandle, enabled bool) error
	Minimize(h WindowHandle)
	ToggleMaximize(h WindowHandle)

	SetCursor(h WindowHandle, c Cursor)

	// SurfaceView returns the view backing the window's primary drawable.
	SurfaceView(h WindowHandle) ViewRef

	// SubscribeRefresh ties a periodic refresh callback to the given
	// display. tick may fire on a non-UI thread; the caller marshals.
	// An error means the platform refused the subscription and the
	// caller must degrade to forced frames only.
	SubscribeRefresh(h WindowHandle, display DisplayID, tick func()) (RefreshSubscription, error)

	// SetEventHandler registers the sink for raw input and lifecycle
	// events. Events may originate on a non-UI thread.
	SetEventHandler(h WindowHandle, fn func(RawEvent))

	// PostToUIThread schedules fn on the UI thread. Safe to call from
	// any goroutine.
	PostToUIThread(fn func())
}

// ControlHost is the optional native-control surface. Backends that cannot
// host native controls (for example the X11 adapter) simply do not implement
// it; the bridge degrades the affordance.
type ControlHost interface {
	// CreateControl builds a native control plus its callback target.
	// onAction fires on the UI thread with the control's action payload.
	CreateControl(h WindowHandle, spec ControlSpec, onAction func(ActionPayload)) (ControlRef, TargetRef, error)

	// UpdateControl mutates a live control in place.
	UpdateControl(c ControlRef, spec ControlSpec) error

	// ReleaseControl severs the control→target link, then frees both.
	// Exactly-once semantics are enforced by the caller.
	ReleaseControl(c ControlRef, t TargetRef)

	// SetControlImage installs decoded RGBA image bytes as the control's
	// icon. Called on the UI thread only.
	SetControlImage(c ControlRef, rgba []byte, width, height int) error

	// InstallToolbar attaches toolbar chrome described by spec to the
	// window, referencing already-created item controls by identifier.
	InstallToolbar(h WindowHandle, spec ToolbarChromeSpec, items []ControlRef) error

	// RemoveToolbar detaches any installed toolbar chrome.
	RemoveToolbar(h WindowHandle)

	// ToolbarItemContainer resolves a toolbar item identifier to a
	// container other views can be anchored against. Returns zero if the
	// identifier is unknown.
	ToolbarItemContainer(h WindowHandle, identifier string) ContainerRef

	// PresentPopover shows a popover anchored at anchor containing the
	// given content controls. Dismiss via DismissPopover.
	PresentPopover(h WindowHandle, anchor AnchorSpec, content []ControlRef) error
	DismissPopover(h WindowHandle)

	PresentPanel(h WindowHandle, anchor AnchorSpec, content []ControlRef) error
	DismissPanel(h WindowHandle)

	// PresentAlertSheet shows a modal sheet; done fires on the UI thread
	// with the clicked button index.
	PresentAlertSheet(h WindowHandle, spec AlertSpec, done func(int)) error

	// SidebarContainer returns the native sidebar pane container, or zero
	// if the window has no split view installed.
	SidebarContainer(h WindowHandle) ContainerRef

	// ReparentSurfaceView moves view under parent (or back to the window
	// content view when parent is zero), pinning to the content edges and
	// respecting insets. The view itself is never destroyed.
	ReparentSurfaceView(h WindowHandle, view ViewRef, parent ContainerRef, insets SafeAreaInsets) error

	// MakeFirstResponder routes keyboard input to view. Reports whether
	// the platform accepted.
	MakeFirstResponder(h WindowHandle, view ViewRef) bool
}

// TextInputClient is implemented by the core's composition bridge and called
// by the backend while the platform IME is active. All calls arrive on the
// UI thread; implementations must not panic across this boundary.
type TextInputClient interface {
	SetMarkedText(text string, selStart, selEnd int)
	InsertText(text string)
	UnmarkText()
	MarkedRange() (start, length int, ok bool)
	SelectedRange() (start, length int)
	FirstRectForRange(start, length int) (x, y, w, h float64, ok bool)
	CharacterIndexForPoint(x, y float64) int
}

// TextInputHost is the optional IME surface of a backend.
type TextInputHost interface {
	SetTextInputClient(h WindowHandle, client TextInputClient)
}
