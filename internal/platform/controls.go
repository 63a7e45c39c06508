package platform

// ControlKind enumerates the native control classes the bridge can request.
type ControlKind uint8

const (
	ControlButton ControlKind = iota
	ControlSearchField
	ControlSegmented
	ControlPopUpButton
	ControlComboBox
	ControlMenuButton
	ControlLabel
	ControlSmallLabel
	ControlIconLabel
	ControlToggle
	ControlCheckbox
	ControlProgressBar
	ControlColorSwatch
	ControlClickableRow
	ControlSeparator
	ControlFixedSpace
	ControlFlexibleSpace
	ControlSidebarToggle
	ControlSidebarSeparator
)

// ControlSpec describes one native control to create or update.
type ControlSpec struct {
	Kind       ControlKind
	Identifier string
	Title      string
	Tooltip    string

	// Segmented / pop-up / combo entries.
	Items    []string
	Selected int

	// Toggle / checkbox state.
	Checked bool

	// Progress in [0,1]; negative means indeterminate.
	Progress float64

	// Color swatch, 0xRRGGBBAA.
	Color uint32

	Enabled bool

	// Fixed space width in points.
	Width float64
}

// ActionPayload is delivered when a native control fires its action.
type ActionPayload struct {
	Identifier string
	// Text carries search-field or combo-box contents.
	Text string
	// Index carries the selected segment / menu item.
	Index int
	// Checked carries toggle and checkbox state.
	Checked bool
}

// ToolbarDisplayMode mirrors the platform toolbar display styles.
type ToolbarDisplayMode uint8

const (
	ToolbarDisplayDefault ToolbarDisplayMode = iota
	ToolbarDisplayIconAndLabel
	ToolbarDisplayIconOnly
	ToolbarDisplayLabelOnly
)

// ToolbarSizeMode mirrors the platform toolbar size styles.
type ToolbarSizeMode uint8

const (
	ToolbarSizeDefault ToolbarSizeMode = iota
	ToolbarSizeRegular
	ToolbarSizeSmall
)

// ToolbarChromeSpec describes the toolbar container itself. Items are
// created separately through CreateControl and passed by reference.
type ToolbarChromeSpec struct {
	Identifier        string
	Title             string
	DisplayMode       ToolbarDisplayMode
	SizeMode          ToolbarSizeMode
	ShowsBaselineRule bool
}

// AnchorKind selects how a popover or panel is positioned.
type AnchorKind uint8

const (
	AnchorToolbarItem AnchorKind = iota
	AnchorPoint
	AnchorCentered
)

// AnchorSpec positions a popover or panel relative to the window.
type AnchorSpec struct {
	Kind AnchorKind
	// ToolbarItem identifier for AnchorToolbarItem.
	Item string
	// Screen point for AnchorPoint.
	X, Y float64
}

// AlertSpec describes a modal alert sheet.
type AlertSpec struct {
	Title   string
	Message string
	Buttons []string
}
