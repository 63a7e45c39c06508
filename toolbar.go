package windowkit

import (
	"log"

	"github.com/Obsydian-HQ/windowkit/internal/platform"
)

// ============================================================================
// Native Toolbar / Popover / Panel Configurations
// ============================================================================
//
// Each installed configuration owns the full set of native resources it
// created. Installing a replacement releases the old set wholesale first;
// closing the window releases whatever is installed. Either way each handle
// is released exactly once.

// Convenience aliases so consumers configure controls without importing the
// platform internals directly.
type (
	ControlAction      = platform.ActionPayload
	ToolbarDisplayMode = platform.ToolbarDisplayMode
	ToolbarSizeMode    = platform.ToolbarSizeMode
)

const (
	ToolbarDisplayDefault      = platform.ToolbarDisplayDefault
	ToolbarDisplayIconAndLabel = platform.ToolbarDisplayIconAndLabel
	ToolbarDisplayIconOnly     = platform.ToolbarDisplayIconOnly
	ToolbarDisplayLabelOnly    = platform.ToolbarDisplayLabelOnly

	ToolbarSizeDefault = platform.ToolbarSizeDefault
	ToolbarSizeRegular = platform.ToolbarSizeRegular
	ToolbarSizeSmall   = platform.ToolbarSizeSmall
)

// ToolbarItemKind enumerates the installable toolbar item types.
type ToolbarItemKind uint8

const (
	ToolbarButton ToolbarItemKind = iota
	ToolbarSearchField
	ToolbarSegmented
	ToolbarPopUpButton
	ToolbarComboBox
	ToolbarMenuButton
	ToolbarLabel
	ToolbarFixedSpace
	ToolbarFlexibleSpace
	ToolbarSidebarToggle
	ToolbarSidebarSeparator
)

// ToolbarItem describes one toolbar item.
type ToolbarItem struct {
	Kind       ToolbarItemKind
	Identifier string
	Title      string
	Tooltip    string

	// Entries populate segmented controls, pop-up buttons, and combo
	// boxes.
	Entries []string

	// Width applies to fixed spaces, in points.
	Width float64

	// IconURL, when set, is fetched asynchronously and installed as the
	// item's image once decoded.
	IconURL string

	OnAction func(ControlAction)
}

// ToolbarConfig describes a complete native toolbar.
type ToolbarConfig struct {
	Identifier             string
	Title                  string
	DisplayMode            ToolbarDisplayMode
	SizeMode               ToolbarSizeMode
	ShowsBaselineSeparator bool
	Items                  []ToolbarItem
}

// PopoverItemKind enumerates popover/panel content items.
type PopoverItemKind uint8

const (
	PopoverLabel PopoverItemKind = iota
	PopoverSmallLabel
	PopoverIconLabel
	PopoverButton
	PopoverToggle
	PopoverCheckbox
	PopoverProgressBar
	PopoverColorSwatch
	PopoverClickableRow
	PopoverSeparator
)

// PopoverItem describes one content row of a popover or panel.
type PopoverItem struct {
	Kind       PopoverItemKind
	Identifier string
	Title      string

	Checked  bool
	Progress float64 // in [0,1]; negative means indeterminate
	Color    uint32  // 0xRRGGBBAA for color swatches

	OnClick  func()
	OnToggle func(checked bool)
}

// PopoverConfig describes a popover's or panel's content list.
type PopoverConfig struct {
	Items []PopoverItem
}

// AnchorKind selects how a popover or panel is positioned.
type AnchorKind uint8

const (
	// AnchorToolbarItem anchors to an installed toolbar item by
	// identifier.
	AnchorToolbarItem AnchorKind = iota
	// AnchorPoint anchors to a window-space point.
	AnchorPoint
	// AnchorCentered centers over the window.
	AnchorCentered
)

// Anchor positions a popover or panel.
type Anchor struct {
	Kind AnchorKind
	Item string
	At   Point
}

// AnchorAtItem anchors to a toolbar item identifier.
func AnchorAtItem(identifier string) Anchor {
	return Anchor{Kind: AnchorToolbarItem, Item: identifier}
}

// AnchorAtPoint anchors at a window-space point.
func AnchorAtPoint(p Point) Anchor {
	return Anchor{Kind: AnchorPoint, At: p}
}

// AlertConfig describes a modal alert sheet.
type AlertConfig struct {
	Title   string
	Message string
	Buttons []string
}

// ----------------------------------------------------------------------------
// Installed state
// ----------------------------------------------------------------------------

// toolbarState holds the native resources of one installed toolbar.
type toolbarState struct {
	config  ToolbarConfig
	handles []*NativeControlHandle
}

// popoverState holds the native resources of one presented popover or
// panel (the two share creation and teardown).
type popoverState struct {
	handles []*NativeControlHandle
	isPanel bool
}

// installToolbar creates every item's native control and attaches the
// toolbar chrome. Items whose native class fails to allocate are skipped;
// the toolbar installs with the rest.
func installToolbar(b *ControlBridge, loader *IconLoader, cfg ToolbarConfig) (*toolbarState, error) {
	if b.host == nil {
		return nil, ErrNoControlHost
	}

	state := &toolbarState{config: cfg}
	var refs []platform.ControlRef

	for _, item := range cfg.Items {
		spec := toolbarItemSpec(item)
		h, err := b.CreateControl(spec, item.OnAction)
		if err != nil {
			continue
		}
		state.handles = append(state.handles, h)
		if ref, ok := h.controlRef(); ok {
			refs = append(refs, ref)
		}
		if item.IconURL != "" && loader != nil {
			loader.Load(item.IconURL, h)
		}
	}

	chrome := platform.ToolbarChromeSpec{
		Identifier:        cfg.Identifier,
		Title:             cfg.Title,
		DisplayMode:       cfg.DisplayMode,
		SizeMode:          cfg.SizeMode,
		ShowsBaselineRule: cfg.ShowsBaselineSeparator,
	}
	if err := b.host.InstallToolbar(b.window, chrome, refs); err != nil {
		// The chrome failed wholesale; nothing may leak.
		releaseAll(state.handles)
		return nil, err
	}
	return state, nil
}

// release tears down the whole toolbar atomically. Unconditional: every
// handle is released even if some are already dead.
func (t *toolbarState) release(b *ControlBridge) {
	releaseAll(t.handles)
	t.handles = nil
	if b.host != nil {
		b.host.RemoveToolbar(b.window)
	}
}

// presentPopover creates the content controls and presents them anchored.
// A nonexistent anchor identifier is a configuration error: the popover
// simply does not show.
func presentPopover(b *ControlBridge, cfg PopoverConfig, anchor Anchor, asPanel bool) (*popoverState, error) {
	if b.host == nil {
		return nil, ErrNoControlHost
	}

	spec, ok := resolveAnchor(b, anchor)
	if !ok {
		log.Printf("bridge: popover anchor %q not found; not showing", anchor.Item)
		return nil, ErrUnknownAnchor
	}

	state := &popoverState{isPanel: asPanel}
	var refs []platform.ControlRef
	for _, item := range cfg.Items {
		h, err := b.CreateControl(popoverItemSpec(item), popoverItemAction(item))
		if err != nil {
			continue
		}
		state.handles = append(state.handles, h)
		if ref, ok := h.controlRef(); ok {
			refs = append(refs, ref)
		}
	}

	var err error
	if asPanel {
		err = b.host.PresentPanel(b.window, spec, refs)
	} else {
		err = b.host.PresentPopover(b.window, spec, refs)
	}
	if err != nil {
		releaseAll(state.handles)
		return nil, err
	}
	return state, nil
}

// release dismisses and tears down the popover or panel atomically.
func (p *popoverState) release(b *ControlBridge) {
	releaseAll(p.handles)
	p.handles = nil
	if b.host == nil {
		return
	}
	if p.isPanel {
		b.host.DismissPanel(b.window)
	} else {
		b.host.DismissPopover(b.window)
	}
}

func resolveAnchor(b *ControlBridge, anchor Anchor) (platform.AnchorSpec, bool) {
	switch anchor.Kind {
	case AnchorToolbarItem:
		if b.host.ToolbarItemContainer(b.window, anchor.Item) == 0 {
			return platform.AnchorSpec{}, false
		}
		return platform.AnchorSpec{Kind: platform.AnchorToolbarItem, Item: anchor.Item}, true
	case AnchorPoint:
		return platform.AnchorSpec{Kind: platform.AnchorPoint, X: anchor.At.X, Y: anchor.At.Y}, true
	default:
		return platform.AnchorSpec{Kind: platform.AnchorCentered}, true
	}
}

func toolbarItemSpec(item ToolbarItem) platform.ControlSpec {
	spec := platform.ControlSpec{
		Identifier: item.Identifier,
		Title:      item.Title,
		Tooltip:    item.Tooltip,
		Items:      item.Entries,
		Width:      item.Width,
		Enabled:    true,
	}
	switch item.Kind {
	case ToolbarButton:
		spec.Kind = platform.ControlButton
	case ToolbarSearchField:
		spec.Kind = platform.ControlSearchField
	case ToolbarSegmented:
		spec.Kind = platform.ControlSegmented
	case ToolbarPopUpButton:
		spec.Kind = platform.ControlPopUpButton
	case ToolbarComboBox:
		spec.Kind = platform.ControlComboBox
	case ToolbarMenuButton:
		spec.Kind = platform.ControlMenuButton
	case ToolbarLabel:
		spec.Kind = platform.ControlLabel
	case ToolbarFixedSpace:
		spec.Kind = platform.ControlFixedSpace
	case ToolbarFlexibleSpace:
		spec.Kind = platform.ControlFlexibleSpace
	case ToolbarSidebarToggle:
		spec.Kind = platform.ControlSidebarToggle
	case ToolbarSidebarSeparator:
		spec.Kind = platform.ControlSidebarSeparator
	}
	return spec
}

func popoverItemSpec(item PopoverItem) platform.ControlSpec {
	spec := platform.ControlSpec{
		Identifier: item.Identifier,
		Title:      item.Title,
		Checked:    item.Checked,
		Progress:   item.Progress,
		Color:      item.Color,
		Enabled:    true,
	}
	switch item.Kind {
	case PopoverLabel:
		spec.Kind = platform.ControlLabel
	case PopoverSmallLabel:
		spec.Kind = platform.ControlSmallLabel
	case PopoverIconLabel:
		spec.Kind = platform.ControlIconLabel
	case PopoverButton:
		spec.Kind = platform.ControlButton
	case PopoverToggle:
		spec.Kind = platform.ControlToggle
	case PopoverCheckbox:
		spec.Kind = platform.ControlCheckbox
	case PopoverProgressBar:
		spec.Kind = platform.ControlProgressBar
	case PopoverColorSwatch:
		spec.Kind = platform.ControlColorSwatch
	case PopoverClickableRow:
		spec.Kind = platform.ControlClickableRow
	case PopoverSeparator:
		spec.Kind = platform.ControlSeparator
	}
	return spec
}

func popoverItemAction(item PopoverItem) func(ControlAction) {
	onClick, onToggle := item.OnClick, item.OnToggle
	if onClick == nil && onToggle == nil {
		return nil
	}
	return func(a ControlAction) {
		if onToggle != nil {
			onToggle(a.Checked)
		}
		if onClick != nil {
			onClick()
		}
	}
}
