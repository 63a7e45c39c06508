package windowkit

import (
	"errors"
	"testing"

	"github.com/Obsydian-HQ/windowkit/internal/platform"
)

func TestHandleReleaseExactlyOnce(t *testing.T) {
	a := newFakeAdapter()
	b := NewControlBridge(a, 1)

	h, err := b.CreateControl(platform.ControlSpec{Kind: platform.ControlButton, Identifier: "save"}, nil)
	if err != nil {
		t.Fatalf("CreateControl: %v", err)
	}
	if !h.IsLive() || h.Identifier() != "save" {
		t.Fatalf("fresh handle not live")
	}

	h.Release()
	h.Release() // checked no-op
	if len(a.released) != 1 {
		t.Fatalf("native release ran %d times, want 1", len(a.released))
	}
	if h.IsLive() {
		t.Fatalf("handle live after release")
	}
	if err := h.Update(platform.ControlSpec{}); !errors.Is(err, ErrHandleReleased) {
		t.Fatalf("Update after release = %v, want ErrHandleReleased", err)
	}
}

func TestRecycledControlSlotRejectsStaleHandle(t *testing.T) {
	a := newFakeAdapter()
	b := NewControlBridge(a, 1)

	first, _ := b.CreateControl(platform.ControlSpec{Identifier: "a"}, nil)
	first.Release()

	second, _ := b.CreateControl(platform.ControlSpec{Identifier: "b"}, nil)
	if first.IsLive() {
		t.Fatalf("stale handle resurrected by slot reuse")
	}
	if !second.IsLive() || second.Identifier() != "b" {
		t.Fatalf("recycled slot broken for the new handle")
	}

	// Releasing the stale handle again must not kill the new occupant.
	first.Release()
	if !second.IsLive() {
		t.Fatalf("stale release killed the recycled slot")
	}
}

func TestToolbarRoundTripLeaksNothing(t *testing.T) {
	a := newFakeAdapter()
	b := NewControlBridge(a, 1)

	cfg := ToolbarConfig{
		Identifier: "main",
		Items: []ToolbarItem{
			{Kind: ToolbarButton, Identifier: "one"},
			{Kind: ToolbarSegmented, Identifier: "two", Entries: []string{"x", "y"}},
			{Kind: ToolbarFlexibleSpace},
		},
	}

	state, err := installToolbar(b, nil, cfg)
	if err != nil {
		t.Fatalf("installToolbar: %v", err)
	}
	if !a.toolbarInstalled {
		t.Fatalf("chrome not installed")
	}
	if b.Outstanding() != 3 {
		t.Fatalf("outstanding = %d, want 3", b.Outstanding())
	}

	state.release(b)
	if b.Outstanding() != 0 {
		t.Fatalf("outstanding after release = %d, want 0", b.Outstanding())
	}
	if len(a.liveControls) != 0 {
		t.Fatalf("%d native controls leaked", len(a.liveControls))
	}
	if a.toolbarRemoved != 1 {
		t.Fatalf("toolbar chrome not removed")
	}
}

func TestToolbarSkipsFailedItems(t *testing.T) {
	a := newFakeAdapter()
	b := NewControlBridge(a, 1)

	a.failControls = true
	state, err := installToolbar(b, nil, ToolbarConfig{
		Identifier: "main",
		Items:      []ToolbarItem{{Kind: ToolbarButton, Identifier: "one"}},
	})
	if err != nil {
		t.Fatalf("a failed item must not fail the toolbar: %v", err)
	}
	if len(state.handles) != 0 {
		t.Fatalf("failed item produced a handle")
	}
	state.release(b)
}

func TestPopoverUnknownAnchorIsNoOp(t *testing.T) {
	a := newFakeAdapter()
	b := NewControlBridge(a, 1)

	_, err := presentPopover(b, PopoverConfig{
		Items: []PopoverItem{{Kind: PopoverLabel, Title: "x"}},
	}, AnchorAtItem("nonexistent"), false)
	if !errors.Is(err, ErrUnknownAnchor) {
		t.Fatalf("err = %v, want ErrUnknownAnchor", err)
	}
	if a.popoverShown {
		t.Fatalf("popover presented against an unknown anchor")
	}
	if b.Outstanding() != 0 {
		t.Fatalf("controls leaked on the unknown-anchor path")
	}
}

func TestPopoverActionsRouteToItems(t *testing.T) {
	a := newFakeAdapter()
	b := NewControlBridge(a, 1)

	toggled := false
	state, err := presentPopover(b, PopoverConfig{
		Items: []PopoverItem{
			{Kind: PopoverToggle, Identifier: "pub", Title: "Public",
				OnToggle: func(v bool) { toggled = v }},
		},
	}, Anchor{Kind: AnchorCentered}, false)
	if err != nil {
		t.Fatalf("presentPopover: %v", err)
	}

	// Fire the native action for the toggle's target.
	ref, _ := state.handles[0].controlRef()
	target := a.liveControls[ref]
	a.actions[target](platform.ActionPayload{Identifier: "pub", Checked: true})
	if !toggled {
		t.Fatalf("toggle action not delivered")
	}
	state.release(b)
}

func TestReparentPreservesIdentityAndFirstResponder(t *testing.T) {
	a := newFakeAdapter()
	b := NewControlBridge(a, 1)

	reg := NewSurfaceRegistry(77)
	s := reg.Primary()
	id := s.ID()
	b.NoteFirstResponder(s.View())

	if err := b.EmbedSurface(s, 900, EdgeInsets{Top: 38}); err != nil {
		t.Fatalf("EmbedSurface: %v", err)
	}
	if s.ID() != id {
		t.Fatalf("surface identity changed across reparent")
	}
	if b.Embedded(id) != RegimeEmbeddedSurface {
		t.Fatalf("regime = %v, want embedded", b.Embedded(id))
	}
	if a.responderCalls != 1 || a.firstResponder != s.View() {
		t.Fatalf("first responder not restored after reparent")
	}

	if err := b.RestoreSurface(s); err != nil {
		t.Fatalf("RestoreSurface: %v", err)
	}
	if b.Embedded(id) != RegimeNativeContent {
		t.Fatalf("regime not restored")
	}
	if len(a.reparents) != 2 || a.reparents[1].parent != 0 {
		t.Fatalf("restore did not reparent back to the window: %+v", a.reparents)
	}
	if a.responderCalls != 2 {
		t.Fatalf("first responder not restored on the way back")
	}
}

func TestEmbedWithoutValidParentIsNoOp(t *testing.T) {
	a := newFakeAdapter()
	b := NewControlBridge(a, 1)
	reg := NewSurfaceRegistry(77)

	err := b.EmbedSurface(reg.Primary(), 0, EdgeInsets{})
	if !errors.Is(err, ErrUnknownAnchor) {
		t.Fatalf("err = %v, want ErrUnknownAnchor", err)
	}
	if len(a.reparents) != 0 {
		t.Fatalf("reparent issued without a valid parent")
	}
}

func TestBridgeWithoutHostIsInert(t *testing.T) {
	j := justAdapter{fake: newFakeAdapter()}
	b := NewControlBridge(j, 1)

	if b.Supported() {
		t.Fatalf("bare adapter reported control support")
	}
	if _, err := b.CreateControl(platform.ControlSpec{}, nil); !errors.Is(err, ErrNoControlHost) {
		t.Fatalf("CreateControl = %v, want ErrNoControlHost", err)
	}
}
