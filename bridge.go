package windowkit

import (
	"log"

	"github.com/Obsydian-HQ/windowkit/internal/platform"
)

// ============================================================================
// Native Control Bridge
// ============================================================================
//
// Keeps a GPU-rendered surface and a tree of native platform controls
// coherent inside one window. Every native resource is an owned handle in a
// generation-checked arena, so a double release is a checked no-op instead
// of undefined behavior. Toolbars, popovers, and panels own lists of these
// handles and release them wholesale.

// NativeControlHandle pairs a native control with its callback-dispatch
// target. Released exactly once: by the owning configuration being replaced
// or by the window closing, never both.
type NativeControlHandle struct {
	bridge     *ControlBridge
	slot       uint32
	generation uint32
}

type controlSlot struct {
	generation uint32
	live       bool
	control    platform.ControlRef
	target     platform.TargetRef
	identifier string
}

// ControlBridge manages the native-control handle arena and surface
// embedding for one window.
type ControlBridge struct {
	adapter platform.Adapter
	window  platform.WindowHandle

	// host is nil on platforms that cannot host native controls; every
	// control operation then degrades to a logged no-op.
	host platform.ControlHost

	slots []controlSlot
	free  []uint32

	// Embedding state per surface.
	embeds map[SurfaceID]embedState

	// keyboardView is the surface view that currently holds first
	// responder, restored after reparenting.
	keyboardView platform.ViewRef
}

type embedState struct {
	parent platform.ContainerRef
	insets EdgeInsets
}

// NewControlBridge returns a bridge for the window. The adapter's control
// hosting is optional; without it the bridge is inert but safe.
func NewControlBridge(adapter platform.Adapter, window platform.WindowHandle) *ControlBridge {
	host, _ := adapter.(platform.ControlHost)
	if host == nil {
		log.Printf("bridge: platform has no native control host; native affordances disabled")
	}
	return &ControlBridge{
		adapter: adapter,
		window:  window,
		host:    host,
		embeds:  make(map[SurfaceID]embedState),
	}
}

// Supported reports whether native controls are available on this backend.
func (b *ControlBridge) Supported() bool { return b.host != nil }

// ----------------------------------------------------------------------------
// Handle arena
// ----------------------------------------------------------------------------

// CreateControl builds a native control and returns its owned handle.
// onAction, if non-nil, is invoked on the UI thread when the control fires.
func (b *ControlBridge) CreateControl(spec platform.ControlSpec, onAction func(platform.ActionPayload)) (*NativeControlHandle, error) {
	if b.host == nil {
		return nil, ErrNoControlHost
	}

	control, target, err := b.host.CreateControl(b.window, spec, onAction)
	if err != nil {
		// Resource-acquisition failure disables this affordance only.
		log.Printf("bridge: create %q failed: %v", spec.Identifier, err)
		return nil, err
	}

	var idx uint32
	if n := len(b.free); n > 0 {
		idx = b.free[n-1]
		b.free = b.free[:n-1]
	} else {
		b.slots = append(b.slots, controlSlot{})
		idx = uint32(len(b.slots) - 1)
	}

	slot := &b.slots[idx]
	slot.generation++
	slot.live = true
	slot.control = control
	slot.target = target
	slot.identifier = spec.Identifier

	return &NativeControlHandle{bridge: b, slot: idx, generation: slot.generation}, nil
}

// Update mutates the live control in place, preserving its identity.
func (h *NativeControlHandle) Update(spec platform.ControlSpec) error {
	slot, ok := h.live()
	if !ok {
		return ErrHandleReleased
	}
	return h.bridge.host.UpdateControl(slot.control, spec)
}

// Identifier returns the identifier the control was created with, or empty
// after release.
func (h *NativeControlHandle) Identifier() string {
	slot, ok := h.live()
	if !ok {
		return ""
	}
	return slot.identifier
}

// Release severs the control → target link and frees both. Idempotent: a
// second release is a no-op.
func (h *NativeControlHandle) Release() {
	if h == nil || h.bridge == nil {
		return
	}
	slot, ok := h.live()
	if !ok {
		return
	}
	slot.live = false
	h.bridge.free = append(h.bridge.free, h.slot)

	if h.bridge.host != nil && slot.control != 0 {
		h.bridge.host.ReleaseControl(slot.control, slot.target)
	}
	slot.control = 0
	slot.target = 0
	slot.identifier = ""
}

// SetImage installs decoded RGBA pixels as the control's icon. Must be
// called on the UI goroutine. A released handle is a checked no-op.
func (h *NativeControlHandle) SetImage(rgba []byte, width, height int) error {
	slot, ok := h.live()
	if !ok {
		return ErrHandleReleased
	}
	return h.bridge.host.SetControlImage(slot.control, rgba, width, height)
}

// IsLive reports whether the handle still owns its control.
func (h *NativeControlHandle) IsLive() bool {
	_, ok := h.live()
	return ok
}

func (h *NativeControlHandle) live() (*controlSlot, bool) {
	if h == nil || h.bridge == nil || int(h.slot) >= len(h.bridge.slots) {
		return nil, false
	}
	slot := &h.bridge.slots[h.slot]
	if !slot.live || slot.generation != h.generation {
		return nil, false
	}
	return slot, true
}

// controlRef returns the raw control reference of a live handle.
func (h *NativeControlHandle) controlRef() (platform.ControlRef, bool) {
	slot, ok := h.live()
	if !ok {
		return 0, false
	}
	return slot.control, ok
}

// releaseAll releases a whole handle list. Cleanup is unconditional: a
// handle that is already dead is skipped, the rest are still released.
func releaseAll(handles []*NativeControlHandle) {
	for _, h := range handles {
		h.Release()
	}
}

// Outstanding returns the number of live handles, used to verify that a
// configuration round-trip leaks nothing.
func (b *ControlBridge) Outstanding() int {
	n := 0
	for i := range b.slots {
		if b.slots[i].live {
			n++
		}
	}
	return n
}

// ----------------------------------------------------------------------------
// Surface embedding
// ----------------------------------------------------------------------------

// EmbedRegime distinguishes the two supported container modes.
type EmbedRegime uint8

const (
	// RegimeNativeContent: the container shows native controls; the
	// rendered surface is not involved.
	RegimeNativeContent EmbedRegime = iota

	// RegimeEmbeddedSurface: the rendered surface supplies all content;
	// the native container supplies only chrome and safe-area insets.
	RegimeEmbeddedSurface
)

// NoteFirstResponder records which surface view holds keyboard focus so it
// can be restored after a reparent.
func (b *ControlBridge) NoteFirstResponder(view platform.ViewRef) {
	b.keyboardView = view
}

// EmbedSurface moves a surface's view under a native container, pinned to
// the container's content edges and inset by the safe area. The surface
// itself is never destroyed; only its parent link changes. First-responder
// status is restored so keyboard input keeps flowing after the move.
func (b *ControlBridge) EmbedSurface(s *RenderSurface, parent platform.ContainerRef, insets EdgeInsets) error {
	if b.host == nil {
		log.Printf("bridge: embed surface %d ignored: no control host", s.ID())
		return ErrNoControlHost
	}
	if parent == 0 {
		log.Printf("bridge: embed surface %d ignored: no valid native parent", s.ID())
		return ErrUnknownAnchor
	}

	if err := b.host.ReparentSurfaceView(b.window, s.View(), parent, rawInsets(insets)); err != nil {
		return err
	}
	b.embeds[s.ID()] = embedState{parent: parent, insets: insets}
	b.restoreFirstResponder(s)
	s.MarkDirty()
	return nil
}

// RestoreSurface moves a surface's view back to the window content view.
func (b *ControlBridge) RestoreSurface(s *RenderSurface) error {
	if b.host == nil {
		return ErrNoControlHost
	}
	if err := b.host.ReparentSurfaceView(b.window, s.View(), 0, platform.SafeAreaInsets{}); err != nil {
		return err
	}
	delete(b.embeds, s.ID())
	b.restoreFirstResponder(s)
	s.MarkDirty()
	return nil
}

// Embedded reports the surface's current regime.
func (b *ControlBridge) Embedded(id SurfaceID) EmbedRegime {
	if _, ok := b.embeds[id]; ok {
		return RegimeEmbeddedSurface
	}
	return RegimeNativeContent
}

func (b *ControlBridge) restoreFirstResponder(s *RenderSurface) {
	if b.keyboardView != 0 && b.keyboardView == s.View() {
		if !b.host.MakeFirstResponder(b.window, s.View()) {
			log.Printf("bridge: first responder restore declined for surface %d", s.ID())
		}
	}
}

// close drops everything the bridge owns. Called once during window
// teardown, after the per-configuration owners have released their lists;
// any stragglers are swept here.
func (b *ControlBridge) close() {
	for i := range b.slots {
		slot := &b.slots[i]
		if !slot.live {
			continue
		}
		slot.live = false
		if b.host != nil && slot.control != 0 {
			b.host.ReleaseControl(slot.control, slot.target)
		}
		slot.control = 0
		slot.target = 0
	}
	b.embeds = make(map[SurfaceID]embedState)
	b.keyboardView = 0
}
