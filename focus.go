package windowkit

import "sort"

// ============================================================================
// Focus Registry
// ============================================================================
//
// Focus identity is a generation-indexed slot, not a pointer: a released slot
// is recycled with a bumped generation, so stale identifiers can never
// resurrect a dead focus target. Reference counting is plain integers: all
// access happens on the UI goroutine, concurrency here is in-time (many
// holders), not in-thread.

// FocusID identifies a focusable target. The zero value is never valid.
type FocusID struct {
	index      uint32
	generation uint32
}

// IsZero reports whether the identifier is the invalid zero value.
func (id FocusID) IsZero() bool { return id.generation == 0 }

type focusSlot struct {
	generation uint32
	refCount   int
	tabIndex   int
	tabStop    bool
	parent     FocusID
	order      uint64 // creation order, tiebreak within equal tab indices
}

// FocusRegistry is the table of live focus slots for one window.
type FocusRegistry struct {
	slots   []focusSlot
	free    []uint32
	created uint64
}

// NewFocusRegistry returns an empty registry.
func NewFocusRegistry() *FocusRegistry {
	return &FocusRegistry{}
}

// NewHandle allocates a focus slot and returns the first strong handle.
func (r *FocusRegistry) NewHandle(tabIndex int, tabStop bool) *FocusHandle {
	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, focusSlot{})
		idx = uint32(len(r.slots) - 1)
	}

	slot := &r.slots[idx]
	slot.generation++
	slot.refCount = 1
	slot.tabIndex = tabIndex
	slot.tabStop = tabStop
	slot.parent = FocusID{}
	r.created++
	slot.order = r.created

	return &FocusHandle{
		reg: r,
		id:  FocusID{index: idx, generation: slot.generation},
	}
}

// IsLive reports whether the identifier still names a slot with at least one
// outstanding strong reference.
func (r *FocusRegistry) IsLive(id FocusID) bool {
	if id.IsZero() || int(id.index) >= len(r.slots) {
		return false
	}
	slot := &r.slots[id.index]
	return slot.generation == id.generation && slot.refCount > 0
}

// SetParent records id's position in the focus path. A zero parent makes id
// a root.
func (r *FocusRegistry) SetParent(id, parent FocusID) {
	if !r.IsLive(id) {
		return
	}
	r.slots[id.index].parent = parent
}

// PathTo returns the chain of live identifiers from the root down to id,
// id included. Dead ancestors truncate the path at the break.
func (r *FocusRegistry) PathTo(id FocusID) []FocusID {
	var reversed []FocusID
	for cur := id; r.IsLive(cur); cur = r.slots[cur.index].parent {
		reversed = append(reversed, cur)
		if len(reversed) > len(r.slots) {
			break // cycle guard
		}
	}

	path := make([]FocusID, len(reversed))
	for i, v := range reversed {
		path[len(reversed)-1-i] = v
	}
	return path
}

// NextTabStop returns the tab stop following after in (tabIndex, creation)
// order, wrapping to the first. A zero after starts from the beginning.
func (r *FocusRegistry) NextTabStop(after FocusID) (FocusID, bool) {
	stops := r.orderedTabStops()
	if len(stops) == 0 {
		return FocusID{}, false
	}
	if after.IsZero() {
		return stops[0], true
	}
	for i, id := range stops {
		if id == after {
			return stops[(i+1)%len(stops)], true
		}
	}
	return stops[0], true
}

// PrevTabStop returns the tab stop preceding before, wrapping to the last.
func (r *FocusRegistry) PrevTabStop(before FocusID) (FocusID, bool) {
	stops := r.orderedTabStops()
	if len(stops) == 0 {
		return FocusID{}, false
	}
	if before.IsZero() {
		return stops[len(stops)-1], true
	}
	for i, id := range stops {
		if id == before {
			return stops[(i-1+len(stops))%len(stops)], true
		}
	}
	return stops[len(stops)-1], true
}

func (r *FocusRegistry) orderedTabStops() []FocusID {
	var stops []FocusID
	for i := range r.slots {
		slot := &r.slots[i]
		if slot.refCount > 0 && slot.tabStop {
			stops = append(stops, FocusID{index: uint32(i), generation: slot.generation})
		}
	}
	sort.Slice(stops, func(a, b int) bool {
		sa, sb := &r.slots[stops[a].index], &r.slots[stops[b].index]
		if sa.tabIndex != sb.tabIndex {
			return sa.tabIndex < sb.tabIndex
		}
		return sa.order < sb.order
	})
	return stops
}

// retain bumps the strong count. Returns false if the slot is dead.
func (r *FocusRegistry) retain(id FocusID) bool {
	if !r.IsLive(id) {
		return false
	}
	r.slots[id.index].refCount++
	return true
}

// release drops one strong count and recycles the slot at zero.
func (r *FocusRegistry) release(id FocusID) {
	if !r.IsLive(id) {
		return
	}
	slot := &r.slots[id.index]
	slot.refCount--
	if slot.refCount == 0 {
		r.free = append(r.free, id.index)
	}
}

// ============================================================================
// Handles
// ============================================================================

// FocusHandle is a strong reference: while any strong handle is outstanding
// the identifier is never reused.
type FocusHandle struct {
	reg      *FocusRegistry
	id       FocusID
	released bool
}

// ID returns the underlying identifier.
func (h *FocusHandle) ID() FocusID { return h.id }

// TabIndex returns the slot's tab order index.
func (h *FocusHandle) TabIndex() int {
	if !h.reg.IsLive(h.id) {
		return 0
	}
	return h.reg.slots[h.id.index].tabIndex
}

// Clone returns an additional strong handle to the same slot.
func (h *FocusHandle) Clone() *FocusHandle {
	if h.released || !h.reg.retain(h.id) {
		return nil
	}
	return &FocusHandle{reg: h.reg, id: h.id}
}

// Release drops this strong reference. Idempotent; the last release frees
// the slot and invalidates all weak handles.
func (h *FocusHandle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.reg.release(h.id)
}

// Downgrade returns a weak handle that observes the slot without keeping it
// alive.
func (h *FocusHandle) Downgrade() *WeakFocusHandle {
	return &WeakFocusHandle{reg: h.reg, id: h.id}
}

// WeakFocusHandle observes a focus slot without owning it.
type WeakFocusHandle struct {
	reg *FocusRegistry
	id  FocusID
}

// ID returns the observed identifier, live or not.
func (w *WeakFocusHandle) ID() FocusID { return w.id }

// IsLive reports whether the slot still has strong references.
func (w *WeakFocusHandle) IsLive() bool { return w.reg.IsLive(w.id) }

// Upgrade returns a strong handle if the slot is still alive.
func (w *WeakFocusHandle) Upgrade() (*FocusHandle, bool) {
	if !w.reg.retain(w.id) {
		return nil, false
	}
	return &FocusHandle{reg: w.reg, id: w.id}, true
}
