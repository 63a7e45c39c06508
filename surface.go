package windowkit

import "github.com/Obsydian-HQ/windowkit/internal/platform"

// ============================================================================
// Render Surfaces
// ============================================================================
//
// A window owns one primary surface and optionally secondary surfaces (a
// sidebar's own content pane). Each surface is drawn independently with its
// own dirty tracking, but all share the window's frame tick. Compositing is
// the platform view hierarchy's job, not ours.

// Scene is the draw payload produced by the external element/layout
// collaborator. This core never inspects it.
type Scene any

// SceneProducer builds a scene from current state. Pure function of state,
// called once per tick while the surface is dirty. The arena is the frame's
// allocation context and is cleared in bulk after the frame is consumed.
type SceneProducer func(arena *FrameArena) Scene

// Renderer is the external GPU renderer collaborator.
type Renderer interface {
	Draw(scene Scene)
	UpdateDrawableSize(size Size)
	SpriteAtlas() any
}

// HitTester resolves a window point to a focus identity for a surface.
type HitTester func(p Point) (FocusID, bool)

// SurfaceID identifies a render surface within its window. The identifier
// is stable for the surface's whole life; reparenting never changes it.
type SurfaceID uint32

// RenderSurface is one GPU-rendered scene inside a window.
type RenderSurface struct {
	id   SurfaceID
	view platform.ViewRef

	producer SceneProducer
	renderer Renderer

	dirty    bool
	mousePos Point

	hitTester HitTester
	hitCache  hitCacheEntry

	// Logical size and the scale used to derive the drawable size.
	size  Size
	scale float64
}

type hitCacheEntry struct {
	valid  bool
	pos    Point
	target FocusID
	hit    bool
}

// ID returns the surface's stable identifier.
func (s *RenderSurface) ID() SurfaceID { return s.id }

// View returns the platform view backing this surface's drawable.
func (s *RenderSurface) View() platform.ViewRef { return s.view }

// SetSceneProducer registers the scene builder for this surface.
func (s *RenderSurface) SetSceneProducer(p SceneProducer) {
	s.producer = p
	s.dirty = true
}

// SetRenderer registers the renderer collaborator for this surface.
func (s *RenderSurface) SetRenderer(r Renderer) {
	s.renderer = r
}

// SetHitTester registers the hit-test resolver for this surface.
func (s *RenderSurface) SetHitTester(h HitTester) {
	s.hitTester = h
	s.hitCache.valid = false
}

// MarkDirty requests a redraw on the next shared frame tick.
func (s *RenderSurface) MarkDirty() {
	s.dirty = true
	s.hitCache.valid = false
}

// Dirty reports whether the surface needs drawing.
func (s *RenderSurface) Dirty() bool { return s.dirty }

// MousePosition returns the last pointer position seen over this surface.
func (s *RenderSurface) MousePosition() Point { return s.mousePos }

// Size returns the surface's logical size.
func (s *RenderSurface) Size() Size { return s.size }

// HitTest resolves a point through the surface's hit tester, caching the
// last result: pointer-move storms frequently re-query the same position
// between frames.
func (s *RenderSurface) HitTest(p Point) (FocusID, bool) {
	s.mousePos = p
	if s.hitTester == nil {
		return FocusID{}, false
	}
	if s.hitCache.valid && s.hitCache.pos == p {
		return s.hitCache.target, s.hitCache.hit
	}
	target, hit := s.hitTester(p)
	s.hitCache = hitCacheEntry{valid: true, pos: p, target: target, hit: hit}
	return target, hit
}

// resize updates logical size and scale, forwarding the derived drawable
// size to the renderer.
func (s *RenderSurface) resize(size Size, scale float64) {
	s.size = size
	s.scale = scale
	s.hitCache.valid = false
	if s.renderer != nil {
		s.renderer.UpdateDrawableSize(size.Scale(scale))
	}
	s.dirty = true
}

// draw produces and draws the scene if dirty. Returns whether it drew.
func (s *RenderSurface) draw(arena *FrameArena) bool {
	if !s.dirty || s.producer == nil || s.renderer == nil {
		return false
	}
	scene := s.producer(arena)
	s.renderer.Draw(scene)
	s.dirty = false
	return true
}

// ============================================================================
// Surface Registry
// ============================================================================

// SurfaceRegistry tracks a window's primary and secondary surfaces.
type SurfaceRegistry struct {
	primary   *RenderSurface
	secondary map[SurfaceID]*RenderSurface
	nextID    SurfaceID
}

// NewSurfaceRegistry creates a registry with a primary surface backed by
// the given view.
func NewSurfaceRegistry(primaryView platform.ViewRef) *SurfaceRegistry {
	r := &SurfaceRegistry{
		secondary: make(map[SurfaceID]*RenderSurface),
		nextID:    1,
	}
	r.primary = &RenderSurface{id: r.nextID, view: primaryView, dirty: true}
	r.nextID++
	return r
}

// Primary returns the window's primary surface.
func (r *SurfaceRegistry) Primary() *RenderSurface { return r.primary }

// AddSecondary creates a secondary surface backed by view.
func (r *SurfaceRegistry) AddSecondary(view platform.ViewRef) *RenderSurface {
	s := &RenderSurface{id: r.nextID, view: view, dirty: true}
	r.nextID++
	r.secondary[s.id] = s
	return s
}

// RemoveSecondary drops a secondary surface from the registry. The primary
// cannot be removed.
func (r *SurfaceRegistry) RemoveSecondary(id SurfaceID) {
	delete(r.secondary, id)
}

// Get returns a surface by identifier.
func (r *SurfaceRegistry) Get(id SurfaceID) (*RenderSurface, bool) {
	if r.primary.id == id {
		return r.primary, true
	}
	s, ok := r.secondary[id]
	return s, ok
}

// All returns every surface, primary first.
func (r *SurfaceRegistry) All() []*RenderSurface {
	out := make([]*RenderSurface, 0, 1+len(r.secondary))
	out = append(out, r.primary)
	for _, s := range r.secondary {
		out = append(out, s)
	}
	return out
}

// AnyDirty reports whether any surface needs drawing.
func (r *SurfaceRegistry) AnyDirty() bool {
	for _, s := range r.All() {
		if s.dirty {
			return true
		}
	}
	return false
}

// drawAll draws every dirty surface against the shared frame arena.
func (r *SurfaceRegistry) drawAll(arena *FrameArena) int {
	drawn := 0
	for _, s := range r.All() {
		if s.draw(arena) {
			drawn++
		}
	}
	return drawn
}

// resizeAll propagates a window geometry change to every surface.
func (r *SurfaceRegistry) resizeAll(size Size, scale float64) {
	for _, s := range r.All() {
		s.resize(size, scale)
	}
}

// ============================================================================
// Frame Arena
// ============================================================================
//
// Per-frame allocation uses a growable arena cleared in bulk after the frame
// is fully consumed, never freed incrementally. The arena is passed
// explicitly into the draw path; a process-wide fallback serves callers with
// no explicit arena.

const arenaChunkSize = 64 * 1024

// FrameArena is a bump allocator for one frame's transient data.
type FrameArena struct {
	chunks [][]byte
	cur    []byte
	off    int

	// high-water mark across resets, drives chunk retention
	peak int
	used int
}

// NewFrameArena returns an empty arena.
func NewFrameArena() *FrameArena {
	return &FrameArena{}
}

// AllocBytes returns an n-byte slice valid until the next Reset.
func (a *FrameArena) AllocBytes(n int) []byte {
	if n > arenaChunkSize {
		// Oversized allocations get their own chunk.
		chunk := make([]byte, n)
		a.chunks = append(a.chunks, chunk)
		a.used += n
		return chunk
	}
	if a.cur == nil || a.off+n > len(a.cur) {
		a.cur = make([]byte, arenaChunkSize)
		a.chunks = append(a.chunks, a.cur)
		a.off = 0
	}
	out := a.cur[a.off : a.off+n : a.off+n]
	a.off += n
	a.used += n
	return out
}

// Used returns the bytes allocated since the last Reset.
func (a *FrameArena) Used() int { return a.used }

// Reset clears the arena in bulk, retaining one chunk for reuse.
func (a *FrameArena) Reset() {
	if a.used > a.peak {
		a.peak = a.used
	}
	if len(a.chunks) > 0 {
		a.cur = a.chunks[0]
		a.chunks = a.chunks[:1]
	} else {
		a.cur = nil
	}
	a.off = 0
	a.used = 0
}

// processArena is the fallback allocation context for callers that do not
// pass one explicitly.
var processArena = NewFrameArena()

// ProcessArena returns the process-wide fallback arena.
func ProcessArena() *FrameArena { return processArena }
