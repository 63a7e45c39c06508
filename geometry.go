package windowkit

import "github.com/Obsydian-HQ/windowkit/internal/platform"

// Point is a position in logical pixels.
type Point struct {
	X, Y float64
}

// Size is an extent in logical pixels.
type Size struct {
	Width, Height float64
}

// Bounds is a rectangle in logical pixels, origin top-left.
type Bounds struct {
	Origin Point
	Size   Size
}

// Contains reports whether p lies inside b.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.Origin.X && p.X < b.Origin.X+b.Size.Width &&
		p.Y >= b.Origin.Y && p.Y < b.Origin.Y+b.Size.Height
}

// Local converts a window-space point to coordinates relative to b's origin.
func (b Bounds) Local(p Point) Point {
	return Point{X: p.X - b.Origin.X, Y: p.Y - b.Origin.Y}
}

// IsEmpty reports whether the rectangle has no area.
func (b Bounds) IsEmpty() bool {
	return b.Size.Width <= 0 || b.Size.Height <= 0
}

// Scale returns the size multiplied by a scale factor, rounded to whole
// device pixels. Used to derive drawable sizes from logical sizes.
func (s Size) Scale(factor float64) Size {
	return Size{
		Width:  float64(int(s.Width*factor + 0.5)),
		Height: float64(int(s.Height*factor + 0.5)),
	}
}

func boundsFromRaw(r platform.RawBounds) Bounds {
	return Bounds{
		Origin: Point{X: r.X, Y: r.Y},
		Size:   Size{Width: r.Width, Height: r.Height},
	}
}

func rawFromBounds(b Bounds) platform.RawBounds {
	return platform.RawBounds{
		X: b.Origin.X, Y: b.Origin.Y,
		Width: b.Size.Width, Height: b.Size.Height,
	}
}

// EdgeInsets are distances inset from each edge of a rectangle.
type EdgeInsets struct {
	Top, Left, Bottom, Right float64
}

func rawInsets(i EdgeInsets) platform.SafeAreaInsets {
	return platform.SafeAreaInsets{Top: i.Top, Left: i.Left, Bottom: i.Bottom, Right: i.Right}
}
