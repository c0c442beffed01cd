package pointcloud

import "math"

// BoundingBox accumulates the minimal axis-aligned box around parsed
// points. Bounds start at (+Inf, -Inf) so the first point always updates
// both sides; Width, Height and Depth are therefore ≥ 0 once at least one
// point was added. A box with zero points is invalid rather than
// zero-sized.
type BoundingBox struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64

	points int
}

// NewBoundingBox returns an empty, invalid bounding box
func NewBoundingBox() *BoundingBox {
	return &BoundingBox{
		MinX: math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
		MinZ: math.Inf(1), MaxZ: math.Inf(-1),
	}
}

// Add grows the box to contain the point. Non-finite coordinates are
// ignored so a single corrupt record cannot blow up the bounds.
func (b *BoundingBox) Add(x, y, z float64) {
	if !finite(x) || !finite(y) || !finite(z) {
		return
	}
	b.MinX = math.Min(b.MinX, x)
	b.MaxX = math.Max(b.MaxX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxY = math.Max(b.MaxY, y)
	b.MinZ = math.Min(b.MinZ, z)
	b.MaxZ = math.Max(b.MaxZ, z)
	b.points++
}

// Points returns how many points were added
func (b *BoundingBox) Points() int {
	return b.points
}

// Valid reports whether at least one point was added
func (b *BoundingBox) Valid() bool {
	return b.points > 0
}

// Width is the x extent, 0 for an invalid box
func (b *BoundingBox) Width() float64 {
	if !b.Valid() {
		return 0
	}
	return b.MaxX - b.MinX
}

// Height is the y extent, 0 for an invalid box
func (b *BoundingBox) Height() float64 {
	if !b.Valid() {
		return 0
	}
	return b.MaxY - b.MinY
}

// Depth is the z extent, 0 for an invalid box
func (b *BoundingBox) Depth() float64 {
	if !b.Valid() {
		return 0
	}
	return b.MaxZ - b.MinZ
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
