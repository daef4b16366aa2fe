package slide

import "math"

// MinExtent is the smallest width or height a Box may have, in percent.
const MinExtent = 0.01

// Box is an axis-aligned rectangle in percentages of the page width (X, Width)
// and page height (Y, Height), with the origin at the top-left corner.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewBox builds a Box from untrusted values. Every field is clamped into
// [0,100], the box is kept inside the page, and width and height never drop
// below MinExtent. NaN is treated as 0.
func NewBox(x, y, width, height float64) Box {
	x = clampPercent(x)
	y = clampPercent(y)
	width = clampPercent(width)
	height = clampPercent(height)

	if x > 100-MinExtent {
		x = 100 - MinExtent
	}
	if y > 100-MinExtent {
		y = 100 - MinExtent
	}
	if x+width > 100 {
		width = 100 - x
	}
	if y+height > 100 {
		height = 100 - y
	}

	return Box{
		X:      x,
		Y:      y,
		Width:  math.Max(width, MinExtent),
		Height: math.Max(height, MinExtent),
	}
}

// Right returns X + Width
func (b Box) Right() float64 { return b.X + b.Width }

// Bottom returns Y + Height
func (b Box) Bottom() float64 { return b.Y + b.Height }

// Area returns Width * Height
func (b Box) Area() float64 { return b.Width * b.Height }

// Intersect returns the overlapping area of b and o, 0 when they are disjoint
func (b Box) Intersect(o Box) float64 {
	w := math.Min(b.Right(), o.Right()) - math.Max(b.X, o.X)
	h := math.Min(b.Bottom(), o.Bottom()) - math.Max(b.Y, o.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Union returns the smallest box covering b and o
func (b Box) Union(o Box) Box {
	x := math.Min(b.X, o.X)
	y := math.Min(b.Y, o.Y)
	return Box{
		X:      x,
		Y:      y,
		Width:  math.Max(b.Right(), o.Right()) - x,
		Height: math.Max(b.Bottom(), o.Bottom()) - y,
	}
}

func clampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
