package nativepdf

import (
	"math"

	"github.com/Abraxas-365/pagelift/pkg/slide"
)

// matrix is a PDF transformation matrix [a b c d e f]
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// multiply returns m × n, the transform that applies m first and then n
func (m matrix) multiply(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// unitBounds returns the axis-aligned bounds of the unit square under m,
// which is where an image XObject is painted.
func (m matrix) unitBounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		x, y := m.apply(c[0], c[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return minX, minY, maxX, maxY
}

// pageGeometry is the media box of a page in PDF user space
type pageGeometry struct {
	x0, y0        float64
	width, height float64
}

// toBox converts user-space bounds to a top-left percentage box
func (g pageGeometry) toBox(minX, minY, maxX, maxY float64) slide.Box {
	return slide.NewBox(
		(minX-g.x0)/g.width*100,
		(g.height-(maxY-g.y0))/g.height*100,
		(maxX-minX)/g.width*100,
		(maxY-minY)/g.height*100,
	)
}
