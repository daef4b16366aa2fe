package nativepdf

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	defaultWidth  = 612.0
	defaultHeight = 792.0
)

// mediaBox reads MediaBox, inherited through Parent, defaulting to US letter
func mediaBox(v pdf.Value) pageGeometry {
	for depth := 0; depth < 32 && v.Kind() == pdf.Dict; depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			x0, y0 := box.Index(0).Float64(), box.Index(1).Float64()
			x1, y1 := box.Index(2).Float64(), box.Index(3).Float64()
			if x1 < x0 {
				x0, x1 = x1, x0
			}
			if y1 < y0 {
				y0, y1 = y1, y0
			}
			if x1-x0 > 0 && y1-y0 > 0 {
				return pageGeometry{x0: x0, y0: y0, width: x1 - x0, height: y1 - y0}
			}
		}
		v = v.Key("Parent")
	}
	return pageGeometry{width: defaultWidth, height: defaultHeight}
}

// placement is where an image XObject is painted, in user space
type placement struct {
	name                   string
	minX, minY, maxX, maxY float64
}

// imagePlacements interprets the page content streams, tracking the graphics
// state stack, and records every image XObject drawn with Do.
// Only the page-level XObject resources are consulted, so images nested
// inside form XObjects are not reported.
func imagePlacements(p pdf.Page) (out []placement, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("content stream: %v", r)
		}
	}()

	xobjects := p.Resources().Key("XObject")
	contents := p.V.Key("Contents")

	var streams []pdf.Value
	if contents.Kind() == pdf.Array {
		for i := 0; i < contents.Len(); i++ {
			streams = append(streams, contents.Index(i))
		}
	} else if contents.Kind() == pdf.Stream {
		streams = append(streams, contents)
	}

	ctm := identity
	var saved []matrix

	for _, strm := range streams {
		pdf.Interpret(strm, func(stk *pdf.Stack, op string) {
			n := stk.Len()
			args := make([]pdf.Value, n)
			for i := n - 1; i >= 0; i-- {
				args[i] = stk.Pop()
			}

			switch op {
			case "q":
				saved = append(saved, ctm)
			case "Q":
				if len(saved) > 0 {
					ctm = saved[len(saved)-1]
					saved = saved[:len(saved)-1]
				}
			case "cm":
				if n != 6 {
					return
				}
				var m matrix
				for i := range m {
					m[i] = args[i].Float64()
				}
				ctm = m.multiply(ctm)
			case "Do":
				if n != 1 {
					return
				}
				name := args[0].Name()
				xobj := xobjects.Key(name)
				if xobj.Key("Subtype").Name() != "Image" {
					return
				}
				minX, minY, maxX, maxY := ctm.unitBounds()
				out = append(out, placement{name: name, minX: minX, minY: minY, maxX: maxX, maxY: maxY})
			}
		})
	}
	return out, nil
}

// glyphRuns groups the per-glyph output of the pdf reader into word runs.
// A run ends at whitespace, a font change, a baseline change or a gap wider
// than a quarter of the font size.
func glyphRuns(texts []pdf.Text) []rawRun {
	var runs []rawRun
	var cur *rawRun

	flush := func() {
		if cur != nil && strings.TrimSpace(cur.text) != "" {
			runs = append(runs, *cur)
		}
		cur = nil
	}

	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			flush()
			continue
		}

		if cur != nil {
			sameLine := abs(t.Y-cur.y) <= 0.1*maxf(t.FontSize, 1)
			gap := t.X - (cur.x + cur.w)
			if !sameLine || t.Font != cur.font || t.FontSize != cur.fontSize || gap > 0.25*t.FontSize || gap < -0.5*t.FontSize {
				flush()
			}
		}

		if cur == nil {
			cur = &rawRun{x: t.X, y: t.Y, font: t.Font, fontSize: t.FontSize}
		}
		cur.text += t.S
		if right := t.X + t.W; right > cur.x+cur.w {
			cur.w = right - cur.x
		}
	}
	flush()
	return runs
}

type rawRun struct {
	text     string
	x, y, w  float64
	font     string
	fontSize float64
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
