// Package textmerge groups glyph-level runs from a native text layer into
// reading blocks.
//
// The grouping is a greedy single pass over runs sorted top-down, left to
// right. A run joins the open block when it sits on the same visual line
// (vertical distance within 70% of the taller of the two) and starts less
// than MaxGap percent of the page width after the block ends. Two distinct
// labels on one line closer than MaxGap are merged as well; that is an
// accepted approximation of the layout.
package textmerge

import (
	"math"
	"sort"
	"strings"

	"github.com/Abraxas-365/pagelift/pkg/slide"
)

const (
	// LineTolerance is the fraction of the taller height within which two
	// runs count as the same line.
	LineTolerance = 0.7
	// MaxGap is the horizontal gap, in percent of page width, below which a
	// run is appended to the open block.
	MaxGap = 3.0
	// SpaceGap is the gap above which a space is inserted between runs.
	SpaceGap = 0.5
)

// run is a RawTextRun converted to page percentages with a top-down origin
type run struct {
	text     string
	x, y     float64
	w, h     float64
	fontSize float64
}

type block struct {
	text     strings.Builder
	x, y     float64
	w, h     float64
	fontSize float64
}

// Merge converts runs measured on a pageWidth x pageHeight page into text
// elements with default styling. The output is deterministic for any
// ordering of the input.
func Merge(runs []slide.RawTextRun, pageWidth, pageHeight float64) []slide.TextElement {
	if pageWidth <= 0 || pageHeight <= 0 || len(runs) == 0 {
		return nil
	}

	normalized := toPercent(runs, pageWidth, pageHeight)
	sortReadingOrder(normalized)

	var (
		elements []slide.TextElement
		cur      *block
	)
	for _, r := range normalized {
		if cur != nil && cur.accepts(r) {
			cur.append(r)
			continue
		}
		if cur != nil {
			elements = append(elements, cur.element())
		}
		cur = openBlock(r)
	}
	if cur != nil {
		elements = append(elements, cur.element())
	}
	return elements
}

func toPercent(runs []slide.RawTextRun, pageWidth, pageHeight float64) []run {
	out := make([]run, 0, len(runs))
	for _, r := range runs {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		h := r.Height
		if h <= 0 {
			h = r.FontSize
		}
		out = append(out, run{
			text:     r.Text,
			x:        r.X / pageWidth * 100,
			y:        (pageHeight - (r.Y + h)) / pageHeight * 100,
			w:        math.Max(r.Width, 0) / pageWidth * 100,
			h:        math.Max(h, 0) / pageHeight * 100,
			fontSize: r.FontSize / pageHeight * 100,
		})
	}
	return out
}

// sortReadingOrder orders runs by y then x. Remaining ties are broken on the
// other fields so that equal input sets always sort identically.
func sortReadingOrder(runs []run) {
	sort.SliceStable(runs, func(i, j int) bool {
		a, b := runs[i], runs[j]
		switch {
		case a.y != b.y:
			return a.y < b.y
		case a.x != b.x:
			return a.x < b.x
		case a.text != b.text:
			return a.text < b.text
		case a.w != b.w:
			return a.w < b.w
		case a.h != b.h:
			return a.h < b.h
		default:
			return a.fontSize < b.fontSize
		}
	})
}

func openBlock(r run) *block {
	b := &block{x: r.x, y: r.y, w: r.w, h: r.h, fontSize: r.fontSize}
	b.text.WriteString(r.text)
	return b
}

func (b *block) accepts(r run) bool {
	tolerance := LineTolerance * math.Max(b.h, r.h)
	gap := r.x - (b.x + b.w)
	return math.Abs(r.y-b.y) <= tolerance && gap < MaxGap
}

func (b *block) append(r run) {
	if gap := r.x - (b.x + b.w); gap > SpaceGap {
		b.text.WriteByte(' ')
	}
	b.text.WriteString(r.text)

	right := math.Max(b.x+b.w, r.x+r.w)
	bottom := math.Max(b.y+b.h, r.y+r.h)
	b.x = math.Min(b.x, r.x)
	b.y = math.Min(b.y, r.y)
	b.w = right - b.x
	b.h = bottom - b.y
	b.fontSize = math.Max(b.fontSize, r.fontSize)
}

func (b *block) element() slide.TextElement {
	return slide.TextElement{
		ID:         slide.NewElementID(),
		Box:        slide.NewBox(b.x, b.y, b.w, b.h),
		Text:       b.text.String(),
		FontSize:   b.fontSize,
		FontWeight: slide.FontWeightNormal,
		FontColor:  slide.DefaultFontColor,
		Align:      slide.AlignLeft,
	}
}
