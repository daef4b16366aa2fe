package nativepdf

import (
	"math"
	"testing"

	"github.com/ledongthuc/pdf"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMultiplyAppliesLeftFirst(t *testing.T) {
	scale := matrix{200, 0, 0, 100, 0, 0}
	translate := matrix{1, 0, 0, 1, 50, 600}

	// "50 600 cm" followed by "200 0 0 100 0 0 cm" yields scale × translate
	ctm := scale.multiply(translate.multiply(identity))
	minX, minY, maxX, maxY := ctm.unitBounds()
	if !near(minX, 50) || !near(minY, 600) || !near(maxX, 250) || !near(maxY, 700) {
		t.Fatalf("unexpected bounds %v %v %v %v", minX, minY, maxX, maxY)
	}
}

func TestUnitBoundsOfRotation(t *testing.T) {
	// 90 degrees counter-clockwise, scaled by 10
	rot := matrix{0, 10, -10, 0, 100, 100}
	minX, minY, maxX, maxY := rot.unitBounds()
	if !near(minX, 90) || !near(maxX, 100) || !near(minY, 100) || !near(maxY, 110) {
		t.Fatalf("unexpected bounds %v %v %v %v", minX, minY, maxX, maxY)
	}
}

func TestToBoxFlipsVerticalAxis(t *testing.T) {
	g := pageGeometry{width: 1000, height: 500}
	box := g.toBox(100, 400, 300, 450)
	if !near(box.X, 10) || !near(box.Y, 10) || !near(box.Width, 20) || !near(box.Height, 10) {
		t.Fatalf("unexpected box %+v", box)
	}

	shifted := pageGeometry{x0: 100, y0: 100, width: 1000, height: 500}
	if b := shifted.toBox(200, 500, 400, 550); b != box {
		t.Fatalf("media box origin should be subtracted: %+v vs %+v", b, box)
	}
}

func TestGlyphRunsGroupWords(t *testing.T) {
	glyph := func(s string, x float64) pdf.Text {
		return pdf.Text{Font: "Helvetica", FontSize: 10, X: x, Y: 700, W: 6, S: s}
	}
	texts := []pdf.Text{
		glyph("H", 100), glyph("i", 106),
		glyph(" ", 112),
		glyph("y", 118), glyph("o", 124), glyph("u", 130),
		glyph("!", 160),
		{Font: "Helvetica", FontSize: 10, X: 100, Y: 680, W: 6, S: "x"},
	}

	runs := glyphRuns(texts)
	if len(runs) != 4 {
		t.Fatalf("expected 4 runs, got %d", len(runs))
	}
	want := []string{"Hi", "you", "!", "x"}
	for i, w := range want {
		if runs[i].text != w {
			t.Fatalf("run %d: expected %q, got %q", i, w, runs[i].text)
		}
	}
	if !near(runs[1].x, 118) || !near(runs[1].w, 18) {
		t.Fatalf("unexpected extent x=%v w=%v", runs[1].x, runs[1].w)
	}
}

func TestGlyphRunsSplitOnFontChange(t *testing.T) {
	runs := glyphRuns([]pdf.Text{
		{Font: "Helvetica", FontSize: 10, X: 0, Y: 0, W: 5, S: "a"},
		{Font: "Helvetica-Bold", FontSize: 10, X: 5, Y: 0, W: 5, S: "b"},
	})
	if len(runs) != 2 {
		t.Fatalf("font change should split runs, got %d", len(runs))
	}
}
