package scrollback

import (
	"testing"

	"github.com/okros-mud/okros/cell"
)

func textRow(width int, s string) []cell.Cell {
	row := make([]cell.Cell, width)
	for i := 0; i < width && i < len(s); i++ {
		row[i] = cell.Pack(s[i], 7, 0, false)
	}
	return row
}

func rowString(row []cell.Cell) string {
	b := make([]byte, len(row))
	for i, c := range row {
		g := c.Glyph()
		if g == 0 {
			g = ' '
		}
		b[i] = g
	}
	return string(b)
}

func TestFillThenScroll(t *testing.T) {
	sb := New(10, 3, 6)
	for i := 0; i < 3; i++ {
		sb.EmitLine(textRow(10, string(rune('a'+i))))
	}
	vp := sb.ViewportSlice()
	if rowString(vp[0])[0] != 'a' || rowString(vp[2])[0] != 'c' {
		t.Fatalf("fill phase viewport wrong: %q %q %q", rowString(vp[0]), rowString(vp[1]), rowString(vp[2]))
	}

	sb.EmitLine(textRow(10, "d"))
	vp = sb.ViewportSlice()
	if rowString(vp[0])[0] != 'b' || rowString(vp[2])[0] != 'd' {
		t.Fatalf("scroll phase viewport wrong: %q %q %q", rowString(vp[0]), rowString(vp[1]), rowString(vp[2]))
	}
	if sb.LinesWritten() != 4 {
		t.Fatalf("lines written = %d, want 4", sb.LinesWritten())
	}
}

func TestCompactionAdvancesTopLine(t *testing.T) {
	sb := New(5, 2, 4)
	for i := 0; i < 10; i++ {
		sb.EmitLine(textRow(5, "x"))
	}
	if sb.TopLine() == 0 {
		t.Fatal("topLine should have advanced past compaction")
	}
	if sb.CanvasOffset() == 0 {
		t.Fatal("canvasOffset should be nonzero after compaction")
	}
	if sb.LinesWritten() != 10 {
		t.Fatalf("lines written = %d, want 10", sb.LinesWritten())
	}
}

func TestMoveViewpointSaturatesAtBounds(t *testing.T) {
	sb := New(5, 2, 10)
	for i := 0; i < 5; i++ {
		sb.EmitLine(textRow(5, string(rune('a'+i))))
	}
	// Page up past the top: saturate.
	for i := 0; i < 10; i++ {
		sb.MoveViewpoint(true, true)
	}
	vp := sb.ViewportSlice()
	if rowString(vp[0])[0] != 'a' {
		t.Fatalf("expected top row 'a', got %q", rowString(vp[0]))
	}

	// Back down past the bottom: saturate at newest.
	for i := 0; i < 10; i++ {
		sb.MoveViewpoint(false, false)
	}
	vp = sb.ViewportSlice()
	if rowString(vp[1])[0] != 'e' {
		t.Fatalf("expected bottom row 'e', got %q", rowString(vp[1]))
	}
}

func TestSetFrozenPreventsAutoScrollToBottom(t *testing.T) {
	sb := New(5, 2, 10)
	for i := 0; i < 4; i++ {
		sb.EmitLine(textRow(5, string(rune('a'+i))))
	}
	sb.MoveViewpoint(true, true)
	sb.SetFrozen(true)
	sb.EmitLine(textRow(5, "z"))
	vp := sb.ViewportSlice()
	if rowString(vp[1])[0] == 'z' {
		t.Fatal("frozen scrollback must not follow new output")
	}

	sb.SetFrozen(false)
	sb.EmitLine(textRow(5, "y"))
	vp = sb.ViewportSlice()
	if rowString(vp[1])[0] != 'y' {
		t.Fatal("unfreezing should resume following new output on next emit")
	}
}

func TestRecentReturnsChronologicalOrder(t *testing.T) {
	sb := New(5, 2, 10)
	for i := 0; i < 4; i++ {
		sb.EmitLine(textRow(5, string(rune('a'+i))))
	}
	recent := sb.Recent(2)
	if len(recent) != 2 || rowString(recent[0])[0] != 'c' || rowString(recent[1])[0] != 'd' {
		t.Fatalf("recent = %v", recent)
	}
}

func TestHighlightInvertsSpanOnly(t *testing.T) {
	sb := New(5, 1, 5)
	sb.EmitLine(textRow(5, "abcde"))
	vp := sb.Highlight(0, 1, 2)
	row := vp[0]
	if row[0].Inverted() == row[0] {
		// sanity: Inverted must actually change fg/bg for this assertion
		// to be meaningful; cell (7,0) inverted is (0,7), which differs.
	}
	if row[0] == textRow(5, "abcde")[0].Inverted() {
		t.Fatal("column 0 should not be inverted")
	}
	if row[1] != textRow(5, "abcde")[1].Inverted() {
		t.Fatal("column 1 should be inverted")
	}
	if row[2] != textRow(5, "abcde")[2].Inverted() {
		t.Fatal("column 2 should be inverted")
	}
	if row[3] == textRow(5, "abcde")[3].Inverted() {
		t.Fatal("column 3 should not be inverted")
	}
}
