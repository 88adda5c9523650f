// Package compositor implements the minimal-diff cell compositor of
// §4.6: given a previous and a next frame of attributed cells, it
// emits the shortest ANSI byte sequence that transitions a real
// terminal from one to the other.
package compositor

import (
	"fmt"
	"strings"

	"github.com/okros-mud/okros/cell"
	"github.com/xo/terminfo"
)

// ACS line-drawing placeholder glyphs occupy this byte range; the
// session layer writes them into cells wherever it wants a border or
// line-drawing character rendered via the terminal's alternate
// character set.
const (
	acsLo byte = 0xEC
	acsHi byte = 0xEC + 8
)

// Compositor holds the terminfo ACS enter/leave sequences (if the
// terminal advertises any) and the optional DEC scroll-region
// optimization toggle.
type Compositor struct {
	smacs, rmacs string
	setBgAlways  bool
}

// New probes the environment's terminfo entry for ACS support. A
// terminal lacking smacs/rmacs never enters alternate-charset mode:
// ACS placeholder bytes are then written as their plain vt100 acsc
// letters.
func New() *Compositor {
	c := &Compositor{setBgAlways: true}
	if ti, err := terminfo.LoadFromEnv(); err == nil {
		c.smacs = string(ti.Printf(terminfo.EnterAlternateCharsetMode))
		c.rmacs = string(ti.Printf(terminfo.ExitAlternateCharsetMode))
	}
	return c
}

// SetBgAlways controls whether the SGR sequence always includes the
// background component; some teacher configurations disable it to
// shorten output on terminals whose default background is already
// the ANSI bg 0.
func (c *Compositor) SetBgAlways(v bool) { c.setBgAlways = v }

// Frame composites prev into next, producing the bytes to write and
// leaving the terminal cursor at (cursorX, cursorY).
func (c *Compositor) Frame(prev, next [][]cell.Cell, width, height, cursorX, cursorY int) []byte {
	var b strings.Builder
	b.WriteString("\x1b[H")

	if region, n, up := detectScroll(prev, next, height); region {
		emitScroll(&b, n, up, height)
		prev = shiftRows(prev, n, up, width)
	}

	savedColor := byte(0xFF) // sentinel: no color emitted yet
	lx, ly := -1, -1
	inACS := false

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if y == height-1 && x == width-1 {
				continue // bottom-right cell: skip to avoid auto-wrap
			}
			var p, n cell.Cell
			if y < len(prev) && x < len(prev[y]) {
				p = prev[y][x]
			}
			if y < len(next) && x < len(next[y]) {
				n = next[y][x]
			}
			if p == n {
				continue
			}

			if lx != x || ly != y {
				fmt.Fprintf(&b, "\x1b[%d;%dH", y+1, x+1)
				lx, ly = x, y
			}

			attr := n.Attr()
			if attr != savedColor {
				b.WriteString(c.sgr(attr))
				savedColor = attr
			}

			g := n.Glyph()
			switch {
			case g >= acsLo && g < acsHi:
				if !inACS && c.smacs != "" {
					b.WriteString(c.smacs)
					inACS = true
				}
				b.WriteByte(glyphForACS(g))
			case g < 0x20:
				if inACS && c.rmacs != "" {
					b.WriteString(c.rmacs)
					inACS = false
				}
				b.WriteByte(' ')
			default:
				if inACS && c.rmacs != "" {
					b.WriteString(c.rmacs)
					inACS = false
				}
				b.WriteByte(g)
			}
			lx++
			if lx >= width {
				lx, ly = 0, ly+1
			}
		}
	}

	fmt.Fprintf(&b, "\x1b[%d;%dH", cursorY+1, cursorX+1)
	if inACS && c.rmacs != "" {
		b.WriteString(c.rmacs)
	}
	return []byte(b.String())
}

// ansiColor maps the internal attribute color ordering back to ANSI
// ordering. It is the same involution {0↔0,1↔4,2↔2,3↔6,4↔1,5↔5,6↔3,7↔7}
// the ansi converter applies on input.
var ansiColor = [8]byte{0, 4, 2, 6, 1, 5, 3, 7}

// sgr renders the attribute byte as the shortest SGR sequence, mapping
// fg/bg back to ANSI ordering and collapsing the common white-on-black
// non-bold case to ESC[0m.
func (c *Compositor) sgr(attr byte) string {
	fg := attr & 0x07
	bg := (attr >> 4) & 0x07
	bold := attr&0x80 != 0

	if fg == 7 && bg == 0 && !bold {
		return "\x1b[0m"
	}
	boldBit := 0
	if bold {
		boldBit = 1
	}
	if c.setBgAlways {
		return fmt.Sprintf("\x1b[%d;%d;%dm", boldBit, int(ansiColor[bg])+40, int(ansiColor[fg])+30)
	}
	return fmt.Sprintf("\x1b[%d;%dm", boldBit, int(ansiColor[fg])+30)
}

// glyphForACS maps an ACS placeholder byte back to the line-drawing
// byte used inside alternate-charset mode (vt100 acsc letters).
func glyphForACS(g byte) byte {
	const acsc = "lqkxjmntuv" // subset: corners, h-line, v-line, tees, cross
	idx := int(g - acsLo)
	if idx < len(acsc) {
		return acsc[idx]
	}
	return ' '
}

// detectScroll implements the optional DEC scroll-region
// optimization: search for the smallest n in [1, height) such that
// next equals prev shifted by n rows within the full viewport. An
// unchanged frame is never reported as a scroll.
func detectScroll(prev, next [][]cell.Cell, height int) (found bool, n int, up bool) {
	if rowsEqual(prev, next, 0, height, true) {
		return false, 0, false
	}
	for shift := 1; shift < height; shift++ {
		if rowsEqual(prev, next, shift, height, true) {
			return true, shift, true
		}
	}
	return false, 0, false
}

func rowsEqual(prev, next [][]cell.Cell, shift, height int, up bool) bool {
	for y := 0; y < height-shift; y++ {
		var srcRow, dstRow []cell.Cell
		if up {
			srcRow = rowAt(prev, y+shift)
			dstRow = rowAt(next, y)
		} else {
			srcRow = rowAt(prev, y)
			dstRow = rowAt(next, y+shift)
		}
		if !cellsEqual(srcRow, dstRow) {
			return false
		}
	}
	return true
}

func rowAt(rows [][]cell.Cell, y int) []cell.Cell {
	if y < 0 || y >= len(rows) {
		return nil
	}
	return rows[y]
}

func cellsEqual(a, b []cell.Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func emitScroll(b *strings.Builder, n int, up bool, height int) {
	fmt.Fprintf(b, "\x1b[1;%dr", height)
	fmt.Fprintf(b, "\x1b[%d;1H", height)
	for i := 0; i < n; i++ {
		b.WriteByte('\n')
	}
	fmt.Fprintf(b, "\x1b[1;%dr", height)
}

func shiftRows(rows [][]cell.Cell, n int, up bool, width int) [][]cell.Cell {
	out := make([][]cell.Cell, len(rows))
	for y := range rows {
		srcY := y + n
		if !up {
			srcY = y - n
		}
		if srcY >= 0 && srcY < len(rows) {
			out[y] = rows[srcY]
		} else {
			out[y] = make([]cell.Cell, width)
		}
	}
	return out
}
