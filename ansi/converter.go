// Package ansi implements the byte-by-byte SGR (Select Graphic
// Rendition) converter of §4.3: it consumes raw application bytes and
// produces a lazy sequence of Text / SetColor events, tracking current
// color state across fragmented input.
package ansi

import "github.com/okros-mud/okros/cell"

// EventKind distinguishes the two event shapes the converter emits.
type EventKind int

const (
	EventText EventKind = iota
	EventSetColor
)

// Event is one unit of converter output.
type Event struct {
	Kind EventKind
	Byte byte // valid when Kind == EventText
	Attr byte // valid when Kind == EventSetColor; see cell.Cell attribute layout
}

type state int

const (
	stNormal state = iota
	stEsc
	stCSI
)

const esc byte = 0x1b

// colorMap implements the involution {0↔0,1↔4,2↔2,3↔6,4↔1,5↔5,6↔3,7↔7}
// between ANSI color ordering and the client's internal attribute
// ordering. Being an involution, the same table maps in both directions.
var colorMap = [8]byte{0, 4, 2, 6, 1, 5, 3, 7}

func mapColor(n byte) byte { return colorMap[n&7] }

// Converter tracks fg/bg/bold across a fragmented byte stream and turns
// terminated SGR sequences into SetColor events.
type Converter struct {
	st     state
	params []int
	cur    int

	fg, bg byte
	bold   bool
}

// NewConverter returns a converter in the default state: fg=7, bg=0,
// bold=false (white on black).
func NewConverter() *Converter {
	return &Converter{fg: 7, bg: 0}
}

// Feed processes one byte and returns zero or one events.
func (c *Converter) Feed(b byte) []Event {
	switch c.st {
	case stNormal:
		if b == esc {
			c.st = stEsc
			return nil
		}
		return []Event{{Kind: EventText, Byte: b}}

	case stEsc:
		if b == '[' {
			c.st = stCSI
			c.params = c.params[:0]
			c.cur = 0
		} else {
			// Non-'[' intermediate: abort the CSI attempt entirely.
			c.st = stNormal
		}
		return nil

	case stCSI:
		switch {
		case b >= '0' && b <= '9':
			c.cur = c.cur*10 + int(b-'0')
		case b == ';':
			c.params = append(c.params, c.cur)
			c.cur = 0
		case isFinal(b):
			c.params = append(c.params, c.cur)
			c.st = stNormal
			if b == 'm' {
				c.applySGR(c.params)
				return []Event{{Kind: EventSetColor, Attr: c.packed()}}
			}
			// Cursor motion, erase, etc.: silently consumed.
			return nil
		default:
			c.st = stNormal
		}
		return nil
	}
	return nil
}

func isFinal(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// applySGR interprets the SGR parameters of one terminated sequence.
func (c *Converter) applySGR(params []int) {
	for _, p := range params {
		switch {
		case p == 0:
			c.fg, c.bg, c.bold = 7, 0, false
		case p == 1:
			c.bold = true
		case p >= 30 && p <= 37:
			c.fg = mapColor(byte(p - 30))
		case p >= 90 && p <= 97:
			c.fg = mapColor(byte(p - 90))
			c.bold = true
		case p >= 40 && p <= 47:
			c.bg = mapColor(byte(p - 40))
		case p >= 100 && p <= 107:
			// Bright background does not imply bold.
			c.bg = mapColor(byte(p - 100))
		}
	}
}

func (c *Converter) packed() byte {
	return cell.PackAttr(c.fg, c.bg, c.bold)
}
