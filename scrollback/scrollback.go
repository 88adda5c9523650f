// Package scrollback implements the ring-buffer scrollback of §4.4: an
// ordered sequence of attributed rows of fixed width, with a viewport
// window an observer can pan within and freeze.
package scrollback

import "github.com/okros-mud/okros/cell"

// Scrollback holds W*N attributed cells as a ring of rows, with a
// viewport of height H panned within it.
type Scrollback struct {
	width    int
	height   int // viewport height H
	capacity int // total rows N held before compaction

	rows       [][]cell.Cell // ring, index 0 is the oldest retained row
	linesWrit  int           // monotonic count of rows ever emitted
	topLine    int           // absolute line number of rows[0]
	canvasOff  int           // rows dropped from the front of the ring by compaction
	viewOffset int           // rows back from the bottom the viewport currently shows
	frozen     bool
}

// New returns a scrollback buffer of the given width, viewport height,
// and total row capacity (N in §4.4; must be >= height).
func New(width, height, capacity int) *Scrollback {
	if capacity < height {
		capacity = height
	}
	return &Scrollback{
		width:    width,
		height:   height,
		capacity: capacity,
	}
}

func blankRow(width int) []cell.Cell {
	return make([]cell.Cell, width)
}

// EmitLine appends one row, compacting the ring if it is full, and
// advances lines_written. cells shorter than width are padded with
// clear cells; longer rows are truncated.
func (s *Scrollback) EmitLine(cells []cell.Cell) {
	row := blankRow(s.width)
	n := len(cells)
	if n > s.width {
		n = s.width
	}
	copy(row, cells[:n])

	if len(s.rows) >= s.capacity {
		s.compact()
	}
	s.rows = append(s.rows, row)
	s.linesWrit++

	if !s.frozen {
		s.viewOffset = 0
	}
}

// compact drops the oldest block of rows, freeing room. The dropped
// rows become permanently inaccessible; topLine still reflects the
// absolute line number of the new rows[0] so callers can reason about
// the gap.
func (s *Scrollback) compact() {
	drop := s.capacity / 4
	if drop < 1 {
		drop = 1
	}
	if drop > len(s.rows) {
		drop = len(s.rows)
	}
	s.rows = s.rows[drop:]
	s.topLine += drop
	s.canvasOff += drop
}

// CanvasOffset returns the number of rows permanently scrolled out of
// the ring by compaction.
func (s *Scrollback) CanvasOffset() int { return s.canvasOff }

// TopLine returns the 0-based absolute line number of rows[0]: the
// number of emitted rows compaction has dropped before it.
func (s *Scrollback) TopLine() int { return s.topLine }

// LinesWritten returns the monotonic count of rows ever emitted.
func (s *Scrollback) LinesWritten() int { return s.linesWrit }

// SetFrozen toggles whether EmitLine is allowed to reset the viewport
// back to the bottom.
func (s *Scrollback) SetFrozen(frozen bool) { s.frozen = frozen }

// Frozen reports the current freeze state.
func (s *Scrollback) Frozen() bool { return s.frozen }

// ViewportSlice returns the H rows currently visible, oldest first.
// Rows beyond what has been written are blank.
func (s *Scrollback) ViewportSlice() [][]cell.Cell {
	out := make([][]cell.Cell, s.height)
	total := len(s.rows)
	// bottom-most visible row index (exclusive end) after panning back
	// viewOffset rows from the true bottom.
	end := total - s.viewOffset
	start := end - s.height
	for i := 0; i < s.height; i++ {
		idx := start + i
		if idx < 0 || idx >= total {
			out[i] = blankRow(s.width)
			continue
		}
		out[i] = s.rows[idx]
	}
	return out
}

// MoveViewpoint pans the viewport by unit (one "line") or by a full
// page (height rows), in the given direction. The result is saturated
// at 0 (bottom, newest) and at the maximum offset that still shows a
// full screen of history (len(rows) - height, clamped to canvasOff's
// complement — i.e. never past what is actually retained).
func (s *Scrollback) MoveViewpoint(page bool, up bool) {
	delta := 1
	if page {
		delta = s.height
	}
	maxOffset := len(s.rows) - s.height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if up {
		s.viewOffset += delta
	} else {
		s.viewOffset -= delta
	}
	if s.viewOffset < 0 {
		s.viewOffset = 0
	}
	if s.viewOffset > maxOffset {
		s.viewOffset = maxOffset
	}
}

// Recent returns the last n rows in chronological order, used by
// headless mode to replay recent output to a newly-attached client.
func (s *Scrollback) Recent(n int) [][]cell.Cell {
	total := len(s.rows)
	if n > total {
		n = total
	}
	start := total - n
	out := make([][]cell.Cell, n)
	copy(out, s.rows[start:])
	return out
}

// Highlight returns the current viewport with colors inverted across
// the span [x, x+length) on the given row (0-based, within the
// viewport's own coordinate space).
func (s *Scrollback) Highlight(row, x, length int) [][]cell.Cell {
	vp := s.ViewportSlice()
	if row < 0 || row >= len(vp) {
		return vp
	}
	src := vp[row]
	dst := make([]cell.Cell, len(src))
	copy(dst, src)
	end := x + length
	if end > len(dst) {
		end = len(dst)
	}
	for i := x; i >= 0 && i < end; i++ {
		dst[i] = dst[i].Inverted()
	}
	vp[row] = dst
	return vp
}
