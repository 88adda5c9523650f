package cell

import "testing"

func TestPackRoundTrip(t *testing.T) {
	c := Pack('X', 4, 1, true)
	if c.Glyph() != 'X' {
		t.Fatalf("glyph = %q, want X", c.Glyph())
	}
	if c.Fg() != 4 || c.Bg() != 1 || !c.Bold() {
		t.Fatalf("fg=%d bg=%d bold=%v, want fg=4 bg=1 bold=true", c.Fg(), c.Bg(), c.Bold())
	}
}

func TestZeroIsClear(t *testing.T) {
	var c Cell
	if !c.IsClear() {
		t.Fatal("zero-value Cell should be clear")
	}
	if Pack('A', 0, 0, false).IsClear() {
		t.Fatal("a written cell with glyph 'A' must not be clear")
	}
}

func TestInverted(t *testing.T) {
	c := Pack('Z', 2, 5, true)
	inv := c.Inverted()
	if inv.Fg() != 5 || inv.Bg() != 2 || !inv.Bold() {
		t.Fatalf("inverted fg/bg mismatch: got fg=%d bg=%d", inv.Fg(), inv.Bg())
	}
	if inv.Glyph() != 'Z' {
		t.Fatal("inverting must preserve the glyph")
	}
}
