package cellgrid

import "testing"

func TestNewGridDefaults(t *testing.T) {
	g := New(Point{X: 5, Y: 3})
	c, ok := g.Cell(Point{X: 0, Y: 0})
	if !ok {
		t.Fatalf("expected in-bounds cell")
	}
	if c != DefaultCell {
		t.Errorf("expected DefaultCell, got %+v", c)
	}
}

func TestCellOutOfBounds(t *testing.T) {
	g := New(Point{X: 2, Y: 2})
	if _, ok := g.Cell(Point{X: -1, Y: 0}); ok {
		t.Errorf("expected out-of-bounds read to fail")
	}
	if _, ok := g.Cell(Point{X: 2, Y: 0}); ok {
		t.Errorf("expected out-of-bounds read to fail")
	}
	// SetCell out of bounds is a silent no-op.
	g.SetCell(Point{X: -1, Y: -1}, Cell{Char: 'X'})
}

func TestInsertAndDeleteCell(t *testing.T) {
	g := New(Point{X: 4, Y: 1})
	for i := 0; i < 4; i++ {
		g.SetCell(Point{X: int16(i), Y: 0}, Cell{Char: uint16('A' + i), Attrs: DefaultAttrs})
	}
	g.InsertCell(Point{X: 1, Y: 0}, Cell{Char: 'Z', Attrs: DefaultAttrs})
	want := []uint16{'A', 'Z', 'B', 'C'}
	got := make([]uint16, 4)
	g.ReadChars(Point{X: 0, Y: 0}, got)
	for i, w := range want {
		if got[i] != w {
			t.Errorf("after insert: index %d = %c, want %c", i, got[i], w)
		}
	}

	g.DeleteCell(Point{X: 0, Y: 0}, Cell{Char: ' ', Attrs: DefaultAttrs})
	got = make([]uint16, 4)
	g.ReadChars(Point{X: 0, Y: 0}, got)
	want = []uint16{'Z', 'B', 'C', ' '}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("after delete: index %d = %c, want %c", i, got[i], w)
		}
	}
}

func TestFillSaturatesAtGridEnd(t *testing.T) {
	g := New(Point{X: 3, Y: 2})
	n := g.FillChars(Point{X: 2, Y: 0}, 'X', 100)
	if n != 4 {
		t.Errorf("expected saturated fill of 4 cells, got %d", n)
	}
	c, _ := g.Cell(Point{X: 2, Y: 1})
	if c.Char != 'X' {
		t.Errorf("expected last cell filled, got %c", c.Char)
	}
}

func TestFillOutOfBoundsOrigin(t *testing.T) {
	g := New(Point{X: 3, Y: 3})
	if n := g.FillChars(Point{X: 5, Y: 5}, 'X', 3); n != 0 {
		t.Errorf("expected 0 cells filled for out-of-bounds origin, got %d", n)
	}
}

func TestReadWriteRect(t *testing.T) {
	g := New(Point{X: 5, Y: 5})
	src := make([]Cell, 4)
	for i := range src {
		src[i] = Cell{Char: uint16('a' + i), Attrs: DefaultAttrs}
	}
	rect := Rect{Left: 1, Top: 1, Right: 2, Bottom: 2}
	g.WriteRect(rect, src)
	got := g.ReadRect(rect)
	for i, c := range got {
		if c.Char != src[i].Char {
			t.Errorf("index %d = %c, want %c", i, c.Char, src[i].Char)
		}
	}
}

func TestScrollUpUnclipped(t *testing.T) {
	g := New(Point{X: 3, Y: 5})
	for y := int16(0); y < 5; y++ {
		g.FillChars(Point{X: 0, Y: y}, uint16('0'+y), 3)
	}
	// Move rows 1..3 up by one with a full-grid clip.
	ok := g.Scroll(
		Rect{Left: 0, Top: 1, Right: 2, Bottom: 3},
		g.FullRect(),
		Point{X: 0, Y: 0},
		DefaultCell,
	)
	if !ok {
		t.Fatalf("scroll failed")
	}
	want := []uint16{'1', '2', '3', ' ', '4'}
	for y, w := range want {
		c, _ := g.Cell(Point{X: 0, Y: int16(y)})
		if c.Char != w {
			t.Errorf("row %d = %c, want %c", y, c.Char, w)
		}
	}
}

func TestScrollClipConfinesWrites(t *testing.T) {
	g := New(Point{X: 3, Y: 5})
	for y := int16(0); y < 5; y++ {
		g.FillChars(Point{X: 0, Y: y}, uint16('0'+y), 3)
	}
	// Same move, but clipped to rows 1..3: row 0 must stay untouched,
	// rows 1..2 take old rows 2..3, row 3 is the vacated fill.
	g.Scroll(
		Rect{Left: 0, Top: 1, Right: 2, Bottom: 3},
		Rect{Left: 0, Top: 1, Right: 2, Bottom: 3},
		Point{X: 0, Y: 0},
		DefaultCell,
	)
	want := []uint16{'0', '2', '3', ' ', '4'}
	for y, w := range want {
		c, _ := g.Cell(Point{X: 0, Y: int16(y)})
		if c.Char != w {
			t.Errorf("row %d = %c, want %c", y, c.Char, w)
		}
	}
}

func TestScrollOverlappingDownPreservesSource(t *testing.T) {
	g := New(Point{X: 1, Y: 5})
	for y := int16(0); y < 5; y++ {
		g.SetCell(Point{X: 0, Y: y}, Cell{Char: uint16('0' + y), Attrs: DefaultAttrs})
	}
	full := g.FullRect()
	// Scroll rows 0..3 down by one into rows 1..4 - overlapping shift.
	g.Scroll(Rect{Left: 0, Top: 0, Right: 0, Bottom: 3}, full, Point{X: 0, Y: 1}, DefaultCell)
	want := []uint16{' ', '0', '1', '2', '3'}
	for y, w := range want {
		c, _ := g.Cell(Point{X: 0, Y: int16(y)})
		if c.Char != w {
			t.Errorf("row %d = %c, want %c", y, c.Char, w)
		}
	}
}

func TestRectHelpers(t *testing.T) {
	r := Rect{Left: 1, Top: 1, Right: 3, Bottom: 2}
	if r.Width() != 3 || r.Height() != 2 {
		t.Errorf("unexpected dims %dx%d", r.Width(), r.Height())
	}
	if r.Empty() {
		t.Errorf("expected non-empty rect")
	}
	inv := Rect{Left: 3, Top: 0, Right: 1, Bottom: 0}
	if !inv.Empty() {
		t.Errorf("expected inverted rect to be empty")
	}
}
