// Package cellgrid implements the fixed 2D cell array that backs a
// classic console screen buffer: in-bounds single-cell access, row
// fill/read, rectangle writes, and the scroll-rectangle primitive used
// by both VT scrolling regions and the ScrollConsoleScreenBuffer API.
//
// The grid is deliberately flat data plus free functions rather than a
// class hierarchy: a screen buffer embeds a Grid and adds cursor,
// attributes, and VT parser state around it.
package cellgrid

// Cell is one grid position: a UTF-16 code unit and packed attributes
// (foreground/background palette index plus auxiliary bits). The zero
// value is not a valid cell; use DefaultCell.
type Cell struct {
	Char  uint16
	Attrs uint16
}

// Attribute bit layout within Cell.Attrs.
const (
	AttrForegroundMask uint16 = 0x000F
	AttrBackgroundMask uint16 = 0x00F0
	AttrBackgroundShift       = 4
	AttrReverseVideo   uint16 = 0x4000
	AttrUnderline      uint16 = 0x8000
)

// DefaultAttrs is foreground=white(7), background=black(0).
const DefaultAttrs uint16 = 0x0007

// DefaultCell is a space with DefaultAttrs, the value every blank or
// reset position takes.
var DefaultCell = Cell{Char: ' ', Attrs: DefaultAttrs}

// Point is a signed cell coordinate. All grid coordinates are 16-bit
// signed per spec; index arithmetic converts them to int first for
// headroom.
type Point struct {
	X, Y int16
}

// Rect is an inclusive rectangle [Left,Right] x [Top,Bottom].
type Rect struct {
	Left, Top, Right, Bottom int16
}

// Empty reports whether the rectangle contains no cells.
func (r Rect) Empty() bool {
	return r.Right < r.Left || r.Bottom < r.Top
}

// Contains reports whether p lies within the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// Width returns the rectangle's width in cells.
func (r Rect) Width() int16 { return r.Right - r.Left + 1 }

// Height returns the rectangle's height in cells.
func (r Rect) Height() int16 { return r.Bottom - r.Top + 1 }

// Grid is a row-major Size.X * Size.Y array of cells.
type Grid struct {
	Size  Point
	cells []Cell
}

// New allocates a grid of the given size filled with DefaultCell. Both
// dimensions must be > 0.
func New(size Point) *Grid {
	g := &Grid{Size: size}
	g.cells = make([]Cell, int(size.X)*int(size.Y))
	for i := range g.cells {
		g.cells[i] = DefaultCell
	}
	return g
}

func (g *Grid) inBounds(p Point) bool {
	return p.X >= 0 && p.X < g.Size.X && p.Y >= 0 && p.Y < g.Size.Y
}

func (g *Grid) linearIndex(p Point) int {
	return int(p.Y)*int(g.Size.X) + int(p.X)
}

// FullRect returns the inclusive rectangle covering the whole grid.
func (g *Grid) FullRect() Rect {
	return Rect{Left: 0, Top: 0, Right: g.Size.X - 1, Bottom: g.Size.Y - 1}
}

// Cell returns the cell at p. Out-of-bounds positions return the zero
// Cell and false.
func (g *Grid) Cell(p Point) (Cell, bool) {
	if !g.inBounds(p) {
		return Cell{}, false
	}
	return g.cells[g.linearIndex(p)], true
}

// SetCell writes a single cell at p. Out-of-bounds is a no-op, per the
// numeric policy that single-cell operations never fail loudly.
func (g *Grid) SetCell(p Point, c Cell) {
	if !g.inBounds(p) {
		return
	}
	g.cells[g.linearIndex(p)] = c
}

// InsertCell shifts the row at y right starting at x by one position,
// dropping the last cell of the row, then writes c at (x,y). Used by
// VT ICH and by printing while VT insert mode (IRM) is set.
func (g *Grid) InsertCell(p Point, c Cell) {
	if !g.inBounds(p) {
		return
	}
	rowStart := g.linearIndex(Point{X: 0, Y: p.Y})
	last := rowStart + int(g.Size.X) - 1
	idx := g.linearIndex(p)
	copy(g.cells[idx+1:last+1], g.cells[idx:last])
	g.cells[idx] = c
}

// DeleteCell shifts the row left starting at x by one position and
// fills the vacated final column with fill. Used by VT DCH.
func (g *Grid) DeleteCell(p Point, fill Cell) {
	if !g.inBounds(p) {
		return
	}
	rowStart := g.linearIndex(Point{X: 0, Y: p.Y})
	last := rowStart + int(g.Size.X) - 1
	idx := g.linearIndex(p)
	copy(g.cells[idx:last], g.cells[idx+1:last+1])
	g.cells[last] = fill
}

// FillChars overwrites the character of N cells starting at origin in
// row-major order, leaving attributes untouched. Length saturates at
// the remaining cells in the grid. Returns the number of cells
// actually written.
func (g *Grid) FillChars(origin Point, ch uint16, n int) int {
	return g.fill(origin, n, func(c *Cell) { c.Char = ch })
}

// FillAttrs overwrites the attributes of N cells starting at origin in
// row-major order, leaving characters untouched.
func (g *Grid) FillAttrs(origin Point, attrs uint16, n int) int {
	return g.fill(origin, n, func(c *Cell) { c.Attrs = attrs })
}

// FillCells overwrites both character and attributes of N cells.
func (g *Grid) FillCells(origin Point, c Cell, n int) int {
	return g.fill(origin, n, func(cell *Cell) { *cell = c })
}

func (g *Grid) fill(origin Point, n int, apply func(*Cell)) int {
	if !g.inBounds(origin) || n <= 0 {
		return 0
	}
	start := g.linearIndex(origin)
	max := len(g.cells) - start
	if n > max {
		n = max
	}
	for i := 0; i < n; i++ {
		apply(&g.cells[start+i])
	}
	return n
}

// ReadChars copies up to len(dest) characters starting at origin in
// row-major order into dest, returning the count copied.
func (g *Grid) ReadChars(origin Point, dest []uint16) int {
	if !g.inBounds(origin) {
		return 0
	}
	start := g.linearIndex(origin)
	n := len(dest)
	if max := len(g.cells) - start; n > max {
		n = max
	}
	for i := 0; i < n; i++ {
		dest[i] = g.cells[start+i].Char
	}
	return n
}

// ReadAttrs copies up to len(dest) attribute words starting at origin.
func (g *Grid) ReadAttrs(origin Point, dest []uint16) int {
	if !g.inBounds(origin) {
		return 0
	}
	start := g.linearIndex(origin)
	n := len(dest)
	if max := len(g.cells) - start; n > max {
		n = max
	}
	for i := 0; i < n; i++ {
		dest[i] = g.cells[start+i].Attrs
	}
	return n
}

// WriteRect bulk-writes a rectangle of cells (row-major, width x
// height matching the rect) clipped to the grid bounds. src must
// contain at least rect.Width()*rect.Height() cells.
func (g *Grid) WriteRect(rect Rect, src []Cell) {
	clip := g.clip(rect)
	if clip.Empty() {
		return
	}
	srcWidth := int(rect.Width())
	for y := clip.Top; y <= clip.Bottom; y++ {
		srcRow := int(y-rect.Top) * srcWidth
		for x := clip.Left; x <= clip.Right; x++ {
			srcCol := srcRow + int(x-rect.Left)
			g.SetCell(Point{X: x, Y: y}, src[srcCol])
		}
	}
}

// ReadRect reads a rectangle of cells (row-major) into a freshly
// allocated slice sized rect.Width()*rect.Height(), clipped cells left
// as DefaultCell.
func (g *Grid) ReadRect(rect Rect) []Cell {
	w, h := int(rect.Width()), int(rect.Height())
	if w <= 0 || h <= 0 {
		return nil
	}
	out := make([]Cell, w*h)
	for i := range out {
		out[i] = DefaultCell
	}
	clip := g.clip(rect)
	if clip.Empty() {
		return out
	}
	for y := clip.Top; y <= clip.Bottom; y++ {
		for x := clip.Left; x <= clip.Right; x++ {
			c, _ := g.Cell(Point{X: x, Y: y})
			out[int(y-rect.Top)*w+int(x-rect.Left)] = c
		}
	}
	return out
}

func (g *Grid) clip(r Rect) Rect {
	full := g.FullRect()
	if r.Left < full.Left {
		r.Left = full.Left
	}
	if r.Top < full.Top {
		r.Top = full.Top
	}
	if r.Right > full.Right {
		r.Right = full.Right
	}
	if r.Bottom > full.Bottom {
		r.Bottom = full.Bottom
	}
	return r
}

// Scroll conceptually copies the contents of source (clipped to the
// grid and to clip) to destOrigin with the same width/height, then
// fills the portion of source not covered by the destination
// (intersected with clip) with fill. Overlapping source/destination
// regions are copied in the direction that preserves source data.
func (g *Grid) Scroll(source Rect, clip Rect, destOrigin Point, fill Cell) bool {
	src := g.clip(source)
	bound := g.clip(clip)
	src = intersect(src, bound)
	if src.Empty() {
		return true
	}

	dx := destOrigin.X - source.Left
	dy := destOrigin.Y - source.Top

	dest := Rect{
		Left:   src.Left + dx,
		Top:    src.Top + dy,
		Right:  src.Right + dx,
		Bottom: src.Bottom + dy,
	}
	destClipped := intersect(g.clip(dest), bound)

	// Snapshot the source region before writing, since source and
	// destination may overlap and a row-by-row copy in the wrong
	// direction would clobber unread source cells.
	snap := g.ReadRect(src)
	srcW := int(src.Width())

	if !destClipped.Empty() {
		for y := destClipped.Top; y <= destClipped.Bottom; y++ {
			srcY := y - dy
			for x := destClipped.Left; x <= destClipped.Right; x++ {
				srcX := x - dx
				if srcX < src.Left || srcX > src.Right || srcY < src.Top || srcY > src.Bottom {
					continue
				}
				cell := snap[int(srcY-src.Top)*srcW+int(srcX-src.Left)]
				g.SetCell(Point{X: x, Y: y}, cell)
			}
		}
	}

	// Fill source \ destination, intersected with clip. src is already
	// intersected with the clip bound, so only the destination test
	// remains.
	for y := src.Top; y <= src.Bottom; y++ {
		for x := src.Left; x <= src.Right; x++ {
			p := Point{X: x, Y: y}
			if dest.Contains(p) {
				continue
			}
			g.SetCell(p, fill)
		}
	}
	return true
}

func intersect(a, b Rect) Rect {
	r := Rect{
		Left:   max16(a.Left, b.Left),
		Top:    max16(a.Top, b.Top),
		Right:  min16(a.Right, b.Right),
		Bottom: min16(a.Bottom, b.Bottom),
	}
	return r
}

func max16(a, b int16) int16 {
	if a > b {
		return a
	}
	return b
}

func min16(a, b int16) int16 {
	if a < b {
		return a
	}
	return b
}
