// Package screenbuffer implements the classic-console screen buffer: a
// cell grid plus viewport, cursor, attributes, palette, and a
// streaming ANSI/VT parser that applies a wide-character stream to the
// grid. It is the server's screen-buffer object (spec §3 ScreenBuffer)
// and its text application / VT output engine (spec §4.2, §4.3)
// combined, since the parser's scratch state lives on the buffer it
// mutates.
//
// The buffer never blocks and never panics: malformed escape sequences
// are absorbed by the phase state machine and allocation failures on
// resize are reported through a bool return, matching the teacher's
// "report, never throw" discipline.
package screenbuffer

import (
	"github.com/condrv-project/condrv/internal/cellgrid"
)

// DefaultSize is the classic console default: 120 columns, 40 rows.
var DefaultSize = cellgrid.Point{X: 120, Y: 40}

// MaxWindow is the constant cap on viewport dimensions (spec §3
// max_window). Chosen generously above any real terminal size so it
// only rejects pathological SetWindowInfo requests.
var MaxWindow = cellgrid.Point{X: 1024, Y: 1024}

// Margins is the optional DECSTBM scrolling region, inclusive rows.
type Margins struct {
	Top, Bottom int16
}

// SavedCursor is the DECSC/ANSI-SC snapshot: position, attributes,
// delayed-wrap flag, and origin mode, restored verbatim by DECRC/ANSI-RC.
type SavedCursor struct {
	Pos         cellgrid.Point
	Attrs       uint16
	DelayedWrap bool
	OriginMode  bool
}

// RGB is a 24-bit color entry in the 16-color palette.
type RGB struct {
	R, G, B uint8
}

// altBackup is the alternate-screen-buffer snapshot taken on entry and
// restored on exit (spec §4.2 set_vt_using_alternate_screen_buffer).
type altBackup struct {
	grid        *cellgrid.Grid
	cursor      cellgrid.Point
	attrs       uint16
	margins     *Margins
	delayedWrap *cellgrid.Point
	originMode  bool
	savedCursor *SavedCursor
}

// ScreenBuffer is the server's owned console screen: a cell grid, a
// viewport into it, cursor and attribute state, a 16-color palette, and
// VT parser scratch state. See spec §3 for the invariants every
// exported method preserves.
type ScreenBuffer struct {
	Size cellgrid.Point
	grid *cellgrid.Grid

	viewport cellgrid.Rect

	cursor        cellgrid.Point
	cursorSize    int // 1..100
	cursorVisible bool

	textAttrs        uint16
	defaultTextAttrs uint16

	palette [16]RGB

	savedCursor *SavedCursor
	margins     *Margins
	alt         *altBackup

	autowrap       bool
	delayedWrapPos *cellgrid.Point
	originMode     bool
	insertMode     bool

	parser parserState

	revision uint64
}

// DefaultPalette16 is the standard VGA-derived 16-color console
// palette (indices 0-7 normal, 8-15 bright).
var DefaultPalette16 = [16]RGB{
	{0, 0, 0}, {128, 0, 0}, {0, 128, 0}, {128, 128, 0},
	{0, 0, 128}, {128, 0, 128}, {0, 128, 128}, {192, 192, 192},
	{128, 128, 128}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{0, 0, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

// New allocates a screen buffer at the given size with all defaults
// from spec §4.2: cursor at origin, full-size viewport, attrs 0x07,
// cursor size 25, visible, standard palette.
func New(size cellgrid.Point) *ScreenBuffer {
	if size.X <= 0 {
		size.X = DefaultSize.X
	}
	if size.Y <= 0 {
		size.Y = DefaultSize.Y
	}
	sb := &ScreenBuffer{
		Size:             size,
		grid:             cellgrid.New(size),
		viewport:         cellgrid.Rect{Left: 0, Top: 0, Right: size.X - 1, Bottom: size.Y - 1},
		cursorSize:       25,
		cursorVisible:    true,
		textAttrs:        cellgrid.DefaultAttrs,
		defaultTextAttrs: cellgrid.DefaultAttrs,
		palette:          DefaultPalette16,
		autowrap:         true,
	}
	return sb
}

func (sb *ScreenBuffer) bump() { sb.revision++ }

// Revision returns the monotone mutation counter.
func (sb *ScreenBuffer) Revision() uint64 { return sb.revision }

// MarkDirty records a mutation performed directly against Grid(), so
// callers using the raw grid primitives (fill, rect write, scroll) keep
// the revision counter honest.
func (sb *ScreenBuffer) MarkDirty() { sb.bump() }

// Grid exposes the underlying cell grid for direct read/write API
// calls (FillConsoleOutput, Read/WriteConsoleOutput, scroll).
func (sb *ScreenBuffer) Grid() *cellgrid.Grid { return sb.grid }

// Cursor returns the current cursor position.
func (sb *ScreenBuffer) Cursor() cellgrid.Point { return sb.cursor }

// SetCursorPosition moves the cursor, clamping into buffer bounds.
func (sb *ScreenBuffer) SetCursorPosition(p cellgrid.Point) {
	if p.X < 0 {
		p.X = 0
	}
	if p.X >= sb.Size.X {
		p.X = sb.Size.X - 1
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.Y >= sb.Size.Y {
		p.Y = sb.Size.Y - 1
	}
	sb.cursor = p
	sb.clearDelayedWrap()
	sb.bump()
}

// CursorSize returns the cursor's appearance percentage (1..100).
func (sb *ScreenBuffer) CursorSize() int { return sb.cursorSize }

// CursorVisible reports whether the cursor is rendered.
func (sb *ScreenBuffer) CursorVisible() bool { return sb.cursorVisible }

// SetCursorInfo sets cursor size (clamped 1..100) and visibility.
func (sb *ScreenBuffer) SetCursorInfo(size int, visible bool) {
	if size < 1 {
		size = 1
	}
	if size > 100 {
		size = 100
	}
	sb.cursorSize = size
	sb.cursorVisible = visible
	sb.bump()
}

// TextAttrs returns the current SGR attribute word applied to new writes.
func (sb *ScreenBuffer) TextAttrs() uint16 { return sb.textAttrs }

// SetTextAttrs sets the current SGR attribute word directly (used by
// SetTextAttribute and SetScreenBufferInfo).
func (sb *ScreenBuffer) SetTextAttrs(attrs uint16) {
	sb.textAttrs = attrs
	sb.bump()
}

// DefaultTextAttrs returns the reset-target attribute word.
func (sb *ScreenBuffer) DefaultTextAttrs() uint16 { return sb.defaultTextAttrs }

// Palette returns a copy of the 16-entry color table.
func (sb *ScreenBuffer) Palette() [16]RGB { return sb.palette }

// SetPalette replaces a single palette entry (0..15).
func (sb *ScreenBuffer) SetPalette(index int, c RGB) {
	if index < 0 || index > 15 {
		return
	}
	sb.palette[index] = c
	sb.bump()
}

// Viewport returns the current inclusive viewport rectangle.
func (sb *ScreenBuffer) Viewport() cellgrid.Rect { return sb.viewport }

// SetViewport validates and installs a new viewport. Fails (returns
// false) if the rect is inverted or not contained in the buffer.
func (sb *ScreenBuffer) SetViewport(r cellgrid.Rect) bool {
	if r.Empty() {
		return false
	}
	full := sb.grid.FullRect()
	if r.Left < full.Left || r.Top < full.Top || r.Right > full.Right || r.Bottom > full.Bottom {
		return false
	}
	if r.Width() > MaxWindow.X || r.Height() > MaxWindow.Y {
		return false
	}
	sb.viewport = r
	sb.bump()
	return true
}

// SnapWindowToCursor translates the viewport minimally so the cursor
// lies inside it, without changing its dimensions.
func (sb *ScreenBuffer) SnapWindowToCursor() {
	v := sb.viewport
	if sb.cursor.X < v.Left {
		shift := v.Left - sb.cursor.X
		v.Left -= shift
		v.Right -= shift
	} else if sb.cursor.X > v.Right {
		shift := sb.cursor.X - v.Right
		v.Left += shift
		v.Right += shift
	}
	if sb.cursor.Y < v.Top {
		shift := v.Top - sb.cursor.Y
		v.Top -= shift
		v.Bottom -= shift
	} else if sb.cursor.Y > v.Bottom {
		shift := sb.cursor.Y - v.Bottom
		v.Top += shift
		v.Bottom += shift
	}
	sb.viewport = v
	sb.bump()
}

// SetSize reallocates the grid, preserving the top-left min(old,new)
// subrectangle (remainder filled with DefaultCell), and clamps cursor
// and viewport into the new bounds.
func (sb *ScreenBuffer) SetSize(newSize cellgrid.Point) bool {
	if newSize.X <= 0 || newSize.Y <= 0 {
		return false
	}
	old := sb.grid
	next := cellgrid.New(newSize)
	minX := old.Size.X
	if newSize.X < minX {
		minX = newSize.X
	}
	minY := old.Size.Y
	if newSize.Y < minY {
		minY = newSize.Y
	}
	if minX > 0 && minY > 0 {
		rect := cellgrid.Rect{Left: 0, Top: 0, Right: minX - 1, Bottom: minY - 1}
		next.WriteRect(rect, old.ReadRect(rect))
	}
	sb.grid = next
	sb.Size = newSize

	if sb.cursor.X >= newSize.X {
		sb.cursor.X = newSize.X - 1
	}
	if sb.cursor.Y >= newSize.Y {
		sb.cursor.Y = newSize.Y - 1
	}

	full := next.FullRect()
	v := sb.viewport
	if v.Right > full.Right {
		v.Right = full.Right
	}
	if v.Bottom > full.Bottom {
		v.Bottom = full.Bottom
	}
	if v.Left > v.Right {
		v.Left = full.Left
	}
	if v.Top > v.Bottom {
		v.Top = full.Top
	}
	sb.viewport = v
	sb.clearDelayedWrap()
	sb.bump()
	return true
}

// SaveCursorState stores (position, attributes, delayed-wrap,
// origin-mode) for a later RestoreCursorState (DECSC).
func (sb *ScreenBuffer) SaveCursorState() {
	sb.savedCursor = &SavedCursor{
		Pos:         sb.cursor,
		Attrs:       sb.textAttrs,
		DelayedWrap: sb.delayedWrapPos != nil,
		OriginMode:  sb.originMode,
	}
}

// RestoreCursorState retrieves a previously saved tuple (DECRC). A
// no-op if nothing was ever saved.
func (sb *ScreenBuffer) RestoreCursorState() {
	if sb.savedCursor == nil {
		return
	}
	s := *sb.savedCursor
	sb.cursor = s.Pos
	sb.textAttrs = s.Attrs
	sb.originMode = s.OriginMode
	if s.DelayedWrap {
		p := sb.cursor
		sb.delayedWrapPos = &p
	} else {
		sb.delayedWrapPos = nil
	}
	sb.bump()
}

func (sb *ScreenBuffer) clearDelayedWrap() { sb.delayedWrapPos = nil }

// DelayedWrapPos returns the "last column flag" cell position, if set.
func (sb *ScreenBuffer) DelayedWrapPos() *cellgrid.Point { return sb.delayedWrapPos }

// IsAlternate reports whether the alternate screen buffer is active.
func (sb *ScreenBuffer) IsAlternate() bool { return sb.alt != nil }

// ScrollRegion returns the active scroll region, or the full buffer height
// if none is set.
func (sb *ScreenBuffer) ScrollRegion() (top, bottom int16) {
	if sb.margins != nil {
		return sb.margins.Top, sb.margins.Bottom
	}
	return 0, sb.Size.Y - 1
}

// SetVTUsingAlternateScreenBuffer enables or disables the alternate
// screen buffer (DECSET 1049). Enabling when already alternate, or
// disabling when already main, is a no-op.
func (sb *ScreenBuffer) SetVTUsingAlternateScreenBuffer(enable bool, fillCh uint16, fillAttrs uint16) {
	if enable {
		if sb.alt != nil {
			return
		}
		var savedCopy *SavedCursor
		if sb.savedCursor != nil {
			c := *sb.savedCursor
			savedCopy = &c
		}
		var marginsCopy *Margins
		if sb.margins != nil {
			m := *sb.margins
			marginsCopy = &m
		}
		var dwCopy *cellgrid.Point
		if sb.delayedWrapPos != nil {
			p := *sb.delayedWrapPos
			dwCopy = &p
		}
		sb.alt = &altBackup{
			grid:        sb.grid,
			cursor:      sb.cursor,
			attrs:       sb.textAttrs,
			margins:     marginsCopy,
			delayedWrap: dwCopy,
			originMode:  sb.originMode,
			savedCursor: savedCopy,
		}
		sb.grid = cellgrid.New(sb.Size)
		sb.grid.FillCells(cellgrid.Point{}, cellgrid.Cell{Char: fillCh, Attrs: fillAttrs}, int(sb.Size.X)*int(sb.Size.Y))
		sb.cursor = cellgrid.Point{}
		sb.margins = nil
		sb.delayedWrapPos = nil
		sb.bump()
		return
	}

	if sb.alt == nil {
		return
	}
	b := sb.alt
	sb.grid = b.grid
	sb.cursor = b.cursor
	sb.textAttrs = b.attrs
	sb.margins = b.margins
	sb.delayedWrapPos = b.delayedWrap
	sb.originMode = b.originMode
	sb.savedCursor = b.savedCursor
	sb.alt = nil
	sb.bump()
}
