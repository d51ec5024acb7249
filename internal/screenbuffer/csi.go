package screenbuffer

import (
	"fmt"

	"github.com/condrv-project/condrv/internal/cellgrid"
)

func (sb *ScreenBuffer) csiAccumulate(ch uint16, mode OutputMode, io HostIO) {
	sb.parser.csiLen++
	if sb.parser.csiLen > maxCSILength {
		sb.parser.reset()
		return
	}
	b := byte(ch)
	switch {
	case b == '?' || b == '!':
		if len(sb.parser.csiParams) == 0 && !sb.parser.csiParamStarted {
			sb.parser.csiPrivate = b
		}
	case b >= '0' && b <= '9':
		if !sb.parser.csiParamStarted {
			if len(sb.parser.csiParams) >= maxCSIParams {
				return
			}
			sb.parser.csiParams = append(sb.parser.csiParams, 0)
			sb.parser.csiParamStarted = true
		}
		idx := len(sb.parser.csiParams) - 1
		v := sb.parser.csiParams[idx]*10 + int(b-'0')
		if v > maxParamValue {
			v = maxParamValue
		}
		sb.parser.csiParams[idx] = v
	case b == ';':
		if !sb.parser.csiParamStarted && len(sb.parser.csiParams) < maxCSIParams {
			sb.parser.csiParams = append(sb.parser.csiParams, 0)
		}
		sb.parser.csiParamStarted = false
	case b >= 0x40 && b <= 0x7E:
		sb.dispatchCSI(b, mode, io)
		sb.parser.reset()
	default:
		// unsupported intermediate byte; ignored.
	}
}

func (sb *ScreenBuffer) param(i, def int) int {
	if i < 0 || i >= len(sb.parser.csiParams) {
		return def
	}
	if sb.parser.csiParams[i] == 0 {
		return def
	}
	return sb.parser.csiParams[i]
}

func (sb *ScreenBuffer) rawParam(i, def int) int {
	if i < 0 || i >= len(sb.parser.csiParams) {
		return def
	}
	return sb.parser.csiParams[i]
}

func (sb *ScreenBuffer) dispatchCSI(final byte, mode OutputMode, io HostIO) {
	private := sb.parser.csiPrivate

	switch final {
	case 'm':
		sb.applySGR()
	case 'n':
		sb.dispatchDSR(private, io)
	case 'H', 'f':
		sb.cursorPosition(sb.param(0, 1), sb.param(1, 1))
	case 'G', '`':
		sb.cursorColumn(sb.param(0, 1))
	case 'd':
		sb.cursorRow(sb.param(0, 1))
	case 'E':
		sb.cursor.X = 0
		sb.moveCursorY(sb.param(0, 1))
	case 'F':
		sb.cursor.X = 0
		sb.moveCursorY(-sb.param(0, 1))
	case 'A':
		sb.moveCursorY(-sb.param(0, 1))
	case 'B':
		sb.moveCursorY(sb.param(0, 1))
	case 'C':
		sb.moveCursorX(sb.param(0, 1))
	case 'D':
		sb.moveCursorX(-sb.param(0, 1))
	case '@':
		sb.insertBlanks(sb.param(0, 1))
	case 'P':
		sb.deleteChars(sb.param(0, 1))
	case 'X':
		sb.eraseChars(sb.param(0, 1))
	case 'r':
		sb.setMargins(sb.rawParam(0, 0), sb.rawParam(1, 0))
	case 'S':
		sb.scrollRegionBy(sb.param(0, 1))
	case 'T':
		sb.scrollRegionBy(-sb.param(0, 1))
	case 'L':
		sb.insertLines(sb.param(0, 1))
	case 'M':
		sb.deleteLines(sb.param(0, 1))
	case 'J':
		sb.eraseDisplay(sb.rawParam(0, 0))
	case 'K':
		sb.eraseLine(sb.rawParam(0, 0))
	case 'p':
		if private == '!' {
			sb.softReset()
		}
	case 's':
		if len(sb.parser.csiParams) == 0 {
			sb.SaveCursorState()
		}
	case 'u':
		sb.restoreCursorClamped()
	case 'h':
		sb.setMode(private, true)
	case 'l':
		sb.setMode(private, false)
	}
}

func (sb *ScreenBuffer) effectiveCursorBounds() (top, bottom int16) {
	if sb.originMode {
		return sb.ScrollRegion()
	}
	vp := sb.Viewport()
	return vp.Top, vp.Bottom
}

func (sb *ScreenBuffer) cursorPosition(row, col int) {
	top, bottom := sb.effectiveCursorBounds()
	y := top + int16(row-1)
	if y > bottom {
		y = bottom
	}
	if y < top {
		y = top
	}
	x := int16(col - 1)
	if x < 0 {
		x = 0
	}
	if x >= sb.Size.X {
		x = sb.Size.X - 1
	}
	sb.cursor = cellgrid.Point{X: x, Y: y}
	sb.clearDelayedWrap()
	sb.bump()
}

func (sb *ScreenBuffer) cursorColumn(col int) {
	x := int16(col - 1)
	if x < 0 {
		x = 0
	}
	if x >= sb.Size.X {
		x = sb.Size.X - 1
	}
	sb.cursor.X = x
	sb.clearDelayedWrap()
	sb.bump()
}

func (sb *ScreenBuffer) cursorRow(row int) {
	top, bottom := sb.effectiveCursorBounds()
	y := top + int16(row-1)
	if y > bottom {
		y = bottom
	}
	if y < top {
		y = top
	}
	sb.cursor.Y = y
	sb.clearDelayedWrap()
	sb.bump()
}

func (sb *ScreenBuffer) moveCursorY(n int) {
	top, bottom := sb.effectiveCursorBounds()
	y := sb.cursor.Y + int16(n)
	if y < top {
		y = top
	}
	if y > bottom {
		y = bottom
	}
	sb.cursor.Y = y
	sb.clearDelayedWrap()
	sb.bump()
}

func (sb *ScreenBuffer) moveCursorX(n int) {
	x := sb.cursor.X + int16(n)
	if x < 0 {
		x = 0
	}
	if x >= sb.Size.X {
		x = sb.Size.X - 1
	}
	sb.cursor.X = x
	sb.clearDelayedWrap()
	sb.bump()
}

func (sb *ScreenBuffer) insertBlanks(n int) {
	for i := 0; i < n; i++ {
		sb.grid.InsertCell(sb.cursor, cellgrid.Cell{Char: ' ', Attrs: sb.textAttrs})
	}
	sb.clearDelayedWrap()
	sb.bump()
}

func (sb *ScreenBuffer) deleteChars(n int) {
	for i := 0; i < n; i++ {
		sb.grid.DeleteCell(sb.cursor, cellgrid.Cell{Char: ' ', Attrs: sb.textAttrs})
	}
	sb.clearDelayedWrap()
	sb.bump()
}

func (sb *ScreenBuffer) eraseChars(n int) {
	sb.grid.FillCells(sb.cursor, cellgrid.Cell{Char: ' ', Attrs: sb.textAttrs}, n)
	sb.clearDelayedWrap()
	sb.bump()
}

func (sb *ScreenBuffer) setMargins(top, bottom int) {
	if top == 0 && bottom == 0 {
		sb.margins = nil
		sb.homeCursor()
		sb.bump()
		return
	}
	if bottom == 0 {
		bottom = int(sb.Size.Y)
	}
	t, b := int16(top-1), int16(bottom-1)
	if t < 0 {
		t = 0
	}
	if b >= sb.Size.Y {
		b = sb.Size.Y - 1
	}
	if t >= b {
		return
	}
	if t == 0 && b == sb.Size.Y-1 {
		sb.margins = nil
	} else {
		sb.margins = &Margins{Top: t, Bottom: b}
	}
	sb.homeCursor()
	sb.bump()
}

func (sb *ScreenBuffer) homeCursor() {
	if sb.originMode {
		top, _ := sb.ScrollRegion()
		sb.cursor = cellgrid.Point{X: 0, Y: top}
	} else {
		sb.cursor = cellgrid.Point{X: 0, Y: 0}
	}
	sb.clearDelayedWrap()
}

func (sb *ScreenBuffer) scrollRegionBy(n int) {
	top, bottom := sb.ScrollRegion()
	region := cellgrid.Rect{Left: 0, Top: top, Right: sb.Size.X - 1, Bottom: bottom}
	sb.grid.Scroll(region, region, cellgrid.Point{X: 0, Y: top - int16(n)}, cellgrid.Cell{Char: ' ', Attrs: sb.defaultTextAttrs})
	sb.bump()
}

func (sb *ScreenBuffer) insertLines(n int) {
	top, bottom := sb.ScrollRegion()
	if sb.cursor.Y < top || sb.cursor.Y > bottom {
		return
	}
	region := cellgrid.Rect{Left: 0, Top: sb.cursor.Y, Right: sb.Size.X - 1, Bottom: bottom}
	sb.grid.Scroll(region, region, cellgrid.Point{X: 0, Y: sb.cursor.Y + int16(n)}, cellgrid.Cell{Char: ' ', Attrs: sb.defaultTextAttrs})
	sb.clearDelayedWrap()
	sb.bump()
}

func (sb *ScreenBuffer) deleteLines(n int) {
	top, bottom := sb.ScrollRegion()
	if sb.cursor.Y < top || sb.cursor.Y > bottom {
		return
	}
	region := cellgrid.Rect{Left: 0, Top: sb.cursor.Y, Right: sb.Size.X - 1, Bottom: bottom}
	sb.grid.Scroll(region, region, cellgrid.Point{X: 0, Y: sb.cursor.Y - int16(n)}, cellgrid.Cell{Char: ' ', Attrs: sb.defaultTextAttrs})
	sb.clearDelayedWrap()
	sb.bump()
}

func (sb *ScreenBuffer) eraseDisplay(mode int) {
	fill := cellgrid.Cell{Char: ' ', Attrs: sb.defaultTextAttrs}
	full := sb.grid.FullRect()
	switch mode {
	case 0:
		sb.grid.FillCells(sb.cursor, fill, rowMajorRemaining(sb.cursor, sb.Size))
	case 1:
		n := rowMajorIndex(sb.cursor, sb.Size) + 1
		sb.grid.FillCells(cellgrid.Point{}, fill, n)
	case 2, 3:
		sb.grid.FillCells(cellgrid.Point{}, fill, int(full.Width())*int(full.Height()))
	}
	sb.clearDelayedWrap()
	sb.bump()
}

func (sb *ScreenBuffer) eraseLine(mode int) {
	fill := cellgrid.Cell{Char: ' ', Attrs: sb.defaultTextAttrs}
	switch mode {
	case 0:
		sb.grid.FillCells(sb.cursor, fill, int(sb.Size.X-sb.cursor.X))
	case 1:
		sb.grid.FillCells(cellgrid.Point{X: 0, Y: sb.cursor.Y}, fill, int(sb.cursor.X)+1)
	case 2:
		sb.grid.FillCells(cellgrid.Point{X: 0, Y: sb.cursor.Y}, fill, int(sb.Size.X))
	}
	sb.clearDelayedWrap()
	sb.bump()
}

func rowMajorIndex(p cellgrid.Point, size cellgrid.Point) int {
	return int(p.Y)*int(size.X) + int(p.X)
}

func rowMajorRemaining(p cellgrid.Point, size cellgrid.Point) int {
	return int(size.X)*int(size.Y) - rowMajorIndex(p, size)
}

func (sb *ScreenBuffer) softReset() {
	sb.cursorVisible = true
	sb.autowrap = true
	sb.originMode = false
	sb.insertMode = false
	sb.margins = nil
	sb.textAttrs = sb.defaultTextAttrs
	sb.savedCursor = &SavedCursor{Pos: cellgrid.Point{}, Attrs: sb.defaultTextAttrs}
	sb.clearDelayedWrap()
	sb.bump()
}

func (sb *ScreenBuffer) restoreCursorClamped() {
	sb.RestoreCursorState()
	if sb.cursor.X >= sb.Size.X {
		sb.cursor.X = sb.Size.X - 1
	}
	if sb.cursor.Y >= sb.Size.Y {
		sb.cursor.Y = sb.Size.Y - 1
	}
	if sb.originMode {
		top, bottom := sb.ScrollRegion()
		if sb.cursor.Y < top {
			sb.cursor.Y = top
		}
		if sb.cursor.Y > bottom {
			sb.cursor.Y = bottom
		}
	}
}

func (sb *ScreenBuffer) dispatchDSR(private byte, io HostIO) {
	if !io.ShouldAnswerQueries() {
		return
	}
	switch sb.rawParam(0, 0) {
	case 5:
		io.InjectInputBytes([]byte("\x1b[0n"))
	case 6:
		top, _ := sb.effectiveCursorBounds()
		row := int(sb.cursor.Y-top) + 1
		col := int(sb.cursor.X) + 1
		if private == '?' {
			io.InjectInputBytes([]byte(fmt.Sprintf("\x1b[?%d;%d;1R", row, col)))
		} else {
			io.InjectInputBytes([]byte(fmt.Sprintf("\x1b[%d;%dR", row, col)))
		}
	}
}

func (sb *ScreenBuffer) setMode(private byte, enable bool) {
	if private == 0 {
		switch sb.rawParam(0, 0) {
		case 4:
			sb.insertMode = enable
		}
		return
	}
	switch sb.rawParam(0, 0) {
	case 25:
		sb.cursorVisible = enable
	case 6:
		sb.originMode = enable
		sb.homeCursor()
	case 7:
		sb.autowrap = enable
		sb.clearDelayedWrap()
	case 1049:
		fillAttrs := sb.defaultTextAttrs
		sb.SetVTUsingAlternateScreenBuffer(enable, ' ', fillAttrs)
	}
	sb.bump()
}
