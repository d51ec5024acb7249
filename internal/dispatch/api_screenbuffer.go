package dispatch

import (
	"github.com/condrv-project/condrv/internal/cellgrid"
	"github.com/condrv-project/condrv/internal/screenbuffer"
	"github.com/condrv-project/condrv/internal/server"
	"github.com/condrv-project/condrv/internal/transport"
)

// dispatchScreenBufferAPI covers the screen-buffer inspection/mutation
// group of spec §6.3.
func (e *Engine) dispatchScreenBufferAPI(api APINumber, pkt *transport.Packet, body []byte, h *server.Handle, hasHandle bool) Result {
	// Get/SetTitle don't strictly need an output handle with a buffer;
	// the rest, SetActiveScreenBuffer included, do.
	switch api {
	case APISetActiveScreenBuffer:
		if !hasHandle || h.Kind != server.KindOutput || h.ScreenBuffer == nil {
			return status(transport.StatusInvalidHandle)
		}
		e.State.SetActiveScreenBuffer(h.ScreenBuffer)
		return ok(0)

	case APIGetTitle:
		r := newReader(body)
		unicode := r.bool()
		original := r.bool()
		title := e.State.Title()
		if original {
			title = e.State.OriginalTitle()
		}
		w := newWriter(pkt.Output)
		if unicode {
			payload := utf16ToBytes(stringToUTF16(title))
			if len(payload) > len(pkt.Output) {
				return status(transport.StatusBufferTooSmall)
			}
			w.bytes(payload)
			return ok(uint32(len(payload)))
		}
		ansi := []byte(title)
		if len(ansi)+1 > len(pkt.Output) {
			// ANSI read is "all or nothing" (spec §4.6.1): a single NUL,
			// with information=1 when the title itself is non-empty.
			w.byteVal(0)
			if len(ansi) > 0 {
				return ok(1)
			}
			return ok(0)
		}
		w.bytes(ansi)
		w.byteVal(0)
		return ok(uint32(len(ansi)))

	case APISetTitle:
		r := newReader(body)
		unicode := r.bool()
		raw := r.rest()
		if unicode {
			if len(raw)%2 != 0 {
				return status(transport.StatusInvalidParameter)
			}
			e.State.SetTitle(utf16ToString(bytesToUTF16(raw)))
			return ok(0)
		}
		e.State.SetTitle(string(raw))
		return ok(0)
	}

	if !hasHandle || h.Kind != server.KindOutput || h.ScreenBuffer == nil {
		return status(transport.StatusInvalidHandle)
	}
	sb := h.ScreenBuffer

	switch api {
	case APIGetScreenBufferInfo:
		w := newWriter(pkt.Output)
		w.i16(sb.Grid().Size.X)
		w.i16(sb.Grid().Size.Y)
		cur := sb.Cursor()
		w.i16(cur.X)
		w.i16(cur.Y)
		w.u16(sb.TextAttrs())
		vp := sb.Viewport()
		w.i16(vp.Left)
		w.i16(vp.Top)
		w.i16(vp.Right)
		w.i16(vp.Bottom)
		mw := e.State.MaxWindowSize()
		w.i16(mw.X)
		w.i16(mw.Y)
		return ok(uint32(w.len()))

	case APISetScreenBufferInfo:
		r := newReader(body)
		attrs := r.u16()
		left, top, right, bottom := r.i16(), r.i16(), r.i16(), r.i16()
		sb.SetTextAttrs(attrs)
		sb.SetViewport(cellgrid.Rect{Left: left, Top: top, Right: right, Bottom: bottom})
		return ok(0)

	case APISetScreenBufferSize:
		r := newReader(body)
		x, y := r.i16(), r.i16()
		if !sb.SetSize(cellgrid.Point{X: x, Y: y}) {
			return status(transport.StatusInvalidParameter)
		}
		return ok(0)

	case APIGetCursorInfo:
		w := newWriter(pkt.Output)
		w.i32(int32(sb.CursorSize()))
		w.bool(sb.CursorVisible())
		return ok(uint32(w.len()))

	case APISetCursorInfo:
		r := newReader(body)
		size := int(r.i32())
		visible := r.bool()
		sb.SetCursorInfo(size, visible)
		return ok(0)

	case APISetCursorPosition:
		r := newReader(body)
		x, y := r.i16(), r.i16()
		sb.SetCursorPosition(cellgrid.Point{X: x, Y: y})
		return ok(0)

	case APIGetLargestWindowSize:
		w := newWriter(pkt.Output)
		mw := e.State.MaxWindowSize()
		w.i16(mw.X)
		w.i16(mw.Y)
		return ok(uint32(w.len()))

	case APISetTextAttribute:
		r := newReader(body)
		sb.SetTextAttrs(r.u16())
		return ok(0)

	case APISetWindowInfo:
		r := newReader(body)
		left, top, right, bottom := r.i16(), r.i16(), r.i16(), r.i16()
		if !sb.SetViewport(cellgrid.Rect{Left: left, Top: top, Right: right, Bottom: bottom}) {
			return status(transport.StatusInvalidParameter)
		}
		return ok(0)

	case APIScrollScreenBuffer:
		return e.apiScroll(pkt, body, sb)

	case APIFillConsoleOutput:
		return e.apiFill(pkt, body, sb)

	case APIReadConsoleOutputString:
		return e.apiReadOutputString(pkt, body, sb)

	case APIWriteConsoleOutputString:
		return e.apiWriteOutputString(pkt, body, sb)

	case APIReadConsoleOutput:
		return e.apiReadOutputRect(pkt, body, sb)

	case APIWriteConsoleOutput:
		return e.apiWriteOutputRect(pkt, body, sb)
	}
	return status(transport.StatusNotImplemented)
}

func (e *Engine) apiScroll(pkt *transport.Packet, body []byte, sb *screenbuffer.ScreenBuffer) Result {
	r := newReader(body)
	src := readRect(r)
	clip := readRect(r)
	destX, destY := r.i16(), r.i16()
	fillChar := r.u16()
	fillAttrs := r.u16()
	moved := sb.Grid().Scroll(src, clip, cellgrid.Point{X: destX, Y: destY}, cellgrid.Cell{Char: fillChar, Attrs: fillAttrs})
	if !moved {
		return status(transport.StatusInvalidParameter)
	}
	sb.MarkDirty()
	return ok(0)
}

func (e *Engine) apiFill(pkt *transport.Packet, body []byte, sb *screenbuffer.ScreenBuffer) Result {
	r := newReader(body)
	mode := r.byteVal()
	originX, originY := r.i16(), r.i16()
	ch := r.u16()
	attrs := r.u16()
	length := int(r.u32())

	origin := cellgrid.Point{X: originX, Y: originY}
	var n int
	switch mode {
	case 0:
		n = sb.Grid().FillChars(origin, ch, length)
	case 1:
		n = sb.Grid().FillAttrs(origin, attrs, length)
	default:
		n = sb.Grid().FillCells(origin, cellgrid.Cell{Char: ch, Attrs: attrs}, length)
	}
	if n > 0 {
		sb.MarkDirty()
	}
	w := newWriter(pkt.Output)
	w.u32(uint32(n))
	return ok(uint32(w.len()))
}

func (e *Engine) apiReadOutputString(pkt *transport.Packet, body []byte, sb *screenbuffer.ScreenBuffer) Result {
	r := newReader(body)
	mode := r.byteVal()
	originX, originY := r.i16(), r.i16()
	length := int(r.u32())
	origin := cellgrid.Point{X: originX, Y: originY}

	dest := make([]uint16, length)
	var n int
	if mode == 0 {
		n = sb.Grid().ReadChars(origin, dest)
	} else {
		n = sb.Grid().ReadAttrs(origin, dest)
	}
	payload := utf16ToBytes(dest[:n])
	if len(payload) > len(pkt.Output) {
		return status(transport.StatusBufferTooSmall)
	}
	w := newWriter(pkt.Output)
	w.bytes(payload)
	return ok(uint32(len(payload)))
}

func (e *Engine) apiWriteOutputString(pkt *transport.Packet, body []byte, sb *screenbuffer.ScreenBuffer) Result {
	r := newReader(body)
	mode := r.byteVal()
	originX, originY := r.i16(), r.i16()
	units := bytesToUTF16(r.rest())

	origin := cellgrid.Point{X: originX, Y: originY}
	n := writeLinear(sb, origin, units, mode)
	if n > 0 {
		sb.MarkDirty()
	}
	w := newWriter(pkt.Output)
	w.u32(uint32(n))
	return ok(uint32(w.len()))
}

// writeLinear writes units starting at origin in row-major order
// (matching FillChars' wrap-across-rows semantics), either as
// characters (mode 0) or attribute words (mode != 0), preserving the
// other half of each touched cell.
func writeLinear(sb *screenbuffer.ScreenBuffer, origin cellgrid.Point, units []uint16, mode byte) int {
	g := sb.Grid()
	width := int(g.Size.X)
	total := int(g.Size.X) * int(g.Size.Y)
	start := int(origin.Y)*width + int(origin.X)
	n := 0
	for i, u := range units {
		idx := start + i
		if idx < 0 || idx >= total {
			break
		}
		p := cellgrid.Point{X: int16(idx % width), Y: int16(idx / width)}
		c, _ := g.Cell(p)
		if mode == 0 {
			c.Char = u
		} else {
			c.Attrs = u
		}
		g.SetCell(p, c)
		n++
	}
	return n
}

func (e *Engine) apiReadOutputRect(pkt *transport.Packet, body []byte, sb *screenbuffer.ScreenBuffer) Result {
	rect := readRect(newReader(body))
	cells := sb.Grid().ReadRect(rect)
	w := newWriter(pkt.Output)
	for _, c := range cells {
		w.u16(c.Char)
		w.u16(c.Attrs)
	}
	return ok(uint32(w.len()))
}

func (e *Engine) apiWriteOutputRect(pkt *transport.Packet, body []byte, sb *screenbuffer.ScreenBuffer) Result {
	r := newReader(body)
	rect := readRect(r)
	n := int(rect.Width()) * int(rect.Height())
	if n <= 0 {
		return status(transport.StatusInvalidParameter)
	}
	cells := make([]cellgrid.Cell, n)
	for i := range cells {
		cells[i] = cellgrid.Cell{Char: r.u16(), Attrs: r.u16()}
	}
	if !r.ok() {
		return status(transport.StatusInvalidParameter)
	}
	sb.Grid().WriteRect(rect, cells)
	sb.MarkDirty()
	return ok(0)
}

func readRect(r *reader) cellgrid.Rect {
	return cellgrid.Rect{Left: r.i16(), Top: r.i16(), Right: r.i16(), Bottom: r.i16()}
}
