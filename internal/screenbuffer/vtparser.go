package screenbuffer

import "github.com/condrv-project/condrv/internal/cellgrid"

// phase is the VT parser's current state (spec §4.3.4). Modeled as a
// tagged variant with explicit accumulator fields rather than a class
// hierarchy, per the design notes on avoiding deep dispatch trees.
type phase int

const (
	phaseGround phase = iota
	phaseEscape
	phaseEscDispatch
	phaseCSI
	phaseOSC
	phaseOSCEscape
	phaseString
	phaseStringEscape
)

const (
	maxCSIParams        = 16
	maxParamValue       = 1<<20 - 1 // at least 20 bits per spec
	maxCSILength        = 128
	maxOSCLength        = 4096
	maxEscIntermediates = 4
)

// parserState is the VT parser's scratch state, embedded in
// ScreenBuffer so save/restore of the buffer also carries any
// in-flight escape sequence.
type parserState struct {
	phase phase

	escIntermediates []byte

	csiParams       []int
	csiParamStarted bool
	csiPrivate      byte // '?' or '!' or 0
	csiLen          int

	oscCode     int
	oscHaveSemi bool
	oscBuf      []byte
}

func (p *parserState) reset() {
	p.phase = phaseGround
	p.escIntermediates = p.escIntermediates[:0]
	p.csiParams = p.csiParams[:0]
	p.csiParamStarted = false
	p.csiPrivate = 0
	p.csiLen = 0
	p.oscCode = 0
	p.oscHaveSemi = false
	p.oscBuf = p.oscBuf[:0]
}

// Apply mutates sb according to the wide-character stream text, under
// the given output mode, optionally reporting title changes and
// injecting VT query responses (spec §4.3).
func (sb *ScreenBuffer) Apply(text []uint16, mode OutputMode, titles TitleSink, io HostIO) {
	if titles == nil {
		titles = NoopTitleSink{}
	}
	if io == nil {
		io = NoopHostIO{}
	}
	for _, ch := range text {
		sb.applyChar(ch, mode, titles, io)
	}
}

func (sb *ScreenBuffer) applyChar(ch uint16, mode OutputMode, titles TitleSink, io HostIO) {
	if sb.parser.phase == phaseGround {
		if sb.enterEscapeState(ch) {
			return
		}
		if mode.Has(ModeProcessed) {
			switch ch {
			case '\r':
				sb.cursor.X = 0
				sb.clearDelayedWrap()
				sb.bump()
				return
			case '\n':
				sb.lineFeed()
				if !mode.Has(ModeDisableNewlineAutoReturn) {
					sb.cursor.X = 0
				}
				sb.bump()
				return
			case '\b':
				if sb.cursor.X > 0 {
					sb.cursor.X--
				}
				sb.clearDelayedWrap()
				sb.bump()
				return
			case '\t':
				next := (sb.cursor.X/8 + 1) * 8
				for sb.cursor.X < next && sb.cursor.X < sb.Size.X {
					sb.writePrintable(' ', mode)
				}
				return
			}
		}
		sb.writePrintable(ch, mode)
		return
	}

	sb.applyEscapeChar(ch, mode, titles, io)
}

// enterEscapeState recognizes the phase-transition bytes that are
// always active in ground state, independent of cooked-output mode.
// Returns true if it consumed ch.
func (sb *ScreenBuffer) enterEscapeState(ch uint16) bool {
	switch ch {
	case 0x1B: // ESC
		sb.parser.reset()
		sb.parser.phase = phaseEscape
		return true
	case 0x9B: // CSI (C1)
		sb.parser.reset()
		sb.parser.phase = phaseCSI
		return true
	case 0x9D: // OSC (C1)
		sb.parser.reset()
		sb.parser.phase = phaseOSC
		return true
	case 0x9C: // ST (C1) - no-op outside a string
		return true
	case 0x90, 0x98, 0x9E, 0x9F: // DCS, SOS, PM, APC (C1)
		sb.parser.reset()
		sb.parser.phase = phaseString
		return true
	}
	return false
}

func (sb *ScreenBuffer) applyEscapeChar(ch uint16, mode OutputMode, titles TitleSink, io HostIO) {
	switch sb.parser.phase {
	case phaseEscape:
		sb.escapeDispatch(ch)
	case phaseEscDispatch:
		sb.escDispatchAccumulate(ch)
	case phaseCSI:
		sb.csiAccumulate(ch, mode, io)
	case phaseOSC:
		sb.oscAccumulate(ch, titles)
	case phaseOSCEscape:
		if ch == '\\' {
			sb.commitOSC(titles)
		} else {
			sb.parser.phase = phaseOSC
			sb.oscAccumulate(ch, titles)
		}
	case phaseString:
		if ch == 0x1B {
			sb.parser.phase = phaseStringEscape
		} else if ch == 0x9C {
			sb.parser.reset()
		}
	case phaseStringEscape:
		if ch == '\\' {
			sb.parser.reset()
		} else {
			sb.parser.phase = phaseString
		}
	}
}

func (sb *ScreenBuffer) escapeDispatch(ch uint16) {
	switch ch {
	case '[':
		sb.parser.phase = phaseCSI
	case ']':
		sb.parser.phase = phaseOSC
	case 'P', '^', '_', 'X':
		sb.parser.phase = phaseString
	case '7':
		sb.saveCursorDEC()
		sb.parser.reset()
	case '8':
		sb.RestoreCursorState()
		sb.parser.reset()
	case 'D':
		sb.lineFeed()
		sb.bump()
		sb.parser.reset()
	case 'M':
		sb.reverseLineFeed()
		sb.bump()
		sb.parser.reset()
	case 'E':
		sb.cursor.X = 0
		sb.lineFeed()
		sb.bump()
		sb.parser.reset()
	case 'c':
		sb.hardReset()
		sb.parser.reset()
	case '\\':
		sb.parser.reset()
	default:
		if ch >= 0x20 && ch <= 0x2F {
			sb.parser.phase = phaseEscDispatch
			sb.parser.escIntermediates = append(sb.parser.escIntermediates, byte(ch))
		} else {
			sb.parser.reset()
		}
	}
}

func (sb *ScreenBuffer) escDispatchAccumulate(ch uint16) {
	if ch >= 0x20 && ch <= 0x2F {
		if len(sb.parser.escIntermediates) >= maxEscIntermediates {
			sb.parser.reset()
			return
		}
		sb.parser.escIntermediates = append(sb.parser.escIntermediates, byte(ch))
		return
	}
	if ch >= 0x30 && ch <= 0x7E {
		sb.dispatchEscFinal(byte(ch))
		sb.parser.reset()
		return
	}
	sb.parser.reset()
}

func (sb *ScreenBuffer) dispatchEscFinal(final byte) {
	if final == '8' && len(sb.parser.escIntermediates) == 1 && sb.parser.escIntermediates[0] == '#' {
		sb.decaln()
	}
}

// saveCursorDEC implements DECSC (ESC 7), identical storage to
// SaveCursorState but named for call-site clarity.
func (sb *ScreenBuffer) saveCursorDEC() { sb.SaveCursorState() }

func (sb *ScreenBuffer) decaln() {
	n := int(sb.Size.X) * int(sb.Size.Y)
	sb.grid.FillCells(cellgrid.Point{}, cellgrid.Cell{Char: 'E', Attrs: sb.defaultTextAttrs}, n)
	sb.textAttrs &^= cellgrid.AttrReverseVideo | cellgrid.AttrUnderline
	sb.originMode = false
	sb.margins = nil
	sb.cursor = cellgrid.Point{}
	sb.clearDelayedWrap()
	sb.bump()
}

func (sb *ScreenBuffer) hardReset() {
	if sb.alt != nil {
		sb.SetVTUsingAlternateScreenBuffer(false, ' ', sb.defaultTextAttrs)
	}
	sb.palette = DefaultPalette16
	sb.cursor = cellgrid.Point{}
	sb.cursorVisible = true
	sb.textAttrs = sb.defaultTextAttrs
	n := int(sb.Size.X) * int(sb.Size.Y)
	sb.grid.FillCells(cellgrid.Point{}, cellgrid.Cell{Char: ' ', Attrs: sb.defaultTextAttrs}, n)
	sb.margins = nil
	sb.autowrap = true
	sb.originMode = false
	sb.insertMode = false
	sb.clearDelayedWrap()
	sb.savedCursor = nil
	sb.bump()
}

// writePrintable implements spec §4.3.2.
func (sb *ScreenBuffer) writePrintable(ch uint16, mode OutputMode) {
	vt := mode.Has(ModeVTProcessing)

	if vt && sb.delayedWrapPos != nil && *sb.delayedWrapPos == sb.cursor && sb.autowrap {
		sb.crlfInRegion()
		sb.clearDelayedWrap()
	}

	cell := cellgrid.Cell{Char: ch, Attrs: sb.textAttrs}
	if vt && sb.insertMode {
		sb.grid.InsertCell(sb.cursor, cell)
	} else {
		sb.grid.SetCell(sb.cursor, cell)
	}

	if vt {
		if sb.cursor.X >= sb.Size.X-1 {
			sb.cursor.X = sb.Size.X - 1
			p := sb.cursor
			sb.delayedWrapPos = &p
		} else {
			sb.cursor.X++
		}
	} else {
		sb.cursor.X++
		if sb.cursor.X >= sb.Size.X {
			if mode.Has(ModeWrapAtEOL) {
				sb.cursor.X = 0
				sb.lineFeed()
			} else {
				sb.cursor.X = sb.Size.X - 1
			}
		}
	}
	sb.bump()
}

// crlfInRegion performs CR+LF used by the delayed-wrap trigger, within
// the active scroll region.
func (sb *ScreenBuffer) crlfInRegion() {
	sb.cursor.X = 0
	sb.lineFeed()
}

// lineFeed implements spec §4.3.3.
func (sb *ScreenBuffer) lineFeed() {
	top, bottom := sb.ScrollRegion()
	if sb.cursor.Y >= top && sb.cursor.Y <= bottom {
		if sb.cursor.Y == bottom {
			sb.grid.Scroll(
				cellgrid.Rect{Left: 0, Top: top, Right: sb.Size.X - 1, Bottom: bottom},
				cellgrid.Rect{Left: 0, Top: top, Right: sb.Size.X - 1, Bottom: bottom},
				cellgrid.Point{X: 0, Y: top - 1},
				cellgrid.Cell{Char: ' ', Attrs: sb.defaultTextAttrs},
			)
		} else {
			sb.cursor.Y++
		}
		return
	}
	sb.cursor.Y++
	if sb.cursor.Y >= sb.Size.Y {
		sb.grid.Scroll(
			cellgrid.Rect{Left: 0, Top: 0, Right: sb.Size.X - 1, Bottom: sb.Size.Y - 1},
			cellgrid.Rect{Left: 0, Top: 0, Right: sb.Size.X - 1, Bottom: sb.Size.Y - 1},
			cellgrid.Point{X: 0, Y: -1},
			cellgrid.Cell{Char: ' ', Attrs: sb.defaultTextAttrs},
		)
		sb.cursor.Y = sb.Size.Y - 1
	}
}

// reverseLineFeed is the symmetric counterpart of lineFeed (ESC M).
func (sb *ScreenBuffer) reverseLineFeed() {
	top, bottom := sb.ScrollRegion()
	if sb.cursor.Y >= top && sb.cursor.Y <= bottom {
		if sb.cursor.Y == top {
			sb.grid.Scroll(
				cellgrid.Rect{Left: 0, Top: top, Right: sb.Size.X - 1, Bottom: bottom},
				cellgrid.Rect{Left: 0, Top: top, Right: sb.Size.X - 1, Bottom: bottom},
				cellgrid.Point{X: 0, Y: top + 1},
				cellgrid.Cell{Char: ' ', Attrs: sb.defaultTextAttrs},
			)
		} else {
			sb.cursor.Y--
		}
		return
	}
	sb.cursor.Y--
	if sb.cursor.Y < 0 {
		sb.grid.Scroll(
			cellgrid.Rect{Left: 0, Top: 0, Right: sb.Size.X - 1, Bottom: sb.Size.Y - 1},
			cellgrid.Rect{Left: 0, Top: 0, Right: sb.Size.X - 1, Bottom: sb.Size.Y - 1},
			cellgrid.Point{X: 0, Y: 1},
			cellgrid.Cell{Char: ' ', Attrs: sb.defaultTextAttrs},
		)
		sb.cursor.Y = 0
	}
}
