package vtinput

// EchoSink is the cooked line editor's output collaborator: writing
// text appends it at the active screen buffer's cursor (advancing it),
// and MoveCursor repositions the screen cursor horizontally by delta
// units without writing, matching how the classic console repaints a
// line edit directly against the screen buffer's own cursor rather
// than by echoing backspace characters.
type EchoSink interface {
	WriteText(units []uint16)
	MoveCursor(delta int)
}

// NoopEchoSink discards all output, used when echo is disabled.
type NoopEchoSink struct{}

func (NoopEchoSink) WriteText([]uint16) {}
func (NoopEchoSink) MoveCursor(int)     {}

// HistorySink receives a completed command line (without its line
// terminator) for the owning exe's command history.
type HistorySink interface {
	AppendCommand(line []uint16)
}

// NoopHistorySink discards completed commands.
type NoopHistorySink struct{}

func (NoopHistorySink) AppendCommand([]uint16) {}

// Editor is the per-handle cooked line editor (spec §4.4.4): the
// `{line, cursor, insert}` state machine active when line-input mode
// is set.
type Editor struct {
	Line   []uint16
	Cursor int
	Insert bool

	// Ready holds a finalized line (including its "\r\n" or "\r"
	// suffix) awaiting piecemeal delivery; cleared by ConsumeReady.
	Ready []uint16

	processed    bool
	echo         bool
	processCtrlZ bool
}

// NewEditor constructs an editor for a handle with the given
// processed/echo/process-ctrl-z mode bits.
func NewEditor(processed, echo, processCtrlZ bool) *Editor {
	return &Editor{processed: processed, echo: echo, processCtrlZ: processCtrlZ}
}

// SetModes refreshes the editor's processed/echo/process-ctrl-z bits
// from the current input mode; the server calls this before feeding
// tokens so a SetMode between reads takes effect immediately.
func (e *Editor) SetModes(processed, echo, processCtrlZ bool) {
	e.processed = processed
	e.echo = echo
	e.processCtrlZ = processCtrlZ
}

// Reset clears all per-handle edit/ready state (used by raw_flush and
// by Ctrl+Break).
func (e *Editor) Reset() {
	e.Line = nil
	e.Cursor = 0
	e.Ready = nil
}

// AtCtrlZEOF reports whether a Ctrl+Z token received right now should
// terminate the read with 0 bytes rather than being inserted into the
// line: only when process_control_z is enabled and the line is
// currently empty (spec §4.4.4).
func (e *Editor) AtCtrlZEOF() bool {
	return e.processCtrlZ && len(e.Line) == 0
}

// ConsumeReady takes ownership of the ready line, clearing it.
func (e *Editor) ConsumeReady() []uint16 {
	r := e.Ready
	e.Ready = nil
	return r
}

// IsSurrogateHigh/IsSurrogateLow classify a UTF-16 code unit.
func IsSurrogateHigh(u uint16) bool { return u >= 0xD800 && u <= 0xDBFF }
func IsSurrogateLow(u uint16) bool  { return u >= 0xDC00 && u <= 0xDFFF }

// NextIndex steps i forward by one character, atomically over a
// surrogate pair (spec §9 "Unicode cursor arithmetic").
func NextIndex(line []uint16, i int) int {
	if i >= len(line) {
		return i
	}
	if IsSurrogateHigh(line[i]) && i+1 < len(line) && IsSurrogateLow(line[i+1]) {
		return i + 2
	}
	return i + 1
}

// PrevIndex steps i backward by one character, atomically over a
// surrogate pair.
func PrevIndex(line []uint16, i int) int {
	if i <= 0 {
		return 0
	}
	if IsSurrogateLow(line[i-1]) && i-2 >= 0 && IsSurrogateHigh(line[i-2]) {
		return i - 2
	}
	return i - 1
}

// clampCursor steps a cursor off the low half of a surrogate pair it
// would otherwise land inside.
func clampCursor(line []uint16, i int) int {
	if i > 0 && i < len(line) && IsSurrogateLow(line[i]) && IsSurrogateHigh(line[i-1]) {
		return i - 1
	}
	return i
}

// HandleText processes one decoded text token (1 unit, or 2 for a
// surrogate pair) as a printable unit (spec §4.4.4).
func (e *Editor) HandleText(units []uint16, echo EchoSink) {
	if !e.Insert && e.Cursor < len(e.Line) {
		next := NextIndex(e.Line, e.Cursor)
		e.Line = append(e.Line[:e.Cursor], e.Line[next:]...)
	}
	tail := append([]uint16(nil), e.Line[e.Cursor:]...)
	rebuilt := make([]uint16, 0, len(e.Line)+len(units))
	rebuilt = append(rebuilt, e.Line[:e.Cursor]...)
	rebuilt = append(rebuilt, units...)
	rebuilt = append(rebuilt, tail...)
	e.Line = rebuilt
	e.Cursor += len(units)

	if !e.echo {
		return
	}
	out := append(append([]uint16(nil), units...), tail...)
	echo.WriteText(out)
	if len(tail) > 0 {
		echo.MoveCursor(-columnWidth(tail))
	}
}

// HandleBackspace removes the character before the cursor and repaints.
func (e *Editor) HandleBackspace(echo EchoSink) {
	if e.Cursor == 0 {
		return
	}
	prev := PrevIndex(e.Line, e.Cursor)
	removedUnits := append([]uint16(nil), e.Line[prev:e.Cursor]...)
	e.Line = append(e.Line[:prev], e.Line[e.Cursor:]...)
	e.Cursor = prev

	if !e.echo {
		return
	}
	removedWidth := columnWidth(removedUnits)
	tail := e.Line[e.Cursor:]
	echo.MoveCursor(-removedWidth)
	blank := make([]uint16, removedWidth)
	for i := range blank {
		blank[i] = ' '
	}
	echo.WriteText(append(append([]uint16(nil), tail...), blank...))
	echo.MoveCursor(-(columnWidth(tail) + removedWidth))
}

// Finalize completes the line on CR or LF: appends the terminator
// suffix, echoes the tail plus suffix, hands the trimmed command to
// history, and moves the composed line into Ready.
func (e *Editor) Finalize(crTerminator bool, echo EchoSink, history HistorySink) {
	tail := e.Line[e.Cursor:]
	suffix := []uint16{'\r'}
	if e.processed {
		suffix = []uint16{'\r', '\n'}
	}

	if e.echo {
		echo.WriteText(append(append([]uint16(nil), tail...), suffix...))
	}

	history.AppendCommand(append([]uint16(nil), e.Line...))

	e.Ready = append(e.Ready, e.Line...)
	e.Ready = append(e.Ready, suffix...)
	e.Line = nil
	e.Cursor = 0
}

// Clear wipes the in-progress line without finalizing it (Esc key).
func (e *Editor) Clear(echo EchoSink) {
	if e.echo {
		blankWidth := columnWidth(e.Line)
		echo.MoveCursor(-columnWidth(e.Line[:e.Cursor]))
		blanks := make([]uint16, blankWidth)
		for i := range blanks {
			blanks[i] = ' '
		}
		echo.WriteText(blanks)
		echo.MoveCursor(-blankWidth)
	}
	e.Line = nil
	e.Cursor = 0
}

// HandleKey processes a synthesized key event (spec §4.4.4). Keys
// whose KeyDown is false are discarded by the caller before reaching
// here (HandleKey assumes KeyDown is true).
func (e *Editor) HandleKey(key KeyRecord, echo EchoSink) {
	repeat := int(key.RepeatCount)
	if repeat < 1 {
		repeat = 1
	}
	ctrl := key.ControlKeyState&(LeftCtrlPressed|RightCtrlPressed) != 0

	switch key.VirtualKeyCode {
	case VKLeft:
		for i := 0; i < repeat; i++ {
			if e.Cursor == 0 {
				break
			}
			prev := PrevIndex(e.Line, e.Cursor)
			if ctrl {
				prev = wordLeft(e.Line, e.Cursor)
			}
			if e.echo {
				echo.MoveCursor(-columnWidth(e.Line[prev:e.Cursor]))
			}
			e.Cursor = prev
		}
	case VKRight:
		for i := 0; i < repeat; i++ {
			if e.Cursor >= len(e.Line) {
				break
			}
			next := NextIndex(e.Line, e.Cursor)
			if ctrl {
				next = wordRight(e.Line, e.Cursor)
			}
			if e.echo {
				echo.MoveCursor(columnWidth(e.Line[e.Cursor:next]))
			}
			e.Cursor = next
		}
	case VKHome:
		if ctrl {
			e.deleteToEdge(true, echo)
		} else if e.echo {
			echo.MoveCursor(-columnWidth(e.Line[:e.Cursor]))
			e.Cursor = 0
		} else {
			e.Cursor = 0
		}
	case VKEnd:
		if ctrl {
			e.deleteToEdge(false, echo)
		} else if e.echo {
			echo.MoveCursor(columnWidth(e.Line[e.Cursor:]))
			e.Cursor = len(e.Line)
		} else {
			e.Cursor = len(e.Line)
		}
	case VKDelete:
		for i := 0; i < repeat; i++ {
			e.deleteForward(echo)
		}
	case VKInsert:
		e.Insert = !e.Insert
	case VKEscape:
		e.Clear(echo)
	}
}

func (e *Editor) deleteForward(echo EchoSink) {
	if e.Cursor >= len(e.Line) {
		return
	}
	next := NextIndex(e.Line, e.Cursor)
	removedWidth := columnWidth(e.Line[e.Cursor:next])
	e.Line = append(e.Line[:e.Cursor], e.Line[next:]...)
	if e.echo {
		tail := e.Line[e.Cursor:]
		blank := make([]uint16, removedWidth)
		for i := range blank {
			blank[i] = ' '
		}
		echo.WriteText(append(append([]uint16(nil), tail...), blank...))
		echo.MoveCursor(-(columnWidth(tail) + removedWidth))
	}
}

func (e *Editor) deleteToEdge(toStart bool, echo EchoSink) {
	if toStart {
		removedWidth := columnWidth(e.Line[:e.Cursor])
		tail := append([]uint16(nil), e.Line[e.Cursor:]...)
		e.Line = tail
		if e.echo {
			echo.MoveCursor(-removedWidth)
			blanks := make([]uint16, removedWidth)
			for i := range blanks {
				blanks[i] = ' '
			}
			echo.WriteText(append(append([]uint16(nil), tail...), blanks...))
			echo.MoveCursor(-(columnWidth(tail) + removedWidth))
		}
		e.Cursor = 0
		return
	}
	removedWidth := columnWidth(e.Line[e.Cursor:])
	e.Line = e.Line[:e.Cursor]
	if e.echo {
		blanks := make([]uint16, removedWidth)
		for i := range blanks {
			blanks[i] = ' '
		}
		echo.WriteText(blanks)
		echo.MoveCursor(-removedWidth)
	}
}

func wordLeft(line []uint16, i int) int {
	i = PrevIndex(line, i)
	for i > 0 && line[i] == ' ' {
		i = PrevIndex(line, i)
	}
	for i > 0 && line[PrevIndex(line, i)] != ' ' {
		i = PrevIndex(line, i)
	}
	return clampCursor(line, i)
}

func wordRight(line []uint16, i int) int {
	for i < len(line) && line[i] != ' ' {
		i = NextIndex(line, i)
	}
	for i < len(line) && line[i] == ' ' {
		i = NextIndex(line, i)
	}
	return clampCursor(line, i)
}
