package screenbuffer

import (
	"testing"

	"github.com/condrv-project/condrv/internal/cellgrid"
)

func toUTF16(s string) []uint16 {
	out := make([]uint16, 0, len(s))
	for _, r := range s {
		out = append(out, uint16(r))
	}
	return out
}

func charAt(sb *ScreenBuffer, x, y int16) uint16 {
	c, _ := sb.Grid().Cell(cellgrid.Point{X: x, Y: y})
	return c.Char
}

func TestNewScreenBufferDefaults(t *testing.T) {
	sb := New(cellgrid.Point{})
	if sb.Size != DefaultSize {
		t.Errorf("expected default size %+v, got %+v", DefaultSize, sb.Size)
	}
	if sb.Cursor() != (cellgrid.Point{}) {
		t.Errorf("expected cursor at origin")
	}
	if sb.TextAttrs() != cellgrid.DefaultAttrs {
		t.Errorf("expected default attrs, got %#x", sb.TextAttrs())
	}
	if sb.CursorSize() != 25 || !sb.CursorVisible() {
		t.Errorf("unexpected cursor info")
	}
}

func TestSetSizePreservesTopLeft(t *testing.T) {
	sb := New(cellgrid.Point{X: 5, Y: 5})
	sb.Apply(toUTF16("AB"), ModeProcessed, nil, nil)
	if !sb.SetSize(cellgrid.Point{X: 3, Y: 3}) {
		t.Fatalf("expected SetSize to succeed")
	}
	if charAt(sb, 0, 0) != 'A' || charAt(sb, 1, 0) != 'B' {
		t.Errorf("expected preserved top-left content after shrink")
	}
}

func TestSetSizeRejectsNonPositive(t *testing.T) {
	sb := New(cellgrid.Point{X: 5, Y: 5})
	if sb.SetSize(cellgrid.Point{X: 0, Y: 5}) {
		t.Errorf("expected SetSize to reject zero width")
	}
}

func TestSetViewportValidation(t *testing.T) {
	sb := New(cellgrid.Point{X: 10, Y: 10})
	if !sb.SetViewport(cellgrid.Rect{Left: 0, Top: 0, Right: 4, Bottom: 4}) {
		t.Errorf("expected valid viewport to be accepted")
	}
	if sb.SetViewport(cellgrid.Rect{Left: 0, Top: 0, Right: 20, Bottom: 4}) {
		t.Errorf("expected out-of-bounds viewport to be rejected")
	}
	if sb.SetViewport(cellgrid.Rect{Left: 5, Top: 0, Right: 2, Bottom: 4}) {
		t.Errorf("expected inverted viewport to be rejected")
	}
}

func TestSnapWindowToCursor(t *testing.T) {
	sb := New(cellgrid.Point{X: 10, Y: 10})
	sb.SetViewport(cellgrid.Rect{Left: 0, Top: 0, Right: 4, Bottom: 4})
	sb.SetCursorPosition(cellgrid.Point{X: 8, Y: 8})
	sb.SnapWindowToCursor()
	v := sb.Viewport()
	if !v.Contains(sb.Cursor()) {
		t.Errorf("expected viewport to contain cursor, got %+v", v)
	}
	if v.Width() != 5 || v.Height() != 5 {
		t.Errorf("expected viewport dimensions unchanged, got %dx%d", v.Width(), v.Height())
	}
}

func TestSaveRestoreCursorState(t *testing.T) {
	sb := New(cellgrid.Point{X: 10, Y: 10})
	sb.SetCursorPosition(cellgrid.Point{X: 3, Y: 3})
	sb.SetTextAttrs(0x12)
	sb.SaveCursorState()

	sb.SetCursorPosition(cellgrid.Point{X: 7, Y: 7})
	sb.SetTextAttrs(0x34)
	sb.RestoreCursorState()

	if sb.Cursor() != (cellgrid.Point{X: 3, Y: 3}) {
		t.Errorf("expected cursor restored to (3,3), got %+v", sb.Cursor())
	}
	if sb.TextAttrs() != 0x12 {
		t.Errorf("expected attrs restored to 0x12, got %#x", sb.TextAttrs())
	}
}

func TestVTSaveRestoreViaEscapeSequences(t *testing.T) {
	sb := New(cellgrid.Point{X: 10, Y: 10})
	mode := ModeProcessed | ModeVTProcessing
	sb.Apply(toUTF16("\x1b7"), mode, nil, nil)
	sb.SetCursorPosition(cellgrid.Point{X: 5, Y: 5})
	sb.SetTextAttrs(0x20)
	sb.Apply(toUTF16("\x1b8"), mode, nil, nil)
	if sb.Cursor() != (cellgrid.Point{}) {
		t.Errorf("expected ESC 8 to restore cursor to origin, got %+v", sb.Cursor())
	}
	if sb.TextAttrs() != cellgrid.DefaultAttrs {
		t.Errorf("expected ESC 8 to restore default attrs, got %#x", sb.TextAttrs())
	}
}

func TestAlternateScreenBufferRoundTrip(t *testing.T) {
	sb := New(cellgrid.Point{X: 5, Y: 5})
	sb.Grid().SetCell(cellgrid.Point{X: 0, Y: 0}, cellgrid.Cell{Char: 'X', Attrs: cellgrid.DefaultAttrs})
	beforeCursor := sb.Cursor()

	sb.SetVTUsingAlternateScreenBuffer(true, ' ', sb.DefaultTextAttrs())
	if !sb.IsAlternate() {
		t.Fatalf("expected alternate buffer to be active")
	}
	sb.Grid().SetCell(sb.Cursor(), cellgrid.Cell{Char: 'Y', Attrs: cellgrid.DefaultAttrs})

	sb.SetVTUsingAlternateScreenBuffer(false, ' ', sb.DefaultTextAttrs())
	if sb.IsAlternate() {
		t.Fatalf("expected main buffer to be active again")
	}
	if charAt(sb, 0, 0) != 'X' {
		t.Errorf("expected main buffer content preserved, got %c", charAt(sb, 0, 0))
	}
	if sb.Cursor() != beforeCursor {
		t.Errorf("expected cursor restored to pre-alternate position")
	}
	// Y should not be visible: nothing at (0,0) after restore is 'Y'.
	if charAt(sb, beforeCursor.X, beforeCursor.Y) == 'Y' {
		t.Errorf("alternate-buffer write leaked into main buffer")
	}
}

func TestAlternateScreenBufferViaEscapeSequence(t *testing.T) {
	sb := New(cellgrid.Point{X: 5, Y: 5})
	mode := ModeProcessed | ModeVTProcessing
	sb.Grid().SetCell(cellgrid.Point{}, cellgrid.Cell{Char: 'X', Attrs: cellgrid.DefaultAttrs})
	sb.Apply(toUTF16("\x1b[?1049h"), mode, nil, nil)
	sb.Apply(toUTF16("Y"), mode, nil, nil)
	sb.Apply(toUTF16("\x1b[?1049l"), mode, nil, nil)
	if charAt(sb, 0, 0) != 'X' {
		t.Errorf("expected 'X' preserved, got %c", charAt(sb, 0, 0))
	}
}

func TestCRLFAndWrap(t *testing.T) {
	sb := New(cellgrid.Point{X: 3, Y: 3})
	sb.SetCursorPosition(cellgrid.Point{X: 2, Y: 0})
	mode := ModeProcessed | ModeWrapAtEOL
	sb.Apply(toUTF16("AB\r\nC"), mode, nil, nil)

	if charAt(sb, 2, 0) != 'A' {
		t.Errorf("row0 col2 = %c, want A", charAt(sb, 2, 0))
	}
	if charAt(sb, 0, 1) != 'B' {
		t.Errorf("row1 col0 = %c, want B", charAt(sb, 0, 1))
	}
	if charAt(sb, 0, 2) != 'C' {
		t.Errorf("row2 col0 = %c, want C", charAt(sb, 0, 2))
	}
	if sb.Cursor() != (cellgrid.Point{X: 1, Y: 2}) {
		t.Errorf("expected cursor (1,2), got %+v", sb.Cursor())
	}
}

func TestDECSTBMScroll(t *testing.T) {
	sb := New(cellgrid.Point{X: 5, Y: 5})
	mode := ModeProcessed | ModeVTProcessing
	sb.Apply(toUTF16("\x1b[2;4r"), mode, nil, nil)
	sb.SetCursorPosition(cellgrid.Point{X: 0, Y: 3})
	sb.Apply(toUTF16("\n\n"), mode, nil, nil)

	if sb.Cursor() != (cellgrid.Point{X: 0, Y: 3}) {
		t.Errorf("expected cursor to stay at row 3 within margins, got %+v", sb.Cursor())
	}
}

func TestDelayedEOLWrap(t *testing.T) {
	sb := New(cellgrid.Point{X: 5, Y: 3})
	mode := ModeVTProcessing
	sb.Apply(toUTF16("ABCDE"), mode, nil, nil)
	if sb.Cursor() != (cellgrid.Point{X: 4, Y: 0}) {
		t.Errorf("expected cursor (4,0) after 5 chars in 5-wide buffer, got %+v", sb.Cursor())
	}
	if sb.DelayedWrapPos() == nil || *sb.DelayedWrapPos() != sb.Cursor() {
		t.Errorf("expected delayed wrap flag set at cursor")
	}

	sb.Apply(toUTF16("F"), mode, nil, nil)
	if sb.Cursor() != (cellgrid.Point{X: 1, Y: 1}) {
		t.Errorf("expected cursor (1,1) after wrap, got %+v", sb.Cursor())
	}
	if charAt(sb, 0, 1) != 'F' {
		t.Errorf("expected F at (0,1), got %c", charAt(sb, 0, 1))
	}
	if charAt(sb, 4, 0) != 'E' {
		t.Errorf("expected E to remain at (4,0), got %c", charAt(sb, 4, 0))
	}
}

func TestSGRColorQuantization(t *testing.T) {
	sb := New(cellgrid.Point{X: 5, Y: 1})
	mode := ModeVTProcessing
	// 38;5;196 is a bright red in the 256-color cube; nearest 16-color
	// palette entry should be bright red (index 9 -> fg nibble 0x9).
	sb.Apply(toUTF16("\x1b[38;5;196mA"), mode, nil, nil)
	c, _ := sb.Grid().Cell(cellgrid.Point{})
	fg := c.Attrs & cellgrid.AttrForegroundMask
	if fg != 9 && fg != 1 {
		t.Errorf("expected a red-ish foreground index, got %d", fg)
	}
}

func TestSGRReset(t *testing.T) {
	sb := New(cellgrid.Point{X: 5, Y: 1})
	mode := ModeVTProcessing
	sb.Apply(toUTF16("\x1b[31;4m\x1b[0mA"), mode, nil, nil)
	c, _ := sb.Grid().Cell(cellgrid.Point{})
	if c.Attrs != sb.DefaultTextAttrs() {
		t.Errorf("expected default attrs after SGR 0, got %#x", c.Attrs)
	}
}

type fakeHostIO struct {
	injected [][]byte
	answer   bool
}

func (f *fakeHostIO) InjectInputBytes(b []byte) bool {
	f.injected = append(f.injected, append([]byte(nil), b...))
	return true
}
func (f *fakeHostIO) ShouldAnswerQueries() bool { return f.answer }

func TestDSRCursorPositionReport(t *testing.T) {
	sb := New(cellgrid.Point{X: 10, Y: 10})
	sb.SetCursorPosition(cellgrid.Point{X: 2, Y: 1})
	io := &fakeHostIO{answer: true}
	sb.Apply(toUTF16("\x1b[6n"), ModeVTProcessing, nil, io)
	if len(io.injected) != 1 {
		t.Fatalf("expected one injected response, got %d", len(io.injected))
	}
	want := "\x1b[2;3R"
	if string(io.injected[0]) != want {
		t.Errorf("got %q, want %q", io.injected[0], want)
	}
}

type fakeTitleSink struct{ title string }

func (f *fakeTitleSink) SetTitle(t string) { f.title = t }

func TestReverseLineFeedScrollsAtTop(t *testing.T) {
	sb := New(cellgrid.Point{X: 3, Y: 5})
	mode := ModeProcessed | ModeVTProcessing
	// Margins rows 2-4 (1-indexed "3;5"), leaving row 0 outside/above them.
	sb.Apply(toUTF16("\x1b[3;5r"), mode, nil, nil)
	sb.Grid().SetCell(cellgrid.Point{X: 0, Y: 0}, cellgrid.Cell{Char: 'A', Attrs: sb.DefaultTextAttrs()})
	sb.SetCursorPosition(cellgrid.Point{X: 0, Y: 0})
	sb.Apply(toUTF16("\x1bM"), mode, nil, nil)

	if sb.Cursor() != (cellgrid.Point{X: 0, Y: 0}) {
		t.Errorf("expected cursor clamped to row 0, got %+v", sb.Cursor())
	}
	if charAt(sb, 0, 0) != ' ' {
		t.Errorf("expected blank row scrolled in at top, got %c", charAt(sb, 0, 0))
	}
	if charAt(sb, 0, 1) != 'A' {
		t.Errorf("expected original row 0 shifted down to row 1, got %c", charAt(sb, 0, 1))
	}
}

func TestCursorBoundsRespectViewport(t *testing.T) {
	sb := New(cellgrid.Point{X: 10, Y: 10})
	sb.SetViewport(cellgrid.Rect{Left: 0, Top: 3, Right: 9, Bottom: 7})
	sb.SetCursorPosition(cellgrid.Point{X: 0, Y: 3})
	mode := ModeVTProcessing
	sb.Apply(toUTF16("\x1b[10A"), mode, nil, nil)
	if sb.Cursor().Y != 3 {
		t.Errorf("expected cursor clamped to viewport top (3), got %d", sb.Cursor().Y)
	}

	io := &fakeHostIO{answer: true}
	sb.Apply(toUTF16("\x1b[6n"), mode, nil, io)
	if len(io.injected) != 1 {
		t.Fatalf("expected one injected CPR response, got %d", len(io.injected))
	}
	want := "\x1b[1;1R"
	if string(io.injected[0]) != want {
		t.Errorf("expected viewport-relative CPR %q, got %q", want, io.injected[0])
	}
}

func TestOSCTitle(t *testing.T) {
	sb := New(cellgrid.Point{X: 10, Y: 10})
	titles := &fakeTitleSink{}
	sb.Apply(toUTF16("\x1b]0;hello\x07"), ModeVTProcessing, titles, nil)
	if titles.title != "hello" {
		t.Errorf("expected title 'hello', got %q", titles.title)
	}
}
