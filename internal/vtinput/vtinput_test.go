package vtinput

import "testing"

func TestPendingBufferAppendConsume(t *testing.T) {
	var p PendingBuffer
	if !p.Append([]byte("hi")) {
		t.Fatalf("expected append to succeed")
	}
	if p.Len() != 2 {
		t.Errorf("expected len 2, got %d", p.Len())
	}
	big := make([]byte, MaxPendingBytes)
	if p.Append(big) {
		t.Errorf("expected append exceeding capacity to fail")
	}
	p.ConsumePrefix(1)
	if string(p.Bytes()) != "i" {
		t.Errorf("expected remaining byte 'i', got %q", p.Bytes())
	}
	p.Clear()
	if p.Len() != 0 {
		t.Errorf("expected cleared buffer")
	}
}

func TestUTF8SplitAcrossReads(t *testing.T) {
	// U+00E9 'é' = 0xC3 0xA9.
	first := []byte{0xC3}
	tok := DecodeToken(CPUTF8, first)
	if tok.Kind != TokenNeedMoreData {
		t.Fatalf("expected need_more_data on split lead byte, got %v", tok.Kind)
	}
	full := []byte{0xC3, 0xA9}
	tok = DecodeToken(CPUTF8, full)
	if tok.Kind != TokenText || len(tok.Chars) != 1 || tok.Chars[0] != 0x00E9 {
		t.Fatalf("expected single char U+00E9, got %+v", tok)
	}
	if tok.BytesConsumed != 2 {
		t.Errorf("expected 2 bytes consumed, got %d", tok.BytesConsumed)
	}
}

func TestUTF8SurrogatePair(t *testing.T) {
	// U+1F600 (grinning face) = 0xF0 0x9F 0x98 0x80.
	b := []byte{0xF0, 0x9F, 0x98, 0x80}
	tok := DecodeToken(CPUTF8, b)
	if tok.Kind != TokenText || len(tok.Chars) != 2 {
		t.Fatalf("expected surrogate pair, got %+v", tok)
	}
	if !IsSurrogateHigh(tok.Chars[0]) || !IsSurrogateLow(tok.Chars[1]) {
		t.Errorf("expected high/low surrogate pair, got %x %x", tok.Chars[0], tok.Chars[1])
	}
}

func TestUTF8InvalidSubstitutesReplacementChar(t *testing.T) {
	b := []byte{0x80, 'A'} // stray continuation byte
	tok := DecodeToken(CPUTF8, b)
	if tok.Kind != TokenText || tok.Chars[0] != 0xFFFD || tok.BytesConsumed != 1 {
		t.Fatalf("expected U+FFFD consuming 1 byte, got %+v", tok)
	}
}

func TestDBCSShiftJISLeadByteNeedsMoreData(t *testing.T) {
	tok := DecodeToken(CPShiftJIS, []byte{0x82})
	if tok.Kind != TokenNeedMoreData {
		t.Fatalf("expected need_more_data on lone Shift-JIS lead byte, got %v", tok.Kind)
	}
}

func TestWin32InputModeDecode(t *testing.T) {
	// VK=0x41('A')=65, Sc=30, Uc='a'=97, Kd=1, Cs=0, Rc=1.
	b := []byte("\x1b[65;30;97;1;0;1_")
	tok := DecodeToken(CPUTF8, b)
	if tok.Kind != TokenKeyEvent {
		t.Fatalf("expected key event, got %v", tok.Kind)
	}
	if tok.Key.VirtualKeyCode != 65 || tok.Key.Char != 'a' || !tok.Key.KeyDown {
		t.Errorf("unexpected key record: %+v", tok.Key)
	}
	if tok.BytesConsumed != len(b) {
		t.Errorf("expected to consume entire sequence, got %d of %d", tok.BytesConsumed, len(b))
	}
}

func TestCursorKeyDecode(t *testing.T) {
	tok := DecodeToken(CPUTF8, []byte("\x1b[A"))
	if tok.Kind != TokenKeyEvent || tok.Key.VirtualKeyCode != VKUp {
		t.Fatalf("expected up-arrow key event, got %+v", tok)
	}
}

func TestDA1Ignored(t *testing.T) {
	tok := DecodeToken(CPUTF8, []byte("\x1b[c"))
	if tok.Kind != TokenIgnored {
		t.Fatalf("expected DA1 to be ignored, got %v", tok.Kind)
	}
}

func TestDA1PrivateResponseIgnored(t *testing.T) {
	b := []byte("\x1b[?1;2c")
	tok := DecodeToken(CPUTF8, b)
	if tok.Kind != TokenIgnored {
		t.Fatalf("expected private DA1 response to be ignored, got %v", tok.Kind)
	}
	if tok.BytesConsumed != len(b) {
		t.Errorf("expected full sequence consumed, got %d of %d", tok.BytesConsumed, len(b))
	}
}

func TestCodePage437HighByteDecodes(t *testing.T) {
	// 0x82 is 'é' in CP437.
	tok := DecodeToken(CPOEM, []byte{0x82})
	if tok.Kind != TokenText || tok.Chars[0] != 0x00E9 {
		t.Fatalf("expected CP437 0x82 -> U+00E9, got %+v", tok)
	}
}

func TestCtrlCConsumedNotDelivered(t *testing.T) {
	res := DecodeBytes(CPUTF8, []byte{0x03, 'x'}, true)
	if !res.CtrlC {
		t.Fatalf("expected CtrlC detected")
	}
	if len(res.Chars) != 0 {
		t.Errorf("expected no delivered chars, got %v", res.Chars)
	}
	if res.BytesConsumed != 1 {
		t.Errorf("expected only the 0x03 byte consumed, got %d", res.BytesConsumed)
	}
}

func TestCountEventsSurrogateCountsBothUnits(t *testing.T) {
	b := []byte{0xF0, 0x9F, 0x98, 0x80} // one surrogate pair = 2 units
	n := CountEvents(CPUTF8, b, false)
	if n != 2 {
		t.Errorf("expected 2 (both surrogate halves counted), got %d", n)
	}
}

type recordingEcho struct {
	writes []uint16
	moves  []int
}

func (r *recordingEcho) WriteText(units []uint16) {
	r.writes = append(r.writes, units...)
}
func (r *recordingEcho) MoveCursor(delta int) { r.moves = append(r.moves, delta) }

type recordingHistory struct{ commands [][]uint16 }

func (r *recordingHistory) AppendCommand(line []uint16) {
	r.commands = append(r.commands, line)
}

func TestCookedEditorTypeAndFinalize(t *testing.T) {
	e := NewEditor(true, true, false)
	echo := &recordingEcho{}
	hist := &recordingHistory{}

	for _, ch := range "abc" {
		e.HandleText([]uint16{uint16(ch)}, echo)
	}
	if string16(e.Line) != "abc" {
		t.Fatalf("expected line 'abc', got %q", string16(e.Line))
	}
	if e.Cursor != 3 {
		t.Errorf("expected cursor 3, got %d", e.Cursor)
	}

	e.Finalize(true, echo, hist)
	if string16(e.Ready) != "abc\r\n" {
		t.Errorf("expected ready 'abc\\r\\n', got %q", string16(e.Ready))
	}
	if len(hist.commands) != 1 || string16(hist.commands[0]) != "abc" {
		t.Errorf("expected history to receive 'abc', got %v", hist.commands)
	}
	if len(e.Line) != 0 || e.Cursor != 0 {
		t.Errorf("expected line reset after finalize")
	}
}

func TestCookedEditorBackspace(t *testing.T) {
	e := NewEditor(true, true, false)
	echo := &recordingEcho{}
	for _, ch := range "ab" {
		e.HandleText([]uint16{uint16(ch)}, echo)
	}
	e.HandleBackspace(echo)
	if string16(e.Line) != "a" {
		t.Errorf("expected line 'a' after backspace, got %q", string16(e.Line))
	}
	if e.Cursor != 1 {
		t.Errorf("expected cursor 1, got %d", e.Cursor)
	}
}

func TestCookedEditorOverwriteMode(t *testing.T) {
	e := NewEditor(true, false, false)
	e.HandleText([]uint16{'a', 'b', 'c'}, NoopEchoSink{})
	e.Cursor = 1
	e.HandleText([]uint16{'X'}, NoopEchoSink{})
	if string16(e.Line) != "aXc" {
		t.Errorf("expected overwrite to replace middle char, got %q", string16(e.Line))
	}
}

func TestCookedEditorInsertModeGrowsLine(t *testing.T) {
	e := NewEditor(true, false, false)
	e.Insert = true
	e.HandleText([]uint16{'a', 'c'}, NoopEchoSink{})
	e.Cursor = 1
	e.HandleText([]uint16{'b'}, NoopEchoSink{})
	if string16(e.Line) != "abc" {
		t.Errorf("expected insert to grow line to 'abc', got %q", string16(e.Line))
	}
}

func TestCookedEditorLeftArrowKey(t *testing.T) {
	e := NewEditor(true, true, false)
	echo := &recordingEcho{}
	e.HandleText([]uint16{'a', 'b', 'c'}, echo)
	e.HandleKey(KeyRecord{KeyDown: true, VirtualKeyCode: VKLeft, RepeatCount: 2}, echo)
	if e.Cursor != 1 {
		t.Errorf("expected cursor 1 after two left arrows, got %d", e.Cursor)
	}
}

func TestCookedEditorSurrogateSafeCursor(t *testing.T) {
	e := NewEditor(true, false, false)
	hi := uint16(0xD83D)
	lo := uint16(0xDE00)
	e.HandleText([]uint16{hi, lo}, NoopEchoSink{})
	e.HandleKey(KeyRecord{KeyDown: true, VirtualKeyCode: VKLeft}, NoopEchoSink{})
	if e.Cursor != 0 {
		t.Errorf("expected cursor to step back over the whole surrogate pair, got %d", e.Cursor)
	}
}

func string16(u []uint16) string {
	r := make([]rune, 0, len(u))
	for i := 0; i < len(u); i++ {
		if IsSurrogateHigh(u[i]) && i+1 < len(u) && IsSurrogateLow(u[i+1]) {
			r = append(r, combineSurrogates(u[i], u[i+1]))
			i++
			continue
		}
		r = append(r, rune(u[i]))
	}
	return string(r)
}
