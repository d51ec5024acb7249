package dispatch

import (
	"testing"

	"github.com/google/uuid"

	"github.com/condrv-project/condrv/internal/cellgrid"
	"github.com/condrv-project/condrv/internal/config"
	"github.com/condrv-project/condrv/internal/logging"
	"github.com/condrv-project/condrv/internal/screenbuffer"
	"github.com/condrv-project/condrv/internal/server"
	"github.com/condrv-project/condrv/internal/transport"
	"github.com/condrv-project/condrv/internal/vtinput"
)

// fakeHostIO is a minimal transport.HostIO backed by an in-memory byte
// queue, enough to drive the dispatch engine end to end without a real
// PTY behind it.
type fakeHostIO struct {
	queue        []byte
	output       []byte
	disconnected bool
	answer       bool
	signaled     []uint32
}

func (f *fakeHostIO) WriteOutputBytes(b []byte) (int, error) {
	f.output = append(f.output, b...)
	return len(b), nil
}

func (f *fakeHostIO) ReadInputBytes(dest []byte) (int, error) {
	n := copy(dest, f.queue)
	f.queue = f.queue[n:]
	return n, nil
}

func (f *fakeHostIO) PeekInputBytes(dest []byte) (int, error) {
	return copy(dest, f.queue), nil
}

func (f *fakeHostIO) InputBytesAvailable() int { return len(f.queue) }
func (f *fakeHostIO) InputDisconnected() bool  { return f.disconnected }

func (f *fakeHostIO) InjectInputBytes(b []byte) bool {
	f.queue = append(f.queue, b...)
	return true
}

func (f *fakeHostIO) FlushInputBuffer() error { f.queue = nil; return nil }
func (f *fakeHostIO) ShouldAnswerQueries() bool { return f.answer }

func (f *fakeHostIO) SendEndTask(pid uint32, eventType uint32, ctrlFlags uint32) error {
	f.signaled = append(f.signaled, eventType)
	return nil
}

func newTestEngine() *Engine {
	return New(server.New(config.Default()), logging.Nop())
}

func connectBody(pid, tid uint32, appName string) []byte {
	name := []byte(appName)
	b := make([]byte, 4+4+2+len(name))
	w := newWriter(b)
	w.u32(pid)
	w.u32(tid)
	w.u16(uint16(len(name)))
	w.bytes(name)
	return b
}

func doConnect(t *testing.T, e *Engine, appName string) (processID, inputID, outputID uuid.UUID) {
	t.Helper()
	pkt := &transport.Packet{
		Descriptor: transport.Descriptor{Function: transport.FuncConnect},
		Input:      connectBody(100, 1, appName),
		Output:     make([]byte, 3*16+8),
	}
	res := e.Dispatch(pkt, nil)
	if res.Completion.Status != transport.StatusSuccess {
		t.Fatalf("connect failed: %v", res.Completion.Status)
	}
	copy(processID[:], pkt.Output[0:16])
	copy(inputID[:], pkt.Output[16:32])
	copy(outputID[:], pkt.Output[32:48])
	return
}

func userDefinedBody(api APINumber, body []byte) []byte {
	b := make([]byte, 8+len(body))
	w := newWriter(b)
	w.u32(uint32(api))
	w.u32(uint32(len(body)))
	w.bytes(body)
	return b
}

func TestConnectWriteRead(t *testing.T) {
	e := newTestEngine()
	e.State.SetInputMode(server.InputModeProcessed) // raw byte read, no line editing
	_, inputID, outputID := doConnect(t, e, "")

	writePkt := &transport.Packet{
		Descriptor: transport.Descriptor{Function: transport.FuncRawWrite, Object: outputID},
		Input:      []byte("hi"),
	}
	res := e.Dispatch(writePkt, &fakeHostIO{})
	if res.Completion.Status != transport.StatusSuccess || res.Completion.Information != 2 {
		t.Fatalf("raw_write failed: %+v", res)
	}
	h, _ := e.State.Handle(outputID)
	c, _ := h.ScreenBuffer.Grid().Cell(cellgrid.Point{X: 0, Y: 0})
	if c.Char != 'h' {
		t.Errorf("expected 'h' written to screen buffer, got %q", c.Char)
	}

	io := &fakeHostIO{queue: []byte("AB")}
	readPkt := &transport.Packet{
		Descriptor: transport.Descriptor{Function: transport.FuncRawRead, Object: inputID},
		Output:     make([]byte, 16),
	}
	res = e.Dispatch(readPkt, io)
	if res.ReplyPending {
		t.Fatalf("expected immediate completion, got reply-pending")
	}
	if res.Completion.Status != transport.StatusSuccess || res.Completion.Information != 2 {
		t.Fatalf("raw_read failed: %+v", res)
	}
	if string(readPkt.Output[:2]) != "AB" {
		t.Errorf("expected \"AB\", got %q", readPkt.Output[:2])
	}
}

func TestCookedLineWithHistoryDelivery(t *testing.T) {
	e := newTestEngine()
	_, inputID, _ := doConnect(t, e, "myapp.exe")

	io := &fakeHostIO{queue: []byte("echo\r")}
	readPkt := &transport.Packet{
		Descriptor: transport.Descriptor{Function: transport.FuncRawRead, Object: inputID},
		Output:     make([]byte, 32),
	}
	res := e.Dispatch(readPkt, io)
	if res.ReplyPending {
		t.Fatalf("expected the finalized line to complete immediately")
	}
	if res.Completion.Status != transport.StatusSuccess {
		t.Fatalf("raw_read failed: %v", res.Completion.Status)
	}
	got := string(readPkt.Output[:res.Completion.Information])
	if got != "echo\r\n" {
		t.Errorf("expected %q, got %q", "echo\r\n", got)
	}

	entries := e.State.History().For("myapp.exe").All()
	if len(entries) != 1 || string(vtinput16ToString(entries[0])) != "echo" {
		t.Errorf("expected history entry \"echo\", got %+v", entries)
	}
}

func vtinput16ToString(units []uint16) string {
	b := make([]byte, len(units))
	for i, u := range units {
		b[i] = byte(u)
	}
	return string(b)
}

func TestCtrlZEOFAtEmptyLine(t *testing.T) {
	e := newTestEngine()
	_, inputID, _ := doConnect(t, e, "")

	io := &fakeHostIO{queue: []byte{0x1A}}
	readPkt := &transport.Packet{
		Descriptor: transport.Descriptor{Function: transport.FuncRawRead, Object: inputID},
		Output:     make([]byte, 8),
	}
	res := e.Dispatch(readPkt, io)
	if res.ReplyPending {
		t.Fatalf("expected Ctrl+Z at an empty line to complete immediately")
	}
	if res.Completion.Status != transport.StatusSuccess || res.Completion.Information != 0 {
		t.Errorf("expected a 0-byte success completion, got %+v", res)
	}
}

func TestAlternateScreenBufferRoundTripViaDispatch(t *testing.T) {
	e := newTestEngine()
	e.State.SetOutputMode(screenbuffer.ModeProcessed | screenbuffer.ModeVTProcessing | screenbuffer.ModeWrapAtEOL)
	_, _, outputID := doConnect(t, e, "")
	io := &fakeHostIO{}

	write := func(s string) {
		pkt := &transport.Packet{
			Descriptor: transport.Descriptor{Function: transport.FuncRawWrite, Object: outputID},
			Input:      []byte(s),
		}
		if res := e.Dispatch(pkt, io); res.Completion.Status != transport.StatusSuccess {
			t.Fatalf("raw_write %q failed: %v", s, res.Completion.Status)
		}
	}

	write("X")
	write("\x1b[?1049h")
	write("Y")
	write("\x1b[?1049l")

	h, _ := e.State.Handle(outputID)
	c, _ := h.ScreenBuffer.Grid().Cell(cellgrid.Point{X: 0, Y: 0})
	if c.Char != 'X' {
		t.Errorf("expected main buffer content 'X' preserved across alternate-buffer round trip, got %q", c.Char)
	}
}

func TestCookedLinePiecemealDelivery(t *testing.T) {
	e := newTestEngine()
	_, inputID, _ := doConnect(t, e, "")

	io := &fakeHostIO{queue: []byte("echo\r")}
	read := func(size int) (string, transport.Status) {
		pkt := &transport.Packet{
			Descriptor: transport.Descriptor{Function: transport.FuncRawRead, Object: inputID},
			Output:     make([]byte, size),
		}
		res := e.Dispatch(pkt, io)
		if res.ReplyPending {
			t.Fatalf("unexpected reply-pending")
		}
		return string(pkt.Output[:res.Completion.Information]), res.Completion.Status
	}

	got, st := read(3)
	if st != transport.StatusSuccess || got != "ech" {
		t.Fatalf("first chunk = %q (%v), want \"ech\"", got, st)
	}
	got, st = read(16)
	if st != transport.StatusSuccess || got != "o\r\n" {
		t.Errorf("second chunk = %q (%v), want \"o\\r\\n\"", got, st)
	}
}

func TestCtrlCAlertsAndSignalsAllProcesses(t *testing.T) {
	e := newTestEngine()
	_, inputID, _ := doConnect(t, e, "")
	doConnect(t, e, "")

	io := &fakeHostIO{queue: []byte{0x03}}
	pkt := &transport.Packet{
		Descriptor: transport.Descriptor{Function: transport.FuncRawRead, Object: inputID},
		Output:     make([]byte, 8),
	}
	res := e.Dispatch(pkt, io)
	if res.Completion.Status != transport.StatusAlerted {
		t.Fatalf("expected alerted status, got %v", res.Completion.Status)
	}
	if len(io.signaled) != 2 {
		t.Errorf("expected CTRL_C dispatched to both connected processes, got %d", len(io.signaled))
	}
	if io.InputBytesAvailable() != 0 {
		t.Errorf("expected the 0x03 byte to be consumed")
	}
}

func TestTitleRoundTripUnicode(t *testing.T) {
	e := newTestEngine()
	_, _, outputID := doConnect(t, e, "")

	title := stringToUTF16("héllo")
	setBody := append([]byte{1}, utf16ToBytes(title)...)
	setPkt := &transport.Packet{
		Descriptor: transport.Descriptor{Function: transport.FuncUserDefined, Object: outputID},
		Input:      userDefinedBody(APISetTitle, setBody),
	}
	if res := e.Dispatch(setPkt, &fakeHostIO{}); res.Completion.Status != transport.StatusSuccess {
		t.Fatalf("SetTitle failed: %v", res.Completion.Status)
	}

	getPkt := &transport.Packet{
		Descriptor: transport.Descriptor{Function: transport.FuncUserDefined, Object: outputID},
		Input:      userDefinedBody(APIGetTitle, []byte{1, 0}),
		Output:     make([]byte, 64),
	}
	res := e.Dispatch(getPkt, &fakeHostIO{})
	if res.Completion.Status != transport.StatusSuccess {
		t.Fatalf("GetTitle failed: %v", res.Completion.Status)
	}
	got := utf16ToString(bytesToUTF16(getPkt.Output[:res.Completion.Information]))
	if got != "héllo" {
		t.Errorf("title round trip = %q, want %q", got, "héllo")
	}
}

func TestGetConsoleInputSurrogateStash(t *testing.T) {
	e := newTestEngine()
	_, inputID, _ := doConnect(t, e, "")
	e.State.SetInputCodePage(uint32(vtinput.CPUTF8))
	// U+1F600, a surrogate pair once decoded.
	io := &fakeHostIO{queue: []byte{0xF0, 0x9F, 0x98, 0x80}}

	body := make([]byte, 0, 6)
	bw := newWriter(make([]byte, 6))
	bw.bool(false) // peek
	bw.bool(true)  // no_wait
	bw.u32(1)      // max_records
	body = bw.b

	pkt := &transport.Packet{
		Descriptor: transport.Descriptor{Function: transport.FuncUserDefined, Object: inputID},
		Input:      userDefinedBody(APIGetConsoleInput, body),
		Output:     make([]byte, 32),
	}
	res := e.Dispatch(pkt, io)
	if res.Completion.Status != transport.StatusSuccess {
		t.Fatalf("first GetConsoleInput failed: %v", res.Completion.Status)
	}
	r := newReader(pkt.Output[:res.Completion.Information])
	r.bool()
	r.u16()
	r.u16()
	r.u16()
	char1 := r.u16()
	if !vtinput.IsSurrogateHigh(char1) {
		t.Fatalf("expected high surrogate in first record, got %#x", char1)
	}

	h, _ := e.State.Handle(inputID)
	if h.DecodedInputPending == nil {
		t.Fatalf("expected low surrogate unit to be stashed in DecodedInputPending")
	}

	pkt2 := &transport.Packet{
		Descriptor: transport.Descriptor{Function: transport.FuncUserDefined, Object: inputID},
		Input:      userDefinedBody(APIGetConsoleInput, body),
		Output:     make([]byte, 32),
	}
	res = e.Dispatch(pkt2, io)
	if res.Completion.Status != transport.StatusSuccess {
		t.Fatalf("second GetConsoleInput failed: %v", res.Completion.Status)
	}
	r2 := newReader(pkt2.Output[:res.Completion.Information])
	r2.bool()
	r2.u16()
	r2.u16()
	r2.u16()
	char2 := r2.u16()
	if !vtinput.IsSurrogateLow(char2) {
		t.Fatalf("expected low surrogate in second record, got %#x", char2)
	}
	if h.DecodedInputPending != nil {
		t.Errorf("expected stash to be cleared after delivering the low unit")
	}
}

