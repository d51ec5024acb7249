// Package dispatch is the dispatch engine (spec §4.6): single-threaded
// request routing from a transport.Packet onto server.State mutations
// and a transport.Completion, including the reply-pending protocol
// (spec §4.5) and the full user_defined API surface (spec §6.3).
package dispatch

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/condrv-project/condrv/internal/server"
	"github.com/condrv-project/condrv/internal/transport"
	"github.com/condrv-project/condrv/internal/vtinput"
)

// Engine owns one server.State and the reply-pending queue built on
// top of it (spec §4.6, §4.5). It never blocks: every Dispatch call
// returns immediately, with ReplyPending as one possible outcome.
type Engine struct {
	State   *server.State
	Replies *ReplyQueue
	log     zerolog.Logger
}

// New constructs a dispatch engine over an already-initialized server
// state.
func New(state *server.State, log zerolog.Logger) *Engine {
	return &Engine{State: state, Replies: newReplyQueue(), log: log}
}

// Result is a dispatch outcome: either a completion the caller delivers
// via complete_io, or ReplyPending meaning the caller must retain the
// packet and retry later (spec §4.5).
type Result struct {
	Completion   transport.Completion
	ReplyPending bool
	RequestExit  bool
}

// Dispatch routes one already-populated packet (its Input bytes read,
// its Output scratch space allocated) to the matching handler. The
// engine never returns a Go error for malformed client input; that is
// recorded as a Status in the Completion (spec §7).
func (e *Engine) Dispatch(pkt *transport.Packet, io transport.HostIO) Result {
	switch pkt.Descriptor.Function {
	case transport.FuncConnect:
		return e.dispatchConnect(pkt)
	case transport.FuncDisconnect:
		return e.dispatchDisconnect(pkt)
	case transport.FuncCreateObject:
		return e.dispatchCreateObject(pkt)
	case transport.FuncCloseObject:
		return e.dispatchCloseObject(pkt)
	case transport.FuncRawFlush:
		return e.dispatchRawFlush(pkt, io)
	case transport.FuncRawWrite:
		return e.dispatchRawWrite(pkt, io)
	case transport.FuncRawRead:
		return e.dispatchRawRead(pkt, io)
	case transport.FuncUserDefined:
		return e.dispatchUserDefined(pkt, io)
	default:
		return Result{Completion: transport.Completion{Status: transport.StatusInvalidParameter}}
	}
}

func ok(information uint32) Result {
	return Result{Completion: transport.Completion{Status: transport.StatusSuccess, Information: information}}
}

func status(s transport.Status) Result {
	return Result{Completion: transport.Completion{Status: s}}
}

// dispatchConnect implements spec §4.6 connect: connect_body is
// {pid uint32, tid uint32, app_name_len uint16, app_name []byte(utf8)}.
// The reply is {process, input, output uuid.UUID, connect_sequence uint64}.
func (e *Engine) dispatchConnect(pkt *transport.Packet) Result {
	r := newReader(pkt.Input)
	pid := r.u32()
	tid := r.u32()
	nameLen := int(r.u16())
	appName := ""
	if nameLen > 0 {
		if b := r.bytes(nameLen); b != nil {
			appName = string(b)
		}
	}
	p := e.State.Connect(pid, tid, appName)

	w := newWriter(pkt.Output)
	writeUUID(w, p.Handle)
	writeUUID(w, p.InputHandle)
	writeUUID(w, p.OutputHandle)
	w.u64(p.ConnectSequence)
	return ok(uint32(w.len()))
}

// dispatchDisconnect implements spec §4.6 disconnect.
func (e *Engine) dispatchDisconnect(pkt *transport.Packet) Result {
	requestExit := e.State.Disconnect(pkt.Descriptor.Process)
	return Result{Completion: transport.Completion{Status: transport.StatusSuccess}, RequestExit: requestExit}
}

// dispatchCreateObject implements spec §4.6 create_object.
// create_object_body is {desired_access uint32, share_mode uint32, new_output bool}.
func (e *Engine) dispatchCreateObject(pkt *transport.Packet) Result {
	r := newReader(pkt.Input)
	desiredAccess := r.u32()
	shareMode := r.u32()
	newOutput := r.bool()
	h, err := e.State.CreateObject(pkt.Descriptor.Process, desiredAccess, shareMode, newOutput)
	if err != nil {
		return status(transport.StatusInvalidHandle)
	}
	w := newWriter(pkt.Output)
	writeUUID(w, h.ID)
	return ok(uint32(w.len()))
}

// dispatchCloseObject implements spec §4.6 close_object.
func (e *Engine) dispatchCloseObject(pkt *transport.Packet) Result {
	if err := e.State.CloseObject(pkt.Descriptor.Object); err != nil {
		return status(transport.StatusInvalidHandle)
	}
	return ok(0)
}

// dispatchRawFlush implements spec §4.6 raw_flush: resets per-handle
// input decoding and cooked state, flushes host input.
func (e *Engine) dispatchRawFlush(pkt *transport.Packet, io transport.HostIO) Result {
	h, ok2 := e.State.Handle(pkt.Descriptor.Object)
	if !ok2 || h.Kind != server.KindInput {
		return status(transport.StatusInvalidHandle)
	}
	h.PendingInputBytes.Clear()
	h.DecodedInputPending = nil
	if h.Cooked != nil {
		h.Cooked.Reset()
	}
	if err := io.FlushInputBuffer(); err != nil {
		return status(transport.StatusUnsuccessful)
	}
	return ok(0)
}

// dispatchRawWrite implements spec §4.6 raw_write: decodes pkt.Input
// using the output code page, forwards the raw bytes to host output,
// and applies the decoded text to the handle's screen buffer.
func (e *Engine) dispatchRawWrite(pkt *transport.Packet, io transport.HostIO) Result {
	h, ok2 := e.State.Handle(pkt.Descriptor.Object)
	if !ok2 || h.Kind != server.KindOutput || h.ScreenBuffer == nil {
		return status(transport.StatusInvalidHandle)
	}
	cp := resolveCodePage(e.State.OutputCodePage())
	decoded := vtinput.DecodeBytes(cp, pkt.Input, false)
	if _, err := io.WriteOutputBytes(pkt.Input); err != nil {
		return status(transport.StatusUnsuccessful)
	}
	h.ScreenBuffer.Apply(decoded.Chars, e.State.OutputMode(), e.State, io)
	return ok(uint32(len(pkt.Input)))
}

// dispatchRawRead implements spec §4.6 raw_read: byte-oriented read
// honoring processed-mode Ctrl+C/Ctrl+Z and line mode via the cooked
// editor, re-encoding decoded characters through the input code page.
func (e *Engine) dispatchRawRead(pkt *transport.Packet, io transport.HostIO) Result {
	h, ok2 := e.State.Handle(pkt.Descriptor.Object)
	if !ok2 || h.Kind != server.KindInput {
		return status(transport.StatusInvalidHandle)
	}
	out, st, pending := e.readInto(h, io, len(pkt.Output))
	if pending {
		return Result{ReplyPending: true}
	}
	if st != transport.StatusSuccess {
		return status(st)
	}
	copy(pkt.Output, out)
	return ok(uint32(len(out)))
}

// readInto drains host input into h, running it through the cooked
// editor when line mode is set, and returns up to maxBytes of
// input-code-page-encoded output. Bytes are only consumed from the
// handle's pending buffer once delivered (or swallowed as control
// events), so a retry after reply-pending or a short caller buffer
// resumes exactly where this read stopped.
func (e *Engine) readInto(h *server.Handle, io transport.HostIO, maxBytes int) (out []byte, st transport.Status, pending bool) {
	cp := resolveCodePage(e.State.InputCodePage())
	processed := e.State.InputMode().Has(server.InputModeProcessed)
	lineMode := e.State.InputMode().Has(server.InputModeLine)

	if lineMode && h.Cooked != nil && len(h.Cooked.Ready) > 0 {
		return drainReady(h.Cooked, cp, maxBytes)
	}

	fillPending(h, io)
	raw := h.PendingInputBytes.Bytes()

	if lineMode && h.Cooked != nil {
		h.Cooked.SetModes(processed, e.State.InputMode().Has(server.InputModeEcho), true)
		consumed, ctrlC, ctrlBreak, eof := feedCookedEditor(h.Cooked, cp, raw, e.cookedEcho(h), e.cookedHistory(h))
		h.PendingInputBytes.ConsumePrefix(consumed)
		if ctrlC {
			e.signalAll(io, transport.CtrlCEvent)
			return nil, transport.StatusAlerted, false
		}
		if ctrlBreak {
			_ = io.FlushInputBuffer()
			h.PendingInputBytes.Clear()
			h.DecodedInputPending = nil
			h.Cooked.Reset()
			e.signalAll(io, transport.CtrlBreakEvent)
			return nil, transport.StatusAlerted, false
		}
		if eof {
			return nil, transport.StatusSuccess, false
		}
		if len(h.Cooked.Ready) > 0 {
			return drainReady(h.Cooked, cp, maxBytes)
		}
		if io.InputDisconnected() {
			return nil, transport.StatusSuccess, false
		}
		return nil, transport.StatusSuccess, true
	}

	// Raw byte-oriented read: deliver decoded tokens until the caller's
	// buffer is full, consuming only what is delivered.
	consumed := 0
	rest := raw
	for len(rest) > 0 {
		tok := vtinput.DecodeToken(cp, rest)
		if tok.Kind == vtinput.TokenNeedMoreData {
			break
		}
		var chars []uint16
		switch tok.Kind {
		case vtinput.TokenText:
			chars = tok.Chars
		case vtinput.TokenKeyEvent:
			if tok.Key.KeyDown && tok.Key.Char != 0 {
				chars = []uint16{tok.Key.Char}
			}
		}
		if processed && len(chars) == 1 && chars[0] == 0x03 {
			h.PendingInputBytes.ConsumePrefix(consumed + tok.BytesConsumed)
			e.signalAll(io, transport.CtrlCEvent)
			return nil, transport.StatusAlerted, false
		}
		if processed && len(out) == 0 && len(chars) == 1 && chars[0] == 0x1A {
			h.PendingInputBytes.ConsumePrefix(consumed + tok.BytesConsumed)
			return nil, transport.StatusSuccess, false
		}
		if len(chars) > 0 {
			enc := encodeCodePage(cp, chars)
			if len(out)+len(enc) > maxBytes {
				break
			}
			out = append(out, enc...)
		}
		consumed += tok.BytesConsumed
		rest = rest[tok.BytesConsumed:]
	}
	h.PendingInputBytes.ConsumePrefix(consumed)
	if len(out) == 0 {
		if io.InputDisconnected() {
			return nil, transport.StatusSuccess, false
		}
		return nil, transport.StatusSuccess, true
	}
	return out, transport.StatusSuccess, false
}

// fillPending moves host input bytes into the handle's pending buffer,
// bounded by the buffer's remaining capacity so nothing is ever dropped
// between a drain and a decode.
func fillPending(h *server.Handle, io transport.HostIO) {
	space := vtinput.MaxPendingBytes - h.PendingInputBytes.Len()
	if space <= 0 {
		return
	}
	avail := io.InputBytesAvailable()
	if avail <= 0 {
		return
	}
	if avail > space {
		avail = space
	}
	buf := make([]byte, avail)
	read, _ := io.ReadInputBytes(buf)
	h.PendingInputBytes.Append(buf[:read])
}

// drainReady delivers a completed cooked line piecemeal (spec §4.4.5):
// the maximal prefix whose encoding fits in maxBytes is consumed and
// returned; when not even one encoded character fits, the read fails
// with buffer_too_small and consumes nothing.
func drainReady(ed *vtinput.Editor, cp vtinput.CodePage, maxBytes int) ([]byte, transport.Status, bool) {
	var out []byte
	i := 0
	for i < len(ed.Ready) {
		next := vtinput.NextIndex(ed.Ready, i)
		enc := encodeCodePage(cp, ed.Ready[i:next])
		if len(out)+len(enc) > maxBytes {
			break
		}
		out = append(out, enc...)
		i = next
	}
	if i == 0 {
		return nil, transport.StatusBufferTooSmall, false
	}
	ed.Ready = ed.Ready[i:]
	if len(ed.Ready) == 0 {
		ed.Ready = nil
	}
	return out, transport.StatusSuccess, false
}

func (e *Engine) signalAll(io transport.HostIO, eventType uint32) {
	for _, t := range e.State.CtrlEventTargets(0) {
		_ = io.SendEndTask(t.Pid, eventType, 0)
	}
}

// feedCookedEditor decodes every complete token in raw and drives the
// cooked editor (spec §4.4.4), stopping at the first Ctrl+C/Ctrl+Break,
// a Ctrl+Z that terminates the read (process_control_z set, line
// empty), or an incomplete trailing sequence.
func feedCookedEditor(ed *vtinput.Editor, cp vtinput.CodePage, raw []byte, echo vtinput.EchoSink, history vtinput.HistorySink) (consumed int, ctrlC, ctrlBreak, eof bool) {
	rest := raw
	swallowLF := false
	for len(rest) > 0 {
		tok := vtinput.DecodeToken(cp, rest)
		if tok.Kind == vtinput.TokenNeedMoreData {
			break
		}
		consumed += tok.BytesConsumed
		rest = rest[tok.BytesConsumed:]
		switch tok.Kind {
		case vtinput.TokenText:
			wasSwallow := swallowLF
			swallowLF = false
			if len(tok.Chars) == 1 && tok.Chars[0] == 0x03 {
				ctrlC = true
				return
			}
			if len(tok.Chars) == 1 && tok.Chars[0] == 0x1A && ed.AtCtrlZEOF() {
				eof = true
				return
			}
			if len(tok.Chars) == 1 && tok.Chars[0] == '\r' {
				ed.Finalize(true, echo, history)
				swallowLF = true
				continue
			}
			if len(tok.Chars) == 1 && tok.Chars[0] == '\n' {
				if wasSwallow {
					// The LF half of a CRLF terminator; the CR already
					// finalized the line.
					continue
				}
				ed.Finalize(false, echo, history)
				continue
			}
			if len(tok.Chars) == 1 && tok.Chars[0] == 0x08 {
				ed.HandleBackspace(echo)
				continue
			}
			ed.HandleText(tok.Chars, echo)
		case vtinput.TokenKeyEvent:
			swallowLF = false
			if !tok.Key.KeyDown {
				continue
			}
			if tok.Key.VirtualKeyCode == vtinput.VKCancel {
				ctrlBreak = true
				return
			}
			if tok.Key.Char == 0x03 {
				ctrlC = true
				return
			}
			if tok.Key.Char == '\r' {
				ed.Finalize(true, echo, history)
				swallowLF = true
				continue
			}
			if tok.Key.Char == 0x08 {
				ed.HandleBackspace(echo)
				continue
			}
			if tok.Key.Char >= 0x20 {
				ed.HandleText([]uint16{tok.Key.Char}, echo)
				continue
			}
			ed.HandleKey(tok.Key, echo)
		}
	}
	return
}

func writeUUID(w *writer, id uuid.UUID) { w.bytes(id[:]) }

func readUUID(b []byte) uuid.UUID {
	var id uuid.UUID
	copy(id[:], b)
	return id
}

// resolveCodePage maps the server-state sentinel (0 == system OEM) to
// a concrete decoder code page.
func resolveCodePage(cp uint32) vtinput.CodePage {
	if cp == server.CPOEMSystem {
		return vtinput.CPOEM
	}
	return vtinput.CodePage(cp)
}

func encodeCodePage(cp vtinput.CodePage, units []uint16) []byte {
	return vtinput.EncodeUnits(cp, units)
}

func utf16ToUTF8(units []uint16) []byte {
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		if vtinput.IsSurrogateHigh(u) && i+1 < len(units) && vtinput.IsSurrogateLow(units[i+1]) {
			r := (rune(u-0xD800) << 10) + rune(units[i+1]-0xDC00) + 0x10000
			runes = append(runes, r)
			i++
			continue
		}
		runes = append(runes, rune(u))
	}
	return []byte(string(runes))
}
