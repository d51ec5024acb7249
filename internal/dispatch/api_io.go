package dispatch

import (
	"github.com/condrv-project/condrv/internal/server"
	"github.com/condrv-project/condrv/internal/transport"
	"github.com/condrv-project/condrv/internal/vtinput"
)

const keyRecordWireSize = 13 // bool + u16 + u16 + u16 + u16 + u32

// dispatchIOAPI covers WriteConsole/ReadConsole/GetConsoleInput/
// WriteConsoleInput/FlushInputBuffer/GetNumberOfInputEvents (spec §6.3).
func (e *Engine) dispatchIOAPI(api APINumber, pkt *transport.Packet, io transport.HostIO, body []byte, h *server.Handle, hasHandle bool) Result {
	switch api {
	case APIWriteConsole:
		if !hasHandle || h.Kind != server.KindOutput || h.ScreenBuffer == nil {
			return status(transport.StatusInvalidHandle)
		}
		units := bytesToUTF16(body)
		cp := resolveCodePage(e.State.OutputCodePage())
		if _, err := io.WriteOutputBytes(encodeCodePage(cp, units)); err != nil {
			return status(transport.StatusUnsuccessful)
		}
		h.ScreenBuffer.Apply(units, e.State.OutputMode(), e.State, io)
		return ok(uint32(len(units)))

	case APIReadConsole:
		if !hasHandle || h.Kind != server.KindInput {
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

	case APIGetConsoleInput:
		if !hasHandle || h.Kind != server.KindInput {
			return status(transport.StatusInvalidHandle)
		}
		return e.apiGetConsoleInput(pkt, io, body, h)

	case APIWriteConsoleInput:
		if !hasHandle || h.Kind != server.KindInput {
			return status(transport.StatusInvalidHandle)
		}
		return e.apiWriteConsoleInput(pkt, io, body)

	case APIFlushInputBuffer:
		if !hasHandle || h.Kind != server.KindInput {
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

	case APIGetNumberOfInputEvents:
		if !hasHandle || h.Kind != server.KindInput {
			return status(transport.StatusInvalidHandle)
		}
		return e.apiGetNumberOfInputEvents(pkt, io, h)
	}
	return status(transport.StatusNotImplemented)
}

// apiGetConsoleInput implements GetConsoleInput (spec §4.6.1): up to
// maxRecords decoded key records, peek-only or consuming. A pending
// stashed low surrogate unit (left by a previous non-peek read that
// couldn't fit both halves of a pair into its last slot) always fills
// the first output slot before anything new is decoded, and a new
// stash is set when the same situation recurs.
func (e *Engine) apiGetConsoleInput(pkt *transport.Packet, io transport.HostIO, body []byte, h *server.Handle) Result {
	r := newReader(body)
	peek := r.bool()
	noWait := r.bool()
	maxRecords := int(r.u32())
	if maxRecords <= 0 {
		return ok(0)
	}
	cp := resolveCodePage(e.State.InputCodePage())

	var records []vtinput.KeyRecord
	if h.DecodedInputPending != nil {
		records = append(records, vtinput.KeyRecord{KeyDown: true, RepeatCount: 1, Char: *h.DecodedInputPending})
	}

	remaining := maxRecords - len(records)
	var consumed int
	var stash *uint16
	if remaining > 0 {
		peekBuf := make([]byte, 4096)
		n, _ := io.PeekInputBytes(peekBuf)
		combined := append(append([]byte(nil), h.PendingInputBytes.Bytes()...), peekBuf[:n]...)
		var decoded []vtinput.KeyRecord
		decoded, consumed, stash = vtinput.DecodeKeyEventsLimit(cp, combined, remaining)
		records = append(records, decoded...)
	}

	if len(records) == 0 {
		if !noWait && !io.InputDisconnected() {
			return Result{ReplyPending: true}
		}
		return ok(0)
	}

	w := newWriter(pkt.Output)
	for _, rec := range records {
		writeKeyRecord(w, rec)
	}

	if !peek {
		h.DecodedInputPending = nil
		pendingLen := h.PendingInputBytes.Len()
		if consumed <= pendingLen {
			h.PendingInputBytes.ConsumePrefix(consumed)
		} else {
			fresh := consumed - pendingLen
			h.PendingInputBytes.Clear()
			drain := make([]byte, fresh)
			actual, _ := io.ReadInputBytes(drain)
			if actual < fresh {
				h.PendingInputBytes.Append(drain[:actual])
			}
		}
		if stash != nil {
			v := *stash
			h.DecodedInputPending = &v
		}
	}
	return ok(uint32(w.len()))
}

func writeKeyRecord(w *writer, rec vtinput.KeyRecord) {
	w.bool(rec.KeyDown)
	w.u16(rec.RepeatCount)
	w.u16(rec.VirtualKeyCode)
	w.u16(rec.VirtualScanCode)
	w.u16(rec.Char)
	w.u32(rec.ControlKeyState)
}

// apiWriteConsoleInput injects synthesized key-down characters back
// into the host input stream, the inverse of GetConsoleInput: it is
// primarily useful for test/automation callers driving the server
// without a real terminal in front of it.
func (e *Engine) apiWriteConsoleInput(pkt *transport.Packet, io transport.HostIO, body []byte) Result {
	r := newReader(body)
	count := int(r.u32())
	var injected uint32
	for i := 0; i < count; i++ {
		if !r.ok() {
			break
		}
		keyDown := r.bool()
		r.u16() // repeat count, unused on injection.
		r.u16() // virtual key code, unused on injection.
		r.u16() // virtual scan code, unused on injection.
		ch := r.u16()
		r.u32() // control key state, unused on injection.
		if keyDown && ch != 0 {
			if io.InjectInputBytes(utf16ToUTF8([]uint16{ch})) {
				injected++
			}
		}
	}
	w := newWriter(pkt.Output)
	w.u32(injected)
	return ok(uint32(w.len()))
}

func (e *Engine) apiGetNumberOfInputEvents(pkt *transport.Packet, io transport.HostIO, h *server.Handle) Result {
	cp := resolveCodePage(e.State.InputCodePage())
	processed := e.State.InputMode().Has(server.InputModeProcessed)

	peekBuf := make([]byte, 64*1024)
	n, _ := io.PeekInputBytes(peekBuf)
	combined := append(append([]byte(nil), h.PendingInputBytes.Bytes()...), peekBuf[:n]...)
	count := vtinput.CountEvents(cp, combined, processed)
	if h.DecodedInputPending != nil {
		count++
	}
	w := newWriter(pkt.Output)
	w.u32(count)
	return ok(uint32(w.len()))
}
