package dispatch

import (
	"github.com/condrv-project/condrv/internal/screenbuffer"
	"github.com/condrv-project/condrv/internal/server"
	"github.com/condrv-project/condrv/internal/transport"
)

// dispatchModeAPI covers GetMode/SetMode/GetCP/SetCP/GetLangId/
// GetKeyboardLayoutName/GetMouseInfo/GetSelectionInfo (spec §4.6.1).
func (e *Engine) dispatchModeAPI(api APINumber, pkt *transport.Packet, body []byte, h *server.Handle, hasHandle bool) Result {
	switch api {
	case APIGetMode:
		if !hasHandle {
			return status(transport.StatusInvalidHandle)
		}
		w := newWriter(pkt.Output)
		if h.Kind == server.KindInput {
			w.u32(uint32(e.State.InputMode()))
		} else {
			w.u32(uint32(e.State.OutputMode()))
		}
		return ok(uint32(w.len()))

	case APISetMode:
		if !hasHandle {
			return status(transport.StatusInvalidHandle)
		}
		r := newReader(body)
		mode := r.u32()
		if h.Kind == server.KindInput {
			// Input-side mode is applied even when invalid bits are
			// present, for byte-compat with the inbox host (spec §4.6.1).
			e.State.SetInputMode(server.InputMode(mode))
			if mode & ^uint32(server.InputModeProcessed|server.InputModeLine|server.InputModeEcho|server.InputModeMouse|server.InputModeExtended|server.InputModeInsert) != 0 {
				return status(transport.StatusInvalidParameter)
			}
			return ok(0)
		}
		const validOutputBits = uint32(1)<<4 - 1
		if mode & ^validOutputBits != 0 {
			return status(transport.StatusInvalidParameter)
		}
		e.State.SetOutputMode(screenbuffer.OutputMode(mode))
		return ok(0)

	case APIGetCP:
		r := newReader(body)
		isOutput := r.bool()
		w := newWriter(pkt.Output)
		if isOutput {
			w.u32(e.State.OutputCodePage())
		} else {
			w.u32(e.State.InputCodePage())
		}
		return ok(uint32(w.len()))

	case APISetCP:
		r := newReader(body)
		isOutput := r.bool()
		cp := r.u32()
		if isOutput {
			e.State.SetOutputCodePage(cp)
		} else {
			e.State.SetInputCodePage(cp)
		}
		return ok(0)

	case APIGetLangID:
		w := newWriter(pkt.Output)
		w.u32(0x0409) // en-US, the only language this server reports.
		return ok(uint32(w.len()))

	case APIGetKeyboardLayoutName:
		w := newWriter(pkt.Output)
		w.bytes([]byte("00000409"))
		return ok(8)

	case APIGetMouseInfo:
		w := newWriter(pkt.Output)
		w.u32(1) // one simulated mouse button, matching a minimal VT terminal.
		return ok(uint32(w.len()))

	case APIGetSelectionInfo:
		w := newWriter(pkt.Output)
		w.u32(0) // no selection flags; this server never owns a selection.
		w.i16(0)
		w.i16(0)
		w.i16(0)
		w.i16(0)
		return ok(uint32(w.len()))
	}
	return status(transport.StatusNotImplemented)
}
