package dispatch

import (
	"unicode"

	"github.com/condrv-project/condrv/internal/transport"
)

// dispatchCompatAPI covers the "compatibility constants" group (spec
// §6.3): deterministic stubs that succeed without materially changing
// server behavior, standing in for classic-console features this
// server has no physical counterpart for (hardware cursor blink mode,
// EUDC fonts, OS/2 subsystem registration, ...).
func (e *Engine) dispatchCompatAPI(api APINumber, pkt *transport.Packet, body []byte) Result {
	switch api {
	case APISetKeyShortcuts, APISetMenuClose, APISetLocalEUDC,
		APIRegisterOS2, APISetOS2OemFormat, APISetDisplayMode,
		APISetCursorMode, APISetNlsMode, APISetCurrentFont, APISetFont:
		return ok(0)

	case APIGetDisplayMode:
		w := newWriter(pkt.Output)
		w.u32(0) // windowed, the only mode this server models.
		return ok(uint32(w.len()))

	case APIGetCursorMode:
		w := newWriter(pkt.Output)
		w.bool(true) // blinking cursor, fixed.
		return ok(uint32(w.len()))

	case APIGetNlsMode:
		w := newWriter(pkt.Output)
		w.u32(0)
		return ok(uint32(w.len()))

	case APICharType:
		r := newReader(body)
		ch := rune(r.u16())
		var bits uint32
		if unicode.IsLetter(ch) {
			bits |= 0x0001
		}
		if unicode.IsDigit(ch) {
			bits |= 0x0002
		}
		if unicode.IsSpace(ch) {
			bits |= 0x0008
		}
		if unicode.IsPunct(ch) {
			bits |= 0x0010
		}
		w := newWriter(pkt.Output)
		w.u32(bits)
		return ok(uint32(w.len()))

	case APIGetConsoleWindow:
		w := newWriter(pkt.Output)
		w.u64(0) // null window handle: this server has no HWND.
		return ok(uint32(w.len()))

	case APIGetNumberOfFonts:
		w := newWriter(pkt.Output)
		w.u32(1)
		return ok(uint32(w.len()))

	case APIGetFontInfo, APIGetCurrentFont:
		font := e.State.Font()
		w := newWriter(pkt.Output)
		w.u32(0) // single font index.
		w.i16(font.Width)
		w.i16(font.Height)
		writeLenString(w, font.Family)
		return ok(uint32(w.len()))

	case APIGetFontSize:
		font := e.State.Font()
		w := newWriter(pkt.Output)
		w.i16(font.Width)
		w.i16(font.Height)
		return ok(uint32(w.len()))
	}
	return status(transport.StatusNotImplemented)
}
