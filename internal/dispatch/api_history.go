package dispatch

import "github.com/condrv-project/condrv/internal/transport"

// dispatchHistoryAPI covers GetHistory/SetHistory/
// ExpungeCommandHistory/SetNumberOfCommands/GetCommandHistoryLength/
// GetCommandHistory (spec §4.7, §6.3).
func (e *Engine) dispatchHistoryAPI(api APINumber, pkt *transport.Packet, body []byte) Result {
	history := e.State.History()

	switch api {
	case APIGetHistory:
		exe := string(body)
		h := history.For(exe)
		w := newWriter(pkt.Output)
		w.u32(uint32(h.Len()))
		w.bool(false) // dedup flag is write-only via SetHistory in this model.
		return ok(uint32(w.len()))

	case APISetHistory:
		exe, rest := readLenString(body)
		r := newReader(rest)
		bufferSize := int(r.u32())
		dedup := r.bool()
		history.SetHistory(exe, bufferSize, dedup)
		return ok(0)

	case APIExpungeCommandHistory:
		history.Expunge(string(body))
		return ok(0)

	case APISetNumberOfCommands:
		exe, rest := readLenString(body)
		n := int(newReader(rest).u32())
		history.SetNumberOfCommands(exe, n)
		return ok(0)

	case APIGetCommandHistoryLength:
		exe := string(body)
		h := history.For(exe)
		var total int
		for _, line := range h.All() {
			total += len(line)*2 + 2
		}
		w := newWriter(pkt.Output)
		w.u32(uint32(total))
		return ok(uint32(w.len()))

	case APIGetCommandHistory:
		exe := string(body)
		h := history.For(exe)
		w := newWriter(pkt.Output)
		for _, line := range h.All() {
			w.u16(uint16(len(line)))
			w.bytes(utf16ToBytes(line))
		}
		return ok(uint32(w.len()))
	}
	return status(transport.StatusNotImplemented)
}
