package dispatch

import "github.com/condrv-project/condrv/internal/transport"

// dispatchAliasAPI covers AddAlias/GetAlias/GetAliasesLength/
// GetAliases/GetAliasExesLength/GetAliasExes (spec §4.7, §6.3).
// Every string field is a raw UTF-8 byte run; api_descriptor_size
// framing at the userapi.go layer already bounds body to its payload.
func (e *Engine) dispatchAliasAPI(api APINumber, pkt *transport.Packet, body []byte) Result {
	aliases := e.State.Aliases()

	switch api {
	case APIAddAlias:
		exe, rest := readLenString(body)
		source, rest2 := readLenString(rest)
		target, _ := readLenString(rest2)
		aliases.Add(exe, source, target)
		return ok(0)

	case APIGetAlias:
		exe, rest := readLenString(body)
		source, _ := readLenString(rest)
		target, found := aliases.Get(exe, source)
		if !found {
			return status(transport.StatusInvalidParameter)
		}
		if len(target) > len(pkt.Output) {
			return status(transport.StatusBufferTooSmall)
		}
		w := newWriter(pkt.Output)
		w.bytes([]byte(target))
		return ok(uint32(len(target)))

	case APIGetAliasesLength:
		exe := string(body)
		var total int
		for _, src := range aliases.Sources(exe) {
			total += len(src) + len(aliases.Target(exe, src)) + 2
		}
		w := newWriter(pkt.Output)
		w.u32(uint32(total))
		return ok(uint32(w.len()))

	case APIGetAliases:
		exe := string(body)
		w := newWriter(pkt.Output)
		for _, src := range aliases.Sources(exe) {
			writeLenString(w, src)
			writeLenString(w, aliases.Target(exe, src))
		}
		return ok(uint32(w.len()))

	case APIGetAliasExesLength:
		var total int
		for _, exe := range aliases.Exes() {
			total += len(exe) + 1
		}
		w := newWriter(pkt.Output)
		w.u32(uint32(total))
		return ok(uint32(w.len()))

	case APIGetAliasExes:
		w := newWriter(pkt.Output)
		for _, exe := range aliases.Exes() {
			writeLenString(w, exe)
		}
		return ok(uint32(w.len()))
	}
	return status(transport.StatusNotImplemented)
}

// readLenString reads a {u16 length, bytes} string and returns it plus
// the remaining bytes.
func readLenString(b []byte) (string, []byte) {
	r := newReader(b)
	n := int(r.u16())
	s := r.bytes(n)
	return string(s), r.rest()
}

func writeLenString(w *writer, s string) {
	w.u16(uint16(len(s)))
	w.bytes([]byte(s))
}
