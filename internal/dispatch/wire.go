package dispatch

import "encoding/binary"

// reader is a small cursor over a user_defined_body's fixed-layout
// descriptor bytes, grounded on the decode-via-encoding/binary idiom
// the pack uses for wire payloads (e.g. thyth-nosshtradamus's
// InterpretPtyReq), adapted from io.Reader + binary.Read to direct
// little-endian slice access since every classic-console descriptor
// field is a fixed-width value at a fixed offset, never a
// variable-length prefix-length pair beyond the trailing string
// payloads this reader also handles.
type reader struct {
	b   []byte
	pos int
	err bool
}

func newReader(b []byte) *reader { return &reader{b: b} }

func (r *reader) need(n int) bool {
	if r.err || r.pos+n > len(r.b) {
		r.err = true
		return false
	}
	return true
}

func (r *reader) u16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.b[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) i16() int16 { return int16(r.u16()) }

func (r *reader) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) i32() int32 { return int32(r.u32()) }

func (r *reader) u64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.b[r.pos:])
	r.pos += 8
	return v
}

func (r *reader) byteVal() byte {
	if !r.need(1) {
		return 0
	}
	v := r.b[r.pos]
	r.pos++
	return v
}

func (r *reader) bool() bool { return r.byteVal() != 0 }

// bytes reads n raw bytes.
func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.b[r.pos : r.pos+n]
	r.pos += n
	return v
}

// rest returns every remaining byte.
func (r *reader) rest() []byte {
	if r.err || r.pos > len(r.b) {
		return nil
	}
	return r.b[r.pos:]
}

func (r *reader) ok() bool { return !r.err }

// writer builds a fixed-layout reply descriptor in place.
type writer struct {
	b   []byte
	pos int
}

func newWriter(b []byte) *writer { return &writer{b: b} }

func (w *writer) fits(n int) bool { return w.pos+n <= len(w.b) }

func (w *writer) u16(v uint16) {
	if !w.fits(2) {
		return
	}
	binary.LittleEndian.PutUint16(w.b[w.pos:], v)
	w.pos += 2
}

func (w *writer) i16(v int16) { w.u16(uint16(v)) }

func (w *writer) u32(v uint32) {
	if !w.fits(4) {
		return
	}
	binary.LittleEndian.PutUint32(w.b[w.pos:], v)
	w.pos += 4
}

func (w *writer) i32(v int32) { w.u32(uint32(v)) }

func (w *writer) u64(v uint64) {
	if !w.fits(8) {
		return
	}
	binary.LittleEndian.PutUint64(w.b[w.pos:], v)
	w.pos += 8
}

func (w *writer) byteVal(v byte) {
	if !w.fits(1) {
		return
	}
	w.b[w.pos] = v
	w.pos++
}

func (w *writer) bool(v bool) {
	if v {
		w.byteVal(1)
	} else {
		w.byteVal(0)
	}
}

func (w *writer) bytes(b []byte) {
	n := copy(w.b[w.pos:], b)
	w.pos += n
}

func (w *writer) len() int { return w.pos }

// utf16ToBytes/bytesToUTF16 convert between []uint16 and a raw
// little-endian byte encoding, the wire representation of every wide
// string field (spec's Cell.character and INPUT_RECORD.Char are both
// unit-16).
func utf16ToBytes(units []uint16) []byte {
	out := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[i*2:], u)
	}
	return out
}

func bytesToUTF16(b []byte) []uint16 {
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return out
}

// stringToUTF16/utf16ToString convert between Go strings and the UTF-16
// unit slices used by every wide-string descriptor field.
func stringToUTF16(s string) []uint16 {
	out := make([]uint16, 0, len(s))
	for _, r := range s {
		if r > 0xFFFF {
			r -= 0x10000
			out = append(out, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
			continue
		}
		out = append(out, uint16(r))
	}
	return out
}

func utf16ToString(units []uint16) string {
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u >= 0xD800 && u <= 0xDBFF && i+1 < len(units) && units[i+1] >= 0xDC00 && units[i+1] <= 0xDFFF {
			runes = append(runes, (rune(u-0xD800)<<10)+rune(units[i+1]-0xDC00)+0x10000)
			i++
			continue
		}
		runes = append(runes, rune(u))
	}
	return string(runes)
}
