// Package vtinput implements the input side of the classic console: the
// per-handle byte queue that survives reply-pending waits, a decoder
// that turns raw bytes into text units, synthesized key events, or
// ignored VT responses, and the cooked line editor that backs
// line-mode ReadConsole.
package vtinput

// PendingBuffer is ObjectHandle.pending_input_bytes: bytes drained from
// the host input stream that could not yet be assembled into a token.
// Capacity is fixed at 128, comfortably above the required minimum of
// 64 and large enough for the longest recognized VT input sequence
// (see SPEC_FULL.md open question resolutions).
type PendingBuffer struct {
	buf [MaxPendingBytes]byte
	n   int
}

// MaxPendingBytes is the fixed capacity of a PendingBuffer.
const MaxPendingBytes = 128

// Append adds b to the buffer. It fails (returns false, buffer
// unchanged) only when doing so would exceed capacity.
func (p *PendingBuffer) Append(b []byte) bool {
	if p.n+len(b) > len(p.buf) {
		return false
	}
	copy(p.buf[p.n:], b)
	p.n += len(b)
	return true
}

// ConsumePrefix drops the first n bytes, shifting the remainder down.
func (p *PendingBuffer) ConsumePrefix(n int) {
	if n <= 0 {
		return
	}
	if n >= p.n {
		p.n = 0
		return
	}
	copy(p.buf[:], p.buf[n:p.n])
	p.n -= n
}

// Clear empties the buffer.
func (p *PendingBuffer) Clear() { p.n = 0 }

// Bytes returns the buffered prefix. The returned slice aliases the
// buffer's storage and is only valid until the next Append/Consume/Clear.
func (p *PendingBuffer) Bytes() []byte { return p.buf[:p.n] }

// Len reports how many bytes are currently buffered.
func (p *PendingBuffer) Len() int { return p.n }
