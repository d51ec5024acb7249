package vtinput

import "math"

// DecodedRead is the result of decoding a run of raw bytes into
// characters for a raw or cooked read (spec §4.4.3).
type DecodedRead struct {
	Chars         []uint16
	BytesConsumed int
	CtrlC         bool // a 0x03 was consumed and should dispatch CTRL_C
	CtrlZ         bool // a leading 0x1A was consumed and should be treated as EOF
	NeedMoreData  bool // stopped because the tail looks like an incomplete sequence
}

// DecodeBytes decodes as many complete tokens as possible from b,
// honoring processed-mode Ctrl+C filtering: a bare 0x03 is consumed
// and not delivered, and decoding stops there so the caller can
// dispatch the control event before resuming. In processed mode a
// leading 0x1A (Ctrl+Z), before any other character has been decoded,
// is consumed and reported as CtrlZ instead of delivered (spec
// §4.6.1's raw_read EOF behavior).
func DecodeBytes(cp CodePage, b []byte, processed bool) DecodedRead {
	var out DecodedRead
	rest := b
	for len(rest) > 0 {
		tok := DecodeToken(cp, rest)
		switch tok.Kind {
		case TokenNeedMoreData:
			out.NeedMoreData = true
			return out
		case TokenIgnored:
			out.BytesConsumed += tok.BytesConsumed
			rest = rest[tok.BytesConsumed:]
		case TokenKeyEvent:
			out.BytesConsumed += tok.BytesConsumed
			if tok.Key.KeyDown && tok.Key.Char != 0 {
				out.Chars = append(out.Chars, tok.Key.Char)
			}
			rest = rest[tok.BytesConsumed:]
		case TokenText:
			if processed && len(tok.Chars) == 1 && tok.Chars[0] == 0x03 {
				out.BytesConsumed += tok.BytesConsumed
				out.CtrlC = true
				return out
			}
			if processed && len(out.Chars) == 0 && len(tok.Chars) == 1 && tok.Chars[0] == 0x1A {
				out.BytesConsumed += tok.BytesConsumed
				out.CtrlZ = true
				return out
			}
			out.Chars = append(out.Chars, tok.Chars...)
			out.BytesConsumed += tok.BytesConsumed
			rest = rest[tok.BytesConsumed:]
		}
	}
	return out
}

// DecodeKeyEventsLimit decodes b into synthesized key-down records for
// GetConsoleInput/WriteConsoleInput conversion (each decoded character
// becomes one key-down record carrying that character; each VT key
// token is delivered verbatim), bounded to at most limit
// records. When a decoded character pair (a surrogate pair synthesized
// from one 4-byte UTF-8 sequence) would straddle the limit, the
// sequence's bytes are still fully consumed, the high unit is emitted
// as the final record, and the low unit is returned via stash for the
// caller to hold for the next read (spec §4.6.1's decoded_input_pending
// stash).
func DecodeKeyEventsLimit(cp CodePage, b []byte, limit int) (records []KeyRecord, consumed int, stash *uint16) {
	if limit <= 0 {
		return nil, 0, nil
	}
	rest := b
	for len(rest) > 0 && len(records) < limit {
		tok := DecodeToken(cp, rest)
		if tok.Kind == TokenNeedMoreData {
			break
		}
		switch tok.Kind {
		case TokenKeyEvent:
			records = append(records, tok.Key)
		case TokenText:
			if len(tok.Chars) == 2 && len(records)+1 == limit {
				records = append(records, KeyRecord{KeyDown: true, RepeatCount: 1, Char: tok.Chars[0]})
				low := tok.Chars[1]
				consumed += tok.BytesConsumed
				return records, consumed, &low
			}
			for _, ch := range tok.Chars {
				if len(records) >= limit {
					break
				}
				records = append(records, KeyRecord{KeyDown: true, RepeatCount: 1, Char: ch})
			}
		}
		consumed += tok.BytesConsumed
		rest = rest[tok.BytesConsumed:]
	}
	return records, consumed, nil
}

// maxPeekBytes bounds GetNumberOfConsoleInputEvents's scan, per spec
// §4.6.1 ("peek a bounded prefix (64 KiB)").
const maxPeekBytes = 64 * 1024

// CountEvents implements GetNumberOfConsoleInputEvents: a bounded,
// non-destructive scan that sums the character/key-event count a
// subsequent read would observe, filtering processed-mode Ctrl+C
// without halting the scan (this is a peek, not a consuming read).
// Result saturates at math.MaxUint32.
func CountEvents(cp CodePage, b []byte, processed bool) uint32 {
	if len(b) > maxPeekBytes {
		b = b[:maxPeekBytes]
	}
	var count uint64
	rest := b
	for len(rest) > 0 {
		tok := DecodeToken(cp, rest)
		if tok.Kind == TokenNeedMoreData {
			break
		}
		switch tok.Kind {
		case TokenText:
			if !(processed && len(tok.Chars) == 1 && tok.Chars[0] == 0x03) {
				count += uint64(len(tok.Chars))
			}
		case TokenKeyEvent:
			count++
		}
		rest = rest[tok.BytesConsumed:]
	}
	if count > math.MaxUint32 {
		count = math.MaxUint32
	}
	return uint32(count)
}
