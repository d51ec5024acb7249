package vtinput

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// CodePage is a classic console code page number. 0 means "system
// OEM" at the server-state layer (resolved to CPOEM before reaching
// the decoder); the decoder itself always receives a concrete value.
type CodePage uint32

// Well-known code pages the decoder recognizes (spec §4.4.2 "Other
// code pages").
const (
	CPUTF8     CodePage = 65001
	CPOEM      CodePage = 437 // US OEM, what server code page 0 resolves to
	CPLatin1   CodePage = 1252
	CPShiftJIS CodePage = 932
	CPKorean   CodePage = 949
	CPGBK      CodePage = 936
	CPBig5     CodePage = 950
)

// dbcsTable maps a code page to its encoding.Encoding (which of these
// are variable 1-or-2-byte DBCS pages is decided by isLeadByte), grounded on the
// pack's gap: no example repo performs DBCS decode, so this is a
// direct pick of golang.org/x/text's code-page table matching the
// named set in spec.md §4.4.2.
var dbcsTable = map[CodePage]encoding.Encoding{
	CPOEM:      charmap.CodePage437,
	CPLatin1:   charmap.Windows1252,
	CPShiftJIS: japanese.ShiftJIS,
	CPKorean:   korean.EUCKR,
	CPGBK:      simplifiedchinese.GBK,
	CPBig5:     traditionalchinese.Big5,
}

// isLeadByte reports whether b can start a 2-byte sequence under cp.
// Only the DBCS code pages in dbcsTable have lead bytes; everything
// else (including 1252) is single-byte.
func isLeadByte(cp CodePage, b byte) bool {
	switch cp {
	case CPShiftJIS:
		return (b >= 0x81 && b <= 0x9F) || (b >= 0xE0 && b <= 0xFC)
	case CPKorean:
		return b >= 0x81 && b <= 0xFE
	case CPGBK:
		return b >= 0x81 && b <= 0xFE
	case CPBig5:
		return b >= 0x81 && b <= 0xFE
	default:
		return false
	}
}

// decodeCodePage decodes one character (1 or 2 source bytes) from b
// under cp. Returns need-more-data when a lead byte's trail byte isn't
// present yet, and substitutes '?' for sequences the encoding rejects.
func decodeCodePage(cp CodePage, b []byte) Token {
	if len(b) == 0 {
		return Token{Kind: TokenNeedMoreData}
	}
	if cp == CPUTF8 {
		return decodeUTF8(b)
	}
	enc, dbcs := dbcsTable[cp]
	n := 1
	if dbcs && isLeadByte(cp, b[0]) {
		if len(b) < 2 {
			return Token{Kind: TokenNeedMoreData}
		}
		n = 2
	}
	if enc == nil {
		// Unknown/unregistered code page: treat as raw Latin-1-ish
		// passthrough, one byte at a time.
		return Token{Kind: TokenText, Chars: []uint16{uint16(b[0])}, BytesConsumed: 1}
	}
	dec := enc.NewDecoder()
	out, err := dec.Bytes(b[:n])
	if err != nil || len(out) == 0 {
		return Token{Kind: TokenText, Chars: []uint16{'?'}, BytesConsumed: n}
	}
	chars := utf8BytesToUTF16(out)
	if len(chars) == 0 {
		chars = []uint16{'?'}
	}
	return Token{Kind: TokenText, Chars: chars[:1], BytesConsumed: n}
}

// EncodeUnits re-encodes UTF-16 code units into cp's byte encoding,
// the inverse of decodeCodePage. Characters the target encoding cannot
// represent become '?', matching the decoder's substitution policy.
func EncodeUnits(cp CodePage, units []uint16) []byte {
	utf8Bytes := unitsToUTF8(units)
	if cp == CPUTF8 {
		return utf8Bytes
	}
	enc, ok := dbcsTable[cp]
	if !ok {
		// Unknown code page: low-byte passthrough, mirroring the
		// decoder's fallback.
		out := make([]byte, len(units))
		for i, u := range units {
			out[i] = byte(u)
		}
		return out
	}
	out, err := encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes(utf8Bytes)
	if err != nil {
		out = make([]byte, 0, len(units))
		for _, u := range units {
			if u < 0x80 {
				out = append(out, byte(u))
			} else {
				out = append(out, '?')
			}
		}
	}
	return out
}

func unitsToUTF8(units []uint16) []byte {
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		if IsSurrogateHigh(u) && i+1 < len(units) && IsSurrogateLow(units[i+1]) {
			runes = append(runes, (rune(u-0xD800)<<10)+rune(units[i+1]-0xDC00)+0x10000)
			i++
			continue
		}
		runes = append(runes, rune(u))
	}
	return []byte(string(runes))
}

// utf8BytesToUTF16 decodes a UTF-8 byte slice (as produced by an
// x/text decoder) into UTF-16 code units.
func utf8BytesToUTF16(b []byte) []uint16 {
	out := make([]uint16, 0, len(b))
	for _, r := range string(b) {
		if r > 0xFFFF {
			r -= 0x10000
			out = append(out, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
		} else {
			out = append(out, uint16(r))
		}
	}
	return out
}
