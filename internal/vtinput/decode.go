package vtinput

// DecodeToken implements the single-token decoder of spec §4.4.2:
// first attempt VT decoding (win32-input-mode, recognized editing
// keys, ignored responses), then fall back to code-page decoding.
func DecodeToken(cp CodePage, b []byte) Token {
	if len(b) == 0 {
		return Token{Kind: TokenNeedMoreData}
	}
	if tok, matched := tryVT(b); matched {
		return tok
	}
	return decodeCodePage(cp, b)
}
