package vtinput

import "strconv"

// Virtual-key codes the decoder synthesizes, matching the classic
// console's wire values closely enough for the cooked editor's
// purposes (spec names these only by behavior, not by numeric value,
// so only the subset the editor inspects is defined).
const (
	VKCancel  uint16 = 0x03
	VKBack    uint16 = 0x08
	VKTab     uint16 = 0x09
	VKReturn  uint16 = 0x0D
	VKEscape  uint16 = 0x1B
	VKEnd     uint16 = 0x23
	VKHome    uint16 = 0x24
	VKLeft    uint16 = 0x25
	VKUp      uint16 = 0x26
	VKRight   uint16 = 0x27
	VKDown    uint16 = 0x28
	VKInsert  uint16 = 0x2D
	VKDelete  uint16 = 0x2E
	VKF1      uint16 = 0x70
	VKF2      uint16 = 0x71
	VKF3      uint16 = 0x72
	VKF4      uint16 = 0x73
)

// tryVT attempts to decode a win32-input-mode sequence, a recognized
// cursor/editing key sequence, an SS3 function key, or an
// ignored-response sequence (DA1, focus in/out) starting at b[0].
// Returns matched=false when b does not begin a VT sequence this
// decoder recognizes, so the caller falls through to code-page
// decoding of the leading byte.
func tryVT(b []byte) (Token, bool) {
	if len(b) == 0 || b[0] != 0x1B {
		return Token{}, false
	}
	if len(b) == 1 {
		return Token{Kind: TokenNeedMoreData}, true
	}
	switch b[1] {
	case '[':
		return matchCSI(b)
	case 'O':
		return matchSS3(b)
	}
	return Token{}, false
}

// matchCSI scans `ESC [ [private] params final` where private is an
// optional marker in 0x3C-0x3F (DA1 responses arrive as `ESC [ ? .. c`),
// params is digits and semicolons, and final is a byte in 0x40-0x7E.
func matchCSI(b []byte) (Token, bool) {
	i := 2
	private := false
	if i < len(b) && b[i] >= 0x3C && b[i] <= 0x3F {
		private = true
		i++
	}
	for i < len(b) && (b[i] == ';' || (b[i] >= '0' && b[i] <= '9')) {
		i++
	}
	if i >= len(b) {
		return Token{Kind: TokenNeedMoreData}, true
	}
	final := b[i]
	if final < 0x40 || final > 0x7E {
		// Not a CSI terminator at all; not a sequence we recognize.
		return Token{}, false
	}
	consumed := i + 1
	if private {
		// Every private-marker sequence reaching the input stream is a
		// terminal response or mode report, never a key.
		return Token{Kind: TokenIgnored, BytesConsumed: consumed}, true
	}
	params := parseParams(b[2:i])

	switch final {
	case '_':
		return winInputModeToken(params, consumed), true
	case 'c':
		return Token{Kind: TokenIgnored, BytesConsumed: consumed}, true
	case 'I', 'O':
		return Token{Kind: TokenIgnored, BytesConsumed: consumed}, true
	case 'A', 'B', 'C', 'D', 'H', 'F':
		return cursorKeyToken(final, params, consumed), true
	case '~':
		return tildeKeyToken(params, consumed), true
	}
	// Any other recognized-but-unactionable CSI final: swallow rather
	// than leak raw escape bytes into the character stream.
	return Token{Kind: TokenIgnored, BytesConsumed: consumed}, true
}

func matchSS3(b []byte) (Token, bool) {
	if len(b) < 3 {
		return Token{Kind: TokenNeedMoreData}, true
	}
	var vk uint16
	switch b[2] {
	case 'P':
		vk = VKF1
	case 'Q':
		vk = VKF2
	case 'R':
		vk = VKF3
	case 'S':
		vk = VKF4
	default:
		return Token{Kind: TokenIgnored, BytesConsumed: 3}, true
	}
	return Token{
		Kind:          TokenKeyEvent,
		Key:           KeyRecord{KeyDown: true, RepeatCount: 1, VirtualKeyCode: vk},
		BytesConsumed: 3,
	}, true
}

func parseParams(b []byte) []int {
	if len(b) == 0 {
		return nil
	}
	var out []int
	start := 0
	for i := 0; i <= len(b); i++ {
		if i == len(b) || b[i] == ';' {
			if i == start {
				out = append(out, 0)
			} else {
				n, _ := strconv.Atoi(string(b[start:i]))
				out = append(out, n)
			}
			start = i + 1
		}
	}
	return out
}

func paramAt(params []int, i, def int) int {
	if i < 0 || i >= len(params) || params[i] == 0 {
		return def
	}
	return params[i]
}

func modifierState(mod int) uint32 {
	if mod <= 1 {
		return 0
	}
	m := mod - 1
	var state uint32
	if m&1 != 0 {
		state |= ShiftPressed
	}
	if m&2 != 0 {
		state |= LeftAltPressed
	}
	if m&4 != 0 {
		state |= LeftCtrlPressed
	}
	return state
}

func cursorKeyToken(final byte, params []int, consumed int) Token {
	var vk uint16
	switch final {
	case 'A':
		vk = VKUp
	case 'B':
		vk = VKDown
	case 'C':
		vk = VKRight
	case 'D':
		vk = VKLeft
	case 'H':
		vk = VKHome
	case 'F':
		vk = VKEnd
	}
	mod := paramAt(params, 1, 1)
	return Token{
		Kind: TokenKeyEvent,
		Key: KeyRecord{
			KeyDown:         true,
			RepeatCount:     1,
			VirtualKeyCode:  vk,
			ControlKeyState: modifierState(mod),
		},
		BytesConsumed: consumed,
	}
}

func tildeKeyToken(params []int, consumed int) Token {
	code := paramAt(params, 0, 0)
	var vk uint16
	switch code {
	case 2:
		vk = VKInsert
	case 3:
		vk = VKDelete
	case 1, 7:
		vk = VKHome
	case 4, 8:
		vk = VKEnd
	default:
		return Token{Kind: TokenIgnored, BytesConsumed: consumed}
	}
	mod := paramAt(params, 1, 1)
	return Token{
		Kind: TokenKeyEvent,
		Key: KeyRecord{
			KeyDown:         true,
			RepeatCount:     1,
			VirtualKeyCode:  vk,
			ControlKeyState: modifierState(mod),
		},
		BytesConsumed: consumed,
	}
}

// winInputModeToken decodes the win32-input-mode wire format:
// `CSI Vk ; Sc ; Uc ; Kd ; Cs ; Rc _`.
func winInputModeToken(params []int, consumed int) Token {
	if len(params) < 6 {
		return Token{Kind: TokenIgnored, BytesConsumed: consumed}
	}
	return Token{
		Kind: TokenKeyEvent,
		Key: KeyRecord{
			VirtualKeyCode:  uint16(params[0]),
			VirtualScanCode: uint16(params[1]),
			Char:            uint16(params[2]),
			KeyDown:         params[3] != 0,
			ControlKeyState: uint32(params[4]),
			RepeatCount:     uint16(params[5]),
		},
		BytesConsumed: consumed,
	}
}
