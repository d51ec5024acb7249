package vtinput

// TokenKind tags the variant carried by a Token, mirroring the
// screenbuffer VT parser's tagged-phase style rather than a class
// hierarchy (spec §9 "Deep class hierarchies").
type TokenKind int

const (
	// TokenNeedMoreData means the prefix looks like the start of a
	// valid-but-incomplete sequence; the caller should wait for more
	// bytes before retrying.
	TokenNeedMoreData TokenKind = iota
	// TokenText carries one decoded character, or a UTF-16 surrogate
	// pair produced by a single source sequence.
	TokenText
	// TokenKeyEvent carries a synthesized key-down/up record from a
	// win32-input-mode or other supported VT input sequence.
	TokenKeyEvent
	// TokenIgnored is a recognized-but-swallowed VT response (DA1,
	// focus in/out, ...).
	TokenIgnored
)

// KeyRecord is the synthesized INPUT_RECORD key event payload.
type KeyRecord struct {
	KeyDown         bool
	RepeatCount     uint16
	VirtualKeyCode  uint16
	VirtualScanCode uint16
	Char            uint16 // unicode char, 0 if none
	ControlKeyState uint32
}

// Control key state bits (subset needed by the cooked editor and
// ctrl-event dispatch).
const (
	RightAltPressed  uint32 = 0x0001
	LeftAltPressed   uint32 = 0x0002
	RightCtrlPressed uint32 = 0x0004
	LeftCtrlPressed  uint32 = 0x0008
	ShiftPressed     uint32 = 0x0010
)

// Token is the single-token decoder's result (spec §4.4.2).
type Token struct {
	Kind          TokenKind
	Chars         []uint16 // 1 or 2 units for TokenText
	Key           KeyRecord
	BytesConsumed int
}
