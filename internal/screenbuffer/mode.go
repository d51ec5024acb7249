package screenbuffer

// OutputMode is the bitset controlling cooked-output and VT behavior
// passed into Apply (spec §4.3).
type OutputMode uint32

const (
	// ModeProcessed enables CR/LF/BS/TAB cooked-output handling.
	ModeProcessed OutputMode = 1 << iota
	// ModeWrapAtEOL wraps to the next line when not in VT processing.
	ModeWrapAtEOL
	// ModeVTProcessing enables the ANSI/VT escape state machine and
	// delayed-EOL wrap behavior.
	ModeVTProcessing
	// ModeDisableNewlineAutoReturn suppresses the implicit
	// column-to-0 that LF otherwise performs under ModeProcessed.
	ModeDisableNewlineAutoReturn
)

// Has reports whether all bits in flag are set.
func (m OutputMode) Has(flag OutputMode) bool { return m&flag == flag }

// TitleSink receives OSC 0/1/2/21 title updates.
type TitleSink interface {
	SetTitle(title string)
}

// HostIO is the subset of the host-I/O collaborator (spec §6.2) the VT
// parser needs: injecting query-response bytes into the input stream.
type HostIO interface {
	InjectInputBytes(b []byte) bool
	ShouldAnswerQueries() bool
}

// NoopTitleSink discards title updates.
type NoopTitleSink struct{}

func (NoopTitleSink) SetTitle(string) {}

// NoopHostIO discards injected bytes and never answers queries.
type NoopHostIO struct{}

func (NoopHostIO) InjectInputBytes([]byte) bool { return true }
func (NoopHostIO) ShouldAnswerQueries() bool    { return false }
