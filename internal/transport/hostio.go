package transport

// HostIO is the full host-I/O collaborator (spec §6.2): the input byte
// queue, output sink, and process-signal dispatch the dispatch engine
// treats as thread-safe from its own single-threaded view but only
// ever calls from the dispatch thread (spec §5).
type HostIO interface {
	WriteOutputBytes(b []byte) (int, error)
	ReadInputBytes(dest []byte) (int, error)
	PeekInputBytes(dest []byte) (int, error)
	InputBytesAvailable() int
	InputDisconnected() bool
	InjectInputBytes(b []byte) bool
	FlushInputBuffer() error
	ShouldAnswerQueries() bool
	SendEndTask(pid uint32, eventType uint32, ctrlFlags uint32) error
}

// Ctrl event types passed to SendEndTask (spec §4.4.4, §4.6.1
// GenerateCtrlEvent).
const (
	CtrlCEvent        uint32 = 0
	CtrlBreakEvent    uint32 = 1
	CtrlCloseEvent    uint32 = 2
	CtrlLogoffEvent   uint32 = 5
	CtrlShutdownEvent uint32 = 6
)
