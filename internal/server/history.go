package server

// CommandHistory is a ring buffer of completed cooked-editor lines for
// one exe (spec §3 "exe_name -> command history"), bounded by its
// configured capacity. Dedup, when enabled, only compares a new line
// against the immediately previous entry rather than scanning the
// whole ring (SPEC_FULL.md §3 supplemental: the original source's
// cheaper, observably distinct resolution of the history_flags
// dedup bit spec.md leaves implicit).
type CommandHistory struct {
	lines [][]uint16
	cap   int
	dedup bool
}

func newCommandHistory(capacity int) *CommandHistory {
	return &CommandHistory{cap: capacity}
}

// Append adds line, dropping the oldest entry if the ring is full, and
// skipping the append entirely if dedup is enabled and line equals the
// most recent entry.
func (h *CommandHistory) Append(line []uint16) {
	if h.cap <= 0 {
		return
	}
	if h.dedup && len(h.lines) > 0 && equalUnits(h.lines[len(h.lines)-1], line) {
		return
	}
	cp := append([]uint16(nil), line...)
	h.lines = append(h.lines, cp)
	if len(h.lines) > h.cap {
		h.lines = h.lines[len(h.lines)-h.cap:]
	}
}

func equalUnits(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// At returns the index'th entry, oldest-first (GetCommandHistory).
func (h *CommandHistory) At(index int) ([]uint16, bool) {
	if index < 0 || index >= len(h.lines) {
		return nil, false
	}
	return h.lines[index], true
}

// All returns every stored entry, oldest-first.
func (h *CommandHistory) All() [][]uint16 { return h.lines }

// Len reports how many entries are stored (GetCommandHistoryLength).
func (h *CommandHistory) Len() int { return len(h.lines) }

// SetCapacity resizes the ring (SetNumberOfCommands/SetHistory),
// trimming to the newest entries if shrinking.
func (h *CommandHistory) SetCapacity(capacity int) {
	if capacity < 0 {
		capacity = 0
	}
	h.cap = capacity
	if len(h.lines) > h.cap {
		h.lines = h.lines[len(h.lines)-h.cap:]
	}
}

// SetDedup toggles the history_flags dedup-against-previous bit.
func (h *CommandHistory) SetDedup(dedup bool) { h.dedup = dedup }

// Expunge clears every stored entry (ExpungeCommandHistory).
func (h *CommandHistory) Expunge() { h.lines = nil }

// HistoryTable is the exe_name -> CommandHistory table (spec §3, §4.7).
type HistoryTable struct {
	byExe      map[string]*CommandHistory
	defaultCap int
}

func newHistoryTable(defaultCap int) *HistoryTable {
	return &HistoryTable{byExe: make(map[string]*CommandHistory), defaultCap: defaultCap}
}

// ensure returns the history for exe, creating it with the table's
// default capacity on first use.
func (t *HistoryTable) ensure(exe string) *CommandHistory {
	exe = foldKey(exe)
	h, ok := t.byExe[exe]
	if !ok {
		h = newCommandHistory(t.defaultCap)
		t.byExe[exe] = h
	}
	return h
}

// For returns the history for exe (read-only callers may pass a
// not-yet-seen exe and get a zero-length history without mutating the
// table).
func (t *HistoryTable) For(exe string) *CommandHistory {
	exe = foldKey(exe)
	if h, ok := t.byExe[exe]; ok {
		return h
	}
	return newCommandHistory(0)
}

// Append records a completed line for exe, creating its history on
// first use.
func (t *HistoryTable) Append(exe string, line []uint16) {
	t.ensure(exe).Append(line)
}

// SetHistory configures exe's ring capacity and dedup flag
// (SetHistory, spec §4.7).
func (t *HistoryTable) SetHistory(exe string, bufferSize int, dedup bool) {
	h := t.ensure(exe)
	h.SetCapacity(bufferSize)
	h.SetDedup(dedup)
}

// SetNumberOfCommands resizes exe's ring capacity only.
func (t *HistoryTable) SetNumberOfCommands(exe string, n int) {
	t.ensure(exe).SetCapacity(n)
}

// Expunge clears exe's history (ExpungeCommandHistory).
func (t *HistoryTable) Expunge(exe string) {
	t.ensure(exe).Expunge()
}
