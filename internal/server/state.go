// Package server holds the classic-console server's in-memory state
// (spec §3 ServerState/ProcessState/ObjectHandle): the process table,
// object-handle table, active/main screen buffers, modes, code pages,
// titles, aliases, and command histories. Nothing here is persisted
// (spec §6.4); it all lives for the lifetime of the server process.
package server

import (
	"github.com/google/uuid"

	"github.com/condrv-project/condrv/internal/cellgrid"
	"github.com/condrv-project/condrv/internal/config"
	"github.com/condrv-project/condrv/internal/screenbuffer"
)

// InputMode and OutputMode bitsets (spec §3 modes, default values).
const (
	InputModeProcessed InputMode = 1 << iota
	InputModeLine
	InputModeEcho
	InputModeMouse
	InputModeExtended
	InputModeInsert
)

// InputMode is the console input-side mode bitset.
type InputMode uint32

// Has reports whether all bits in flag are set.
func (m InputMode) Has(flag InputMode) bool { return m&flag == flag }

// DefaultInputMode matches spec §3: processed|line|echo|mouse|extended.
const DefaultInputMode = InputModeProcessed | InputModeLine | InputModeEcho | InputModeMouse | InputModeExtended

// DefaultOutputMode matches spec §3: processed|wrap_eol.
const DefaultOutputMode = screenbuffer.ModeProcessed | screenbuffer.ModeWrapAtEOL

// CPOEMSystem is the sentinel meaning "system OEM" for Get/SetCP (0).
const CPOEMSystem = 0

// LastCloseNotifier is invoked when the last output handle of a
// process closes (SPEC_FULL.md §3 supplemental feature, mirrored from
// original_source/src/core/console_control.cpp's handoff teardown
// path). Distinct from the host-I/O SendEndTask collaborator.
type LastCloseNotifier interface {
	NotifyLastClose(processHandle uuid.UUID)
}

// NoopLastCloseNotifier discards the notification.
type NoopLastCloseNotifier struct{}

func (NoopLastCloseNotifier) NotifyLastClose(uuid.UUID) {}

// FontInfo is the fixed deterministic font description returned by
// GetCurrentFont/GetFontInfo (spec §4.6.1 "Font/locale/selection/etc").
type FontInfo struct {
	Family string
	Width  int16
	Height int16
}

// DefaultFont is the single classic-console font this server reports,
// an 8x16 "Consolas"-like raster font (spec §4.6.1).
var DefaultFont = FontInfo{Family: "Consolas", Width: 8, Height: 16}

// State is the server's in-memory console state.
type State struct {
	cfg config.Config

	processes   map[uuid.UUID]*Process
	connSeq     uint64
	handles     map[uuid.UUID]*Handle
	lastClose   LastCloseNotifier

	aliases  *AliasTable
	history  *HistoryTable

	inputMode  InputMode
	outputMode screenbuffer.OutputMode
	inputCP    uint32
	outputCP   uint32

	active *screenbuffer.ScreenBuffer
	main   *screenbuffer.ScreenBuffer

	title         string
	originalTitle string

	font FontInfo
}

// New allocates a server state with one main/active screen buffer
// sized per cfg, default modes, and empty process/handle/alias/history
// tables.
func New(cfg config.Config) *State {
	sb := screenbuffer.New(cfg.Size())
	sb.SetViewport(cellgrid.Rect{Left: 0, Top: 0, Right: cfg.Size().X - 1, Bottom: cfg.Size().Y - 1})
	return &State{
		cfg:        cfg,
		processes:  make(map[uuid.UUID]*Process),
		handles:    make(map[uuid.UUID]*Handle),
		lastClose:  NoopLastCloseNotifier{},
		aliases:    newAliasTable(),
		history:    newHistoryTable(cfg.HistoryBufferSize),
		inputMode:  DefaultInputMode,
		outputMode: DefaultOutputMode,
		inputCP:    CPOEMSystem,
		outputCP:   CPOEMSystem,
		active:     sb,
		main:       sb,
		font:       DefaultFont,
	}
}

// SetLastCloseNotifier installs the NotifyLastClose collaborator.
func (s *State) SetLastCloseNotifier(n LastCloseNotifier) {
	if n == nil {
		n = NoopLastCloseNotifier{}
	}
	s.lastClose = n
}

// ActiveScreenBuffer returns the console's currently active buffer.
func (s *State) ActiveScreenBuffer() *screenbuffer.ScreenBuffer { return s.active }

// MainScreenBuffer returns the original buffer created at server init.
func (s *State) MainScreenBuffer() *screenbuffer.ScreenBuffer { return s.main }

// SetActiveScreenBuffer promotes buf into the active slot
// (SetActiveScreenBuffer API, spec §4.6.1).
func (s *State) SetActiveScreenBuffer(buf *screenbuffer.ScreenBuffer) {
	s.active = buf
}

// InputMode returns the current input-side mode bitset.
func (s *State) InputMode() InputMode { return s.inputMode }

// SetInputMode installs a new input-side mode bitset.
func (s *State) SetInputMode(m InputMode) { s.inputMode = m }

// OutputMode returns the current output-side mode bitset.
func (s *State) OutputMode() screenbuffer.OutputMode { return s.outputMode }

// SetOutputMode installs a new output-side mode bitset.
func (s *State) SetOutputMode(m screenbuffer.OutputMode) { s.outputMode = m }

// InputCodePage/OutputCodePage return 0 for "system OEM" until
// explicitly set, per spec §4.6.1 GetCP/SetCP.
func (s *State) InputCodePage() uint32  { return s.inputCP }
func (s *State) OutputCodePage() uint32 { return s.outputCP }

func (s *State) SetInputCodePage(cp uint32)  { s.inputCP = cp }
func (s *State) SetOutputCodePage(cp uint32) { s.outputCP = cp }

// Title returns the current console title.
func (s *State) Title() string { return s.title }

// SetTitle implements screenbuffer.TitleSink (OSC 0/1/2/21) and the
// SetTitle user-API. The first title ever set also becomes the
// original title, matching GetConsoleOriginalTitle's fixed-at-startup
// semantics.
func (s *State) SetTitle(title string) {
	if s.originalTitle == "" {
		s.originalTitle = title
	}
	s.title = title
}

// OriginalTitle returns the title recorded the first time SetTitle was
// called, or "" if never set.
func (s *State) OriginalTitle() string { return s.originalTitle }

// Font returns the fixed font description this server reports.
func (s *State) Font() FontInfo { return s.font }

// MaxWindowSize returns the configured largest-window bound
// (GetLargestWindowSize, spec §4.6.1).
func (s *State) MaxWindowSize() cellgrid.Point {
	return cellgrid.Point{X: s.cfg.MaxWindow.X, Y: s.cfg.MaxWindow.Y}
}

// Aliases exposes the alias table (spec §4.7 data model).
func (s *State) Aliases() *AliasTable { return s.aliases }

// History exposes the per-exe command history table.
func (s *State) History() *HistoryTable { return s.history }
