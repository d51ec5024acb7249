package dispatch

import (
	"github.com/google/uuid"

	"github.com/condrv-project/condrv/internal/cellgrid"
	"github.com/condrv-project/condrv/internal/screenbuffer"
	"github.com/condrv-project/condrv/internal/server"
)

// cookedEcho returns an EchoSink that repaints the cooked line directly
// against the handle owner's active screen buffer, matching how the
// classic console echoes line-input edits without a round-trip through
// the host's physical output stream.
func (e *Engine) cookedEcho(h *server.Handle) *bufferEcho {
	return &bufferEcho{sb: e.State.ActiveScreenBuffer(), mode: e.State.OutputMode(), state: e.State}
}

type bufferEcho struct {
	sb    *screenbuffer.ScreenBuffer
	mode  screenbuffer.OutputMode
	state *server.State
}

func (b *bufferEcho) WriteText(units []uint16) {
	b.sb.Apply(units, b.mode, b.state, screenbuffer.NoopHostIO{})
}

func (b *bufferEcho) MoveCursor(delta int) {
	cur := b.sb.Cursor()
	viewport := b.sb.Viewport()
	x := int(cur.X) + delta
	if lo := int(viewport.Left); x < lo {
		x = lo
	}
	if hi := int(viewport.Right); x > hi {
		x = hi
	}
	b.sb.SetCursorPosition(cellgrid.Point{X: int16(x), Y: cur.Y})
}

// cookedHistory returns a HistorySink that appends a completed command
// to the owning process's exe command history.
func (e *Engine) cookedHistory(h *server.Handle) *processHistory {
	return &processHistory{state: e.State, owner: h.OwningProcess}
}

type processHistory struct {
	state *server.State
	owner uuid.UUID
}

func (p *processHistory) AppendCommand(line []uint16) {
	if len(line) == 0 {
		return
	}
	proc, ok := p.state.Process(p.owner)
	if !ok || proc.ExeName == "" {
		return
	}
	p.state.History().Append(proc.ExeName, line)
}
