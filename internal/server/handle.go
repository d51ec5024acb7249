package server

import (
	"errors"

	"github.com/google/uuid"

	"github.com/condrv-project/condrv/internal/screenbuffer"
	"github.com/condrv-project/condrv/internal/vtinput"
)

// Kind distinguishes an input handle from an output (screen-buffer) one.
type Kind int

const (
	KindInput Kind = iota
	KindOutput
)

// Generic access bits, kept at their classic console wire values so a
// real client's CreateFile desired-access argument resolves correctly.
const (
	GenericRead  uint32 = 0x80000000
	GenericWrite uint32 = 0x40000000
)

// ErrInvalidHandle/ErrInvalidParameter mirror the request-status plane
// of spec §7 for the object-handle lifecycle's synchronous errors.
var (
	ErrInvalidHandle    = errors.New("invalid_handle")
	ErrInvalidParameter = errors.New("invalid_parameter")
)

// Handle is ObjectHandle (spec §3): created by CreateObject, destroyed
// by CloseObject or owner disconnect.
type Handle struct {
	ID            uuid.UUID
	Kind          Kind
	DesiredAccess uint32
	ShareMode     uint32
	OwningProcess uuid.UUID

	// Output only.
	ScreenBuffer *screenbuffer.ScreenBuffer

	// Input only.
	DecodedInputPending *uint16
	PendingInputBytes   vtinput.PendingBuffer
	Cooked              *vtinput.Editor
}

func (s *State) newHandle(kind Kind, owner uuid.UUID, desiredAccess, shareMode uint32) *Handle {
	h := &Handle{
		ID:            uuid.New(),
		Kind:          kind,
		DesiredAccess: desiredAccess,
		ShareMode:     shareMode,
		OwningProcess: owner,
	}
	if kind == KindInput {
		h.Cooked = vtinput.NewEditor(
			s.inputMode.Has(InputModeProcessed),
			s.inputMode.Has(InputModeEcho),
			true,
		)
	}
	s.handles[h.ID] = h
	return h
}

// CreateObject implements spec §4.6 create_object: generic access
// resolves to an input or an output handle; newOutput requests a fresh
// blank buffer instead of reusing the active screen buffer. The owning
// process must already exist.
func (s *State) CreateObject(owner uuid.UUID, desiredAccess, shareMode uint32, newOutput bool) (*Handle, error) {
	if _, ok := s.processes[owner]; !ok {
		return nil, ErrInvalidHandle
	}
	if desiredAccess&GenericRead != 0 && desiredAccess&GenericWrite == 0 {
		return s.newHandle(KindInput, owner, desiredAccess, shareMode), nil
	}
	h := s.newHandle(KindOutput, owner, desiredAccess, shareMode)
	if newOutput {
		h.ScreenBuffer = screenbuffer.New(s.active.Size)
	} else {
		h.ScreenBuffer = s.active
	}
	return h, nil
}

// Handle looks up an object handle by its opaque id.
func (s *State) Handle(id uuid.UUID) (*Handle, bool) {
	h, ok := s.handles[id]
	return h, ok
}

// CloseObject removes the handle (spec §4.6 close_object). Idempotent:
// returns ErrInvalidHandle if the handle is already gone. Notifies the
// LastCloseNotifier when this was the owning process's last output
// handle (SPEC_FULL.md §3 supplemental).
func (s *State) CloseObject(id uuid.UUID) error {
	h, ok := s.handles[id]
	if !ok {
		return ErrInvalidHandle
	}
	delete(s.handles, id)
	if h.Kind == KindOutput && !s.hasOutputHandle(h.OwningProcess) {
		s.lastClose.NotifyLastClose(h.OwningProcess)
	}
	return nil
}

func (s *State) hasOutputHandle(owner uuid.UUID) bool {
	for _, h := range s.handles {
		if h.OwningProcess == owner && h.Kind == KindOutput {
			return true
		}
	}
	return false
}
