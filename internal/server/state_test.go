package server

import (
	"testing"

	"github.com/google/uuid"

	"github.com/condrv-project/condrv/internal/config"
)

func newTestState() *State {
	return New(config.Default())
}

func TestConnectCreatesHandlesAndProcess(t *testing.T) {
	s := newTestState()
	p := s.Connect(100, 1, "myapp.exe")

	if p.Pid != 100 || p.Tid != 1 || p.ExeName != "myapp.exe" {
		t.Fatalf("unexpected process: %+v", p)
	}
	if _, ok := s.Process(p.Handle); !ok {
		t.Fatalf("expected process lookup to succeed")
	}

	in, ok := s.Handle(p.InputHandle)
	if !ok || in.Kind != KindInput {
		t.Fatalf("expected an input handle, got %+v ok=%v", in, ok)
	}
	out, ok := s.Handle(p.OutputHandle)
	if !ok || out.Kind != KindOutput {
		t.Fatalf("expected an output handle, got %+v ok=%v", out, ok)
	}
	if out.ScreenBuffer != s.ActiveScreenBuffer() {
		t.Errorf("expected the new output handle to share the active screen buffer")
	}
}

func TestDisconnectRemovesProcessAndItsHandles(t *testing.T) {
	s := newTestState()
	p := s.Connect(100, 1, "")

	requestExit := s.Disconnect(p.Handle)
	if !requestExit {
		t.Errorf("expected requestExit once the only process disconnects")
	}
	if _, ok := s.Process(p.Handle); ok {
		t.Errorf("expected process to be gone after disconnect")
	}
	if _, ok := s.Handle(p.InputHandle); ok {
		t.Errorf("expected input handle to be gone after disconnect")
	}
	if _, ok := s.Handle(p.OutputHandle); ok {
		t.Errorf("expected output handle to be gone after disconnect")
	}
}

func TestDisconnectKeepsOtherProcessesAlive(t *testing.T) {
	s := newTestState()
	p1 := s.Connect(100, 1, "")
	s.Connect(200, 1, "")

	if requestExit := s.Disconnect(p1.Handle); requestExit {
		t.Errorf("expected requestExit=false while another process remains connected")
	}
}

func TestCreateObjectResolvesKindFromDesiredAccess(t *testing.T) {
	s := newTestState()
	p := s.Connect(100, 1, "")

	in, err := s.CreateObject(p.Handle, GenericRead, 0, false)
	if err != nil || in.Kind != KindInput {
		t.Fatalf("expected a read-only handle to resolve to input, got %+v err=%v", in, err)
	}

	out, err := s.CreateObject(p.Handle, GenericRead|GenericWrite, 0, false)
	if err != nil || out.Kind != KindOutput {
		t.Fatalf("expected a read+write handle to resolve to output, got %+v err=%v", out, err)
	}
	if out.ScreenBuffer != s.ActiveScreenBuffer() {
		t.Errorf("expected newOutput=false to reuse the active screen buffer")
	}

	fresh, err := s.CreateObject(p.Handle, GenericRead|GenericWrite, 0, true)
	if err != nil {
		t.Fatalf("CreateObject failed: %v", err)
	}
	if fresh.ScreenBuffer == s.ActiveScreenBuffer() {
		t.Errorf("expected newOutput=true to allocate a distinct screen buffer")
	}
}

func TestCreateObjectRejectsUnknownOwner(t *testing.T) {
	s := newTestState()
	if _, err := s.CreateObject(uuid.New(), GenericRead, 0, false); err != ErrInvalidHandle {
		t.Errorf("expected ErrInvalidHandle for an unknown owning process, got %v", err)
	}
}

func TestCloseObjectNotifiesOnLastOutputHandle(t *testing.T) {
	s := newTestState()
	var notified []uuid.UUID
	s.SetLastCloseNotifier(notifierFunc(func(id uuid.UUID) {
		notified = append(notified, id)
	}))

	p := s.Connect(100, 1, "")
	extra, err := s.CreateObject(p.Handle, GenericRead|GenericWrite, 0, true)
	if err != nil {
		t.Fatalf("CreateObject failed: %v", err)
	}

	if err := s.CloseObject(extra.ID); err != nil {
		t.Fatalf("CloseObject failed: %v", err)
	}
	if len(notified) != 0 {
		t.Fatalf("expected no notification while the original output handle is still open, got %+v", notified)
	}

	if err := s.CloseObject(p.OutputHandle); err != nil {
		t.Fatalf("CloseObject failed: %v", err)
	}
	if len(notified) != 1 || notified[0] != p.Handle {
		t.Errorf("expected one notification for process %v, got %+v", p.Handle, notified)
	}
}

func TestCloseObjectIsIdempotent(t *testing.T) {
	s := newTestState()
	p := s.Connect(100, 1, "")

	if err := s.CloseObject(p.InputHandle); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := s.CloseObject(p.InputHandle); err != ErrInvalidHandle {
		t.Errorf("expected ErrInvalidHandle on double close, got %v", err)
	}
}

type notifierFunc func(uuid.UUID)

func (f notifierFunc) NotifyLastClose(id uuid.UUID) { f(id) }

func TestAliasTableFoldsCaseAndPreservesInsertionOrder(t *testing.T) {
	a := newAliasTable()
	a.Add("CMD.EXE", "LS", "dir")
	a.Add("powershell.exe", "ls", "Get-ChildItem")
	a.Add("cmd.exe", "cls", "clear")

	target, ok := a.Get("cmd.exe", "ls")
	if !ok || target != "dir" {
		t.Fatalf("expected case-folded lookup to find \"dir\", got %q ok=%v", target, ok)
	}

	exes := a.Exes()
	want := []string{"cmd.exe", "powershell.exe"}
	if len(exes) != len(want) || exes[0] != want[0] || exes[1] != want[1] {
		t.Errorf("expected insertion-ordered exes %v, got %v", want, exes)
	}
}

func TestHistoryTableAppendAndDedup(t *testing.T) {
	tbl := newHistoryTable(2)
	tbl.SetHistory("sh", 2, true)

	tbl.Append("sh", []uint16{'l', 's'})
	tbl.Append("sh", []uint16{'l', 's'}) // dedup against previous, should be skipped
	tbl.Append("sh", []uint16{'p', 'w', 'd'})
	tbl.Append("sh", []uint16{'w', 'h', 'o'}) // ring capacity 2, drops oldest

	h := tbl.For("sh")
	if h.Len() != 2 {
		t.Fatalf("expected 2 entries after dedup+ring eviction, got %d", h.Len())
	}
	first, _ := h.At(0)
	if string(uint16sToString(first)) != "pwd" {
		t.Errorf("expected oldest surviving entry \"pwd\", got %q", uint16sToString(first))
	}
	second, _ := h.At(1)
	if string(uint16sToString(second)) != "who" {
		t.Errorf("expected newest entry \"who\", got %q", uint16sToString(second))
	}
}

func TestHistoryTableForUnseenExeIsEmptyAndNonMutating(t *testing.T) {
	tbl := newHistoryTable(10)
	h := tbl.For("never-seen.exe")
	if h.Len() != 0 {
		t.Fatalf("expected zero-length history for an unseen exe, got %d", h.Len())
	}
	if _, ok := tbl.byExe["never-seen.exe"]; ok {
		t.Errorf("expected For on an unseen exe not to add it to the table")
	}
}

func uint16sToString(units []uint16) string {
	b := make([]byte, len(units))
	for i, u := range units {
		b[i] = byte(u)
	}
	return string(b)
}
