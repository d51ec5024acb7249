package server

import (
	"sort"

	"github.com/google/uuid"
)

// Process is ProcessState (spec §3): the per-client record created by
// connect and destroyed by disconnect.
type Process struct {
	Handle          uuid.UUID
	Pid             uint32
	Tid             uint32
	ConnectSequence uint64
	InputHandle     uuid.UUID
	OutputHandle    uuid.UUID
	ExeName         string
}

// Connect allocates a new Process plus its initial input and output
// handles (spec §4.6 connect). appName, if non-empty, seeds that exe's
// command history table so a first history lookup for it has
// somewhere to land.
func (s *State) Connect(pid, tid uint32, appName string) *Process {
	s.connSeq++
	p := &Process{
		Handle:          uuid.New(),
		Pid:             pid,
		Tid:             tid,
		ConnectSequence: s.connSeq,
		ExeName:         appName,
	}
	in := s.newHandle(KindInput, p.Handle, 0, 0)
	out := s.newHandle(KindOutput, p.Handle, 0, 0)
	out.ScreenBuffer = s.active
	p.InputHandle = in.ID
	p.OutputHandle = out.ID
	s.processes[p.Handle] = p
	if appName != "" {
		s.history.ensure(appName)
	}
	return p
}

// Disconnect removes the process and every handle it owns (spec §4.6
// disconnect). Returns requestExit=true when no processes remain.
func (s *State) Disconnect(processHandle uuid.UUID) (requestExit bool) {
	if _, ok := s.processes[processHandle]; !ok {
		return len(s.processes) == 0
	}
	for id, h := range s.handles {
		if h.OwningProcess == processHandle {
			delete(s.handles, id)
		}
	}
	delete(s.processes, processHandle)
	return len(s.processes) == 0
}

// Process looks up a process by its opaque handle.
func (s *State) Process(handle uuid.UUID) (*Process, bool) {
	p, ok := s.processes[handle]
	return p, ok
}

// ProcessList returns every connected pid, newest-first by
// ConnectSequence (spec §4.6.1 GetConsoleProcessList).
func (s *State) ProcessList() []uint32 {
	procs := make([]*Process, 0, len(s.processes))
	for _, p := range s.processes {
		procs = append(procs, p)
	}
	sort.Slice(procs, func(i, j int) bool {
		return procs[i].ConnectSequence > procs[j].ConnectSequence
	})
	out := make([]uint32, len(procs))
	for i, p := range procs {
		out[i] = p.Pid
	}
	return out
}

// EndTaskTarget identifies a process to dispatch GenerateCtrlEvent to.
type EndTaskTarget struct {
	Handle uuid.UUID
	Pid    uint32
}

// CtrlEventTargets resolves GenerateCtrlEvent's groupID argument (spec
// §4.6.1): groupID==0 targets every connected process, otherwise only
// the process whose pid equals groupID.
func (s *State) CtrlEventTargets(groupID uint32) []EndTaskTarget {
	var out []EndTaskTarget
	for _, p := range s.processes {
		if groupID == 0 || p.Pid == groupID {
			out = append(out, EndTaskTarget{Handle: p.Handle, Pid: p.Pid})
		}
	}
	return out
}
