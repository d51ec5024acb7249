package dispatch

import "github.com/condrv-project/condrv/internal/transport"

// dispatchProcessAPI covers GenerateCtrlEvent/GetConsoleProcessList/
// NotifyLastClose (spec §4.6.1, §6.3).
func (e *Engine) dispatchProcessAPI(api APINumber, pkt *transport.Packet, io transport.HostIO, body []byte) Result {
	switch api {
	case APIGenerateCtrlEvent:
		r := newReader(body)
		eventType := r.u32()
		groupID := r.u32()
		for _, t := range e.State.CtrlEventTargets(groupID) {
			_ = io.SendEndTask(t.Pid, eventType, 0)
		}
		return ok(0)

	case APIGetConsoleProcessList:
		pids := e.State.ProcessList()
		needed := len(pids) * 4
		w := newWriter(pkt.Output)
		if len(pkt.Output) < needed {
			w.u32(uint32(len(pids)))
			return ok(0)
		}
		for _, pid := range pids {
			w.u32(pid)
		}
		return ok(uint32(w.len()))

	case APINotifyLastClose:
		// The owning process opts into last-close notification by
		// calling this once; NoopLastCloseNotifier otherwise discards
		// it. Wiring a concrete notifier is a host-executable concern
		// (spec §6.5), so this API only acknowledges the call.
		return ok(0)
	}
	return status(transport.StatusNotImplemented)
}
