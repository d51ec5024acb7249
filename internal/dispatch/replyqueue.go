package dispatch

import "github.com/condrv-project/condrv/internal/transport"

// pendingRequest is one retained packet awaiting retry (spec §4.5).
type pendingRequest struct {
	pkt *transport.Packet
	io  transport.HostIO
}

// ReplyQueue retains reply-pending requests and retries them when the
// caller signals that input state changed. The engine itself never
// blocks; ReplyQueue only gives the caller somewhere to park packets
// between retries (spec §4.5's "caller must retain the packet").
type ReplyQueue struct {
	pending []pendingRequest
}

func newReplyQueue() *ReplyQueue { return &ReplyQueue{} }

// Retain parks pkt for a later retry.
func (q *ReplyQueue) Retain(pkt *transport.Packet, io transport.HostIO) {
	q.pending = append(q.pending, pendingRequest{pkt: pkt, io: io})
}

// Len reports how many packets are currently retained.
func (q *ReplyQueue) Len() int { return len(q.pending) }

// Retry re-dispatches every retained packet once, removing any that no
// longer reply-pend. The caller is expected to invoke this on an
// input-change event, a disconnect, or its own timeout policy.
func (q *ReplyQueue) Retry(e *Engine) []Result {
	if len(q.pending) == 0 {
		return nil
	}
	remaining := q.pending[:0]
	var results []Result
	for _, p := range q.pending {
		res := e.Dispatch(p.pkt, p.io)
		if res.ReplyPending {
			remaining = append(remaining, p)
			continue
		}
		results = append(results, res)
	}
	q.pending = remaining
	return results
}
