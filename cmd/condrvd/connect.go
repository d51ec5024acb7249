package main

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/condrv-project/condrv/internal/dispatch"
	"github.com/condrv-project/condrv/internal/transport"
)

// connectedProcess names the three handles a successful connect
// dispatch returns (spec §4.6 connect: "returns {process, input,
// output} handles in the reply write-buffer").
type connectedProcess struct {
	process uuid.UUID
	input   uuid.UUID
	output  uuid.UUID
}

// connectReplySize is 3 uuid.UUID (16 bytes each) plus a uint64
// connect_sequence, the fixed reply shape dispatchConnect writes.
const connectReplySize = 16*3 + 8

// connectProcess builds and dispatches a connect_body packet
// {pid, tid, app_name_len, app_name} and decodes the process, input and
// output handles from the {process, input, output, connect_sequence}
// reply; connect_sequence is not read.
func connectProcess(e *dispatch.Engine, pid, tid uint32, appName string) (connectedProcess, error) {
	nameBytes := []byte(appName)
	if len(nameBytes) > 0xFFFF {
		nameBytes = nameBytes[:0xFFFF]
	}

	in := make([]byte, 4+4+2+len(nameBytes))
	binary.LittleEndian.PutUint32(in[0:], pid)
	binary.LittleEndian.PutUint32(in[4:], tid)
	binary.LittleEndian.PutUint16(in[8:], uint16(len(nameBytes)))
	copy(in[10:], nameBytes)

	pkt := &transport.Packet{
		Descriptor: transport.Descriptor{Function: transport.FuncConnect},
		Input:      in,
		Output:     make([]byte, connectReplySize),
	}
	res := e.Dispatch(pkt, nil)
	if res.Completion.Status != transport.StatusSuccess {
		return connectedProcess{}, fmt.Errorf("connect failed: %s", res.Completion.Status)
	}

	out := pkt.Output
	var cp connectedProcess
	copy(cp.process[:], out[0:16])
	copy(cp.input[:], out[16:32])
	copy(cp.output[:], out[32:48])
	return cp, nil
}

// dispatchDisconnect tears down the process connected by connectProcess.
func dispatchDisconnect(e *dispatch.Engine, process uuid.UUID) {
	pkt := &transport.Packet{
		Descriptor: transport.Descriptor{
			Function: transport.FuncDisconnect,
			Process:  process,
		},
	}
	e.Dispatch(pkt, nil)
}
