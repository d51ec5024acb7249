// Package transport defines the abstract collaborator contracts the
// dispatch engine depends on (spec §6.1 packet transport, §6.2 host
// I/O) without constraining how either is actually wired: the real
// device-driver transport, COM handoff activation, and the physical
// pipes carrying bytes to/from a terminal are all out of scope (spec
// §1) and live behind these two interfaces.
package transport

import "github.com/google/uuid"

// Function is the request descriptor's function code (spec §6.1).
type Function int

const (
	FuncConnect Function = iota
	FuncDisconnect
	FuncCreateObject
	FuncCloseObject
	FuncRawRead
	FuncRawWrite
	FuncRawFlush
	FuncUserDefined
)

func (f Function) String() string {
	switch f {
	case FuncConnect:
		return "connect"
	case FuncDisconnect:
		return "disconnect"
	case FuncCreateObject:
		return "create_object"
	case FuncCloseObject:
		return "close_object"
	case FuncRawRead:
		return "raw_read"
	case FuncRawWrite:
		return "raw_write"
	case FuncRawFlush:
		return "raw_flush"
	case FuncUserDefined:
		return "user_defined"
	default:
		return "unknown"
	}
}

// Descriptor identifies one request (spec §6.1). Process/Object are
// zero-value uuid.UUID when not applicable to Function (e.g. Object is
// unset for connect).
type Descriptor struct {
	Identifier uint64
	Function   Function
	Process    uuid.UUID
	Object     uuid.UUID
	InputSize  uint32
	OutputSize uint32
}

// Packet is one request/reply exchange: Input is the payload the
// descriptor's function interprets (connect_body/create_object_body/
// user_defined_body); Output is scratch space sized to OutputSize that
// handlers write the reply descriptor and trailing bytes into.
type Packet struct {
	Descriptor Descriptor
	Input      []byte
	Output     []byte
}

// Status is the request-status plane of spec §7: part of the contract
// every dispatch completes with. The engine never aborts on malformed
// client input; it always records one of these.
type Status int

const (
	StatusSuccess Status = iota
	StatusNotImplemented
	StatusInvalidHandle
	StatusInvalidParameter
	StatusNoMemory
	StatusBufferTooSmall
	StatusUnsuccessful
	StatusAlerted
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNotImplemented:
		return "not_implemented"
	case StatusInvalidHandle:
		return "invalid_handle"
	case StatusInvalidParameter:
		return "invalid_parameter"
	case StatusNoMemory:
		return "no_memory"
	case StatusBufferTooSmall:
		return "buffer_too_small"
	case StatusUnsuccessful:
		return "unsuccessful"
	case StatusAlerted:
		return "alerted"
	default:
		return "unknown"
	}
}

// Completion is what complete_io delivers back to the driver (spec
// §6.1): a status, an "information" field (usually a byte count), and
// any trailing reply bytes.
type Completion struct {
	Status      Status
	Information uint32
	Output      []byte
}

// PacketTransport is the abstract packet-framing I/O capability the
// dispatch engine consumes (spec §6.1). The core never calls these
// directly on itself; a caller (the out-of-scope host loop) uses them
// to fetch a Packet, hand it to the dispatch engine, then deliver the
// resulting Completion.
type PacketTransport interface {
	ReadInput(pkt *Packet) error
	WriteOutput(pkt *Packet, data []byte) error
	CompleteIO(pkt *Packet, c Completion) error
}

// TransportError wraps a transport/collaborator failure with free-form
// context (spec §7 "Transport/collaborator errors"), distinct from the
// request-status plane: these propagate up so the caller may drop the
// packet and terminate the connection.
type TransportError struct {
	Context string
	Code    int
}

func (e *TransportError) Error() string { return e.Context }
