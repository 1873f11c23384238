package transport

// EventType identifies the kind of application-visible Event a Connection
// has queued (spec §6 "events consumed by the driver between poll calls").
type EventType int

// Event kinds.
const (
	// EventConnected fires once the handshake completes and peer transport
	// parameters have been validated.
	EventConnected EventType = iota
	// EventConnectionLost fires when the connection becomes unusable; see
	// ConnectionError (carried in the Error field) for why. Error is nil when
	// the close timer ends a connection that was already closing.
	EventConnectionLost
	// EventConnectionDrained fires once the draining period ends and the
	// connection's resources may be released.
	EventConnectionDrained
	// EventStream fires when a stream has newly-readable data.
	EventStream
	// EventStreamWritable denotes a previously flow-control-blocked stream
	// that can accept more writes; no code in this package emits it.
	EventStreamWritable
	// EventStreamComplete fires once a stream's outgoing data has been fully
	// acknowledged.
	EventStreamComplete
	// EventStreamReset fires when the peer reset a stream we were reading.
	EventStreamReset
	// EventStreamStop fires when the peer asked us to stop sending on a
	// stream via STOP_SENDING.
	EventStreamStop
	// EventStreamAvailable denotes a new peer-granted stream limit that opens
	// up room for more locally-initiated streams; no code in this package
	// emits it.
	EventStreamAvailable
	// EventNewSessionTicket fires when the TLS session issues a resumption
	// ticket; unused while session resumption remains unimplemented (see
	// DESIGN.md Open Question decision).
	EventNewSessionTicket
)

func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "connected"
	case EventConnectionLost:
		return "connection_lost"
	case EventConnectionDrained:
		return "connection_drained"
	case EventStream:
		return "stream"
	case EventStreamWritable:
		return "stream_writable"
	case EventStreamComplete:
		return "stream_complete"
	case EventStreamReset:
		return "stream_reset"
	case EventStreamStop:
		return "stream_stop"
	case EventStreamAvailable:
		return "stream_available"
	case EventNewSessionTicket:
		return "new_session_ticket"
	default:
		return "unknown"
	}
}

// Event is a single application-visible occurrence a driver must react to
// after calling Conn.Write or checking timeouts (spec §6).
type Event struct {
	Type EventType

	StreamID  uint64
	ErrorCode uint64

	// Error carries the reason for EventConnectionLost.
	Error error
}

func newStreamRecvEvent(id uint64) Event {
	return Event{Type: EventStream, StreamID: id}
}

func newStreamCompleteEvent(id uint64) Event {
	return Event{Type: EventStreamComplete, StreamID: id}
}

func newStreamResetEvent(id, errorCode uint64) Event {
	return Event{Type: EventStreamReset, StreamID: id, ErrorCode: errorCode}
}

func newStreamStopEvent(id, errorCode uint64) Event {
	return Event{Type: EventStreamStop, StreamID: id, ErrorCode: errorCode}
}

func newConnectedEvent() Event {
	return Event{Type: EventConnected}
}

func newConnectionLostEvent(err error) Event {
	return Event{Type: EventConnectionLost, Error: err}
}
