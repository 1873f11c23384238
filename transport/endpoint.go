package transport

import (
	"net"
	"time"
)

// Handle identifies a connection owned by an Endpoint across calls; it
// replaces a raw *Conn pointer in the driver-facing API so the core can
// reap and reuse connection slots without handing out dangling pointers.
type Handle uint64

// IoKind identifies the directive carried by an Io value (spec §6).
type IoKind int

const (
	// IoTransmit asks the driver to send Packet to Destination.
	IoTransmit IoKind = iota
	// IoTimerStart asks the driver to arm (or replace) the named timer for
	// Handle so it fires at Time.
	IoTimerStart
	// IoTimerStop asks the driver to disarm the named timer for Handle.
	IoTimerStop
)

// Io is a single directive drained from Endpoint.PollIO. The core never
// performs I/O or touches a clock itself; every side effect it wants is
// expressed as one of these.
type Io struct {
	Kind        IoKind
	Handle      Handle
	Destination net.Addr
	Packet      []byte
	Which       TimerWhich
	Time        time.Time
}

// ConnEvent pairs a Handle with one of its connection's queued Events, since
// Endpoint.Poll drains events across every connection it owns.
type ConnEvent struct {
	Handle Handle
	Event  Event
}

// connState is everything the Endpoint tracks about one connection beyond
// the Conn itself: its demux keys and the timer deadlines last reported to
// the driver, so PollIO can diff against them instead of re-arming unchanged
// timers on every call (spec §9 "pending change" collapsing).
type connState struct {
	conn       *Conn
	handle     Handle
	localCID   []byte
	initialCID []byte // server connections only (nil for clients); stays in byInitialCID until the connection is reaped
	remoteAddr net.Addr
	armed      [3]time.Time // last Time reported per TimerWhich, zero means "not armed"
}

// Endpoint is the core, I/O-free owner of a pool of connections: it demuxes
// inbound datagrams by connection ID (falling back to remote address),
// drives the accept_buffer backpressure limit, and replies to version
// mismatches and unrecognized datagrams, but it never touches a socket or a
// clock — every input is supplied by the driver and every output is queued
// for the driver to act on (spec §1-§6).
type Endpoint struct {
	config     *Config
	isServer   bool
	listenKeys *ListenKeys

	connections  map[Handle]*connState
	byLocalCID   map[string]Handle
	byInitialCID map[string]Handle
	byRemoteAddr map[string]Handle

	incoming      []Handle
	incomingCount int // server connections provisioned but not yet returned by Accept, counted against AcceptBuffer

	ioQueue []Io
	events  []ConnEvent

	nextHandle Handle
}

// NewEndpoint creates an Endpoint. isServer endpoints require config.ListenKeys
// so they can derive stateless reset tokens and accept inbound connections;
// client-only endpoints ignore unsolicited datagrams entirely.
func NewEndpoint(config *Config, isServer bool) *Endpoint {
	return &Endpoint{
		config:       config,
		isServer:     isServer,
		listenKeys:   config.ListenKeys,
		connections:  make(map[Handle]*connState),
		byLocalCID:   make(map[string]Handle),
		byInitialCID: make(map[string]Handle),
		byRemoteAddr: make(map[string]Handle),
	}
}

// Connect creates an outbound client connection to remote and returns its
// Handle. The first flight is queued before Connect returns; call PollIO to
// drain it.
func (e *Endpoint) Connect(now time.Time, remote net.Addr) (Handle, error) {
	scid, err := newRandomCID(LocalCIDLength)
	if err != nil {
		return 0, newConnectError("%v", err)
	}
	conn, err := Connect(now, scid, e.config)
	if err != nil {
		return 0, newConnectError("%v", err)
	}
	h := e.register(conn, scid, nil, remote)
	e.drain(now, h)
	return h, nil
}

// Accept pops one server-side connection that has finished being
// provisioned by Handle(Initial) since the last Accept call. ok is false
// when nothing is waiting.
func (e *Endpoint) Accept() (h Handle, ok bool) {
	if len(e.incoming) == 0 {
		return 0, false
	}
	h = e.incoming[0]
	e.incoming = e.incoming[1:]
	e.incomingCount--
	return h, true
}

// Conn returns the live connection behind a Handle, or nil once it has been
// reaped (which happens when EventConnectionDrained is queued, before Poll
// delivers it).
func (e *Endpoint) Conn(h Handle) *Conn {
	if cs, ok := e.connections[h]; ok {
		return cs.conn
	}
	return nil
}

func (e *Endpoint) register(conn *Conn, localCID, initialCID []byte, remote net.Addr) Handle {
	e.nextHandle++
	h := e.nextHandle
	cs := &connState{conn: conn, handle: h, localCID: localCID, initialCID: initialCID, remoteAddr: remote}
	e.connections[h] = cs
	e.byLocalCID[string(localCID)] = h
	if len(initialCID) > 0 {
		e.byInitialCID[string(initialCID)] = h
	}
	if remote != nil {
		e.byRemoteAddr[remote.String()] = h
	}
	return h
}

func (e *Endpoint) lookup(dcid []byte, remote net.Addr) (Handle, *connState, bool) {
	if h, ok := e.byLocalCID[string(dcid)]; ok {
		return h, e.connections[h], true
	}
	if h, ok := e.byInitialCID[string(dcid)]; ok {
		return h, e.connections[h], true
	}
	if remote != nil {
		if h, ok := e.byRemoteAddr[remote.String()]; ok {
			return h, e.connections[h], true
		}
	}
	return 0, nil, false
}

// Handle processes one inbound datagram received at now from remote. It
// performs the full demux-then-deliver sequence (spec §4.1 step 1-3): known
// connection ID, known initial connection ID, known remote address, else
// (server only) either a Version Negotiation reply, a new connection, a
// stateless reset, or a silent drop.
func (e *Endpoint) Handle(now time.Time, remote net.Addr, datagram []byte) {
	var p packet
	p.header.dcil = LocalCIDLength
	if _, err := p.decodeHeader(datagram); err != nil {
		return
	}

	if h, cs, ok := e.lookup(p.header.dcid, remote); ok {
		cs.remoteAddr = remote
		e.byRemoteAddr[remote.String()] = h
		if _, err := cs.conn.Write(now, datagram); err != nil {
			return
		}
		e.drain(now, h)
		return
	}

	if !e.isServer {
		return // unsolicited datagram on a client-only endpoint
	}

	longHeader := p.typ != packetTypeShort
	if longHeader && p.header.version != 0 && !versionSupported(p.header.version) {
		e.queueVersionNegotiation(remote, p.header.scid, p.header.dcid)
		return
	}
	if longHeader && p.typ == packetTypeInitial && len(datagram) >= MinInitialPacketSize {
		e.handleInitial(now, remote, &p, datagram)
		return
	}
	if len(p.header.dcid) > 0 {
		e.queueStatelessReset(remote, p.header.dcid, len(datagram))
	}
	// Anything else with a non-empty destination CID (a short-header packet
	// for a CID we dropped, an undersized Initial) got a stateless reset
	// above; a datagram with an empty destination CID is silently discarded
	// per spec §4.1 step 3.
}

// handleInitial provisions a new server connection for a first Initial
// packet, enforcing the accept_buffer backpressure limit (spec §5, §7
// ServerBusy) before it ever becomes visible via Accept.
func (e *Endpoint) handleInitial(now time.Time, remote net.Addr, p *packet, datagram []byte) {
	limit := e.config.AcceptBuffer
	if limit > 0 && e.incomingCount >= limit {
		e.rejectBusy(now, remote, p, datagram)
		return
	}

	scid, err := newRandomCID(LocalCIDLength)
	if err != nil {
		return
	}
	odcid := append([]byte(nil), p.header.dcid...)
	config := e.config
	if token := ResetToken(e.listenKeys, scid); token != nil {
		cfg := *e.config
		cfg.Params.StatelessResetToken = token
		config = &cfg
	}
	conn, err := Accept(now, scid, odcid, config)
	if err != nil {
		return
	}
	if _, err := conn.Write(now, datagram); err != nil {
		return
	}
	h := e.register(conn, scid, odcid, remote)
	e.incomingCount++
	e.incoming = append(e.incoming, h)
	e.drain(now, h)
}

// rejectBusy hands the Initial packet to a throwaway connection only long
// enough to emit a handshake-level CONNECTION_CLOSE{SERVER_BUSY}; the
// connection is never registered in incoming and does not count against
// AcceptBuffer.
func (e *Endpoint) rejectBusy(now time.Time, remote net.Addr, p *packet, datagram []byte) {
	scid, err := newRandomCID(LocalCIDLength)
	if err != nil {
		return
	}
	odcid := append([]byte(nil), p.header.dcid...)
	conn, err := Accept(now, scid, odcid, e.config)
	if err != nil {
		return
	}
	if _, err := conn.Write(now, datagram); err != nil {
		return
	}
	conn.Close(false, uint64(ServerBusy), "server busy")
	buf := make([]byte, MaxPacketSize)
	for {
		n, err := conn.Read(now, buf)
		if err != nil || n == 0 {
			break
		}
		pkt := make([]byte, n)
		copy(pkt, buf[:n])
		e.ioQueue = append(e.ioQueue, Io{Kind: IoTransmit, Destination: remote, Packet: pkt})
	}
}

// queueVersionNegotiation replies to an unsupported client version by
// echoing both connection IDs and listing every version this endpoint
// speaks plus the reserved greasing value (spec §4.1 step 1, §8 scenario 2).
func (e *Endpoint) queueVersionNegotiation(remote net.Addr, dcid, scid []byte) {
	versions := []uint32{ProtocolVersion, versionReserved}
	pkt := encodeVersionNegotiation(dcid, scid, versions)
	e.ioQueue = append(e.ioQueue, Io{Kind: IoTransmit, Destination: remote, Packet: pkt})
}

// queueStatelessReset replies to a datagram for a connection ID this
// endpoint no longer recognizes (spec §4.1 step 3, §8 scenario 6).
func (e *Endpoint) queueStatelessReset(remote net.Addr, dcid []byte, datagramLen int) {
	if e.listenKeys == nil {
		return
	}
	token := resetTokenFor(e.listenKeys.Reset[:], dcid)
	pkt, err := encodeStatelessReset(token, datagramLen)
	if err != nil {
		return
	}
	e.ioQueue = append(e.ioQueue, Io{Kind: IoTransmit, Destination: remote, Packet: pkt})
}

// Timeout reports that the driver's timer for (handle, which) fired at now.
func (e *Endpoint) Timeout(now time.Time, h Handle, which TimerWhich) {
	cs, ok := e.connections[h]
	if !ok {
		return
	}
	cs.conn.OnTimeout(now, which)
	e.drain(now, h)
}

// drain moves a connection's pending output (packets, timer changes, reap on
// closure) into the Endpoint's queues. Every operation that can change a
// connection's state calls this exactly once afterward.
func (e *Endpoint) drain(now time.Time, h Handle) {
	cs, ok := e.connections[h]
	if !ok {
		return
	}

	var evs []Event
	evs = cs.conn.Events(evs)
	for _, ev := range evs {
		e.events = append(e.events, ConnEvent{Handle: h, Event: ev})
	}

	buf := make([]byte, MaxPacketSize)
	for {
		n, err := cs.conn.Read(now, buf)
		if err != nil || n == 0 {
			break
		}
		pkt := make([]byte, n)
		copy(pkt, buf[:n])
		e.ioQueue = append(e.ioQueue, Io{Kind: IoTransmit, Handle: h, Destination: cs.remoteAddr, Packet: pkt})
	}

	for _, which := range [...]TimerWhich{TimerClose, TimerLossDetection, TimerIdle} {
		deadline, armed := cs.conn.Deadline(which)
		last := cs.armed[which]
		switch {
		case armed && !deadline.Equal(last):
			e.ioQueue = append(e.ioQueue, Io{Kind: IoTimerStart, Handle: h, Which: which, Time: deadline})
			cs.armed[which] = deadline
		case !armed && !last.IsZero():
			e.ioQueue = append(e.ioQueue, Io{Kind: IoTimerStop, Handle: h, Which: which})
			cs.armed[which] = time.Time{}
		}
	}

	if cs.conn.IsClosed() {
		e.events = append(e.events, ConnEvent{Handle: h, Event: Event{Type: EventConnectionDrained}})
		e.reap(h, cs)
	}
}

func (e *Endpoint) reap(h Handle, cs *connState) {
	delete(e.connections, h)
	delete(e.byLocalCID, string(cs.localCID))
	if len(cs.initialCID) > 0 {
		delete(e.byInitialCID, string(cs.initialCID))
	}
	if cs.remoteAddr != nil {
		delete(e.byRemoteAddr, cs.remoteAddr.String())
	}
}

// PollIO drains every directive queued since the last call.
func (e *Endpoint) PollIO(now time.Time) []Io {
	io := e.ioQueue
	e.ioQueue = nil
	return io
}

// Poll drains every event queued since the last call, across all
// connections this Endpoint owns.
func (e *Endpoint) Poll() []ConnEvent {
	evs := e.events
	e.events = nil
	return evs
}
