package quic

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/goburrow/quic/transport"
)

// Handler processes application-visible events for a connection, delivered
// in a batch between poll cycles (spec §1: the core "produces a list of
// events for the driver to act on").
type Handler interface {
	Serve(c Conn, events []transport.Event)
}

// Conn is the driver-facing view of a connection; it hides the underlying
// transport.Conn and transport.Handle so a Handler only needs to read and
// write streams and identify the peer.
type Conn interface {
	RemoteAddr() net.Addr
	Stream(id uint64) *transport.Stream
}

// Event type aliases exposed by the driver on top of transport.EventType:
// a Handler compares e.Type against these the same way it compares against
// transport.EventStream, since both are transport.EventType values.
const (
	EventConnAccept = transport.EventConnected
	EventConnClose  = transport.EventConnectionLost
)

// connHandle is the Conn a Handler sees: a thin view over a transport.Handle
// owned by the core transport.Endpoint.
type connHandle struct {
	core   *transport.Endpoint
	handle transport.Handle
	addr   net.Addr
}

func (c *connHandle) RemoteAddr() net.Addr {
	return c.addr
}

func (c *connHandle) Stream(id uint64) *transport.Stream {
	conn := c.core.Conn(c.handle)
	if conn == nil {
		return nil
	}
	st, err := conn.Stream(id)
	if err != nil {
		return nil
	}
	return st
}

// timerKey identifies one of a connection's three independently-armed
// timers, so the driver can replace or cancel the right OS timer when the
// core issues IoTimerStart/IoTimerStop.
type timerKey struct {
	handle transport.Handle
	which  transport.TimerWhich
}

// endpoint is the socket I/O and real-clock driver layered on top of the
// I/O-free transport.Endpoint core (spec §1 Endpoint: "owns the UDP socket;
// demuxes inbound datagrams to connections by connection ID; the state
// machine itself never touches the network", §6's Driver<->Engine
// contract). It owns the socket and per-timer *time.Timer values, translates
// PollIO directives into WriteTo calls and armed/disarmed timers, and feeds
// ingress datagrams and fired timers back into the core. This is
// illustrative driver code, not part of the I/O-free core.
type endpoint struct {
	socket  net.PacketConn
	core    *transport.Endpoint
	handler Handler
	logger  *logger

	mu     sync.Mutex
	addrs  map[transport.Handle]net.Addr
	logged map[transport.Handle]bool
	timers map[timerKey]*time.Timer

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup
}

func newEndpoint(config *transport.Config, isServer bool) *endpoint {
	return &endpoint{
		core:   transport.NewEndpoint(config, isServer),
		addrs:  make(map[transport.Handle]net.Addr),
		logged: make(map[transport.Handle]bool),
		timers: make(map[timerKey]*time.Timer),
		logger: newLogger(),
		closed: make(chan struct{}),
	}
}

func (e *endpoint) setHandler(h Handler) {
	e.handler = h
}

func (e *endpoint) listenAndServe(addr string) error {
	socket, err := net.ListenPacket("udp", addr)
	if err != nil {
		return errors.Wrap(err, "quic: listen")
	}
	e.socket = socket
	e.wg.Add(1)
	go e.recvLoop()
	return nil
}

func (e *endpoint) close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.closed)
		if e.socket != nil {
			err = e.socket.Close()
		}
		e.mu.Lock()
		for key, t := range e.timers {
			t.Stop()
			delete(e.timers, key)
		}
		e.mu.Unlock()
	})
	e.wg.Wait()
	return err
}

func (e *endpoint) recvLoop() {
	defer e.wg.Done()
	buf := make([]byte, transport.MaxPacketSize)
	for {
		n, addr, err := e.socket.ReadFrom(buf)
		if err != nil {
			select {
			case <-e.closed:
			default:
				e.logger.log(levelError, "quic: recv", zap.Error(err))
			}
			return
		}
		if n == 0 {
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		now := time.Now()
		e.mu.Lock()
		e.core.Handle(now, addr, data)
		e.pump(now)
		e.mu.Unlock()
	}
}

// onTimer is invoked by time.AfterFunc, on its own goroutine, when a timer
// the core armed via IoTimerStart expires.
func (e *endpoint) onTimer(key timerKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.timers[key]; !ok {
		return // canceled (or already replaced) after firing but before this ran
	}
	delete(e.timers, key)
	now := time.Now()
	e.core.Timeout(now, key.handle, key.which)
	e.pump(now)
}

// connect registers a new outbound connection to addr with the core and
// flushes its first flight.
func (e *endpoint) connect(addr net.Addr) error {
	now := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.core.Connect(now, addr); err != nil {
		return err
	}
	e.pump(now)
	return nil
}

// pump drains every directive and event the core has queued since the last
// call and realizes it against the socket, real OS timers, and the Handler.
// Callers must hold e.mu.
func (e *endpoint) pump(now time.Time) {
	for _, io := range e.core.PollIO(now) {
		switch io.Kind {
		case transport.IoTransmit:
			if io.Handle != 0 {
				e.addrs[io.Handle] = io.Destination
				if !e.logged[io.Handle] {
					if conn := e.core.Conn(io.Handle); conn != nil {
						e.logger.attachLogger(io.Handle, io.Destination, conn)
						e.logged[io.Handle] = true
					}
				}
			}
			if e.socket == nil || io.Destination == nil {
				continue
			}
			if _, err := e.socket.WriteTo(io.Packet, io.Destination); err != nil {
				e.logger.log(levelError, "quic: send", zap.Stringer("remote_addr", io.Destination), zap.Error(err))
			}
		case transport.IoTimerStart:
			key := timerKey{handle: io.Handle, which: io.Which}
			if t, ok := e.timers[key]; ok {
				t.Stop()
			}
			d := time.Until(io.Time)
			if d < 0 {
				d = 0
			}
			e.timers[key] = time.AfterFunc(d, func() { e.onTimer(key) })
		case transport.IoTimerStop:
			key := timerKey{handle: io.Handle, which: io.Which}
			if t, ok := e.timers[key]; ok {
				t.Stop()
				delete(e.timers, key)
			}
		}
	}

	e.dispatchEvents()
}

// dispatchEvents groups the core's flat event queue back into one batch per
// connection, matching the Handler contract of one Serve call per poll cycle
// per connection that had something to report.
func (e *endpoint) dispatchEvents() {
	grouped := make(map[transport.Handle][]transport.Event)
	var order []transport.Handle
	for _, ce := range e.core.Poll() {
		if _, ok := grouped[ce.Handle]; !ok {
			order = append(order, ce.Handle)
		}
		grouped[ce.Handle] = append(grouped[ce.Handle], ce.Event)
	}
	for _, h := range order {
		events := grouped[h]
		if e.handler != nil {
			ch := &connHandle{core: e.core, handle: h, addr: e.addrs[h]}
			e.handler.Serve(ch, events)
		}
		for _, ev := range events {
			if ev.Type == transport.EventConnectionDrained {
				delete(e.addrs, h)
				delete(e.logged, h)
			}
		}
	}
}
