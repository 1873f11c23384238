package transport

import "io"

// isStreamLocal reports whether id was opened by this endpoint, given its
// client/server role (spec GLOSSARY "stream ID"; RFC 9000 §2.1).
func isStreamLocal(id uint64, isClient bool) bool {
	clientInitiated := id&0x1 == 0
	return clientInitiated == isClient
}

// isStreamBidi reports whether id names a bidirectional stream.
func isStreamBidi(id uint64) bool {
	return id&0x2 == 0
}

// sendBuffer holds bytes an application has written to a stream, tracking
// which ranges still need to be sent (or resent, after loss) versus which
// have been acknowledged.
type sendBuffer struct {
	data        []byte // all bytes ever written, index == stream offset
	writeOffset uint64

	pending rangeSet // byte ranges needing to go out
	acked   rangeSet // byte ranges the peer has confirmed

	fin      bool // app called Close/finish
	finSent  bool
	finAcked bool

	stopped   bool
	stopCode  uint64
}

// push queues data at offset for sending. Called both for freshly written
// application data (offset == writeOffset) and to re-queue a frame's payload
// after it was declared lost (offset may be anywhere already written).
func (b *sendBuffer) push(data []byte, offset uint64, fin bool) error {
	if offset > b.writeOffset {
		return newError(StreamStateError, "out-of-order stream write")
	}
	if offset == b.writeOffset {
		b.data = append(b.data, data...)
		b.writeOffset += uint64(len(data))
	}
	if len(data) > 0 {
		b.pending.insertRange(offset, offset+uint64(len(data))-1)
	}
	if fin {
		b.fin = true
	}
	return nil
}

func (b *sendBuffer) hasPending() bool {
	return len(b.pending) > 0 || (b.fin && !b.finSent)
}

// pop removes up to max bytes of the earliest pending range and returns them
// along with their offset and whether this chunk completes the stream.
func (b *sendBuffer) pop(max int) (data []byte, offset uint64, fin bool) {
	if len(b.pending) == 0 {
		if b.fin && !b.finSent {
			b.finSent = true
			return nil, b.writeOffset, true
		}
		return nil, 0, false
	}
	r := b.pending[0]
	length := r.len()
	if length > uint64(max) {
		length = uint64(max)
	}
	if length == 0 {
		return nil, 0, false
	}
	lo := r.start
	hi := lo + length - 1
	data = b.data[lo : lo+length]
	b.pending.removeRange(lo, hi)
	atEnd := hi+1 == b.writeOffset
	thisFin := b.fin && atEnd && len(b.pending) == 0
	if thisFin {
		b.finSent = true
	}
	return data, lo, thisFin
}

func (b *sendBuffer) ack(offset, length uint64) {
	if length == 0 {
		return
	}
	b.acked.insertRange(offset, offset+length-1)
	if b.fin && offset+length == b.writeOffset {
		b.finAcked = true
	}
}

func (b *sendBuffer) complete() bool {
	return b.fin && b.finAcked
}

// recvBuffer reassembles bytes an application reads from a stream, handling
// out-of-order CRYPTO/STREAM frame delivery.
type recvBuffer struct {
	chunks   map[uint64][]byte
	received rangeSet
	readOffset uint64

	finalSize    uint64
	hasFinalSize bool
	highWater    uint64 // highest offset+len accounted for flow control so far

	wasReset  bool
	resetCode uint64
}

func (b *recvBuffer) push(data []byte, offset uint64, fin bool) error {
	if b.hasFinalSize && offset+uint64(len(data)) > b.finalSize {
		return newError(FinalOffsetError, "stream data beyond final size")
	}
	if fin {
		b.finalSize = offset + uint64(len(data))
		b.hasFinalSize = true
	}
	if len(data) == 0 {
		return nil
	}
	if b.chunks == nil {
		b.chunks = make(map[uint64][]byte)
	}
	if offset+uint64(len(data)) <= b.readOffset {
		return nil // already consumed
	}
	if offset < b.readOffset {
		data = data[b.readOffset-offset:]
		offset = b.readOffset
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	b.chunks[offset] = cp
	b.received.insertRange(offset, offset+uint64(len(cp))-1)
	if end := offset + uint64(len(cp)); end > b.highWater {
		b.highWater = end
	}
	return nil
}

// popContiguous returns and removes the bytes immediately available at the
// current read offset, in order, with no gaps (used to hand CRYPTO data to
// the TLS engine, which requires strictly ordered input).
func (b *recvBuffer) popContiguous() []byte {
	var out []byte
	for {
		chunk, ok := b.chunks[b.readOffset]
		if !ok {
			break
		}
		out = append(out, chunk...)
		delete(b.chunks, b.readOffset)
		b.readOffset += uint64(len(chunk))
	}
	return out
}

// read copies contiguous bytes into p, RFC 9000 reassembly semantics.
func (b *recvBuffer) read(p []byte) (int, error) {
	if b.wasReset {
		return 0, &streamResetError{code: b.resetCode}
	}
	chunk, ok := b.chunks[b.readOffset]
	if !ok {
		if b.hasFinalSize && b.readOffset >= b.finalSize {
			return 0, io.EOF
		}
		return 0, ReadErrorBlocked
	}
	n := copy(p, chunk)
	if n == len(chunk) {
		delete(b.chunks, b.readOffset)
	} else {
		b.chunks[b.readOffset] = chunk[n:]
	}
	b.readOffset += uint64(n)
	return n, nil
}

// reset marks the stream as reset by the peer at finalSize, returning how
// many additional bytes this contributes to connection-level flow control.
func (b *recvBuffer) reset(finalSize uint64) (int, error) {
	if b.hasFinalSize && b.finalSize != finalSize {
		return 0, newError(FinalOffsetError, "conflicting final size")
	}
	mayRecv := 0
	if finalSize > b.highWater {
		mayRecv = int(finalSize - b.highWater)
		b.highWater = finalSize
	}
	b.finalSize = finalSize
	b.hasFinalSize = true
	b.wasReset = true
	return mayRecv, nil
}

func (b *recvBuffer) String() string {
	return sprint("read_offset=", b.readOffset, " final_size=", b.finalSize, " reset=", b.wasReset)
}

// Stream is one QUIC stream's send and receive state (spec §3 "Stream").
type Stream struct {
	send sendBuffer
	recv recvBuffer

	flow     flowControl
	connFlow *flowControl

	updateMaxData bool
}

// initCrypto prepares a Stream for use as a packet-number space's implicit
// CRYPTO stream, which is unbounded by QUIC-level flow control.
func (st *Stream) initCrypto() {
	*st = Stream{}
	st.flow.init(1<<62, 1<<62)
}

func (st *Stream) pushRecv(data []byte, offset uint64, fin bool) error {
	if err := st.recv.push(data, offset, fin); err != nil {
		return err
	}
	st.flow.addRecv(len(data))
	if st.flow.shouldUpdateMaxRecv() {
		st.updateMaxData = true
	}
	return nil
}

// popSend returns the next chunk of data ready to go out on the wire, never
// larger than max bytes.
func (st *Stream) popSend(max int) (data []byte, offset uint64, fin bool) {
	return st.send.pop(max)
}

func (st *Stream) ackMaxData() {
	st.updateMaxData = false
}

// Write buffers b for sending on this stream; data is flushed by the
// connection's next poll, not immediately.
func (st *Stream) Write(b []byte) (int, error) {
	if st.send.stopped {
		return 0, &streamStoppedError{code: st.send.stopCode}
	}
	if err := st.send.push(b, st.send.writeOffset, false); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Close marks the stream as finished: no more bytes will be written.
func (st *Stream) Close() error {
	return st.send.push(nil, st.send.writeOffset, true)
}

// Read copies reassembled bytes into b. It returns (0, ReadErrorBlocked) when
// no contiguous data is currently available; callers distinguish this "would
// block" case from io.EOF and from a reset stream.
func (st *Stream) Read(b []byte) (int, error) {
	return st.recv.read(b)
}

// streamMap owns every stream on a connection plus the local/peer stream
// count limits (spec §4.2).
type streamMap struct {
	streams map[uint64]*Stream

	localMaxStreamsBidi uint64
	localMaxStreamsUni  uint64

	peerMaxStreamsBidi uint64
	peerMaxStreamsUni  uint64

	localOpenedBidi uint64
	localOpenedUni  uint64
}

func (m *streamMap) init(localMaxStreamsBidi, localMaxStreamsUni uint64) {
	m.streams = make(map[uint64]*Stream)
	m.localMaxStreamsBidi = localMaxStreamsBidi
	m.localMaxStreamsUni = localMaxStreamsUni
}

func (m *streamMap) get(id uint64) *Stream {
	return m.streams[id]
}

func (m *streamMap) create(id uint64, local bool, bidi bool) (*Stream, error) {
	index := id >> 2
	if local {
		if bidi && index >= m.peerMaxStreamsBidi {
			return nil, newError(StreamIDError, "bidi stream limit exceeded")
		}
		if !bidi && index >= m.peerMaxStreamsUni {
			return nil, newError(StreamIDError, "uni stream limit exceeded")
		}
	} else {
		if bidi && index >= m.localMaxStreamsBidi {
			return nil, newError(StreamIDError, "bidi stream limit exceeded")
		}
		if !bidi && index >= m.localMaxStreamsUni {
			return nil, newError(StreamIDError, "uni stream limit exceeded")
		}
	}
	st := &Stream{}
	m.streams[id] = st
	return st, nil
}

func (m *streamMap) setPeerMaxStreamsBidi(max uint64) {
	if max > m.peerMaxStreamsBidi {
		m.peerMaxStreamsBidi = max
	}
}

func (m *streamMap) setPeerMaxStreamsUni(max uint64) {
	if max > m.peerMaxStreamsUni {
		m.peerMaxStreamsUni = max
	}
}

// hasFlushable reports whether any stream has data or a FIN pending.
func (m *streamMap) hasFlushable() bool {
	for _, st := range m.streams {
		if st.send.hasPending() {
			return true
		}
	}
	return false
}
