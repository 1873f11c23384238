package transport

// flowControl tracks one direction's worth of flow-control accounting,
// shared by the connection-level and per-stream limits (spec §4.4).
type flowControl struct {
	maxRecv     uint64 // current advertised receive limit
	maxRecvNext uint64 // limit to advertise next time a MAX_DATA/MAX_STREAM_DATA is sent
	usedRecv    uint64 // bytes received so far

	maxSend uint64 // limit the peer has granted us
	usedSend uint64 // bytes sent so far
}

func (f *flowControl) init(maxRecv, maxSend uint64) {
	f.maxRecv = maxRecv
	f.maxRecvNext = maxRecv
	f.maxSend = maxSend
}

// canRecv returns how many more bytes may be received before the peer
// violates this flow-control limit.
func (f *flowControl) canRecv() uint64 {
	if f.usedRecv >= f.maxRecv {
		return 0
	}
	return f.maxRecv - f.usedRecv
}

func (f *flowControl) addRecv(n int) {
	f.usedRecv += uint64(n)
}

// canSend returns how many more bytes may be sent before the local side
// would violate the peer's advertised limit.
func (f *flowControl) canSend() uint64 {
	if f.usedSend >= f.maxSend {
		return 0
	}
	return f.maxSend - f.usedSend
}

func (f *flowControl) addSend(n int) {
	f.usedSend += uint64(n)
}

// setMaxSend raises the send limit when the peer grants more (MAX_DATA /
// MAX_STREAM_DATA); a peer cannot lower a limit it already granted.
func (f *flowControl) setMaxSend(max uint64) {
	if max > f.maxSend {
		f.maxSend = max
	}
}

// shouldUpdateMaxRecv reports whether enough of the current receive window
// has been consumed that the local side should advertise a new, larger
// limit, per the classic "used more than half the window" heuristic.
func (f *flowControl) shouldUpdateMaxRecv() bool {
	if f.maxRecv == 0 {
		return false
	}
	threshold := f.maxRecv - f.maxRecv/2
	if f.usedRecv < threshold {
		return false
	}
	next := f.usedRecv + f.maxRecv
	if next <= f.maxRecvNext {
		return false
	}
	f.maxRecvNext = next
	return true
}

// commitMaxRecv applies a previously-computed maxRecvNext after the
// corresponding frame has actually been queued for sending.
func (f *flowControl) commitMaxRecv() {
	f.maxRecv = f.maxRecvNext
}
