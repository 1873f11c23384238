package transport

// Frame types (draft-11 §19). STREAM frames occupy a range because the low
// three bits carry FIN/LEN/OFF flags.
const (
	frameTypePadding             = 0x00
	frameTypePing                = 0x01
	frameTypeAck                 = 0x02
	frameTypeAckECN              = 0x03
	frameTypeResetStream         = 0x04
	frameTypeStopSending         = 0x05
	frameTypeCrypto              = 0x06
	frameTypeNewToken            = 0x07
	frameTypeStream              = 0x08
	frameTypeStreamEnd           = 0x0f
	frameTypeMaxData             = 0x10
	frameTypeMaxStreamData       = 0x11
	frameTypeMaxStreamsBidi      = 0x12
	frameTypeMaxStreamsUni       = 0x13
	frameTypeDataBlocked         = 0x14
	frameTypeStreamDataBlocked   = 0x15
	frameTypeStreamsBlockedBidi  = 0x16
	frameTypeStreamsBlockedUni   = 0x17
	frameTypeConnectionClose     = 0x1c
	frameTypeApplicationClose    = 0x1d
	frameTypeHanshakeDone        = 0x1e
)

// frame is implemented by every concrete frame type.
type frame interface {
	frameType() uint64
	encodedLen() int
	encode(b []byte) (int, error)
	decode(b []byte) (int, error)
}

// isFrameAckEliciting reports whether a frame of the given type requires the
// receiver to acknowledge the packet carrying it (every frame except ACK,
// PADDING, and CONNECTION_CLOSE; spec §4.3 step 5).
func isFrameAckEliciting(typ uint64) bool {
	switch typ {
	case frameTypePadding, frameTypeAck, frameTypeAckECN,
		frameTypeConnectionClose, frameTypeApplicationClose:
		return false
	default:
		return true
	}
}

func encodeFrames(b []byte, frames []frame) (int, error) {
	off := 0
	for _, f := range frames {
		n, err := f.encode(b[off:])
		if err != nil {
			return 0, err
		}
		off += n
	}
	return off, nil
}

// ---- PADDING ----

type paddingFrame struct {
	length int
}

func newPaddingFrame(n int) *paddingFrame { return &paddingFrame{length: n} }

func (f *paddingFrame) frameType() uint64 { return frameTypePadding }
func (f *paddingFrame) encodedLen() int   { return f.length }
func (f *paddingFrame) encode(b []byte) (int, error) {
	if len(b) < f.length {
		return 0, errShortBuffer
	}
	for i := 0; i < f.length; i++ {
		b[i] = 0
	}
	return f.length, nil
}
func (f *paddingFrame) decode(b []byte) (int, error) {
	n := 0
	for n < len(b) && b[n] == frameTypePadding {
		n++
	}
	f.length = n
	if n == 0 {
		n = 1
	}
	return n, nil
}

// ---- PING ----

type pingFrame struct{}

func (f *pingFrame) frameType() uint64 { return frameTypePing }
func (f *pingFrame) encodedLen() int   { return 1 }
func (f *pingFrame) encode(b []byte) (int, error) {
	if len(b) < 1 {
		return 0, errShortBuffer
	}
	b[0] = frameTypePing
	return 1, nil
}
func (f *pingFrame) decode(b []byte) (int, error) { return 1, nil }

// ---- ACK ----

type ackFrame struct {
	largestAck    uint64
	ackDelay      uint64
	firstAckRange uint64
	ranges        []ackRange // additional gap/range pairs, ordered newest-first
	ackRanges     rangeSet   // decoded absolute ranges, set by toRangeSet
}

type ackRange struct {
	gap      uint64
	ackRange uint64
}

func newAckFrame(ackDelay uint64, received rangeSet) *ackFrame {
	f := &ackFrame{ackDelay: ackDelay}
	if len(received) == 0 {
		return f
	}
	largest, _ := received.peekMax()
	f.largestAck = largest
	last := received[len(received)-1]
	f.firstAckRange = last.len() - 1
	prevLo := last.start
	for i := len(received) - 2; i >= 0; i-- {
		r := received[i]
		gap := prevLo - r.end - 2
		f.ranges = append(f.ranges, ackRange{gap: gap, ackRange: r.len() - 1})
		prevLo = r.start
	}
	return f
}

func (f *ackFrame) frameType() uint64 { return frameTypeAck }

func (f *ackFrame) encodedLen() int {
	n := 1 + varintLen(f.largestAck) + varintLen(f.ackDelay) + varintLen(uint64(len(f.ranges))) + varintLen(f.firstAckRange)
	for _, r := range f.ranges {
		n += varintLen(r.gap) + varintLen(r.ackRange)
	}
	return n
}

func (f *ackFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	off := 0
	off += putVarint(b[off:], frameTypeAck)
	off += putVarint(b[off:], f.largestAck)
	off += putVarint(b[off:], f.ackDelay)
	off += putVarint(b[off:], uint64(len(f.ranges)))
	off += putVarint(b[off:], f.firstAckRange)
	for _, r := range f.ranges {
		off += putVarint(b[off:], r.gap)
		off += putVarint(b[off:], r.ackRange)
	}
	return off, nil
}

func (f *ackFrame) decode(b []byte) (int, error) {
	off, err := expectVarint(b, 0, frameTypeAck)
	if err != nil {
		return 0, err
	}
	var rangeCount uint64
	off, err = readVarintField(b, off, &f.largestAck)
	if err != nil {
		return 0, err
	}
	off, err = readVarintField(b, off, &f.ackDelay)
	if err != nil {
		return 0, err
	}
	off, err = readVarintField(b, off, &rangeCount)
	if err != nil {
		return 0, err
	}
	off, err = readVarintField(b, off, &f.firstAckRange)
	if err != nil {
		return 0, err
	}
	f.ranges = nil
	for i := uint64(0); i < rangeCount; i++ {
		var r ackRange
		off, err = readVarintField(b, off, &r.gap)
		if err != nil {
			return 0, err
		}
		off, err = readVarintField(b, off, &r.ackRange)
		if err != nil {
			return 0, err
		}
		f.ranges = append(f.ranges, r)
	}
	return off, nil
}

func (f *ackFrame) String() string {
	return sprint("largest=", f.largestAck, " delay=", f.ackDelay, " first_range=", f.firstAckRange)
}

// toRangeSet reconstructs the absolute packet-number ranges an ACK frame
// describes, or nil if the frame is malformed (a range would underflow).
func (f *ackFrame) toRangeSet() rangeSet {
	if f.firstAckRange > f.largestAck {
		return nil
	}
	var rs rangeSet
	hi := f.largestAck
	lo := hi - f.firstAckRange
	rs.insertRange(lo, hi)
	for _, r := range f.ranges {
		if lo < r.gap+2 {
			return nil
		}
		hi = lo - r.gap - 2
		if r.ackRange > hi {
			return nil
		}
		lo = hi - r.ackRange
		rs.insertRange(lo, hi)
	}
	f.ackRanges = rs
	return rs
}

// ---- RESET_STREAM ----

type resetStreamFrame struct {
	streamID  uint64
	errorCode uint64
	finalSize uint64
}

func newResetStreamFrame(streamID, errorCode, finalSize uint64) *resetStreamFrame {
	return &resetStreamFrame{streamID: streamID, errorCode: errorCode, finalSize: finalSize}
}

func (f *resetStreamFrame) frameType() uint64 { return frameTypeResetStream }
func (f *resetStreamFrame) encodedLen() int {
	return 1 + varintLen(f.streamID) + varintLen(f.errorCode) + varintLen(f.finalSize)
}
func (f *resetStreamFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	off := putVarint(b, frameTypeResetStream)
	off += putVarint(b[off:], f.streamID)
	off += putVarint(b[off:], f.errorCode)
	off += putVarint(b[off:], f.finalSize)
	return off, nil
}
func (f *resetStreamFrame) decode(b []byte) (int, error) {
	off, err := expectVarint(b, 0, frameTypeResetStream)
	if err != nil {
		return 0, err
	}
	off, err = readVarintField(b, off, &f.streamID)
	if err != nil {
		return 0, err
	}
	off, err = readVarintField(b, off, &f.errorCode)
	if err != nil {
		return 0, err
	}
	off, err = readVarintField(b, off, &f.finalSize)
	if err != nil {
		return 0, err
	}
	return off, nil
}
func (f *resetStreamFrame) String() string {
	return sprint("stream=", f.streamID, " code=", f.errorCode, " final_size=", f.finalSize)
}

// ---- STOP_SENDING ----

type stopSendingFrame struct {
	streamID  uint64
	errorCode uint64
}

func newStopSendingFrame(streamID, errorCode uint64) *stopSendingFrame {
	return &stopSendingFrame{streamID: streamID, errorCode: errorCode}
}
func (f *stopSendingFrame) frameType() uint64 { return frameTypeStopSending }
func (f *stopSendingFrame) encodedLen() int {
	return 1 + varintLen(f.streamID) + varintLen(f.errorCode)
}
func (f *stopSendingFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	off := putVarint(b, frameTypeStopSending)
	off += putVarint(b[off:], f.streamID)
	off += putVarint(b[off:], f.errorCode)
	return off, nil
}
func (f *stopSendingFrame) decode(b []byte) (int, error) {
	off, err := expectVarint(b, 0, frameTypeStopSending)
	if err != nil {
		return 0, err
	}
	off, err = readVarintField(b, off, &f.streamID)
	if err != nil {
		return 0, err
	}
	off, err = readVarintField(b, off, &f.errorCode)
	if err != nil {
		return 0, err
	}
	return off, nil
}
func (f *stopSendingFrame) String() string {
	return sprint("stream=", f.streamID, " code=", f.errorCode)
}

// ---- CRYPTO ----

type cryptoFrame struct {
	offset uint64
	data   []byte
}

func newCryptoFrame(data []byte, offset uint64) *cryptoFrame {
	return &cryptoFrame{data: data, offset: offset}
}
func (f *cryptoFrame) frameType() uint64 { return frameTypeCrypto }
func (f *cryptoFrame) encodedLen() int {
	return 1 + varintLen(f.offset) + varintLen(uint64(len(f.data))) + len(f.data)
}
func (f *cryptoFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	off := putVarint(b, frameTypeCrypto)
	off += putVarint(b[off:], f.offset)
	off += putVarint(b[off:], uint64(len(f.data)))
	off += copy(b[off:], f.data)
	return off, nil
}
func (f *cryptoFrame) decode(b []byte) (int, error) {
	off, err := expectVarint(b, 0, frameTypeCrypto)
	if err != nil {
		return 0, err
	}
	off, err = readVarintField(b, off, &f.offset)
	if err != nil {
		return 0, err
	}
	var length uint64
	off, err = readVarintField(b, off, &length)
	if err != nil {
		return 0, err
	}
	if off+int(length) > len(b) {
		return 0, newError(FrameEncodingError, "crypto data")
	}
	f.data = b[off : off+int(length)]
	off += int(length)
	return off, nil
}
func (f *cryptoFrame) String() string {
	return sprint("offset=", f.offset, " len=", len(f.data))
}

// ---- NEW_TOKEN ----

type newTokenFrame struct {
	token []byte
}

func newNewTokenFrame(token []byte) *newTokenFrame { return &newTokenFrame{token: token} }
func (f *newTokenFrame) frameType() uint64         { return frameTypeNewToken }
func (f *newTokenFrame) encodedLen() int {
	return 1 + varintLen(uint64(len(f.token))) + len(f.token)
}
func (f *newTokenFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	off := putVarint(b, frameTypeNewToken)
	off += putVarint(b[off:], uint64(len(f.token)))
	off += copy(b[off:], f.token)
	return off, nil
}
func (f *newTokenFrame) decode(b []byte) (int, error) {
	off, err := expectVarint(b, 0, frameTypeNewToken)
	if err != nil {
		return 0, err
	}
	var length uint64
	off, err = readVarintField(b, off, &length)
	if err != nil {
		return 0, err
	}
	if off+int(length) > len(b) {
		return 0, newError(FrameEncodingError, "new_token")
	}
	f.token = b[off : off+int(length)]
	off += int(length)
	return off, nil
}

// ---- STREAM ----

type streamFrame struct {
	streamID uint64
	offset   uint64
	data     []byte
	fin      bool
}

func newStreamFrame(streamID uint64, data []byte, offset uint64, fin bool) *streamFrame {
	return &streamFrame{streamID: streamID, offset: offset, data: data, fin: fin}
}
func (f *streamFrame) frameType() uint64 {
	typ := uint64(frameTypeStream) | 0x02 // LEN bit always set
	if f.fin {
		typ |= 0x01
	}
	typ |= 0x04 // OFF bit always set, we always encode an explicit offset
	return typ
}
func (f *streamFrame) encodedLen() int {
	return 1 + varintLen(f.streamID) + varintLen(f.offset) + varintLen(uint64(len(f.data))) + len(f.data)
}
func (f *streamFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	off := putVarint(b, f.frameType())
	off += putVarint(b[off:], f.streamID)
	off += putVarint(b[off:], f.offset)
	off += putVarint(b[off:], uint64(len(f.data)))
	off += copy(b[off:], f.data)
	return off, nil
}
func (f *streamFrame) decode(b []byte) (int, error) {
	var typ uint64
	n := getVarint(b, &typ)
	if n == 0 || typ < frameTypeStream || typ > frameTypeStreamEnd {
		return 0, newError(FrameEncodingError, "stream")
	}
	off := n
	f.fin = typ&0x01 != 0
	hasLen := typ&0x02 != 0
	hasOff := typ&0x04 != 0
	var err error
	off, err = readVarintField(b, off, &f.streamID)
	if err != nil {
		return 0, err
	}
	if hasOff {
		off, err = readVarintField(b, off, &f.offset)
		if err != nil {
			return 0, err
		}
	} else {
		f.offset = 0
	}
	if hasLen {
		var length uint64
		off, err = readVarintField(b, off, &length)
		if err != nil {
			return 0, err
		}
		if off+int(length) > len(b) {
			return 0, newError(FrameEncodingError, "stream data")
		}
		f.data = b[off : off+int(length)]
		off += int(length)
	} else {
		f.data = b[off:]
		off = len(b)
	}
	return off, nil
}
func (f *streamFrame) String() string {
	return sprint("stream=", f.streamID, " offset=", f.offset, " len=", len(f.data), " fin=", f.fin)
}

// ---- MAX_DATA ----

type maxDataFrame struct {
	maximumData uint64
}

func newMaxDataFrame(max uint64) *maxDataFrame { return &maxDataFrame{maximumData: max} }
func (f *maxDataFrame) frameType() uint64      { return frameTypeMaxData }
func (f *maxDataFrame) encodedLen() int        { return 1 + varintLen(f.maximumData) }
func (f *maxDataFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	off := putVarint(b, frameTypeMaxData)
	off += putVarint(b[off:], f.maximumData)
	return off, nil
}
func (f *maxDataFrame) decode(b []byte) (int, error) {
	off, err := expectVarint(b, 0, frameTypeMaxData)
	if err != nil {
		return 0, err
	}
	return readVarintField(b, off, &f.maximumData)
}

// ---- MAX_STREAM_DATA ----

type maxStreamDataFrame struct {
	streamID    uint64
	maximumData uint64
}

func newMaxStreamDataFrame(streamID, max uint64) *maxStreamDataFrame {
	return &maxStreamDataFrame{streamID: streamID, maximumData: max}
}
func (f *maxStreamDataFrame) frameType() uint64 { return frameTypeMaxStreamData }
func (f *maxStreamDataFrame) encodedLen() int {
	return 1 + varintLen(f.streamID) + varintLen(f.maximumData)
}
func (f *maxStreamDataFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	off := putVarint(b, frameTypeMaxStreamData)
	off += putVarint(b[off:], f.streamID)
	off += putVarint(b[off:], f.maximumData)
	return off, nil
}
func (f *maxStreamDataFrame) decode(b []byte) (int, error) {
	off, err := expectVarint(b, 0, frameTypeMaxStreamData)
	if err != nil {
		return 0, err
	}
	off, err = readVarintField(b, off, &f.streamID)
	if err != nil {
		return 0, err
	}
	return readVarintField(b, off, &f.maximumData)
}

// ---- MAX_STREAMS ----

type maxStreamsFrame struct {
	bidi           bool
	maximumStreams uint64
}

func newMaxStreamsFrame(max uint64, bidi bool) *maxStreamsFrame {
	return &maxStreamsFrame{bidi: bidi, maximumStreams: max}
}
func (f *maxStreamsFrame) frameType() uint64 {
	if f.bidi {
		return frameTypeMaxStreamsBidi
	}
	return frameTypeMaxStreamsUni
}
func (f *maxStreamsFrame) encodedLen() int { return 1 + varintLen(f.maximumStreams) }
func (f *maxStreamsFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	off := putVarint(b, f.frameType())
	off += putVarint(b[off:], f.maximumStreams)
	return off, nil
}
func (f *maxStreamsFrame) decode(b []byte) (int, error) {
	var typ uint64
	n := getVarint(b, &typ)
	if n == 0 {
		return 0, newError(FrameEncodingError, "max_streams")
	}
	f.bidi = typ == frameTypeMaxStreamsBidi
	return readVarintField(b, n, &f.maximumStreams)
}

// ---- DATA_BLOCKED ----

type dataBlockedFrame struct {
	dataLimit uint64
}

func newDataBlockedFrame(limit uint64) *dataBlockedFrame { return &dataBlockedFrame{dataLimit: limit} }
func (f *dataBlockedFrame) frameType() uint64            { return frameTypeDataBlocked }
func (f *dataBlockedFrame) encodedLen() int              { return 1 + varintLen(f.dataLimit) }
func (f *dataBlockedFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	off := putVarint(b, frameTypeDataBlocked)
	off += putVarint(b[off:], f.dataLimit)
	return off, nil
}
func (f *dataBlockedFrame) decode(b []byte) (int, error) {
	off, err := expectVarint(b, 0, frameTypeDataBlocked)
	if err != nil {
		return 0, err
	}
	return readVarintField(b, off, &f.dataLimit)
}

// ---- STREAM_DATA_BLOCKED ----

type streamDataBlockedFrame struct {
	streamID  uint64
	dataLimit uint64
}

func newStreamDataBlockedFrame(streamID, limit uint64) *streamDataBlockedFrame {
	return &streamDataBlockedFrame{streamID: streamID, dataLimit: limit}
}
func (f *streamDataBlockedFrame) frameType() uint64 { return frameTypeStreamDataBlocked }
func (f *streamDataBlockedFrame) encodedLen() int {
	return 1 + varintLen(f.streamID) + varintLen(f.dataLimit)
}
func (f *streamDataBlockedFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	off := putVarint(b, frameTypeStreamDataBlocked)
	off += putVarint(b[off:], f.streamID)
	off += putVarint(b[off:], f.dataLimit)
	return off, nil
}
func (f *streamDataBlockedFrame) decode(b []byte) (int, error) {
	off, err := expectVarint(b, 0, frameTypeStreamDataBlocked)
	if err != nil {
		return 0, err
	}
	off, err = readVarintField(b, off, &f.streamID)
	if err != nil {
		return 0, err
	}
	return readVarintField(b, off, &f.dataLimit)
}

// ---- STREAMS_BLOCKED ----

type streamsBlockedFrame struct {
	bidi        bool
	streamLimit uint64
}

func newStreamsBlockedFrame(limit uint64, bidi bool) *streamsBlockedFrame {
	return &streamsBlockedFrame{bidi: bidi, streamLimit: limit}
}
func (f *streamsBlockedFrame) frameType() uint64 {
	if f.bidi {
		return frameTypeStreamsBlockedBidi
	}
	return frameTypeStreamsBlockedUni
}
func (f *streamsBlockedFrame) encodedLen() int { return 1 + varintLen(f.streamLimit) }
func (f *streamsBlockedFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	off := putVarint(b, f.frameType())
	off += putVarint(b[off:], f.streamLimit)
	return off, nil
}
func (f *streamsBlockedFrame) decode(b []byte) (int, error) {
	var typ uint64
	n := getVarint(b, &typ)
	if n == 0 {
		return 0, newError(FrameEncodingError, "streams_blocked")
	}
	f.bidi = typ == frameTypeStreamsBlockedBidi
	return readVarintField(b, n, &f.streamLimit)
}

// ---- CONNECTION_CLOSE ----

type connectionCloseFrame struct {
	application  bool
	errorCode    uint64
	frameType_   uint64 // frame type that triggered a transport-level close, if any
	reasonPhrase []byte
}

func newConnectionCloseFrame(errorCode, triggerFrameType uint64, reason []byte, application bool) *connectionCloseFrame {
	return &connectionCloseFrame{application: application, errorCode: errorCode, frameType_: triggerFrameType, reasonPhrase: reason}
}
func (f *connectionCloseFrame) frameType() uint64 {
	if f.application {
		return frameTypeApplicationClose
	}
	return frameTypeConnectionClose
}
func (f *connectionCloseFrame) encodedLen() int {
	n := 1 + varintLen(f.errorCode)
	if !f.application {
		n += varintLen(f.frameType_)
	}
	n += varintLen(uint64(len(f.reasonPhrase))) + len(f.reasonPhrase)
	return n
}
func (f *connectionCloseFrame) encode(b []byte) (int, error) {
	if len(b) < f.encodedLen() {
		return 0, errShortBuffer
	}
	off := putVarint(b, f.frameType())
	off += putVarint(b[off:], f.errorCode)
	if !f.application {
		off += putVarint(b[off:], f.frameType_)
	}
	off += putVarint(b[off:], uint64(len(f.reasonPhrase)))
	off += copy(b[off:], f.reasonPhrase)
	return off, nil
}
func (f *connectionCloseFrame) decode(b []byte) (int, error) {
	var typ uint64
	n := getVarint(b, &typ)
	if n == 0 {
		return 0, newError(FrameEncodingError, "connection_close")
	}
	f.application = typ == frameTypeApplicationClose
	off := n
	var err error
	off, err = readVarintField(b, off, &f.errorCode)
	if err != nil {
		return 0, err
	}
	if !f.application {
		off, err = readVarintField(b, off, &f.frameType_)
		if err != nil {
			return 0, err
		}
	}
	var length uint64
	off, err = readVarintField(b, off, &length)
	if err != nil {
		return 0, err
	}
	if off+int(length) > len(b) {
		return 0, newError(FrameEncodingError, "connection_close reason")
	}
	f.reasonPhrase = b[off : off+int(length)]
	off += int(length)
	return off, nil
}
func (f *connectionCloseFrame) String() string {
	return sprint("code=", f.errorCode, " reason=", string(f.reasonPhrase))
}

// ---- HANDSHAKE_DONE ----

type handshakeDoneFrame struct{}

func (f *handshakeDoneFrame) frameType() uint64 { return frameTypeHanshakeDone }
func (f *handshakeDoneFrame) encodedLen() int    { return 1 }
func (f *handshakeDoneFrame) encode(b []byte) (int, error) {
	if len(b) < 1 {
		return 0, errShortBuffer
	}
	b[0] = frameTypeHanshakeDone
	return 1, nil
}
func (f *handshakeDoneFrame) decode(b []byte) (int, error) { return 1, nil }

// ---- shared decode helpers ----

func expectVarint(b []byte, off int, want uint64) (int, error) {
	var got uint64
	n := getVarint(b[off:], &got)
	if n == 0 || got != want {
		return 0, newError(FrameEncodingError, "frame type")
	}
	return off + n, nil
}

func readVarintField(b []byte, off int, v *uint64) (int, error) {
	n := getVarint(b[off:], v)
	if n == 0 {
		return 0, newError(FrameEncodingError, "truncated frame")
	}
	return off + n, nil
}
