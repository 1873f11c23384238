package transport

import (
	"time"
)

// SentPacket records an emitted packet until it is acknowledged or declared
// lost (spec §3 "sent_packets"; §8 invariant on bytes_in_flight).
type SentPacket struct {
	PacketNumber uint64
	Size         uint64
	TimeSent     time.Time
	AckEliciting bool
	InFlight     bool
	Frames       []frame
}

// outgoingPacket accumulates frames while a packet is being built, before it
// is handed to onPacketSent and turned into a SentPacket.
type outgoingPacket struct {
	packetNumber uint64
	timeSent     time.Time
	frames       []frame
	ackEliciting bool
	inFlight     bool
	size         uint64
}

func newOutgoingPacket(pn uint64, now time.Time) *outgoingPacket {
	return &outgoingPacket{packetNumber: pn, timeSent: now}
}

func (op *outgoingPacket) addFrame(f frame) {
	op.frames = append(op.frames, f)
	if isFrameAckEliciting(f.frameType()) {
		op.ackEliciting = true
	}
	if f.frameType() != frameTypeAck {
		op.inFlight = true
	}
}

// packetNumberSpace is an independent packet-number domain: Initial,
// Handshake, or Application (spec GLOSSARY "Packet-number space").
type packetNumberSpace struct {
	opener aeadContext
	sealer aeadContext
	keysSet bool
	dropped bool

	nextPacketNumber uint64
	largestAcked     uint64
	hasLargestAcked  bool
	largestRecv      uint64
	hasLargestRecv   bool

	largestRecvPacketTime time.Time

	receivedPacketNumbers rangeSet // every pn ever received, for dup checks
	recvPacketNeedAck     rangeSet // ranges not yet acked
	ackElicited           bool
	firstPacketAcked      bool

	cryptoStream Stream
}

func (s *packetNumberSpace) init() {
	s.cryptoStream.initCrypto()
}

func (s *packetNumberSpace) reset() {
	s.nextPacketNumber = 0
	s.hasLargestAcked = false
	s.hasLargestRecv = false
	s.receivedPacketNumbers = nil
	s.recvPacketNeedAck = nil
	s.ackElicited = false
	s.firstPacketAcked = false
	s.cryptoStream.initCrypto()
}

func (s *packetNumberSpace) drop() {
	s.dropped = true
}

func (s *packetNumberSpace) canEncrypt() bool { return s.keysSet && !s.dropped }
func (s *packetNumberSpace) canDecrypt() bool { return s.keysSet && !s.dropped }

func (s *packetNumberSpace) ready() bool {
	if s.dropped {
		return false
	}
	if s.ackElicited {
		return true
	}
	return s.cryptoStream.send.hasPending()
}

func (s *packetNumberSpace) isPacketReceived(pn uint64) bool {
	return s.receivedPacketNumbers.contains(pn)
}

func (s *packetNumberSpace) onPacketReceived(pn uint64, now time.Time) {
	s.receivedPacketNumbers.insert(pn)
	s.recvPacketNeedAck.insert(pn)
	if !s.hasLargestRecv || pn > s.largestRecv {
		s.largestRecv = pn
		s.hasLargestRecv = true
		s.largestRecvPacketTime = now
	}
}

// encryptPacket applies header protection and AEAD-seals the payload that
// Conn.send has already written into b[payloadOffset:].
func (s *packetNumberSpace) encryptPacket(b []byte, p *packet) {
	pnOffset := p.headerLen
	pnLen := p.packetNumberLenForEncode()
	payloadStart := pnOffset + pnLen
	overhead := s.sealer.overhead()
	plainLen := len(b) - payloadStart - overhead
	ad := b[:payloadStart]
	sealed := s.sealer.seal(b[:payloadStart], b[payloadStart:payloadStart+plainLen], ad, p.packetNumber)
	copy(b[payloadStart:], sealed[payloadStart:])

	sampleOffset := pnOffset + 4
	if sampleOffset+aeadSampleLen > len(b) {
		sampleOffset = len(b) - aeadSampleLen
	}
	mask := s.sealer.headerProtectionMask(b[sampleOffset : sampleOffset+aeadSampleLen])
	if p.typ == packetTypeShort {
		b[0] ^= mask[0] & 0x1f
	} else {
		b[0] ^= mask[0] & 0x0f
	}
	for i := 0; i < pnLen; i++ {
		b[pnOffset+i] ^= mask[1+i]
	}
}

// decryptPacket removes header protection, recovers the full packet number,
// and AEAD-opens the payload. It returns the decrypted payload and the
// number of bytes of b this packet consumed.
func (s *packetNumberSpace) decryptPacket(b []byte, p *packet) ([]byte, int, error) {
	pnOffset := p.headerLen
	totalLen := len(b)
	if p.typ != packetTypeShort {
		totalLen = pnOffset + p.payloadLen
		if totalLen > len(b) {
			return nil, 0, newError(ProtocolViolation, "packet length")
		}
	}
	sampleOffset := pnOffset + 4
	if sampleOffset+aeadSampleLen > len(b) {
		return nil, 0, newError(ProtocolViolation, "packet too short for sampling")
	}
	mask := s.opener.headerProtectionMask(b[sampleOffset : sampleOffset+aeadSampleLen])
	var firstMask byte
	if p.typ == packetTypeShort {
		firstMask = 0x1f
	} else {
		firstMask = 0x0f
	}
	b[0] ^= mask[0] & firstMask
	pnLen := int(b[0]&0x03) + 1
	for i := 0; i < pnLen; i++ {
		b[pnOffset+i] ^= mask[1+i]
	}
	truncated := getPacketNumber(b[pnOffset:pnOffset+pnLen], pnLen)
	p.packetNumber = decodePacketNumber(s.largestRecv, truncated, pnLen)
	p.packetNumberLen = pnLen

	payloadStart := pnOffset + pnLen
	if p.typ == packetTypeShort {
		totalLen = len(b)
	}
	if payloadStart > totalLen {
		return nil, 0, newError(ProtocolViolation, "packet length")
	}
	ad := b[:payloadStart]
	payload, err := s.opener.open(b[:0:payloadStart], b[payloadStart:totalLen], ad, p.packetNumber)
	if err != nil {
		return nil, 0, newError(ProtocolViolation, "aead open failed")
	}
	return payload, totalLen, nil
}

// decodePacketNumber reconstructs the full packet number from its truncated
// wire form, per RFC 9000 Appendix A.
func decodePacketNumber(largestRecv, truncated uint64, pnLen int) uint64 {
	pnNbits := uint(pnLen * 8)
	expected := largestRecv + 1
	win := uint64(1) << pnNbits
	hwin := win / 2
	candidate := (expected &^ (win - 1)) | truncated
	switch {
	case candidate <= expected-hwin && candidate < (uint64(1)<<62)-win:
		return candidate + win
	case candidate > expected+hwin && candidate >= win:
		return candidate - win
	default:
		return candidate
	}
}

