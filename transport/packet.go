package transport

import (
	"crypto/rand"
	"encoding/binary"
)

// packetType identifies the long-header packet type, or the short header.
type packetType uint8

// Packet types (draft-11 §17).
const (
	packetTypeInitial packetType = iota
	packetTypeZeroRTT
	packetTypeHandshake
	packetTypeRetry
	packetTypeVersionNegotiation
	packetTypeShort
)

func (t packetType) String() string {
	switch t {
	case packetTypeInitial:
		return "initial"
	case packetTypeZeroRTT:
		return "0rtt"
	case packetTypeHandshake:
		return "handshake"
	case packetTypeRetry:
		return "retry"
	case packetTypeVersionNegotiation:
		return "version_negotiation"
	case packetTypeShort:
		return "1rtt"
	default:
		return "unknown"
	}
}

// packetSpace is a packet-number space: each has its own numbering domain,
// key material, and sent/received bookkeeping (spec GLOSSARY).
type packetSpace int

const (
	packetSpaceInitial packetSpace = iota
	packetSpaceHandshake
	packetSpaceApplication
	packetSpaceCount
)

func (s packetSpace) String() string {
	switch s {
	case packetSpaceInitial:
		return "initial"
	case packetSpaceHandshake:
		return "handshake"
	case packetSpaceApplication:
		return "application"
	default:
		return "unknown"
	}
}

func packetTypeFromSpace(s packetSpace) packetType {
	switch s {
	case packetSpaceInitial:
		return packetTypeInitial
	case packetSpaceHandshake:
		return packetTypeHandshake
	default:
		return packetTypeShort
	}
}

// long-header form bit and fixed bit, draft-11 §17.2.
const (
	headerFormLong  = 0x80
	headerFixedBit  = 0x40
	headerTypeMask  = 0x30
	headerTypeShift = 4
)

// packetHeader holds the parsed invariant + long/short header fields.
type packetHeader struct {
	version uint32
	dcid    []byte
	scid    []byte
	dcil    uint8 // expected dcid length for short-header packets (= local scid length)
}

// packet is a single QUIC packet, either being parsed from or encoded into a
// wire buffer.
type packet struct {
	typ               packetType
	header            packetHeader
	token             []byte
	supportedVersions []uint32
	packetNumber      uint64
	packetNumberLen   int
	payloadLen        int // length field value (long header) incl. pn+payload
	headerLen         int // bytes consumed by the header incl. length field
}

func (p *packet) String() string {
	return sprint(p.typ.String(), " dcid=", p.header.dcid, " scid=", p.header.scid, " pn=", p.packetNumber)
}

// decodeHeader parses the invariant header shared by every packet type,
// followed by the long or short header as appropriate. It does not decrypt
// the packet number, which requires header-protection removal first.
func (p *packet) decodeHeader(b []byte) (int, error) {
	if len(b) < 1 {
		return 0, newError(ProtocolViolation, "short packet")
	}
	first := b[0]
	if first&headerFormLong != 0 {
		return p.decodeLongHeader(b)
	}
	return p.decodeShortHeader(b)
}

func (p *packet) decodeLongHeader(b []byte) (int, error) {
	if len(b) < 6 {
		return 0, newError(ProtocolViolation, "short long header")
	}
	first := b[0]
	off := 1
	version := binary.BigEndian.Uint32(b[off:])
	off += 4
	p.header.version = version
	if version == 0 {
		p.typ = packetTypeVersionNegotiation
	}
	dcil := int(b[off])
	off++
	if off+dcil > len(b) {
		return 0, newError(ProtocolViolation, "dcid truncated")
	}
	p.header.dcid = b[off : off+dcil]
	off += dcil
	if off >= len(b) {
		return 0, newError(ProtocolViolation, "scid truncated")
	}
	scil := int(b[off])
	off++
	if off+scil > len(b) {
		return 0, newError(ProtocolViolation, "scid truncated")
	}
	p.header.scid = b[off : off+scil]
	off += scil

	if p.typ == packetTypeVersionNegotiation {
		p.headerLen = off
		return off, nil
	}
	if !versionSupported(version) {
		// Caller (Endpoint) replies with Version Negotiation; nothing more
		// to parse from a version we don't understand.
		p.headerLen = off
		return off, nil
	}
	typeBits := (first & headerTypeMask) >> headerTypeShift
	switch typeBits {
	case 0:
		p.typ = packetTypeInitial
		var tokenLen uint64
		n := getVarint(b[off:], &tokenLen)
		if n == 0 {
			return 0, newError(ProtocolViolation, "token length")
		}
		off += n
		if off+int(tokenLen) > len(b) {
			return 0, newError(ProtocolViolation, "token truncated")
		}
		p.token = b[off : off+int(tokenLen)]
		off += int(tokenLen)
	case 1:
		p.typ = packetTypeZeroRTT
	case 2:
		p.typ = packetTypeHandshake
	case 3:
		p.typ = packetTypeRetry
		// Retry token runs to len(b)-16 (integrity tag); caller handles it.
		p.token = b[off : len(b)-16]
		p.headerLen = len(b)
		return len(b), nil
	}
	var length uint64
	n := getVarint(b[off:], &length)
	if n == 0 {
		return 0, newError(ProtocolViolation, "length")
	}
	off += n
	p.payloadLen = int(length)
	p.headerLen = off
	return off, nil
}

func (p *packet) decodeShortHeader(b []byte) (int, error) {
	p.typ = packetTypeShort
	dcil := int(p.header.dcil)
	if len(b) < 1+dcil {
		return 0, newError(ProtocolViolation, "short header truncated")
	}
	p.header.dcid = b[1 : 1+dcil]
	p.headerLen = 1 + dcil
	return p.headerLen, nil
}

// decodeBody parses the remainder of a Version Negotiation or Retry packet's
// body (supported versions list, or nothing further for Retry since its
// token/tag are captured by decodeHeader).
func (p *packet) decodeBody(b []byte) (int, error) {
	switch p.typ {
	case packetTypeVersionNegotiation:
		body := b[p.headerLen:]
		if len(body)%4 != 0 {
			return 0, newError(ProtocolViolation, "version list")
		}
		p.supportedVersions = make([]uint32, 0, len(body)/4)
		for i := 0; i+4 <= len(body); i += 4 {
			p.supportedVersions = append(p.supportedVersions, binary.BigEndian.Uint32(body[i:]))
		}
		return len(body), nil
	case packetTypeRetry:
		return 0, nil
	default:
		return 0, nil
	}
}

// encodedLen returns the number of header bytes p.encode will write, not
// including the AEAD overhead (payloadLen as currently set is assumed to
// already include it when called from Conn.send).
func (p *packet) encodedLen() int {
	switch p.typ {
	case packetTypeShort:
		return 1 + len(p.header.dcid) + p.packetNumberLenForEncode()
	default:
		n := 1 + 4 + 1 + len(p.header.dcid) + 1 + len(p.header.scid)
		if p.typ == packetTypeInitial {
			n += varintLen(uint64(len(p.token))) + len(p.token)
		}
		n += varintLen(uint64(p.payloadLen + p.packetNumberLenForEncode()))
		n += p.packetNumberLenForEncode()
		return n
	}
}

func (p *packet) packetNumberLenForEncode() int {
	if p.packetNumberLen == 0 {
		return packetNumberLenFor(p.packetNumber)
	}
	return p.packetNumberLen
}

// packetNumberLenFor picks the shortest encoding per RFC 9000 §17.1, using
// the packet number's own magnitude as a lower bound (the real algorithm
// compares against the largest acknowledged packet number; callers with that
// context may override via packetNumberLen).
func packetNumberLenFor(pn uint64) int {
	switch {
	case pn < 1<<8:
		return 1
	case pn < 1<<16:
		return 2
	case pn < 1<<24:
		return 3
	default:
		return 4
	}
}

// encode writes the (unprotected, unencrypted) header into b and returns the
// offset at which the payload begins.
func (p *packet) encode(b []byte) (int, error) {
	off := 0
	pnLen := p.packetNumberLenForEncode()
	switch p.typ {
	case packetTypeShort:
		if len(b) < 1+len(p.header.dcid)+pnLen {
			return 0, errShortBuffer
		}
		b[off] = headerFixedBit | byte(pnLen-1)
		off++
		off += copy(b[off:], p.header.dcid)
	default:
		first := byte(headerFormLong | headerFixedBit)
		switch p.typ {
		case packetTypeInitial:
			first |= 0 << headerTypeShift
		case packetTypeZeroRTT:
			first |= 1 << headerTypeShift
		case packetTypeHandshake:
			first |= 2 << headerTypeShift
		case packetTypeRetry:
			first |= 3 << headerTypeShift
		}
		first |= byte(pnLen - 1)
		if len(b) < p.encodedLen() {
			return 0, errShortBuffer
		}
		b[off] = first
		off++
		binary.BigEndian.PutUint32(b[off:], p.header.version)
		off += 4
		b[off] = byte(len(p.header.dcid))
		off++
		off += copy(b[off:], p.header.dcid)
		b[off] = byte(len(p.header.scid))
		off++
		off += copy(b[off:], p.header.scid)
		if p.typ == packetTypeInitial {
			off += putVarint(b[off:], uint64(len(p.token)))
			off += copy(b[off:], p.token)
		}
		off += putVarint(b[off:], uint64(p.payloadLen+pnLen))
	}
	p.headerLen = off
	putPacketNumber(b[off:off+pnLen], p.packetNumber, pnLen)
	off += pnLen
	return off, nil
}

func putPacketNumber(b []byte, pn uint64, length int) {
	for i := 0; i < length; i++ {
		b[length-1-i] = byte(pn >> (8 * i))
	}
}

func getPacketNumber(b []byte, length int) uint64 {
	var pn uint64
	for i := 0; i < length; i++ {
		pn = pn<<8 | uint64(b[i])
	}
	return pn
}

// DestinationCID extracts the destination connection ID from a received
// packet without fully parsing it, letting a driver demux inbound datagrams
// to the right Conn before handing them to Write. localCIDLen is the length
// this endpoint assigns its own connection IDs (used to bound short-header
// parsing, which carries no explicit length field).
func DestinationCID(b []byte, localCIDLen int) ([]byte, bool) {
	p := packet{header: packetHeader{dcil: uint8(localCIDLen)}}
	_, err := p.decodeHeader(b)
	if err != nil {
		return nil, false
	}
	return p.header.dcid, true
}

// versionSupported reports whether v is a version this engine can speak.
func versionSupported(v uint32) bool {
	return v == ProtocolVersion
}

// encodeVersionNegotiation builds a Version Negotiation reply echoing dcid
// and scid from the triggering datagram (swapped, per draft-11 §17.2.1) and
// listing versions (spec §4.1 step 1, §8 scenario 2).
func encodeVersionNegotiation(dcid, scid []byte, versions []uint32) []byte {
	b := make([]byte, 1+4+1+len(dcid)+1+len(scid)+4*len(versions))
	off := 0
	var first [1]byte
	rand.Read(first[:])
	b[off] = first[0] | headerFormLong
	off++
	binary.BigEndian.PutUint32(b[off:], 0) // version 0 marks Version Negotiation
	off += 4
	b[off] = byte(len(dcid))
	off++
	off += copy(b[off:], dcid)
	b[off] = byte(len(scid))
	off++
	off += copy(b[off:], scid)
	for _, v := range versions {
		binary.BigEndian.PutUint32(b[off:], v)
		off += 4
	}
	return b[:off]
}

// encodeStatelessReset builds a stateless reset datagram: random padding
// sized so the result is indistinguishable from a short-header packet,
// followed by the 16-byte token (spec §4.1 step 3, §8 scenario 6). datagramLen
// is the length of the datagram that triggered the reset.
func encodeStatelessReset(token [ResetTokenSize]byte, datagramLen int) ([]byte, error) {
	bound := datagramLen
	if bound < ResetTokenSize+8 {
		bound = ResetTokenSize + 8
	}
	maxPadding := bound - ResetTokenSize
	var padLenBytes [4]byte
	if _, err := rand.Read(padLenBytes[:]); err != nil {
		return nil, err
	}
	padLen := int(binary.BigEndian.Uint32(padLenBytes[:]) % uint32(maxPadding))
	b := make([]byte, padLen+ResetTokenSize)
	if _, err := rand.Read(b[:padLen]); err != nil {
		return nil, err
	}
	if padLen > 0 {
		b[0] = (b[0] &^ headerFormLong) | headerFixedBit
	}
	copy(b[padLen:], token[:])
	return b, nil
}

// newRandomCID returns a fresh random connection ID of length n bytes.
func newRandomCID(n int) ([]byte, error) {
	cid := make([]byte, n)
	if _, err := rand.Read(cid); err != nil {
		return nil, err
	}
	return cid, nil
}
