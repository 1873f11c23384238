package transport

import (
	"context"
	"crypto/tls"
)

// TLSConfig configures the opaque TLS session (spec §1: "the core consumes
// an opaque TLS session object exposing handshake I/O and key export"; the
// record-layer crypto itself is out of scope). It embeds *tls.Config so
// driver code sets ServerName, InsecureSkipVerify, Certificates, Rand, Time
// exactly as it would for any Go TLS client/server.
type TLSConfig struct {
	*tls.Config
}

// tlsHandshake drives a crypto/tls QUICConn, which is the standard library's
// native integration point for external QUIC stacks (the same one quic-go and
// golang.org/x/net/internal/quic use) — there is no third-party alternative
// to wire here; see DESIGN.md.
type tlsHandshake struct {
	conn       *Conn
	tlsConfig  *TLSConfig
	quicConn   *tls.QUICConn
	started    bool
	complete   bool
	peerParams *Parameters
	alpn       string

	// pending write-levels that still have buffered CRYPTO data to emit,
	// tracked so writeSpace() can report which packet-number space should
	// carry the next flushed packet.
	pendingLevel [3]bool // indexed by packetSpace
}

func (h *tlsHandshake) init(c *Conn, cfg *TLSConfig) {
	h.conn = c
	h.tlsConfig = cfg
	if cfg == nil {
		return
	}
	qcfg := &tls.QUICConfig{TLSConfig: cfg.Config}
	if c.isClient {
		h.quicConn = tls.QUICClient(qcfg)
	} else {
		h.quicConn = tls.QUICServer(qcfg)
	}
}

func (h *tlsHandshake) reset() {
	if h.tlsConfig == nil {
		return
	}
	h.complete = false
	h.peerParams = nil
	h.pendingLevel = [3]bool{}
	h.init(h.conn, h.tlsConfig)
}

func (h *tlsHandshake) setTransportParams(p *Parameters) {
	if h.quicConn == nil {
		return
	}
	h.quicConn.SetTransportParameters(encodeTransportParameters(p))
}

// doHandshake starts the handshake on first call and drains any events the
// underlying QUICConn has queued (new secrets, handshake data to send, the
// peer's transport parameters, handshake completion).
func (h *tlsHandshake) doHandshake() error {
	if h.quicConn == nil {
		return newError(InternalError, "tls not configured")
	}
	if !h.started {
		h.started = true
		if err := h.quicConn.Start(context.Background()); err != nil {
			return newError(TLSHandshakeFailed, err.Error())
		}
	}
	for {
		ev := h.quicConn.NextEvent()
		switch ev.Kind {
		case tls.QUICNoEvent:
			return nil
		case tls.QUICWriteData:
			space := packetSpaceFromLevel(ev.Level)
			if err := h.conn.packetNumberSpaces[space].cryptoStream.send.push(ev.Data, h.conn.packetNumberSpaces[space].cryptoStream.send.writeOffset, false); err != nil {
				return err
			}
			h.pendingLevel[space] = true
		case tls.QUICTransportParameters:
			p, err := decodeTransportParameters(ev.Data)
			if err != nil {
				return err
			}
			h.peerParams = p
		case tls.QUICHandshakeDone:
			h.complete = true
			cs := h.quicConn.ConnectionState()
			h.alpn = cs.NegotiatedProtocol
		case tls.QUICSetReadSecret, tls.QUICSetWriteSecret:
			// The secrets are not installed: only the Initial keys, derived
			// from the connection ID in Conn.deriveInitialKeyMaterial, are
			// ever set, so Handshake and 1-RTT packets can be neither sealed
			// nor opened.
		case tls.QUICTransportParametersRequired:
			h.setTransportParams(&h.conn.localParams)
		default:
		}
	}
}

// HandshakeComplete reports whether the TLS handshake has finished and the
// peer's transport parameters have been received.
func (h *tlsHandshake) HandshakeComplete() bool {
	return h.complete && h.peerParams != nil
}

func (h *tlsHandshake) peerTransportParams() *Parameters {
	return h.peerParams
}

// writeSpace reports which packet-number space has handshake bytes pending.
func (h *tlsHandshake) writeSpace() packetSpace {
	for i := packetSpaceInitial; i < packetSpaceApplication; i++ {
		if h.pendingLevel[i] {
			return i
		}
	}
	return packetSpaceCount
}

// onCryptoDataReceived feeds peer handshake bytes into the QUICConn.
func (h *tlsHandshake) onCryptoDataReceived(space packetSpace, data []byte) error {
	if h.quicConn == nil {
		return newError(InternalError, "tls not configured")
	}
	if err := h.quicConn.HandleData(levelFromPacketSpace(space), data); err != nil {
		return newError(TLSHandshakeFailed, err.Error())
	}
	return h.doHandshake()
}

func packetSpaceFromLevel(level tls.QUICEncryptionLevel) packetSpace {
	switch level {
	case tls.QUICEncryptionLevelInitial:
		return packetSpaceInitial
	case tls.QUICEncryptionLevelHandshake:
		return packetSpaceHandshake
	default:
		return packetSpaceApplication
	}
}

func levelFromPacketSpace(space packetSpace) tls.QUICEncryptionLevel {
	switch space {
	case packetSpaceInitial:
		return tls.QUICEncryptionLevelInitial
	case packetSpaceHandshake:
		return tls.QUICEncryptionLevelHandshake
	default:
		return tls.QUICEncryptionLevelApplication
	}
}
