package transport

import "time"

// Transport parameter identifiers (draft-11 §18.1). Carried inside the TLS
// quic_transport_parameters extension, never on the wire as QUIC frames.
const (
	paramOriginalDestinationConnectionID = 0x00
	paramMaxIdleTimeout                  = 0x01
	paramStatelessResetToken             = 0x02
	paramMaxUDPPayloadSize               = 0x03
	paramInitialMaxData                  = 0x04
	paramInitialMaxStreamDataBidiLocal   = 0x05
	paramInitialMaxStreamDataBidiRemote  = 0x06
	paramInitialMaxStreamDataUni         = 0x07
	paramInitialMaxStreamsBidi           = 0x08
	paramInitialMaxStreamsUni            = 0x09
	paramAckDelayExponent                = 0x0a
	paramMaxAckDelay                     = 0x0b
	paramDisableActiveMigration          = 0x0c
	paramInitialSourceConnectionID       = 0x0f
	paramRetrySourceConnectionID         = 0x10
)

// encodeTransportParameters serializes p as a sequence of
// (identifier, length, value) varint-prefixed entries.
func encodeTransportParameters(p *Parameters) []byte {
	var b []byte
	b = appendTransportParamBytes(b, paramOriginalDestinationConnectionID, p.OriginalDestinationCID)
	b = appendTransportParamBytes(b, paramInitialSourceConnectionID, p.InitialSourceCID)
	b = appendTransportParamBytes(b, paramRetrySourceConnectionID, p.RetrySourceCID)
	b = appendTransportParamBytes(b, paramStatelessResetToken, p.StatelessResetToken)
	if p.MaxIdleTimeout != 0 {
		b = appendTransportParamVarint(b, paramMaxIdleTimeout, uint64(p.MaxIdleTimeout/time.Millisecond))
	}
	b = appendTransportParamVarint(b, paramMaxUDPPayloadSize, p.MaxUDPPayloadSize)
	b = appendTransportParamVarint(b, paramInitialMaxData, p.InitialMaxData)
	b = appendTransportParamVarint(b, paramInitialMaxStreamDataBidiLocal, p.InitialMaxStreamDataBidiLocal)
	b = appendTransportParamVarint(b, paramInitialMaxStreamDataBidiRemote, p.InitialMaxStreamDataBidiRemote)
	b = appendTransportParamVarint(b, paramInitialMaxStreamDataUni, p.InitialMaxStreamDataUni)
	b = appendTransportParamVarint(b, paramInitialMaxStreamsBidi, p.InitialMaxStreamsBidi)
	b = appendTransportParamVarint(b, paramInitialMaxStreamsUni, p.InitialMaxStreamsUni)
	if p.AckDelayExponent != 0 {
		b = appendTransportParamVarint(b, paramAckDelayExponent, p.AckDelayExponent)
	}
	if p.MaxAckDelay != 0 {
		b = appendTransportParamVarint(b, paramMaxAckDelay, uint64(p.MaxAckDelay/time.Millisecond))
	}
	if p.DisableActiveMigration {
		b = appendTransportParamBytes(b, paramDisableActiveMigration, []byte{})
	}
	return b
}

func appendTransportParamVarint(b []byte, id uint64, v uint64) []byte {
	b = appendVarint(b, id)
	b = appendVarint(b, uint64(varintLen(v)))
	return appendVarint(b, v)
}

func appendTransportParamBytes(b []byte, id uint64, v []byte) []byte {
	if v == nil {
		return b
	}
	b = appendVarint(b, id)
	b = appendVarint(b, uint64(len(v)))
	return append(b, v...)
}

// decodeTransportParameters parses the wire form produced by
// encodeTransportParameters, applying the protocol maxima from validate.
func decodeTransportParameters(b []byte) (*Parameters, error) {
	p := &Parameters{}
	off := 0
	for off < len(b) {
		var id, length uint64
		n := getVarint(b[off:], &id)
		if n == 0 {
			return nil, newError(TransportParameterError, "param id")
		}
		off += n
		n = getVarint(b[off:], &length)
		if n == 0 {
			return nil, newError(TransportParameterError, "param length")
		}
		off += n
		if off+int(length) > len(b) {
			return nil, newError(TransportParameterError, "param value truncated")
		}
		val := b[off : off+int(length)]
		off += int(length)

		switch id {
		case paramOriginalDestinationConnectionID:
			p.OriginalDestinationCID = val
		case paramInitialSourceConnectionID:
			p.InitialSourceCID = val
		case paramRetrySourceConnectionID:
			p.RetrySourceCID = val
		case paramStatelessResetToken:
			p.StatelessResetToken = val
		case paramMaxIdleTimeout:
			v, err := decodeParamVarint(val)
			if err != nil {
				return nil, err
			}
			p.MaxIdleTimeout = time.Duration(v) * time.Millisecond
		case paramMaxUDPPayloadSize:
			v, err := decodeParamVarint(val)
			if err != nil {
				return nil, err
			}
			p.MaxUDPPayloadSize = v
		case paramInitialMaxData:
			v, err := decodeParamVarint(val)
			if err != nil {
				return nil, err
			}
			p.InitialMaxData = v
		case paramInitialMaxStreamDataBidiLocal:
			v, err := decodeParamVarint(val)
			if err != nil {
				return nil, err
			}
			p.InitialMaxStreamDataBidiLocal = v
		case paramInitialMaxStreamDataBidiRemote:
			v, err := decodeParamVarint(val)
			if err != nil {
				return nil, err
			}
			p.InitialMaxStreamDataBidiRemote = v
		case paramInitialMaxStreamDataUni:
			v, err := decodeParamVarint(val)
			if err != nil {
				return nil, err
			}
			p.InitialMaxStreamDataUni = v
		case paramInitialMaxStreamsBidi:
			v, err := decodeParamVarint(val)
			if err != nil {
				return nil, err
			}
			p.InitialMaxStreamsBidi = v
		case paramInitialMaxStreamsUni:
			v, err := decodeParamVarint(val)
			if err != nil {
				return nil, err
			}
			p.InitialMaxStreamsUni = v
		case paramAckDelayExponent:
			v, err := decodeParamVarint(val)
			if err != nil {
				return nil, err
			}
			p.AckDelayExponent = v
		case paramMaxAckDelay:
			v, err := decodeParamVarint(val)
			if err != nil {
				return nil, err
			}
			p.MaxAckDelay = time.Duration(v) * time.Millisecond
		case paramDisableActiveMigration:
			p.DisableActiveMigration = true
		default:
			// Unknown parameters are ignored per draft-11 §18.1.
		}
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeParamVarint(b []byte) (uint64, error) {
	var v uint64
	n := getVarint(b, &v)
	if n != len(b) {
		return 0, newError(TransportParameterError, "malformed varint param")
	}
	return v, nil
}
