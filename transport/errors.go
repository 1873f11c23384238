package transport

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// TransportError is a QUIC transport-level error code.
// https://quicwg.org/base-drafts/draft-ietf-quic-transport.html#error-codes
type TransportError uint64

// Transport error codes.
const (
	NoError TransportError = iota
	InternalError
	ServerBusy
	FlowControlError
	StreamIDError
	StreamStateError
	FinalOffsetError
	FrameEncodingError
	TransportParameterError
	VersionNegotiationError
	ProtocolViolation
	cryptoErrorBase TransportError = 0x100
)

// TLSHandshakeFailed is an alias used when the opaque TLS session reports a
// generic handshake failure without an alert number attached.
const TLSHandshakeFailed = cryptoErrorBase

func errorCodeString(code uint64) string {
	switch TransportError(code) {
	case NoError:
		return "no_error"
	case InternalError:
		return "internal_error"
	case ServerBusy:
		return "server_busy"
	case FlowControlError:
		return "flow_control_error"
	case StreamIDError:
		return "stream_id_error"
	case StreamStateError:
		return "stream_state_error"
	case FinalOffsetError:
		return "final_size_error"
	case FrameEncodingError:
		return "frame_encoding_error"
	case TransportParameterError:
		return "transport_parameter_error"
	case VersionNegotiationError:
		return "version_negotiation_error"
	case ProtocolViolation:
		return "protocol_violation"
	}
	if code >= uint64(cryptoErrorBase) && code < uint64(cryptoErrorBase)+256 {
		return fmt.Sprintf("crypto_error_%d", code-uint64(cryptoErrorBase))
	}
	return fmt.Sprintf("error_%d", code)
}

// quicError is the internal error type that carries a transport error code.
// It is what newError produces. Conn.Write returns it to its caller and
// Endpoint.Handle then drops the rest of that datagram; the connection is not
// closed and no CONNECTION_CLOSE is queued because of it.
type quicError struct {
	code   TransportError
	reason string
}

func (e *quicError) Error() string {
	if e.reason == "" {
		return errorCodeString(uint64(e.code))
	}
	return errorCodeString(uint64(e.code)) + ": " + e.reason
}

func newError(code TransportError, reason string) error {
	return &quicError{code: code, reason: reason}
}

func sprint(args ...interface{}) string {
	return fmt.Sprint(args...)
}

// transportErrorCode extracts the TransportError code from err, defaulting to
// InternalError for errors not originated by this package.
func transportErrorCode(err error) TransportError {
	if qe, ok := err.(*quicError); ok {
		return qe.code
	}
	return InternalError
}

var (
	errInvalidToken = newError(ProtocolViolation, "invalid retry token")
	errFlowControl  = newError(FlowControlError, "")
	errShortBuffer  = newError(InternalError, "short buffer")
)

// ConnectError is returned by Endpoint.Connect for setup-time failures that
// never reach the wire (bad server name, oversized CID, nil config, ...).
type ConnectError struct {
	cause error
}

func (e *ConnectError) Error() string { return "quic: connect: " + e.cause.Error() }
func (e *ConnectError) Unwrap() error { return e.cause }

func newConnectError(format string, args ...interface{}) error {
	return &ConnectError{cause: pkgerrors.Errorf(format, args...)}
}

// EndpointError reports Endpoint-level setup failures (listen key
// generation, invalid configuration).
type EndpointError struct {
	cause error
}

func (e *EndpointError) Error() string { return "quic: endpoint: " + e.cause.Error() }
func (e *EndpointError) Unwrap() error { return e.cause }

func wrapEndpointError(cause error, msg string) error {
	return &EndpointError{cause: pkgerrors.Wrap(cause, msg)}
}

// ApplicationClose is an application-level CONNECTION_CLOSE (type 1), either
// peer- or locally-originated.
type ApplicationClose struct {
	Code   uint64
	Reason string
}

func (e *ApplicationClose) Error() string {
	return fmt.Sprintf("quic: application close: code=%d reason=%s", e.Code, e.Reason)
}

// ConnectionErrorKind enumerates the reasons a connection was lost.
type ConnectionErrorKind int

// Connection-lost reasons, surfaced via ConnectionLost events.
const (
	TimedOut ConnectionErrorKind = iota
	Reset
	ConnTransportError
	ConnApplicationClose
	VersionMismatch
	LocallyClosed
)

// ConnectionError describes why a Connection is no longer usable.
type ConnectionError struct {
	Kind       ConnectionErrorKind
	Transport  TransportError
	AppCode    uint64
	AppReason  string
}

func (e *ConnectionError) Error() string {
	switch e.Kind {
	case TimedOut:
		return "quic: connection timed out"
	case Reset:
		return "quic: connection reset"
	case ConnTransportError:
		return "quic: transport error: " + errorCodeString(uint64(e.Transport))
	case ConnApplicationClose:
		return fmt.Sprintf("quic: application close: code=%d reason=%s", e.AppCode, e.AppReason)
	case VersionMismatch:
		return "quic: version mismatch"
	case LocallyClosed:
		return "quic: locally closed"
	}
	return "quic: connection error"
}

// ReadError is returned by Stream reads. Blocked is not fatal: the caller
// should retry once more data is available.
type ReadError int

// Read error kinds.
const (
	ReadErrorBlocked ReadError = iota
	ReadErrorFinished
	ReadErrorReset
)

func (e ReadError) Error() string {
	switch e {
	case ReadErrorBlocked:
		return "quic: stream read blocked"
	case ReadErrorFinished:
		return "quic: stream finished"
	case ReadErrorReset:
		return "quic: stream reset by peer"
	}
	return "quic: stream read error"
}

// streamResetError carries the peer's error code alongside ReadErrorReset.
type streamResetError struct {
	code uint64
}

func (e *streamResetError) Error() string {
	return fmt.Sprintf("quic: stream reset by peer: code=%d", e.code)
}
func (e *streamResetError) Is(target error) bool { return target == ReadErrorReset }

// WriteError is returned by Stream writes.
type WriteError int

// Write error kinds.
const (
	WriteErrorBlocked WriteError = iota
	WriteErrorStopped
)

func (e WriteError) Error() string {
	switch e {
	case WriteErrorBlocked:
		return "quic: stream write blocked"
	case WriteErrorStopped:
		return "quic: stream write stopped by peer"
	}
	return "quic: stream write error"
}

// streamStoppedError carries the peer's STOP_SENDING error code.
type streamStoppedError struct {
	code uint64
}

func (e *streamStoppedError) Error() string {
	return fmt.Sprintf("quic: stream stopped by peer: code=%d", e.code)
}
func (e *streamStoppedError) Is(target error) bool { return target == WriteErrorStopped }
