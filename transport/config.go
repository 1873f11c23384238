package transport

import "time"

// Protocol constants (draft-11).
const (
	// ProtocolVersion is the QUIC version this engine speaks.
	ProtocolVersion uint32 = 0xff00000b
	// versionReserved is listed in Version Negotiation packets to encourage
	// greasing, per https://quicwg.org/base-drafts/draft-ietf-quic-transport.html#version-negotiation
	versionReserved uint32 = 0x0a1a2a3a

	// ALPNQuic is the application-layer protocol negotiation value for
	// HTTP-over-QUIC on this version.
	ALPNQuic = "hq-11"

	// MinInitialPacketSize is the minimum UDP datagram size carrying an
	// Initial packet.
	MinInitialPacketSize = 1200
	// MaxPacketSize is the largest packet this engine will ever build.
	MaxPacketSize = 1452

	// ResetTokenSize is the length in bytes of a stateless reset token.
	ResetTokenSize = 16
	// MinCIDLength and MaxCIDLength bound peer-chosen connection ID length.
	MinCIDLength = 4
	MaxCIDLength = 18
	// LocalCIDLength is the fixed length of CIDs this engine generates.
	LocalCIDLength = 8

	minPayloadLength      = 4 // smallest encrypted payload worth sending
	maxCryptoFrameOverhead = 16
	maxStreamFrameOverhead = 24
)

// Config holds shared, immutable per-endpoint configuration (spec §6).
type Config struct {
	Version uint32
	Params  Parameters

	// TLS is the opaque handshake session factory; see handshake.go.
	TLS *TLSConfig

	// Recovery/congestion tuning (spec §6 table). NewConfig sets these to
	// their defaults. Loss recovery does not read them: lossRecovery uses the
	// fixed constants in recovery.go.
	MaxTLPs                bool
	MaxTLPCount            int
	ReorderingThreshold    uint64
	TimeReorderingFraction uint64
	UsingTimeLossDetection bool
	MinTLPTimeout          time.Duration
	MinRTOTimeout          time.Duration
	DelayedAckTimeout      time.Duration
	DefaultInitialRTT      time.Duration
	MaxDatagramSize        uint64
	InitialWindow          uint64
	MinimumWindow          uint64
	LossReductionFactor    uint64

	// AcceptBuffer caps half-open server handshakes (spec §5 backpressure).
	AcceptBuffer int

	// ListenKeys is required for servers; nil for client-only endpoints.
	ListenKeys *ListenKeys
}

// NewConfig returns a Config populated with spec §6's documented defaults.
func NewConfig() *Config {
	return &Config{
		Version: ProtocolVersion,
		Params: Parameters{
			MaxIdleTimeout:                 10 * time.Second,
			InitialMaxData:                 defaultStreamReceiveWindow * 8,
			InitialMaxStreamDataBidiLocal:  defaultStreamReceiveWindow,
			InitialMaxStreamDataBidiRemote: defaultStreamReceiveWindow,
			InitialMaxStreamDataUni:        defaultStreamReceiveWindow,
			InitialMaxStreamsBidi:          0,
			InitialMaxStreamsUni:           0,
			AckDelayExponent:               3,
			MaxAckDelay:                    25 * time.Millisecond,
			MaxUDPPayloadSize:              MaxPacketSize,
		},
		MaxTLPCount:            2,
		ReorderingThreshold:    3,
		TimeReorderingFraction: 0x2000,
		UsingTimeLossDetection: false,
		MinTLPTimeout:          10 * time.Millisecond,
		MinRTOTimeout:          200 * time.Millisecond,
		DelayedAckTimeout:      25 * time.Millisecond,
		DefaultInitialRTT:      100 * time.Millisecond,
		MaxDatagramSize:        1460,
		InitialWindow:          10 * 1460,
		MinimumWindow:          2 * 1460,
		LossReductionFactor:    0x8000,
		AcceptBuffer:           1024,
	}
}

// defaultStreamReceiveWindow approximates EXPECTED_RTT*BW per spec §6; a
// fixed value keeps Config deterministic without a bandwidth estimator.
const defaultStreamReceiveWindow = 1 << 20 // 1 MiB

// Parameters is the QUIC transport parameters table (spec §6), carried as a
// TLS extension during the handshake and validated on receipt.
type Parameters struct {
	OriginalDestinationCID []byte
	InitialSourceCID       []byte
	RetrySourceCID         []byte
	StatelessResetToken    []byte

	MaxIdleTimeout                 time.Duration
	MaxUDPPayloadSize              uint64
	InitialMaxData                 uint64
	InitialMaxStreamDataBidiLocal  uint64
	InitialMaxStreamDataBidiRemote uint64
	InitialMaxStreamDataUni        uint64
	InitialMaxStreamsBidi          uint64
	InitialMaxStreamsUni           uint64
	AckDelayExponent               uint64
	MaxAckDelay                    time.Duration
	DisableActiveMigration         bool
}

// protocol maxima (spec §7 TRANSPORT_PARAMETER_ERROR on violation).
const (
	maxAckDelayExponentValue = 20
	maxAckDelayValue         = (1 << 14) * time.Millisecond
	maxIdleTimeoutValue      = 600 * time.Second
)

func (p *Parameters) validate() error {
	if p.AckDelayExponent > maxAckDelayExponentValue {
		return newError(TransportParameterError, "ack_delay_exponent")
	}
	if p.MaxAckDelay > maxAckDelayValue {
		return newError(TransportParameterError, "max_ack_delay")
	}
	if p.MaxIdleTimeout > maxIdleTimeoutValue {
		return newError(TransportParameterError, "max_idle_timeout")
	}
	if len(p.StatelessResetToken) != 0 && len(p.StatelessResetToken) != ResetTokenSize {
		return newError(TransportParameterError, "stateless_reset_token")
	}
	return nil
}

// ListenKeys are server-only secrets persisted across restarts (spec §6).
// Losing them breaks backward compatibility for stateless reset.
type ListenKeys struct {
	Cookie [64]byte
	Reset  [64]byte
}
