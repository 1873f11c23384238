package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransportParametersRoundTrip(t *testing.T) {
	p := &Parameters{
		OriginalDestinationCID:         []byte{1, 2, 3, 4},
		InitialSourceCID:               []byte{5, 6, 7, 8},
		MaxIdleTimeout:                 30 * time.Second,
		MaxUDPPayloadSize:              1452,
		InitialMaxData:                 1 << 20,
		InitialMaxStreamDataBidiLocal:  1 << 16,
		InitialMaxStreamDataBidiRemote: 1 << 16,
		InitialMaxStreamDataUni:        1 << 16,
		InitialMaxStreamsBidi:          100,
		InitialMaxStreamsUni:           100,
		AckDelayExponent:               3,
		MaxAckDelay:                    25 * time.Millisecond,
		DisableActiveMigration:         true,
	}

	b := encodeTransportParameters(p)
	got, err := decodeTransportParameters(b)
	assert.NoError(t, err)
	assert.Equal(t, p.OriginalDestinationCID, got.OriginalDestinationCID)
	assert.Equal(t, p.InitialSourceCID, got.InitialSourceCID)
	assert.Equal(t, p.MaxIdleTimeout, got.MaxIdleTimeout)
	assert.Equal(t, p.MaxUDPPayloadSize, got.MaxUDPPayloadSize)
	assert.Equal(t, p.InitialMaxData, got.InitialMaxData)
	assert.Equal(t, p.InitialMaxStreamDataBidiLocal, got.InitialMaxStreamDataBidiLocal)
	assert.Equal(t, p.InitialMaxStreamsBidi, got.InitialMaxStreamsBidi)
	assert.Equal(t, p.AckDelayExponent, got.AckDelayExponent)
	assert.Equal(t, p.MaxAckDelay, got.MaxAckDelay)
	assert.True(t, got.DisableActiveMigration)
}

func TestTransportParametersDefaults(t *testing.T) {
	p := &Parameters{}
	b := encodeTransportParameters(p)
	got, err := decodeTransportParameters(b)
	assert.NoError(t, err)
	assert.False(t, got.DisableActiveMigration)
	assert.Nil(t, got.OriginalDestinationCID)
}

func TestTransportParametersRejectsOversizedAckDelayExponent(t *testing.T) {
	p := &Parameters{AckDelayExponent: maxAckDelayExponentValue + 1}
	b := encodeTransportParameters(p)
	_, err := decodeTransportParameters(b)
	assert.Error(t, err)
}

func TestTransportParametersRejectsBadResetTokenLength(t *testing.T) {
	p := &Parameters{StatelessResetToken: []byte{1, 2, 3}}
	b := encodeTransportParameters(p)
	_, err := decodeTransportParameters(b)
	assert.Error(t, err)
}

func TestTransportParametersTruncated(t *testing.T) {
	_, err := decodeTransportParameters([]byte{0x04, 0x08, 0x01}) // claims 8 bytes, has 1
	assert.Error(t, err)
}
