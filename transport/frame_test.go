package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testFrameRoundTrip(t *testing.T, f frame, decoded frame) {
	t.Helper()
	buf := make([]byte, f.encodedLen())
	n, err := f.encode(buf)
	assert.NoError(t, err)
	assert.Equal(t, f.encodedLen(), n)

	n2, err := decoded.decode(buf)
	assert.NoError(t, err)
	assert.Equal(t, n, n2)
	assert.Equal(t, f, decoded)
}

func TestResetStreamFrameRoundTrip(t *testing.T) {
	testFrameRoundTrip(t, newResetStreamFrame(4, 1, 100), &resetStreamFrame{})
}

func TestStopSendingFrameRoundTrip(t *testing.T) {
	testFrameRoundTrip(t, newStopSendingFrame(4, 2), &stopSendingFrame{})
}

func TestCryptoFrameRoundTrip(t *testing.T) {
	testFrameRoundTrip(t, newCryptoFrame([]byte("clienthello"), 10), &cryptoFrame{})
}

func TestStreamFrameRoundTrip(t *testing.T) {
	testFrameRoundTrip(t, newStreamFrame(8, []byte("payload"), 5, true), &streamFrame{})
}

func TestMaxDataFrameRoundTrip(t *testing.T) {
	testFrameRoundTrip(t, newMaxDataFrame(1000), &maxDataFrame{})
}

func TestMaxStreamsFrameRoundTrip(t *testing.T) {
	testFrameRoundTrip(t, newMaxStreamsFrame(10, true), &maxStreamsFrame{})
}

func TestAckFrameToRangeSet(t *testing.T) {
	var received rangeSet
	received.insertRange(2, 5)
	received.insertRange(8, 10)

	f := newAckFrame(0, received)
	rs := f.toRangeSet()
	assert.Equal(t, received, rs)
}

func TestAckFrameToRangeSetMalformed(t *testing.T) {
	f := &ackFrame{largestAck: 5, firstAckRange: 10}
	assert.Nil(t, f.toRangeSet())
}

func TestIsFrameAckEliciting(t *testing.T) {
	assert.True(t, isFrameAckEliciting(frameTypePing))
	assert.True(t, isFrameAckEliciting(frameTypeStream))
	assert.False(t, isFrameAckEliciting(frameTypeAck))
	assert.False(t, isFrameAckEliciting(frameTypePadding))
}

func TestEncodeFrames(t *testing.T) {
	frames := []frame{&pingFrame{}, newMaxDataFrame(42)}
	n := 0
	for _, f := range frames {
		n += f.encodedLen()
	}
	buf := make([]byte, n)
	written, err := encodeFrames(buf, frames)
	assert.NoError(t, err)
	assert.Equal(t, n, written)
}
