package transport

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsStreamLocal(t *testing.T) {
	assert.True(t, isStreamLocal(0, true))   // client bidi, client role
	assert.False(t, isStreamLocal(0, false)) // client bidi, server role
	assert.True(t, isStreamLocal(1, false))  // server bidi, server role
	assert.False(t, isStreamLocal(1, true))
}

func TestIsStreamBidi(t *testing.T) {
	assert.True(t, isStreamBidi(0))
	assert.True(t, isStreamBidi(1))
	assert.False(t, isStreamBidi(2))
	assert.False(t, isStreamBidi(3))
}

func TestSendBufferPushPop(t *testing.T) {
	var b sendBuffer
	err := b.push([]byte("hello"), 0, false)
	assert.NoError(t, err)
	assert.True(t, b.hasPending())

	data, offset, fin := b.pop(3)
	assert.Equal(t, []byte("hel"), data)
	assert.EqualValues(t, 0, offset)
	assert.False(t, fin)

	data, offset, fin = b.pop(10)
	assert.Equal(t, []byte("lo"), data)
	assert.EqualValues(t, 3, offset)
	assert.False(t, fin)
	assert.False(t, b.hasPending())
}

func TestSendBufferFin(t *testing.T) {
	var b sendBuffer
	assert.NoError(t, b.push([]byte("hi"), 0, true))
	data, offset, fin := b.pop(10)
	assert.Equal(t, []byte("hi"), data)
	assert.EqualValues(t, 0, offset)
	assert.True(t, fin)
	assert.False(t, b.complete()) // not acked yet

	b.ack(0, 2)
	assert.True(t, b.complete())
}

func TestSendBufferOutOfOrder(t *testing.T) {
	var b sendBuffer
	err := b.push([]byte("x"), 5, false)
	assert.Error(t, err)
}

func TestRecvBufferReassembly(t *testing.T) {
	var b recvBuffer
	assert.NoError(t, b.push([]byte("World"), 5, false))
	assert.NoError(t, b.push([]byte("Hello"), 0, false))

	out := b.popContiguous()
	assert.Equal(t, []byte("HelloWorld"), out)
}

func TestRecvBufferReadBlocked(t *testing.T) {
	var b recvBuffer
	buf := make([]byte, 10)
	n, err := b.read(buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, ReadErrorBlocked, err)
}

func TestRecvBufferReadEOF(t *testing.T) {
	var b recvBuffer
	assert.NoError(t, b.push(nil, 0, true))
	buf := make([]byte, 10)
	n, err := b.read(buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestRecvBufferReset(t *testing.T) {
	var b recvBuffer
	assert.NoError(t, b.push([]byte("ab"), 0, false))
	mayRecv, err := b.reset(10)
	assert.NoError(t, err)
	assert.Equal(t, 8, mayRecv) // highWater was 2, final size 10

	buf := make([]byte, 10)
	_, err = b.read(buf)
	assert.Error(t, err)
}

func TestStreamMapLimits(t *testing.T) {
	var m streamMap
	m.init(1, 0)
	m.setPeerMaxStreamsBidi(1)

	// Locally-opened bidi stream 0 is allowed (index 0 < peerMaxStreamsBidi=1).
	_, err := m.create(0, true, true)
	assert.NoError(t, err)

	// Next local bidi stream id 4 (index 1) exceeds the peer-granted limit.
	_, err = m.create(4, true, true)
	assert.Error(t, err)
}
