package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlowControlRecvCredit(t *testing.T) {
	var f flowControl
	f.init(100, 0)
	assert.EqualValues(t, 100, f.canRecv())
	f.addRecv(40)
	assert.EqualValues(t, 60, f.canRecv())
}

func TestFlowControlSendCredit(t *testing.T) {
	var f flowControl
	f.init(0, 100)
	assert.EqualValues(t, 100, f.canSend())
	f.addSend(30)
	assert.EqualValues(t, 70, f.canSend())
	f.setMaxSend(150)
	assert.EqualValues(t, 120, f.canSend())
}

func TestFlowControlShouldUpdateMaxRecv(t *testing.T) {
	var f flowControl
	f.init(100, 0)
	f.addRecv(40)
	assert.False(t, f.shouldUpdateMaxRecv())
	f.addRecv(20) // crosses half of the 100-byte window
	assert.True(t, f.shouldUpdateMaxRecv())
	f.commitMaxRecv()
	assert.False(t, f.shouldUpdateMaxRecv())
	assert.Greater(t, f.maxRecvNext, uint64(100))
}
