package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLossRecoveryOnPacketSentAndAcked(t *testing.T) {
	var r lossRecovery
	now := time.Now()
	r.init(now)
	initialWindow := r.congestionWindow

	op := &outgoingPacket{packetNumber: 1, size: 100, timeSent: now, ackEliciting: true, inFlight: true}
	r.onPacketSent(op, packetSpaceApplication)
	assert.EqualValues(t, 100, r.bytesInFlight)

	var ranges rangeSet
	ranges.insert(1)
	r.onAckReceived(ranges, 0, packetSpaceApplication, now.Add(10*time.Millisecond))
	assert.EqualValues(t, 0, r.bytesInFlight)
	assert.Greater(t, r.congestionWindow, initialWindow) // slow start growth
}

func TestLossRecoveryDetectLostByReordering(t *testing.T) {
	var r lossRecovery
	now := time.Now()
	r.init(now)

	for pn := uint64(1); pn <= 4; pn++ {
		op := &outgoingPacket{packetNumber: pn, size: 100, timeSent: now, ackEliciting: true, inFlight: true}
		r.onPacketSent(op, packetSpaceApplication)
	}
	initialWindow := r.congestionWindow

	var ranges rangeSet
	ranges.insert(4) // packet 1 is now reorderingThreshold (3) behind
	r.onAckReceived(ranges, 0, packetSpaceApplication, now)

	var lost []frame
	r.drainLost(packetSpaceApplication, func(f frame) { lost = append(lost, f) })
	assert.Less(t, r.congestionWindow, initialWindow) // congestion event from the loss
}

func TestLossRecoveryUpdateRTT(t *testing.T) {
	var r lossRecovery
	r.init(time.Now())
	r.updateRTT(100*time.Millisecond, 0)
	assert.Equal(t, 100*time.Millisecond, r.smoothedRTT)
	assert.Equal(t, 100*time.Millisecond, r.minRTT)

	r.updateRTT(50*time.Millisecond, 0)
	assert.Equal(t, 50*time.Millisecond, r.minRTT)
}

func TestLossRecoveryAvailableWindow(t *testing.T) {
	var r lossRecovery
	r.init(time.Now())
	assert.Equal(t, r.congestionWindow, r.availableWindow())
	r.bytesInFlight = r.congestionWindow
	assert.EqualValues(t, 0, r.availableWindow())
}
