package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeSetInsertCoalesce(t *testing.T) {
	var s rangeSet
	s.insert(5)
	s.insert(6)
	s.insert(4)
	assert.Equal(t, rangeSet{{start: 4, end: 6}}, s)
}

func TestRangeSetInsertIdempotent(t *testing.T) {
	var a, b rangeSet
	a.insert(10)
	a.insert(10)
	b.insert(10)
	assert.Equal(t, a, b)
}

func TestRangeSetInsertCommutative(t *testing.T) {
	var a, b rangeSet
	a.insert(3)
	a.insert(9)
	b.insert(9)
	b.insert(3)
	assert.Equal(t, a, b)
}

func TestRangeSetInsertRangeOverlap(t *testing.T) {
	var s rangeSet
	s.insertRange(1, 5)
	s.insertRange(3, 10)
	assert.Equal(t, rangeSet{{start: 1, end: 10}}, s)
}

func TestRangeSetRemoveUntil(t *testing.T) {
	var s rangeSet
	s.insertRange(1, 10)
	s.removeUntil(4)
	assert.Equal(t, rangeSet{{start: 5, end: 10}}, s)
}

func TestRangeSetContains(t *testing.T) {
	var s rangeSet
	s.insertRange(1, 3)
	s.insertRange(10, 12)
	assert.True(t, s.contains(2))
	assert.True(t, s.contains(11))
	assert.False(t, s.contains(5))
}

func TestRangeSetPeekMax(t *testing.T) {
	var s rangeSet
	_, ok := s.peekMax()
	assert.False(t, ok)
	s.insertRange(1, 3)
	s.insertRange(10, 12)
	max, ok := s.peekMax()
	assert.True(t, ok)
	assert.Equal(t, uint64(12), max)
}

func TestRangeSetRemoveRange(t *testing.T) {
	var s rangeSet
	s.insertRange(1, 10)
	s.removeRange(4, 6)
	assert.Equal(t, rangeSet{{start: 1, end: 3}, {start: 7, end: 10}}, s)
}
