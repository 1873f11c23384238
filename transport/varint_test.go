package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 37, maxVarintLen8,
		maxVarintLen8 + 1, 15293, maxVarintLen16,
		maxVarintLen16 + 1, 494878333, maxVarintLen32,
		maxVarintLen32 + 1, 151288809941952652, maxVarintLen64,
	}
	for _, v := range values {
		b := appendVarint(nil, v)
		require.Len(t, b, varintLen(v))
		var got uint64
		n := getVarint(b, &got)
		require.Equal(t, len(b), n)
		assert.Equal(t, v, got)
	}
}

func TestVarintIncomplete(t *testing.T) {
	b := appendVarint(nil, maxVarintLen16+1)
	var v uint64
	n := getVarint(b[:1], &v)
	assert.Equal(t, 0, n)
}
