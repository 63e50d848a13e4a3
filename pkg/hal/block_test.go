package hal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	var codes [QKI2S]uint8
	for j := range codes {
		codes[j] = uint8(j % 3)
	}
	b := PackBlock(codes, 0.5)
	got := b.Unpack()
	assert.Equal(t, codes, got)
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	var codes [QKI2S]uint8
	for j := range codes {
		codes[j] = uint8((j * 7) % 3)
	}
	b := PackBlock(codes, 1.25)
	data := b.MarshalBinary()
	assert.Len(t, data, blockBytes)

	got, err := UnmarshalBlock(data)
	require.NoError(t, err)
	assert.Equal(t, b.Packed, got.Packed)
	assert.Equal(t, b.Scale, got.Scale)
}

func TestQuantizeRoundTripFixedPoint(t *testing.T) {
	weights := make([]float32, QKI2S)
	for j := range weights {
		switch j % 3 {
		case 0:
			weights[j] = 0
		case 1:
			weights[j] = 2.0
		case 2:
			weights[j] = -2.0
		}
	}
	blocks := QuantizeRow(weights)
	require.Len(t, blocks, 1)

	for j, w := range weights {
		deq := blocks[0].Ternary(j)
		requantized := quantizeCode(deq)
		original := quantizeCode(w)
		assert.Equal(t, original, requantized, "index %d: w=%v deq=%v", j, w, deq)
	}
}

func TestRowStride(t *testing.T) {
	assert.Equal(t, blockBytes, RowStride(1))
	assert.Equal(t, blockBytes, RowStride(128))
	assert.Equal(t, 2*blockBytes, RowStride(129))
	assert.Equal(t, 2*blockBytes, RowStride(256))
}

func TestQuantizeCodeBoundaries(t *testing.T) {
	assert.Equal(t, uint8(1), quantizeCode(0))
	assert.Equal(t, uint8(1), quantizeCode(1e-9))
	assert.Equal(t, uint8(2), quantizeCode(0.1))
	assert.Equal(t, uint8(0), quantizeCode(-0.1))
}
