package hal

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randActivations(n int, r *rand.Rand) []int8 {
	out := make([]int8, n)
	for i := range out {
		out[i] = int8(r.Intn(255) - 128)
	}
	return out
}

func randWeights(n int, r *rand.Rand) []float32 {
	out := make([]float32, n)
	for i := range out {
		switch r.Intn(3) {
		case 0:
			out[i] = 0
		case 1:
			out[i] = r.Float32()*2 - 1
		case 2:
			out[i] = -(r.Float32()*2 - 1)
		}
	}
	return out
}

func TestVecDotScalarReference(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	n := 256
	weights := randWeights(n, r)
	blocks := QuantizeRow(weights)
	activations := randActivations(n, r)

	sum, err := VecDotI2I8ScalarBlocks(n, blocks, activations)
	require.NoError(t, err)

	var want int32
	for bi := 0; bi < n/QKI2S; bi++ {
		codes := blocks[bi].Unpack()
		for j := 0; j < QKI2S; j++ {
			want += int32(codes[j]) * int32(activations[bi*QKI2S+j])
		}
	}
	assert.Equal(t, want, sum)
}

func TestVecDotRejectsBadN(t *testing.T) {
	_, err := VecDotI2I8ScalarBlocks(100, nil, nil)
	require.Error(t, err)
}

func TestGemvMatchesPerRowVecDot(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	inFeatures := 128
	outFeatures := 4
	rows := make([][]Block, outFeatures)
	for i := range rows {
		rows[i] = QuantizeRow(randWeights(inFeatures, r))
	}
	activations := randActivations(inFeatures, r)

	got, err := GemvI2I8Scalar(rows, inFeatures, activations)
	require.NoError(t, err)
	require.Len(t, got, outFeatures)

	for i, row := range rows {
		want, err := VecDotI2I8ScalarBlocks(inFeatures, row, activations)
		require.NoError(t, err)
		assert.Equal(t, want, got[i])
	}
}

func TestGemmMatchesGemvPerBatchElement(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	inFeatures := 128
	outFeatures := 6
	batchSize := 5

	rows := make([][]Block, outFeatures)
	for i := range rows {
		rows[i] = QuantizeRow(randWeights(inFeatures, r))
	}
	batch := make([][]int8, batchSize)
	for b := range batch {
		batch[b] = randActivations(inFeatures, r)
	}

	got, err := GemmI2I8Scalar(rows, inFeatures, batch)
	require.NoError(t, err)
	require.Len(t, got, batchSize)

	for b := range batch {
		want, err := GemvI2I8Scalar(rows, inFeatures, batch[b])
		require.NoError(t, err)
		assert.Equal(t, want, got[b])
	}
}
