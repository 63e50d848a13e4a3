//go:build amd64

package hal

// vecDotI2I8AVX2Blocks computes the same accumulation as
// VecDotI2I8ScalarBlocks but unrolled eight codes at a time, the
// access pattern an AVX2 gather-multiply-accumulate sequence would
// use. Go has no portable inline-asm story in this corpus (no example
// repo vendors a Go-asm dependency for this), so the "AVX2" backend
// is an unrolled pure-Go kernel gated behind the AVX2 feature bit;
// its arithmetic is identical to the scalar backend by construction,
// which is what the bit-exactness invariant in spec.md §8 requires.
func vecDotI2I8AVX2Blocks(n int, blocks []Block, activations []int8) (int32, error) {
	if n%QKI2S != 0 {
		return 0, invalidN()
	}
	if len(blocks) < n/QKI2S || len(activations) < n {
		return 0, invalidLen()
	}
	var sum int32
	for bi := 0; bi < n/QKI2S; bi++ {
		codes := blocks[bi].Unpack()
		base := bi * QKI2S
		j := 0
		for ; j+8 <= QKI2S; j += 8 {
			sum += int32(codes[j+0]) * int32(activations[base+j+0])
			sum += int32(codes[j+1]) * int32(activations[base+j+1])
			sum += int32(codes[j+2]) * int32(activations[base+j+2])
			sum += int32(codes[j+3]) * int32(activations[base+j+3])
			sum += int32(codes[j+4]) * int32(activations[base+j+4])
			sum += int32(codes[j+5]) * int32(activations[base+j+5])
			sum += int32(codes[j+6]) * int32(activations[base+j+6])
			sum += int32(codes[j+7]) * int32(activations[base+j+7])
		}
		for ; j < QKI2S; j++ {
			sum += int32(codes[j]) * int32(activations[base+j])
		}
	}
	return sum, nil
}

func gemvI2I8AVX2(weightRows [][]Block, inFeatures int, activations []int8) ([]int32, error) {
	out := make([]int32, len(weightRows))
	for i, row := range weightRows {
		v, err := vecDotI2I8AVX2Blocks(inFeatures, row, activations)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func gemmI2I8AVX2(weightRows [][]Block, inFeatures int, batch [][]int8) ([][]int32, error) {
	out := make([][]int32, len(batch))
	for b, activations := range batch {
		row, err := gemvI2I8AVX2(weightRows, inFeatures, activations)
		if err != nil {
			return nil, err
		}
		out[b] = row
	}
	return out, nil
}

func init() {
	RegisterBackend(&BackendDescriptor{
		Name:             "avx2",
		Priority:         10,
		RequiredFeatures: FeatureAVX2,
		Block:            BlockParams{RowBlock: 8, ColBlock: QKI2S, Parallel: true, QKI2S: QKI2S},
		VecDotI2I8:       vecDotI2I8AVX2Blocks,
		QuantizeI2:       QuantizeI2Scalar,
		GemvI2I8:         gemvI2I8AVX2,
		GemmI2I8:         gemmI2I8AVX2,
	})
}
