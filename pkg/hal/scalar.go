package hal

import (
	"runtime"
	"sync"

	"github.com/neuronos/neuronos/pkg/neuronerr"
)

// gemvBufferPool reuses the int32 accumulator row across the batch
// rows GemmI2I8Scalar's workers compute, the same pattern _examples/other_examples' bitnet tensor
// package uses for its per-goroutine work buffer.
var gemvBufferPool = sync.Pool{
	New: func() any {
		return &gemvBuffer{sums: make([]int32, 0, 128)}
	},
}

type gemvBuffer struct {
	sums []int32
}

// VecDotI2I8ScalarBlocks computes the dot product of n/128 packed
// I2_S blocks against n int8 activations, accumulating the raw
// unsigned 2-bit code (in {0,1,2}) times the activation in int32, per
// spec.md §4.1: "Accumulation uses int32 with the raw 2-bit value
// ... multiplied by the int8 activation; conversion to ternary space
// is deferred to the caller". This is the reference implementation
// every other backend must match bit-for-bit.
func VecDotI2I8ScalarBlocks(n int, blocks []Block, activations []int8) (int32, error) {
	if n%QKI2S != 0 {
		return 0, neuronerr.New(neuronerr.KindInvalidArgument, "n must be a multiple of QKI2S")
	}
	if len(blocks) < n/QKI2S {
		return 0, neuronerr.New(neuronerr.KindInvalidArgument, "not enough blocks for n")
	}
	if len(activations) < n {
		return 0, neuronerr.New(neuronerr.KindInvalidArgument, "not enough activations for n")
	}
	var sum int32
	for bi := 0; bi < n/QKI2S; bi++ {
		codes := blocks[bi].Unpack()
		base := bi * QKI2S
		for j := 0; j < QKI2S; j++ {
			sum += int32(codes[j]) * int32(activations[base+j])
		}
	}
	return sum, nil
}

// QuantizeI2Scalar quantizes a float32 row into I2_S blocks. This is
// the QuantizeI2 kernel slot of the scalar BackendDescriptor.
func QuantizeI2Scalar(weights []float32) []Block {
	return QuantizeRow(weights)
}

// GemvI2I8Scalar computes y = W . x for a packed ternary weight matrix
// W (outFeatures rows, each a []Block covering inFeatures weights)
// against one int8 activation vector x, sequentially. This is the
// reference every GemvI2I8 kernel variant must match bit-for-bit.
func GemvI2I8Scalar(weightRows [][]Block, inFeatures int, activations []int8) ([]int32, error) {
	out := make([]int32, len(weightRows))
	for i, row := range weightRows {
		v, err := VecDotI2I8ScalarBlocks(inFeatures, row, activations)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// GemmI2I8Scalar computes Y = X . W^T for a batch of int8 activation
// rows against a packed ternary weight matrix, parallelized across
// runtime.NumCPU() goroutines with a pooled accumulator buffer,
// adapted from _examples/other_examples' BitLinear batch-chunking
// structure (there the output is clamped to int8; here the raw int32
// sums are returned per spec.md §4.1's deferred-conversion contract).
func GemmI2I8Scalar(weightRows [][]Block, inFeatures int, batch [][]int8) ([][]int32, error) {
	batchSize := len(batch)
	outFeatures := len(weightRows)
	output := make([][]int32, batchSize)

	numCPU := runtime.NumCPU()
	if numCPU > batchSize && batchSize > 0 {
		numCPU = batchSize
	}
	if numCPU < 1 {
		numCPU = 1
	}
	chunkSize := (batchSize + numCPU - 1) / numCPU

	var wg sync.WaitGroup
	errs := make([]error, numCPU)

	for w := 0; w < numCPU; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > batchSize {
			end = batchSize
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end, worker int) {
			defer wg.Done()
			buf := gemvBufferPool.Get().(*gemvBuffer)
			defer gemvBufferPool.Put(buf)
			if cap(buf.sums) < outFeatures {
				buf.sums = make([]int32, outFeatures)
			}
			buf.sums = buf.sums[:outFeatures]

			for b := start; b < end; b++ {
				for j := range buf.sums {
					buf.sums[j] = 0
				}
				for i, row := range weightRows {
					v, err := VecDotI2I8ScalarBlocks(inFeatures, row, batch[b])
					if err != nil {
						errs[worker] = err
						return
					}
					buf.sums[i] = v
				}
				row := make([]int32, outFeatures)
				copy(row, buf.sums)
				output[b] = row
			}
		}(start, end, w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return output, nil
}
