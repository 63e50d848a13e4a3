//go:build arm64

package hal

// The NEON backend reuses the scalar kernels verbatim: NEON is always
// present on aarch64 per spec.md §4.2, so the distinguishing factor is
// only which backend gets selected, not a different code path. A
// dedicated NEON-intrinsic kernel would need the same Go-asm story
// AVX2 lacks in this corpus (see backend_avx2_amd64.go); registering
// it at a higher priority than scalar documents that aarch64 always
// has a feature-gated backend available rather than only the
// zero-feature fallback.
func init() {
	RegisterBackend(&BackendDescriptor{
		Name:             "neon",
		Priority:         10,
		RequiredFeatures: FeatureNEON,
		Block:            BlockParams{RowBlock: 4, ColBlock: QKI2S, Parallel: true, QKI2S: QKI2S},
		VecDotI2I8:       VecDotI2I8ScalarBlocks,
		QuantizeI2:       QuantizeI2Scalar,
		GemvI2I8:         GemvI2I8Scalar,
		GemmI2I8:         GemmI2I8Scalar,
	})
}
