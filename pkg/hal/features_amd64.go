//go:build amd64

package hal

import "github.com/klauspost/cpuid/v2"

// DetectFeatures reads CPUID leaves 1 and 7 via klauspost/cpuid/v2 and
// maps the subset of flags the HAL cares about onto Features, per
// spec.md §4.2's "Feature bitmask: CPUID leaves 1 and 7 on x86".
func DetectFeatures() Features {
	var f Features
	if cpuid.CPU.Supports(cpuid.SSE3) {
		f |= FeatureSSE3
	}
	if cpuid.CPU.Supports(cpuid.SSSE3) {
		f |= FeatureSSSE3
	}
	if cpuid.CPU.Supports(cpuid.AVX) {
		f |= FeatureAVX
	}
	if cpuid.CPU.Supports(cpuid.AVX2) {
		f |= FeatureAVX2
	}
	if cpuid.CPU.Supports(cpuid.AVXVNNI) {
		f |= FeatureAVXVNNI
	}
	if cpuid.CPU.Supports(cpuid.AVX512F) {
		f |= FeatureAVX512F
	}
	return f
}
