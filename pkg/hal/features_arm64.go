//go:build arm64

package hal

// DetectFeatures returns the always-on NEON bit on aarch64, per
// spec.md §4.2: "always-on NEON on aarch64; zero elsewhere".
func DetectFeatures() Features {
	return FeatureNEON
}
