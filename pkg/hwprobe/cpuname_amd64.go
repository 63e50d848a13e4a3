//go:build amd64

package hwprobe

import "github.com/klauspost/cpuid/v2"

// cpuName reads the CPU brand string via klauspost/cpuid/v2, falling
// back to the spec.md §4.2 default when unavailable.
func cpuName() string {
	if cpuid.CPU.BrandName != "" {
		return cpuid.CPU.BrandName
	}
	return "Unknown CPU"
}
