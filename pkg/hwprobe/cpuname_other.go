//go:build !amd64

package hwprobe

// cpuName has no platform registry lookup outside amd64's CPUID
// brand string; spec.md §4.2 names "Unknown CPU" as the fallback.
func cpuName() string {
	return "Unknown CPU"
}
