// Package hwprobe implements the NeuronOS hardware probe (C2):
// detecting CPU identity and topology, RAM, GPU VRAM, and the SIMD
// feature bitmask the HAL dispatches on.
package hwprobe

import (
	"runtime"

	"github.com/neuronos/neuronos/pkg/hal"
)

// HardwareInfo is the probe's output, per spec.md §3.
type HardwareInfo struct {
	CPUName        string
	Arch           string
	PhysicalCores  int
	LogicalCores   int
	RAMTotalMB     int64
	RAMAvailableMB int64
	ModelBudgetMB  int64
	GPUName        string
	GPUVRAMMB      int64
	Features       hal.Features
}

const (
	defaultLogicalCores = 4
	defaultRAMMB        = 2048
	ramReserveMB        = 500
	minModelBudgetMB    = 256
)

// Detect returns the current machine's HardwareInfo. It performs no
// caching in global state, per spec.md §4.2: "pure (no caching in
// global state)". Each field follows the resolution order specified
// there, adapted from
// _examples/other_examples' offgrid-llm DetectResources (RAM/GPU
// detection) plus pkg/hal's CPU feature detection.
func Detect() HardwareInfo {
	info := HardwareInfo{
		Arch:         archTag(),
		LogicalCores: logicalCores(),
		Features:     hal.DetectFeatures(),
	}

	info.CPUName = cpuName()
	info.PhysicalCores = physicalCoresFrom(info.LogicalCores)

	total, avail, ok := detectRAM()
	if !ok {
		total, avail = defaultRAMMB, defaultRAMMB
	}
	info.RAMTotalMB = total
	info.RAMAvailableMB = avail
	info.ModelBudgetMB = modelBudget(avail)

	name, vram := detectGPU()
	info.GPUName = name
	info.GPUVRAMMB = vram

	return info
}

// archTag maps runtime.GOARCH onto the spec's architecture tag
// vocabulary, per spec.md §4.2.
func archTag() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "riscv64":
		return "riscv64"
	case "arm":
		return "arm32"
	case "wasm":
		return "wasm"
	default:
		return "unknown"
	}
}

func logicalCores() int {
	n := runtime.NumCPU()
	if n <= 0 {
		return defaultLogicalCores
	}
	return n
}

// physicalCoresFrom applies spec.md §4.2's coarse SMT heuristic:
// "if logical > 8, estimate floor(logical*0.6); else equal". This is
// a known placeholder — see spec.md §9's open question about AMD SMT
// and Apple hybrid silicon; NeuronOS implements it exactly as
// specified rather than inventing real topology detection.
func physicalCoresFrom(logical int) int {
	if logical > 8 {
		return int(float64(logical) * 0.6)
	}
	return logical
}

func modelBudget(availableMB int64) int64 {
	budget := availableMB - ramReserveMB
	if budget < minModelBudgetMB {
		return minModelBudgetMB
	}
	return budget
}
